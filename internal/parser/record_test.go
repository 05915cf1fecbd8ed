package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

const invoiceJSON = `{
	"number": "1001",
	"series": "1",
	"document_type": "NFe",
	"classification": "Produto",
	"cfop": "5100",
	"nature_of_operation": "01",
	"total_value": 1000.00,
	"issuer_tax_id": "11222333000181",
	"issuer_tax_regime": "3",
	"uf": "35",
	"buyer_cnpj": "12345678000199",
	"issued_at": "2024-03-10T00:00:00Z",
	"items": [
		{
			"code": "P1",
			"description": "Widget",
			"quantity": 2,
			"unit_value": 500.00,
			"total_value": 1000.00,
			"classification": "Produto",
			"ncm": "12345678",
			"cfop": "5100",
			"icms_code": "00",
			"icms_rate": 18,
			"icms_amount": 180.00
		}
	]
}`

func writeRecord(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadFile(t *testing.T) {
	t.Run("Expect: a well-formed record decodes", func(t *testing.T) {
		record, err := ReadFile(writeRecord(t, invoiceJSON))
		require.NoError(t, err)
		assert.Equal(t, "1001", record.Number)
		assert.True(t, record.TotalValue.Equal(decimal.NewFromFloat(1000.00)))
		require.Len(t, record.Items, 1)
		assert.Equal(t, "12345678", record.Items[0].NCM)
	})

	t.Run("Expect: malformed JSON is a parse error", func(t *testing.T) {
		_, err := ReadFile(writeRecord(t, "{not json"))
		assert.Error(t, err)
	})

	t.Run("Expect: missing natural key is a parse error", func(t *testing.T) {
		_, err := ReadFile(writeRecord(t, `{"number": "", "series": "1"}`))
		assert.Error(t, err)
	})

	t.Run("Expect: missing file is a parse error", func(t *testing.T) {
		_, err := ReadFile("does/not/exist.json")
		assert.Error(t, err)
	})
}

func TestRecord_TypeHint(t *testing.T) {
	t.Run("Expect: explicit NFe marker", func(t *testing.T) {
		record := Record{DocumentType: "NFe"}
		docType, ok := record.TypeHint()
		assert.True(t, ok)
		assert.Equal(t, models.DocumentTypeInvoice, docType)
	})

	t.Run("Expect: explicit RPS marker", func(t *testing.T) {
		record := Record{DocumentType: "RPS"}
		docType, ok := record.TypeHint()
		assert.True(t, ok)
		assert.Equal(t, models.DocumentTypeServiceReceipt, docType)
	})

	t.Run("Expect: pure-service record without CFOP reads as a receipt", func(t *testing.T) {
		record := Record{Classification: "Servico"}
		docType, ok := record.TypeHint()
		assert.True(t, ok)
		assert.Equal(t, models.DocumentTypeServiceReceipt, docType)
	})

	t.Run("Expect: no markers defaults to invoice, flagged ambiguous", func(t *testing.T) {
		record := Record{Classification: "Produto"}
		docType, ok := record.TypeHint()
		assert.False(t, ok)
		assert.Equal(t, models.DocumentTypeInvoice, docType)
	})
}

func TestRecord_ToDocument(t *testing.T) {
	record, err := ReadFile(writeRecord(t, invoiceJSON))
	require.NoError(t, err)

	doc := record.ToDocument(models.DocumentTypeInvoice)
	assert.Equal(t, models.StatusPending, doc.Status)
	assert.Equal(t, models.ClassificationProduct, doc.Classification)
	assert.Equal(t, "12345678000199", doc.BuyerCNPJ)
	require.Len(t, doc.Items, 1)
	assert.True(t, doc.Items[0].ICMSAmount.Equal(decimal.NewFromFloat(180.00)))

	t.Run("Expect: service receipt without classification defaults to service", func(t *testing.T) {
		bare := Record{Number: "9", Series: "1"}
		doc := bare.ToDocument(models.DocumentTypeServiceReceipt)
		assert.Equal(t, models.ClassificationService, doc.Classification)
	})
}

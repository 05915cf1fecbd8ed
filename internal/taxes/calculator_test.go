package taxes

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

func amountFor(t *testing.T, assessments []models.TaxAssessment, taxType models.TaxType) decimal.Decimal {
	t.Helper()
	for _, a := range assessments {
		if a.TaxType == taxType {
			return a.Amount
		}
	}
	t.Fatalf("no assessment for %s", taxType)
	return decimal.Zero
}

func TestCalculate_Product(t *testing.T) {
	doc := &models.FiscalDocument{
		Number:         "123",
		Series:         "1",
		Classification: models.ClassificationProduct,
		TotalValue:     decimal.NewFromFloat(1000.00),
	}

	assessments, err := Calculate(doc)
	require.NoError(t, err)
	require.Len(t, assessments, 4)

	assert.True(t, amountFor(t, assessments, models.TaxICMS).Equal(decimal.NewFromFloat(180.00)))
	assert.True(t, amountFor(t, assessments, models.TaxIPI).Equal(decimal.NewFromFloat(100.00)))
	assert.True(t, amountFor(t, assessments, models.TaxPIS).Equal(decimal.NewFromFloat(16.50)))
	assert.True(t, amountFor(t, assessments, models.TaxCOFINS).Equal(decimal.NewFromFloat(76.00)))

	// Emission order: product taxes first, PIS/COFINS last.
	assert.Equal(t, models.TaxICMS, assessments[0].TaxType)
	assert.Equal(t, models.TaxCOFINS, assessments[3].TaxType)
}

func TestCalculate_Service(t *testing.T) {
	doc := &models.FiscalDocument{
		Number:         "55",
		Series:         "1",
		Classification: models.ClassificationService,
		TotalValue:     decimal.NewFromFloat(2000.00),
	}

	assessments, err := Calculate(doc)
	require.NoError(t, err)
	require.Len(t, assessments, 6)

	assert.True(t, amountFor(t, assessments, models.TaxISS).Equal(decimal.NewFromFloat(100.00)))
	assert.True(t, amountFor(t, assessments, models.TaxINSS).Equal(decimal.NewFromFloat(220.00)))
	assert.True(t, amountFor(t, assessments, models.TaxIRPJ).Equal(decimal.NewFromFloat(30.00)))
	assert.True(t, amountFor(t, assessments, models.TaxCSLL).Equal(decimal.NewFromFloat(20.00)))

	// Service-only PIS/COFINS use the reduced rates.
	assert.True(t, amountFor(t, assessments, models.TaxPIS).Equal(decimal.NewFromFloat(13.00)))
	assert.True(t, amountFor(t, assessments, models.TaxCOFINS).Equal(decimal.NewFromFloat(60.00)))
}

func TestCalculate_Both(t *testing.T) {
	doc := &models.FiscalDocument{
		Number:         "7",
		Series:         "2",
		Classification: models.ClassificationBoth,
		TotalValue:     decimal.NewFromFloat(1000.00),
	}

	assessments, err := Calculate(doc)
	require.NoError(t, err)

	// Both tax sets, PIS/COFINS exactly once, at the product rates.
	require.Len(t, assessments, 8)
	assert.True(t, amountFor(t, assessments, models.TaxPIS).Equal(decimal.NewFromFloat(16.50)))
	assert.True(t, amountFor(t, assessments, models.TaxCOFINS).Equal(decimal.NewFromFloat(76.00)))
}

func TestCalculate_ZeroTotal(t *testing.T) {
	doc := &models.FiscalDocument{
		Classification: models.ClassificationProduct,
		TotalValue:     decimal.Zero,
	}

	assessments, err := Calculate(doc)
	require.NoError(t, err)
	for _, a := range assessments {
		assert.True(t, a.Amount.IsZero())
	}
}

func TestCalculate_NegativeTotal(t *testing.T) {
	doc := &models.FiscalDocument{
		Classification: models.ClassificationProduct,
		TotalValue:     decimal.NewFromFloat(-10.00),
	}

	_, err := Calculate(doc)
	assert.Error(t, err)
}

func TestTotal(t *testing.T) {
	doc := &models.FiscalDocument{
		Classification: models.ClassificationProduct,
		TotalValue:     decimal.NewFromFloat(1000.00),
	}

	assessments, err := Calculate(doc)
	require.NoError(t, err)
	assert.True(t, Total(assessments).Equal(decimal.NewFromFloat(372.50)))
}

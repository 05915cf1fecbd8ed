// Package parser reads the canonical fiscal record produced upstream by the
// vendor-format extractors. It is not an NFe XML parser; input here is the
// already-normalized JSON contract, one document per file.
package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

// Record mirrors the input contract field for field.
type Record struct {
	Number            string          `json:"number"`
	Series            string          `json:"series"`
	DocumentType      string          `json:"document_type"`
	Classification    string          `json:"classification"`
	CFOP              string          `json:"cfop"`
	NatureOfOperation string          `json:"nature_of_operation"`
	SpecialTaxCode    string          `json:"special_tax_code"`
	TotalValue        decimal.Decimal `json:"total_value"`
	IssuerTaxID       string          `json:"issuer_tax_id"`
	IssuerTaxRegime   string          `json:"issuer_tax_regime"`
	UF                string          `json:"uf"`
	BuyerCNPJ         string          `json:"buyer_cnpj"`
	BuyerCPF          string          `json:"buyer_cpf"`
	IssuedAt          time.Time       `json:"issued_at"`
	Items             []ItemRecord    `json:"items"`
}

type ItemRecord struct {
	Code           string          `json:"code"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitValue      decimal.Decimal `json:"unit_value"`
	TotalValue     decimal.Decimal `json:"total_value"`
	Classification string          `json:"classification"`
	NCM            string          `json:"ncm,omitempty"`
	CFOP           string          `json:"cfop"`

	ICMSCode   string          `json:"icms_code,omitempty"`
	ICMSRate   decimal.Decimal `json:"icms_rate,omitempty"`
	ICMSAmount decimal.Decimal `json:"icms_amount,omitempty"`

	IPICode   string          `json:"ipi_code,omitempty"`
	IPIRate   decimal.Decimal `json:"ipi_rate,omitempty"`
	IPIAmount decimal.Decimal `json:"ipi_amount,omitempty"`

	PISCode   string          `json:"pis_code,omitempty"`
	PISRate   decimal.Decimal `json:"pis_rate,omitempty"`
	PISAmount decimal.Decimal `json:"pis_amount,omitempty"`

	COFINSCode   string          `json:"cofins_code,omitempty"`
	COFINSRate   decimal.Decimal `json:"cofins_rate,omitempty"`
	COFINSAmount decimal.Decimal `json:"cofins_amount,omitempty"`
}

// ReadFile decodes one canonical record from a file. A malformed file is a
// parse error for that document only; the caller keeps iterating the batch.
func ReadFile(path string) (*Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to parse canonical record %s: %w", path, err)
	}

	if record.Number == "" || record.Series == "" {
		return nil, fmt.Errorf("record %s is missing its number or series", path)
	}

	return &record, nil
}

// TypeHint inspects the record's markers for the service-receipt vs invoice
// split. ok is false when the markers are ambiguous; callers default to
// Invoice in that case.
func (r *Record) TypeHint() (models.DocumentType, bool) {
	switch r.DocumentType {
	case string(models.DocumentTypeServiceReceipt), "rps":
		return models.DocumentTypeServiceReceipt, true
	case string(models.DocumentTypeInvoice), "nfe":
		return models.DocumentTypeInvoice, true
	}

	// No explicit marker: a pure-service record with no operation CFOP looks
	// like a service receipt.
	if models.Classification(r.Classification) == models.ClassificationService && r.CFOP == "" {
		return models.DocumentTypeServiceReceipt, true
	}

	return models.DocumentTypeInvoice, false
}

// ToDocument maps the record onto the domain model with the resolved type.
func (r *Record) ToDocument(docType models.DocumentType) *models.FiscalDocument {
	doc := &models.FiscalDocument{
		Number:            r.Number,
		Series:            r.Series,
		DocumentType:      docType,
		Classification:    models.Classification(r.Classification),
		CFOP:              r.CFOP,
		NatureOfOperation: r.NatureOfOperation,
		SpecialTaxCode:    r.SpecialTaxCode,
		TotalValue:        r.TotalValue,
		IssuerTaxID:       r.IssuerTaxID,
		IssuerTaxRegime:   r.IssuerTaxRegime,
		UF:                r.UF,
		BuyerCNPJ:         r.BuyerCNPJ,
		BuyerCPF:          r.BuyerCPF,
		IssuedAt:          r.IssuedAt,
		Status:            models.StatusPending,
	}

	if doc.Classification == "" {
		if docType == models.DocumentTypeServiceReceipt {
			doc.Classification = models.ClassificationService
		} else {
			doc.Classification = models.ClassificationProduct
		}
	}

	for _, item := range r.Items {
		doc.Items = append(doc.Items, models.LineItem{
			Code:           item.Code,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitValue:      item.UnitValue,
			TotalValue:     item.TotalValue,
			Classification: models.Classification(item.Classification),
			NCM:            item.NCM,
			CFOP:           item.CFOP,
			ICMSCode:       item.ICMSCode,
			ICMSRate:       item.ICMSRate,
			ICMSAmount:     item.ICMSAmount,
			IPICode:        item.IPICode,
			IPIRate:        item.IPIRate,
			IPIAmount:      item.IPIAmount,
			PISCode:        item.PISCode,
			PISRate:        item.PISRate,
			PISAmount:      item.PISAmount,
			COFINSCode:     item.COFINSCode,
			COFINSRate:     item.COFINSRate,
			COFINSAmount:   item.COFINSAmount,
		})
	}

	return doc
}

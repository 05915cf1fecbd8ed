package validation

import (
	"fmt"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

// BuyerKind classifies the buyer identity on a document.
type BuyerKind string

const (
	BuyerLegalEntity BuyerKind = "PJ"
	BuyerIndividual  BuyerKind = "PF"
	BuyerMissing     BuyerKind = "AUSENTE"
	BuyerAmbiguous   BuyerKind = "INDEFINIDO"
)

// ResolveBuyerKind derives the buyer type from which identity documents are
// populated. CNPJ and CPF are mutually exclusive on a valid document.
func ResolveBuyerKind(doc *models.FiscalDocument) BuyerKind {
	switch {
	case doc.BuyerCNPJ != "" && doc.BuyerCPF == "":
		return BuyerLegalEntity
	case doc.BuyerCPF != "" && doc.BuyerCNPJ == "":
		return BuyerIndividual
	case doc.BuyerCNPJ == "" && doc.BuyerCPF == "":
		return BuyerMissing
	default:
		return BuyerAmbiguous
	}
}

// CheckBuyerIdentity resolves the buyer type and validates the populated
// document: CNPJ must be 14 digits, CPF 11.
func (v *Validator) CheckBuyerIdentity(doc *models.FiscalDocument) models.CheckResult {
	var errs []string

	switch ResolveBuyerKind(doc) {
	case BuyerLegalEntity:
		errs = append(errs, validateIdentityDigits("CNPJ", doc.BuyerCNPJ, 14)...)
	case BuyerIndividual:
		errs = append(errs, validateIdentityDigits("CPF", doc.BuyerCPF, 11)...)
	case BuyerMissing:
		errs = append(errs, "buyer CNPJ and CPF are both missing")
	case BuyerAmbiguous:
		errs = append(errs, "buyer CNPJ and CPF are both populated")
	}

	return models.CheckResult{Valid: len(errs) == 0, Errors: errs}
}

func validateIdentityDigits(kind, value string, length int) []string {
	var errs []string
	if len(value) != length {
		errs = append(errs, fmt.Sprintf("%s '%s' must have exactly %d digits", kind, value, length))
		return errs
	}
	if !isDigits(value) {
		errs = append(errs, fmt.Sprintf("%s '%s' must contain only digits", kind, value))
	}
	return errs
}

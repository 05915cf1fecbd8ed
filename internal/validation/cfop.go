package validation

import (
	"fmt"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validateCFOPCode checks one code against the reference table and returns the
// description on success.
func (v *Validator) validateCFOPCode(cfop string) (string, []string) {
	var errs []string
	if len(cfop) != 4 {
		errs = append(errs, fmt.Sprintf("CFOP '%s' must have exactly 4 digits", cfop))
		return "", errs
	}
	if !isDigits(cfop) {
		errs = append(errs, fmt.Sprintf("CFOP '%s' must contain only digits", cfop))
		return "", errs
	}
	description, ok := v.store.LookupCFOP(cfop)
	if !ok {
		errs = append(errs, fmt.Sprintf("CFOP '%s' not found in the official table", cfop))
		return "", errs
	}
	return description, nil
}

// CheckCFOP validates the document-level CFOP and every item CFOP. Errors name
// the offending item index, or "document-level" for the header code.
func (v *Validator) CheckCFOP(doc *models.FiscalDocument) models.CheckResult {
	var errs []string

	if doc.CFOP != "" {
		if _, codeErrs := v.validateCFOPCode(doc.CFOP); len(codeErrs) > 0 {
			for _, e := range codeErrs {
				errs = append(errs, fmt.Sprintf("document-level: %s", e))
			}
		}
	}

	for idx, item := range doc.Items {
		if item.CFOP == "" {
			continue
		}
		if _, codeErrs := v.validateCFOPCode(item.CFOP); len(codeErrs) > 0 {
			for _, e := range codeErrs {
				errs = append(errs, fmt.Sprintf("item %d: %s", idx+1, e))
			}
		}
	}

	return models.CheckResult{Valid: len(errs) == 0, Errors: errs}
}

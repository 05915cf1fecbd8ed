package validation

import (
	"fmt"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

// CheckNCM validates every non-empty item NCM: exactly 8 numeric digits.
// Absence is permitted, service items carry no NCM.
func (v *Validator) CheckNCM(doc *models.FiscalDocument) models.CheckResult {
	var errs []string

	for idx, item := range doc.Items {
		if item.NCM == "" {
			continue
		}
		if len(item.NCM) != 8 {
			errs = append(errs, fmt.Sprintf("item %d: NCM '%s' must have exactly 8 digits", idx+1, item.NCM))
			continue
		}
		if !isDigits(item.NCM) {
			errs = append(errs, fmt.Sprintf("item %d: NCM '%s' must contain only digits", idx+1, item.NCM))
		}
	}

	return models.CheckResult{Valid: len(errs) == 0, Errors: errs}
}

// Package validation cross-checks a fiscal document's tax codes against the
// regulator rule tables. Checks run in a fixed order and the validator stops
// at the first failing one, reporting only that check's errors.
package validation

import (
	"fmt"
	"strings"

	"github.com/costadiogo/nf-processor-agent/internal/models"
	"github.com/costadiogo/nf-processor-agent/internal/reference"
)

type Validator struct {
	store *reference.Store
}

func New(store *reference.Store) *Validator {
	return &Validator{store: store}
}

// Result is the validator's overall verdict for one document.
type Result struct {
	Valid       bool
	FailedCheck string
	Errors      []string
	Warnings    []string
}

// Message composes the human-readable rejection reason stored on the document.
func (r Result) Message() string {
	if r.Valid {
		return ""
	}
	return fmt.Sprintf("%s validation failed: %s", r.FailedCheck, strings.Join(r.Errors, "; "))
}

// Validate runs the check sequence: CFOP, NCM, buyer identity, CST/CSOSN.
// Warnings accumulate across all executed checks; errors come from the first
// failing check only.
func (v *Validator) Validate(doc *models.FiscalDocument) Result {
	checks := []struct {
		name string
		run  func(*models.FiscalDocument) models.CheckResult
	}{
		{"CFOP", v.CheckCFOP},
		{"NCM", v.CheckNCM},
		{"buyer identity", v.CheckBuyerIdentity},
		{"CST/CSOSN", v.CheckCST},
	}

	var warnings []string
	for _, check := range checks {
		result := check.run(doc)
		warnings = append(warnings, result.Warnings...)
		if !result.Valid {
			return Result{
				Valid:       false,
				FailedCheck: check.name,
				Errors:      result.Errors,
				Warnings:    warnings,
			}
		}
	}

	return Result{Valid: true, Warnings: warnings}
}

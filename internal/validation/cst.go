package validation

import (
	"fmt"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

// ICMS code classes used by the declared-value consistency policy. Codes 00
// (CST) and 101 (CSOSN) denote full taxation and require a destaque; 40/41
// (CST) and 300/400 (CSOSN) denote exemption or non-taxation.
func isFullyTaxedCode(code string) bool {
	return code == "00" || code == "101"
}

func isExemptCode(code string) bool {
	return code == "40" || code == "41" || code == "300" || code == "400"
}

// CheckCST cross-validates each item's tax-situation codes against the rule
// table for its CFOP, under the issuer's tax regime. A missing rule is a hard
// error; declared values inconsistent with an exemption code only warn.
func (v *Validator) CheckCST(doc *models.FiscalDocument) models.CheckResult {
	var errs, warnings []string

	if len(doc.Items) == 0 {
		return models.CheckResult{Valid: false, Errors: []string{"document has no items to validate"}}
	}

	regime := models.RegimeFromCRT(doc.IssuerTaxRegime)

	for idx, item := range doc.Items {
		itemNo := idx + 1

		record, ok := v.store.LookupRule(item.CFOP)
		if !ok {
			errs = append(errs, fmt.Sprintf("item %d: no rule defined for CFOP %s", itemNo, item.CFOP))
			continue
		}
		rule := record.ForRegime(regime)
		if rule == nil {
			errs = append(errs, fmt.Sprintf("item %d: no %s rule defined for CFOP %s", itemNo, regime, item.CFOP))
			continue
		}

		// ICMS: the declared code must be in the regime's allow-list, CSOSN
		// under Simples Nacional and CST otherwise.
		code := item.ICMSCode
		if code != "" {
			allowed := rule.ICMS.AllowsCST(code)
			if regime == models.RegimeSimplified {
				allowed = rule.ICMS.AllowsCSOSN(code)
			}
			if !allowed {
				errs = append(errs, fmt.Sprintf("item %d: CST/CSOSN %s inconsistent with CFOP %s under %s", itemNo, code, item.CFOP, regime))
			}
		}

		zeroICMS := item.ICMSAmount.IsZero() && item.ICMSRate.IsZero()
		if isFullyTaxedCode(code) && zeroICMS {
			errs = append(errs, fmt.Sprintf("item %d: CFOP %s expects ICMS destaque (code %s), but rate and amount are zero", itemNo, item.CFOP, code))
		} else if isExemptCode(code) && !zeroICMS {
			warnings = append(warnings, fmt.Sprintf("item %d: ICMS declared (%s) under exemption code %s", itemNo, item.ICMSAmount, code))
		}

		// IPI.
		zeroIPI := item.IPIAmount.IsZero() && item.IPIRate.IsZero()
		if rule.IPI.Expected {
			if zeroIPI {
				errs = append(errs, fmt.Sprintf("item %d: CFOP %s expects IPI, but no rate or amount declared", itemNo, item.CFOP))
			}
			if len(rule.IPI.ValidCST) > 0 && !rule.IPI.AllowsCST(item.IPICode) {
				errs = append(errs, fmt.Sprintf("item %d: CST IPI %s invalid for CFOP %s, expected one of %v", itemNo, item.IPICode, item.CFOP, rule.IPI.ValidCST))
			}
		} else {
			if !item.IPIAmount.IsZero() {
				warnings = append(warnings, fmt.Sprintf("item %d: CFOP %s does not usually expect IPI, but a value was declared", itemNo, item.CFOP))
			}
			if item.IPICode != "" && len(rule.IPI.ValidCST) > 0 && !rule.IPI.AllowsCST(item.IPICode) {
				errs = append(errs, fmt.Sprintf("item %d: CST IPI %s invalid for CFOP %s, expected one of %v", itemNo, item.IPICode, item.CFOP, rule.IPI.ValidCST))
			}
		}

		// PIS/COFINS: declared codes must be in the rule's allow-list.
		if item.PISCode != "" && len(rule.PISCOFINS.ValidCST) > 0 && !rule.PISCOFINS.AllowsCST(item.PISCode) {
			errs = append(errs, fmt.Sprintf("item %d: CST PIS %s inconsistent with CFOP %s under %s, expected one of %v", itemNo, item.PISCode, item.CFOP, regime, rule.PISCOFINS.ValidCST))
		}
		if item.COFINSCode != "" && len(rule.PISCOFINS.ValidCST) > 0 && !rule.PISCOFINS.AllowsCST(item.COFINSCode) {
			errs = append(errs, fmt.Sprintf("item %d: CST COFINS %s inconsistent with CFOP %s under %s, expected one of %v", itemNo, item.COFINSCode, item.CFOP, regime, rule.PISCOFINS.ValidCST))
		}
	}

	return models.CheckResult{Valid: len(errs) == 0, Errors: errs, Warnings: warnings}
}

// Package taxes computes the flat-rate tax assessments for a fiscal document.
// The base is always the document total; proration across items is out of scope.
package taxes

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

var (
	productRates = map[models.TaxType]decimal.Decimal{
		models.TaxICMS: decimal.NewFromFloat(18.0),
		models.TaxIPI:  decimal.NewFromFloat(10.0),
	}

	serviceRates = map[models.TaxType]decimal.Decimal{
		models.TaxISS:  decimal.NewFromFloat(5.0),
		models.TaxINSS: decimal.NewFromFloat(11.0),
		models.TaxIRPJ: decimal.NewFromFloat(1.5),
		models.TaxCSLL: decimal.NewFromFloat(1.0),
	}

	// PIS/COFINS depend on whether the classification includes products.
	pisProductRate    = decimal.NewFromFloat(1.65)
	pisServiceRate    = decimal.NewFromFloat(0.65)
	cofinsProductRate = decimal.NewFromFloat(7.6)
	cofinsServiceRate = decimal.NewFromFloat(3.0)

	hundred = decimal.NewFromInt(100)
)

// Calculate returns the ordered tax assessments for a document: product taxes,
// service taxes, then PIS and COFINS computed once. Classification "Both"
// emits both sets and uses the product PIS/COFINS rates.
func Calculate(doc *models.FiscalDocument) ([]models.TaxAssessment, error) {
	if doc.TotalValue.IsNegative() {
		return nil, fmt.Errorf("document %s/%s has negative total value %s", doc.Number, doc.Series, doc.TotalValue)
	}

	base := doc.TotalValue
	var assessments []models.TaxAssessment

	isProduct := doc.Classification.IncludesProduct()
	isService := doc.Classification.IncludesService()

	if isProduct {
		assessments = append(assessments,
			assess(models.TaxICMS, productRates[models.TaxICMS], base),
			assess(models.TaxIPI, productRates[models.TaxIPI], base),
		)
	}
	if isService {
		assessments = append(assessments,
			assess(models.TaxISS, serviceRates[models.TaxISS], base),
			assess(models.TaxINSS, serviceRates[models.TaxINSS], base),
			assess(models.TaxIRPJ, serviceRates[models.TaxIRPJ], base),
			assess(models.TaxCSLL, serviceRates[models.TaxCSLL], base),
		)
	}

	pisRate, cofinsRate := pisServiceRate, cofinsServiceRate
	if isProduct {
		pisRate, cofinsRate = pisProductRate, cofinsProductRate
	}
	assessments = append(assessments,
		assess(models.TaxPIS, pisRate, base),
		assess(models.TaxCOFINS, cofinsRate, base),
	)

	return assessments, nil
}

// Total sums the computed amounts.
func Total(assessments []models.TaxAssessment) decimal.Decimal {
	total := decimal.Zero
	for _, a := range assessments {
		total = total.Add(a.Amount)
	}
	return total
}

func assess(taxType models.TaxType, rate, base decimal.Decimal) models.TaxAssessment {
	return models.TaxAssessment{
		TaxType: taxType,
		Rate:    rate,
		Base:    base,
		Amount:  base.Mul(rate).Div(hundred).Round(2),
	}
}

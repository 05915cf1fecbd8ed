package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DocumentType string

const (
	DocumentTypeInvoice        DocumentType = "NFe"
	DocumentTypeServiceReceipt DocumentType = "RPS"
)

type Classification string

const (
	ClassificationProduct Classification = "Produto"
	ClassificationService Classification = "Servico"
	ClassificationBoth    Classification = "Ambos"
)

// IncludesProduct reports whether the classification carries the product tax set.
func (c Classification) IncludesProduct() bool {
	return c == ClassificationProduct || c == ClassificationBoth
}

func (c Classification) IncludesService() bool {
	return c == ClassificationService || c == ClassificationBoth
}

type Status string

const (
	StatusPending             Status = "Pendente"
	StatusApproved            Status = "Aprovado"
	StatusRejected            Status = "Reprovado"
	StatusAuthorized          Status = "Autorizado"
	StatusRejectedByAuthority Status = "Rejeitado SEFAZ"
)

type TaxRegime string

const (
	RegimeNormal     TaxRegime = "REGIME_NORMAL"
	RegimeSimplified TaxRegime = "SIMPLES_NACIONAL"
)

// RegimeFromCRT maps the issuer's CRT code to a rule regime. CRT 1 and 2 are
// Simples Nacional, everything else falls under the normal regime.
func RegimeFromCRT(crt string) TaxRegime {
	if crt == "1" || crt == "2" {
		return RegimeSimplified
	}
	return RegimeNormal
}

type TaxType string

const (
	TaxICMS   TaxType = "ICMS"
	TaxIPI    TaxType = "IPI"
	TaxPIS    TaxType = "PIS"
	TaxCOFINS TaxType = "COFINS"
	TaxISS    TaxType = "ISS"
	TaxINSS   TaxType = "INSS"
	TaxIRPJ   TaxType = "IRPJ"
	TaxCSLL   TaxType = "CSLL"
)

// FiscalDocument is the canonical record the vendor-format parsers produce.
// (Number, Series) is the natural key; exactly one of BuyerCNPJ/BuyerCPF is
// set for a valid buyer identity.
type FiscalDocument struct {
	ID                int64
	Number            string
	Series            string
	DocumentType      DocumentType
	Classification    Classification
	CFOP              string
	NatureOfOperation string
	SpecialTaxCode    string
	TotalValue        decimal.Decimal
	IssuerTaxID       string
	IssuerTaxRegime   string
	UF                string
	BuyerCNPJ         string
	BuyerCPF          string
	Status            Status
	ErrorMessage      string
	AuthorizationKey  string
	ProtocolNumber    string
	AuthorizedAt      *time.Time
	IssuedAt          time.Time
	ProcessedAt       time.Time
	Items             []LineItem
	Taxes             []TaxAssessment
	AdvisoryWarnings  []string
}

type LineItem struct {
	Code           string
	Description    string
	Quantity       decimal.Decimal
	UnitValue      decimal.Decimal
	TotalValue     decimal.Decimal
	Classification Classification
	NCM            string
	CFOP           string

	ICMSCode   string
	ICMSRate   decimal.Decimal
	ICMSAmount decimal.Decimal

	IPICode   string
	IPIRate   decimal.Decimal
	IPIAmount decimal.Decimal

	PISCode   string
	PISRate   decimal.Decimal
	PISAmount decimal.Decimal

	COFINSCode   string
	COFINSRate   decimal.Decimal
	COFINSAmount decimal.Decimal
}

type TaxAssessment struct {
	TaxType TaxType
	Rate    decimal.Decimal
	Base    decimal.Decimal
	Amount  decimal.Decimal
}

// CheckResult is the outcome of a single validation sub-check.
type CheckResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r CheckResult) Merge(other CheckResult) CheckResult {
	return CheckResult{
		Valid:    r.Valid && other.Valid,
		Errors:   append(r.Errors, other.Errors...),
		Warnings: append(r.Warnings, other.Warnings...),
	}
}

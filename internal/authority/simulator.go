// Package authority simulates the regulator's homologation environment: it
// derives the 44-digit access key for a document and produces synthetic
// authorization or rejection responses. No real submission happens here.
package authority

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

const (
	defaultUF    = "35"
	defaultModel = "55"

	StatusAuthorized = "sucesso"
	StatusRejected   = "rejeitado"

	CodeAuthorized = "100"
)

// rejectionReasons is the fixed table the rejection simulator draws from.
var rejectionReasons = map[string]string{
	"202": "Rejeicao: NF-e ja esta denegada na base de dados da SEFAZ",
	"217": "Rejeicao: NF-e nao consta na base de dados da SEFAZ",
	"227": "Rejeicao: A data de emissao nao pode ser anterior a data de emissao da NF referenciada",
	"229": "Rejeicao: IE do destinatario nao cadastrada",
	"248": "Rejeicao: NF referenciada de produtor inexistente",
	"301": "Rejeicao: Uso denegado: irregularidade fiscal do emitente",
	"539": "Rejeicao: CNPJ emitente nao cadastrado",
	"593": "Rejeicao: Duplicidade de NF-e",
}

// Response is the simulated authority answer for one submission.
type Response struct {
	Status         string
	StatusCode     string
	Reason         string
	AccessKey      string
	ProtocolNumber string
	ReceivedAt     time.Time
}

func (r Response) Authorized() bool {
	return r.Status == StatusAuthorized
}

type Simulator struct {
	rng *rand.Rand
	now func() time.Time
}

func NewSimulator() *Simulator {
	return NewSimulatorWith(rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
}

// NewSimulatorWith injects the random source and clock, for deterministic tests.
func NewSimulatorWith(rng *rand.Rand, now func() time.Time) *Simulator {
	return &Simulator{rng: rng, now: now}
}

// CheckDigit computes the mod-11 verification digit for a 43-digit base:
// digits are weighted right-to-left cycling through 2..9; a remainder of 0 or
// 1 yields digit 0, anything else 11-remainder.
func CheckDigit(base string) (int, error) {
	if len(base) != 43 {
		return 0, fmt.Errorf("key base must have 43 digits, got %d", len(base))
	}

	weights := []int{2, 3, 4, 5, 6, 7, 8, 9}
	sum := 0
	for i := len(base) - 1; i >= 0; i-- {
		d := base[i]
		if d < '0' || d > '9' {
			return 0, fmt.Errorf("key base contains non-digit %q at position %d", d, i)
		}
		sum += int(d-'0') * weights[(len(base)-1-i)%len(weights)]
	}

	remainder := sum % 11
	if remainder == 0 || remainder == 1 {
		return 0, nil
	}
	return 11 - remainder, nil
}

// GenerateKey builds the 44-digit access key:
// UF(2) + YYMM(4) + TaxId(14) + Model(2) + Series(3) + Number(9) + EmissionType(1) + Nonce(8) + DV(1).
// On any structural failure a fully random key is returned instead; the run
// continues in degraded mode and the fallback is logged.
func (s *Simulator) GenerateKey(doc *models.FiscalDocument) string {
	base, err := s.buildKeyBase(doc)
	if err != nil {
		log.Printf("WARN: could not derive a structured access key, generating a random one: %v", err)
		return s.randomDigits(44)
	}

	dv, err := CheckDigit(base)
	if err != nil {
		log.Printf("WARN: check digit computation failed, generating a random key: %v", err)
		return s.randomDigits(44)
	}

	return fmt.Sprintf("%s%d", base, dv)
}

func (s *Simulator) buildKeyBase(doc *models.FiscalDocument) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("nil document")
	}

	uf := doc.UF
	if uf == "" {
		uf = defaultUF
	}
	uf = padDigits(uf, 2)

	yearMonth := doc.IssuedAt
	if yearMonth.IsZero() {
		yearMonth = s.now()
	}
	aamm := yearMonth.Format("0601")

	taxID := doc.IssuerTaxID
	if len(taxID) != 14 || !allDigits(taxID) {
		taxID = s.randomDigits(14)
	}

	series := padDigits(doc.Series, 3)
	number := padDigits(doc.Number, 9)
	if !allDigits(series) || !allDigits(number) {
		return "", fmt.Errorf("document %s/%s has a non-numeric number or series", doc.Number, doc.Series)
	}

	nonce := s.randomDigits(8)

	base := uf + aamm + taxID + defaultModel + series + number + "1" + nonce
	if len(base) != 43 {
		return "", fmt.Errorf("assembled key base has %d digits, want 43", len(base))
	}
	return base, nil
}

// Authorize returns the synthetic success response for an approved document.
func (s *Simulator) Authorize(doc *models.FiscalDocument) Response {
	key := s.GenerateKey(doc)
	response := Response{
		Status:         StatusAuthorized,
		StatusCode:     CodeAuthorized,
		Reason:         "Autorizado o uso da NF-e",
		AccessKey:      key,
		ProtocolNumber: s.randomDigits(15),
		ReceivedAt:     s.now(),
	}
	log.Printf("NFe authorized, access key %s", key)
	return response
}

// Reject draws a rejection uniformly from the fixed reason table. It exists
// for adversarial testing of the authority-rejected path.
func (s *Simulator) Reject() Response {
	codes := make([]string, 0, len(rejectionReasons))
	for code := range rejectionReasons {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	code := codes[s.rng.Intn(len(codes))]

	return Response{
		Status:     StatusRejected,
		StatusCode: code,
		Reason:     rejectionReasons[code],
		ReceivedAt: s.now(),
	}
}

func (s *Simulator) randomDigits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + s.rng.Intn(10)))
	}
	return b.String()
}

// padDigits left-pads with zeros to n and truncates to the first n characters.
func padDigits(s string, n int) string {
	for len(s) < n {
		s = "0" + s
	}
	return s[:n]
}

func allDigits(s string) bool {
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

// Package reference holds the regulator lookup tables: CFOP descriptions and
// the per-CFOP tax-code rules. Tables are embedded in the binary, loaded once
// at startup and read-only afterwards, so a single Store is safe to share.
package reference

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

//go:embed data/cfop.json data/cfop_rules.json
var tables embed.FS

type TaxRule struct {
	Expected   bool     `json:"expected"`
	ValidCST   []string `json:"cst_valid"`
	ValidCSOSN []string `json:"csosn_valid,omitempty"`
}

func (r TaxRule) AllowsCST(code string) bool {
	for _, c := range r.ValidCST {
		if c == code {
			return true
		}
	}
	return false
}

func (r TaxRule) AllowsCSOSN(code string) bool {
	for _, c := range r.ValidCSOSN {
		if c == code {
			return true
		}
	}
	return false
}

type PISCOFINSRule struct {
	Credit   bool     `json:"credit"`
	ValidCST []string `json:"cst_valid"`
}

func (r PISCOFINSRule) AllowsCST(code string) bool {
	for _, c := range r.ValidCST {
		if c == code {
			return true
		}
	}
	return false
}

// RegimeRule is the rule set for one CFOP under one tax regime.
type RegimeRule struct {
	ICMS      TaxRule       `json:"icms"`
	IPI       TaxRule       `json:"ipi"`
	PISCOFINS PISCOFINSRule `json:"pis_cofins"`
}

// RuleRecord holds the per-regime rule sets for a CFOP or CFOP group.
type RuleRecord struct {
	Normal     *RegimeRule `json:"REGIME_NORMAL"`
	Simplified *RegimeRule `json:"SIMPLES_NACIONAL"`
}

// ForRegime resolves the rule set for a regime, falling back to the normal
// regime when the record has no explicit Simples Nacional block.
func (r *RuleRecord) ForRegime(regime models.TaxRegime) *RegimeRule {
	if regime == models.RegimeSimplified && r.Simplified != nil {
		return r.Simplified
	}
	return r.Normal
}

type rulesFile struct {
	PerCFOP  map[string]*RuleRecord `json:"per_cfop"`
	PerGroup map[string]*RuleRecord `json:"per_group"`
}

type Store struct {
	cfops map[string]string
	rules rulesFile
}

// Load parses the embedded tables. Any failure here is fatal to startup, not
// to per-document processing.
func Load() (*Store, error) {
	s := &Store{}

	raw, err := tables.ReadFile("data/cfop.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read CFOP table: %w", err)
	}
	if err := json.Unmarshal(raw, &s.cfops); err != nil {
		return nil, fmt.Errorf("failed to parse CFOP table: %w", err)
	}

	raw, err = tables.ReadFile("data/cfop_rules.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read CFOP rules table: %w", err)
	}
	if err := json.Unmarshal(raw, &s.rules); err != nil {
		return nil, fmt.Errorf("failed to parse CFOP rules table: %w", err)
	}

	if len(s.cfops) == 0 {
		return nil, fmt.Errorf("CFOP table is empty")
	}
	return s, nil
}

// LookupCFOP returns the official description for a CFOP code.
func (s *Store) LookupCFOP(code string) (string, bool) {
	description, ok := s.cfops[code]
	return description, ok
}

// LookupRule resolves the rule record for a CFOP: exact match first, then the
// 4-character group fallback (first digit + "000").
func (s *Store) LookupRule(cfop string) (*RuleRecord, bool) {
	if record, ok := s.rules.PerCFOP[cfop]; ok {
		return record, true
	}
	if len(cfop) == 0 {
		return nil, false
	}
	group := cfop[:1] + "000"
	record, ok := s.rules.PerGroup[group]
	return record, ok
}

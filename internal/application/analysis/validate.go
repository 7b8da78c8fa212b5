package analysis

import (
	"encoding/json"
	"strings"

	domain "github.com/bryanwahyu/clinassist/internal/domain/analysis"
	"github.com/bryanwahyu/clinassist/internal/infra/ai/prompt"
)

// Validation is total: every parse function returns a usable value plus
// a degraded flag. Unparsable text, a wrong container type, missing or
// mistyped fields, and empty-but-well-formed results all substitute the
// task's documented fallback instead of raising.

const (
	fallbackRiskScore     = 0.3
	symptomFallbackBudget = 800
)

func fallbackPros() []string {
	return []string{"Regular health monitoring noted"}
}

func fallbackCons() []string {
	return []string{"Additional health evaluation recommended"}
}

func fallbackRisks() map[string]float64 {
	m := make(map[string]float64, len(domain.RiskCategories))
	for _, cat := range domain.RiskCategories {
		m[cat] = fallbackRiskScore
	}
	return m
}

// parseGrouped expects {"pros": [string], "cons": [string]}, both
// non-empty. An empty side is a validation failure, not a valid
// analysis.
func parseGrouped(raw string) (pros, cons []string, degraded bool) {
	var body struct {
		Pros []string `json:"pros"`
		Cons []string `json:"cons"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &body); err != nil {
		return fallbackPros(), fallbackCons(), true
	}
	if len(body.Pros) == 0 || len(body.Cons) == 0 {
		return fallbackPros(), fallbackCons(), true
	}
	return body.Pros, body.Cons, false
}

// parseRisks expects a JSON object mapping every fixed category to a
// float. Values are clamped to [0,1]; extraneous keys are dropped; a
// missing category fails validation.
func parseRisks(raw string) (map[string]float64, bool) {
	var m map[string]float64
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &m); err != nil {
		return fallbackRisks(), true
	}
	out := make(map[string]float64, len(domain.RiskCategories))
	for _, cat := range domain.RiskCategories {
		v, ok := m[cat]
		if !ok {
			return fallbackRisks(), true
		}
		out[cat] = clamp01(v)
	}
	return out, false
}

// parseSymptom expects {"explanation": string, "references": [string]}.
// The fallback keeps whatever raw text came back, truncated, so a
// non-JSON prose answer still reaches the caller.
func parseSymptom(raw string) (explanation string, references []string, degraded bool) {
	var body struct {
		Explanation string   `json:"explanation"`
		References  []string `json:"references"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &body); err != nil || body.Explanation == "" {
		return prompt.Truncate(strings.TrimSpace(raw), symptomFallbackBudget), []string{}, true
	}
	if body.References == nil {
		body.References = []string{}
	}
	return body.Explanation, body.References, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

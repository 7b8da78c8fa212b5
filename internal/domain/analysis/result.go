package analysis

import "time"

// Every result type carries Degraded so callers (and the UI) can tell a
// genuine oracle-derived answer from a documented fallback. The pipeline
// always returns a well-formed result; it never surfaces oracle failures.

// ReportDigest is the deterministic per-report entry inside a date group.
type ReportDigest struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Summary string `json:"summary"` // report text truncated to 300 chars
}

// LabRecord is extracted for reports whose type tag starts with "lab".
type LabRecord struct {
	Date     string `json:"date"`
	TestType string `json:"test_type"`
	Findings string `json:"findings"`
}

// GroupedAnalysis merges deterministic date grouping with the
// oracle-derived pros/cons.
type GroupedAnalysis struct {
	Groups      map[string][]ReportDigest `json:"groups"`
	LabRecords  []LabRecord               `json:"lab_records"`
	Pros        []string                  `json:"pros"`
	Cons        []string                  `json:"cons"`
	Degraded    bool                      `json:"degraded"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// RiskAssessment maps each of the eight fixed categories to a score in
// [0,1], plus the rendered heatmap artifact.
type RiskAssessment struct {
	Risks       map[string]float64 `json:"risks"`
	Heatmap     *Artifact          `json:"heatmap,omitempty"`
	Degraded    bool               `json:"degraded"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// SymptomCorrelation links a new symptom to prior report dates.
type SymptomCorrelation struct {
	Explanation string    `json:"explanation"`
	References  []string  `json:"references"`
	Degraded    bool      `json:"degraded"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ChatReply is a plain-text assistant answer.
type ChatReply struct {
	Reply       string    `json:"reply"`
	Degraded    bool      `json:"degraded"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Artifact is the rendered heatmap location returned by the renderer.
type Artifact struct {
	Path   string `json:"path"`
	URL    string `json:"url"`
	Base64 string `json:"base64,omitempty"`
}

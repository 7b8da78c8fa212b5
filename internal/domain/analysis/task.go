package analysis

// Task enum: the four AI analysis use-cases.
type Task string

const (
	TaskGroupedAnalysis    Task = "grouped-analysis"
	TaskRiskHeatmap        Task = "risk-heatmap"
	TaskSymptomCorrelation Task = "symptom-correlation"
	TaskChat               Task = "chat"
)

// Conversation roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one prior chat exchange. Only the most recent
// turns are embedded into a prompt (see prompt.HistoryWindow).
type ConversationTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// RiskCategories are the eight fixed categories every risk assessment
// must cover, in the order they are rendered on the heatmap.
var RiskCategories = []string{
	"cardiac",
	"diabetes",
	"respiratory",
	"renal",
	"hepatic",
	"neurological",
	"oncological",
	"musculoskeletal",
}

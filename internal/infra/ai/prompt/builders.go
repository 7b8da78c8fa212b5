// Package prompt assembles task-specific prompts for the inference
// oracle. Builders are pure functions: same inputs, same text. Report
// bodies are truncated per report before joining, so the boundary of
// every truncation is predictable from a single input.
package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/clinassist/internal/domain/analysis"
	"github.com/bryanwahyu/clinassist/internal/domain/reports"
)

// Per-report character budgets per task.
const (
	GroupedReportBudget = 4000
	RiskReportBudget    = 2000
	SymptomReportBudget = 1200
	ChatReportBudget    = 800

	// HistoryWindow: only the most recent N conversation turns are
	// embedded in the chat prompt.
	HistoryWindow = 5
)

// Truncate cuts s to at most n characters (runes, not bytes).
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// GroupedAnalysis asks for a pros/cons JSON object over the full report
// set. Empty bodies are omitted.
func GroupedAnalysis(rs []*reports.Report) string {
	var b strings.Builder
	b.WriteString("You are a clinical analyst. Review the patient's reports below and return a JSON object " +
		`{"pros": [string], "cons": [string]} with 3-5 items each. ` +
		"Every item must be a specific, falsifiable clinical observation derived only from the given text. " +
		"Only return JSON.\n\nReports:\n")
	for _, r := range rs {
		if r.Text == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s]\n%s\n\n", r.ReportDate, Truncate(r.Text, GroupedReportBudget))
	}
	return b.String()
}

// RiskHeatmap asks for normalized risk scores over the eight fixed
// categories.
func RiskHeatmap(rs []*reports.Report) string {
	var entries []string
	for i, r := range rs {
		if r.Text == "" {
			continue
		}
		entries = append(entries, fmt.Sprintf("[Report %d on %s]\n%s", i+1, r.ReportDate, Truncate(r.Text, RiskReportBudget)))
	}
	return "You are a clinical risk analyst. From the patient's reports, output JSON with normalized risk scores (0-1) for categories: " +
		strings.Join(analysis.RiskCategories, ", ") + ". " +
		"If unknown, use 0.2. Only return JSON.\n\nReports:\n" + strings.Join(entries, "\n\n")
}

// SymptomCorrelation embeds the new symptom plus dated history.
func SymptomCorrelation(symptom string, rs []*reports.Report) string {
	var entries []string
	for _, r := range rs {
		if r.Text == "" {
			continue
		}
		entries = append(entries, fmt.Sprintf("[%s]\n%s", r.ReportDate, Truncate(r.Text, SymptomReportBudget)))
	}
	return "Given the historical clinical notes, analyze the likely root causes for the new symptom. " +
		"Provide a short explanation and reference which prior report dates support it. " +
		"References must be a subset of the supplied report dates. " +
		"Return JSON: { explanation: string, references: [date strings] }.\n\n" +
		"Symptom: " + symptom + "\n\nHistory:\n" + strings.Join(entries, "\n\n")
}

// Chat embeds report context, the recent conversation window and the
// new user message. When the message asks for health-effect, prevention
// or recommendation content, the prompt steers the oracle away from
// direct prescriptive medical advice.
func Chat(message string, history []analysis.ConversationTurn, rs []*reports.Report) string {
	var ctxLines []string
	for _, r := range rs {
		if r.Text == "" {
			continue
		}
		ctxLines = append(ctxLines, fmt.Sprintf("[%s] %s", r.ReportDate, Truncate(r.Text, ChatReportBudget)))
	}

	var b strings.Builder
	b.WriteString("You are a helpful medical AI assistant. Use patient context below to answer succinctly and safely.\n")
	b.WriteString("If uncertain, say so.\n")
	if IsHealthTopic(message) {
		b.WriteString("The user is asking about health effects, prevention or recommendations: " +
			"avoid direct prescriptive medical advice, but stay specific and actionable.\n")
	}
	b.WriteString("\nContext:\n")
	b.WriteString(strings.Join(ctxLines, "\n\n"))
	if len(history) > 0 {
		b.WriteString("\n\nConversation:\n")
		for _, t := range lastTurns(history, HistoryWindow) {
			fmt.Fprintf(&b, "%s: %s\n", titleRole(t.Role), t.Text)
		}
	}
	b.WriteString("\n\nUser: " + message + "\nAssistant:")
	return b.String()
}

// healthTopicKeywords drive both the chat prompt branch and the
// degraded-mode reply routing. Substring matching on English keywords is
// a placeholder classifier carried over from the previous system; kept
// as-is on purpose.
var healthTopicKeywords = []string{"health effects", "prevention", "recommendations"}

// IsHealthTopic reports whether a chat message requests
// health-effect/prevention/recommendation content.
func IsHealthTopic(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range healthTopicKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func lastTurns(history []analysis.ConversationTurn, n int) []analysis.ConversationTurn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func titleRole(role string) string {
	switch strings.ToLower(role) {
	case analysis.RoleAssistant:
		return "Assistant"
	default:
		return "User"
	}
}

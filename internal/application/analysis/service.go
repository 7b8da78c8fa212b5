package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/clinassist/internal/application"
	domain "github.com/bryanwahyu/clinassist/internal/domain/analysis"
	"github.com/bryanwahyu/clinassist/internal/domain/reports"
	"github.com/bryanwahyu/clinassist/internal/infra/ai/prompt"
)

// summaryBudget is the per-report digest length inside date groups and
// lab records.
const summaryBudget = 300

// Service implements the four analysis use-cases. Each call is the same
// composition: build prompt -> ask oracle -> validate/parse ->
// deterministic merge. Oracle failures degrade to documented fallbacks;
// only malformed stored data (ErrReportData) propagates as a hard
// error. Stateless and safe for concurrent use.
type Service struct {
	Reports  reports.Repository
	Oracle   domain.Oracle
	Renderer domain.Renderer
	Clock    application.Clock
	Log      *zap.SugaredLogger
}

// GroupedAnalysis groups reports by calendar date, extracts lab
// records, and merges in oracle-derived pros/cons.
func (s *Service) GroupedAnalysis(ctx context.Context, patientID string) (*domain.GroupedAnalysis, error) {
	rs, err := s.Reports.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	groups, labs, err := digestReports(rs)
	if err != nil {
		return nil, err
	}

	res := &domain.GroupedAnalysis{
		Groups:      groups,
		LabRecords:  labs,
		GeneratedAt: s.Clock.Now(),
	}

	raw, oerr := s.Oracle.Complete(ctx, prompt.GroupedAnalysis(rs))
	if oerr != nil {
		s.Log.Infow("grouped analysis degraded", "patient_id", patientID, "error", oerr)
		res.Pros, res.Cons, res.Degraded = fallbackPros(), fallbackCons(), true
		return res, nil
	}
	res.Pros, res.Cons, res.Degraded = parseGrouped(raw)
	return res, nil
}

// RiskHeatmap scores the eight fixed risk categories and renders the
// heatmap artifact as a side effect after validation.
func (s *Service) RiskHeatmap(ctx context.Context, patientID string) (*domain.RiskAssessment, error) {
	rs, err := s.Reports.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	res := &domain.RiskAssessment{GeneratedAt: s.Clock.Now()}

	raw, oerr := s.Oracle.Complete(ctx, prompt.RiskHeatmap(rs))
	if oerr != nil {
		s.Log.Infow("risk heatmap degraded", "patient_id", patientID, "error", oerr)
		res.Risks, res.Degraded = fallbackRisks(), true
	} else {
		res.Risks, res.Degraded = parseRisks(raw)
	}

	art, rerr := s.Renderer.Render(ctx, patientID, res.Risks)
	if rerr != nil {
		return nil, fmt.Errorf("render heatmap for %s: %w", patientID, rerr)
	}
	res.Heatmap = art
	return res, nil
}

// AnalyzeSymptom correlates a new symptom against the dated history.
func (s *Service) AnalyzeSymptom(ctx context.Context, patientID, symptom string) (*domain.SymptomCorrelation, error) {
	rs, err := s.Reports.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	res := &domain.SymptomCorrelation{GeneratedAt: s.Clock.Now()}

	raw, oerr := s.Oracle.Complete(ctx, prompt.SymptomCorrelation(symptom, rs))
	if oerr != nil {
		s.Log.Infow("symptom correlation degraded", "patient_id", patientID, "error", oerr)
		raw = ""
	}
	res.Explanation, res.References, res.Degraded = parseSymptom(raw)
	if oerr != nil {
		res.Degraded = true
	}
	return res, nil
}

// Chat answers a free-form question over the patient's report context
// and recent conversation window.
func (s *Service) Chat(ctx context.Context, patientID, message string, history []domain.ConversationTurn) (*domain.ChatReply, error) {
	rs, err := s.Reports.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	res := &domain.ChatReply{GeneratedAt: s.Clock.Now()}

	raw, oerr := s.Oracle.Complete(ctx, prompt.Chat(message, history, rs))
	if oerr != nil || strings.TrimSpace(raw) == "" {
		s.Log.Infow("chat degraded", "patient_id", patientID, "error", oerr)
		res.Reply, res.Degraded = fallbackReply(message), true
		return res, nil
	}
	res.Reply = strings.TrimSpace(raw)
	return res, nil
}

// digestReports is the deterministic half of grouped analysis. A report
// whose date cannot be parsed lands under "unknown"; a structurally
// broken report aborts with ErrReportData because stored data is
// trusted, unlike the oracle.
func digestReports(rs []*reports.Report) (map[string][]domain.ReportDigest, []domain.LabRecord, error) {
	groups := make(map[string][]domain.ReportDigest)
	labs := []domain.LabRecord{}
	for i, r := range rs {
		if r == nil {
			return nil, nil, fmt.Errorf("%w: nil report at index %d", domain.ErrReportData, i)
		}
		if r.ID == "" {
			return nil, nil, fmt.Errorf("%w: report at index %d has no id", domain.ErrReportData, i)
		}

		key := dateKey(r.ReportDate)
		groups[key] = append(groups[key], domain.ReportDigest{
			ID:      string(r.ID),
			Type:    string(r.Type),
			Summary: prompt.Truncate(r.Text, summaryBudget),
		})

		if strings.HasPrefix(strings.ToLower(string(r.Type)), "lab") {
			labs = append(labs, domain.LabRecord{
				Date:     key,
				TestType: string(r.Type),
				Findings: prompt.Truncate(r.Text, summaryBudget),
			})
		}
	}
	return groups, labs, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// dateKey normalizes a report date to YYYY-MM-DD, or "unknown".
func dateKey(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return "unknown"
}

package analysis

import "strings"

// fallbackReply routes a chat message to a canned reply when the oracle
// is unreachable. Degraded answers are intentionally generic and
// textually distinguishable from genuine analyses.
func fallbackReply(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "health effects") ||
		(strings.Contains(lower, "effects") && strings.Contains(lower, "health")):
		return `Key Health Effects to Monitor:
- Short-term effects on daily activities and quality of life
- Potential complications if left unmanaged
- Impact on overall health and well-being
- Related health metrics that may be affected
Please consult your healthcare provider for a personalized assessment.`

	case strings.Contains(lower, "prevention") || strings.Contains(lower, "prevent") || strings.Contains(lower, "manage"):
		return `Prevention & Management Strategies:
1. Schedule regular check-ups with your healthcare provider
2. Monitor related health metrics consistently
3. Maintain a healthy lifestyle (balanced diet, regular exercise)
4. Keep detailed records of any symptoms or changes
5. Follow your prescribed treatment plan strictly`

	case strings.Contains(lower, "recommendations") || strings.Contains(lower, "recommend") ||
		strings.Contains(lower, "action") || strings.Contains(lower, "steps"):
		return `Recommended Action Steps:
1. Schedule a follow-up appointment with your healthcare provider
2. Review and track your health metrics daily
3. Document any changes or concerns
4. Create a regular health monitoring routine
5. Consider lifestyle modifications as advised by your doctor`

	default:
		return `General Health Recommendations:
1. Schedule regular check-ups
2. Monitor your health metrics consistently
3. Maintain a balanced lifestyle
4. Document any health changes
5. Follow prescribed treatments
6. Seek professional medical advice for specific concerns

Note: This is general guidance. Please consult your healthcare provider for personalized medical advice.`
	}
}

package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var uuidPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

// ValidateID validates patient/report identifiers (UUID format).
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if !uuidPattern.MatchString(strings.ToLower(id)) {
		return fmt.Errorf("invalid id format")
	}
	return nil
}

// ValidateGender checks the enumerated gender values.
func ValidateGender(gender string) error {
	switch strings.ToLower(gender) {
	case "male", "female", "other":
		return nil
	}
	return fmt.Errorf("invalid gender: %s (allowed: male, female, other)", gender)
}

// ValidateReportType checks the report type tag. "lab" prefixed tags
// are allowed free-form (lab, lab-cbc, lab_panel, ...).
func ValidateReportType(t string) error {
	lower := strings.ToLower(t)
	if lower == "pdf" || lower == "image" || strings.HasPrefix(lower, "lab") {
		return nil
	}
	return fmt.Errorf("invalid report type: %s (allowed: pdf, image, lab*)", t)
}

const maxFreeTextLen = 20000

// ValidateFreeText bounds user-supplied free text (symptom, chat
// message) so a single request cannot blow up prompt assembly.
func ValidateFreeText(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if len(v) > maxFreeTextLen {
		return fmt.Errorf("%s exceeds %d characters", field, maxFreeTextLen)
	}
	return nil
}

// SanitizeString removes null bytes and control characters.
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}

package http

import (
	"strings"
	"time"
	"unicode/utf8"

	"renewal_notifier/internal/entities"
)

// Input validation constants
const (
	MaxNameLength     = 256
	MaxPlanLength     = 128
	MaxPhoneLength    = 32
	MaxMessageLength  = 4096
	MaxTemplateLength = 4096
	MaxBodyBytes      = 1 << 20
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339}

// ParseDate accepts yyyy-mm-dd, dd/mm/yyyy or RFC 3339 and returns the
// calendar date at UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ValidStage checks a status key path parameter.
func ValidStage(s string) (entities.Stage, bool) {
	stage := entities.Stage(s)
	return stage, stage.Valid()
}

// SanitizeString removes null bytes and control characters
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return s
}

// TruncateString safely truncates a string to max runes
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}

// ValidateLength checks if string is within bounds
func ValidateLength(s string, min, max int) bool {
	l := utf8.RuneCountInString(s)
	return l >= min && l <= max
}

package service

import (
	"strings"

	"github.com/noah-isme/vanity-bot/internal/models"
)

// EvaluateTag reports whether tag appears, case-insensitively, in any observed
// signal. Unobserved signals never match and never count against the others.
func EvaluateTag(signals models.Signals, tag string) bool {
	needle := strings.ToLower(strings.TrimSpace(tag))
	if needle == "" {
		return false
	}
	for _, field := range []*string{signals.Status, signals.Bio, signals.Pronouns} {
		if field == nil {
			continue
		}
		if strings.Contains(strings.ToLower(*field), needle) {
			return true
		}
	}
	return false
}

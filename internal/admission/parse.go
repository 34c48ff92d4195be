package admission

import (
	"strings"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

// ParseAnswer interprets the two-line classifier answer: "yes"/"no" followed by "kg"/"unit".
// Numbering like "1." and trailing punctuation are ignored. A missing second line on an
// acceptance defaults to a per-piece unit; anything else unexpected is Unavailable.
func ParseAnswer(text string) Verdict {
	lines := answerLines(text)
	if len(lines) == 0 {
		return Unavailable("empty answer")
	}

	switch lines[0] {
	case "no":
		return Rejected("not a recognized product")
	case "yes":
	default:
		return Unavailable("unexpected answer " + quote(lines[0]))
	}

	if len(lines) < 2 {
		return Accepted(domain.UnitPiece)
	}
	switch lines[1] {
	case "kg", "kgs", "kilogram", "kilograms", "weight":
		return Accepted(domain.UnitWeight)
	case "unit", "units", "piece", "pieces":
		return Accepted(domain.UnitPiece)
	default:
		return Unavailable("unexpected unit " + quote(lines[1]))
	}
}

func answerLines(text string) []string {
	var out []string
	for _, raw := range strings.Split(strings.ToLower(text), "\n") {
		line := strings.TrimSpace(raw)
		line = strings.TrimLeft(line, "0123456789")
		line = strings.TrimLeft(line, ".)- ")
		line = strings.Trim(line, " .!\"'*`")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func quote(s string) string {
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return `"` + s + `"`
}

package output

import (
	"fmt"
	"strings"
)

// RiskBadge colors a no-show risk level: high in red, medium in yellow,
// anything else in green.
func RiskBadge(level string) string {
	label := strings.ToUpper(level)
	switch level {
	case "high":
		return StyleError.Render(label)
	case "medium":
		return StyleWarning.Render(label)
	default:
		return StyleSuccess.Render(label)
	}
}

// PriorityBadge renders a bracketed priority tag.
func PriorityBadge(priority string) string {
	tag := fmt.Sprintf("[%s]", strings.ToUpper(priority))
	switch priority {
	case "high":
		return StyleError.Render(tag)
	case "medium":
		return StyleWarning.Render(tag)
	default:
		return StyleMuted.Render(tag)
	}
}

// Percent renders a 0-100 value with a color keyed to the same thresholds
// as ScoreBar.
func Percent(value int) string {
	text := fmt.Sprintf("%d%%", value)
	switch {
	case value >= 70:
		return StyleSuccess.Render(text)
	case value >= 40:
		return StyleWarning.Render(text)
	default:
		return StyleError.Render(text)
	}
}

// KeyValue renders a labelled metric line.
func KeyValue(label, value string) string {
	return fmt.Sprintf(" %s %s", StyleLabel.Render(label), value)
}

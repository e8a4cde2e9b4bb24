package output

import (
	"fmt"
	"strings"
)

// ruleWidth is the length of the rule under section headers.
var ruleWidth = 66

// SetWidth sets the terminal width used for section rules. Widths below 20
// are ignored.
func SetWidth(cols int) {
	if cols >= 20 {
		ruleWidth = cols - 2
	}
}

// ScoreBar renders a 0-100 score as a bar colored by band.
// Example: "████████░░ 80/100"
func ScoreBar(score, width int) string {
	if width <= 0 {
		width = 20
	}
	score = clampScore(score)
	filled := score * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", scoreStyle(score)(bar), StyleMuted.Render(fmt.Sprintf("%d/100", score)))
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

func scoreStyle(score int) func(...string) string {
	switch {
	case score >= 70:
		return StyleSuccess.Render
	case score >= 40:
		return StyleWarning.Render
	default:
		return StyleError.Render
	}
}

// TrendArrow renders a snapshot delta. higherIsBetter picks the color.
func TrendArrow(delta float64, higherIsBetter bool) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}
	improved := (delta > 0) == higherIsBetter
	arrow := fmt.Sprintf("▼ %.0f", delta)
	if delta > 0 {
		arrow = fmt.Sprintf("▲ +%.0f", delta)
	}
	if improved {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// TrendLabel renders an "up", "down" or "stable" session trend.
func TrendLabel(trend string) string {
	switch trend {
	case "up":
		return StyleSuccess.Render("▲ up")
	case "down":
		return StyleError.Render("▼ down")
	default:
		return StyleMuted.Render("─ stable")
	}
}

// Section returns a styled section header followed by a rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", ruleWidth))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

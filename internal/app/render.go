package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackwell-systems/squadpulse/internal/analyzer"
	"github.com/blackwell-systems/squadpulse/internal/engine"
	"github.com/blackwell-systems/squadpulse/internal/output"
	"github.com/blackwell-systems/squadpulse/internal/suggest"
)

func renderOptimal(squadID string, ot analyzer.OptimalTime) {
	fmt.Println(output.Section("Optimal Time · " + squadID))
	fmt.Println(output.KeyValue("Best slot", output.StyleBold.Render(ot.BestDay+" "+ot.BestTime)))
	fmt.Println(output.KeyValue("Attendance", output.Percent(ot.AttendanceRate)))
	fmt.Println(output.KeyValue("Confidence", output.ScoreBar(ot.Confidence, 20)))
	fmt.Println(output.KeyValue("Sessions analyzed", fmt.Sprintf("%d", ot.SessionsAnalyzed)))

	if len(ot.Slots) == 0 {
		fmt.Println()
		return
	}
	fmt.Println()
	tbl := output.NewTable("Day", "Hour", "Yes", "Responses", "Rate")
	for _, s := range ot.Slots {
		tbl.AddRow(s.Day, fmt.Sprintf("%02d:00", s.Hour),
			fmt.Sprintf("%d", s.YesResponses), fmt.Sprintf("%d", s.TotalResponses),
			output.Percent(int(s.Rate()*100+0.5)))
	}
	printIndented(tbl.Render())
}

func renderCoverage(squadID string, cov analyzer.Coverage) {
	fmt.Println(output.Section("Availability Coverage · " + squadID))
	if len(cov.OptimalSlots) == 0 {
		fmt.Println(output.StyleMuted.Render(" No availability declared in the coming days."))
		fmt.Println()
		return
	}
	fmt.Println(output.KeyValue("Average coverage", output.Percent(cov.AverageCoverage)))
	fmt.Println()

	tbl := output.NewTable("Date", "Time", "Available", "Coverage")
	for _, s := range cov.OptimalSlots {
		tbl.AddRow(s.Date, s.Time, fmt.Sprintf("%d", s.AvailableMembers), output.ScoreBar(s.CoveragePercent, 10))
	}
	printIndented(tbl.Render())
}

func renderNoShow(risk engine.SessionRisk) {
	title := "No-Show Risk · " + risk.SessionID
	if risk.Date != "" {
		title += " · " + strings.TrimSpace(risk.Date+" "+risk.Time)
	}
	fmt.Println(output.Section(title))
	preds := risk.Predictions
	if len(preds) == 0 {
		fmt.Println(output.StyleMuted.Render(" No RSVPs from squad members yet."))
		fmt.Println()
		return
	}

	tbl := output.NewTable("Member", "RSVP", "Reliability", "No-show", "Risk")
	for _, p := range preds {
		tbl.AddRow(p.Username, string(p.Response), p.ReliabilityTier,
			fmt.Sprintf("%d%%", p.Probability), output.RiskBadge(string(p.Risk)))
	}
	printIndented(tbl.Render())
}

func renderCohesion(squadID string, c analyzer.Cohesion) {
	fmt.Println(output.Section("Cohesion · " + squadID))
	fmt.Println(output.KeyValue("Score", output.ScoreBar(c.Score, 20)))
	fmt.Println(output.KeyValue("Sessions analyzed", fmt.Sprintf("%d", c.SessionsAnalyzed)))

	if len(c.TopPairs) > 0 {
		fmt.Println()
		tbl := output.NewTable("Pair", "Sessions together")
		for _, p := range c.TopPairs {
			tbl.AddRow(p.User1+" + "+p.User2, fmt.Sprintf("%d", p.SessionsTogether))
		}
		printIndented(tbl.Render())
	}
	for _, s := range c.Suggestions {
		fmt.Printf(" %s %s\n", output.StyleMuted.Render("→"), s)
	}
	fmt.Println()
}

func renderHealth(squadID string, h analyzer.Health) {
	a := h.Activity
	fmt.Println(output.Section("Squad Health · " + squadID))
	fmt.Println(output.KeyValue("Score", output.ScoreBar(h.Score, 20)))
	fmt.Println(output.KeyValue("Stability", output.ScoreBar(a.Stability, 20)))
	fmt.Println(output.KeyValue("Average attendance", output.Percent(a.AverageAttendance)))
	fmt.Println(output.KeyValue("Average reliability", output.Percent(a.AverageReliability)))
	fmt.Println(output.KeyValue("Members", fmt.Sprintf("%d active, %d warning, %d inactive", a.Active, a.Warning, a.Inactive)))
	fmt.Println(output.KeyValue("Session trend", output.TrendLabel(string(a.Trend))))

	if len(a.Members) > 0 {
		fmt.Println()
		tbl := output.NewTable("Member", "Status", "Last seen", "Attended")
		for _, m := range a.Members {
			name := m.Username
			if name == "" {
				name = m.UserID
			}
			tbl.AddRow(name, activityBadge(m.Status), lastSeen(m.DaysSinceActive),
				fmt.Sprintf("%d/%d", m.SessionsAttended, m.TotalSessions))
		}
		printIndented(tbl.Render())
	}

	if len(h.Insights) == 0 {
		fmt.Println()
		fmt.Println(output.StyleSuccess.Render(" No issues detected."))
		fmt.Println()
		return
	}
	renderInsights(byPriority(h.Insights))
}

// byPriority returns the insights ordered high to low, stable within a
// priority.
func byPriority(insights []analyzer.Insight) []analyzer.Insight {
	out := append([]analyzer.Insight(nil), insights...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() < out[j].Priority.Rank()
	})
	return out
}

func activityBadge(s analyzer.ActivityStatus) string {
	switch s {
	case analyzer.StatusActive:
		return output.StyleSuccess.Render(string(s))
	case analyzer.StatusWarning:
		return output.StyleWarning.Render(string(s))
	default:
		return output.StyleError.Render(string(s))
	}
}

func lastSeen(days int) string {
	switch {
	case days < 0:
		return "never"
	case days == 0:
		return "today"
	case days == 1:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

func renderInsights(insights []analyzer.Insight) {
	for _, ins := range insights {
		fmt.Println()
		fmt.Printf(" %s %s %s\n",
			output.PriorityBadge(string(ins.Priority)),
			output.StyleBold.Render(ins.Title),
			output.StyleMuted.Render(fmt.Sprintf("(-%d)", ins.Penalty)))
		fmt.Printf("   %s\n", ins.Description)
		for _, r := range ins.Recommendations {
			fmt.Printf("   %s %s\n", output.StyleMuted.Render("•"), r)
		}
	}
	fmt.Println()
}

func renderRecommendations(recs []suggest.Recommendation) {
	fmt.Println(output.Section("Recommendations"))
	if len(recs) == 0 {
		fmt.Println(output.StyleMuted.Render(" Nothing to suggest right now."))
		fmt.Println()
		return
	}
	for i, r := range recs {
		fmt.Printf(" %d. %s %s\n", i+1, output.PriorityBadge(string(r.Priority)), output.StyleBold.Render(r.Title))
		fmt.Printf("    %s\n", r.Description)
		if r.ActionLabel != "" {
			fmt.Printf("    %s %s\n", output.StyleMuted.Render("action:"), r.ActionLabel)
		}
	}
	fmt.Println()
}

func renderReport(rep engine.Report) {
	renderOptimal(rep.SquadID, rep.OptimalTime)
	renderCoverage(rep.SquadID, rep.Coverage)
	renderCohesion(rep.SquadID, rep.Cohesion)
	renderHealth(rep.SquadID, rep.Health)
	if rep.NextSession != nil {
		renderNoShow(*rep.NextSession)
	}
	renderRecommendations(rep.Recommendations)
	if rep.Degraded() {
		fmt.Println(output.StyleWarning.Render(" Partial data: " + strings.Join(rep.Failures, ", ") + " fell back to defaults."))
		fmt.Println()
	}
}

// printIndented prints a rendered block with a one-column left margin.
func printIndented(block string) {
	for _, line := range strings.Split(strings.TrimRight(block, "\n"), "\n") {
		fmt.Println(" " + line)
	}
}

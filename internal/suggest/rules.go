package suggest

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/squadpulse/internal/analyzer"
)

// Rule thresholds.
const (
	MinOptimalConfidence = 30
	WeekendLookaheadDays = 3
	ActivityWindowDays   = 14
	MinRecentSessions    = 2
)

// OptimalTime recommends the historically best slot once there is enough
// history to trust it.
func OptimalTime(ctx *Context) []Recommendation {
	ot := ctx.OptimalTime
	if ot.Confidence <= MinOptimalConfidence {
		return nil
	}
	return []Recommendation{{
		Type:  TypeOptimalTime,
		Title: "Best time to play",
		Description: fmt.Sprintf(
			"%s at %s has the best attendance so far (%d%% yes, %d%% confidence).",
			ot.BestDay, ot.BestTime, ot.AttendanceRate, ot.Confidence,
		),
		ActionLabel: "Schedule a session",
		Data:        map[string]string{"day": ot.BestDay, "time": ot.BestTime},
		Priority:    analyzer.PriorityHigh,
	}}
}

// WeekendReminder nudges the squad to plan ahead when the weekend is close.
func WeekendReminder(ctx *Context) []Recommendation {
	days := DaysUntilWeekend(ctx.Now)
	if days > WeekendLookaheadDays {
		return nil
	}
	desc := "The weekend is here: plan a session while everyone is free."
	if days > 0 {
		desc = fmt.Sprintf("The weekend starts in %d day(s): plan a session now.", days)
	}
	return []Recommendation{{
		Type:        TypeWeekendReminder,
		Title:       "Weekend coming up",
		Description: desc,
		ActionLabel: "Plan the weekend",
		Priority:    analyzer.PriorityMedium,
	}}
}

// ActivityBoost fires when the squad has barely scheduled anything recently.
func ActivityBoost(ctx *Context) []Recommendation {
	if ctx.RecentSessions >= MinRecentSessions {
		return nil
	}
	return []Recommendation{{
		Type:  TypeActivityBoost,
		Title: "Get the squad playing again",
		Description: fmt.Sprintf(
			"Only %d session(s) scheduled in the last %d days. Propose a quick session to restart momentum.",
			ctx.RecentSessions, ActivityWindowDays,
		),
		ActionLabel: "Propose a session",
		Priority:    analyzer.PriorityMedium,
	}}
}

// DaysUntilWeekend returns 0 on Saturday or Sunday and otherwise the number
// of days until Saturday.
func DaysUntilWeekend(now time.Time) int {
	wd := now.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return 0
	}
	return int(time.Saturday - wd)
}

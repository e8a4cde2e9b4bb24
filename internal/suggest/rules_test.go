package suggest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/squadpulse/internal/analyzer"
)

// 2026-01-26 is a Monday.
func day(offset int) time.Time {
	return time.Date(2026, 1, 26+offset, 18, 0, 0, 0, time.UTC)
}

func TestDaysUntilWeekend(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"monday", day(0), 5},
		{"tuesday", day(1), 4},
		{"wednesday", day(2), 3},
		{"thursday", day(3), 2},
		{"friday", day(4), 1},
		{"saturday", day(5), 0},
		{"sunday", day(6), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilWeekend(tt.now))
		})
	}
}

func TestOptimalTime(t *testing.T) {
	tests := []struct {
		name       string
		confidence int
		wantFire   bool
	}{
		{"zero", 0, false},
		{"at threshold", 30, false},
		{"above threshold", 31, true},
		{"full", 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &Context{OptimalTime: analyzer.OptimalTime{
				BestDay: "Vendredi", BestTime: "21:00", Confidence: tt.confidence,
			}}
			recs := OptimalTime(ctx)
			if !tt.wantFire {
				assert.Empty(t, recs)
				return
			}
			require.Len(t, recs, 1)
			assert.Equal(t, TypeOptimalTime, recs[0].Type)
			assert.Equal(t, map[string]string{"day": "Vendredi", "time": "21:00"}, recs[0].Data)
			assert.Equal(t, analyzer.PriorityHigh, recs[0].Priority)
		})
	}
}

func TestWeekendReminder(t *testing.T) {
	assert.Empty(t, WeekendReminder(&Context{Now: day(0)}), "monday is too far")
	assert.Empty(t, WeekendReminder(&Context{Now: day(1)}), "tuesday is too far")

	recs := WeekendReminder(&Context{Now: day(2)})
	require.Len(t, recs, 1)
	assert.Equal(t, TypeWeekendReminder, recs[0].Type)
	assert.Nil(t, recs[0].Data)

	require.Len(t, WeekendReminder(&Context{Now: day(5)}), 1)
	require.Len(t, WeekendReminder(&Context{Now: day(6)}), 1)
}

func TestActivityBoost(t *testing.T) {
	require.Len(t, ActivityBoost(&Context{RecentSessions: 0}), 1)
	require.Len(t, ActivityBoost(&Context{RecentSessions: 1}), 1)
	assert.Empty(t, ActivityBoost(&Context{RecentSessions: 2}))
	assert.Equal(t, TypeActivityBoost, ActivityBoost(&Context{})[0].Type)
}

func TestEngineRun_FixedOrder(t *testing.T) {
	ctx := &Context{
		Now:            day(4),
		OptimalTime:    analyzer.OptimalTime{BestDay: "Samedi", BestTime: "20:00", Confidence: 100},
		RecentSessions: 0,
	}
	recs := NewEngine().Run(ctx)
	require.Len(t, recs, 3)
	assert.Equal(t, TypeOptimalTime, recs[0].Type)
	assert.Equal(t, TypeWeekendReminder, recs[1].Type)
	assert.Equal(t, TypeActivityBoost, recs[2].Type)
}

func TestEngineRun_Nothing(t *testing.T) {
	recs := NewEngine().Run(&Context{Now: day(0), RecentSessions: 5})
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

package analyzer

import (
	"math"
	"sort"
	"time"

	"github.com/blackwell-systems/squadpulse/internal/squad"
)

// MaxCoverageSlots caps the number of ranked slots returned.
const MaxCoverageSlots = 10

type coverageKey struct {
	date time.Time
	time squad.TimeOfDay
}

// AnalyzeCoverage ranks (date, start time) pairs by the fraction of the
// squad that declared availability there. Slots that are unavailable,
// dated outside [start, end], or owned by non-members are ignored.
// Overlapping slots from the same member count once per key.
func AnalyzeCoverage(memberIDs []string, slots []squad.AvailabilitySlot, start, end time.Time) Coverage {
	result := Coverage{OptimalSlots: []CoverageSlot{}}

	members := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		if id != "" {
			members[id] = true
		}
	}
	if len(members) == 0 || len(slots) == 0 {
		return result
	}

	start, end = squad.Date(start), squad.Date(end)
	present := make(map[coverageKey]map[string]bool)

	for _, s := range slots {
		if !s.IsAvailable || !members[s.UserID] {
			continue
		}
		d := squad.Date(s.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		key := coverageKey{date: d, time: s.StartTime}
		users, ok := present[key]
		if !ok {
			users = make(map[string]bool)
			present[key] = users
		}
		users[s.UserID] = true
	}

	type ranked struct {
		key  coverageKey
		slot CoverageSlot
	}
	all := make([]ranked, 0, len(present))
	for key, users := range present {
		pct := percent(len(users), len(members))
		all = append(all, ranked{
			key: key,
			slot: CoverageSlot{
				Date:             key.date.Format(squad.DateLayout),
				Time:             key.time.String(),
				AvailableMembers: len(users),
				CoveragePercent:  pct,
			},
		})

		cell := &result.Grid[key.date.Weekday()][key.time.Hour]
		if pct > *cell {
			*cell = pct
		}
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.slot.CoveragePercent != b.slot.CoveragePercent {
			return a.slot.CoveragePercent > b.slot.CoveragePercent
		}
		if !a.key.date.Equal(b.key.date) {
			return a.key.date.Before(b.key.date)
		}
		return a.key.time.Before(b.key.time)
	})

	if len(all) > MaxCoverageSlots {
		all = all[:MaxCoverageSlots]
	}

	sum := 0
	for _, r := range all {
		result.OptimalSlots = append(result.OptimalSlots, r.slot)
		sum += r.slot.CoveragePercent
	}
	if len(all) > 0 {
		result.AverageCoverage = int(math.Round(float64(sum) / float64(len(all))))
	}
	return result
}

// percent returns round(part/whole*100), or 0 when whole is 0.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

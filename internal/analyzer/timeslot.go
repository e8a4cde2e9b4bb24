package analyzer

import (
	"math"
	"sort"

	"github.com/blackwell-systems/squadpulse/internal/squad"
)

// ConfidenceSaturation is the session count at which optimal-time
// confidence reaches 100.
const ConfidenceSaturation = 20

// Defaults returned when there is no usable history.
const (
	DefaultBestDay  = "Samedi"
	DefaultBestTime = "20:00"
)

// OptimalTimeStatuses are the session states that count as history.
var OptimalTimeStatuses = []squad.Status{squad.StatusCompleted, squad.StatusConfirmed}

type rateBucket struct {
	total int
	yes   int
}

func (b rateBucket) rate() float64 {
	if b.total == 0 {
		return 0
	}
	return float64(b.yes) / float64(b.total)
}

// AnalyzeOptimalTime finds the day of week and time of day with the highest
// yes rate across completed and confirmed sessions.
//
// Day and time are chosen independently. Buckets are visited in a fixed
// order (Sunday first, then ascending HH:MM) and only a strictly higher rate
// replaces the current best, so ties go to the earliest day and time. When
// no bucket has a positive rate the Samedi/20:00 default stands.
//
// A session with no RSVPs counts as one response with no yes, so silent
// sessions pull a slot's rate down. Sessions without a date or time, or in
// any other state, are ignored. RSVPs from users outside roster are not
// counted; a nil roster counts everyone.
func AnalyzeOptimalTime(sessions []squad.Session, roster squad.Roster) OptimalTime {
	result := OptimalTime{
		BestDay:  DefaultBestDay,
		BestTime: DefaultBestTime,
	}

	var days [7]rateBucket
	times := make(map[squad.TimeOfDay]*rateBucket)
	slots := make(map[int]*TimeSlotStat)
	analyzed := 0

	for _, s := range sessions {
		if s.Status != squad.StatusCompleted && s.Status != squad.StatusConfirmed {
			continue
		}
		if !s.HasSchedule() {
			continue // malformed: nothing to bucket on
		}
		analyzed++

		total, yes := countResponses(s, roster)
		if total == 0 {
			total = 1
		}

		weekday := s.ScheduledDate.Weekday()
		days[weekday].total += total
		days[weekday].yes += yes

		tb, ok := times[*s.ScheduledTime]
		if !ok {
			tb = &rateBucket{}
			times[*s.ScheduledTime] = tb
		}
		tb.total += total
		tb.yes += yes

		key := int(weekday)*24 + s.ScheduledTime.Hour
		slot, ok := slots[key]
		if !ok {
			slot = &TimeSlotStat{Day: squad.DayName(weekday), Hour: s.ScheduledTime.Hour}
			slots[key] = slot
		}
		slot.TotalResponses += total
		slot.YesResponses += yes
	}

	if analyzed == 0 {
		return result
	}

	bestDayRate := 0.0
	for d := range days {
		if r := days[d].rate(); r > bestDayRate {
			bestDayRate = r
			result.BestDay = squad.DayNames[d]
		}
	}

	timeKeys := make([]squad.TimeOfDay, 0, len(times))
	for t := range times {
		timeKeys = append(timeKeys, t)
	}
	sort.Slice(timeKeys, func(i, j int) bool { return timeKeys[i].Before(timeKeys[j]) })

	bestTimeRate := 0.0
	for _, t := range timeKeys {
		if r := times[t].rate(); r > bestTimeRate {
			bestTimeRate = r
			result.BestTime = t.String()
		}
	}

	slotKeys := make([]int, 0, len(slots))
	for k := range slots {
		slotKeys = append(slotKeys, k)
	}
	sort.Ints(slotKeys)
	for _, k := range slotKeys {
		result.Slots = append(result.Slots, *slots[k])
	}

	result.SessionsAnalyzed = analyzed
	result.Confidence = confidenceFor(analyzed)
	result.AttendanceRate = int(math.Round(bestDayRate * 100))
	return result
}

// confidenceFor scales linearly with history size up to ConfidenceSaturation.
func confidenceFor(sessions int) int {
	c := int(math.Round(float64(sessions) / ConfidenceSaturation * 100))
	if c > 100 {
		return 100
	}
	return c
}

// countResponses returns the number of distinct, well-formed RSVPs from
// roster members and how many of them are yes.
func countResponses(s squad.Session, roster squad.Roster) (total, yes int) {
	for _, r := range roster.RSVPs(s) {
		if !r.Response.Valid() {
			continue
		}
		total++
		if r.Response == squad.ResponseYes {
			yes++
		}
	}
	return total, yes
}

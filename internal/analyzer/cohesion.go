package analyzer

import (
	"math"
	"sort"

	"github.com/blackwell-systems/squadpulse/internal/squad"
)

// MaxTopPairs caps the number of pairs reported by AnalyzeCohesion.
const MaxTopPairs = 5

// NeutralCohesionScore is reported when there is no history to measure.
const NeutralCohesionScore = 50

// Cohesion suggestion texts, one per score band.
const (
	SuggestionNeedSessions = "Play a few more sessions together before cohesion can be measured."
	SuggestionMoreOften    = "Members rarely overlap: schedule shorter, more frequent sessions so the same people play together."
	SuggestionVaryFormats  = "Cohesion is building: try different game formats or modes to bring the whole squad in."
	SuggestionKeepCadence  = "The core group plays together consistently: keep the current session cadence."
)

type pairKey struct {
	a, b string
}

// AnalyzeCohesion builds a co-attendance matrix from yes responses on
// completed sessions and scores how often members actually play together.
//
// score = min(100, round(mean pair count / sessions * 200)). With no
// completed sessions the score is NeutralCohesionScore. Only roster members
// form pairs; a nil roster admits everyone.
func AnalyzeCohesion(sessions []squad.Session, roster squad.Roster) Cohesion {
	var completed []squad.Session
	for _, s := range sessions {
		if s.Status == squad.StatusCompleted {
			completed = append(completed, s)
		}
	}

	if len(completed) == 0 {
		return Cohesion{
			Score:       NeutralCohesionScore,
			TopPairs:    []PairStats{},
			Suggestions: []string{SuggestionNeedSessions},
		}
	}

	counts := make(map[pairKey]int)
	for _, s := range completed {
		var attendees []string
		for _, r := range roster.RSVPs(s) {
			if r.Response == squad.ResponseYes {
				attendees = append(attendees, r.UserID)
			}
		}
		sort.Strings(attendees)
		for i := 0; i < len(attendees); i++ {
			for j := i + 1; j < len(attendees); j++ {
				counts[pairKey{attendees[i], attendees[j]}]++
			}
		}
	}

	pairs := make([]PairStats, 0, len(counts))
	total := 0
	for k, n := range counts {
		pairs = append(pairs, PairStats{User1: k.a, User2: k.b, SessionsTogether: n})
		total += n
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].SessionsTogether != pairs[j].SessionsTogether {
			return pairs[i].SessionsTogether > pairs[j].SessionsTogether
		}
		if pairs[i].User1 != pairs[j].User1 {
			return pairs[i].User1 < pairs[j].User1
		}
		return pairs[i].User2 < pairs[j].User2
	})

	avg := 0.0
	if len(pairs) > 0 {
		avg = float64(total) / float64(len(pairs))
	}
	score := int(math.Round(avg / float64(len(completed)) * 100 * 2))
	if score > 100 {
		score = 100
	}

	if len(pairs) > MaxTopPairs {
		pairs = pairs[:MaxTopPairs]
	}

	return Cohesion{
		Score:            score,
		TopPairs:         pairs,
		Suggestions:      []string{cohesionSuggestion(score)},
		SessionsAnalyzed: len(completed),
	}
}

func cohesionSuggestion(score int) string {
	switch {
	case score < 40:
		return SuggestionMoreOften
	case score < 70:
		return SuggestionVaryFormats
	default:
		return SuggestionKeepCadence
	}
}

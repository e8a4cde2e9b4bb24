package analyzer

import (
	"math"
	"sort"

	"github.com/blackwell-systems/squadpulse/internal/squad"
)

// Fixed no-show probabilities for non-committal responses.
const (
	MaybeNoShowProbability = 0.5
	NoNoShowProbability    = 0.95
)

// reliabilityTiers are the display tiers for reliability scores, highest first.
var reliabilityTiers = []struct {
	min  float64
	name string
}{
	{95, "Légende"},
	{85, "Excellent"},
	{75, "Bon"},
	{60, "Moyen"},
	{40, "Faible"},
	{0, "Critique"},
}

// ReliabilityTier returns the display tier for a 0-100 reliability score.
func ReliabilityTier(score float64) string {
	for _, t := range reliabilityTiers {
		if score >= t.min {
			return t.name
		}
	}
	return reliabilityTiers[len(reliabilityTiers)-1].name
}

// NoShowFraction maps a response and a reliability score to a probability
// in [0,1]. This is a fixed rule table, not a trained model: a yes is only
// as good as the member's track record, maybe is a coin flip, and no is
// near-certain absence.
func NoShowFraction(response squad.Response, reliability float64) float64 {
	switch response {
	case squad.ResponseYes:
		return math.Max(0, 100-reliability) / 100
	case squad.ResponseMaybe:
		return MaybeNoShowProbability
	default:
		return NoNoShowProbability
	}
}

func riskFor(probability int) RiskLevel {
	switch {
	case probability >= 60:
		return RiskHigh
	case probability >= 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

// PredictNoShow estimates, for every RSVP on the session, the probability
// the member will not show up. RSVPs from users that are not in members, or
// with an unknown response, are skipped. Results are ordered by probability
// descending, then user id.
func PredictNoShow(session squad.Session, members []squad.Member) []NoShowPrediction {
	profiles := make(map[string]squad.Member, len(members))
	for _, m := range members {
		profiles[m.UserID] = m
	}

	predictions := make([]NoShowPrediction, 0, len(session.RSVPs))
	for _, r := range session.DistinctRSVPs() {
		m, ok := profiles[r.UserID]
		if !ok || !r.Response.Valid() {
			continue
		}
		reliability := m.Reliability()
		fraction := NoShowFraction(r.Response, reliability)
		pct := int(math.Round(fraction * 100))
		predictions = append(predictions, NoShowPrediction{
			UserID:          r.UserID,
			Username:        displayName(m),
			Response:        r.Response,
			Probability:     pct,
			Fraction:        fraction,
			Risk:            riskFor(pct),
			ReliabilityTier: ReliabilityTier(reliability),
		})
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		if predictions[i].Fraction != predictions[j].Fraction {
			return predictions[i].Fraction > predictions[j].Fraction
		}
		return predictions[i].UserID < predictions[j].UserID
	})
	return predictions
}

func displayName(m squad.Member) string {
	if m.Username != "" {
		return m.Username
	}
	return "Unknown"
}

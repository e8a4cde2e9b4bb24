package analyzer

import (
	"math"
	"testing"

	"github.com/blackwell-systems/squadpulse/internal/squad"
)

func member(id, name string, reliability *float64) squad.Member {
	return squad.Member{UserID: id, Username: name, ReliabilityScore: reliability}
}

func TestPredictNoShow_ReliabilityMonotonic(t *testing.T) {
	s := squad.Session{ID: "s1", RSVPs: []squad.RSVP{
		{UserID: "steady", Response: squad.ResponseYes},
		{UserID: "flaky", Response: squad.ResponseYes},
	}}
	members := []squad.Member{
		member("steady", "Steady", squad.Score(90)),
		member("flaky", "Flaky", squad.Score(40)),
	}

	got := PredictNoShow(s, members)
	if len(got) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(got))
	}
	byID := map[string]NoShowPrediction{}
	for _, p := range got {
		byID[p.UserID] = p
	}
	if byID["steady"].Probability >= byID["flaky"].Probability {
		t.Errorf("steady (%d) should be below flaky (%d)", byID["steady"].Probability, byID["flaky"].Probability)
	}
	if byID["steady"].Probability != 10 || byID["flaky"].Probability != 60 {
		t.Errorf("probabilities = %d/%d, want 10/60", byID["steady"].Probability, byID["flaky"].Probability)
	}
	if byID["flaky"].Risk != RiskHigh || byID["steady"].Risk != RiskLow {
		t.Errorf("risk = %s/%s, want high/low", byID["flaky"].Risk, byID["steady"].Risk)
	}
	if got[0].UserID != "flaky" {
		t.Errorf("expected highest risk first, got %s", got[0].UserID)
	}
}

func TestPredictNoShow_FixedResponses(t *testing.T) {
	s := squad.Session{ID: "s1", RSVPs: []squad.RSVP{
		{UserID: "m", Response: squad.ResponseMaybe},
		{UserID: "n", Response: squad.ResponseNo},
	}}
	members := []squad.Member{member("m", "M", squad.Score(100)), member("n", "N", squad.Score(100))}

	got := PredictNoShow(s, members)
	if len(got) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(got))
	}
	if got[0].UserID != "n" || got[0].Probability != 95 || got[0].Risk != RiskHigh {
		t.Errorf("no response: %+v", got[0])
	}
	if got[1].UserID != "m" || got[1].Probability != 50 || got[1].Risk != RiskMedium {
		t.Errorf("maybe response: %+v", got[1])
	}
}

func TestPredictNoShow_DefaultReliabilityAndUnknownName(t *testing.T) {
	s := squad.Session{ID: "s1", RSVPs: []squad.RSVP{{UserID: "x", Response: squad.ResponseYes}}}
	got := PredictNoShow(s, []squad.Member{{UserID: "x"}})
	if len(got) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(got))
	}
	if got[0].Probability != 0 {
		t.Errorf("Probability = %d, want 0 with default reliability", got[0].Probability)
	}
	if got[0].Username != "Unknown" {
		t.Errorf("Username = %q, want Unknown", got[0].Username)
	}
	if got[0].ReliabilityTier != "Légende" {
		t.Errorf("ReliabilityTier = %q, want Légende", got[0].ReliabilityTier)
	}
}

func TestPredictNoShow_SkipsNonMembersAndInvalid(t *testing.T) {
	s := squad.Session{ID: "s1", RSVPs: []squad.RSVP{
		{UserID: "ghost", Response: squad.ResponseYes},
		{UserID: "a", Response: squad.Response("perhaps")},
		{UserID: "b", Response: squad.ResponseYes},
	}}
	members := []squad.Member{member("a", "A", nil), member("b", "B", nil)}
	got := PredictNoShow(s, members)
	if len(got) != 1 || got[0].UserID != "b" {
		t.Errorf("expected only b, got %+v", got)
	}
}

func TestPredictNoShow_NoRSVPs(t *testing.T) {
	got := PredictNoShow(squad.Session{ID: "s1"}, []squad.Member{member("a", "A", nil)})
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", got)
	}
}

func TestNoShowFraction_Bounds(t *testing.T) {
	for _, r := range []squad.Response{squad.ResponseYes, squad.ResponseMaybe, squad.ResponseNo} {
		for rel := 0.0; rel <= 100; rel += 5 {
			f := NoShowFraction(r, rel)
			if f < 0 || f > 1 || math.IsNaN(f) {
				t.Errorf("NoShowFraction(%s, %v) = %v out of range", r, rel, f)
			}
		}
	}
}

func TestReliabilityTier(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "Légende"},
		{95, "Légende"},
		{90, "Excellent"},
		{80, "Bon"},
		{60, "Moyen"},
		{45, "Faible"},
		{10, "Critique"},
		{0, "Critique"},
	}
	for _, tt := range tests {
		if got := ReliabilityTier(tt.score); got != tt.want {
			t.Errorf("ReliabilityTier(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

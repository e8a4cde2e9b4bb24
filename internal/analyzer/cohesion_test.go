package analyzer

import (
	"fmt"
	"testing"

	"github.com/blackwell-systems/squadpulse/internal/squad"
)

func yesFrom(ids ...string) []squad.RSVP {
	out := make([]squad.RSVP, len(ids))
	for i, id := range ids {
		out[i] = squad.RSVP{UserID: id, Response: squad.ResponseYes}
	}
	return out
}

func TestAnalyzeCohesion_NoSessions(t *testing.T) {
	got := AnalyzeCohesion(nil, nil)
	if got.Score != 50 {
		t.Errorf("Score = %d, want 50", got.Score)
	}
	if len(got.TopPairs) != 0 {
		t.Errorf("expected no pairs, got %+v", got.TopPairs)
	}
	if len(got.Suggestions) != 1 || got.Suggestions[0] != SuggestionNeedSessions {
		t.Errorf("Suggestions = %v", got.Suggestions)
	}
}

func TestAnalyzeCohesion_IgnoresNonCompleted(t *testing.T) {
	sessions := []squad.Session{
		session("a", "2026-01-05", "20:00", squad.StatusConfirmed, yesFrom("x", "y")),
		session("b", "2026-01-06", "20:00", squad.StatusCancelled, yesFrom("x", "y")),
	}
	got := AnalyzeCohesion(sessions, nil)
	if got.Score != NeutralCohesionScore || got.SessionsAnalyzed != 0 {
		t.Errorf("expected neutral result, got %+v", got)
	}
}

func TestAnalyzeCohesion_SamePairEverySession(t *testing.T) {
	var sessions []squad.Session
	for i := 0; i < 4; i++ {
		sessions = append(sessions, session(fmt.Sprint(i), "2026-01-05", "20:00", squad.StatusCompleted, yesFrom("bob", "alice")))
	}
	got := AnalyzeCohesion(sessions, nil)
	if got.Score != 100 {
		t.Errorf("Score = %d, want 100", got.Score)
	}
	if len(got.TopPairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(got.TopPairs))
	}
	p := got.TopPairs[0]
	if p.User1 != "alice" || p.User2 != "bob" || p.SessionsTogether != 4 {
		t.Errorf("pair = %+v", p)
	}
	if got.Suggestions[0] != SuggestionKeepCadence {
		t.Errorf("suggestion = %q", got.Suggestions[0])
	}
}

func TestAnalyzeCohesion_LowOverlap(t *testing.T) {
	// Each pair plays together once across 6 sessions: avg 1, score round(1/6*200)=33.
	sessions := []squad.Session{
		session("1", "2026-01-01", "20:00", squad.StatusCompleted, yesFrom("a", "b")),
		session("2", "2026-01-02", "20:00", squad.StatusCompleted, yesFrom("c", "d")),
		session("3", "2026-01-03", "20:00", squad.StatusCompleted, yesFrom("e", "f")),
		session("4", "2026-01-04", "20:00", squad.StatusCompleted, yesFrom("a", "c")),
		session("5", "2026-01-05", "20:00", squad.StatusCompleted, yesFrom("b", "d")),
		session("6", "2026-01-06", "20:00", squad.StatusCompleted, yesFrom("e", "a")),
	}
	got := AnalyzeCohesion(sessions, nil)
	if got.Score != 33 {
		t.Errorf("Score = %d, want 33", got.Score)
	}
	if got.Suggestions[0] != SuggestionMoreOften {
		t.Errorf("suggestion = %q", got.Suggestions[0])
	}
	if len(got.TopPairs) != MaxTopPairs {
		t.Errorf("TopPairs len = %d, want %d", len(got.TopPairs), MaxTopPairs)
	}
	// All counts tie at 1, so ordering is lexicographic.
	if got.TopPairs[0].User1 != "a" || got.TopPairs[0].User2 != "b" {
		t.Errorf("first pair = %+v, want a/b", got.TopPairs[0])
	}
}

func TestAnalyzeCohesion_MidBand(t *testing.T) {
	// 3 sessions; pair a-b in 1. avg 1, score round(1/3*200)=67.
	sessions := []squad.Session{
		session("1", "2026-01-01", "20:00", squad.StatusCompleted, yesFrom("a", "b")),
		session("2", "2026-01-02", "20:00", squad.StatusCompleted, yesFrom("a")),
		session("3", "2026-01-03", "20:00", squad.StatusCompleted, nil),
	}
	got := AnalyzeCohesion(sessions, nil)
	if got.Score != 67 {
		t.Errorf("Score = %d, want 67", got.Score)
	}
	if got.Suggestions[0] != SuggestionVaryFormats {
		t.Errorf("suggestion = %q", got.Suggestions[0])
	}
}

func TestAnalyzeCohesion_OnlyYesCounts(t *testing.T) {
	sessions := []squad.Session{
		session("1", "2026-01-01", "20:00", squad.StatusCompleted, []squad.RSVP{
			{UserID: "a", Response: squad.ResponseYes},
			{UserID: "b", Response: squad.ResponseMaybe},
			{UserID: "c", Response: squad.ResponseNo},
		}),
	}
	got := AnalyzeCohesion(sessions, nil)
	if len(got.TopPairs) != 0 {
		t.Errorf("expected no pairs, got %+v", got.TopPairs)
	}
	if got.Score != 0 {
		t.Errorf("Score = %d, want 0", got.Score)
	}
}

func TestAnalyzeCohesion_Bounds(t *testing.T) {
	var sessions []squad.Session
	for i := 0; i < 10; i++ {
		sessions = append(sessions, session(fmt.Sprint(i), "2026-01-01", "20:00", squad.StatusCompleted,
			yesFrom("a", "b", "c", "d", "e")))
	}
	got := AnalyzeCohesion(sessions, nil)
	if got.Score < 0 || got.Score > 100 {
		t.Errorf("Score out of range: %d", got.Score)
	}
}

func TestAnalyzeCohesion_IgnoresNonMembers(t *testing.T) {
	rs := []squad.RSVP{
		{UserID: "a", Response: squad.ResponseYes},
		{UserID: "ghost1", Response: squad.ResponseYes},
		{UserID: "ghost2", Response: squad.ResponseYes},
		{UserID: "ghost3", Response: squad.ResponseNo},
	}
	sessions := []squad.Session{
		session("s1", "2026-01-03", "20:00", squad.StatusCompleted, rs),
		session("s2", "2026-01-10", "20:00", squad.StatusCompleted, rs),
	}
	roster := squad.NewRoster([]squad.Member{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}, {UserID: "d"}})

	got := AnalyzeCohesion(sessions, roster)
	if got.Score != 0 {
		t.Errorf("Score = %d, want 0", got.Score)
	}
	if len(got.TopPairs) != 0 {
		t.Errorf("TopPairs = %+v, want none", got.TopPairs)
	}
	if got.SessionsAnalyzed != 2 {
		t.Errorf("SessionsAnalyzed = %d, want 2", got.SessionsAnalyzed)
	}

	// The ghosts pair up with a and each other when nobody filters them.
	if all := AnalyzeCohesion(sessions, nil); len(all.TopPairs) != 3 {
		t.Errorf("TopPairs without roster = %+v, want 3 pairs", all.TopPairs)
	}
}

package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/squadpulse/internal/analyzer"
	"github.com/blackwell-systems/squadpulse/internal/squad"
	"github.com/blackwell-systems/squadpulse/internal/suggest"
)

// DefaultWorkers is the batch concurrency used when none is given.
const DefaultWorkers = 4

// Report is the full analysis of one squad at a single instant.
type Report struct {
	SquadID     string    `json:"squad_id"`
	GeneratedAt time.Time `json:"generated_at"`

	OptimalTime analyzer.OptimalTime `json:"optimal_time"`
	Coverage    analyzer.Coverage    `json:"coverage"`
	Cohesion    analyzer.Cohesion    `json:"cohesion"`
	Health      analyzer.Health      `json:"health"`

	// NextSession is the earliest upcoming pending or confirmed session
	// with its no-show predictions, or nil when none is scheduled.
	NextSession *SessionRisk `json:"next_session,omitempty"`

	Recommendations []suggest.Recommendation `json:"recommendations"`

	// Failures names the analyzers that fell back to defaults.
	Failures []string `json:"failures,omitempty"`
}

// Degraded reports whether any analyzer fell back.
func (r Report) Degraded() bool {
	return len(r.Failures) > 0
}

// SessionRisk pairs a session with its no-show predictions.
type SessionRisk struct {
	SessionID   string                      `json:"session_id"`
	Date        string                      `json:"date"`
	Time        string                      `json:"time,omitempty"`
	Predictions []analyzer.NoShowPrediction `json:"predictions"`
}

// Report runs every analyzer for the squad against one captured "now". The
// five analyzers run concurrently; recommendations run after the
// optimal-time analysis they depend on.
func (e *Engine) Report(ctx context.Context, squadID string) Report {
	now := e.now()
	rep := Report{SquadID: squadID, GeneratedAt: now}

	var (
		mu       sync.Mutex
		failures []string
	)
	fail := func(name string, ok bool) {
		if ok {
			return
		}
		mu.Lock()
		failures = append(failures, name)
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		var ok bool
		rep.OptimalTime, ok = e.optimalTime(ctx, squadID)
		fail(NameOptimalTime, ok)
		return nil
	})
	g.Go(func() error {
		var ok bool
		start, end := e.coverageWindow(now, time.Time{})
		rep.Coverage, ok = e.coverage(ctx, squadID, start, end)
		fail(NameCoverage, ok)
		return nil
	})
	g.Go(func() error {
		var ok bool
		rep.Cohesion, ok = e.cohesion(ctx, squadID)
		fail(NameCohesion, ok)
		return nil
	})
	g.Go(func() error {
		var ok bool
		rep.Health, ok = e.health(ctx, squadID, now)
		fail(NameHealth, ok)
		return nil
	})
	g.Go(func() error {
		var ok bool
		rep.NextSession, ok = e.nextSession(ctx, squadID, now)
		fail(NameNoShow, ok)
		return nil
	})
	_ = g.Wait()

	recs, ok := e.recommendations(ctx, squadID, now, rep.OptimalTime)
	rep.Recommendations = recs
	fail(NameRecommendations, ok)

	sort.Strings(failures)
	rep.Failures = failures

	e.metrics.ReportDone()
	e.metrics.SetScore(squadID, "health", rep.Health.Score)
	e.metrics.SetScore(squadID, "cohesion", rep.Cohesion.Score)
	e.metrics.SetScore(squadID, "confidence", rep.OptimalTime.Confidence)
	e.metrics.SetScore(squadID, "coverage", rep.Coverage.AverageCoverage)

	e.logger.Debug().
		Str("squad", squadID).
		Int("health", rep.Health.Score).
		Int("cohesion", rep.Cohesion.Score).
		Strs("failures", failures).
		Msg("report complete")
	return rep
}

// nextSession finds the earliest pending or confirmed session dated today
// or later and predicts its no-shows.
func (e *Engine) nextSession(ctx context.Context, squadID string, now time.Time) (*SessionRisk, bool) {
	var (
		next    *squad.Session
		members []squad.Member
	)
	ok := e.run(ctx, NameNoShow, squadID, func(ctx context.Context) error {
		sessions, err := e.repo.Sessions(ctx, squadID, []squad.Status{squad.StatusPending, squad.StatusConfirmed}, 0)
		if err != nil {
			return err
		}
		next = earliestUpcoming(sessions, now)
		if next == nil {
			return nil
		}
		members, err = e.repo.Members(ctx, squadID)
		return err
	})
	if !ok || next == nil {
		return nil, ok
	}

	risk := NewSessionRisk(*next, analyzer.PredictNoShow(*next, members))
	return &risk, true
}

// NewSessionRisk pairs s with preds. Missing schedule fields stay empty.
func NewSessionRisk(s squad.Session, preds []analyzer.NoShowPrediction) SessionRisk {
	risk := SessionRisk{SessionID: s.ID, Predictions: preds}
	if !s.ScheduledDate.IsZero() {
		risk.Date = s.ScheduledDate.Format(squad.DateLayout)
	}
	if s.ScheduledTime != nil {
		risk.Time = s.ScheduledTime.String()
	}
	return risk
}

func earliestUpcoming(sessions []squad.Session, now time.Time) *squad.Session {
	today := squad.Date(now)
	var best *squad.Session
	for i := range sessions {
		s := &sessions[i]
		if s.ScheduledDate.IsZero() || s.ScheduledDate.Before(today) {
			continue
		}
		if best == nil || isEarlier(*s, *best) {
			best = s
		}
	}
	return best
}

func isEarlier(a, b squad.Session) bool {
	if !a.ScheduledDate.Equal(b.ScheduledDate) {
		return a.ScheduledDate.Before(b.ScheduledDate)
	}
	switch {
	case a.ScheduledTime != nil && b.ScheduledTime == nil:
		return true
	case a.ScheduledTime == nil && b.ScheduledTime != nil:
		return false
	case a.ScheduledTime != nil && *a.ScheduledTime != *b.ScheduledTime:
		return a.ScheduledTime.Before(*b.ScheduledTime)
	}
	return a.ID < b.ID
}

// BatchReports builds reports for many squads with at most workers running
// at once. Results keep the order of squadIDs. Only cancellation of ctx is
// reported as an error.
func (e *Engine) BatchReports(ctx context.Context, squadIDs []string, workers int) ([]Report, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	reports := make([]Report, len(squadIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range squadIDs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = e.Report(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch reports: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch reports: %w", err)
	}
	return reports, nil
}

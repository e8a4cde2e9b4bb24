// Package engine fetches squad data through a Repository and runs the
// analyzers over it, falling back to neutral defaults when data is missing.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/squadpulse/internal/analyzer"
	"github.com/blackwell-systems/squadpulse/internal/squad"
	"github.com/blackwell-systems/squadpulse/internal/suggest"
	"github.com/blackwell-systems/squadpulse/internal/telemetry"
)

// Analyzer names used in logs, metrics and Report.Failures.
const (
	NameOptimalTime     = "optimal_time"
	NameCoverage        = "coverage"
	NameNoShow          = "noshow"
	NameCohesion        = "cohesion"
	NameHealth          = "health"
	NameRecommendations = "recommendations"
)

// DefaultTimeout bounds each analyzer's data fetch.
const DefaultTimeout = 5 * time.Second

// Limits caps how much history each analyzer reads.
type Limits struct {
	OptimalHistory      int `json:"optimal_history"`
	CohesionHistory     int `json:"cohesion_history"`
	HealthHistory       int `json:"health_history"`
	CoverageHorizonDays int `json:"coverage_horizon_days"`
}

// DefaultLimits returns the standard history limits.
func DefaultLimits() Limits {
	return Limits{
		OptimalHistory:      50,
		CohesionHistory:     20,
		HealthHistory:       50,
		CoverageHorizonDays: 7,
	}
}

// Engine runs analyzers against a Repository. It holds no per-squad state
// and is safe for concurrent use.
type Engine struct {
	repo    squad.Repository
	logger  zerolog.Logger
	now     func() time.Time
	metrics *telemetry.Metrics
	timeout time.Duration
	limits  Limits
	rules   *suggest.Engine
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l.With().Str("component", "engine").Logger() }
}

// WithClock sets the source of "now" used for time windows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMetrics records analyzer runs and fallbacks in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTimeout bounds each analyzer's fetches. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLimits overrides history limits. Non-positive fields keep defaults.
func WithLimits(l Limits) Option {
	return func(e *Engine) {
		def := DefaultLimits()
		if l.OptimalHistory <= 0 {
			l.OptimalHistory = def.OptimalHistory
		}
		if l.CohesionHistory <= 0 {
			l.CohesionHistory = def.CohesionHistory
		}
		if l.HealthHistory <= 0 {
			l.HealthHistory = def.HealthHistory
		}
		if l.CoverageHorizonDays <= 0 {
			l.CoverageHorizonDays = def.CoverageHorizonDays
		}
		e.limits = l
	}
}

// New creates an engine reading from repo.
func New(repo squad.Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:    repo,
		logger:  zerolog.Nop(),
		now:     time.Now,
		timeout: DefaultTimeout,
		limits:  DefaultLimits(),
		rules:   suggest.NewEngine(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Limits returns the effective history limits.
func (e *Engine) Limits() Limits {
	return e.limits
}

// OptimalTime returns the best day and time for the squad. On fetch
// failure it returns the no-history default.
func (e *Engine) OptimalTime(ctx context.Context, squadID string) analyzer.OptimalTime {
	res, _ := e.optimalTime(ctx, squadID)
	return res
}

// Coverage ranks slots dated within [start, end] by declared availability.
// A zero start means today and a zero end means the configured horizon
// past start.
func (e *Engine) Coverage(ctx context.Context, squadID string, start, end time.Time) analyzer.Coverage {
	start, end = e.coverageWindow(start, end)
	res, _ := e.coverage(ctx, squadID, start, end)
	return res
}

func (e *Engine) coverageWindow(start, end time.Time) (time.Time, time.Time) {
	if start.IsZero() {
		start = e.now()
	}
	start = squad.Date(start)
	if end.IsZero() {
		end = start.AddDate(0, 0, e.limits.CoverageHorizonDays)
	}
	return start, squad.Date(end)
}

// NoShow predicts absence risk for every RSVP on the session. A missing
// session or failed fetch yields an empty list.
func (e *Engine) NoShow(ctx context.Context, sessionID string) []analyzer.NoShowPrediction {
	res, _ := e.noShow(ctx, sessionID)
	return res
}

// Cohesion scores how consistently members play together.
func (e *Engine) Cohesion(ctx context.Context, squadID string) analyzer.Cohesion {
	res, _ := e.cohesion(ctx, squadID)
	return res
}

// Health scores the squad and lists the checks that failed.
func (e *Engine) Health(ctx context.Context, squadID string) analyzer.Health {
	res, _ := e.health(ctx, squadID, e.now())
	return res
}

// Recommendations runs the optimal-time analysis and the recommendation
// rules for the squad. If recent activity cannot be fetched no
// recommendations are returned.
func (e *Engine) Recommendations(ctx context.Context, squadID string) []suggest.Recommendation {
	now := e.now()
	ot, _ := e.optimalTime(ctx, squadID)
	recs, _ := e.recommendations(ctx, squadID, now, ot)
	return recs
}

// run applies the per-call timeout to fetch, records timing, and logs a
// fallback when fetch fails. It reports whether fetch succeeded.
func (e *Engine) run(ctx context.Context, name, subject string, fetch func(ctx context.Context) error) bool {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fetch(ctx)
	e.metrics.ObserveRun(name, time.Since(start))
	if err != nil {
		e.metrics.Fallback(name)
		e.logger.Warn().Err(err).
			Str("analyzer", name).
			Str("subject", subject).
			Msg("fetch failed, using default")
		return false
	}
	return true
}

func (e *Engine) optimalTime(ctx context.Context, squadID string) (analyzer.OptimalTime, bool) {
	var sessions []squad.Session
	var roster squad.Roster
	ok := e.run(ctx, NameOptimalTime, squadID, func(ctx context.Context) error {
		var err error
		sessions, err = e.repo.Sessions(ctx, squadID, analyzer.OptimalTimeStatuses, e.limits.OptimalHistory)
		if err != nil {
			return err
		}
		roster, err = e.roster(ctx, squadID)
		return err
	})
	if !ok {
		return analyzer.AnalyzeOptimalTime(nil, nil), false
	}
	return analyzer.AnalyzeOptimalTime(sessions, roster), true
}

// roster fetches the squad's members; only their RSVPs are analyzed.
func (e *Engine) roster(ctx context.Context, squadID string) (squad.Roster, error) {
	members, err := e.repo.Members(ctx, squadID)
	if err != nil {
		return nil, err
	}
	return squad.NewRoster(members), nil
}

func (e *Engine) coverage(ctx context.Context, squadID string, start, end time.Time) (analyzer.Coverage, bool) {
	var ids []string
	var slots []squad.AvailabilitySlot
	ok := e.run(ctx, NameCoverage, squadID, func(ctx context.Context) error {
		members, err := e.repo.Members(ctx, squadID)
		if err != nil {
			return err
		}
		ids = squad.MemberIDs(members)
		slots, err = e.repo.AvailabilitySlots(ctx, ids, start, end)
		return err
	})
	if !ok {
		return analyzer.AnalyzeCoverage(nil, nil, start, end), false
	}
	return analyzer.AnalyzeCoverage(ids, slots, start, end), true
}

func (e *Engine) noShow(ctx context.Context, sessionID string) ([]analyzer.NoShowPrediction, bool) {
	var session squad.Session
	var members []squad.Member
	ok := e.run(ctx, NameNoShow, sessionID, func(ctx context.Context) error {
		var err error
		session, err = e.repo.Session(ctx, sessionID)
		if err != nil {
			return err
		}
		members, err = e.repo.Members(ctx, session.SquadID)
		return err
	})
	if !ok {
		return []analyzer.NoShowPrediction{}, false
	}
	return analyzer.PredictNoShow(session, members), true
}

func (e *Engine) cohesion(ctx context.Context, squadID string) (analyzer.Cohesion, bool) {
	var sessions []squad.Session
	var roster squad.Roster
	ok := e.run(ctx, NameCohesion, squadID, func(ctx context.Context) error {
		var err error
		sessions, err = e.repo.Sessions(ctx, squadID, []squad.Status{squad.StatusCompleted}, e.limits.CohesionHistory)
		if err != nil {
			return err
		}
		roster, err = e.roster(ctx, squadID)
		return err
	})
	if !ok {
		return analyzer.AnalyzeCohesion(nil, nil), false
	}
	return analyzer.AnalyzeCohesion(sessions, roster), true
}

// health tolerates a failed message count by skipping the engagement check;
// a failed session or member fetch falls back to the empty-input result.
func (e *Engine) health(ctx context.Context, squadID string, now time.Time) (analyzer.Health, bool) {
	in := analyzer.HealthInput{Now: now}
	var msgErr error
	ok := e.run(ctx, NameHealth, squadID, func(ctx context.Context) error {
		var err error
		if in.Sessions, err = e.repo.Sessions(ctx, squadID, nil, e.limits.HealthHistory); err != nil {
			return err
		}
		if in.Members, err = e.repo.Members(ctx, squadID); err != nil {
			return err
		}
		since := now.AddDate(0, 0, -analyzer.EngagementWindowDays)
		n, err := e.repo.RecentMessageCount(ctx, squadID, since)
		if err != nil {
			msgErr = err
			return nil
		}
		in.MessageCount = &n
		return nil
	})
	if !ok {
		return analyzer.AnalyzeHealth(analyzer.HealthInput{Now: now}), false
	}
	if msgErr != nil {
		e.metrics.Fallback(NameHealth)
		e.logger.Warn().Err(msgErr).
			Str("analyzer", NameHealth).
			Str("subject", squadID).
			Msg("message count unavailable, skipping engagement check")
		return analyzer.AnalyzeHealth(in), false
	}
	return analyzer.AnalyzeHealth(in), true
}

func (e *Engine) recommendations(ctx context.Context, squadID string, now time.Time, ot analyzer.OptimalTime) ([]suggest.Recommendation, bool) {
	var recent int
	ok := e.run(ctx, NameRecommendations, squadID, func(ctx context.Context) error {
		sessions, err := e.repo.Sessions(ctx, squadID, nil, 0)
		if err != nil {
			return err
		}
		recent = countRecent(sessions, now, suggest.ActivityWindowDays)
		return nil
	})
	if !ok {
		return []suggest.Recommendation{}, false
	}
	rctx := &suggest.Context{Now: now, OptimalTime: ot, RecentSessions: recent}
	return e.rules.Run(rctx), true
}

// countRecent counts sessions dated within the trailing window up to and
// including today.
func countRecent(sessions []squad.Session, now time.Time, days int) int {
	today := squad.Date(now)
	cutoff := today.AddDate(0, 0, -days)
	n := 0
	for _, s := range sessions {
		if s.ScheduledDate.IsZero() {
			continue
		}
		if !s.ScheduledDate.Before(cutoff) && !s.ScheduledDate.After(today) {
			n++
		}
	}
	return n
}

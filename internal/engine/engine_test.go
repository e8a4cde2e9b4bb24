package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/squadpulse/internal/analyzer"
	"github.com/blackwell-systems/squadpulse/internal/squad"
	"github.com/blackwell-systems/squadpulse/internal/suggest"
	"github.com/blackwell-systems/squadpulse/internal/telemetry"
)

// Thursday 2026-01-29, 12:00 UTC.
var fixedNow = time.Date(2026, 1, 29, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func daysAgo(n int) time.Time {
	return squad.Date(fixedNow).AddDate(0, 0, -n)
}

// fixture builds a squad of four with twenty weekly Saturday sessions in
// which everyone said yes, one upcoming session and some availability.
func fixture() *squad.MemoryRepository {
	repo := squad.NewMemoryRepository()
	repo.AddSquad("sq", "a", "b", "c", "d")
	for i, id := range []string{"a", "b", "c", "d"} {
		repo.AddMember(squad.Member{
			UserID:           id,
			Username:         fmt.Sprintf("player-%s", id),
			ReliabilityScore: squad.Score(float64(90 - 20*i)),
			LastActiveAt:     fixedNow.AddDate(0, 0, -1),
		})
	}

	// 2026-01-24 is the Saturday before fixedNow.
	lastSat := time.Date(2026, 1, 24, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		repo.AddSession(squad.Session{
			ID:            fmt.Sprintf("past-%02d", i),
			SquadID:       "sq",
			ScheduledDate: lastSat.AddDate(0, 0, -7*i),
			ScheduledTime: squad.At("20:00"),
			Status:        squad.StatusCompleted,
			RSVPs: []squad.RSVP{
				{UserID: "a", Response: squad.ResponseYes},
				{UserID: "b", Response: squad.ResponseYes},
				{UserID: "c", Response: squad.ResponseYes},
				{UserID: "d", Response: squad.ResponseYes},
			},
		})
	}
	repo.AddSession(squad.Session{
		ID:            "next",
		SquadID:       "sq",
		ScheduledDate: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		ScheduledTime: squad.At("21:00"),
		Status:        squad.StatusPending,
		RSVPs: []squad.RSVP{
			{UserID: "a", Response: squad.ResponseYes},
			{UserID: "d", Response: squad.ResponseYes},
			{UserID: "c", Response: squad.ResponseMaybe},
		},
	})

	for _, id := range []string{"a", "b"} {
		repo.AddSlot(squad.AvailabilitySlot{
			UserID:      id,
			Date:        time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC),
			StartTime:   squad.MustTimeOfDay("20:00"),
			EndTime:     squad.MustTimeOfDay("23:00"),
			IsAvailable: true,
		})
	}
	for i := 0; i < 12; i++ {
		repo.AddMessage("sq", fixedNow.Add(-time.Duration(i)*time.Hour))
	}
	return repo
}

// failingRepo fails the named methods and delegates the rest.
type failingRepo struct {
	squad.Repository
	fail map[string]bool
}

var errBackend = errors.New("backend unavailable")

func (f *failingRepo) Sessions(ctx context.Context, squadID string, statuses []squad.Status, limit int) ([]squad.Session, error) {
	if f.fail["Sessions"] {
		return nil, errBackend
	}
	return f.Repository.Sessions(ctx, squadID, statuses, limit)
}

func (f *failingRepo) Members(ctx context.Context, squadID string) ([]squad.Member, error) {
	if f.fail["Members"] {
		return nil, errBackend
	}
	return f.Repository.Members(ctx, squadID)
}

func (f *failingRepo) RecentMessageCount(ctx context.Context, squadID string, since time.Time) (int, error) {
	if f.fail["RecentMessageCount"] {
		return 0, errBackend
	}
	return f.Repository.RecentMessageCount(ctx, squadID, since)
}

// slowRepo blocks every call until ctx is done.
type slowRepo struct {
	squad.Repository
}

func (s slowRepo) Sessions(ctx context.Context, _ string, _ []squad.Status, _ int) ([]squad.Session, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func failing(methods ...string) *failingRepo {
	f := &failingRepo{Repository: fixture(), fail: map[string]bool{}}
	for _, m := range methods {
		f.fail[m] = true
	}
	return f
}

func TestEngine_OptimalTime(t *testing.T) {
	e := New(fixture(), WithClock(clock))
	ot := e.OptimalTime(context.Background(), "sq")
	assert.Equal(t, "Samedi", ot.BestDay)
	assert.Equal(t, "20:00", ot.BestTime)
	assert.Equal(t, 100, ot.Confidence)
	assert.Equal(t, 100, ot.AttendanceRate)
}

func TestEngine_OptimalTime_RespectsLimit(t *testing.T) {
	e := New(fixture(), WithClock(clock), WithLimits(Limits{OptimalHistory: 5}))
	ot := e.OptimalTime(context.Background(), "sq")
	assert.Equal(t, 5, ot.SessionsAnalyzed)
	assert.Equal(t, 25, ot.Confidence)
	assert.Equal(t, DefaultLimits().CohesionHistory, e.Limits().CohesionHistory)
}

func TestEngine_UnknownSquadGivesDefaults(t *testing.T) {
	e := New(fixture(), WithClock(clock))
	ctx := context.Background()

	ot := e.OptimalTime(ctx, "nope")
	assert.Equal(t, analyzer.DefaultBestDay, ot.BestDay)
	assert.Equal(t, 0, ot.Confidence)

	c := e.Cohesion(ctx, "nope")
	assert.Equal(t, analyzer.NeutralCohesionScore, c.Score)

	cov := e.Coverage(ctx, "nope", time.Time{}, time.Time{})
	assert.Empty(t, cov.OptimalSlots)
}

func TestEngine_Coverage(t *testing.T) {
	e := New(fixture(), WithClock(clock))
	cov := e.Coverage(context.Background(), "sq", time.Time{}, time.Time{})
	require.Len(t, cov.OptimalSlots, 1)
	assert.Equal(t, "2026-01-30", cov.OptimalSlots[0].Date)
	assert.Equal(t, "20:00", cov.OptimalSlots[0].Time)
	assert.Equal(t, 50, cov.OptimalSlots[0].CoveragePercent)
}

func TestEngine_CoverageExplicitWindow(t *testing.T) {
	repo := fixture()
	repo.AddSlot(squad.AvailabilitySlot{
		UserID:      "c",
		Date:        time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC),
		StartTime:   squad.MustTimeOfDay("19:00"),
		EndTime:     squad.MustTimeOfDay("22:00"),
		IsAvailable: true,
	})
	e := New(repo, WithClock(clock))
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC) }

	// The default horizon ends 2026-02-05.
	def := e.Coverage(ctx, "sq", time.Time{}, time.Time{})
	require.Len(t, def.OptimalSlots, 1)
	assert.Equal(t, "2026-01-30", def.OptimalSlots[0].Date)

	cov := e.Coverage(ctx, "sq", day(10), day(12))
	require.Len(t, cov.OptimalSlots, 1)
	assert.Equal(t, "2026-02-11", cov.OptimalSlots[0].Date)
	assert.Equal(t, "19:00", cov.OptimalSlots[0].Time)
	assert.Equal(t, 25, cov.OptimalSlots[0].CoveragePercent)

	// An open end extends the configured horizon past start.
	open := e.Coverage(ctx, "sq", day(9), time.Time{})
	require.Len(t, open.OptimalSlots, 1)
	assert.Equal(t, "2026-02-11", open.OptimalSlots[0].Date)

	assert.Empty(t, e.Coverage(ctx, "sq", day(12), day(20)).OptimalSlots)
}

func TestEngine_NoShow(t *testing.T) {
	e := New(fixture(), WithClock(clock))
	preds := e.NoShow(context.Background(), "next")
	require.Len(t, preds, 3)
	// d has reliability 30, so a yes carries a 70% no-show risk.
	assert.Equal(t, "d", preds[0].UserID)
	assert.Equal(t, 70, preds[0].Probability)
	assert.Equal(t, analyzer.RiskHigh, preds[0].Risk)

	assert.Empty(t, e.NoShow(context.Background(), "missing"))
}

func TestEngine_Cohesion(t *testing.T) {
	e := New(fixture(), WithClock(clock))
	c := e.Cohesion(context.Background(), "sq")
	assert.Equal(t, 100, c.Score)
	assert.Equal(t, 20, c.SessionsAnalyzed)
	assert.Len(t, c.TopPairs, analyzer.MaxTopPairs)
}

func TestEngine_Health(t *testing.T) {
	e := New(fixture(), WithClock(clock))
	h := e.Health(context.Background(), "sq")
	assert.Equal(t, 100, h.Score)
	assert.Empty(t, h.Insights)
}

func TestEngine_Recommendations(t *testing.T) {
	e := New(fixture(), WithClock(clock))
	recs := e.Recommendations(context.Background(), "sq")
	// Thursday: weekend is 2 days away. Two sessions fall in the trailing
	// 14 days (01-17 and 01-24) so there is no activity boost.
	require.Len(t, recs, 2)
	assert.Equal(t, suggest.TypeOptimalTime, recs[0].Type)
	assert.Equal(t, map[string]string{"day": "Samedi", "time": "20:00"}, recs[0].Data)
	assert.Equal(t, suggest.TypeWeekendReminder, recs[1].Type)
}

func TestEngine_IgnoresRSVPsFromNonMembers(t *testing.T) {
	ctx := context.Background()
	build := func(rs []squad.RSVP) *squad.MemoryRepository {
		repo := squad.NewMemoryRepository()
		repo.AddSquad("sq", "a", "b", "c", "d")
		for i, d := range []int{17, 24} {
			repo.AddSession(squad.Session{
				ID:            fmt.Sprintf("s%d", i),
				SquadID:       "sq",
				ScheduledDate: time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC),
				ScheduledTime: squad.At("20:00"),
				Status:        squad.StatusCompleted,
				RSVPs:         rs,
			})
		}
		return repo
	}

	e := New(build([]squad.RSVP{
		{UserID: "a", Response: squad.ResponseYes},
		{UserID: "ghost1", Response: squad.ResponseYes},
		{UserID: "ghost2", Response: squad.ResponseYes},
		{UserID: "ghost3", Response: squad.ResponseNo},
	}), WithClock(clock))

	ot := e.OptimalTime(ctx, "sq")
	assert.Equal(t, "Samedi", ot.BestDay)
	assert.Equal(t, 100, ot.AttendanceRate)

	c := e.Cohesion(ctx, "sq")
	assert.Equal(t, 0, c.Score)
	assert.Empty(t, c.TopPairs)

	// Members all declined; outsiders said yes.
	e = New(build([]squad.RSVP{
		{UserID: "a", Response: squad.ResponseNo},
		{UserID: "b", Response: squad.ResponseNo},
		{UserID: "ghost1", Response: squad.ResponseYes},
		{UserID: "ghost2", Response: squad.ResponseYes},
		{UserID: "ghost3", Response: squad.ResponseYes},
	}), WithClock(clock))
	h := e.Health(ctx, "sq")
	var types []analyzer.InsightType
	for _, ins := range h.Insights {
		types = append(types, ins.Type)
	}
	assert.Contains(t, types, analyzer.InsightAttendance)
}

func TestEngine_MembersFailureFallsBackForRosterAnalyzers(t *testing.T) {
	e := New(failing("Members"), WithClock(clock))
	ctx := context.Background()

	ot, ok := e.optimalTime(ctx, "sq")
	assert.False(t, ok)
	assert.Equal(t, analyzer.DefaultBestDay, ot.BestDay)
	assert.Equal(t, 0, ot.Confidence)

	c, ok := e.cohesion(ctx, "sq")
	assert.False(t, ok)
	assert.Equal(t, analyzer.NeutralCohesionScore, c.Score)
}

func TestEngine_FallbacksAreIsolated(t *testing.T) {
	var logs bytes.Buffer
	m := telemetry.New()
	e := New(failing("Sessions"),
		WithClock(clock),
		WithMetrics(m),
		WithLogger(zerolog.New(zerolog.SyncWriter(&logs))),
	)

	rep := e.Report(context.Background(), "sq")

	assert.Equal(t, analyzer.DefaultBestDay, rep.OptimalTime.BestDay)
	assert.Equal(t, 0, rep.OptimalTime.Confidence)
	assert.Equal(t, analyzer.NeutralCohesionScore, rep.Cohesion.Score)
	assert.Equal(t, 100, rep.Health.Score)
	assert.Empty(t, rep.Recommendations)

	// Coverage only needs members and slots, so it still succeeds.
	require.Len(t, rep.Coverage.OptimalSlots, 1)
	assert.NotContains(t, rep.Failures, NameCoverage)

	assert.Equal(t, []string{NameCohesion, NameHealth, NameNoShow, NameOptimalTime, NameRecommendations}, rep.Failures)
	assert.True(t, rep.Degraded())
	assert.Contains(t, logs.String(), "fetch failed, using default")
	assert.Contains(t, logs.String(), errBackend.Error())

	reg := m.Registry()
	n, err := testutil.GatherAndCount(reg, "squadpulse_analyzer_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestEngine_HealthSkipsEngagementWhenMessagesFail(t *testing.T) {
	e := New(failing("RecentMessageCount"), WithClock(clock))
	h, ok := e.health(context.Background(), "sq", fixedNow)
	assert.False(t, ok)
	assert.Equal(t, 100, h.Score)
	for _, ins := range h.Insights {
		assert.NotEqual(t, analyzer.InsightEngagement, ins.Type)
	}
}

func TestEngine_HealthMembersFailFallsBack(t *testing.T) {
	e := New(failing("Members"), WithClock(clock))
	h, ok := e.health(context.Background(), "sq", fixedNow)
	assert.False(t, ok)
	assert.Equal(t, 100, h.Score)
	assert.Empty(t, h.Insights)
}

func TestEngine_Timeout(t *testing.T) {
	e := New(slowRepo{Repository: fixture()}, WithClock(clock), WithTimeout(20*time.Millisecond))
	start := time.Now()
	ot := e.OptimalTime(context.Background(), "sq")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, analyzer.DefaultBestDay, ot.BestDay)
	assert.Equal(t, 0, ot.Confidence)
}

func TestEngine_ReportComplete(t *testing.T) {
	m := telemetry.New()
	e := New(fixture(), WithClock(clock), WithMetrics(m))
	rep := e.Report(context.Background(), "sq")

	assert.Equal(t, "sq", rep.SquadID)
	assert.Equal(t, fixedNow, rep.GeneratedAt)
	assert.Empty(t, rep.Failures)
	assert.False(t, rep.Degraded())
	assert.Equal(t, 100, rep.OptimalTime.Confidence)
	assert.Equal(t, 100, rep.Health.Score)

	require.NotNil(t, rep.NextSession)
	assert.Equal(t, "next", rep.NextSession.SessionID)
	assert.Equal(t, "2026-01-31", rep.NextSession.Date)
	assert.Equal(t, "21:00", rep.NextSession.Time)
	assert.Len(t, rep.NextSession.Predictions, 3)

	n, err := testutil.GatherAndCount(m.Registry(), "squadpulse_reports_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEngine_ReportDeterministic(t *testing.T) {
	e := New(fixture(), WithClock(clock))
	first := e.Report(context.Background(), "sq")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Report(context.Background(), "sq"))
	}
}

func TestEngine_BatchReportsKeepsOrder(t *testing.T) {
	repo := fixture()
	repo.AddSquad("empty")
	e := New(repo, WithClock(clock))

	ids := []string{"sq", "empty", "sq", "missing"}
	reports, err := e.BatchReports(context.Background(), ids, 2)
	require.NoError(t, err)
	require.Len(t, reports, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, reports[i].SquadID)
	}
	assert.Equal(t, 100, reports[0].OptimalTime.Confidence)
	assert.Equal(t, 0, reports[1].OptimalTime.Confidence)
}

func TestEngine_BatchReportsCancelled(t *testing.T) {
	e := New(fixture(), WithClock(clock))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.BatchReports(ctx, []string{"sq", "sq"}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCountRecent(t *testing.T) {
	sessions := []squad.Session{
		{ID: "today", ScheduledDate: daysAgo(0)},
		{ID: "edge", ScheduledDate: daysAgo(14)},
		{ID: "old", ScheduledDate: daysAgo(15)},
		{ID: "future", ScheduledDate: daysAgo(-3)},
		{ID: "undated"},
	}
	assert.Equal(t, 2, countRecent(sessions, fixedNow, 14))
}

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/squadpulse/internal/cache"
	"github.com/blackwell-systems/squadpulse/internal/config"
	"github.com/blackwell-systems/squadpulse/internal/engine"
	"github.com/blackwell-systems/squadpulse/internal/logging"
	"github.com/blackwell-systems/squadpulse/internal/output"
	"github.com/blackwell-systems/squadpulse/internal/squad"
	"github.com/blackwell-systems/squadpulse/internal/store"
	"github.com/blackwell-systems/squadpulse/internal/telemetry"
)

// env is everything a command needs to run analyses.
type env struct {
	cfg     *config.Config
	logger  zerolog.Logger
	now     func() time.Time
	metrics *telemetry.Metrics
	engine  *engine.Engine

	// db is nil when reading from a dataset file.
	db     *store.DB
	memory *squad.MemoryRepository
	cache  *cache.Repository
}

// loadConfig reads config and applies the global output flags.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("loading config: %w", err)
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagDataset != "" {
		cfg.Dataset = flagDataset
	}

	if flagNoColor || !cfg.Output.Color {
		output.SetNoColor(true)
	} else {
		output.AutoColor(os.Stdout)
	}
	output.SetWidth(cfg.Output.Width)

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	logger := logging.Setup(level, cfg.Log.JSON || flagLogJSON)
	return cfg, logger, nil
}

// clock returns the analysis clock, fixed when --now is set.
func clock() (func() time.Time, error) {
	if flagNow == "" {
		return time.Now, nil
	}
	t, err := time.Parse(time.RFC3339, flagNow)
	if err != nil {
		return nil, fmt.Errorf("parsing --now: %w", err)
	}
	return func() time.Time { return t }, nil
}

// openEnv resolves the repository (dataset file or SQLite store), wraps it
// in the Redis cache when configured, and builds the engine.
func openEnv(ctx context.Context) (*env, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	now, err := clock()
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger, now: now, metrics: telemetry.New()}

	var repo squad.Repository
	if cfg.Dataset != "" {
		ds, err := squad.LoadDataset(cfg.Dataset)
		if err != nil {
			return nil, err
		}
		mem, skipped := ds.Repository()
		if skipped > 0 {
			logger.Warn().Int("skipped", skipped).Str("dataset", cfg.Dataset).Msg("dropped malformed records")
		}
		e.memory = mem
		repo = mem
	} else {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		e.db = db
		repo = db
	}

	if cfg.Cache.RedisAddr != "" {
		cc := cache.DefaultConfig()
		cc.RedisAddr = cfg.Cache.RedisAddr
		cc.RedisPassword = cfg.Cache.RedisPassword
		cc.RedisDB = cfg.Cache.RedisDB
		cc.TTL = cfg.Cache.TTL
		e.cache = cache.New(ctx, cc, repo, logger)
		repo = e.cache
	}

	e.engine = engine.New(repo,
		engine.WithLogger(logger),
		engine.WithClock(now),
		engine.WithMetrics(e.metrics),
		engine.WithTimeout(cfg.Engine.Timeout),
		engine.WithLimits(engine.Limits{
			OptimalHistory:      cfg.History.OptimalLimit,
			CohesionHistory:     cfg.History.CohesionLimit,
			HealthHistory:       cfg.History.HealthLimit,
			CoverageHorizonDays: cfg.Coverage.HorizonDays,
		}),
	)
	return e, nil
}

// Close releases the cache connection and database.
func (e *env) Close() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
	if e.db != nil {
		_ = e.db.Close()
	}
}

// repository returns the repository the engine reads through.
func (e *env) repository() squad.Repository {
	switch {
	case e.cache != nil:
		return e.cache
	case e.db != nil:
		return e.db
	default:
		return e.memory
	}
}

// squadIDs lists every known squad.
func (e *env) squadIDs(ctx context.Context) ([]string, error) {
	if e.db != nil {
		return e.db.SquadIDs(ctx)
	}
	return e.memory.SquadIDs(), nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

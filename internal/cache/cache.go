// Package cache provides a Redis-backed read-through layer in front of a
// squad.Repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/squadpulse/internal/squad"
)

// DefaultTTL is how long fetched snapshots are reused.
const DefaultTTL = 5 * time.Minute

// MessageWindowGranularity is the precision of the "since" bound of cached
// message counts. Calls whose bounds fall in the same minute share an entry.
const MessageWindowGranularity = time.Minute

// Key prefixes for Redis cache.
const (
	KeySessions = "squadpulse:cache:sessions:" // + squad_id:statuses:limit
	KeySession  = "squadpulse:cache:session:"  // + session_id
	KeyMembers  = "squadpulse:cache:members:"  // + squad_id
	KeySlots    = "squadpulse:cache:slots:"    // + start:end:member_ids
	KeyMessages = "squadpulse:cache:messages:" // + squad_id:since
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration

	// DisableOnError trips the breaker on the first Redis error so later
	// calls go straight to the inner repository.
	DisableOnError bool
}

// DefaultConfig returns default cache configuration. Caching is off until
// RedisAddr is set.
func DefaultConfig() Config {
	return Config{
		TTL:            DefaultTTL,
		DisableOnError: true,
	}
}

// Repository wraps another squad.Repository and caches its answers in
// Redis. Redis failures never surface to callers: the inner repository is
// always the fallback.
type Repository struct {
	inner  squad.Repository
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // circuit breaker state
}

var _ squad.Repository = (*Repository)(nil)

// New creates a caching repository. An empty RedisAddr or a failed ping
// yields a pass-through repository rather than an error.
func New(ctx context.Context, cfg Config, inner squad.Repository, logger zerolog.Logger) *Repository {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	r := &Repository{
		inner:  inner,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
	}
	if cfg.RedisAddr == "" {
		r.disabled = true
		return r
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     10,
		MaxRetries:   1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		r.logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis cache unavailable, running without caching")
		_ = client.Close()
		r.disabled = true
		return r
	}

	r.logger.Debug().Str("addr", cfg.RedisAddr).Msg("redis cache initialized")
	r.client = client
	return r
}

// Close closes the Redis connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (r *Repository) IsAvailable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.disabled && r.client != nil
}

// handleError handles Redis errors with circuit breaker logic. Errors caused
// by the caller's context ending say nothing about Redis and leave the
// breaker alone.
func (r *Repository) handleError(ctx context.Context, err error, operation string) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}
	r.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	if r.config.DisableOnError {
		r.mu.Lock()
		r.disabled = true
		r.mu.Unlock()
		r.logger.Warn().Msg("disabling cache due to redis error")
	}
}

// get retrieves a value from cache and unmarshals it.
func (r *Repository) get(ctx context.Context, key string, dest any) bool {
	if !r.IsAvailable() {
		return false
	}
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		r.handleError(ctx, err, "get")
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false
	}
	return true
}

// set stores a value in cache with the configured TTL.
func (r *Repository) set(ctx context.Context, key string, value any) {
	if !r.IsAvailable() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("failed to marshal cache value")
		return
	}
	if err := r.client.Set(ctx, key, data, r.config.TTL).Err(); err != nil {
		r.handleError(ctx, err, "set")
	}
}

// Sessions implements squad.Repository.
func (r *Repository) Sessions(ctx context.Context, squadID string, statuses []squad.Status, limit int) ([]squad.Session, error) {
	key := SessionsKey(squadID, statuses, limit)
	var sessions []squad.Session
	if r.get(ctx, key, &sessions) {
		return sessions, nil
	}
	sessions, err := r.inner.Sessions(ctx, squadID, statuses, limit)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, sessions)
	return sessions, nil
}

// Session implements squad.Repository. Misses are not cached.
func (r *Repository) Session(ctx context.Context, sessionID string) (squad.Session, error) {
	key := KeySession + sessionID
	var s squad.Session
	if r.get(ctx, key, &s) {
		return s, nil
	}
	s, err := r.inner.Session(ctx, sessionID)
	if err != nil {
		return squad.Session{}, err
	}
	r.set(ctx, key, s)
	return s, nil
}

// Members implements squad.Repository.
func (r *Repository) Members(ctx context.Context, squadID string) ([]squad.Member, error) {
	key := KeyMembers + squadID
	var members []squad.Member
	if r.get(ctx, key, &members) {
		return members, nil
	}
	members, err := r.inner.Members(ctx, squadID)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, members)
	return members, nil
}

// AvailabilitySlots implements squad.Repository.
func (r *Repository) AvailabilitySlots(ctx context.Context, memberIDs []string, start, end time.Time) ([]squad.AvailabilitySlot, error) {
	key := SlotsKey(memberIDs, start, end)
	var slots []squad.AvailabilitySlot
	if r.get(ctx, key, &slots) {
		return slots, nil
	}
	slots, err := r.inner.AvailabilitySlots(ctx, memberIDs, start, end)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, slots)
	return slots, nil
}

// RecentMessageCount implements squad.Repository. since is truncated to
// MessageWindowGranularity before both the lookup and the inner query.
func (r *Repository) RecentMessageCount(ctx context.Context, squadID string, since time.Time) (int, error) {
	since = since.UTC().Truncate(MessageWindowGranularity)
	key := MessagesKey(squadID, since)
	var n int
	if r.get(ctx, key, &n) {
		return n, nil
	}
	n, err := r.inner.RecentMessageCount(ctx, squadID, since)
	if err != nil {
		return 0, err
	}
	r.set(ctx, key, n)
	return n, nil
}

// SessionsKey builds the cache key for a Sessions query.
func SessionsKey(squadID string, statuses []squad.Status, limit int) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return fmt.Sprintf("%s%s:%s:%d", KeySessions, squadID, strings.Join(parts, ","), limit)
}

// MessagesKey builds the cache key for a RecentMessageCount query.
func MessagesKey(squadID string, since time.Time) string {
	since = since.UTC().Truncate(MessageWindowGranularity)
	return KeyMessages + squadID + ":" + strconv.FormatInt(since.Unix(), 10)
}

// SlotsKey builds the cache key for an AvailabilitySlots query.
func SlotsKey(memberIDs []string, start, end time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", KeySlots,
		start.Format(squad.DateLayout), end.Format(squad.DateLayout), strings.Join(memberIDs, ","))
}

package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SubmissionGuard marks a session whose booking call is in flight. A marker
// expires on its own, so a replica that dies mid-call never blocks retries.
type SubmissionGuard interface {
	// Acquire returns ok=false when another flight holds the session.
	Acquire(ctx context.Context, sessionID string, ttl time.Duration) (token string, ok bool, err error)
	Held(ctx context.Context, sessionID string) (bool, error)
	// Release drops the marker only if token still owns it.
	Release(ctx context.Context, sessionID, token string) error
}

func submissionKey(id string) string {
	return sessionKeyPrefix + id + ":submitting"
}

// releaseScript deletes the marker only when the caller still owns it.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

type redisSubmissionGuard struct {
	client   redis.Cmdable
	newToken func() string
}

// NewRedisSubmissionGuard uses SET NX so replicas sharing one Redis agree on
// a single flight per session.
func NewRedisSubmissionGuard(client redis.Cmdable) SubmissionGuard {
	return newRedisSubmissionGuard(client, uuid.NewString)
}

func newRedisSubmissionGuard(client redis.Cmdable, newToken func() string) *redisSubmissionGuard {
	return &redisSubmissionGuard{client: client, newToken: newToken}
}

func (g *redisSubmissionGuard) Acquire(ctx context.Context, sessionID string, ttl time.Duration) (string, bool, error) {
	token := g.newToken()
	ok, err := g.client.SetNX(ctx, submissionKey(sessionID), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire submission guard: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (g *redisSubmissionGuard) Held(ctx context.Context, sessionID string) (bool, error) {
	n, err := g.client.Exists(ctx, submissionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check submission guard: %w", err)
	}
	return n > 0, nil
}

func (g *redisSubmissionGuard) Release(ctx context.Context, sessionID, token string) error {
	if err := g.client.Eval(ctx, releaseScript, []string{submissionKey(sessionID)}, token).Err(); err != nil {
		return fmt.Errorf("failed to release submission guard: %w", err)
	}
	return nil
}

type guardEntry struct {
	token     string
	expiresAt time.Time
}

type memorySubmissionGuard struct {
	mu      sync.Mutex
	entries map[string]guardEntry
	now     func() time.Time
}

func NewMemorySubmissionGuard() SubmissionGuard {
	return newMemorySubmissionGuard(time.Now)
}

func newMemorySubmissionGuard(now func() time.Time) *memorySubmissionGuard {
	return &memorySubmissionGuard{entries: map[string]guardEntry{}, now: now}
}

// live reports the entry for id, dropping it once expired. Callers hold mu.
func (g *memorySubmissionGuard) live(id string) (guardEntry, bool) {
	e, ok := g.entries[id]
	if ok && !e.expiresAt.IsZero() && !g.now().Before(e.expiresAt) {
		delete(g.entries, id)
		return guardEntry{}, false
	}
	return e, ok
}

func (g *memorySubmissionGuard) Acquire(_ context.Context, sessionID string, ttl time.Duration) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.live(sessionID); held {
		return "", false, nil
	}
	e := guardEntry{token: uuid.NewString()}
	if ttl > 0 {
		e.expiresAt = g.now().Add(ttl)
	}
	g.entries[sessionID] = e
	return e.token, true, nil
}

func (g *memorySubmissionGuard) Held(_ context.Context, sessionID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.live(sessionID)
	return held, nil
}

func (g *memorySubmissionGuard) Release(_ context.Context, sessionID, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, held := g.live(sessionID); held && e.token == token {
		delete(g.entries, sessionID)
	}
	return nil
}

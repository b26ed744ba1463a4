package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
)

// SessionStore persists booking states between commands. Get returns
// domain.ErrSessionNotFound for unknown or expired sessions.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*domain.BookingState, error)
	Save(ctx context.Context, st *domain.BookingState) error
	Delete(ctx context.Context, sessionID string) error
}

const sessionKeyPrefix = "booking:session:"

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

type redisSessionStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisSessionStore stores states as JSON. Every save refreshes the TTL.
func NewRedisSessionStore(client redis.Cmdable, ttl time.Duration) SessionStore {
	return &redisSessionStore{client: client, ttl: ttl}
}

func (s *redisSessionStore) Get(ctx context.Context, sessionID string) (*domain.BookingState, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var st domain.BookingState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &st, nil
}

func (s *redisSessionStore) Save(ctx context.Context, st *domain.BookingState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(st.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

type memorySessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySessionStore keeps sessions in process. States are copied through
// JSON so callers never share a pointer with the store.
func NewMemorySessionStore(ttl time.Duration) SessionStore {
	return newMemorySessionStore(ttl, time.Now)
}

func newMemorySessionStore(ttl time.Duration, now func() time.Time) *memorySessionStore {
	return &memorySessionStore{entries: map[string]memoryEntry{}, ttl: ttl, now: now}
}

func (s *memorySessionStore) Get(_ context.Context, sessionID string) (*domain.BookingState, error) {
	s.mu.Lock()
	e, ok := s.entries[sessionID]
	if ok && s.ttl > 0 && !s.now().Before(e.expiresAt) {
		delete(s.entries, sessionID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	var st domain.BookingState
	if err := json.Unmarshal(e.data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &st, nil
}

func (s *memorySessionStore) Save(_ context.Context, st *domain.BookingState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	s.mu.Lock()
	s.entries[st.SessionID] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *memorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
	return nil
}

package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-cms/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionTracker accumulates the files of a parallel upload session until the
// expected total has arrived.
type SessionTracker interface {
	Append(ctx context.Context, sessionID string, pair FilePair, total int) (Progress, error)
	Snapshot(ctx context.Context, sessionID string) ([]FilePair, error)
	Remove(ctx context.Context, sessionID string) error
}

// NewSessionTracker picks the implementation named by SESSION_STORE
func NewSessionTracker(cfg *config.Config, logger *zap.Logger) (SessionTracker, error) {
	switch cfg.SessionStore {
	case "", "memory":
		logger.Info("Using in-memory upload session tracker")
		return NewMemorySessionTracker(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("Using redis upload session tracker", zap.String("addr", cfg.RedisAddr))
		return NewRedisSessionTracker(client, cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

type uploadSession struct {
	mu        sync.Mutex
	names     map[string]int // original name -> index into pairs
	pairs     []FilePair
	completed bool
	updatedAt time.Time
}

// MemorySessionTracker keeps sessions in process memory. Each session has its
// own mutex so different sessions never contend.
type MemorySessionTracker struct {
	mu       sync.Mutex
	sessions map[string]*uploadSession
	now      func() time.Time
}

func NewMemorySessionTracker() *MemorySessionTracker {
	return &MemorySessionTracker{
		sessions: make(map[string]*uploadSession),
		now:      time.Now,
	}
}

func (t *MemorySessionTracker) session(sessionID string) *uploadSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[sessionID]
	if !ok {
		s = &uploadSession{names: make(map[string]int)}
		t.sessions[sessionID] = s
	}
	return s
}

func (t *MemorySessionTracker) Append(ctx context.Context, sessionID string, pair FilePair, total int) (Progress, error) {
	s := t.session(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return Progress{SessionID: sessionID, Received: len(s.pairs), Total: total, Closed: true}, nil
	}

	if idx, ok := s.names[pair.Original]; ok {
		// same original name again: last writer wins, count unchanged
		s.pairs[idx] = pair
	} else {
		s.names[pair.Original] = len(s.pairs)
		s.pairs = append(s.pairs, pair)
	}
	s.updatedAt = t.now()

	p := Progress{SessionID: sessionID, Received: len(s.pairs), Total: total}
	if !s.completed && total > 0 && len(s.pairs) >= total {
		s.completed = true
		p.Complete = true
	}
	return p, nil
}

// Snapshot returns the pairs in arrival order
func (t *MemorySessionTracker) Snapshot(ctx context.Context, sessionID string) ([]FilePair, error) {
	t.mu.Lock()
	s, ok := t.sessions[sessionID]
	t.mu.Unlock()
	if !ok {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FilePair, len(s.pairs))
	copy(out, s.pairs)
	return out, nil
}

func (t *MemorySessionTracker) Remove(ctx context.Context, sessionID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
	return nil
}

// Sweep drops sessions that have not received a file since olderThan ago and
// returns their ids.
func (t *MemorySessionTracker) Sweep(olderThan time.Duration) []string {
	cutoff := t.now().Add(-olderThan)

	t.mu.Lock()
	defer t.mu.Unlock()

	var removed []string
	for id, s := range t.sessions {
		s.mu.Lock()
		stale := s.updatedAt.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(t.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// Len reports the number of live sessions
func (t *MemorySessionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

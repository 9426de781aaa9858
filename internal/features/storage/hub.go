package storage

import (
	"sync"

	"go.uber.org/zap"
)

type ProgressPublisher interface {
	Publish(username string, ev ProgressEvent)
}

// ProgressHub fans upload progress out to the subscribers of each user.
// Slow subscribers lose events rather than block uploads.
type ProgressHub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan ProgressEvent]struct{}
	buffer int
	logger *zap.Logger
}

func NewProgressHub(logger *zap.Logger) *ProgressHub {
	return &ProgressHub{
		subs:   make(map[string]map[chan ProgressEvent]struct{}),
		buffer: 32,
		logger: logger,
	}
}

func (h *ProgressHub) Subscribe(username string) (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, h.buffer)

	h.mu.Lock()
	if h.subs[username] == nil {
		h.subs[username] = make(map[chan ProgressEvent]struct{})
	}
	h.subs[username][ch] = struct{}{}
	h.mu.Unlock()
	progressSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[username], ch)
			if len(h.subs[username]) == 0 {
				delete(h.subs, username)
			}
			h.mu.Unlock()
			close(ch)
			progressSubscribers.Dec()
		})
	}
	return ch, cancel
}

func (h *ProgressHub) Publish(username string, ev ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[username] {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("Dropping progress event for slow subscriber",
				zap.String("username", username), zap.String("sessionId", ev.SessionID))
		}
	}
}

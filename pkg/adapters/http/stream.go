package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/govform/internal/logging"
	"github.com/aretw0/govform/pkg/domain"
)

// SSE event names.
const (
	EventDiff         = "diff"
	EventNotification = "notification"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  string
}

// StreamManager handles active SSE connections.
// It doubles as a ports.Notifier so notifications reach subscribed clients.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager returns an empty manager. A nil logger discards.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Message]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for sessionID.
// The returned function unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 16)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- Message]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers counts the live subscriptions of a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast delivers msg to every subscriber of sessionID. Slow clients drop
// messages rather than block the sender.
func (sm *StreamManager) Broadcast(sessionID string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID, "event", msg.Event)
		}
	}
}

// BroadcastDiff publishes the change between two snapshots, if any.
func (sm *StreamManager) BroadcastDiff(before, after *domain.Snapshot) {
	diff := domain.Diff(before, after)
	if diff == nil {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("SSE: diff encode failed", "err", err)
		return
	}
	sm.Broadcast(diff.SessionID, Message{Event: EventDiff, Data: string(data)})
}

// Notify implements ports.Notifier.
func (sm *StreamManager) Notify(ctx context.Context, n domain.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		sm.logger.Error("SSE: notification encode failed", "err", err)
		return
	}
	sm.Broadcast(n.SessionID, Message{Event: EventNotification, Data: string(data)})
}

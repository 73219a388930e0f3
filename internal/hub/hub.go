// internal/hub/hub.go
//
// The hub fans draft events out to a lobby's websocket subscribers. Sends
// are non-blocking: a subscriber whose buffer is full misses the event and
// recovers from the next full-state snapshot, so one slow client can never
// stall the draft state machine.
package hub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/draftforge/herodraft/internal/draft"
)

const subscriberBuffer = 16

// Subscription is one client's event feed for one lobby.
type Subscription struct {
	UserID uuid.UUID
	ch     chan draft.Event
}

// Events returns the subscriber's receive channel. It is closed on
// Unsubscribe.
func (s *Subscription) Events() <-chan draft.Event {
	return s.ch
}

// JournalFn receives every published event after local fan-out, for
// archival. It runs on the publishing goroutine and must not block.
type JournalFn func(lobbyID uuid.UUID, ev draft.Event)

// Hub tracks subscribers per lobby. A user has at most one subscription
// per lobby; re-subscribing replaces the previous feed.
type Hub struct {
	log     *logrus.Logger
	journal JournalFn

	mu      sync.RWMutex
	lobbies map[uuid.UUID]map[uuid.UUID]*Subscription
}

type Option func(*Hub)

func WithJournal(fn JournalFn) Option {
	return func(h *Hub) { h.journal = fn }
}

func WithLogger(l *logrus.Logger) Option {
	return func(h *Hub) { h.log = l }
}

func New(opts ...Option) *Hub {
	h := &Hub{
		log:     logrus.StandardLogger(),
		lobbies: make(map[uuid.UUID]map[uuid.UUID]*Subscription),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers the user for a lobby's events, displacing any
// previous subscription for the same user.
func (h *Hub) Subscribe(lobbyID, userID uuid.UUID) *Subscription {
	sub := &Subscription{
		UserID: userID,
		ch:     make(chan draft.Event, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.lobbies[lobbyID]
	if !ok {
		subs = make(map[uuid.UUID]*Subscription)
		h.lobbies[lobbyID] = subs
	}
	if prev, ok := subs[userID]; ok {
		close(prev.ch)
	}
	subs[userID] = sub
	return sub
}

// Unsubscribe removes the subscription and closes its channel. Passing a
// subscription that was already displaced is a no-op.
func (h *Hub) Unsubscribe(lobbyID uuid.UUID, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.lobbies[lobbyID]
	if !ok {
		return
	}
	if current, ok := subs[sub.UserID]; !ok || current != sub {
		return
	}
	delete(subs, sub.UserID)
	close(sub.ch)
	if len(subs) == 0 {
		delete(h.lobbies, lobbyID)
	}
}

// SubscriberCount reports how many feeds a lobby currently has.
func (h *Hub) SubscriberCount(lobbyID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.lobbies[lobbyID])
}

// Publish fans the event out to every subscriber of the lobby, then hands
// it to the journal. Implements the coordinator's Publisher.
func (h *Hub) Publish(lobbyID uuid.UUID, ev draft.Event) {
	h.mu.RLock()
	for _, sub := range h.lobbies[lobbyID] {
		select {
		case sub.ch <- ev:
		default:
			h.log.Warnf("hub: dropping %s event for slow subscriber %s in lobby %s",
				ev.Type, sub.UserID, lobbyID)
		}
	}
	h.mu.RUnlock()

	if h.journal != nil {
		h.journal(lobbyID, ev)
	}
}

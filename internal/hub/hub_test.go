// internal/hub/hub_test.go
package hub

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/herodraft/internal/draft"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := New()
	lobbyID := uuid.New()

	a := h.Subscribe(lobbyID, uuid.New())
	b := h.Subscribe(lobbyID, uuid.New())
	require.Equal(t, 2, h.SubscriberCount(lobbyID))

	h.Publish(lobbyID, draft.Event{Type: draft.EventTurnChanged})

	assert.Equal(t, draft.EventTurnChanged, (<-a.Events()).Type)
	assert.Equal(t, draft.EventTurnChanged, (<-b.Events()).Type)
}

func TestPublishIsScopedToLobby(t *testing.T) {
	h := New()
	lobbyA, lobbyB := uuid.New(), uuid.New()

	subA := h.Subscribe(lobbyA, uuid.New())
	subB := h.Subscribe(lobbyB, uuid.New())

	h.Publish(lobbyA, draft.Event{Type: draft.EventDraftStarted})

	assert.Len(t, subA.Events(), 1)
	assert.Len(t, subB.Events(), 0)
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := New()
	lobbyID := uuid.New()
	sub := h.Subscribe(lobbyID, uuid.New())

	// Never drained: publishing past the buffer must drop, not block.
	for i := 0; i < subscriberBuffer*2; i++ {
		h.Publish(lobbyID, draft.Event{Type: draft.EventTurnChanged})
	}
	assert.Len(t, sub.Events(), subscriberBuffer)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := New()
	lobbyID := uuid.New()
	sub := h.Subscribe(lobbyID, uuid.New())

	h.Unsubscribe(lobbyID, sub)
	_, open := <-sub.Events()
	assert.False(t, open)
	assert.Equal(t, 0, h.SubscriberCount(lobbyID))

	// Double unsubscribe must not panic on a closed channel.
	h.Unsubscribe(lobbyID, sub)
}

func TestResubscribeDisplacesPreviousFeed(t *testing.T) {
	h := New()
	lobbyID := uuid.New()
	userID := uuid.New()

	old := h.Subscribe(lobbyID, userID)
	fresh := h.Subscribe(lobbyID, userID)
	require.Equal(t, 1, h.SubscriberCount(lobbyID))

	_, open := <-old.Events()
	assert.False(t, open, "displaced feed is closed")

	// Unsubscribing the stale handle must not tear down the fresh one.
	h.Unsubscribe(lobbyID, old)
	h.Publish(lobbyID, draft.Event{Type: draft.EventPickMade})
	assert.Len(t, fresh.Events(), 1)
}

func TestJournalReceivesEveryEvent(t *testing.T) {
	var mu sync.Mutex
	var got []draft.EventType

	h := New(WithJournal(func(_ uuid.UUID, ev draft.Event) {
		mu.Lock()
		got = append(got, ev.Type)
		mu.Unlock()
	}))
	lobbyID := uuid.New()

	// The journal sees events even with zero subscribers.
	h.Publish(lobbyID, draft.Event{Type: draft.EventDraftStarted})
	h.Publish(lobbyID, draft.Event{Type: draft.EventDraftCompleted})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []draft.EventType{draft.EventDraftStarted, draft.EventDraftCompleted}, got)
}

// internal/draft/events.go
package draft

import (
	"time"

	"github.com/draftforge/herodraft/internal/models"
)

// EventType labels the draft lifecycle events fanned out to subscribers.
// Timer auto-picks carry a distinct type so clients can render them
// differently from human picks.
type EventType string

const (
	// EventStateSync is sent once to each new subscriber so late joiners
	// and reconnecting clients converge without a REST round trip.
	EventStateSync EventType = "state_sync"

	EventDraftStarted   EventType = "draft_started"
	EventPickMade       EventType = "pick_made"
	EventTurnChanged    EventType = "turn_changed"
	EventAutoPick       EventType = "timeout_auto_pick"
	EventDraftCompleted EventType = "draft_completed"
	EventDraftCancelled EventType = "draft_cancelled"
	EventMatchReady     EventType = "match_ready"
	EventMatchFailed    EventType = "match_create_failed"
)

// Event is one state-change notification. Every state-changing event
// carries the full recomputed draft state so subscribers never need a
// follow-up fetch.
type Event struct {
	Type     EventType          `json:"type"`
	Reason   string             `json:"reason,omitempty"`
	Pick     *models.DraftPick  `json:"pick,omitempty"`
	JoinCode string             `json:"join_code,omitempty"`
	State    *StateSnapshot     `json:"state,omitempty"`
}

// StateSnapshot is the complete observable draft state of a lobby.
type StateSnapshot struct {
	LobbyStatus      models.LobbyStatus   `json:"lobby_status"`
	Session          *models.DraftSession `json:"session,omitempty"`
	Config           *models.DraftConfig  `json:"config"`
	Picks            []models.DraftPick   `json:"picks"`
	RemainingHeroes  []string             `json:"remaining_heroes"`
	SecondsRemaining int                  `json:"seconds_remaining"`
}

func (c *Coordinator) snapshot(st *lobbyState) *StateSnapshot {
	snap := &StateSnapshot{
		LobbyStatus:     st.lobby.Status,
		Config:          st.cfg,
		Picks:           append([]models.DraftPick(nil), st.picks...),
		RemainingHeroes: c.remainingHeroes(st.picks),
	}
	if st.session != nil {
		sess := *st.session
		snap.Session = &sess
		if sess.Status == models.SessionActive && st.cfg.TimerEnabled {
			left := st.cfg.TimePerTurnSec - int(time.Since(sess.TurnStartedAt).Seconds())
			if left < 0 {
				left = 0
			}
			snap.SecondsRemaining = left
		}
	}
	return snap
}

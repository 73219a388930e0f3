// internal/models/draft.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Team identifies one of the two drafting sides.
type Team string

const (
	TeamAmber    Team = "amber"
	TeamSapphire Team = "sapphire"
)

// DraftAction distinguishes pick rounds from ban rounds.
type DraftAction string

const (
	ActionPick DraftAction = "pick"
	ActionBan  DraftAction = "ban"
)

// SessionStatus is the lifecycle state of a DraftSession.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Phase is one round of the draft: a pick or ban action and the ordered
// sequence of teams that act within it. Phases are immutable once a
// session has snapshotted them.
type Phase struct {
	Action DraftAction `json:"action"`
	Order  []Team      `json:"order"`
}

// DraftConfig holds a lobby's draft settings. One row per lobby, created
// lazily with defaults on first access. Only the lobby host may edit it,
// and only while no draft is running.
type DraftConfig struct {
	LobbyID           uuid.UUID `json:"lobby_id"`
	SkipBans          bool      `json:"skip_bans"`
	Phases            []Phase   `json:"phases"`
	TimePerTurnSec    int       `json:"time_per_turn_sec"`
	AllowSinglePlayer bool      `json:"allow_single_player"`
	TimerEnabled      bool      `json:"timer_enabled"`
}

// DefaultDraftConfig returns the config a lobby gets before the host has
// touched anything: one ban round of two bans each, then a ten-pick round
// in snake order.
func DefaultDraftConfig(lobbyID uuid.UUID) *DraftConfig {
	return &DraftConfig{
		LobbyID:  lobbyID,
		SkipBans: false,
		Phases: []Phase{
			{Action: ActionBan, Order: []Team{
				TeamAmber, TeamSapphire, TeamAmber, TeamSapphire,
			}},
			{Action: ActionPick, Order: []Team{
				TeamAmber, TeamSapphire, TeamSapphire, TeamAmber, TeamAmber,
				TeamSapphire, TeamSapphire, TeamAmber, TeamAmber, TeamSapphire,
			}},
		},
		TimePerTurnSec:    30,
		AllowSinglePlayer: false,
		TimerEnabled:      true,
	}
}

// DraftSession tracks where a running draft currently is. At most one
// non-completed session exists per lobby. Schedule is the effective phase
// list snapshotted at start time; live config edits never reshape it.
type DraftSession struct {
	ID            uuid.UUID     `json:"id"`
	LobbyID       uuid.UUID     `json:"lobby_id"`
	Status        SessionStatus `json:"status"`
	Schedule      []Phase       `json:"schedule"`
	PhaseIndex    int           `json:"phase_index"`
	SlotIndex     int           `json:"slot_index"`
	CurrentTeam   Team          `json:"current_team"`
	StartedAt     time.Time     `json:"started_at"`
	TurnStartedAt time.Time     `json:"turn_started_at"`
	MatchJoinCode string        `json:"match_join_code,omitempty"`
}

// DraftPick is an immutable, append-only record of one resolved slot.
// Team is nil for bans. ActingUserID is nil when the slot was resolved
// automatically (timeout or empty-team substitution).
type DraftPick struct {
	ID           uuid.UUID   `json:"id"`
	SessionID    uuid.UUID   `json:"session_id"`
	HeroID       string      `json:"hero_id"`
	Team         *Team       `json:"team,omitempty"`
	Action       DraftAction `json:"action"`
	Order        int         `json:"order"`
	ActingUserID *uuid.UUID  `json:"acting_user_id,omitempty"`
	ResolvedAt   time.Time   `json:"resolved_at"`
}

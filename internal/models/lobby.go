// internal/models/lobby.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// LobbyStatus is the lifecycle state of a lobby with respect to drafting.
type LobbyStatus string

const (
	LobbyWaiting    LobbyStatus = "waiting"
	LobbyInProgress LobbyStatus = "in_progress"
	LobbyCompleted  LobbyStatus = "completed"
)

// Lobby represents a row in the lobbies table.
type Lobby struct {
	ID         uuid.UUID   `json:"id"`
	HostUserID uuid.UUID   `json:"host_user_id"`
	Name       string      `json:"name"`
	Status     LobbyStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Participant is a user's membership in a lobby. Team is nil for
// spectators and users who have not picked a side yet.
type Participant struct {
	UserID    uuid.UUID `json:"user_id"`
	LobbyID   uuid.UUID `json:"lobby_id"`
	Username  string    `json:"username"`
	Team      *Team     `json:"team,omitempty"`
	IsCaptain bool      `json:"is_captain"`
}

// OnTeam reports whether the participant is assigned to the given team.
func (p Participant) OnTeam(team Team) bool {
	return p.Team != nil && *p.Team == team
}

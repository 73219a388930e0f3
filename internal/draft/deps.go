// internal/draft/deps.go
package draft

import (
	"context"

	"github.com/google/uuid"

	"github.com/draftforge/herodraft/internal/models"
)

// Store is the durable persistence surface the coordinator writes through.
// Implementations must give read-your-writes consistency within a single
// process; lookups return ErrNotFound (possibly wrapped) when a row is
// absent.
type Store interface {
	GetLobby(ctx context.Context, lobbyID uuid.UUID) (*models.Lobby, error)
	SetLobbyStatus(ctx context.Context, lobbyID uuid.UUID, status models.LobbyStatus) error

	// EnsureConfig returns the lobby's draft config, inserting the default
	// one on first access.
	EnsureConfig(ctx context.Context, lobbyID uuid.UUID) (*models.DraftConfig, error)
	SaveConfig(ctx context.Context, cfg *models.DraftConfig) error

	CreateSession(ctx context.Context, sess *models.DraftSession) error
	// SessionByLobby returns the lobby's most recent session regardless of
	// status. At most one non-completed session exists per lobby.
	SessionByLobby(ctx context.Context, lobbyID uuid.UUID) (*models.DraftSession, error)
	UpdateSession(ctx context.Context, sess *models.DraftSession) error
	// DeleteSession removes the session and all of its picks.
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	SetMatchJoinCode(ctx context.Context, sessionID uuid.UUID, code string) error

	InsertPick(ctx context.Context, pick *models.DraftPick) error
	PicksBySession(ctx context.Context, sessionID uuid.UUID) ([]models.DraftPick, error)
}

// Roster exposes team membership and captaincy. The coordinator only ever
// reads roster data.
type Roster interface {
	ParticipantsOf(ctx context.Context, lobbyID uuid.UUID) ([]models.Participant, error)
	// ResolveIdentity returns nil (with no error) when the user is not a
	// participant of the lobby.
	ResolveIdentity(ctx context.Context, lobbyID, userID uuid.UUID) (*models.Participant, error)
}

// Publisher fans a state-change event out to a lobby's subscribers. It must
// never block and never fail the state transition that produced the event.
type Publisher interface {
	Publish(lobbyID uuid.UUID, ev Event)
}

// MatchCreator invokes the external match-creation API once a draft fully
// resolves, returning the match join code.
type MatchCreator interface {
	CreateMatch(ctx context.Context, cfg *models.DraftConfig) (string, error)
}

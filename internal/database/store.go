package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/draftforge/herodraft/internal/draft"
	"github.com/draftforge/herodraft/internal/models"
)

// PgStore adapts the package-level query functions to the coordinator's
// Store and Roster interfaces, translating pgx.ErrNoRows into the
// coordinator's not-found sentinel.
type PgStore struct{}

func NewPgStore() *PgStore { return &PgStore{} }

func notFound(err error, what string, id uuid.UUID) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", draft.ErrNotFound, what, id)
	}
	return err
}

func (s *PgStore) GetLobby(ctx context.Context, lobbyID uuid.UUID) (*models.Lobby, error) {
	l, err := GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, notFound(err, "lobby", lobbyID)
	}
	return l, nil
}

func (s *PgStore) SetLobbyStatus(ctx context.Context, lobbyID uuid.UUID, status models.LobbyStatus) error {
	return SetLobbyStatus(ctx, lobbyID, status)
}

func (s *PgStore) EnsureConfig(ctx context.Context, lobbyID uuid.UUID) (*models.DraftConfig, error) {
	cfg, err := GetDraftConfig(ctx, lobbyID)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	cfg = models.DefaultDraftConfig(lobbyID)
	if err := UpsertDraftConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *PgStore) SaveConfig(ctx context.Context, cfg *models.DraftConfig) error {
	return UpsertDraftConfig(ctx, cfg)
}

func (s *PgStore) CreateSession(ctx context.Context, sess *models.DraftSession) error {
	return InsertDraftSession(ctx, sess)
}

func (s *PgStore) SessionByLobby(ctx context.Context, lobbyID uuid.UUID) (*models.DraftSession, error) {
	sess, err := GetSessionByLobby(ctx, lobbyID)
	if err != nil {
		return nil, notFound(err, "session for lobby", lobbyID)
	}
	return sess, nil
}

func (s *PgStore) UpdateSession(ctx context.Context, sess *models.DraftSession) error {
	return UpdateDraftSession(ctx, sess)
}

func (s *PgStore) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	return DeleteDraftSession(ctx, sessionID)
}

func (s *PgStore) SetMatchJoinCode(ctx context.Context, sessionID uuid.UUID, code string) error {
	return SetMatchJoinCode(ctx, sessionID, code)
}

func (s *PgStore) InsertPick(ctx context.Context, pick *models.DraftPick) error {
	return InsertDraftPick(ctx, pick)
}

func (s *PgStore) PicksBySession(ctx context.Context, sessionID uuid.UUID) ([]models.DraftPick, error) {
	return GetPicksBySession(ctx, sessionID)
}

func (s *PgStore) ParticipantsOf(ctx context.Context, lobbyID uuid.UUID) ([]models.Participant, error) {
	return GetParticipants(ctx, lobbyID)
}

func (s *PgStore) ResolveIdentity(ctx context.Context, lobbyID, userID uuid.UUID) (*models.Participant, error) {
	p, err := GetParticipant(ctx, lobbyID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

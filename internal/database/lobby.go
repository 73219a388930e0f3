package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/draftforge/herodraft/internal/models"
)

// InsertLobby creates a new lobby row in the DB.
func InsertLobby(ctx context.Context, lobby *models.Lobby) error {
	q := `
	INSERT INTO lobbies (id, host_user_id, name, status, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			lobby.ID,
			lobby.HostUserID,
			lobby.Name,
			lobby.Status,
			lobby.CreatedAt,
		)
		return err
	})
}

// GetLobby fetches a lobby by ID.
func GetLobby(ctx context.Context, lobbyID uuid.UUID) (*models.Lobby, error) {
	var l models.Lobby
	q := `
	SELECT id, host_user_id, name, status, created_at
	FROM lobbies
	WHERE id = $1
	`
	err := DB.QueryRow(ctx, q, lobbyID).Scan(
		&l.ID,
		&l.HostUserID,
		&l.Name,
		&l.Status,
		&l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetAllLobbies returns a slice of all lobbies in the DB.
func GetAllLobbies(ctx context.Context) ([]models.Lobby, error) {
	q := `
	SELECT id, host_user_id, name, status, created_at
	FROM lobbies
	ORDER BY created_at DESC
	`
	rows, err := DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lobbies []models.Lobby
	for rows.Next() {
		var l models.Lobby
		if err := rows.Scan(&l.ID, &l.HostUserID, &l.Name, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		lobbies = append(lobbies, l)
	}
	return lobbies, rows.Err()
}

// SetLobbyStatus updates a lobby's lifecycle status.
func SetLobbyStatus(ctx context.Context, lobbyID uuid.UUID, status models.LobbyStatus) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `UPDATE lobbies SET status=$2 WHERE id=$1`, lobbyID, status)
		return err
	})
}

// InsertParticipant inserts a user into lobby_participants. New joiners
// arrive unassigned (no team, not captain).
func InsertParticipant(ctx context.Context, lobbyID, userID uuid.UUID) error {
	q := `
	INSERT INTO lobby_participants (lobby_id, user_id, team, is_captain)
	VALUES ($1, $2, NULL, false)
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, lobbyID, userID)
		return err
	})
}

// IsUserInLobby checks if the user is already in the lobby.
func IsUserInLobby(ctx context.Context, lobbyID, userID uuid.UUID) (bool, error) {
	q := `
	SELECT 1
	  FROM lobby_participants
	  WHERE lobby_id = $1 AND user_id = $2
	  LIMIT 1
	`
	var tmp int
	err := DB.QueryRow(ctx, q, lobbyID, userID).Scan(&tmp)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetParticipantTeam moves a participant to a team, or clears the
// assignment when team is nil. Changing teams always clears captaincy.
func SetParticipantTeam(ctx context.Context, lobbyID, userID uuid.UUID, team *models.Team) error {
	q := `
	UPDATE lobby_participants
	SET team=$3, is_captain=false
	WHERE lobby_id=$1 AND user_id=$2
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, lobbyID, userID, team)
		return err
	})
}

// SetParticipantCaptain promotes a participant to captain of their team,
// demoting any previous captain of that team in the same transaction.
func SetParticipantCaptain(ctx context.Context, lobbyID, userID uuid.UUID, team models.Team) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE lobby_participants SET is_captain=false WHERE lobby_id=$1 AND team=$2`,
			lobbyID, team)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE lobby_participants SET is_captain=true WHERE lobby_id=$1 AND user_id=$2 AND team=$3`,
			lobbyID, userID, team)
		return err
	})
}

// RemoveUserFromLobby removes a user from the lobby_participants table.
func RemoveUserFromLobby(ctx context.Context, userID uuid.UUID, lobbyID uuid.UUID) error {
	q := `DELETE FROM lobby_participants WHERE lobby_id=$1 AND user_id=$2`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, lobbyID, userID)
		return err
	})
}

// DeleteLobby removes a lobby row from the DB by ID. We also remove participants.
func DeleteLobby(ctx context.Context, lobbyID uuid.UUID) error {
	q := `DELETE FROM lobbies WHERE id=$1`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM lobby_participants WHERE lobby_id=$1`, lobbyID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, q, lobbyID)
		return err
	})
}

// GetParticipants returns a lobby's roster with usernames joined in.
func GetParticipants(ctx context.Context, lobbyID uuid.UUID) ([]models.Participant, error) {
	q := `
	SELECT p.user_id, p.lobby_id, u.username, p.team, p.is_captain
	FROM lobby_participants p
	JOIN users u ON u.id = p.user_id
	WHERE p.lobby_id = $1
	ORDER BY u.username
	`
	rows, err := DB.Query(ctx, q, lobbyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.LobbyID, &p.Username, &p.Team, &p.IsCaptain); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// GetParticipant fetches one participant row, or pgx.ErrNoRows.
func GetParticipant(ctx context.Context, lobbyID, userID uuid.UUID) (*models.Participant, error) {
	var p models.Participant
	q := `
	SELECT p.user_id, p.lobby_id, u.username, p.team, p.is_captain
	FROM lobby_participants p
	JOIN users u ON u.id = p.user_id
	WHERE p.lobby_id = $1 AND p.user_id = $2
	`
	err := DB.QueryRow(ctx, q, lobbyID, userID).Scan(&p.UserID, &p.LobbyID, &p.Username, &p.Team, &p.IsCaptain)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

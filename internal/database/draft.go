package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/draftforge/herodraft/internal/models"
)

// Phase schedules are stored as JSONB: the structure is read and written
// whole, never queried into, and a session's snapshot must round-trip
// exactly as the coordinator froze it.

// GetDraftConfig fetches a lobby's draft config, or pgx.ErrNoRows.
func GetDraftConfig(ctx context.Context, lobbyID uuid.UUID) (*models.DraftConfig, error) {
	var cfg models.DraftConfig
	var phasesJSON []byte
	q := `
	SELECT lobby_id, skip_bans, phases, time_per_turn_sec, timer_enabled, allow_single_player
	FROM draft_configs
	WHERE lobby_id = $1
	`
	err := DB.QueryRow(ctx, q, lobbyID).Scan(
		&cfg.LobbyID,
		&cfg.SkipBans,
		&phasesJSON,
		&cfg.TimePerTurnSec,
		&cfg.TimerEnabled,
		&cfg.AllowSinglePlayer,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(phasesJSON, &cfg.Phases); err != nil {
		return nil, fmt.Errorf("failed to decode phases for lobby %s: %w", lobbyID, err)
	}
	return &cfg, nil
}

// UpsertDraftConfig writes the full config row, inserting or replacing.
func UpsertDraftConfig(ctx context.Context, cfg *models.DraftConfig) error {
	phasesJSON, err := json.Marshal(cfg.Phases)
	if err != nil {
		return fmt.Errorf("failed to encode phases: %w", err)
	}
	q := `
	INSERT INTO draft_configs (lobby_id, skip_bans, phases, time_per_turn_sec, timer_enabled, allow_single_player)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (lobby_id) DO UPDATE SET
		skip_bans = EXCLUDED.skip_bans,
		phases = EXCLUDED.phases,
		time_per_turn_sec = EXCLUDED.time_per_turn_sec,
		timer_enabled = EXCLUDED.timer_enabled,
		allow_single_player = EXCLUDED.allow_single_player
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			cfg.LobbyID, cfg.SkipBans, phasesJSON,
			cfg.TimePerTurnSec, cfg.TimerEnabled, cfg.AllowSinglePlayer,
		)
		return err
	})
}

// InsertDraftSession creates a session row with its frozen schedule.
func InsertDraftSession(ctx context.Context, sess *models.DraftSession) error {
	scheduleJSON, err := json.Marshal(sess.Schedule)
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}
	q := `
	INSERT INTO draft_sessions (
		id, lobby_id, status, schedule,
		phase_index, slot_index, current_team,
		started_at, turn_started_at, match_join_code
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			sess.ID, sess.LobbyID, sess.Status, scheduleJSON,
			sess.PhaseIndex, sess.SlotIndex, sess.CurrentTeam,
			sess.StartedAt, sess.TurnStartedAt, sess.MatchJoinCode,
		)
		return err
	})
}

// GetSessionByLobby fetches the lobby's most recent session regardless of
// status, or pgx.ErrNoRows.
func GetSessionByLobby(ctx context.Context, lobbyID uuid.UUID) (*models.DraftSession, error) {
	var sess models.DraftSession
	var scheduleJSON []byte
	q := `
	SELECT id, lobby_id, status, schedule,
	       phase_index, slot_index, current_team,
	       started_at, turn_started_at, match_join_code
	FROM draft_sessions
	WHERE lobby_id = $1
	ORDER BY started_at DESC
	LIMIT 1
	`
	err := DB.QueryRow(ctx, q, lobbyID).Scan(
		&sess.ID, &sess.LobbyID, &sess.Status, &scheduleJSON,
		&sess.PhaseIndex, &sess.SlotIndex, &sess.CurrentTeam,
		&sess.StartedAt, &sess.TurnStartedAt, &sess.MatchJoinCode,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scheduleJSON, &sess.Schedule); err != nil {
		return nil, fmt.Errorf("failed to decode schedule for session %s: %w", sess.ID, err)
	}
	return &sess, nil
}

// UpdateDraftSession writes the session's cursor and status. The schedule
// is immutable after insert and is deliberately not updated here.
func UpdateDraftSession(ctx context.Context, sess *models.DraftSession) error {
	q := `
	UPDATE draft_sessions
	SET status=$2, phase_index=$3, slot_index=$4, current_team=$5, turn_started_at=$6
	WHERE id=$1
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			sess.ID, sess.Status, sess.PhaseIndex, sess.SlotIndex,
			sess.CurrentTeam, sess.TurnStartedAt,
		)
		return err
	})
}

// DeleteDraftSession removes a session and its picks in one transaction.
func DeleteDraftSession(ctx context.Context, sessionID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM draft_picks WHERE session_id=$1`, sessionID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM draft_sessions WHERE id=$1`, sessionID)
		return err
	})
}

// SetMatchJoinCode stores the join code returned by the match service.
func SetMatchJoinCode(ctx context.Context, sessionID uuid.UUID, code string) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE draft_sessions SET match_join_code=$2 WHERE id=$1`,
			sessionID, code)
		return err
	})
}

// InsertDraftPick appends one resolved slot.
func InsertDraftPick(ctx context.Context, pick *models.DraftPick) error {
	q := `
	INSERT INTO draft_picks (
		id, session_id, hero_id, team, action, ord, acting_user_id, resolved_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			pick.ID, pick.SessionID, pick.HeroID, pick.Team,
			pick.Action, pick.Order, pick.ActingUserID, pick.ResolvedAt,
		)
		return err
	})
}

// GetPicksBySession returns a session's picks in resolution order.
func GetPicksBySession(ctx context.Context, sessionID uuid.UUID) ([]models.DraftPick, error) {
	q := `
	SELECT id, session_id, hero_id, team, action, ord, acting_user_id, resolved_at
	FROM draft_picks
	WHERE session_id = $1
	ORDER BY ord ASC
	`
	rows, err := DB.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var picks []models.DraftPick
	for rows.Next() {
		var p models.DraftPick
		err := rows.Scan(
			&p.ID, &p.SessionID, &p.HeroID, &p.Team,
			&p.Action, &p.Order, &p.ActingUserID, &p.ResolvedAt,
		)
		if err != nil {
			return nil, err
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

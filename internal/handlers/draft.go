// internal/handlers/draft.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/draftforge/herodraft/internal/database"
	"github.com/draftforge/herodraft/internal/draft"
	"github.com/draftforge/herodraft/internal/models"
)

// DraftStateHandler returns the lobby's full observable draft state.
func (s *Server) DraftStateHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := authenticateRequest(r); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	lobbyID, err := pathUUID(r, "lobby_id")
	if err != nil {
		http.Error(w, "invalid lobby_id", http.StatusBadRequest)
		return
	}

	snap, err := s.Coordinator.Snapshot(r.Context(), lobbyID)
	if err != nil {
		writeDraftError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetDraftConfigHandler returns the lobby's draft config, materializing
// the default on first read.
func (s *Server) GetDraftConfigHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := authenticateRequest(r); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	lobbyID, err := pathUUID(r, "lobby_id")
	if err != nil {
		http.Error(w, "invalid lobby_id", http.StatusBadRequest)
		return
	}

	store := database.NewPgStore()
	cfg, err := store.EnsureConfig(r.Context(), lobbyID)
	if err != nil {
		writeDraftError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type updateConfigRequest struct {
	SkipBans          *bool           `json:"skip_bans,omitempty"`
	Phases            *[]models.Phase `json:"phases,omitempty"`
	TimePerTurnSec    *int            `json:"time_per_turn_sec,omitempty"`
	TimerEnabled      *bool           `json:"timer_enabled,omitempty"`
	AllowSinglePlayer *bool           `json:"allow_single_player,omitempty"`
}

// UpdateDraftConfigHandler applies a partial config update. Host only.
// Edits during an active draft never reshape the frozen schedule, but
// timer settings take effect on the next timer check.
func (s *Server) UpdateDraftConfigHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	lobbyID, err := pathUUID(r, "lobby_id")
	if err != nil {
		http.Error(w, "invalid lobby_id", http.StatusBadRequest)
		return
	}

	lobby, err := database.GetLobby(r.Context(), lobbyID)
	if err != nil {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}
	if callerID != lobby.HostUserID {
		http.Error(w, "only the host may edit the draft config", http.StatusForbidden)
		return
	}

	var req updateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	// A running draft's schedule is frozen: only the timer fields may
	// change mid-draft, and they are picked up on the next timer check.
	if lobby.Status == models.LobbyInProgress &&
		(req.Phases != nil || req.SkipBans != nil || req.AllowSinglePlayer != nil) {
		http.Error(w, "schedule settings are locked during an active draft", http.StatusConflict)
		return
	}

	store := database.NewPgStore()
	cfg, err := store.EnsureConfig(r.Context(), lobbyID)
	if err != nil {
		writeDraftError(w, s.Log, err)
		return
	}

	if req.SkipBans != nil {
		cfg.SkipBans = *req.SkipBans
	}
	if req.Phases != nil {
		cfg.Phases = *req.Phases
	}
	if req.TimePerTurnSec != nil {
		cfg.TimePerTurnSec = *req.TimePerTurnSec
	}
	if req.TimerEnabled != nil {
		cfg.TimerEnabled = *req.TimerEnabled
	}
	if req.AllowSinglePlayer != nil {
		cfg.AllowSinglePlayer = *req.AllowSinglePlayer
	}

	if err := validateConfig(cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := store.SaveConfig(r.Context(), cfg); err != nil {
		s.Log.Errorf("failed to save config for lobby %s: %v", lobbyID, err)
		http.Error(w, "error saving config", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func validateConfig(cfg *models.DraftConfig) error {
	if cfg.TimePerTurnSec < 1 || cfg.TimePerTurnSec > 600 {
		return fmt.Errorf("time_per_turn_sec must be between 1 and 600")
	}
	if len(cfg.Phases) == 0 {
		return fmt.Errorf("at least one phase is required")
	}
	for i, phase := range cfg.Phases {
		if phase.Action != models.ActionPick && phase.Action != models.ActionBan {
			return fmt.Errorf("phase %d: unknown action %q", i, phase.Action)
		}
		if len(phase.Order) == 0 {
			return fmt.Errorf("phase %d: turn order is empty", i)
		}
		for _, team := range phase.Order {
			if team != models.TeamAmber && team != models.TeamSapphire {
				return fmt.Errorf("phase %d: unknown team %q", i, team)
			}
		}
	}
	return nil
}

// StartDraftHandler starts the lobby's draft.
func (s *Server) StartDraftHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	lobbyID, err := pathUUID(r, "lobby_id")
	if err != nil {
		http.Error(w, "invalid lobby_id", http.StatusBadRequest)
		return
	}

	snap, err := s.Coordinator.StartDraft(r.Context(), lobbyID, callerID)
	if err != nil {
		writeDraftError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

type submitPickRequest struct {
	HeroID string `json:"hero_id"`
}

type submitPickResponse struct {
	Pick  *models.DraftPick    `json:"pick"`
	State *draft.StateSnapshot `json:"state"`
}

// SubmitPickHandler records a pick or ban for the acting team.
func (s *Server) SubmitPickHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	lobbyID, err := pathUUID(r, "lobby_id")
	if err != nil {
		http.Error(w, "invalid lobby_id", http.StatusBadRequest)
		return
	}

	var req submitPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HeroID == "" {
		http.Error(w, "hero_id is required", http.StatusBadRequest)
		return
	}

	pick, snap, err := s.Coordinator.SubmitPick(r.Context(), lobbyID, req.HeroID, callerID)
	if err != nil {
		writeDraftError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, submitPickResponse{Pick: pick, State: snap})
}

// CancelDraftHandler cancels the lobby's draft. Host only.
func (s *Server) CancelDraftHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	lobbyID, err := pathUUID(r, "lobby_id")
	if err != nil {
		http.Error(w, "invalid lobby_id", http.StatusBadRequest)
		return
	}

	if err := s.Coordinator.CancelDraft(r.Context(), lobbyID, callerID); err != nil {
		writeDraftError(w, s.Log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HeroesHandler lists the draftable hero universe.
func HeroesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"heroes": models.HeroIDs})
}

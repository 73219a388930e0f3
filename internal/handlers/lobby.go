// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/draftforge/herodraft/internal/database"
	"github.com/draftforge/herodraft/internal/models"
)

type lobbyView struct {
	models.Lobby
	Participants []models.Participant `json:"participants"`
}

// CreateLobbyHandler creates a lobby with the caller as host. The host is
// seated on the amber team as its captain so a two-person lobby is
// draftable without extra clicks.
func (s *Server) CreateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
		http.Error(w, "bad lobby request payload", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		req.Name = "Hero Draft"
	}

	lobby := &models.Lobby{
		ID:         uuid.New(),
		HostUserID: userID,
		Name:       req.Name,
		Status:     models.LobbyWaiting,
		CreatedAt:  time.Now(),
	}
	if err := database.InsertLobby(r.Context(), lobby); err != nil {
		s.Log.Errorf("failed to create lobby: %v", err)
		http.Error(w, "error creating lobby", http.StatusInternalServerError)
		return
	}
	if err := database.InsertParticipant(r.Context(), lobby.ID, userID); err != nil {
		s.Log.Errorf("failed to seat host in lobby %s: %v", lobby.ID, err)
		http.Error(w, "error creating lobby", http.StatusInternalServerError)
		return
	}
	amber := models.TeamAmber
	if err := database.SetParticipantTeam(r.Context(), lobby.ID, userID, &amber); err == nil {
		_ = database.SetParticipantCaptain(r.Context(), lobby.ID, userID, amber)
	}

	writeJSON(w, http.StatusCreated, lobby)
}

// ListLobbiesHandler returns all lobbies.
func (s *Server) ListLobbiesHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := authenticateRequest(r); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	lobbies, err := database.GetAllLobbies(r.Context())
	if err != nil {
		s.Log.Errorf("failed to list lobbies: %v", err)
		http.Error(w, "error listing lobbies", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lobbies)
}

// GetLobbyHandler returns one lobby with its roster.
func (s *Server) GetLobbyHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := authenticateRequest(r); err != nil {
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
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		s.Log.Errorf("failed to fetch lobby %s: %v", lobbyID, err)
		http.Error(w, "error fetching lobby", http.StatusInternalServerError)
		return
	}
	participants, err := database.GetParticipants(r.Context(), lobbyID)
	if err != nil {
		s.Log.Errorf("failed to fetch roster for lobby %s: %v", lobbyID, err)
		http.Error(w, "error fetching lobby", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, lobbyView{Lobby: *lobby, Participants: participants})
}

// JoinLobbyHandler seats the caller in the lobby, unassigned.
func (s *Server) JoinLobbyHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := authenticateRequest(r)
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
	if lobby.Status != models.LobbyWaiting {
		http.Error(w, "lobby is not accepting joins", http.StatusConflict)
		return
	}

	already, err := database.IsUserInLobby(r.Context(), lobbyID, userID)
	if err != nil {
		s.Log.Errorf("failed join check for lobby %s: %v", lobbyID, err)
		http.Error(w, "error joining lobby", http.StatusInternalServerError)
		return
	}
	if already {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := database.InsertParticipant(r.Context(), lobbyID, userID); err != nil {
		s.Log.Errorf("failed to join lobby %s: %v", lobbyID, err)
		http.Error(w, "error joining lobby", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// LeaveLobbyHandler removes the caller from the roster. Leaving during an
// active draft is refused; disconnect handling covers that path.
func (s *Server) LeaveLobbyHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := authenticateRequest(r)
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
	if lobby.Status == models.LobbyInProgress {
		http.Error(w, "cannot leave during an active draft", http.StatusConflict)
		return
	}

	if err := database.RemoveUserFromLobby(r.Context(), userID, lobbyID); err != nil {
		s.Log.Errorf("failed to leave lobby %s: %v", lobbyID, err)
		http.Error(w, "error leaving lobby", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type setTeamRequest struct {
	UserID *uuid.UUID   `json:"user_id,omitempty"`
	Team   *models.Team `json:"team"` // null clears the assignment
}

// SetTeamHandler assigns a participant to a team. Participants move
// themselves; the host may move anyone. Assignments are frozen while a
// draft is running.
func (s *Server) SetTeamHandler(w http.ResponseWriter, r *http.Request) {
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

	var req setTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Team != nil && *req.Team != models.TeamAmber && *req.Team != models.TeamSapphire {
		http.Error(w, "unknown team", http.StatusBadRequest)
		return
	}
	target := callerID
	if req.UserID != nil {
		target = *req.UserID
	}

	lobby, err := database.GetLobby(r.Context(), lobbyID)
	if err != nil {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}
	if lobby.Status == models.LobbyInProgress {
		http.Error(w, "teams are locked during an active draft", http.StatusConflict)
		return
	}
	if target != callerID && callerID != lobby.HostUserID {
		http.Error(w, "only the host may move other participants", http.StatusForbidden)
		return
	}

	inLobby, err := database.IsUserInLobby(r.Context(), lobbyID, target)
	if err != nil || !inLobby {
		http.Error(w, "participant not found", http.StatusNotFound)
		return
	}
	if err := database.SetParticipantTeam(r.Context(), lobbyID, target, req.Team); err != nil {
		s.Log.Errorf("failed to set team in lobby %s: %v", lobbyID, err)
		http.Error(w, "error updating team", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type setCaptainRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// SetCaptainHandler promotes a teamed participant to captain. Host only;
// the previous captain of that team is demoted atomically.
func (s *Server) SetCaptainHandler(w http.ResponseWriter, r *http.Request) {
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

	var req setCaptainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	lobby, err := database.GetLobby(r.Context(), lobbyID)
	if err != nil {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}
	if callerID != lobby.HostUserID {
		http.Error(w, "only the host may assign captains", http.StatusForbidden)
		return
	}
	if lobby.Status == models.LobbyInProgress {
		http.Error(w, "captains are locked during an active draft", http.StatusConflict)
		return
	}

	p, err := database.GetParticipant(r.Context(), lobbyID, req.UserID)
	if err != nil {
		http.Error(w, "participant not found", http.StatusNotFound)
		return
	}
	if p.Team == nil {
		http.Error(w, "participant must be on a team to be captain", http.StatusUnprocessableEntity)
		return
	}
	if err := database.SetParticipantCaptain(r.Context(), lobbyID, req.UserID, *p.Team); err != nil {
		s.Log.Errorf("failed to set captain in lobby %s: %v", lobbyID, err)
		http.Error(w, "error updating captain", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/draftforge/herodraft/internal/draft"
	"github.com/draftforge/herodraft/internal/hub"
)

// Server bundles the HTTP surface's dependencies: the draft coordinator
// for state transitions and the hub for realtime fan-out.
type Server struct {
	Coordinator *draft.Coordinator
	Hub         *hub.Hub
	Log         *logrus.Logger
}

func NewServer(coord *draft.Coordinator, h *hub.Hub, logger *logrus.Logger) *Server {
	return &Server{
		Coordinator: coord,
		Hub:         h,
		Log:         logger,
	}
}

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("POST /user/create", CreateUserHandler)
	mux.HandleFunc("POST /user/login", LoginHandler)

	// lobby endpoints
	mux.HandleFunc("POST /lobby/create", s.CreateLobbyHandler)
	mux.HandleFunc("GET /lobby/list", s.ListLobbiesHandler)
	mux.HandleFunc("GET /lobby/{lobby_id}", s.GetLobbyHandler)
	mux.HandleFunc("POST /lobby/{lobby_id}/join", s.JoinLobbyHandler)
	mux.HandleFunc("POST /lobby/{lobby_id}/leave", s.LeaveLobbyHandler)
	mux.HandleFunc("POST /lobby/{lobby_id}/team", s.SetTeamHandler)
	mux.HandleFunc("POST /lobby/{lobby_id}/captain", s.SetCaptainHandler)

	// draft endpoints
	mux.HandleFunc("GET /lobby/{lobby_id}/draft", s.DraftStateHandler)
	mux.HandleFunc("GET /lobby/{lobby_id}/draft/config", s.GetDraftConfigHandler)
	mux.HandleFunc("PUT /lobby/{lobby_id}/draft/config", s.UpdateDraftConfigHandler)
	mux.HandleFunc("POST /lobby/{lobby_id}/draft/start", s.StartDraftHandler)
	mux.HandleFunc("POST /lobby/{lobby_id}/draft/pick", s.SubmitPickHandler)
	mux.HandleFunc("POST /lobby/{lobby_id}/draft/cancel", s.CancelDraftHandler)

	// hero catalog
	mux.HandleFunc("GET /heroes", HeroesHandler)

	// draft websocket
	mux.HandleFunc("GET /lobby/ws/{lobby_id}", s.DraftWSHandler)

	return mux
}

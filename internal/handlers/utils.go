package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/draftforge/herodraft/internal/auth"
	"github.com/draftforge/herodraft/internal/draft"
)

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// authenticateRequest resolves the calling user from the auth_token cookie
// or an Authorization bearer header.
func authenticateRequest(r *http.Request) (uuid.UUID, error) {
	token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
	if token == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if token == "" {
		return uuid.Nil, errors.New("missing auth token")
	}

	userIDStr, err := auth.AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in token: %w", err)
	}
	return userID, nil
}

// pathUUID parses a UUID path segment registered as a mux wildcard.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue(name))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("failed to write response: %v", err)
	}
}

// writeDraftError translates the coordinator's sentinel errors into HTTP
// statuses. Anything unrecognized is a 500 with a generic body.
func writeDraftError(w http.ResponseWriter, log *logrus.Logger, err error) {
	switch {
	case errors.Is(err, draft.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, draft.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, draft.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, draft.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, draft.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("internal error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

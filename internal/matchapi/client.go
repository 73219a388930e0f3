// internal/matchapi/client.go
//
// Client for the external match-creation service. When MATCH_API_URL is
// unset the client runs in local mode and mints join codes itself, which
// keeps single-host deployments and development working without the
// upstream service.
package matchapi

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/draftforge/herodraft/internal/models"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Logger
}

// NewFromEnv builds a client from MATCH_API_URL.
func NewFromEnv() *Client {
	return &Client{
		baseURL: os.Getenv("MATCH_API_URL"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     logrus.StandardLogger(),
	}
}

type createMatchRequest struct {
	LobbyID        string `json:"lobby_id"`
	TimePerTurnSec int    `json:"time_per_turn_sec"`
}

type createMatchResponse struct {
	JoinCode string `json:"join_code"`
}

// CreateMatch asks the match service for a new match and returns its join
// code. Implements the coordinator's MatchCreator.
func (c *Client) CreateMatch(ctx context.Context, cfg *models.DraftConfig) (string, error) {
	if c.baseURL == "" {
		code, err := localJoinCode()
		if err != nil {
			return "", err
		}
		c.log.Infof("matchapi: no MATCH_API_URL, issued local join code for lobby %s", cfg.LobbyID)
		return code, nil
	}

	body, err := json.Marshal(createMatchRequest{
		LobbyID:        cfg.LobbyID.String(),
		TimePerTurnSec: cfg.TimePerTurnSec,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode match request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/matches", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("match service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("match service returned %d", resp.StatusCode)
	}

	var out createMatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode match response: %w", err)
	}
	if out.JoinCode == "" {
		return "", fmt.Errorf("match service returned an empty join code")
	}
	return out.JoinCode, nil
}

// localJoinCode mints an 8-character code from the crockford-ish alphabet
// used by the match service (no 0/O or 1/I).
func localJoinCode() (string, error) {
	const alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}

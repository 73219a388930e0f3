// internal/handlers/draft_test.go
package handlers

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/draftforge/herodraft/internal/draft"
	"github.com/draftforge/herodraft/internal/models"
)

func validTestConfig() *models.DraftConfig {
	return &models.DraftConfig{
		TimePerTurnSec: 30,
		Phases: []models.Phase{
			{Action: models.ActionBan, Order: []models.Team{models.TeamAmber, models.TeamSapphire}},
			{Action: models.ActionPick, Order: []models.Team{models.TeamSapphire, models.TeamAmber}},
		},
	}
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, validateConfig(validTestConfig()))

	cfg := validTestConfig()
	cfg.TimePerTurnSec = 0
	assert.Error(t, validateConfig(cfg), "zero turn budget")

	cfg = validTestConfig()
	cfg.TimePerTurnSec = 601
	assert.Error(t, validateConfig(cfg), "turn budget over cap")

	cfg = validTestConfig()
	cfg.Phases = nil
	assert.Error(t, validateConfig(cfg), "no phases")

	cfg = validTestConfig()
	cfg.Phases[0].Action = "discard"
	assert.Error(t, validateConfig(cfg), "unknown action")

	cfg = validTestConfig()
	cfg.Phases[1].Order = nil
	assert.Error(t, validateConfig(cfg), "empty turn order")

	cfg = validTestConfig()
	cfg.Phases[0].Order = []models.Team{"crimson"}
	assert.Error(t, validateConfig(cfg), "unknown team")
}

func TestWriteDraftErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: lobby gone", draft.ErrNotFound), 404},
		{fmt.Errorf("%w: not your turn", draft.ErrForbidden), 403},
		{fmt.Errorf("%w: hero taken", draft.ErrConflict), 409},
		{fmt.Errorf("%w: draft exhausted", draft.ErrInvalidState), 422},
		{fmt.Errorf("%w: unknown hero", draft.ErrInvalidArgument), 400},
		{fmt.Errorf("pool timeout"), 500},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeDraftError(rec, logrus.New(), tc.err)
		assert.Equal(t, tc.status, rec.Code, "error: %v", tc.err)
	}
}

func TestExtractCookieToken(t *testing.T) {
	assert.Equal(t, "abc123", extractCookieToken("auth_token=abc123", "auth_token"))
	assert.Equal(t, "abc123", extractCookieToken("other=x; auth_token=abc123; another=y", "auth_token"))
	assert.Equal(t, "", extractCookieToken("other=x", "auth_token"))
	assert.Equal(t, "", extractCookieToken("", "auth_token"))
}

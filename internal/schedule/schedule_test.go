package schedule

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/herodraft/internal/models"
)

func testConfig() *models.DraftConfig {
	return &models.DraftConfig{
		LobbyID: uuid.New(),
		Phases: []models.Phase{
			{Action: models.ActionBan, Order: []models.Team{models.TeamAmber, models.TeamSapphire}},
			{Action: models.ActionPick, Order: []models.Team{
				models.TeamAmber, models.TeamSapphire, models.TeamSapphire, models.TeamAmber,
			}},
		},
	}
}

func TestEffectiveKeepsBansByDefault(t *testing.T) {
	cfg := testConfig()
	sched := Effective(cfg)
	require.Len(t, sched, 2)
	assert.Equal(t, models.ActionBan, sched[0].Action)
	assert.Equal(t, 6, TotalSlots(sched))
}

func TestEffectiveFiltersBans(t *testing.T) {
	cfg := testConfig()
	cfg.SkipBans = true
	sched := Effective(cfg)
	require.Len(t, sched, 1)
	assert.Equal(t, models.ActionPick, sched[0].Action)
	assert.Equal(t, 4, TotalSlots(sched))
}

func TestEffectiveIsASnapshot(t *testing.T) {
	cfg := testConfig()
	sched := Effective(cfg)

	// Mutating the config after the snapshot must not reshape the schedule.
	cfg.Phases[0].Order[0] = models.TeamSapphire
	cfg.Phases = cfg.Phases[:1]

	require.Len(t, sched, 2)
	assert.Equal(t, models.TeamAmber, sched[0].Order[0])
}

func TestActingTeam(t *testing.T) {
	sched := Effective(testConfig())

	team, ok := ActingTeam(sched, 0, 0)
	require.True(t, ok)
	assert.Equal(t, models.TeamAmber, team)

	team, ok = ActingTeam(sched, 1, 2)
	require.True(t, ok)
	assert.Equal(t, models.TeamSapphire, team)

	_, ok = ActingTeam(sched, 0, 2)
	assert.False(t, ok)
	_, ok = ActingTeam(sched, 2, 0)
	assert.False(t, ok)
}

func TestNextWalksEverySlotThenTerminates(t *testing.T) {
	sched := Effective(testConfig())

	phase, slot := 0, 0
	visited := 0
	for !IsTerminal(sched, phase) {
		_, ok := ActingTeam(sched, phase, slot)
		require.True(t, ok, "every visited position must be a valid slot")
		visited++
		phase, slot = Next(sched, phase, slot)
	}
	assert.Equal(t, TotalSlots(sched), visited)
	assert.Equal(t, 0, slot)
}

// internal/draft/coordinator_test.go
package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/herodraft/internal/models"
)

// fakeStore is an in-memory Store with value semantics, so a forgotten
// UpdateSession call shows up as stale reads in tests.
type fakeStore struct {
	mu       sync.Mutex
	lobbies  map[uuid.UUID]models.Lobby
	configs  map[uuid.UUID]models.DraftConfig
	sessions []models.DraftSession
	picks    map[uuid.UUID][]models.DraftPick
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lobbies: make(map[uuid.UUID]models.Lobby),
		configs: make(map[uuid.UUID]models.DraftConfig),
		picks:   make(map[uuid.UUID][]models.DraftPick),
	}
}

func (s *fakeStore) GetLobby(_ context.Context, lobbyID uuid.UUID) (*models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[lobbyID]
	if !ok {
		return nil, fmt.Errorf("%w: lobby %s", ErrNotFound, lobbyID)
	}
	return &l, nil
}

func (s *fakeStore) SetLobbyStatus(_ context.Context, lobbyID uuid.UUID, status models.LobbyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[lobbyID]
	if !ok {
		return fmt.Errorf("%w: lobby %s", ErrNotFound, lobbyID)
	}
	l.Status = status
	s.lobbies[lobbyID] = l
	return nil
}

func (s *fakeStore) EnsureConfig(_ context.Context, lobbyID uuid.UUID) (*models.DraftConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[lobbyID]
	if !ok {
		cfg = *models.DefaultDraftConfig(lobbyID)
		s.configs[lobbyID] = cfg
	}
	out := cfg
	return &out, nil
}

func (s *fakeStore) SaveConfig(_ context.Context, cfg *models.DraftConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.LobbyID] = *cfg
	return nil
}

func (s *fakeStore) CreateSession(_ context.Context, sess *models.DraftSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, *sess)
	return nil
}

func (s *fakeStore) SessionByLobby(_ context.Context, lobbyID uuid.UUID) (*models.DraftSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sessions) - 1; i >= 0; i-- {
		if s.sessions[i].LobbyID == lobbyID {
			out := s.sessions[i]
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: no session for lobby %s", ErrNotFound, lobbyID)
}

func (s *fakeStore) UpdateSession(_ context.Context, sess *models.DraftSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == sess.ID {
			s.sessions[i] = *sess
			return nil
		}
	}
	return fmt.Errorf("%w: session %s", ErrNotFound, sess.ID)
}

func (s *fakeStore) DeleteSession(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			delete(s.picks, sessionID)
			return nil
		}
	}
	return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
}

func (s *fakeStore) SetMatchJoinCode(_ context.Context, sessionID uuid.UUID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			s.sessions[i].MatchJoinCode = code
			return nil
		}
	}
	return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
}

func (s *fakeStore) InsertPick(_ context.Context, pick *models.DraftPick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.picks[pick.SessionID] = append(s.picks[pick.SessionID], *pick)
	return nil
}

func (s *fakeStore) PicksBySession(_ context.Context, sessionID uuid.UUID) ([]models.DraftPick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DraftPick(nil), s.picks[sessionID]...), nil
}

type fakeRoster struct {
	mu           sync.Mutex
	participants map[uuid.UUID][]models.Participant
}

func (r *fakeRoster) ParticipantsOf(_ context.Context, lobbyID uuid.UUID) ([]models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Participant(nil), r.participants[lobbyID]...), nil
}

func (r *fakeRoster) ResolveIdentity(_ context.Context, lobbyID, userID uuid.UUID) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants[lobbyID] {
		if p.UserID == userID {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

// mockPublisher collects events instead of fanning them out.
type mockPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (m *mockPublisher) Publish(_ uuid.UUID, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *mockPublisher) ofType(t EventType) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, ev := range m.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type stubMatches struct {
	code string
	err  error
}

func (s *stubMatches) CreateMatch(context.Context, *models.DraftConfig) (string, error) {
	return s.code, s.err
}

type fixture struct {
	store       *fakeStore
	roster      *fakeRoster
	pub         *mockPublisher
	matches     *stubMatches
	coord       *Coordinator
	lobbyID     uuid.UUID
	host        uuid.UUID
	amberCap    uuid.UUID
	amberSub    uuid.UUID
	sapphireCap uuid.UUID
}

func participant(lobbyID uuid.UUID, name string, team *models.Team, captain bool) models.Participant {
	return models.Participant{
		UserID:    uuid.New(),
		LobbyID:   lobbyID,
		Username:  name,
		Team:      team,
		IsCaptain: captain,
	}
}

func teamPtr(t models.Team) *models.Team { return &t }

// newFixture builds a waiting lobby with a captain and a substitute on
// amber and a captain on sapphire, plus a five-hero universe and the
// spec's two-ban/four-pick schedule.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		store:   newFakeStore(),
		roster:  &fakeRoster{participants: make(map[uuid.UUID][]models.Participant)},
		pub:     &mockPublisher{},
		matches: &stubMatches{code: "JOIN-4217"},
		lobbyID: uuid.New(),
	}

	host := participant(f.lobbyID, "HostCap", teamPtr(models.TeamAmber), true)
	amberSub := participant(f.lobbyID, "AmberSub", teamPtr(models.TeamAmber), false)
	sapphireCap := participant(f.lobbyID, "SapphireCap", teamPtr(models.TeamSapphire), true)
	f.host, f.amberCap, f.amberSub, f.sapphireCap = host.UserID, host.UserID, amberSub.UserID, sapphireCap.UserID
	f.roster.participants[f.lobbyID] = []models.Participant{host, amberSub, sapphireCap}

	f.store.lobbies[f.lobbyID] = models.Lobby{
		ID:         f.lobbyID,
		HostUserID: host.UserID,
		Name:       "test lobby",
		Status:     models.LobbyWaiting,
		CreatedAt:  time.Now(),
	}
	f.store.configs[f.lobbyID] = models.DraftConfig{
		LobbyID:  f.lobbyID,
		SkipBans: false,
		Phases: []models.Phase{
			{Action: models.ActionBan, Order: []models.Team{models.TeamAmber, models.TeamSapphire}},
			{Action: models.ActionPick, Order: []models.Team{
				models.TeamAmber, models.TeamSapphire, models.TeamSapphire, models.TeamAmber,
			}},
		},
		TimePerTurnSec:    30,
		TimerEnabled:      false,
		AllowSinglePlayer: false,
	}

	base := []Option{
		WithUniverse([]string{"a", "b", "c", "d", "e"}),
		WithSeed(7),
		WithTickInterval(20 * time.Millisecond),
	}
	f.coord = New(f.store, f.roster, f.pub, f.matches, append(base, opts...)...)
	return f
}

func (f *fixture) setConfig(t *testing.T, mutate func(*models.DraftConfig)) {
	t.Helper()
	cfg, err := f.store.EnsureConfig(context.Background(), f.lobbyID)
	require.NoError(t, err)
	mutate(cfg)
	require.NoError(t, f.store.SaveConfig(context.Background(), cfg))
}

func (f *fixture) picks(t *testing.T) []models.DraftPick {
	t.Helper()
	sess, err := f.store.SessionByLobby(context.Background(), f.lobbyID)
	require.NoError(t, err)
	picks, err := f.store.PicksBySession(context.Background(), sess.ID)
	require.NoError(t, err)
	return picks
}

func TestStartDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)
	require.NotNil(t, snap.Session)
	assert.Equal(t, models.SessionActive, snap.Session.Status)
	assert.Equal(t, 0, snap.Session.PhaseIndex)
	assert.Equal(t, 0, snap.Session.SlotIndex)
	assert.Equal(t, models.TeamAmber, snap.Session.CurrentTeam)
	assert.Equal(t, models.LobbyInProgress, snap.LobbyStatus)
	assert.Len(t, f.pub.ofType(EventDraftStarted), 1)

	lobby, err := f.store.GetLobby(ctx, f.lobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.LobbyInProgress, lobby.Status)
}

func TestStartDraftScheduleIsSnapshotted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)

	// Editing the config mid-draft must not reshape the running schedule.
	f.setConfig(t, func(cfg *models.DraftConfig) { cfg.SkipBans = true; cfg.Phases = nil })

	sess, err := f.store.SessionByLobby(ctx, f.lobbyID)
	require.NoError(t, err)
	require.Len(t, sess.Schedule, 2)
	assert.Equal(t, models.ActionBan, sess.Schedule[0].Action)
}

func TestStartDraftRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.StartDraft(ctx, uuid.New(), f.host)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.coord.StartDraft(ctx, f.lobbyID, f.sapphireCap)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)
	_, err = f.coord.StartDraft(ctx, f.lobbyID, f.host)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestStartDraftTeamComposition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Empty sapphire team in normal mode.
	f.roster.participants[f.lobbyID] = f.roster.participants[f.lobbyID][:2]
	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	assert.ErrorIs(t, err, ErrInvalidState)

	// Two amber captains.
	f2 := newFixture(t)
	parts := f2.roster.participants[f2.lobbyID]
	parts[1].IsCaptain = true
	f2.roster.participants[f2.lobbyID] = parts
	_, err = f2.coord.StartDraft(ctx, f2.lobbyID, f2.host)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSkipBansFiltersSchedule(t *testing.T) {
	f := newFixture(t)
	f.setConfig(t, func(cfg *models.DraftConfig) { cfg.SkipBans = true })

	snap, err := f.coord.StartDraft(context.Background(), f.lobbyID, f.host)
	require.NoError(t, err)
	require.Len(t, snap.Session.Schedule, 1)
	assert.Equal(t, models.ActionPick, snap.Session.Schedule[0].Action)
}

// TestFullDraftScenario walks the spec scenario: schedule
// [ban x2 (amber, sapphire), pick x4 (amber, sapphire, sapphire, amber)]
// over the five-hero universe. The sixth slot has no hero left, so the
// last human submission must fail without crashing the session.
func TestFullDraftScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)

	steps := []struct {
		user uuid.UUID
		hero string
	}{
		{f.amberCap, "a"},    // amber ban
		{f.sapphireCap, "b"}, // sapphire ban
		{f.amberCap, "c"},    // amber pick
		{f.sapphireCap, "d"}, // sapphire pick
		{f.sapphireCap, "e"}, // sapphire pick
	}
	for _, step := range steps {
		_, _, err := f.coord.SubmitPick(ctx, f.lobbyID, step.hero, step.user)
		require.NoError(t, err, "hero %s", step.hero)
	}

	// Every hero is consumed; amber's final pick can only name a taken or
	// unknown hero.
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "a", f.amberCap)
	assert.ErrorIs(t, err, ErrConflict)
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "zzz", f.amberCap)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	sess, err := f.store.SessionByLobby(ctx, f.lobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, sess.Status, "session survives exhaustion")

	picks := f.picks(t)
	require.Len(t, picks, 5)
	for i, p := range picks {
		assert.Equal(t, i, p.Order, "orders are gapless from zero")
	}
	seen := map[string]bool{}
	for _, p := range picks {
		assert.False(t, seen[p.HeroID], "hero %s picked twice", p.HeroID)
		seen[p.HeroID] = true
	}

	// Bans carry no team; picks carry the acting team.
	require.Nil(t, picks[0].Team)
	require.Nil(t, picks[1].Team)
	require.NotNil(t, picks[2].Team)
	assert.Equal(t, models.TeamAmber, *picks[2].Team)
	require.NotNil(t, picks[4].Team)
	assert.Equal(t, models.TeamSapphire, *picks[4].Team)
}

func TestSubmitPickAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)

	// Amber acts first: sapphire's captain is out of turn.
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "a", f.sapphireCap)
	assert.ErrorIs(t, err, ErrForbidden)

	// Right team, not the captain.
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "a", f.amberSub)
	assert.ErrorIs(t, err, ErrForbidden)

	// Not a participant at all.
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "a", uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitPickWithoutActiveSession(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.coord.SubmitPick(context.Background(), f.lobbyID, "a", f.amberCap)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDraftCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setConfig(t, func(cfg *models.DraftConfig) {
		cfg.Phases = []models.Phase{
			{Action: models.ActionPick, Order: []models.Team{models.TeamAmber, models.TeamSapphire}},
		}
	})

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "a", f.amberCap)
	require.NoError(t, err)
	_, snap, err := f.coord.SubmitPick(ctx, f.lobbyID, "b", f.sapphireCap)
	require.NoError(t, err)

	assert.Equal(t, models.SessionCompleted, snap.Session.Status)
	assert.Equal(t, models.LobbyCompleted, snap.LobbyStatus)
	assert.Len(t, f.pub.ofType(EventDraftCompleted), 1)

	// Completed sessions are terminal.
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "c", f.amberCap)
	assert.ErrorIs(t, err, ErrNotFound)
	err = f.coord.CancelDraft(ctx, f.lobbyID, f.host)
	assert.ErrorIs(t, err, ErrInvalidState)

	// The match side effect runs asynchronously and publishes the code.
	require.Eventually(t, func() bool {
		return len(f.pub.ofType(EventMatchReady)) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "JOIN-4217", f.pub.ofType(EventMatchReady)[0].JoinCode)
	sess, err := f.store.SessionByLobby(ctx, f.lobbyID)
	require.NoError(t, err)
	assert.Equal(t, "JOIN-4217", sess.MatchJoinCode)
}

func TestMatchCreationFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.matches.err = errors.New("upstream 503")
	ctx := context.Background()
	f.setConfig(t, func(cfg *models.DraftConfig) {
		cfg.Phases = []models.Phase{
			{Action: models.ActionPick, Order: []models.Team{models.TeamAmber}},
		}
	})

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "a", f.amberCap)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.pub.ofType(EventMatchFailed)) == 1
	}, time.Second, 10*time.Millisecond)

	// The failure never re-opens the draft.
	sess, err := f.store.SessionByLobby(ctx, f.lobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, sess.Status)
}

func TestCancelDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "a", f.amberCap)
	require.NoError(t, err)

	err = f.coord.CancelDraft(ctx, f.lobbyID, f.sapphireCap)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.coord.CancelDraft(ctx, f.lobbyID, f.host))

	// A cancelled draft leaves no trace.
	_, err = f.store.SessionByLobby(ctx, f.lobbyID)
	assert.ErrorIs(t, err, ErrNotFound)
	lobby, err := f.store.GetLobby(ctx, f.lobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.LobbyWaiting, lobby.Status)
	assert.Len(t, f.pub.ofType(EventDraftCancelled), 1)

	// Idempotence from the caller's perspective: the second cancel
	// reports NotFound rather than silently succeeding.
	err = f.coord.CancelDraft(ctx, f.lobbyID, f.host)
	assert.ErrorIs(t, err, ErrNotFound)

	// And the lobby can draft again from a clean slate.
	_, err = f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)
}

func TestCaptainDisconnectCancelsDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "a", f.amberCap)
	require.NoError(t, err)

	// A non-captain disconnect never cancels.
	f.coord.HandleDisconnect(f.lobbyID, f.amberSub)
	_, err = f.store.SessionByLobby(ctx, f.lobbyID)
	require.NoError(t, err)

	f.coord.HandleDisconnect(f.lobbyID, f.amberCap)
	_, err = f.store.SessionByLobby(ctx, f.lobbyID)
	assert.ErrorIs(t, err, ErrNotFound)

	lobby, err := f.store.GetLobby(ctx, f.lobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.LobbyWaiting, lobby.Status)

	cancelled := f.pub.ofType(EventDraftCancelled)
	require.Len(t, cancelled, 1)
	assert.Contains(t, cancelled[0].Reason, "HostCap")
	assert.Contains(t, cancelled[0].Reason, "amber captain")
}

func TestDisconnectAfterCompletionIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setConfig(t, func(cfg *models.DraftConfig) {
		cfg.Phases = []models.Phase{
			{Action: models.ActionPick, Order: []models.Team{models.TeamAmber}},
		}
	})

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "a", f.amberCap)
	require.NoError(t, err)

	f.coord.HandleDisconnect(f.lobbyID, f.amberCap)
	sess, err := f.store.SessionByLobby(ctx, f.lobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, sess.Status)
}

func TestTimeoutAutoPick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setConfig(t, func(cfg *models.DraftConfig) {
		cfg.TimerEnabled = true
		cfg.TimePerTurnSec = 1
	})

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.picks(t)) == 1
	}, 2*time.Second, 20*time.Millisecond)

	picks := f.picks(t)
	require.Len(t, picks, 1)
	assert.Nil(t, picks[0].ActingUserID, "timeout picks have no acting participant")
	assert.Len(t, f.pub.ofType(EventAutoPick), 1)

	sess, err := f.store.SessionByLobby(ctx, f.lobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.TeamSapphire, sess.CurrentTeam, "turn advanced to the next team")
}

func TestTimerDisabledMidTurnStopsFiring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setConfig(t, func(cfg *models.DraftConfig) {
		cfg.TimerEnabled = true
		cfg.TimePerTurnSec = 1
	})

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)

	// Flip the timer off before the budget elapses; the re-check loop
	// reads live config and goes quiet.
	f.setConfig(t, func(cfg *models.DraftConfig) { cfg.TimerEnabled = false })

	time.Sleep(1500 * time.Millisecond)
	assert.Empty(t, f.picks(t), "no auto-pick once the timer is disabled")
}

// TestRapidPicksArmOneTimer covers the single-armed-timer invariant: two
// quick human picks must not leave a stale timer that double-fires.
func TestRapidPicksArmOneTimer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setConfig(t, func(cfg *models.DraftConfig) {
		cfg.TimerEnabled = true
		cfg.TimePerTurnSec = 1
	})

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "a", f.amberCap)
	require.NoError(t, err)
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "b", f.sapphireCap)
	require.NoError(t, err)

	// Only the third turn's timer is live. Read the picks as soon as its
	// auto-resolution lands: the fourth turn's budget has not elapsed yet,
	// so a stale timer from either human turn is the only thing that could
	// have produced a second auto pick by now.
	require.Eventually(t, func() bool {
		return len(f.picks(t)) >= 3
	}, 2*time.Second, 20*time.Millisecond)

	picks := f.picks(t)
	require.Len(t, picks, 3)
	autoCount := 0
	for _, p := range picks {
		if p.ActingUserID == nil {
			autoCount++
		}
	}
	assert.Equal(t, 1, autoCount, "exactly one auto-resolution for the one elapsed turn")
	assert.Len(t, f.pub.ofType(EventAutoPick), 1)
}

func TestSinglePlayerEmptyTeamAutoResolvesAtStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Sapphire has nobody and acts first.
	f.roster.participants[f.lobbyID] = f.roster.participants[f.lobbyID][:2]
	f.setConfig(t, func(cfg *models.DraftConfig) {
		cfg.AllowSinglePlayer = true
		cfg.Phases = []models.Phase{
			{Action: models.ActionPick, Order: []models.Team{
				models.TeamSapphire, models.TeamSapphire, models.TeamAmber,
			}},
		}
	})

	snap, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)

	// Both consecutive sapphire slots resolved before anyone sees a
	// "your turn" state; amber is on the clock.
	require.Len(t, snap.Picks, 2)
	assert.Nil(t, snap.Picks[0].ActingUserID)
	assert.Nil(t, snap.Picks[1].ActingUserID)
	assert.Equal(t, models.TeamAmber, snap.Session.CurrentTeam)
	assert.Len(t, f.pub.ofType(EventAutoPick), 2)
}

// TestSubmitPickReturnsCallersPick: when the empty-team substitution
// chain runs right after a human pick, the returned record must still be
// the caller's own submission, not the trailing auto pick.
func TestSubmitPickReturnsCallersPick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Sapphire has nobody; amber acts, sapphire's slot auto-resolves.
	f.roster.participants[f.lobbyID] = f.roster.participants[f.lobbyID][:2]
	f.setConfig(t, func(cfg *models.DraftConfig) {
		cfg.AllowSinglePlayer = true
		cfg.Phases = []models.Phase{
			{Action: models.ActionPick, Order: []models.Team{
				models.TeamAmber, models.TeamSapphire, models.TeamAmber,
			}},
		}
	})

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)

	pick, snap, err := f.coord.SubmitPick(ctx, f.lobbyID, "a", f.amberCap)
	require.NoError(t, err)
	assert.Equal(t, "a", pick.HeroID)
	require.NotNil(t, pick.ActingUserID)
	assert.Equal(t, f.amberCap, *pick.ActingUserID)

	// The empty sapphire slot still resolved behind it.
	require.Len(t, snap.Picks, 2)
	assert.Nil(t, snap.Picks[1].ActingUserID)
}

func TestSinglePlayerAnyParticipantMayAct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setConfig(t, func(cfg *models.DraftConfig) { cfg.AllowSinglePlayer = true })

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)

	// Amber acts first, but in single-player mode the sapphire captain
	// (and even a non-captain) may act for the current team.
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "a", f.sapphireCap)
	require.NoError(t, err)
	_, _, err = f.coord.SubmitPick(ctx, f.lobbyID, "b", f.amberSub)
	require.NoError(t, err)
}

// TestAutoResolutionExhaustionGuard drains the universe through the
// empty-team substitution chain: five heroes cannot fill six sapphire
// slots, and the guard must leave the session intact instead of looping.
func TestAutoResolutionExhaustionGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.roster.participants[f.lobbyID] = f.roster.participants[f.lobbyID][:2]
	f.setConfig(t, func(cfg *models.DraftConfig) {
		cfg.AllowSinglePlayer = true
		cfg.Phases = []models.Phase{
			{Action: models.ActionPick, Order: []models.Team{
				models.TeamSapphire, models.TeamSapphire, models.TeamSapphire,
				models.TeamSapphire, models.TeamSapphire, models.TeamSapphire,
			}},
		}
	})

	snap, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)

	assert.Len(t, snap.Picks, 5, "one pick per available hero")
	assert.Empty(t, snap.RemainingHeroes)
	assert.Equal(t, models.SessionActive, snap.Session.Status)
}

func TestSnapshotRemainingHeroes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.StartDraft(ctx, f.lobbyID, f.host)
	require.NoError(t, err)
	_, snap, err := f.coord.SubmitPick(ctx, f.lobbyID, "c", f.amberCap)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a", "b", "d", "e"}, snap.RemainingHeroes)
}

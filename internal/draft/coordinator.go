// internal/draft/coordinator.go
//
// The Coordinator owns every draft session's state transitions: starting a
// draft, accepting picks, timing turns out, substituting for empty teams,
// and tearing a draft down on cancellation or captain disconnect. All
// mutating operations on one lobby are serialized behind a per-lobby
// mutex; operations on different lobbies proceed concurrently.
package draft

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/draftforge/herodraft/internal/models"
	"github.com/draftforge/herodraft/internal/schedule"
)

type Coordinator struct {
	store   Store
	roster  Roster
	pub     Publisher
	matches MatchCreator
	log     *logrus.Logger

	universe     []string
	universeSet  map[string]bool
	tickInterval time.Duration

	randMu sync.Mutex
	rand   *rand.Rand

	mu      sync.Mutex
	handles map[uuid.UUID]*sessionHandle
}

// sessionHandle serializes mutations for one lobby and owns its single
// outstanding timer. timerGen invalidates callbacks from superseded timers.
type sessionHandle struct {
	mu       sync.Mutex
	timer    *time.Timer
	timerGen int
}

// lobbyState is a coordinator-internal read of everything relevant to one
// lobby's draft, loaded under the session handle's lock.
type lobbyState struct {
	lobby        *models.Lobby
	cfg          *models.DraftConfig
	session      *models.DraftSession
	picks        []models.DraftPick
	participants []models.Participant
}

type Option func(*Coordinator)

// WithSeed makes auto-resolution deterministic, for tests.
func WithSeed(seed int64) Option {
	return func(c *Coordinator) { c.rand = rand.New(rand.NewSource(seed)) }
}

// WithUniverse overrides the draftable hero pool.
func WithUniverse(ids []string) Option {
	return func(c *Coordinator) { c.setUniverse(ids) }
}

// WithTickInterval overrides the timer re-check interval, for tests.
func WithTickInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.tickInterval = d }
}

func WithLogger(l *logrus.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

func New(store Store, roster Roster, pub Publisher, matches MatchCreator, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:        store,
		roster:       roster,
		pub:          pub,
		matches:      matches,
		log:          logrus.StandardLogger(),
		tickInterval: time.Second,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
		handles:      make(map[uuid.UUID]*sessionHandle),
	}
	c.setUniverse(models.HeroIDs)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) setUniverse(ids []string) {
	c.universe = append([]string(nil), ids...)
	c.universeSet = make(map[string]bool, len(ids))
	for _, id := range ids {
		c.universeSet[id] = true
	}
}

func (c *Coordinator) handleFor(lobbyID uuid.UUID) *sessionHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.handles[lobbyID]
	if !ok {
		h = &sessionHandle{}
		c.handles[lobbyID] = h
	}
	return h
}

// dropHandle forgets a lobby's handle once its session is gone. Assumes
// h.mu is held; a concurrent caller waiting on the stale handle will
// re-read the store and find no active session.
func (c *Coordinator) dropHandle(lobbyID uuid.UUID, h *sessionHandle) {
	c.stopTimerLocked(h)
	c.mu.Lock()
	delete(c.handles, lobbyID)
	c.mu.Unlock()
}

// StartDraft validates team composition and authorization, snapshots the
// effective schedule, and puts the lobby on the clock. In single-player
// mode an empty starting team is auto-resolved immediately; an empty team
// is never left on the clock.
func (c *Coordinator) StartDraft(ctx context.Context, lobbyID, initiatorID uuid.UUID) (*StateSnapshot, error) {
	h := c.handleFor(lobbyID)
	h.mu.Lock()
	defer h.mu.Unlock()

	lobby, err := c.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	cfg, err := c.store.EnsureConfig(ctx, lobbyID)
	if err != nil {
		return nil, err
	}

	if initiatorID != lobby.HostUserID {
		if !cfg.AllowSinglePlayer {
			return nil, fmt.Errorf("%w: only the host may start the draft", ErrForbidden)
		}
		p, err := c.roster.ResolveIdentity(ctx, lobbyID, initiatorID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: not a participant of this lobby", ErrForbidden)
		}
	}
	if lobby.Status != models.LobbyWaiting {
		return nil, fmt.Errorf("%w: lobby is %s", ErrForbidden, lobby.Status)
	}

	if prev, err := c.store.SessionByLobby(ctx, lobbyID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	} else if prev.Status != models.SessionCompleted {
		return nil, fmt.Errorf("%w: a draft is already in progress", ErrConflict)
	}

	participants, err := c.roster.ParticipantsOf(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if err := checkTeamComposition(participants, cfg.AllowSinglePlayer); err != nil {
		return nil, err
	}

	sched := schedule.Effective(cfg)
	if schedule.TotalSlots(sched) == 0 {
		return nil, fmt.Errorf("%w: the effective schedule has no slots", ErrInvalidState)
	}

	now := time.Now()
	sess := &models.DraftSession{
		ID:            uuid.New(),
		LobbyID:       lobbyID,
		Status:        models.SessionActive,
		Schedule:      sched,
		PhaseIndex:    0,
		SlotIndex:     0,
		CurrentTeam:   sched[0].Order[0],
		StartedAt:     now,
		TurnStartedAt: now,
	}
	if err := c.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	lobby.Status = models.LobbyInProgress
	if err := c.store.SetLobbyStatus(ctx, lobbyID, models.LobbyInProgress); err != nil {
		return nil, err
	}

	st := &lobbyState{lobby: lobby, cfg: cfg, session: sess, participants: participants}
	c.log.Infof("draft %s started for lobby %s (%d slots)", sess.ID, lobbyID, schedule.TotalSlots(sched))
	c.publish(lobbyID, Event{Type: EventDraftStarted, State: c.snapshot(st)})

	c.settleTurn(ctx, h, st)
	return c.snapshot(st), nil
}

// SubmitPick records a human pick or ban for the acting team and advances
// the draft. The operation is atomic from the caller's perspective: all
// validation precedes the first write.
func (c *Coordinator) SubmitPick(ctx context.Context, lobbyID uuid.UUID, heroID string, userID uuid.UUID) (*models.DraftPick, *StateSnapshot, error) {
	h := c.handleFor(lobbyID)
	h.mu.Lock()
	defer h.mu.Unlock()

	st, err := c.loadState(ctx, lobbyID)
	if err != nil {
		return nil, nil, err
	}
	if st.session == nil || st.session.Status != models.SessionActive {
		return nil, nil, fmt.Errorf("%w: no active draft for this lobby", ErrNotFound)
	}
	if schedule.IsTerminal(st.session.Schedule, st.session.PhaseIndex) {
		return nil, nil, fmt.Errorf("%w: the draft schedule is exhausted", ErrInvalidState)
	}

	p, err := c.roster.ResolveIdentity(ctx, lobbyID, userID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, fmt.Errorf("%w: not a participant of this lobby", ErrNotFound)
	}
	if !st.cfg.AllowSinglePlayer {
		if !p.OnTeam(st.session.CurrentTeam) {
			return nil, nil, fmt.Errorf("%w: it is %s's turn", ErrForbidden, st.session.CurrentTeam)
		}
		if !p.IsCaptain {
			return nil, nil, fmt.Errorf("%w: only the team captain may act", ErrForbidden)
		}
	}

	if !c.universeSet[heroID] {
		return nil, nil, fmt.Errorf("%w: unknown hero %q", ErrInvalidArgument, heroID)
	}
	for _, pick := range st.picks {
		if pick.HeroID == heroID {
			return nil, nil, fmt.Errorf("%w: hero %q is already taken", ErrConflict, heroID)
		}
	}

	c.stopTimerLocked(h)
	actor := p.UserID
	if err := c.resolveSlot(ctx, st, heroID, &actor, EventPickMade); err != nil {
		return nil, nil, err
	}
	// Capture the caller's own pick before settling: in single-player mode
	// settleTurn may append auto-resolved picks for empty-team slots.
	pick := st.picks[len(st.picks)-1]
	c.settleTurn(ctx, h, st)

	return &pick, c.snapshot(st), nil
}

// CancelDraft is the explicit, host-initiated teardown. A cancelled draft
// leaves no trace: the session and its picks are deleted and the lobby
// returns to waiting. Cancelling again reports NotFound.
func (c *Coordinator) CancelDraft(ctx context.Context, lobbyID, initiatorID uuid.UUID) error {
	h := c.handleFor(lobbyID)
	h.mu.Lock()
	defer h.mu.Unlock()

	lobby, err := c.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	sess, err := c.store.SessionByLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if sess.Status == models.SessionCompleted {
		return fmt.Errorf("%w: a completed draft cannot be cancelled", ErrInvalidState)
	}
	if initiatorID != lobby.HostUserID {
		return fmt.Errorf("%w: only the host may cancel the draft", ErrForbidden)
	}
	return c.teardown(ctx, h, lobby, sess, "Draft cancelled by the host")
}

// HandleDisconnect is invoked by the realtime transport when a subscriber
// drops. Only the disconnect of a team captain during an active draft
// cancels it; spectators and unassigned participants never do. Failures
// are logged, never surfaced to the disconnecting client.
func (c *Coordinator) HandleDisconnect(lobbyID, userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := c.handleFor(lobbyID)
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, err := c.store.SessionByLobby(ctx, lobbyID)
	if err != nil || sess.Status != models.SessionActive {
		return
	}
	p, err := c.roster.ResolveIdentity(ctx, lobbyID, userID)
	if err != nil || p == nil || p.Team == nil || !p.IsCaptain {
		return
	}
	lobby, err := c.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return
	}

	reason := fmt.Sprintf("Draft cancelled: %s (%s captain) disconnected", p.Username, *p.Team)
	if err := c.teardown(ctx, h, lobby, sess, reason); err != nil {
		c.log.Warnf("disconnect teardown failed for lobby %s: %v", lobbyID, err)
	}
}

// Snapshot returns the current observable draft state of a lobby, for
// read-only endpoints and websocket joins.
func (c *Coordinator) Snapshot(ctx context.Context, lobbyID uuid.UUID) (*StateSnapshot, error) {
	st, err := c.loadState(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	return c.snapshot(st), nil
}

// teardown deletes the session and every pick, reverts the lobby to
// waiting, and publishes the attributed cancellation. Assumes h.mu held.
func (c *Coordinator) teardown(ctx context.Context, h *sessionHandle, lobby *models.Lobby, sess *models.DraftSession, reason string) error {
	c.stopTimerLocked(h)
	if err := c.store.DeleteSession(ctx, sess.ID); err != nil {
		return err
	}
	lobby.Status = models.LobbyWaiting
	if err := c.store.SetLobbyStatus(ctx, lobby.ID, models.LobbyWaiting); err != nil {
		return err
	}
	c.log.Infof("draft %s cancelled for lobby %s: %s", sess.ID, lobby.ID, reason)

	st := &lobbyState{lobby: lobby, cfg: mustConfig(ctx, c.store, lobby.ID)}
	c.publish(lobby.ID, Event{Type: EventDraftCancelled, Reason: reason, State: c.snapshot(st)})
	c.dropHandle(lobby.ID, h)
	return nil
}

// resolveSlot appends the pick record for the current slot and advances the
// session. On natural completion it flips the lobby, publishes the
// completion event, and schedules the match-creation side effect. Assumes
// the session handle's lock is held.
func (c *Coordinator) resolveSlot(ctx context.Context, st *lobbyState, heroID string, actor *uuid.UUID, evType EventType) error {
	sess := st.session
	phase := sess.Schedule[sess.PhaseIndex]

	pick := models.DraftPick{
		ID:           uuid.New(),
		SessionID:    sess.ID,
		HeroID:       heroID,
		Action:       phase.Action,
		Order:        len(st.picks),
		ActingUserID: actor,
		ResolvedAt:   time.Now(),
	}
	if phase.Action == models.ActionPick {
		team := sess.CurrentTeam
		pick.Team = &team
	}
	if err := c.store.InsertPick(ctx, &pick); err != nil {
		return err
	}
	st.picks = append(st.picks, pick)

	sess.PhaseIndex, sess.SlotIndex = schedule.Next(sess.Schedule, sess.PhaseIndex, sess.SlotIndex)
	if schedule.IsTerminal(sess.Schedule, sess.PhaseIndex) {
		sess.Status = models.SessionCompleted
		if err := c.store.UpdateSession(ctx, sess); err != nil {
			return err
		}
		st.lobby.Status = models.LobbyCompleted
		if err := c.store.SetLobbyStatus(ctx, st.lobby.ID, models.LobbyCompleted); err != nil {
			return err
		}
		c.log.Infof("draft %s completed for lobby %s after %d picks", sess.ID, st.lobby.ID, len(st.picks))
		c.publish(st.lobby.ID, Event{Type: evType, Pick: &pick, State: c.snapshot(st)})
		c.publish(st.lobby.ID, Event{Type: EventDraftCompleted, State: c.snapshot(st)})
		go c.createMatch(st.lobby.ID, sess.ID, st.cfg)
		return nil
	}

	team, _ := schedule.ActingTeam(sess.Schedule, sess.PhaseIndex, sess.SlotIndex)
	sess.CurrentTeam = team
	sess.TurnStartedAt = time.Now()
	if err := c.store.UpdateSession(ctx, sess); err != nil {
		return err
	}
	c.publish(st.lobby.ID, Event{Type: evType, Pick: &pick, State: c.snapshot(st)})
	c.publish(st.lobby.ID, Event{Type: EventTurnChanged, State: c.snapshot(st)})
	return nil
}

// settleTurn runs after every advance: in single-player mode it chains
// auto-resolution through consecutive empty-team slots, then arms the turn
// timer if the draft is still live. The chain is capped by the universe
// size so malformed schedule data cannot loop forever. Assumes h.mu held.
func (c *Coordinator) settleTurn(ctx context.Context, h *sessionHandle, st *lobbyState) {
	for i := 0; i < len(c.universe); i++ {
		if st.session.Status != models.SessionActive {
			return
		}
		if !st.cfg.AllowSinglePlayer || teamSize(st.participants, st.session.CurrentTeam) > 0 {
			break
		}
		if !c.autoResolve(ctx, st) {
			return
		}
	}
	if st.session.Status == models.SessionActive {
		c.armTimer(h, st.lobby.ID, st.session.ID)
	}
}

// autoResolve picks a random remaining hero for the current slot with no
// acting participant. Returns false when no heroes remain, in which case
// the slot is left unresolved (defensive guard; the schedule is logically
// exhausted).
func (c *Coordinator) autoResolve(ctx context.Context, st *lobbyState) bool {
	heroID, ok := c.randomRemaining(st.picks)
	if !ok {
		c.log.Warnf("draft %s: no heroes remain for auto-resolution at phase %d slot %d",
			st.session.ID, st.session.PhaseIndex, st.session.SlotIndex)
		return false
	}
	if err := c.resolveSlot(ctx, st, heroID, nil, EventAutoPick); err != nil {
		c.log.Warnf("draft %s: auto-resolution failed: %v", st.session.ID, err)
		return false
	}
	return true
}

func (c *Coordinator) loadState(ctx context.Context, lobbyID uuid.UUID) (*lobbyState, error) {
	lobby, err := c.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	cfg, err := c.store.EnsureConfig(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	st := &lobbyState{lobby: lobby, cfg: cfg}

	sess, err := c.store.SessionByLobby(ctx, lobbyID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	} else {
		st.session = sess
		picks, err := c.store.PicksBySession(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		st.picks = picks
	}

	participants, err := c.roster.ParticipantsOf(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	st.participants = participants
	return st, nil
}

func (c *Coordinator) publish(lobbyID uuid.UUID, ev Event) {
	if c.pub != nil {
		c.pub.Publish(lobbyID, ev)
	}
}

// createMatch is the fire-and-forget completion side effect. Failure is
// logged and reported as a best-effort notice; it never re-opens the draft.
func (c *Coordinator) createMatch(lobbyID, sessionID uuid.UUID, cfg *models.DraftConfig) {
	if c.matches == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code, err := c.matches.CreateMatch(ctx, cfg)
	if err != nil {
		c.log.Warnf("match creation failed for lobby %s: %v", lobbyID, err)
		c.publish(lobbyID, Event{Type: EventMatchFailed, Reason: "Match creation failed; the draft result is saved."})
		return
	}
	if err := c.store.SetMatchJoinCode(ctx, sessionID, code); err != nil {
		c.log.Warnf("failed to persist join code for session %s: %v", sessionID, err)
	}
	c.publish(lobbyID, Event{Type: EventMatchReady, JoinCode: code})
}

func (c *Coordinator) remainingHeroes(picks []models.DraftPick) []string {
	taken := make(map[string]bool, len(picks))
	for _, p := range picks {
		taken[p.HeroID] = true
	}
	out := make([]string, 0, len(c.universe)-len(picks))
	for _, id := range c.universe {
		if !taken[id] {
			out = append(out, id)
		}
	}
	return out
}

func (c *Coordinator) randomRemaining(picks []models.DraftPick) (string, bool) {
	remaining := c.remainingHeroes(picks)
	if len(remaining) == 0 {
		return "", false
	}
	c.randMu.Lock()
	defer c.randMu.Unlock()
	return remaining[c.rand.Intn(len(remaining))], true
}

func checkTeamComposition(participants []models.Participant, singlePlayer bool) error {
	amber := teamSize(participants, models.TeamAmber)
	sapphire := teamSize(participants, models.TeamSapphire)
	if singlePlayer {
		if amber == 0 && sapphire == 0 {
			return fmt.Errorf("%w: at least one team must have a member", ErrInvalidState)
		}
		return nil
	}
	if amber == 0 || sapphire == 0 {
		return fmt.Errorf("%w: both teams must have members", ErrInvalidState)
	}
	if captainCount(participants, models.TeamAmber) != 1 || captainCount(participants, models.TeamSapphire) != 1 {
		return fmt.Errorf("%w: each team needs exactly one captain", ErrInvalidState)
	}
	return nil
}

func teamSize(participants []models.Participant, team models.Team) int {
	n := 0
	for _, p := range participants {
		if p.OnTeam(team) {
			n++
		}
	}
	return n
}

func captainCount(participants []models.Participant, team models.Team) int {
	n := 0
	for _, p := range participants {
		if p.OnTeam(team) && p.IsCaptain {
			n++
		}
	}
	return n
}

func mustConfig(ctx context.Context, store Store, lobbyID uuid.UUID) *models.DraftConfig {
	cfg, err := store.EnsureConfig(ctx, lobbyID)
	if err != nil {
		return models.DefaultDraftConfig(lobbyID)
	}
	return cfg
}

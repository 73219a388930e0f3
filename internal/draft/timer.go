// internal/draft/timer.go
//
// The turn timer is not a single deadline alarm. Each armed timer is a
// short-interval re-check that reloads the live session and config on
// every tick, so disabling the timer or retuning the budget mid-turn takes
// effect without any reschedule bookkeeping. At most one timer is armed
// per session at any instant: arming is always cancel-then-schedule, and a
// generation counter makes callbacks from superseded timers no-ops.
package draft

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/herodraft/internal/models"
)

// armTimer schedules the first re-check for the session's current turn.
// Assumes h.mu is held.
func (c *Coordinator) armTimer(h *sessionHandle, lobbyID, sessionID uuid.UUID) {
	c.stopTimerLocked(h)
	gen := h.timerGen
	h.timer = time.AfterFunc(c.tickInterval, func() {
		c.tick(lobbyID, sessionID, gen)
	})
}

// stopTimerLocked cancels any outstanding timer and invalidates callbacks
// already in flight. Assumes h.mu is held.
func (c *Coordinator) stopTimerLocked(h *sessionHandle) {
	h.timerGen++
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (c *Coordinator) tick(lobbyID, sessionID uuid.UUID, gen int) {
	h := c.handleFor(lobbyID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timerGen != gen {
		return // superseded by a pick, cancel, or re-arm
	}
	h.timer = nil

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := c.loadState(ctx, lobbyID)
	if err != nil {
		// A deleted session mid-flight means "stop ticking", never an error.
		return
	}
	if st.session == nil || st.session.ID != sessionID || st.session.Status != models.SessionActive {
		return
	}
	if !st.cfg.TimerEnabled {
		return // disabled mid-turn: leave the turn un-timed
	}

	budget := time.Duration(st.cfg.TimePerTurnSec) * time.Second
	elapsed := time.Since(st.session.TurnStartedAt)
	if elapsed < budget {
		c.rearmLocked(h, lobbyID, sessionID, budget-elapsed)
		return
	}
	c.timeoutResolve(ctx, h, st)
}

// rearmLocked schedules the next re-check, tightening the interval as the
// deadline approaches. Keeps the current generation: the schedule is a
// continuation of the same armed timer, not a new one.
func (c *Coordinator) rearmLocked(h *sessionHandle, lobbyID, sessionID uuid.UUID, remaining time.Duration) {
	next := c.tickInterval
	if remaining < next {
		next = remaining
	}
	gen := h.timerGen
	h.timer = time.AfterFunc(next, func() {
		c.tick(lobbyID, sessionID, gen)
	})
}

// timeoutResolve resolves the current slot with a random remaining hero
// after the acting team's budget is exhausted. A fresh timer for the next
// turn is armed by settleTurn. Assumes h.mu is held.
func (c *Coordinator) timeoutResolve(ctx context.Context, h *sessionHandle, st *lobbyState) {
	c.log.Infof("draft %s: %s ran out of time at phase %d slot %d",
		st.session.ID, st.session.CurrentTeam, st.session.PhaseIndex, st.session.SlotIndex)
	if !c.autoResolve(ctx, st) {
		return
	}
	c.settleTurn(ctx, h, st)
}

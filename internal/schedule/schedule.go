// internal/schedule/schedule.go
//
// Pure functions over a draft's phase schedule. The effective schedule is
// computed once at draft start and snapshotted onto the session; a running
// draft never advances against live config.
package schedule

import "github.com/draftforge/herodraft/internal/models"

// Effective returns the schedule a draft actually runs: the configured
// phases with ban rounds removed when SkipBans is set and phases with no
// acting slots dropped. The returned slice shares no backing array with
// the config so a later config edit cannot reach into a snapshot.
func Effective(cfg *models.DraftConfig) []models.Phase {
	out := make([]models.Phase, 0, len(cfg.Phases))
	for _, p := range cfg.Phases {
		if cfg.SkipBans && p.Action == models.ActionBan {
			continue
		}
		if len(p.Order) == 0 {
			continue
		}
		cp := models.Phase{Action: p.Action, Order: make([]models.Team, len(p.Order))}
		copy(cp.Order, p.Order)
		out = append(out, cp)
	}
	return out
}

// ActingTeam returns the team expected to act at (phaseIdx, slotIdx).
// ok is false when the position does not index a valid slot.
func ActingTeam(sched []models.Phase, phaseIdx, slotIdx int) (models.Team, bool) {
	if phaseIdx < 0 || phaseIdx >= len(sched) {
		return "", false
	}
	if slotIdx < 0 || slotIdx >= len(sched[phaseIdx].Order) {
		return "", false
	}
	return sched[phaseIdx].Order[slotIdx], true
}

// IsTerminal reports whether phaseIdx has advanced past the last phase.
func IsTerminal(sched []models.Phase, phaseIdx int) bool {
	return phaseIdx >= len(sched)
}

// Next returns the position following (phaseIdx, slotIdx): the next slot in
// the current phase, or slot 0 of the next phase once the acting sequence
// is exhausted. The returned phase index may be terminal.
func Next(sched []models.Phase, phaseIdx, slotIdx int) (int, int) {
	slotIdx++
	if phaseIdx < len(sched) && slotIdx >= len(sched[phaseIdx].Order) {
		return phaseIdx + 1, 0
	}
	return phaseIdx, slotIdx
}

// TotalSlots counts every acting slot in the schedule.
func TotalSlots(sched []models.Phase) int {
	n := 0
	for _, p := range sched {
		n += len(p.Order)
	}
	return n
}

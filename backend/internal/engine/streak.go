// ============================================================================
// backend/internal/engine/streak.go
// Consecutive-activity-day streak tracking with reset-on-gap semantics
// ============================================================================

package engine

import (
	"time"
)

// StreakState tracks a student's consecutive-activity-day streak.
// CurrentStreak counts consecutive calendar days (including the last activity
// day) with at least one qualifying activity. BestStreak never decreases.
// A zero LastActivityDate means no activity has ever been recorded.
type StreakState struct {
	CurrentStreak    int       `json:"current_streak"`
	BestStreak       int       `json:"best_streak"`
	LastActivityDate time.Time `json:"last_activity_date"`
}

// Signal reports the outcome of a RecordActivity call.
type Signal int

const (
	// SignalUpdated means the streak advanced, started, or reset.
	SignalUpdated Signal = iota
	// SignalUnchanged means the activity fell on an already-counted day.
	SignalUnchanged
	// SignalRejected means the activity date was invalid; state is unchanged.
	SignalRejected
)

// String returns the signal name for logs and API responses.
func (s Signal) String() string {
	switch s {
	case SignalUpdated:
		return "updated"
	case SignalUnchanged:
		return "unchanged"
	case SignalRejected:
		return "rejected"
	}
	return "unknown"
}

// RecordActivity applies one qualifying activity on the given day and returns
// the next state. The input state is never mutated.
//
// Transitions, on calendar-day granularity:
//   - no prior activity           -> streak 1
//   - same day as last activity   -> unchanged (idempotent)
//   - day after last activity     -> streak + 1
//   - gap of 2+ days              -> streak reset to 1
//   - day before last activity    -> rejected with ErrInvalidTemporalOrder
//
// The caller must serialize calls per student (e.g. a per-key compare-and-swap
// in the persistence layer); two concurrent first-logins of the day would
// otherwise both observe yesterday's state and double-count.
func RecordActivity(state StreakState, today time.Time) (StreakState, Signal, error) {
	day := DateOf(today)

	if state.LastActivityDate.IsZero() {
		next := StreakState{
			CurrentStreak:    1,
			BestStreak:       maxInt(1, state.BestStreak),
			LastActivityDate: day,
		}
		return next, SignalUpdated, nil
	}

	switch gap := daysBetween(state.LastActivityDate, day); {
	case gap < 0:
		// Backdated record or clock skew: refuse to corrupt state.
		return state, SignalRejected, ErrInvalidTemporalOrder

	case gap == 0:
		return state, SignalUnchanged, nil

	case gap == 1:
		next := StreakState{
			CurrentStreak:    state.CurrentStreak + 1,
			BestStreak:       maxInt(state.CurrentStreak+1, state.BestStreak),
			LastActivityDate: day,
		}
		return next, SignalUpdated, nil

	default: // gap >= 2 breaks the streak
		next := StreakState{
			CurrentStreak:    1,
			BestStreak:       maxInt(1, state.BestStreak),
			LastActivityDate: day,
		}
		return next, SignalUpdated, nil
	}
}

// IsBroken reports whether the streak would reset if the next activity
// happened today: true when the last activity was 2+ days ago.
func (s StreakState) IsBroken(today time.Time) bool {
	if s.LastActivityDate.IsZero() {
		return false
	}
	return daysBetween(s.LastActivityDate, DateOf(today)) > 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

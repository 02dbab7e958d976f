package session

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
)

// Streak states.
const (
	StreakNotStarted = "not_started"
	StreakRunning    = "running"
)

const (
	eventStart    = "start"
	eventReset    = "reset"
	eventBackdate = "backdate"
)

// StreakState reports the streak sub-machine state of a record.
func StreakState(rec *models.UserRecord) string {
	if rec.Started() {
		return StreakRunning
	}
	return StreakNotStarted
}

// streakFSM rebuilds the streak machine positioned at the record's state.
// Once running there is no way back to not_started.
func streakFSM(rec *models.UserRecord) *fsm.FSM {
	return fsm.NewFSM(
		StreakState(rec),
		fsm.Events{
			{Name: eventStart, Src: []string{StreakNotStarted}, Dst: StreakRunning},
			{Name: eventReset, Src: []string{StreakRunning}, Dst: StreakRunning},
			{Name: eventBackdate, Src: []string{StreakNotStarted, StreakRunning}, Dst: StreakRunning},
		},
		fsm.Callbacks{},
	)
}

// fire runs event on the record's streak machine. Self transitions
// (running -> running) count as success.
func fire(rec *models.UserRecord, event string) error {
	err := streakFSM(rec).Event(context.Background(), event)
	if err == nil {
		return nil
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	var invalid fsm.InvalidEventError
	if errors.As(err, &invalid) {
		if event == eventReset {
			return ErrNotStarted
		}
		return ErrAlreadyStarted
	}
	return err
}

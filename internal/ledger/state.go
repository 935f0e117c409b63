package ledger

import (
	"errors"
	"fmt"

	"github.com/joseph-ayodele/hr-ingest/constants"
)

// Event drives a job from one status to the next.
type Event string

const (
	EventStart   Event = "start"
	EventSucceed Event = "succeed"
	EventFail    Event = "fail"
)

var ErrIllegalTransition = errors.New("illegal job transition")

var transitions = map[constants.JobStatus]map[Event]constants.JobStatus{
	constants.JobStatusUploaded: {
		EventStart: constants.JobStatusProcessing,
	},
	constants.JobStatusProcessing: {
		EventSucceed: constants.JobStatusParsed,
		EventFail:    constants.JobStatusFailed,
	},
}

// Transition returns the status reached by applying ev to current.
// Terminal statuses accept no events.
func Transition(current constants.JobStatus, ev Event) (constants.JobStatus, error) {
	if next, ok := transitions[current][ev]; ok {
		return next, nil
	}
	return current, fmt.Errorf("%w: %s on %q", ErrIllegalTransition, ev, current)
}

package bidding

import (
	"errors"
	"fmt"
	"strings"
)

var ErrIllegalTransition = errors.New("bidding: illegal status transition")

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusWithdrawn Status = "WITHDRAWN"
)

// Event is something that happens to a bid after submission.
type Event string

const (
	EventAccept   Event = "accept"
	EventReject   Event = "reject"
	EventOutbid   Event = "outbid" // a sibling bid won
	EventWithdraw Event = "withdraw"
)

// Transition returns the status a bid moves to when ev happens in status s.
// Every bid decision is final, so only PENDING has outgoing edges.
func (s Status) Transition(ev Event) (Status, error) {
	switch s {
	case StatusPending:
		switch ev {
		case EventAccept:
			return StatusAccepted, nil
		case EventReject, EventOutbid:
			return StatusRejected, nil
		case EventWithdraw:
			return StatusWithdrawn, nil
		}
	case StatusAccepted, StatusRejected, StatusWithdrawn:
	}
	return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// ParseStatus accepts any letter case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("bidding: unknown status %q", s)
	}
	return st, nil
}

// Action is the manufacturer's decision on a bid.
type Action string

const (
	ActionAccept Action = "ACCEPT"
	ActionReject Action = "REJECT"
)

func ParseAction(s string) (Action, error) {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionAccept:
		return ActionAccept, nil
	case ActionReject:
		return ActionReject, nil
	}
	return "", fmt.Errorf("bidding: unknown action %q", s)
}

// Event maps the decision onto the bid state machine.
func (a Action) Event() Event {
	if a == ActionAccept {
		return EventAccept
	}
	return EventReject
}

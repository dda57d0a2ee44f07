package materials

import (
	"errors"
	"fmt"
)

var ErrIllegalTransition = errors.New("materials: illegal request transition")

type RequestStatus string

const (
	RequestOpen   RequestStatus = "OPEN"
	RequestClosed RequestStatus = "CLOSED"
)

type RequestEvent string

// EventAwarded fires when one of the request's bids is accepted.
const EventAwarded RequestEvent = "awarded"

func (s RequestStatus) Transition(ev RequestEvent) (RequestStatus, error) {
	if s == RequestOpen && ev == EventAwarded {
		return RequestClosed, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, s)
}

// AllClosed reports whether no request is still collecting bids.
// An empty slice counts as closed.
func AllClosed(reqs []Request) bool {
	for _, r := range reqs {
		if r.Status != RequestClosed {
			return false
		}
	}
	return true
}

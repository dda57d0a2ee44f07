package materials

import (
	"errors"
	"testing"
)

func TestRequestStatus_Transition(t *testing.T) {
	got, err := RequestOpen.Transition(EventAwarded)
	if err != nil || got != RequestClosed {
		t.Fatalf("OPEN: got %s, %v", got, err)
	}
	if _, err := RequestClosed.Transition(EventAwarded); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("CLOSED: expected illegal transition, got %v", err)
	}
}

func TestAllClosed(t *testing.T) {
	if !AllClosed(nil) {
		t.Error("no requests must count as closed")
	}
	reqs := []Request{{Status: RequestClosed}, {Status: RequestOpen}}
	if AllClosed(reqs) {
		t.Error("one open request must block")
	}
	reqs[1].Status = RequestClosed
	if !AllClosed(reqs) {
		t.Error("all closed expected")
	}
}

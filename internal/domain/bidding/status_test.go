package bidding

import (
	"errors"
	"testing"
)

func TestStatus_Transition(t *testing.T) {
	cases := []struct {
		from Status
		ev   Event
		want Status
		ok   bool
	}{
		{StatusPending, EventAccept, StatusAccepted, true},
		{StatusPending, EventReject, StatusRejected, true},
		{StatusPending, EventOutbid, StatusRejected, true},
		{StatusPending, EventWithdraw, StatusWithdrawn, true},
		{StatusAccepted, EventAccept, StatusAccepted, false},
		{StatusAccepted, EventOutbid, StatusAccepted, false},
		{StatusRejected, EventAccept, StatusRejected, false},
		{StatusWithdrawn, EventReject, StatusWithdrawn, false},
	}
	for _, c := range cases {
		got, err := c.from.Transition(c.ev)
		if c.ok && err != nil {
			t.Errorf("%s --%s--> unexpected error: %v", c.from, c.ev, err)
			continue
		}
		if !c.ok && !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("%s --%s--> expected ErrIllegalTransition, got %v", c.from, c.ev, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s --%s--> got %s, want %s", c.from, c.ev, got, c.want)
		}
	}
}

func TestParseAction(t *testing.T) {
	for in, want := range map[string]Action{"ACCEPT": ActionAccept, "reject": ActionReject, " Accept ": ActionAccept} {
		got, err := ParseAction(in)
		if err != nil {
			t.Fatalf("ParseAction(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseAction(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseAction("APPROVE"); err == nil {
		t.Fatal("expected error for unknown action")
	}
	if ActionAccept.Event() != EventAccept || ActionReject.Event() != EventReject {
		t.Fatal("action to event mapping broken")
	}
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{"accepted": StatusAccepted, " PENDING ": StatusPending, "Withdrawn": StatusWithdrawn} {
		got, err := ParseStatus(in)
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseStatus(%q) = %s, want %s", in, got, want)
		}
	}
	for _, in := range []string{"", "WON"} {
		if _, err := ParseStatus(in); err == nil {
			t.Errorf("ParseStatus(%q): expected error", in)
		}
	}
}

package batches

import (
	"errors"
	"fmt"
	"strings"
)

var ErrIllegalTransition = errors.New("batches: illegal status transition")

type Status string

const (
	StatusCreated      Status = "CREATED"
	StatusInProduction Status = "IN_PRODUCTION"
	StatusQualityCheck Status = "QUALITY_CHECK"
	StatusCompleted    Status = "COMPLETED" // materials sourced, logistics bidding open
	StatusInTransit    Status = "IN_TRANSIT"
	StatusShipped      Status = "SHIPPED"
	StatusDelivered    Status = "DELIVERED"
	StatusRecalled     Status = "RECALLED"
)

var AllStatuses = []Status{
	StatusCreated, StatusInProduction, StatusQualityCheck, StatusCompleted,
	StatusInTransit, StatusShipped, StatusDelivered, StatusRecalled,
}

// Event is a lifecycle step driven by the orchestrators.
type Event string

const (
	EventMaterialsSourced Event = "materials_sourced"
	EventLogisticsAwarded Event = "logistics_awarded"
)

func (s Status) Transition(ev Event) (Status, error) {
	switch ev {
	case EventMaterialsSourced:
		switch s {
		case StatusCreated, StatusInProduction, StatusQualityCheck:
			return StatusCompleted, nil
		}
	case EventLogisticsAwarded:
		switch s {
		case StatusCreated, StatusInProduction, StatusQualityCheck, StatusCompleted:
			return StatusInTransit, nil
		}
	}
	return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, s)
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("batches: unknown status %q", s)
}

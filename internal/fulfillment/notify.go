package fulfillment

import (
	"context"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NoteBidSubmitted    NotificationKind = "bid_submitted"
	NoteBidResolved     NotificationKind = "bid_resolved"
	NoteBidsOutbid      NotificationKind = "bids_outbid"
	NoteBidWithdrawn    NotificationKind = "bid_withdrawn"
	NoteLogisticsOpen   NotificationKind = "logistics_open"
	NoteShipmentCreated NotificationKind = "shipment_created"
)

type Stage string

const (
	StageMaterial  Stage = "material"
	StageLogistics Stage = "logistics"
)

// Notification describes a committed change. It is delivered after commit
// and is advisory only.
type Notification struct {
	Kind           NotificationKind
	Stage          Stage
	BatchID        uuid.UUID
	BatchNumber    string
	ManufacturerID string
	BidID          uuid.UUID
	Party          string // supplier or logistics provider
	Outcome        string
	Outbid         []string // parties whose bids lost to the winner
	ShipmentNumber string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) {}

// MultiNotifier fans a notification out to several notifiers.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n Notification) {
	for _, x := range m {
		x.Notify(ctx, n)
	}
}

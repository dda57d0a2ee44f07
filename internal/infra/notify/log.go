package notify

import (
	"context"
	"log/slog"

	"github.com/Spok95/batchflow/internal/fulfillment"
)

// Log writes every notification to the structured log. It is used when no
// Telegram token is configured.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log { return &Log{log: log} }

func (l *Log) Notify(ctx context.Context, n fulfillment.Notification) {
	l.log.InfoContext(ctx, "notification",
		"kind", n.Kind,
		"stage", n.Stage,
		"batch_id", n.BatchID,
		"manufacturer_id", n.ManufacturerID,
		"bid_id", n.BidID,
		"party", n.Party,
		"outcome", n.Outcome,
	)
}

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/batchflow/internal/fulfillment"
	"github.com/Spok95/batchflow/internal/infra/metrics"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts engine notifications to the admin chat. Delivery is best
// effort: failures are logged and counted, never returned.
type Telegram struct {
	api    Sender
	chatID int64
	log    *slog.Logger
}

func NewTelegram(api Sender, adminChatID int64, log *slog.Logger) *Telegram {
	return &Telegram{api: api, chatID: adminChatID, log: log}
}

var _ fulfillment.Notifier = (*Telegram)(nil)

func (t *Telegram) Notify(_ context.Context, n fulfillment.Notification) {
	text := Format(n)
	if text == "" {
		return
	}
	if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		metrics.NotificationsFailed.Inc()
		t.log.Error("send failed", "kind", n.Kind, "batch_id", n.BatchID, "err", err)
	}
}

// Format renders a notification as a short chat message.
func Format(n fulfillment.Notification) string {
	batch := n.BatchNumber
	if batch == "" {
		batch = n.BatchID.String()
	}
	switch n.Kind {
	case fulfillment.NoteBidSubmitted:
		return fmt.Sprintf("New %s bid from %s on batch %s.", n.Stage, n.Party, batch)
	case fulfillment.NoteBidResolved:
		return fmt.Sprintf("Batch %s: %s bid from %s is %s.", batch, n.Stage, n.Party, strings.ToLower(n.Outcome))
	case fulfillment.NoteBidsOutbid:
		return fmt.Sprintf("Batch %s: %s bids from %s were rejected, another bid won.",
			batch, n.Stage, strings.Join(n.Outbid, ", "))
	case fulfillment.NoteBidWithdrawn:
		return fmt.Sprintf("Batch %s: %s withdrew its %s bid.", batch, n.Party, n.Stage)
	case fulfillment.NoteLogisticsOpen:
		return fmt.Sprintf("Batch %s has all materials sourced and is open for logistics bids.", batch)
	case fulfillment.NoteShipmentCreated:
		return fmt.Sprintf("Batch %s awarded to %s, shipment %s created.", batch, n.Party, n.ShipmentNumber)
	}
	return ""
}

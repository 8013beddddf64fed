package notify

import (
	"context"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/dispatcher"
	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/event"
)

// RegisterHandlers subscribes the notifier to the run lifecycle events it
// announces. Handlers run on the async dispatch path, so a slow or failing
// chat can never fail a run.
func RegisterHandlers(d dispatcher.Dispatcher, n port.Notifier) {
	d.SubscribeNamed(event.TypeBatchIssued, "notify-batch-issued", func(ctx context.Context, evt *event.Event) error {
		return n.NotifyBatchIssued(ctx, evt.InvoiceNumber,
			int(evt.GetPayloadInt("payees")),
			int(evt.GetPayloadInt("items")),
			evt.GetPayloadFloat("grand_total"))
	})

	d.SubscribeNamed(event.TypeLedgerPartialFailure, "notify-partial-failure", func(ctx context.Context, evt *event.Event) error {
		return n.NotifyPartialFailure(ctx, evt.InvoiceNumber, retryIDs(evt))
	})
}

func retryIDs(evt *event.Event) []string {
	switch v := evt.Payload["retry_ids"].(type) {
	case []string:
		return v
	case []interface{}:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				ids = append(ids, s)
			}
		}
		return ids
	}
	return nil
}

// Package notifier fans urgent-item alerts out to independent channels. Every
// channel is best-effort: a failure is logged and never stops the others.
package notifier

import (
	"context"
	"errors"
	"time"

	"sjsage522/auctionwatcher/internal/metrics"
	"sjsage522/auctionwatcher/internal/model"
	"sjsage522/auctionwatcher/logger"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

// Channel delivers one alert batch. Send returns an error wrapping
// apperrors.ErrUnavailable when the channel cannot run on this host or is not
// configured.
type Channel interface {
	Name() string
	Send(ctx context.Context, items []model.UrgentItem) error
}

// Report records what happened to each channel.
type Report struct {
	Delivered []string
	Skipped   []string
	Failed    map[string]error
}

// Notifier sends to every optional channel, then to the console channel.
type Notifier struct {
	console  Channel
	channels []Channel
	log      *logger.Logger
	metrics  metrics.Recorder
}

// New creates a Notifier. console always runs; channels are optional.
func New(console Channel, channels ...Channel) *Notifier {
	return &Notifier{
		console:  console,
		channels: channels,
		log:      logger.ForNotifier(),
		metrics:  metrics.Nop{},
	}
}

// WithMetrics records every channel outcome to m.
func (n *Notifier) WithMetrics(m metrics.Recorder) *Notifier {
	n.metrics = m
	return n
}

// Channels lists the configured channel names, console last.
func (n *Notifier) Channels() []string {
	names := make([]string, 0, len(n.channels)+1)
	for _, c := range n.channels {
		names = append(names, c.Name())
	}
	return append(names, n.console.Name())
}

// NotifyUrgent delivers items, which must already be sorted soonest end
// first. Nothing is acknowledged; the report only says what was attempted.
func (n *Notifier) NotifyUrgent(ctx context.Context, items []model.UrgentItem) Report {
	report := Report{Failed: make(map[string]error)}
	if len(items) == 0 {
		n.log.Info().Msg("No urgent items to notify about")
		return report
	}

	for _, c := range append(append([]Channel(nil), n.channels...), n.console) {
		n.send(ctx, c, items, &report)
	}

	n.log.Info().
		Int("items", len(items)).
		Strs("delivered", report.Delivered).
		Strs("skipped", report.Skipped).
		Int("failed", len(report.Failed)).
		Msg("Sent urgent notifications")
	return report
}

func (n *Notifier) send(ctx context.Context, c Channel, items []model.UrgentItem, report *Report) {
	name := c.Name()
	err := c.Send(ctx, items)
	switch {
	case err == nil:
		report.Delivered = append(report.Delivered, name)
		n.metrics.RecordNotification(name, nil)
	case errors.Is(err, apperrors.ErrUnavailable):
		report.Skipped = append(report.Skipped, name)
		n.log.Debug().Str("channel", name).Err(err).Msg("Channel unavailable, skipped")
	default:
		err = apperrors.NewNotification(name, err)
		report.Failed[name] = err
		n.metrics.RecordNotification(name, err)
		n.log.Error().Str("channel", name).Err(err).Msg("Channel failed")
	}
}

// SampleItems returns one synthetic urgent item for exercising the channels.
func SampleItems(now time.Time) []model.UrgentItem {
	end := now.Add(150 * time.Minute)
	return []model.UrgentItem{{
		Item: model.Item{
			ID:         1,
			ExternalID: "test_123",
			Title:      "Lot #1 - Test Item - Vintage Gold Coin Collection",
			CurrentBid: 25,
			AuctionEnd: &end,
			URL:        "https://example.com/test",
			Active:     true,
		},
		Analysis: model.ProfitAnalysis{
			ItemID:          1,
			EstimatedValue:  150,
			CurrentBid:      25,
			PotentialProfit: 125,
			ProfitMargin:    85.5,
			ConfidenceScore: 0.8,
			Recommendation:  model.RecommendStrongBuy,
		},
		HoursRemaining: 2.5,
	}}
}

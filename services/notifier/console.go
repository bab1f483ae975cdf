package notifier

import (
	"context"
	"io"
	"os"

	"sjsage522/auctionwatcher/internal/model"
	"sjsage522/auctionwatcher/logger"
)

// ConsoleChannel prints the alert block and logs one line per item. It never
// reports itself unavailable.
type ConsoleChannel struct {
	w   io.Writer
	log *logger.Logger
}

// NewConsoleChannel writes to w, or stdout when w is nil.
func NewConsoleChannel(w io.Writer) *ConsoleChannel {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleChannel{w: w, log: logger.ForNotifier()}
}

func (c *ConsoleChannel) Name() string { return "console" }

func (c *ConsoleChannel) Send(_ context.Context, items []model.UrgentItem) error {
	for _, it := range items {
		c.log.Warn().
			Str("auction_id", it.Item.ExternalID).
			Str("title", it.Item.Title).
			Float64("current_bid", it.Item.CurrentBid).
			Float64("margin", it.Analysis.ProfitMargin).
			Float64("hours_remaining", it.HoursRemaining).
			Msg("Urgent item")
	}
	_, err := io.WriteString(c.w, consoleText(items))
	return err
}

package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"sjsage522/auctionwatcher/internal/model"
	"sjsage522/auctionwatcher/services/publisher"
)

// AlertKindUrgent tags urgent-item alerts.
const AlertKindUrgent = "urgent"

// Alert is the envelope published to message systems.
type Alert struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	CreatedAt time.Time          `json:"created_at"`
	Items     []model.UrgentItem `json:"items"`
}

// PublishChannel forwards alerts to a Publisher as JSON.
type PublishChannel struct {
	pub publisher.Publisher
	now func() time.Time
}

func NewPublishChannel(pub publisher.Publisher) *PublishChannel {
	return &PublishChannel{pub: pub, now: time.Now}
}

func (p *PublishChannel) Name() string { return "publish:" + p.pub.Name() }

func (p *PublishChannel) Send(ctx context.Context, items []model.UrgentItem) error {
	data, err := json.Marshal(Alert{
		ID:        uuid.NewString(),
		Kind:      AlertKindUrgent,
		CreatedAt: p.now().UTC(),
		Items:     items,
	})
	if err != nil {
		return err
	}
	return p.pub.Publish(ctx, AlertKindUrgent, data)
}

// Package pubsub implements the delivery collaborator on Google Cloud
// Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/printforge/bindery/internal/order"
)

// Deliverer publishes deliverable notices to a Pub/Sub topic.
type Deliverer struct {
	topic *pubsub.Topic
}

// New creates a Deliverer for the provided topic.
func New(topic *pubsub.Topic) *Deliverer {
	return &Deliverer{topic: topic}
}

// Deliver marshals the notice to JSON and publishes it. The order ref rides
// along as an attribute so consumers can filter without decoding the body.
func (d *Deliverer) Deliver(ctx context.Context, notice order.Notice) error {
	if d.topic == nil {
		return fmt.Errorf("pubsub topic is not configured")
	}
	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	result := d.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"order_ref": notice.OrderRef},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}
	return nil
}

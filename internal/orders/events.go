package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderFinalized = "order.finalized"
	eventVersion        = 1
)

type eventPublisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

// EventEnvelope wraps every published order event.
type EventEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

type OrderFinalizedEvent struct {
	SessionID     string           `json:"sessionId"`
	OrderNumber   string           `json:"orderNumber"`
	CustomerEmail string           `json:"customerEmail,omitempty"`
	Total         string           `json:"total"`
	Items         []OrderEventItem `json:"items"`
}

type OrderEventItem struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Amount   string `json:"amount"`
	Kind     string `json:"kind"`
	PhotoID  string `json:"photoId,omitempty"`
}

func newFinalizedEnvelope(now time.Time, event OrderFinalizedEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(EventEnvelope{
		Version:    eventVersion,
		EventID:    uuid.NewString(),
		EventType:  EventOrderFinalized,
		OccurredAt: now.UTC(),
		Data:       data,
	})
}

func eventItems(items []OrderItem) []OrderEventItem {
	out := make([]OrderEventItem, 0, len(items))
	for _, item := range items {
		out = append(out, OrderEventItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Amount:   item.Price(),
			Kind:     item.Kind.String(),
			PhotoID:  item.PhotoID,
		})
	}
	return out
}

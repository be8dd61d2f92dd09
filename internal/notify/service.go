package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	kafkago "github.com/segmentio/kafka-go"

	"storefront/internal/events"
	kafkax "storefront/internal/kafka"
	"storefront/internal/redisx"
)

// Execer is the one pgxpool.Pool operation the notifier needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Deduper remembers processed event IDs; redisx.Dedup backs it in
// production.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, ttl time.Duration) error
}

// Service turns order lifecycle events into notification rows for later
// delivery. Duplicate deliveries are dropped on event ID.
type Service struct {
	DB          Execer
	Dedup       Deduper
	ServiceName string
}

func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, _ := s.Dedup.Seen(ctx, dkey); seen {
		return nil
	}

	var userID, orderID int64
	var kind, body string

	switch env.EventType {
	case events.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[events.OrderPlacedPayload](env.Payload)
		if err != nil {
			return err
		}
		userID, orderID = p.UserID, p.OrderID
		kind = "order_placed"
		body = fmt.Sprintf("Your order #%d for $%s has been confirmed.", p.OrderID, p.TotalAmount)
	case events.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[events.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		userID, orderID = p.UserID, p.OrderID
		kind = "status_changed"
		body = fmt.Sprintf("Your order #%d is now %s.", p.OrderID, p.To)
		if p.TrackingNumber != "" {
			body += " Tracking: " + p.TrackingNumber
		}
	case events.EventOrderCancelled:
		p, err := kafkax.UnwrapPayload[events.OrderCancelledPayload](env.Payload)
		if err != nil {
			return err
		}
		userID, orderID = p.UserID, p.OrderID
		kind = "order_cancelled"
		if p.Refunded {
			body = fmt.Sprintf("Your order #%d has been cancelled and refunded.", p.OrderID)
		} else {
			body = fmt.Sprintf("Your order #%d has been cancelled.", p.OrderID)
		}
	default:
		return nil // not ours
	}

	if _, err := s.DB.Exec(ctx, `
		INSERT INTO notifications(user_id, order_id, kind, body)
		VALUES ($1,$2,$3,$4)`, userID, orderID, kind, body); err != nil {
		return err
	}

	// mark as seen only after the row is in
	_ = s.Dedup.Mark(ctx, dkey, redisx.TTLDedup)
	return nil
}

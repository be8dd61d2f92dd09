package events

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCancelled     = "OrderCancelled"
)

const (
	TopicOrderPlaced        = "order.created"
	TopicOrderStatusChanged = "order.status.changed"
	TopicOrderCancelled     = "order.cancelled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderItemQty struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type OrderPlacedPayload struct {
	OrderID     int64          `json:"order_id"`
	UserID      int64          `json:"user_id"`
	TotalAmount string         `json:"total_amount"`
	Items       []OrderItemQty `json:"items"`
}

type OrderStatusChangedPayload struct {
	OrderID        int64  `json:"order_id"`
	UserID         int64  `json:"user_id"`
	From           string `json:"from"`
	To             string `json:"to"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

type OrderCancelledPayload struct {
	OrderID  int64  `json:"order_id"`
	UserID   int64  `json:"user_id"`
	Refunded bool   `json:"refunded"`
	Reason   string `json:"reason,omitempty"`
}

// All events for one order share a partition so their order is preserved.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}

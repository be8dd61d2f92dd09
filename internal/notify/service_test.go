package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/events"
	kafkax "storefront/internal/kafka"
)

type insertedRow struct {
	userID  int64
	orderID int64
	kind    string
	body    string
}

type fakeExecer struct {
	err  error
	rows []insertedRow
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	f.rows = append(f.rows, insertedRow{
		userID:  args[0].(int64),
		orderID: args[1].(int64),
		kind:    args[2].(string),
		body:    args[3].(string),
	})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

type fakeDedup struct{ seen map[string]bool }

func newFakeDedup() *fakeDedup { return &fakeDedup{seen: make(map[string]bool)} }

func (f *fakeDedup) Seen(ctx context.Context, key string) (bool, error) {
	return f.seen[key], nil
}

func (f *fakeDedup) Mark(ctx context.Context, key string, ttl time.Duration) error {
	f.seen[key] = true
	return nil
}

func newTestService() (*Service, *fakeExecer, *fakeDedup) {
	db := &fakeExecer{}
	dd := newFakeDedup()
	return &Service{DB: db, Dedup: dd, ServiceName: "notifier-test"}, db, dd
}

func eventMessage(eventID, eventType string, payload any) kafkago.Message {
	env := events.Envelope{
		EventID:      eventID,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "api-test",
		Payload:      kafkax.MustMarshal(payload),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func TestDuplicateEventInsertsOnce(t *testing.T) {
	svc, db, _ := newTestService()
	m := eventMessage("ev-1", events.EventOrderPlaced, events.OrderPlacedPayload{
		OrderID: 42, UserID: 7, TotalAmount: "21.60",
	})

	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))

	require.Len(t, db.rows, 1, "redelivery must not produce a second row")
	assert.Equal(t, int64(7), db.rows[0].userID)
	assert.Equal(t, int64(42), db.rows[0].orderID)
	assert.Equal(t, "order_placed", db.rows[0].kind)
	assert.Contains(t, db.rows[0].body, "#42")
	assert.Contains(t, db.rows[0].body, "21.60")
}

func TestStatusChangeIncludesTracking(t *testing.T) {
	svc, db, _ := newTestService()
	m := eventMessage("ev-2", events.EventOrderStatusChanged, events.OrderStatusChangedPayload{
		OrderID: 42, UserID: 7, From: "processing", To: "shipped",
		TrackingNumber: "TRKABCDEF0123456789",
	})

	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	require.Len(t, db.rows, 1)
	assert.Equal(t, "status_changed", db.rows[0].kind)
	assert.Contains(t, db.rows[0].body, "shipped")
	assert.Contains(t, db.rows[0].body, "TRKABCDEF0123456789")
}

func TestCancelledWordingFollowsRefundFlag(t *testing.T) {
	svc, db, _ := newTestService()

	refunded := eventMessage("ev-3", events.EventOrderCancelled, events.OrderCancelledPayload{
		OrderID: 42, UserID: 7, Refunded: true,
	})
	require.NoError(t, svc.HandleOrderEvent(context.Background(), refunded))

	unrefunded := eventMessage("ev-4", events.EventOrderCancelled, events.OrderCancelledPayload{
		OrderID: 43, UserID: 7, Refunded: false,
	})
	require.NoError(t, svc.HandleOrderEvent(context.Background(), unrefunded))

	require.Len(t, db.rows, 2)
	assert.Contains(t, db.rows[0].body, "refunded")
	assert.NotContains(t, db.rows[1].body, "refunded")
}

func TestUnknownEventTypeSkipped(t *testing.T) {
	svc, db, dd := newTestService()
	m := eventMessage("ev-5", "InventoryAdjusted", map[string]any{"sku": "x"})

	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	assert.Empty(t, db.rows)
	assert.Empty(t, dd.seen)
}

func TestInsertFailureLeavesEventUnseen(t *testing.T) {
	svc, db, dd := newTestService()
	db.err = errors.New("db down")
	m := eventMessage("ev-6", events.EventOrderPlaced, events.OrderPlacedPayload{
		OrderID: 42, UserID: 7, TotalAmount: "21.60",
	})

	require.Error(t, svc.HandleOrderEvent(context.Background(), m))
	assert.Empty(t, dd.seen, "a failed insert must stay retryable")

	db.err = nil
	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	assert.Len(t, db.rows, 1)
}

func TestMalformedEnvelopeRejected(t *testing.T) {
	svc, db, _ := newTestService()

	err := svc.HandleOrderEvent(context.Background(), kafkago.Message{Value: []byte("{not json")})
	require.Error(t, err)
	assert.Empty(t, db.rows)
}

package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"storefront/internal/events"
	"storefront/internal/identity"
	kafkax "storefront/internal/kafka"
	"storefront/internal/orders"
	"storefront/internal/redisx"
)

type OrdersHandler struct {
	Svc   *orders.Service
	Store orders.Store
	Redis *redis.Client

	PlacedProducer    Publisher
	StatusProducer    Publisher
	CancelledProducer Publisher

	Service string
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/admin/all", h.listAll)
	r.Get("/orders/{id}", h.get)
	r.Put("/orders/{id}/status", h.updateStatus)
	r.Post("/orders/{id}/cancel", h.cancel)
	r.Get("/orders/{id}/track", h.track)
}

type orderView struct {
	orders.Order
	Items []orders.Item `json:"order_items"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())

	var in orders.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.ShippingAddress == "" || in.PaymentMethodID == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	o, items, err := h.Svc.Checkout(r.Context(), u.ID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	itemQtys := make([]events.OrderItemQty, 0, len(items))
	for _, it := range items {
		itemQtys = append(itemQtys, events.OrderItemQty{ProductID: it.ProductID, Qty: it.Quantity})
	}
	h.publish(h.PlacedProducer, r, events.EventOrderPlaced, o.ID, events.OrderPlacedPayload{
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       itemQtys,
	})
	h.dropTrackingCache(r, o.ID)

	writeJSON(w, http.StatusCreated, orderView{Order: o, Items: items})
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())
	skip, limit := pagination(r, 10)

	os, err := h.Store.ListForUser(r.Context(), u.ID, skip, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if os == nil {
		os = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *OrdersHandler) listAll(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	skip, limit := pagination(r, 50)
	status := orders.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status: "+string(status))
		return
	}

	os, err := h.Store.ListAll(r.Context(), status, skip, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if os == nil {
		os = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.Store.GetForUser(r.Context(), id, u.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items, err := h.Store.Items(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []orders.Item{}
	}
	writeJSON(w, http.StatusOK, orderView{Order: o, Items: items})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var upd orders.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	before, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	o, err := h.Svc.UpdateStatus(r.Context(), id, upd)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.publish(h.StatusProducer, r, events.EventOrderStatusChanged, o.ID, events.OrderStatusChangedPayload{
		OrderID:        o.ID,
		UserID:         o.UserID,
		From:           string(before.Status),
		To:             string(o.Status),
		TrackingNumber: o.TrackingNumber,
	})
	h.dropTrackingCache(r, o.ID)

	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.Svc.Cancel(r.Context(), id, u.ID)
	if err != nil {
		var pErr *orders.PaymentError
		if errors.As(err, &pErr) {
			// the order is cancelled and stock restored; only the refund
			// failed, and the caller needs to know
			h.publish(h.CancelledProducer, r, events.EventOrderCancelled, id, events.OrderCancelledPayload{
				OrderID: id, UserID: u.ID, Refunded: false, Reason: pErr.Msg,
			})
			h.dropTrackingCache(r, id)
		}
		writeDomainError(w, err)
		return
	}

	h.publish(h.CancelledProducer, r, events.EventOrderCancelled, id, events.OrderCancelledPayload{
		OrderID: id, UserID: u.ID, Refunded: o.PaymentRef != "",
	})
	h.dropTrackingCache(r, id)

	writeJSON(w, http.StatusOK, map[string]string{"message": "order cancelled successfully"})
}

func (h *OrdersHandler) track(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	// read-through cache; mutations drop the key
	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	if h.Redis != nil {
		if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
			var cached orders.TrackingInfo
			if json.Unmarshal([]byte(s), &cached) == nil {
				// ownership still has to hold before serving cached data
				if _, err := h.Store.GetForUser(r.Context(), id, u.ID); err == nil {
					writeJSON(w, http.StatusOK, cached)
					return
				}
			}
		}
	}

	o, err := h.Store.GetForUser(r.Context(), id, u.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	info := orders.BuildTracking(o)
	if h.Redis != nil {
		if b, err := json.Marshal(info); err == nil {
			_ = h.Redis.Set(r.Context(), key, b, redisx.TTLStatusCache).Err()
		}
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *OrdersHandler) publish(p Publisher, r *http.Request, eventType string, orderID int64, payload any) {
	if p == nil {
		return
	}
	ev := events.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: fmt.Sprintf("%d", orderID),
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(events.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) dropTrackingCache(r *http.Request, orderID int64) {
	if h.Redis == nil {
		return
	}
	_ = h.Redis.Del(r.Context(), fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
}

func pagination(r *http.Request, defLimit int) (skip, limit int) {
	q := r.URL.Query()
	skip, _ = strconv.Atoi(q.Get("skip"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = defLimit
	}
	return skip, limit
}

package orders

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/payments"
)

var errGatewayDown = errors.New("gateway unavailable")

type fakeProduct struct {
	name   string
	price  decimal.Decimal
	stock  int
	active bool
}

// fakeStore mirrors PgStore semantics in memory: stock re-check on
// create, status guard on cancel.
type fakeStore struct {
	mu       sync.Mutex
	products map[int64]*fakeProduct
	orders   map[int64]Order
	items    map[int64][]Item
	cart     *fakeCart
	nextID   int64
}

func newFakeStore(cart *fakeCart) *fakeStore {
	return &fakeStore{
		products: map[int64]*fakeProduct{},
		orders:   map[int64]Order{},
		items:    map[int64][]Item{},
		cart:     cart,
	}
}

func (s *fakeStore) CreateConfirmed(ctx context.Context, o *Order, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		p, ok := s.products[it.ProductID]
		if !ok || p.stock < it.Quantity {
			return &ValidationError{Msg: "insufficient stock"}
		}
	}
	for _, it := range items {
		s.products[it.ProductID].stock -= it.Quantity
	}
	s.nextID++
	o.ID = s.nextID
	for i := range items {
		items[i].OrderID = o.ID
	}
	s.orders[o.ID] = *o
	s.items[o.ID] = append([]Item(nil), items...)
	if s.cart != nil {
		s.cart.clear(o.UserID)
	}
	return nil
}

func (s *fakeStore) Get(ctx context.Context, id int64) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (s *fakeStore) GetForUser(ctx context.Context, id, userID int64) (Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil || o.UserID != userID {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (s *fakeStore) ListForUser(ctx context.Context, userID int64, skip, limit int) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) ListAll(ctx context.Context, status Status, skip, limit int) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) Items(ctx context.Context, orderID int64) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items[orderID]...), nil
}

func (s *fakeStore) MarkCancelled(ctx context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	if !CanCancel(o.Status) {
		return &ValidationError{Msg: "order can no longer be cancelled"}
	}
	for _, it := range s.items[orderID] {
		s.products[it.ProductID].stock += it.Quantity
	}
	o.Status = StatusCancelled
	s.orders[orderID] = o
	return nil
}

func (s *fakeStore) SetStatus(ctx context.Context, orderID int64, st Status, tracking string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	o.Status = st
	if tracking != "" {
		o.TrackingNumber = tracking
	}
	s.orders[orderID] = o
	return o, nil
}

func (s *fakeStore) stock(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].stock
}

type fakeCart struct {
	mu    sync.Mutex
	lines map[int64][]cart.Line
}

func newFakeCart() *fakeCart {
	return &fakeCart{lines: map[int64][]cart.Line{}}
}

func (c *fakeCart) Lines(ctx context.Context, userID int64) ([]cart.Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]cart.Line(nil), c.lines[userID]...), nil
}

func (c *fakeCart) add(userID int64, l cart.Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines[userID] = append(c.lines[userID], l)
}

func (c *fakeCart) clear(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lines, userID)
}

func (c *fakeCart) size(userID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines[userID])
}

type fakeGateway struct {
	mu           sync.Mutex
	chargeStatus string
	chargeErr    error
	refundErr    error
	cancelErr    error

	charges []payments.ChargeRequest
	refunds []string
	cancels []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{chargeStatus: payments.StatusSucceeded}
}

func (g *fakeGateway) Charge(ctx context.Context, req payments.ChargeRequest) (payments.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chargeErr != nil {
		return payments.Charge{}, g.chargeErr
	}
	g.charges = append(g.charges, req)
	return payments.Charge{Ref: "pi_test_1", Status: g.chargeStatus}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunds = append(g.refunds, ref)
	return nil
}

func (g *fakeGateway) CancelIntent(ctx context.Context, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.cancels = append(g.cancels, ref)
	return nil
}

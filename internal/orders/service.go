package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/payments"
)

var taxRate = decimal.NewFromFloat(0.08)

// Store is implemented by PgStore; tests substitute an in-memory fake.
type Store interface {
	CreateConfirmed(ctx context.Context, o *Order, items []Item) error
	Get(ctx context.Context, id int64) (Order, error)
	GetForUser(ctx context.Context, id, userID int64) (Order, error)
	ListForUser(ctx context.Context, userID int64, skip, limit int) ([]Order, error)
	ListAll(ctx context.Context, status Status, skip, limit int) ([]Order, error)
	Items(ctx context.Context, orderID int64) ([]Item, error)
	MarkCancelled(ctx context.Context, orderID int64) error
	SetStatus(ctx context.Context, orderID int64, st Status, tracking string) (Order, error)
}

type CartStore interface {
	Lines(ctx context.Context, userID int64) ([]cart.Line, error)
}

type Service struct {
	Store   Store
	Cart    CartStore
	Gateway payments.Gateway
}

type CheckoutInput struct {
	ShippingAddress string `json:"shipping_address"`
	PaymentMethodID string `json:"payment_method_id"`
}

// Checkout turns the user's cart into a confirmed order: validate every
// line against the live catalog, compute the taxed total, charge the
// gateway, then commit rows and clear the cart. A failed charge leaves
// nothing behind. The charge itself sits outside the row transaction, so
// a crash between the two loses the order but not the charge.
func (s *Service) Checkout(ctx context.Context, userID int64, in CheckoutInput) (Order, []Item, error) {
	lines, err := s.Cart.Lines(ctx, userID)
	if err != nil {
		return Order{}, nil, err
	}
	if len(lines) == 0 {
		return Order{}, nil, &ValidationError{Msg: "cart is empty"}
	}

	subtotal := decimal.Zero
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		if !l.IsActive {
			return Order{}, nil, &ValidationError{
				Msg: fmt.Sprintf("product '%s' is no longer available", l.ProductName)}
		}
		if l.StockQuantity < l.Quantity {
			return Order{}, nil, &ValidationError{
				Msg: fmt.Sprintf("only %d units of '%s' available", l.StockQuantity, l.ProductName)}
		}
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		items = append(items, Item{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price})
	}

	total := subtotal.Add(subtotal.Mul(taxRate)).Round(2)
	amountMinor := total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	charge, err := s.Gateway.Charge(ctx, payments.ChargeRequest{
		AmountMinor:     amountMinor,
		Currency:        "usd",
		PaymentMethodID: in.PaymentMethodID,
		Metadata:        map[string]string{"user_id": strconv.FormatInt(userID, 10)},
	})
	if err != nil {
		return Order{}, nil, &PaymentError{Msg: "payment processing failed: " + err.Error(), Err: err}
	}
	if charge.Status != payments.StatusSucceeded {
		return Order{}, nil, &PaymentError{Msg: "payment failed: status " + charge.Status}
	}

	o := Order{
		UserID:          userID,
		TotalAmount:     total,
		Status:          StatusConfirmed,
		ShippingAddress: in.ShippingAddress,
		PaymentRef:      charge.Ref,
	}
	if err := s.Store.CreateConfirmed(ctx, &o, items); err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}

// Cancel restores stock and flips the status in one transaction, then
// tries to undo the payment. A refund failure surfaces to the caller but
// the stock restoration and status change stand.
func (s *Service) Cancel(ctx context.Context, orderID, userID int64) (Order, error) {
	o, err := s.Store.GetForUser(ctx, orderID, userID)
	if err != nil {
		return Order{}, err
	}
	if !CanCancel(o.Status) {
		return Order{}, &ValidationError{
			Msg: fmt.Sprintf("cannot cancel order with status: %s", o.Status)}
	}

	if err := s.Store.MarkCancelled(ctx, orderID); err != nil {
		return Order{}, err
	}

	if o.PaymentRef != "" {
		if o.Status == StatusPending {
			err = s.Gateway.CancelIntent(ctx, o.PaymentRef)
		} else {
			err = s.Gateway.Refund(ctx, o.PaymentRef)
		}
		if err != nil {
			return Order{}, &PaymentError{Msg: "refund failed: " + err.Error(), Err: err}
		}
	}

	o.Status = StatusCancelled
	return o, nil
}

type StatusUpdate struct {
	Status         Status `json:"status"`
	TrackingNumber string `json:"tracking_number"`
}

func (s *Service) UpdateStatus(ctx context.Context, orderID int64, upd StatusUpdate) (Order, error) {
	if !upd.Status.Valid() {
		return Order{}, &ValidationError{Msg: "unknown status: " + string(upd.Status)}
	}
	// cancellation restores stock and undoes the charge; a bare status
	// write would skip both
	if upd.Status == StatusCancelled {
		return Order{}, &ValidationError{Msg: "cancellation must go through the cancel operation"}
	}
	o, err := s.Store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(o.Status, upd.Status) {
		return Order{}, &ValidationError{
			Msg: fmt.Sprintf("illegal transition %s -> %s", o.Status, upd.Status)}
	}

	tracking := upd.TrackingNumber
	if upd.Status == StatusShipped && tracking == "" && o.TrackingNumber == "" {
		tracking = generateTrackingNumber()
	}
	return s.Store.SetStatus(ctx, orderID, upd.Status, tracking)
}

func generateTrackingNumber() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "TRK" + strings.ToUpper(hex.EncodeToString(b))
}

package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

// ValidationError covers client mistakes: empty cart, inactive product,
// insufficient stock, illegal status transition.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// PaymentError marks upstream gateway failures so the HTTP layer can answer 402.
type PaymentError struct {
	Msg string
	Err error
}

func (e *PaymentError) Error() string { return e.Msg }
func (e *PaymentError) Unwrap() error { return e.Err }

type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentRef      string          `json:"payment_ref,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Item freezes product price at purchase time; later catalog edits do not
// touch past orders.
type Item struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

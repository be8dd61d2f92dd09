package payments

import "context"

const StatusSucceeded = "succeeded"

type ChargeRequest struct {
	AmountMinor     int64 // smallest currency unit
	Currency        string
	PaymentMethodID string
	Metadata        map[string]string
}

type Charge struct {
	Ref    string // gateway payment reference
	Status string
}

// Gateway abstracts the payment provider: charge at checkout, refund or
// void on cancellation.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Charge, error)
	Refund(ctx context.Context, ref string) error
	CancelIntent(ctx context.Context, ref string) error
}

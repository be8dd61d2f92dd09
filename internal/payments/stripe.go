package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	stripeBaseURL    = "https://api.stripe.com/v1"
	stripeMaxRetries = 3
	stripeRetryDelay = 1 * time.Second
)

// StripeGateway talks to the Stripe PaymentIntents and Refunds APIs
// directly; requests are form-encoded, responses JSON.
type StripeGateway struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewStripeGateway(apiKey string) *StripeGateway {
	return &StripeGateway{
		apiKey:  apiKey,
		baseURL: stripeBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type stripeIntent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (Charge, error) {
	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}
	form := url.Values{
		"amount":              {strconv.FormatInt(req.AmountMinor, 10)},
		"currency":            {currency},
		"payment_method":      {req.PaymentMethodID},
		"confirmation_method": {"manual"},
		"confirm":             {"true"},
	}
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var intent stripeIntent
	if err := g.post(ctx, "/payment_intents", form, &intent); err != nil {
		return Charge{}, err
	}
	return Charge{Ref: intent.ID, Status: intent.Status}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, ref string) error {
	form := url.Values{
		"payment_intent": {ref},
		"reason":         {"requested_by_customer"},
	}
	var out struct {
		ID string `json:"id"`
	}
	return g.post(ctx, "/refunds", form, &out)
}

func (g *StripeGateway) CancelIntent(ctx context.Context, ref string) error {
	var intent stripeIntent
	return g.post(ctx, "/payment_intents/"+ref+"/cancel", url.Values{}, &intent)
}

func (g *StripeGateway) post(ctx context.Context, path string, form url.Values, out any) error {
	if g.apiKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY not set")
	}
	body := form.Encode()

	var lastErr error
	for attempt := 0; attempt < stripeMaxRetries; attempt++ {
		if attempt > 0 {
			delay := stripeRetryDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			g.baseURL+path, strings.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := g.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("stripe request: %w", err)
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("stripe response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var se stripeError
			if json.Unmarshal(respBody, &se) == nil && se.Error.Message != "" {
				lastErr = fmt.Errorf("stripe (%d): %s", resp.StatusCode, se.Error.Message)
			} else {
				lastErr = fmt.Errorf("stripe (%d): %s", resp.StatusCode, string(respBody))
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return lastErr
		}

		return json.Unmarshal(respBody, out)
	}
	return fmt.Errorf("stripe: retries exhausted: %w", lastErr)
}

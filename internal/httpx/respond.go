package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/identity"
	"storefront/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy onto status codes: missing rows
// 404, client mistakes 400, gateway failures 402, bad credentials 401.
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *orders.ValidationError
	var pErr *orders.PaymentError
	var sErr *cart.StockError

	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, orders.ErrNotFound),
		errors.Is(err, identity.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &vErr), errors.As(err, &sErr),
		errors.Is(err, identity.ErrAlreadyRegistered),
		errors.Is(err, identity.ErrInactiveAccount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &pErr):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

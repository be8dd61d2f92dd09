package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/identity"
)

// CartStore is what the handlers need from the cart; cart.Repo satisfies it.
type CartStore interface {
	List(ctx context.Context, userID int64) ([]cart.Line, error)
	Add(ctx context.Context, userID int64, in cart.AddInput) (cart.Line, error)
	UpdateQuantity(ctx context.Context, userID, itemID int64, qty int) (cart.Line, error)
	Remove(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
}

type CartHandler struct {
	Repo CartStore
}

type cartView struct {
	Items     []cart.Line     `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func (h *CartHandler) list(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())

	lines, err := h.Repo.List(r.Context(), u.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	view := cartView{Items: lines, Subtotal: decimal.Zero}
	if view.Items == nil {
		view.Items = []cart.Line{}
	}
	for _, l := range lines {
		view.ItemCount += l.Quantity
		view.Subtotal = view.Subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())

	var in cart.AddInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.ProductID <= 0 || in.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be >= 1")
		return
	}
	l, err := h.Repo.Add(r.Context(), u.ID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())

	itemID, ok := urlID(r, "itemID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid cart item id")
		return
	}
	var in cart.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be >= 1")
		return
	}
	l, err := h.Repo.UpdateQuantity(r.Context(), u.ID, itemID, in.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())

	if err := h.Repo.Clear(r.Context(), u.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())

	itemID, ok := urlID(r, "itemID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid cart item id")
		return
	}
	if err := h.Repo.Remove(r.Context(), u.ID, itemID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item removed"})
}

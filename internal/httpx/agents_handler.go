package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront/internal/agents"
	"storefront/internal/catalog"
	"storefront/internal/identity"
	"storefront/internal/orders"
)

// ProductGetter is the slice of the catalog the chat endpoints use.
type ProductGetter interface {
	Get(ctx context.Context, id int64) (catalog.Product, error)
}

type AgentsHandler struct {
	Svc     *agents.Service
	Orders  orders.Store
	Catalog ProductGetter
}

func (h *AgentsHandler) Register(r chi.Router) {
	r.Post("/agents/chat", h.chat)
	r.Post("/agents/switch-agent", h.switchAgent)
	r.Get("/agents/available", h.available)
	r.Post("/agents/product-inquiry/{productID}", h.productInquiry)
	r.Get("/agents/order-status/{orderID}", h.orderStatus)
}

type chatRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
}

func (h *AgentsHandler) chat(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctxInfo := map[string]any{}
	for k, v := range req.Context {
		ctxInfo[k] = v
	}
	ctxInfo["user_id"] = u.ID
	ctxInfo["user_name"] = u.DisplayName()
	ctxInfo["user_email"] = u.Email

	// recent orders let the personas answer "where is my stuff" directly
	if recent, err := h.Orders.ListForUser(r.Context(), u.ID, 0, 3); err == nil && len(recent) > 0 {
		summaries := make([]map[string]any, 0, len(recent))
		for _, o := range recent {
			summaries = append(summaries, map[string]any{
				"id":     o.ID,
				"status": o.Status,
				"total":  o.TotalAmount.StringFixed(2),
				"date":   o.CreatedAt.Format(time.RFC3339),
			})
		}
		ctxInfo["recent_orders"] = summaries
	}

	writeJSON(w, http.StatusOK, h.Svc.Route(r.Context(), u.ID, req.Message, ctxInfo))
}

type switchRequest struct {
	AgentType string `json:"agent_type"`
}

func (h *AgentsHandler) switchAgent(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())

	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.Svc.Switch(u.ID, req.AgentType); err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent type")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":    fmt.Sprintf("Switched to %s agent", req.AgentType),
		"agent_type": req.AgentType,
	})
}

func (h *AgentsHandler) available(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"agents": agents.Available()})
}

func (h *AgentsHandler) productInquiry(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())
	productID, ok := urlID(r, "productID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	p, err := h.Catalog.Get(r.Context(), productID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	ctxInfo := map[string]any{
		"product_id":          p.ID,
		"product_name":        p.Name,
		"product_description": p.Description,
		"product_price":       p.Price.StringFixed(2),
		"product_category":    p.Category,
		"product_stock":       p.StockQuantity,
		"user_name":           u.DisplayName(),
	}

	// product questions always go to the expert
	_ = h.Svc.Switch(u.ID, agents.PersonaProductExpert)
	writeJSON(w, http.StatusOK, h.Svc.Respond(r.Context(), u.ID, req.Message, ctxInfo))
}

func (h *AgentsHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())
	orderID, ok := urlID(r, "orderID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.Orders.GetForUser(r.Context(), orderID, u.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	ctxInfo := map[string]any{
		"order_id":         o.ID,
		"order_status":     o.Status,
		"order_total":      o.TotalAmount.StringFixed(2),
		"order_date":       o.CreatedAt.Format(time.RFC3339),
		"tracking_number":  o.TrackingNumber,
		"shipping_address": o.ShippingAddress,
		"user_name":        u.DisplayName(),
	}

	// status questions always go to support
	_ = h.Svc.Switch(u.ID, agents.PersonaSupport)
	msg := fmt.Sprintf("Can you give me an update on my order #%d?", o.ID)
	writeJSON(w, http.StatusOK, h.Svc.Respond(r.Context(), u.ID, msg, ctxInfo))
}

package httpx

import (
	"encoding/json"
	"net/http"

	"storefront/internal/identity"
)

type AuthHandler struct {
	Svc *identity.Service
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in identity.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Email == "" || in.Username == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}
	tok, err := h.Svc.Register(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tok)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in identity.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	tok, err := h.Svc.Login(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	u, _ := identity.UserFrom(r.Context())
	writeJSON(w, http.StatusOK, u)
}

package cart

import (
	"encoding/json"
	"net/http"
	"strings"

	"gocart/internal/api/response"
	apperror "gocart/internal/errors"
	"gocart/internal/pkg/logger"
	"gocart/internal/state/cartstate"
)

// Handler expõe o estado do carrinho para a UI.
type Handler struct {
	State  *cartstate.State
	Logger logger.Logger
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(state *cartstate.State, log logger.Logger) *Handler {
	return &Handler{State: state, Logger: log}
}

// addItemRequest é o payload de POST /v1/cart/items. Quantity ausente vale 1.
type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

// updateQuantityRequest é o payload de PUT /v1/cart/items/{productId}.
type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// GetCartHandler lida com GET /v1/cart (apenas leitura do estado).
func (h *Handler) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, h.Logger, http.StatusOK, h.State.Snapshot())
}

// ReloadCartHandler lida com POST /v1/cart/reload.
func (h *Handler) ReloadCartHandler(w http.ResponseWriter, r *http.Request) {
	h.State.Reload(r.Context())
	h.respond(w)
}

// AddItemHandler lida com POST /v1/cart/items.
func (h *Handler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, h.Logger, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."))
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		response.Error(w, r, h.Logger, apperror.NewValidationError("productId é obrigatório."))
		return
	}

	quantity := cartstate.DefaultQuantity
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	h.State.AddToCart(r.Context(), req.ProductID, quantity)
	h.respond(w)
}

// UpdateQuantityHandler lida com PUT /v1/cart/items/{productId}.
// A quantidade segue sem validação de faixa; o serviço de carrinho decide.
func (h *Handler) UpdateQuantityHandler(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		response.Error(w, r, h.Logger, apperror.NewValidationError("quantity é obrigatório."))
		return
	}

	h.State.UpdateQuantity(r.Context(), r.PathValue("productId"), *req.Quantity)
	h.respond(w)
}

// RemoveItemHandler lida com DELETE /v1/cart/items/{productId}.
func (h *Handler) RemoveItemHandler(w http.ResponseWriter, r *http.Request) {
	h.State.RemoveFromCart(r.Context(), r.PathValue("productId"))
	h.respond(w)
}

// FinalizeHandler lida com POST /v1/cart/finalize. O token vai no campo confirmation.
func (h *Handler) FinalizeHandler(w http.ResponseWriter, r *http.Request) {
	h.State.Finalize(r.Context())
	h.respond(w)
}

func (h *Handler) respond(w http.ResponseWriter) {
	snap := h.State.Snapshot()
	response.JSON(w, h.Logger, response.StateStatus(snap.Error), snap)
}

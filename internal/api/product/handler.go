package product

import (
	"net/http"
	"strings"

	"gocart/internal/api/response"
	apperror "gocart/internal/errors"
	"gocart/internal/pkg/logger"
	"gocart/internal/state/productstate"
)

// Handler expõe os estados de produto para a UI. Ele só dispara operações e lê campos.
type Handler struct {
	List   *productstate.ListState
	Detail *productstate.DetailState
	Logger logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando os estados e o Logger.
func NewHandler(list *productstate.ListState, detail *productstate.DetailState, log logger.Logger) *Handler {
	return &Handler{
		List:   list,
		Detail: detail,
		Logger: log,
	}
}

// ListProductsHandler lida com GET /v1/products: recarrega a listagem e devolve o snapshot.
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	h.List.Load(r.Context())

	snap := h.List.Snapshot()
	response.JSON(w, h.Logger, response.StateStatus(snap.Error), snap)
}

// GetProductByIDHandler lida com GET /v1/products/{id}.
// Um produto ausente com loading=false no corpo significa "não encontrado".
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(r.PathValue("id"))
	if productID == "" {
		response.Error(w, r, h.Logger, apperror.NewValidationError("ID do produto é obrigatório."))
		return
	}

	h.Detail.Load(r.Context(), productID)

	snap := h.Detail.Snapshot()
	response.JSON(w, h.Logger, response.StateStatus(snap.Error), snap)
}

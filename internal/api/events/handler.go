package events

import (
	"encoding/json"
	"fmt"
	"net/http"

	"gocart/internal/pkg/logger"
	"gocart/internal/state/cartstate"
	"gocart/internal/state/productstate"
)

// subscriberBuffer é o buffer de snapshots por conexão; snapshots antigos são descartados.
const subscriberBuffer = 8

// Handler transmite as mudanças de estado como Server-Sent Events.
// Cada evento tem o nome do componente ("products", "product", "cart") e o snapshot em JSON.
type Handler struct {
	List   *productstate.ListState
	Detail *productstate.DetailState
	Cart   *cartstate.State
	Logger logger.Logger
}

// NewHandler cria o handler de eventos.
func NewHandler(list *productstate.ListState, detail *productstate.DetailState, cart *cartstate.State, log logger.Logger) *Handler {
	return &Handler{List: list, Detail: detail, Cart: cart, Logger: log}
}

// StreamHandler lida com GET /v1/events. O estado atual de cada componente é enviado
// primeiro; depois, cada mudança.
func (h *Handler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming não suportado", http.StatusInternalServerError)
		return
	}

	listCh, cancelList := h.List.Subscribe(subscriberBuffer)
	defer cancelList()
	detailCh, cancelDetail := h.Detail.Subscribe(subscriberBuffer)
	defer cancelDetail()
	cartCh, cancelCart := h.Cart.Subscribe(subscriberBuffer)
	defer cancelCart()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, data interface{}) bool {
		payload, err := json.Marshal(data)
		if err != nil {
			h.Logger.Error("Falha ao serializar evento", err)
			return true
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send("products", h.List.Snapshot()) || !send("product", h.Detail.Snapshot()) || !send("cart", h.Cart.Snapshot()) {
		return
	}

	h.Logger.Debug("Assinante de eventos conectado.", map[string]interface{}{"remote_addr": r.RemoteAddr})
	for {
		var ok bool
		select {
		case <-r.Context().Done():
			h.Logger.Debug("Assinante de eventos desconectado.", map[string]interface{}{"remote_addr": r.RemoteAddr})
			return
		case snap := <-listCh:
			ok = send("products", snap)
		case snap := <-detailCh:
			ok = send("product", snap)
		case snap := <-cartCh:
			ok = send("cart", snap)
		}
		if !ok {
			return
		}
	}
}

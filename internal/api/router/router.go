package router

import (
	"net/http"

	"gocart/internal/api/cart"
	"gocart/internal/api/events"
	"gocart/internal/api/product"
)

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
// Os middlewares são aplicados na ordem recebida (o primeiro é o mais externo).
func NewRouter(productHandler *product.Handler, cartHandler *cart.Handler, eventsHandler *events.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	// --- 1. Health Check ---
	mux.HandleFunc("GET /ping", PingHandler)

	// --- 2. Produtos (v1) ---
	mux.HandleFunc("GET /v1/products", productHandler.ListProductsHandler)
	mux.HandleFunc("GET /v1/products/{id}", productHandler.GetProductByIDHandler)

	// --- 3. Carrinho (v1) ---
	mux.HandleFunc("GET /v1/cart", cartHandler.GetCartHandler)
	mux.HandleFunc("POST /v1/cart/reload", cartHandler.ReloadCartHandler)
	mux.HandleFunc("POST /v1/cart/items", cartHandler.AddItemHandler)
	mux.HandleFunc("PUT /v1/cart/items/{productId}", cartHandler.UpdateQuantityHandler)
	mux.HandleFunc("DELETE /v1/cart/items/{productId}", cartHandler.RemoveItemHandler)
	mux.HandleFunc("POST /v1/cart/finalize", cartHandler.FinalizeHandler)

	// --- 4. Eventos (SSE) ---
	mux.HandleFunc("GET /v1/events", eventsHandler.StreamHandler)

	var handler http.Handler = mux
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

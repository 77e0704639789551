// Package cartfake é um serviço de carrinho em memória que fala o mesmo protocolo HTTP
// do serviço real. Usado nos testes dos clients, da API local e do main.
package cartfake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gocart/internal/domain"
	"gocart/internal/pkg/token"
)

// Server implementa http.Handler.
type Server struct {
	mu        sync.Mutex
	carts     map[string]*domain.Cart
	finalized map[string]bool
	catalog   map[string]domain.Product
	calls     []string
	headers   []http.Header
	tokens    *token.Service
}

// New cria o serviço com o catálogo usado para preencher nome e preço dos itens.
func New(products ...domain.Product) *Server {
	s := &Server{
		carts:     make(map[string]*domain.Cart),
		finalized: make(map[string]bool),
		catalog:   make(map[string]domain.Product),
	}
	for _, p := range products {
		s.catalog[p.ID] = p
	}
	return s
}

// RequireToken passa a exigir "Authorization: Bearer <jwt>" válido para tokens, emitido
// para o mesmo chamador do header X-User-Id. Requisições recusadas recebem 401.
func (s *Server) RequireToken(tokens *token.Service) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	return s
}

// Calls devolve as operações recebidas, na ordem ("createCart", "addItem", ...).
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// Headers devolve os headers de cada requisição recebida, na ordem.
func (s *Server) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]http.Header, len(s.headers))
	copy(out, s.headers)
	return out
}

// CartCount devolve quantos carrinhos foram criados.
func (s *Server) CartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.headers = append(s.headers, r.Header.Clone())

	if s.tokens != nil && !s.authorized(r) {
		http.Error(w, "token inválido", http.StatusUnauthorized)
		return
	}

	path := strings.Trim(r.URL.Path, "/")
	var segments []string
	if path != "" {
		segments = strings.Split(path, "/")
	}

	switch {
	case len(segments) == 0 && r.Method == http.MethodPost:
		s.createCart(w)
	case len(segments) == 1 && r.Method == http.MethodGet:
		s.getCart(w, segments[0])
	case len(segments) == 2 && segments[1] == "items" && r.Method == http.MethodPost:
		s.addItem(w, r, segments[0])
	case len(segments) == 2 && segments[1] == "finalize" && r.Method == http.MethodPost:
		s.finalize(w, segments[0])
	case len(segments) == 3 && segments[1] == "items" && r.Method == http.MethodDelete:
		s.removeItem(w, segments[0], segments[2])
	case len(segments) == 3 && segments[1] == "items" && r.Method == http.MethodPut:
		s.updateQuantity(w, r, segments[0], segments[2])
	default:
		http.Error(w, "rota desconhecida", http.StatusNotFound)
	}
}

func (s *Server) createCart(w http.ResponseWriter) {
	s.calls = append(s.calls, "createCart")
	id := uuid.New().String()
	s.carts[id] = &domain.Cart{ID: id, Items: []domain.CartItem{}}
	writeJSON(w, http.StatusCreated, id)
}

func (s *Server) getCart(w http.ResponseWriter, cartID string) {
	s.calls = append(s.calls, "getCart")
	cart, ok := s.carts[cartID]
	if !ok {
		http.Error(w, "carrinho não encontrado", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request, cartID string) {
	s.calls = append(s.calls, "addItem")
	cart, ok := s.mutableCart(w, cartID)
	if !ok {
		return
	}

	var req domain.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity <= 0 {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID == req.ProductID {
			cart.Items[i].Quantity += req.Quantity
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	product, ok := s.catalog[req.ProductID]
	if !ok {
		product = domain.Product{ID: req.ProductID, Name: req.ProductID, Price: decimal.Zero}
	}
	cart.Items = append(cart.Items, domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  req.Quantity,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeItem(w http.ResponseWriter, cartID, productID string) {
	s.calls = append(s.calls, "removeItem")
	cart, ok := s.mutableCart(w, cartID)
	if !ok {
		return
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, "item não encontrado", http.StatusNotFound)
}

func (s *Server) updateQuantity(w http.ResponseWriter, r *http.Request, cartID, productID string) {
	s.calls = append(s.calls, "updateQuantity")
	cart, ok := s.mutableCart(w, cartID)
	if !ok {
		return
	}

	var req domain.UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity <= 0 {
		http.Error(w, "quantidade inválida", http.StatusBadRequest)
		return
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = req.Quantity
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, "item não encontrado", http.StatusNotFound)
}

func (s *Server) finalize(w http.ResponseWriter, cartID string) {
	s.calls = append(s.calls, "finalizeCart")
	if _, ok := s.mutableCart(w, cartID); !ok {
		return
	}
	s.finalized[cartID] = true
	writeJSON(w, http.StatusOK, fmt.Sprintf("CONF-%s", cartID[:8]))
}

func (s *Server) authorized(r *http.Request) bool {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	claims, err := s.tokens.ValidateToken(raw)
	if err != nil {
		return false
	}
	return claims.CallerID == r.Header.Get("X-User-Id")
}

// mutableCart devolve o carrinho se ele existe e ainda não foi finalizado.
func (s *Server) mutableCart(w http.ResponseWriter, cartID string) (*domain.Cart, bool) {
	cart, ok := s.carts[cartID]
	if !ok {
		http.Error(w, "carrinho não encontrado", http.StatusNotFound)
		return nil, false
	}
	if s.finalized[cartID] {
		http.Error(w, "carrinho já finalizado", http.StatusConflict)
		return nil, false
	}
	return cart, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

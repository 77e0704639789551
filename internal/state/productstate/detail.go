package productstate

import (
	"context"
	"sync"

	"gocart/internal/domain"
	"gocart/internal/pkg/logger"
	"gocart/internal/pkg/notify"
)

// DetailSnapshot é uma cópia imutável dos campos de DetailState.
// Product nil com Loading false significa "não encontrado".
type DetailSnapshot struct {
	ProductID string          `json:"productId"`
	Product   *domain.Product `json:"product"`
	Loading   bool            `json:"loading"`
	Error     string          `json:"error,omitempty"`
}

// DetailState guarda um único produto, escopado ao último id pedido.
type DetailState struct {
	catalog CatalogClient
	logger  logger.Logger
	changes *notify.Broadcaster[DetailSnapshot]

	mu        sync.RWMutex
	productID string
	product   *domain.Product
	loading   bool
	err       string
	seq       uint64 // identifica o Load mais recente
}

// NewDetailState cria o estado de detalhe, sem produto.
func NewDetailState(catalog CatalogClient, log logger.Logger) *DetailState {
	return &DetailState{
		catalog: catalog,
		logger:  log.With(map[string]interface{}{"component": "product_detail_state"}),
		changes: notify.NewBroadcaster[DetailSnapshot](),
	}
}

// Load busca o produto id. Trocar de id descarta o produto anterior; um resultado que
// chega depois de um Load mais novo é ignorado.
func (s *DetailState) Load(ctx context.Context, id string) {
	var seq uint64
	s.update(func() {
		s.seq++
		seq = s.seq
		if s.productID != id {
			s.product = nil
		}
		s.productID = id
		s.loading = true
		s.err = ""
	})

	product, err := s.catalog.GetProduct(ctx, id)

	s.update(func() {
		if seq != s.seq {
			s.logger.Debug("Resultado descartado: produto trocado durante o carregamento.", map[string]interface{}{"product_id": id})
			return
		}
		defer func() { s.loading = false }()
		if err != nil {
			s.logger.Error("Falha ao carregar detalhes do produto.", err)
			s.err = ErrMsgLoadProduct
			return
		}
		s.product = product
	})
}

// ProductID devolve o id do último Load.
func (s *DetailState) ProductID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.productID
}

// Product devolve uma cópia do produto carregado, ou nil.
func (s *DetailState) Product() *domain.Product {
	return s.Snapshot().Product
}

// Loading indica se há um carregamento em andamento.
func (s *DetailState) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Error devolve a mensagem do último erro ("" quando não há erro).
func (s *DetailState) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Snapshot devolve uma cópia de todos os campos.
func (s *DetailState) Snapshot() DetailSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe recebe um snapshot a cada mudança de estado.
func (s *DetailState) Subscribe(buffer int) (<-chan DetailSnapshot, func()) {
	return s.changes.Subscribe(buffer)
}

func (s *DetailState) snapshotLocked() DetailSnapshot {
	snap := DetailSnapshot{ProductID: s.productID, Loading: s.loading, Error: s.err}
	if s.product != nil {
		p := *s.product
		snap.Product = &p
	}
	return snap
}

func (s *DetailState) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.changes.Publish(snap)
}

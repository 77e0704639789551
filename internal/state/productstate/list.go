package productstate

import (
	"context"
	"sync"

	"gocart/internal/domain"
	"gocart/internal/pkg/logger"
	"gocart/internal/pkg/notify"
)

// ListSnapshot é uma cópia imutável dos campos de ListState.
type ListSnapshot struct {
	Items   []domain.Product `json:"items"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
}

// ListState guarda a listagem do catálogo mais as flags de carregamento e erro.
type ListState struct {
	catalog CatalogClient
	logger  logger.Logger
	changes *notify.Broadcaster[ListSnapshot]

	mu      sync.RWMutex
	items   []domain.Product
	loading bool
	err     string
}

// NewListState cria o estado da listagem, ainda vazio.
func NewListState(catalog CatalogClient, log logger.Logger) *ListState {
	return &ListState{
		catalog: catalog,
		logger:  log.With(map[string]interface{}{"component": "product_list_state"}),
		changes: notify.NewBroadcaster[ListSnapshot](),
		items:   []domain.Product{},
	}
}

// Load recarrega a listagem. Em caso de erro os itens anteriores são preservados.
func (s *ListState) Load(ctx context.Context) {
	s.update(func() {
		s.loading = true
		s.err = ""
	})

	products, err := s.catalog.ListProducts(ctx)

	s.update(func() {
		defer func() { s.loading = false }()
		if err != nil {
			s.logger.Error("Falha ao carregar produtos.", err)
			s.err = ErrMsgLoadProducts
			return
		}
		if products == nil {
			products = []domain.Product{}
		}
		s.items = products
	})
	if err == nil {
		s.logger.Debug("Listagem de produtos carregada.", map[string]interface{}{"count": len(products)})
	}
}

// Items devolve uma cópia da listagem atual.
func (s *ListState) Items() []domain.Product {
	return s.Snapshot().Items
}

// Loading indica se há um carregamento em andamento.
func (s *ListState) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Error devolve a mensagem do último erro ("" quando não há erro).
func (s *ListState) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Snapshot devolve uma cópia de todos os campos.
func (s *ListState) Snapshot() ListSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe recebe um snapshot a cada mudança de estado.
func (s *ListState) Subscribe(buffer int) (<-chan ListSnapshot, func()) {
	return s.changes.Subscribe(buffer)
}

func (s *ListState) snapshotLocked() ListSnapshot {
	items := make([]domain.Product, len(s.items))
	copy(items, s.items)
	return ListSnapshot{Items: items, Loading: s.loading, Error: s.err}
}

// update aplica fn sob o lock e publica o snapshot resultante.
func (s *ListState) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.changes.Publish(snap)
}

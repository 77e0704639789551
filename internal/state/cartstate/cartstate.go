// Package cartstate é a máquina de estados do carrinho: identidade do carrinho,
// criação preguiçosa, mutações seguidas de recarga e totais derivados.
package cartstate

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"gocart/internal/domain"
	"gocart/internal/pkg/logger"
	"gocart/internal/pkg/notify"
)

// DefaultQuantity é a quantidade adicionada quando o chamador não informa uma.
const DefaultQuantity = 1

// Mensagens de erro expostas à UI.
const (
	ErrMsgInitialize     = "Falha ao inicializar o carrinho"
	ErrMsgLoad           = "Falha ao carregar o carrinho"
	ErrMsgAddItem        = "Falha ao adicionar item ao carrinho"
	ErrMsgRemoveItem     = "Falha ao remover item do carrinho"
	ErrMsgUpdateQuantity = "Falha ao atualizar a quantidade"
	ErrMsgFinalize       = "Falha ao finalizar o carrinho"
)

// CartClient é o contrato que o estado espera do client do carrinho.
type CartClient interface {
	CreateCart(ctx context.Context) (string, error)
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) error
	FinalizeCart(ctx context.Context, cartID string) (string, error)
}

// Snapshot é uma cópia imutável do estado, com os valores derivados já calculados.
type Snapshot struct {
	CartID       string          `json:"cartId,omitempty"`
	Cart         *domain.Cart    `json:"cart"`
	Loading      bool            `json:"loading"`
	Error        string          `json:"error,omitempty"`
	Confirmation string          `json:"confirmation,omitempty"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	ItemCount    int             `json:"itemCount"`
}

// State é dono exclusivo do id do carrinho e do último snapshot devolvido pelo serviço.
//
// As operações são serializadas por instância: no máximo uma está em andamento e as
// seguintes esperam. Assim duas chamadas simultâneas de AddToCart num estado novo criam
// um único carrinho; a segunda já encontra o id definido pela primeira.
type State struct {
	client  CartClient
	logger  logger.Logger
	changes *notify.Broadcaster[Snapshot]

	opMu sync.Mutex // serializa as operações

	mu           sync.RWMutex // protege os campos abaixo
	cartID       string
	cart         *domain.Cart
	depth        int // operações aninhadas em andamento; loading = depth > 0
	err          string
	confirmation string
}

// New cria o estado do carrinho, sem carrinho.
func New(client CartClient, log logger.Logger) *State {
	return &State{
		client:  client,
		logger:  log.With(map[string]interface{}{"component": "cart_state"}),
		changes: notify.NewBroadcaster[Snapshot](),
	}
}

// --- Operações ---

// Initialize cria um carrinho no serviço e carrega o seu conteúdo.
// Em caso de falha o id continua indefinido. O carrinho é criado no máximo uma vez:
// com o id já definido, Initialize apenas recarrega.
func (s *State) Initialize(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.CartID() != "" {
		s.reload(ctx)
		return
	}
	s.initialize(ctx)
}

// Reload busca o snapshot completo do carrinho. Não faz nada sem id.
// Em caso de falha o snapshot anterior é preservado.
func (s *State) Reload(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.reload(ctx)
}

// AddToCart adiciona quantity unidades de productID, criando o carrinho se ainda não existir.
// Se a criação falhar o item não é enviado e o erro de inicialização permanece.
func (s *State) AddToCart(ctx context.Context, productID string, quantity int) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.CartID() == "" {
		if !s.initialize(ctx) {
			return
		}
	}

	s.mutate(ctx, ErrMsgAddItem, func(cartID string) error {
		return s.client.AddItem(ctx, cartID, productID, quantity)
	})
}

// RemoveFromCart remove productID. Não faz nada sem id.
func (s *State) RemoveFromCart(ctx context.Context, productID string) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.CartID() == "" {
		return
	}
	s.mutate(ctx, ErrMsgRemoveItem, func(cartID string) error {
		return s.client.RemoveItem(ctx, cartID, productID)
	})
}

// UpdateQuantity define a quantidade de productID. Não faz nada sem id.
// A quantidade segue para o serviço sem validação local.
func (s *State) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.CartID() == "" {
		return
	}
	s.mutate(ctx, ErrMsgUpdateQuantity, func(cartID string) error {
		return s.client.UpdateQuantity(ctx, cartID, productID, quantity)
	})
}

// Finalize pede a finalização do carrinho e devolve o token de confirmação.
// Sem id não faz nada e devolve "". Em caso de falha devolve "" e o erro fica no estado.
func (s *State) Finalize(ctx context.Context) string {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	cartID := s.CartID()
	if cartID == "" {
		return ""
	}

	s.begin()
	defer s.end()

	confirmation, err := s.client.FinalizeCart(ctx, cartID)
	if err != nil {
		s.fail(ErrMsgFinalize, err)
		return ""
	}

	s.update(func() { s.confirmation = confirmation })
	s.logger.Info("Carrinho finalizado.", map[string]interface{}{"cart_id": cartID})
	s.reload(ctx)
	return confirmation
}

// --- Procedimentos internos (chamados com opMu já adquirido) ---

// initialize devolve true se o carrinho foi criado.
func (s *State) initialize(ctx context.Context) bool {
	s.begin()
	defer s.end()

	cartID, err := s.client.CreateCart(ctx)
	if err != nil {
		s.fail(ErrMsgInitialize, err)
		return false
	}

	s.update(func() { s.cartID = cartID })
	s.logger.Info("Carrinho criado.", map[string]interface{}{"cart_id": cartID})

	s.reload(ctx)
	return true
}

func (s *State) reload(ctx context.Context) {
	cartID := s.CartID()
	if cartID == "" {
		return
	}

	s.begin()
	defer s.end()

	cart, err := s.client.GetCart(ctx, cartID)
	if err != nil {
		s.fail(ErrMsgLoad, err)
		return
	}

	// Substituição integral: o serviço é a única fonte da verdade.
	s.update(func() { s.cart = cart.Clone() })
	s.logger.Debug("Carrinho recarregado.", map[string]interface{}{"cart_id": cartID, "items": len(cart.Items)})
}

// mutate executa call e, se der certo, recarrega o carrinho. O snapshot nunca é
// alterado localmente.
func (s *State) mutate(ctx context.Context, errMsg string, call func(cartID string) error) {
	s.begin()
	defer s.end()

	if err := call(s.CartID()); err != nil {
		s.fail(errMsg, err)
		return
	}
	s.reload(ctx)
}

// begin marca o início de uma operação: loading=true e erro limpo.
func (s *State) begin() {
	s.update(func() {
		s.depth++
		s.err = ""
	})
}

// end marca o fim de uma operação. loading volta a false quando a operação mais externa termina.
func (s *State) end() {
	s.update(func() { s.depth-- })
}

func (s *State) fail(msg string, err error) {
	s.logger.Error(msg+".", err)
	s.update(func() { s.err = msg })
}

func (s *State) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.changes.Publish(snap)
}

// --- Leitura ---

// CartID devolve o id do carrinho ("" se ainda não foi criado).
func (s *State) CartID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cartID
}

// Cart devolve uma cópia do último snapshot do carrinho, ou nil.
func (s *State) Cart() *domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Loading indica se há uma operação em andamento.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.depth > 0
}

// Error devolve a mensagem do último erro ("" quando não há erro).
func (s *State) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Confirmation devolve o token da última finalização bem-sucedida.
func (s *State) Confirmation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.confirmation
}

// TotalAmount é a soma de preço × quantidade do carrinho atual; zero sem carrinho.
// Calculado a cada leitura, nunca armazenado.
func (s *State) TotalAmount() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.TotalAmount()
}

// ItemCount é a soma das quantidades do carrinho atual; zero sem carrinho.
func (s *State) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.ItemCount()
}

// Snapshot devolve uma cópia de todos os campos e valores derivados.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe recebe um Snapshot a cada mudança de estado.
func (s *State) Subscribe(buffer int) (<-chan Snapshot, func()) {
	return s.changes.Subscribe(buffer)
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		CartID:       s.cartID,
		Cart:         s.cart.Clone(),
		Loading:      s.depth > 0,
		Error:        s.err,
		Confirmation: s.confirmation,
		TotalAmount:  s.cart.TotalAmount(),
		ItemCount:    s.cart.ItemCount(),
	}
}

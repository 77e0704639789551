package cartstate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gocart/internal/domain"
	"gocart/internal/pkg/logger"
	"gocart/internal/state/cartstate"
)

// MockCartClient é uma implementação mock da interface CartClient que também
// registra a ordem das chamadas.
type MockCartClient struct {
	mock.Mock

	mu    sync.Mutex
	order []string
}

func (m *MockCartClient) record(name string) {
	m.mu.Lock()
	m.order = append(m.order, name)
	m.mu.Unlock()
}

func (m *MockCartClient) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

func (m *MockCartClient) CreateCart(ctx context.Context) (string, error) {
	m.record("CreateCart")
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockCartClient) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	m.record("GetCart")
	args := m.Called(ctx, cartID)
	cart, _ := args.Get(0).(*domain.Cart)
	return cart, args.Error(1)
}

func (m *MockCartClient) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	m.record("AddItem")
	return m.Called(ctx, cartID, productID, quantity).Error(0)
}

func (m *MockCartClient) RemoveItem(ctx context.Context, cartID, productID string) error {
	m.record("RemoveItem")
	return m.Called(ctx, cartID, productID).Error(0)
}

func (m *MockCartClient) UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) error {
	m.record("UpdateQuantity")
	return m.Called(ctx, cartID, productID, quantity).Error(0)
}

func (m *MockCartClient) FinalizeCart(ctx context.Context, cartID string) (string, error) {
	m.record("FinalizeCart")
	args := m.Called(ctx, cartID)
	return args.String(0), args.Error(1)
}

var errTransport = errors.New("dial tcp 10.0.2.2:5265: connection refused")

func cartWith(items ...domain.CartItem) *domain.Cart {
	return &domain.Cart{ID: "C1", Items: items}
}

func coffee(quantity int) domain.CartItem {
	return domain.CartItem{ProductID: "P1", Name: "Café", Price: decimal.RequireFromString("9.99"), Quantity: quantity}
}

// newInitializedState devolve um estado que já criou o carrinho C1 (com conteúdo initial).
func newInitializedState(t *testing.T, mockClient *MockCartClient, initial *domain.Cart) *cartstate.State {
	t.Helper()
	mockClient.On("CreateCart", mock.Anything).Return("C1", nil).Once()
	mockClient.On("GetCart", mock.Anything, "C1").Return(initial, nil).Once()

	state := cartstate.New(mockClient, logger.NewNop())
	state.Initialize(context.Background())
	require.Equal(t, "C1", state.CartID())
	require.Empty(t, state.Error())
	return state
}

// TestAddToCart_FreshState_CreatesAddsReloads: criação preguiçosa na primeira escrita.
func TestAddToCart_FreshState_CreatesAddsReloads(t *testing.T) {
	mockClient := new(MockCartClient)
	empty := cartWith()
	filled := cartWith(coffee(2))
	mockClient.On("CreateCart", mock.Anything).Return("C1", nil).Once()
	mockClient.On("GetCart", mock.Anything, "C1").Return(empty, nil).Once()
	mockClient.On("AddItem", mock.Anything, "C1", "P1", 2).Return(nil).Once()
	mockClient.On("GetCart", mock.Anything, "C1").Return(filled, nil).Once()

	state := cartstate.New(mockClient, logger.NewNop())
	state.AddToCart(context.Background(), "P1", 2)

	assert.Equal(t, []string{"CreateCart", "GetCart", "AddItem", "GetCart"}, mockClient.Order())
	assert.Equal(t, "C1", state.CartID())
	assert.Equal(t, filled, state.Cart())
	assert.True(t, decimal.RequireFromString("19.98").Equal(state.TotalAmount()), state.TotalAmount().String())
	assert.Equal(t, 2, state.ItemCount())
	assert.False(t, state.Loading())
	assert.Empty(t, state.Error())
	mockClient.AssertNumberOfCalls(t, "CreateCart", 1)
	mockClient.AssertNumberOfCalls(t, "AddItem", 1)
	mockClient.AssertExpectations(t)
}

// TestAddToCart_ExistingCart_DoesNotCreate: com id definido não há nova criação.
func TestAddToCart_ExistingCart_DoesNotCreate(t *testing.T) {
	mockClient := new(MockCartClient)
	state := newInitializedState(t, mockClient, cartWith())

	updated := cartWith(coffee(1))
	mockClient.On("AddItem", mock.Anything, "C1", "P1", cartstate.DefaultQuantity).Return(nil).Once()
	mockClient.On("GetCart", mock.Anything, "C1").Return(updated, nil).Once()

	state.AddToCart(context.Background(), "P1", cartstate.DefaultQuantity)

	assert.Equal(t, updated, state.Cart())
	mockClient.AssertNumberOfCalls(t, "CreateCart", 1)
	mockClient.AssertExpectations(t)
}

// TestMutation_CartIsServerResponse: o snapshot é a resposta do GetCart, nunca uma fusão local.
func TestMutation_CartIsServerResponse(t *testing.T) {
	mockClient := new(MockCartClient)
	state := newInitializedState(t, mockClient, cartWith(coffee(2)))

	// O serviço aplica a sua própria regra (ex.: limite de estoque) e devolve 3, não 7.
	server := cartWith(coffee(3))
	mockClient.On("UpdateQuantity", mock.Anything, "C1", "P1", 7).Return(nil).Once()
	mockClient.On("GetCart", mock.Anything, "C1").Return(server, nil).Once()

	state.UpdateQuantity(context.Background(), "P1", 7)

	assert.Equal(t, server, state.Cart())
	assert.Equal(t, 3, state.ItemCount())
	mockClient.AssertExpectations(t)
}

// TestMutationFailure_PreservesCart: falhas deixam o carrinho intacto, erro definido e loading=false.
func TestMutationFailure_PreservesCart(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(m *MockCartClient)
		run    func(s *cartstate.State)
		errMsg string
	}{
		{
			name:   "add",
			setup:  func(m *MockCartClient) { m.On("AddItem", mock.Anything, "C1", "P2", 1).Return(errTransport) },
			run:    func(s *cartstate.State) { s.AddToCart(context.Background(), "P2", 1) },
			errMsg: cartstate.ErrMsgAddItem,
		},
		{
			name:   "remove",
			setup:  func(m *MockCartClient) { m.On("RemoveItem", mock.Anything, "C1", "P1").Return(errTransport) },
			run:    func(s *cartstate.State) { s.RemoveFromCart(context.Background(), "P1") },
			errMsg: cartstate.ErrMsgRemoveItem,
		},
		{
			name:   "update",
			setup:  func(m *MockCartClient) { m.On("UpdateQuantity", mock.Anything, "C1", "P1", 4).Return(errTransport) },
			run:    func(s *cartstate.State) { s.UpdateQuantity(context.Background(), "P1", 4) },
			errMsg: cartstate.ErrMsgUpdateQuantity,
		},
		{
			name:   "reload",
			setup:  func(m *MockCartClient) { m.On("GetCart", mock.Anything, "C1").Return(nil, errTransport) },
			run:    func(s *cartstate.State) { s.Reload(context.Background()) },
			errMsg: cartstate.ErrMsgLoad,
		},
		{
			name: "reload after successful mutation",
			setup: func(m *MockCartClient) {
				m.On("AddItem", mock.Anything, "C1", "P1", 1).Return(nil)
				m.On("GetCart", mock.Anything, "C1").Return(nil, errTransport)
			},
			run:    func(s *cartstate.State) { s.AddToCart(context.Background(), "P1", 1) },
			errMsg: cartstate.ErrMsgLoad,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockClient := new(MockCartClient)
			before := cartWith(coffee(2))
			state := newInitializedState(t, mockClient, before)
			tc.setup(mockClient)

			tc.run(state)

			assert.Equal(t, before, state.Cart())
			assert.Equal(t, tc.errMsg, state.Error())
			assert.False(t, state.Loading())
			assert.Equal(t, "C1", state.CartID())
		})
	}
}

// TestMutationFailure_NoReload: uma mutação que falha não dispara GetCart.
func TestMutationFailure_NoReload(t *testing.T) {
	mockClient := new(MockCartClient)
	state := newInitializedState(t, mockClient, cartWith(coffee(1)))
	mockClient.On("RemoveItem", mock.Anything, "C1", "P1").Return(errTransport).Once()

	state.RemoveFromCart(context.Background(), "P1")

	mockClient.AssertNumberOfCalls(t, "GetCart", 1) // apenas o da inicialização
}

// TestNoCartID_NoOps: sem id, remover/atualizar/recarregar/finalizar não chamam o serviço.
func TestNoCartID_NoOps(t *testing.T) {
	mockClient := new(MockCartClient)
	state := cartstate.New(mockClient, logger.NewNop())
	before := state.Snapshot()

	state.RemoveFromCart(context.Background(), "P1")
	state.UpdateQuantity(context.Background(), "P1", 3)
	state.Reload(context.Background())
	confirmation := state.Finalize(context.Background())

	assert.Empty(t, confirmation)
	assert.Empty(t, mockClient.Order())
	assert.Equal(t, before, state.Snapshot())
	assert.Empty(t, state.Error())
}

// TestInitializeFailure_LeavesIDUnset.
func TestInitializeFailure_LeavesIDUnset(t *testing.T) {
	mockClient := new(MockCartClient)
	mockClient.On("CreateCart", mock.Anything).Return("", errTransport).Once()

	state := cartstate.New(mockClient, logger.NewNop())
	state.Initialize(context.Background())

	assert.Empty(t, state.CartID())
	assert.Nil(t, state.Cart())
	assert.Equal(t, cartstate.ErrMsgInitialize, state.Error())
	assert.False(t, state.Loading())
	mockClient.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
}

// TestInitialize_Twice_CreatesOnce: o id nunca é substituído por um segundo carrinho.
func TestInitialize_Twice_CreatesOnce(t *testing.T) {
	mockClient := new(MockCartClient)
	mockClient.On("CreateCart", mock.Anything).Return("C1", nil).Once()
	mockClient.On("CreateCart", mock.Anything).Return("C2", nil).Maybe()
	mockClient.On("GetCart", mock.Anything, "C1").Return(cartWith(coffee(1)), nil).Twice()

	state := cartstate.New(mockClient, logger.NewNop())
	state.Initialize(context.Background())
	state.Initialize(context.Background())

	assert.Equal(t, "C1", state.CartID())
	assert.Equal(t, []string{"CreateCart", "GetCart", "GetCart"}, mockClient.Order())
	assert.Empty(t, state.Error())
	mockClient.AssertNumberOfCalls(t, "CreateCart", 1)
}

// TestAddToCart_InitializeFailure_SkipsAddItem: sem carrinho o item não é enviado.
func TestAddToCart_InitializeFailure_SkipsAddItem(t *testing.T) {
	mockClient := new(MockCartClient)
	mockClient.On("CreateCart", mock.Anything).Return("", errTransport).Once()

	state := cartstate.New(mockClient, logger.NewNop())
	state.AddToCart(context.Background(), "P1", 1)

	assert.Equal(t, []string{"CreateCart"}, mockClient.Order())
	assert.Equal(t, cartstate.ErrMsgInitialize, state.Error())
	assert.Empty(t, state.CartID())
	assert.False(t, state.Loading())

	// Uma nova tentativa cria o carrinho normalmente.
	mockClient.On("CreateCart", mock.Anything).Return("C1", nil).Once()
	mockClient.On("GetCart", mock.Anything, "C1").Return(cartWith(coffee(1)), nil)
	mockClient.On("AddItem", mock.Anything, "C1", "P1", 1).Return(nil).Once()

	state.AddToCart(context.Background(), "P1", 1)

	assert.Equal(t, "C1", state.CartID())
	assert.Empty(t, state.Error())
	assert.Equal(t, 1, state.ItemCount())
}

// TestUpdateQuantity_NonPositivePassesThrough: a quantidade não é validada localmente.
func TestUpdateQuantity_NonPositivePassesThrough(t *testing.T) {
	mockClient := new(MockCartClient)
	state := newInitializedState(t, mockClient, cartWith(coffee(1)))
	mockClient.On("UpdateQuantity", mock.Anything, "C1", "P1", 0).Return(errors.New("400 Bad Request")).Once()

	state.UpdateQuantity(context.Background(), "P1", 0)

	mockClient.AssertCalled(t, "UpdateQuantity", mock.Anything, "C1", "P1", 0)
	assert.Equal(t, cartstate.ErrMsgUpdateQuantity, state.Error())
}

// TestDerivedValues_NoCart: sem carrinho, total e contagem são zero.
func TestDerivedValues_NoCart(t *testing.T) {
	state := cartstate.New(new(MockCartClient), logger.NewNop())

	assert.True(t, state.TotalAmount().IsZero())
	assert.Equal(t, 0, state.ItemCount())

	snap := state.Snapshot()
	assert.True(t, snap.TotalAmount.IsZero())
	assert.Equal(t, 0, snap.ItemCount)
}

// TestDerivedValues_FollowSnapshot: os derivados acompanham cada snapshot do servidor.
func TestDerivedValues_FollowSnapshot(t *testing.T) {
	mockClient := new(MockCartClient)
	state := newInitializedState(t, mockClient, cartWith())
	assert.True(t, state.TotalAmount().IsZero())
	assert.Equal(t, 0, state.ItemCount())

	tea := domain.CartItem{ProductID: "P2", Name: "Chá", Price: decimal.RequireFromString("4.50"), Quantity: 3}
	mockClient.On("AddItem", mock.Anything, "C1", "P2", 3).Return(nil).Once()
	mockClient.On("GetCart", mock.Anything, "C1").Return(cartWith(coffee(2), tea), nil).Once()

	state.AddToCart(context.Background(), "P2", 3)

	assert.True(t, decimal.RequireFromString("33.48").Equal(state.TotalAmount()), state.TotalAmount().String())
	assert.Equal(t, 5, state.ItemCount())
}

// TestConcurrentAddToCart_SingleCart: as operações são serializadas, então duas chamadas
// simultâneas num estado novo criam exatamente um carrinho.
func TestConcurrentAddToCart_SingleCart(t *testing.T) {
	mockClient := new(MockCartClient)
	mockClient.On("CreateCart", mock.Anything).Return("C1", nil).After(20 * time.Millisecond)
	mockClient.On("GetCart", mock.Anything, "C1").Return(cartWith(coffee(2)), nil)
	mockClient.On("AddItem", mock.Anything, "C1", "P1", 1).Return(nil)

	state := cartstate.New(mockClient, logger.NewNop())

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			state.AddToCart(context.Background(), "P1", 1)
		}()
	}
	close(start)
	wg.Wait()

	mockClient.AssertNumberOfCalls(t, "CreateCart", 1)
	mockClient.AssertNumberOfCalls(t, "AddItem", 2)
	assert.Equal(t, "C1", state.CartID())
	assert.False(t, state.Loading())
}

// TestOperationsAreSerialized: uma operação só começa depois que a anterior termina.
func TestOperationsAreSerialized(t *testing.T) {
	mockClient := new(MockCartClient)
	state := newInitializedState(t, mockClient, cartWith(coffee(1)))

	release := make(chan time.Time)
	mockClient.On("AddItem", mock.Anything, "C1", "P1", 1).Return(nil).WaitUntil(release).Once()
	mockClient.On("RemoveItem", mock.Anything, "C1", "P1").Return(nil).Once()
	mockClient.On("GetCart", mock.Anything, "C1").Return(cartWith(coffee(2)), nil).Once()
	mockClient.On("GetCart", mock.Anything, "C1").Return(cartWith(), nil).Once()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		state.AddToCart(context.Background(), "P1", 1)
	}()
	require.Eventually(t, func() bool { return state.Loading() }, time.Second, time.Millisecond)
	go func() {
		defer wg.Done()
		state.RemoveFromCart(context.Background(), "P1")
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	order := mockClient.Order()
	assert.Equal(t, []string{"CreateCart", "GetCart", "AddItem", "GetCart", "RemoveItem", "GetCart"}, order)
	assert.Equal(t, 0, state.ItemCount())
}

// TestFinalize_Success guarda o token e recarrega.
func TestFinalize_Success(t *testing.T) {
	mockClient := new(MockCartClient)
	state := newInitializedState(t, mockClient, cartWith(coffee(1)))
	mockClient.On("FinalizeCart", mock.Anything, "C1").Return("CONF-1", nil).Once()
	mockClient.On("GetCart", mock.Anything, "C1").Return(cartWith(coffee(1)), nil).Once()

	confirmation := state.Finalize(context.Background())

	assert.Equal(t, "CONF-1", confirmation)
	assert.Equal(t, "CONF-1", state.Confirmation())
	assert.Equal(t, "C1", state.CartID(), "o id nunca é limpo")
	assert.Equal(t, []string{"CreateCart", "GetCart", "FinalizeCart", "GetCart"}, mockClient.Order())
}

// TestFinalize_Failure preserva o carrinho e expõe o erro.
func TestFinalize_Failure(t *testing.T) {
	mockClient := new(MockCartClient)
	before := cartWith(coffee(1))
	state := newInitializedState(t, mockClient, before)
	mockClient.On("FinalizeCart", mock.Anything, "C1").Return("", errTransport).Once()

	confirmation := state.Finalize(context.Background())

	assert.Empty(t, confirmation)
	assert.Empty(t, state.Confirmation())
	assert.Equal(t, before, state.Cart())
	assert.Equal(t, cartstate.ErrMsgFinalize, state.Error())
	assert.False(t, state.Loading())
}

// TestSubscribe_ObservesLoadingTransitions.
func TestSubscribe_ObservesLoadingTransitions(t *testing.T) {
	mockClient := new(MockCartClient)
	mockClient.On("CreateCart", mock.Anything).Return("C1", nil)
	mockClient.On("GetCart", mock.Anything, "C1").Return(cartWith(coffee(2)), nil)

	state := cartstate.New(mockClient, logger.NewNop())
	changes, cancel := state.Subscribe(64)
	defer cancel()

	state.Initialize(context.Background())

	var snaps []cartstate.Snapshot
	for len(changes) > 0 {
		snaps = append(snaps, <-changes)
	}
	require.NotEmpty(t, snaps)
	assert.True(t, snaps[0].Loading)
	last := snaps[len(snaps)-1]
	assert.False(t, last.Loading)
	assert.Equal(t, "C1", last.CartID)
	assert.Equal(t, 2, last.ItemCount)
}

// TestCart_ReturnsCopy: o chamador não consegue alterar o snapshot do estado.
func TestCart_ReturnsCopy(t *testing.T) {
	mockClient := new(MockCartClient)
	state := newInitializedState(t, mockClient, cartWith(coffee(2)))

	cart := state.Cart()
	cart.Items[0].Quantity = 99

	assert.Equal(t, 2, state.ItemCount())
}

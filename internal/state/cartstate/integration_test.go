package cartstate_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocart/internal/client/cartclient"
	"gocart/internal/client/cartclient/cartfake"
	"gocart/internal/domain"
	"gocart/internal/pkg/logger"
	"gocart/internal/state/cartstate"
)

func newServiceBackedState(t *testing.T) (*cartstate.State, *cartfake.Server) {
	t.Helper()
	fake := cartfake.New(domain.Product{ID: "P1", Name: "Café", Price: decimal.RequireFromString("9.99")})
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := cartclient.NewClient(cartclient.Config{
		BaseURL:  srv.URL,
		CallerID: "00000000-0000-0000-0000-000000000001",
	}, logger.NewNop())
	return cartstate.New(client, logger.NewNop()), fake
}

func TestCartState_AgainstCartService(t *testing.T) {
	state, fake := newServiceBackedState(t)
	ctx := context.Background()

	state.AddToCart(ctx, "P1", 2)

	require.Empty(t, state.Error())
	assert.True(t, decimal.RequireFromString("19.98").Equal(state.TotalAmount()))
	assert.Equal(t, 2, state.ItemCount())

	state.UpdateQuantity(ctx, "P1", 0)
	assert.Equal(t, cartstate.ErrMsgUpdateQuantity, state.Error())
	assert.Equal(t, 2, state.ItemCount())

	state.RemoveFromCart(ctx, "P1")
	require.Empty(t, state.Error())
	assert.Equal(t, 0, state.ItemCount())

	assert.Equal(t, []string{"createCart", "getCart", "addItem", "getCart", "updateQuantity", "removeItem", "getCart"}, fake.Calls())
}

func TestCartState_ConcurrentAddsCreateOneServerCart(t *testing.T) {
	state, fake := newServiceBackedState(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state.AddToCart(context.Background(), "P1", 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fake.CartCount())
	assert.Equal(t, 8, state.ItemCount())
	assert.Empty(t, state.Error())
}

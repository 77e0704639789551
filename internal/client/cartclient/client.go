package cartclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gocart/internal/domain"
	"gocart/internal/pkg/httpclient"
	"gocart/internal/pkg/logger"
)

// CallerIDHeader carrega a identidade fixa do chamador em todas as requisições.
const CallerIDHeader = "X-User-Id"

// Config agrupa o que o Client precisa para falar com o serviço de carrinho.
type Config struct {
	BaseURL     string
	CallerID    string
	BearerToken string // opcional; enviado como "Authorization: Bearer <token>"
	Timeout     time.Duration
	HTTPClient  *http.Client // opcional
}

// Client expõe o ciclo de vida do carrinho. Diferente do catálogo, nenhuma falha é
// absorvida: todo erro de transporte ou status não-2xx volta para o chamador.
type Client struct {
	http   *httpclient.Client
	logger logger.Logger
}

// NewClient cria o client do carrinho com os headers de identidade já fixados.
func NewClient(cfg Config, log logger.Logger) *Client {
	opts := []httpclient.Option{
		httpclient.WithHeader(CallerIDHeader, cfg.CallerID),
	}
	if cfg.BearerToken != "" {
		opts = append(opts, httpclient.WithHeader("Authorization", "Bearer "+cfg.BearerToken))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, httpclient.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, httpclient.WithTimeout(cfg.Timeout))
	}

	return &Client{
		http:   httpclient.New(cfg.BaseURL, opts...),
		logger: log.With(map[string]interface{}{"component": "cart_client"}),
	}
}

// CreateCart cria um carrinho novo (POST /) e devolve o id atribuído pelo serviço.
func (c *Client) CreateCart(ctx context.Context) (string, error) {
	var cartID string
	if err := c.http.Post(ctx, "/", struct{}{}, &cartID); err != nil {
		c.logger.Error("Falha ao criar carrinho.", err)
		return "", fmt.Errorf("falha ao criar carrinho: %w", err)
	}
	return cartID, nil
}

// GetCart busca o snapshot completo do carrinho (GET /{cartId}).
func (c *Client) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.http.Get(ctx, "/"+httpclient.PathEscape(cartID), &cart); err != nil {
		c.logger.Error("Falha ao buscar carrinho.", err)
		return nil, fmt.Errorf("falha ao buscar carrinho %s: %w", cartID, err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

// AddItem adiciona um produto ao carrinho (POST /{cartId}/items).
func (c *Client) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	body := domain.AddItemRequest{ProductID: productID, Quantity: quantity}
	if err := c.http.Post(ctx, "/"+httpclient.PathEscape(cartID)+"/items", body, nil); err != nil {
		c.logger.Error("Falha ao adicionar item ao carrinho.", err)
		return fmt.Errorf("falha ao adicionar item %s ao carrinho %s: %w", productID, cartID, err)
	}
	return nil
}

// RemoveItem remove um produto do carrinho (DELETE /{cartId}/items/{productId}).
func (c *Client) RemoveItem(ctx context.Context, cartID, productID string) error {
	if err := c.http.Delete(ctx, itemPath(cartID, productID)); err != nil {
		c.logger.Error("Falha ao remover item do carrinho.", err)
		return fmt.Errorf("falha ao remover item %s do carrinho %s: %w", productID, cartID, err)
	}
	return nil
}

// UpdateQuantity altera a quantidade de um item (PUT /{cartId}/items/{productId}).
// A quantidade não é validada aqui; o serviço decide se aceita valores não positivos.
func (c *Client) UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) error {
	body := domain.UpdateQuantityRequest{Quantity: quantity}
	if err := c.http.Put(ctx, itemPath(cartID, productID), body, nil); err != nil {
		c.logger.Error("Falha ao atualizar quantidade do item.", err)
		return fmt.Errorf("falha ao atualizar item %s do carrinho %s: %w", productID, cartID, err)
	}
	return nil
}

// FinalizeCart pede a finalização do carrinho (POST /{cartId}/finalize) e devolve o token de confirmação.
func (c *Client) FinalizeCart(ctx context.Context, cartID string) (string, error) {
	var confirmation string
	if err := c.http.Post(ctx, "/"+httpclient.PathEscape(cartID)+"/finalize", struct{}{}, &confirmation); err != nil {
		c.logger.Error("Falha ao finalizar carrinho.", err)
		return "", fmt.Errorf("falha ao finalizar carrinho %s: %w", cartID, err)
	}
	return confirmation, nil
}

func itemPath(cartID, productID string) string {
	return "/" + httpclient.PathEscape(cartID) + "/items/" + httpclient.PathEscape(productID)
}

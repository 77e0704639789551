// Package productstate mantém o estado observável das telas de catálogo:
// a listagem de produtos e o detalhe de um produto.
package productstate

import (
	"context"

	"gocart/internal/domain"
)

// Mensagens de erro expostas à UI.
const (
	ErrMsgLoadProducts = "Falha ao carregar produtos"
	ErrMsgLoadProduct  = "Falha ao carregar detalhes do produto"
)

// CatalogClient é o contrato que os estados de produto esperam do client do catálogo.
// O client absorve as próprias falhas de transporte; um erro aqui é algo que ele não
// previu (ex.: contexto cancelado) e vira o campo Error do estado.
type CatalogClient interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

package domain

import "github.com/shopspring/decimal"

// Product representa um item do catálogo (snapshot imutável devolvido pelo serviço de catálogo).
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`    // Preço unitário, não negativo
	Quantity    int             `json:"quantity"` // Quantidade disponível em estoque
	Description string          `json:"description"`
	IsAvailable bool            `json:"isAvailable"`
}

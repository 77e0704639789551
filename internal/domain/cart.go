package domain

import "github.com/shopspring/decimal"

// CartItem é uma linha do carrinho. Só existe como parte de um Cart.
type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal é preço unitário × quantidade.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart é o snapshot completo do carrinho como o serviço de carrinho o devolve.
// O serviço garante no máximo um CartItem por ProductID.
type Cart struct {
	ID    string     `json:"id"`
	Items []CartItem `json:"items"`
}

// TotalAmount soma preço × quantidade de todos os itens. Um carrinho nil vale zero.
func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ItemCount soma as quantidades de todos os itens. Um carrinho nil vale zero.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Clone devolve uma cópia profunda, para que snapshots publicados não compartilhem o slice.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := &Cart{ID: c.ID}
	if c.Items != nil {
		out.Items = make([]CartItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}

// AddItemRequest é o corpo de POST /{cartId}/items.
type AddItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateQuantityRequest é o corpo de PUT /{cartId}/items/{productId}.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

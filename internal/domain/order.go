package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// OrderItem is what the backend needs per line. Prices are not sent; the
// backend prices the order itself.
type OrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Order is the submission payload built at checkout time. It is never stored.
type Order struct {
	UserID json.RawMessage `json:"userId"`
	Items  []OrderItem     `json:"items"`
}

// NewOrder builds the payload from the cart and the signed-in user.
func NewOrder(cart Cart, user UserRecord) Order {
	items := make([]OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	userID := user.ID()
	if userID == nil {
		userID = json.RawMessage("null")
	}
	return Order{UserID: userID, Items: items}
}

// OrderSummary is one entry of a user's order history as returned by the
// backend.
type OrderSummary struct {
	ID         json.RawMessage   `json:"id"`
	Status     string            `json:"status"`
	Total      decimal.Decimal   `json:"total"`
	OrderItems []json.RawMessage `json:"orderItems"`
}

func (o OrderSummary) ItemCount() int {
	return len(o.OrderItems)
}

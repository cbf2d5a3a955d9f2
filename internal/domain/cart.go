package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidCart = errors.New("invalid cart contents")

// LineItem is one product's entry in the cart. The JSON names match the
// format the storefront has always written to browser storage.
type LineItem struct {
	ProductID int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
}

// storedLineItem is the wire shape of a LineItem: price is a bare JSON number.
type storedLineItem struct {
	ProductID int64       `json:"id"`
	Name      string      `json:"name"`
	UnitPrice json.Number `json:"price"`
	Quantity  int         `json:"qty"`
}

// MarshalJSON writes price as a number, the way browser storage holds it.
// Decoding accepts numbers and quoted strings.
func (i LineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(storedLineItem{
		ProductID: i.ProductID,
		Name:      i.Name,
		UnitPrice: json.Number(i.UnitPrice.String()),
		Quantity:  i.Quantity,
	})
}

// LineTotal is UnitPrice x Quantity.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart keeps line items in insertion order. At most one item per product.
type Cart struct {
	Items []LineItem
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Subtotal is exact; rounding happens only when rendering.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Find returns the index of the item for productID or -1.
func (c Cart) Find(productID int64) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{}
	}
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// Validate checks the invariants a persisted cart must satisfy.
func (c Cart) Validate() error {
	seen := make(map[int64]struct{}, len(c.Items))
	for _, item := range c.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: product %d has quantity %d", ErrInvalidCart, item.ProductID, item.Quantity)
		}
		if _, dup := seen[item.ProductID]; dup {
			return fmt.Errorf("%w: product %d appears twice", ErrInvalidCart, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}

// MarshalJSON writes the cart as a bare array of line items.
func (c Cart) MarshalJSON() ([]byte, error) {
	if c.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Items)
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	c.Items = items
	return nil
}

// DecodeCart parses a stored cart and checks its invariants. A literal
// null decodes to an error, it is not a valid stored cart.
func DecodeCart(data []byte) (Cart, error) {
	var items *[]LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return Cart{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	if items == nil {
		return Cart{}, fmt.Errorf("%w: null", ErrInvalidCart)
	}
	cart := Cart{Items: *items}
	if err := cart.Validate(); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

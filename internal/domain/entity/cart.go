package entity

import (
	"github.com/sangkips/farmacia-pos/pkg/apperror"
	"github.com/shopspring/decimal"
)

// CartLine pairs a product with the quantity being sold
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Total returns quantity x unit price
func (l CartLine) Total() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered set of lines of a pending sale.
// There is at most one line per product and every quantity added or raised is
// within 1..stock. Rejected mutations leave the cart untouched.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

func (c *Cart) indexOf(productID int64) int {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// Line returns the line for a product, if present
func (c *Cart) Line(productID int64) (CartLine, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

// Contains reports whether the product has a line
func (c *Cart) Contains(productID int64) bool {
	return c.indexOf(productID) >= 0
}

// Toggle adds the product with quantity 1, or removes it when already present.
// It returns true when the product was added.
func (c *Cart) Toggle(p Product) (bool, error) {
	if c.Remove(p.ID) {
		return false, nil
	}
	if !p.InStock() {
		return false, apperror.NewOutOfStockError(p.Name)
	}
	c.Lines = append(c.Lines, CartLine{Product: p, Quantity: 1})
	return true, nil
}

// SetQuantity replaces the quantity of the product's line. A quantity of zero
// removes the line. The product value refreshes the line's price and stock.
func (c *Cart) SetQuantity(p Product, quantity int) error {
	i := c.indexOf(p.ID)
	if i < 0 {
		return apperror.ErrNotInCart
	}
	if quantity < 0 {
		return apperror.ErrInvalidQuantity
	}
	if quantity > p.Stock {
		return apperror.NewStockExceededError(p.Name, p.Stock)
	}
	if quantity == 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return nil
	}
	c.Lines[i] = CartLine{Product: p, Quantity: quantity}
	return nil
}

// Increment adds one unit, bounded by stock.
func (c *Cart) Increment(p Product) error {
	line, ok := c.Line(p.ID)
	if !ok {
		return apperror.ErrNotInCart
	}
	return c.SetQuantity(p, line.Quantity+1)
}

// Decrement removes one unit but never goes below 1; removal is explicit.
// A line left above a lowered stock may still step down toward it.
func (c *Cart) Decrement(p Product) error {
	i := c.indexOf(p.ID)
	if i < 0 {
		return apperror.ErrNotInCart
	}
	if c.Lines[i].Quantity <= 1 {
		return nil
	}
	c.Lines[i] = CartLine{Product: p, Quantity: c.Lines[i].Quantity - 1}
	return nil
}

// Remove deletes the product's line and reports whether one existed
func (c *Cart) Remove(productID int64) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Lines = nil
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total is the sum of quantity x price over all lines
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// Clone returns a deep copy of the cart
func (c *Cart) Clone() Cart {
	if c.Lines == nil {
		return Cart{}
	}
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

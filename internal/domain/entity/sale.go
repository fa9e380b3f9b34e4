package entity

import (
	"github.com/shopspring/decimal"
)

// Sale is the sale header persisted by the pharmacy API
type Sale struct {
	ID        int64           `json:"id"`
	Date      string          `json:"date"`
	Total     decimal.Decimal `json:"total"`
	ClientID  int64           `json:"client_id"`
	CashierID int64           `json:"cashier_id"`
}

// SaleLine is one persisted line item of a Sale.
// SaleID is only known after the header has been created remotely.
type SaleLine struct {
	ID        int64           `json:"id,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	LineTotal decimal.Decimal `json:"line_total"`
	ProductID int64           `json:"product_id"`
	SaleID    int64           `json:"sale_id"`
}

// NewSaleLine builds the line for a cart line; discount is always zero.
func NewSaleLine(saleID int64, line CartLine) SaleLine {
	return SaleLine{
		Quantity:  line.Quantity,
		UnitPrice: line.Product.Price,
		Discount:  decimal.Zero,
		LineTotal: line.Total(),
		ProductID: line.Product.ID,
		SaleID:    saleID,
	}
}

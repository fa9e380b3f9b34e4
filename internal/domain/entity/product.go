package entity

import (
	"github.com/shopspring/decimal"
)

// Product is a sellable item owned by the pharmacy API. Read-only here.
type Product struct {
	ID             int64           `json:"id"`
	Code           string          `json:"code,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	Shelf          int             `json:"shelf,omitempty"`
	Concentration  float64         `json:"concentration,omitempty"`
	ExpiresOn      string          `json:"expires_on,omitempty"`
	PresentationID int64           `json:"presentation_id,omitempty"`
	LaboratoryID   int64           `json:"laboratory_id,omitempty"`
	TypeID         int64           `json:"type_id,omitempty"`
	Deleted        bool            `json:"-"`
}

// InStock reports whether at least one unit can be sold
func (p *Product) InStock() bool {
	return p.Stock >= 1
}

// Laboratory is the manufacturer of a product
type Laboratory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductType is a product classification (tablet, syrup, ...)
type ProductType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Presentation is the unit a product is sold in
type Presentation struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

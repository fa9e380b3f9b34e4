package response

import (
	"time"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	"github.com/sangkips/farmacia-pos/pkg/apperror"
	"github.com/shopspring/decimal"
)

// CartLineResponse is one line of the checkout cart
type CartLineResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// ClientResponse is the active client of the checkout
type ClientResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	TaxCode string `json:"tax_code"`
}

// CheckoutResponse is the checkout screen state of one cashier
type CheckoutResponse struct {
	SaleDate  string             `json:"sale_date"`
	Client    *ClientResponse    `json:"client"`
	Lines     []CartLineResponse `json:"lines"`
	ItemCount int                `json:"item_count"`
	Total     decimal.Decimal    `json:"total"`
	State     enum.CheckoutState `json:"state"`
	LastError *apperror.AppError `json:"last_error,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewCheckoutResponse converts a checkout session to its response shape
func NewCheckoutResponse(s *entity.CheckoutSession) *CheckoutResponse {
	resp := &CheckoutResponse{
		SaleDate:  s.SaleDate,
		Lines:     make([]CartLineResponse, 0, len(s.Cart.Lines)),
		Total:     s.Cart.Total(),
		State:     s.State,
		LastError: s.LastError,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Client != nil {
		resp.Client = &ClientResponse{ID: s.Client.ID, Name: s.Client.Name, TaxCode: s.Client.TaxCode}
	}
	for _, l := range s.Cart.Lines {
		resp.Lines = append(resp.Lines, CartLineResponse{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			UnitPrice: l.Product.Price,
			Stock:     l.Product.Stock,
			Quantity:  l.Quantity,
			LineTotal: l.Total(),
		})
		resp.ItemCount += l.Quantity
	}
	return resp
}

// MeResponse describes the authenticated cashier
type MeResponse struct {
	CashierID    int64             `json:"cashier_id"`
	CashierName  string            `json:"cashier_name"`
	Capabilities []enum.Permission `json:"capabilities"`
}

// NewMeResponse converts a cashier session to its response shape
func NewMeResponse(s *entity.CashierSession) *MeResponse {
	return &MeResponse{
		CashierID:    s.CashierID,
		CashierName:  s.CashierName,
		Capabilities: s.Capabilities.List(),
	}
}

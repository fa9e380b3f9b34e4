package entity

import (
	"time"

	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	"github.com/sangkips/farmacia-pos/pkg/apperror"
)

// Capabilities is the set of permissions granted to a cashier, computed once per session
type Capabilities map[enum.Permission]struct{}

// NewCapabilities builds a capability set
func NewCapabilities(perms ...enum.Permission) Capabilities {
	c := make(Capabilities, len(perms))
	for _, p := range perms {
		c[p] = struct{}{}
	}
	return c
}

// Has reports whether the permission is granted
func (c Capabilities) Has(p enum.Permission) bool {
	_, ok := c[p]
	return ok
}

// List returns the granted permissions in id order
func (c Capabilities) List() []enum.Permission {
	out := make([]enum.Permission, 0, len(c))
	for _, p := range enum.AllPermissions() {
		if c.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// CashierSession identifies the authenticated user operating the checkout.
// It is passed explicitly to the services instead of being looked up globally.
type CashierSession struct {
	CashierID    int64        `json:"cashier_id"`
	CashierName  string       `json:"cashier_name"`
	Capabilities Capabilities `json:"-"`
}

// CheckoutSession is the pending sale of one cashier: date, active client and cart,
// plus the orchestrator state.
type CheckoutSession struct {
	CashierID int64              `json:"cashier_id"`
	SaleDate  string             `json:"sale_date,omitempty"`
	Client    *Client            `json:"client,omitempty"`
	Cart      Cart               `json:"cart"`
	State     enum.CheckoutState `json:"state"`
	LastError *apperror.AppError `json:"last_error,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewCheckoutSession returns an idle session with an empty cart
func NewCheckoutSession(cashierID int64) *CheckoutSession {
	return &CheckoutSession{
		CashierID: cashierID,
		State:     enum.CheckoutStateIdle,
		UpdatedAt: time.Now(),
	}
}

// Reset clears the cart, client and date after a successful submission
func (s *CheckoutSession) Reset() {
	s.Cart.Clear()
	s.Client = nil
	s.SaleDate = ""
	s.LastError = nil
	s.State = enum.CheckoutStateIdle
}

// PermissionGrant is one permission row assigned to a user by the pharmacy API
type PermissionGrant struct {
	PermissionID int  `json:"permission_id"`
	Active       bool `json:"active"`
}

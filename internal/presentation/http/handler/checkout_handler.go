package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/farmacia-pos/internal/application/service"
	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	"github.com/sangkips/farmacia-pos/internal/infrastructure/repository"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/farmacia-pos/pkg/apperror"
)

// CheckoutHandler handles the checkout screen of the authenticated cashier
type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

func (h *CheckoutHandler) respond(c *gin.Context, message string, session *entity.CheckoutSession, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, message, response.NewCheckoutResponse(session))
}

// Get returns the pending sale
func (h *CheckoutHandler) Get(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	session, err := h.checkoutService.Get(c.Request.Context(), cashier.CashierID)
	h.respond(c, "Checkout retrieved successfully", session, err)
}

// SetDate selects the sale date
func (h *CheckoutHandler) SetDate(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	var req request.SetDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidDate)
		return
	}
	session, err := h.checkoutService.SetDate(c.Request.Context(), cashier.CashierID, req.Date)
	h.respond(c, "Sale date updated", session, err)
}

// SelectClient makes a client the active client of the sale
func (h *CheckoutHandler) SelectClient(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	var req request.SelectClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	session, err := h.checkoutService.SelectClient(c.Request.Context(), cashier.CashierID, req.ClientID)
	h.respond(c, "Client selected", session, err)
}

// ClearClient removes the active client
func (h *CheckoutHandler) ClearClient(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	session, err := h.checkoutService.ClearClient(c.Request.Context(), cashier.CashierID)
	h.respond(c, "Client cleared", session, err)
}

// Toggle adds or removes a product from the cart
func (h *CheckoutHandler) Toggle(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	productID, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	result, err := h.checkoutService.Toggle(c.Request.Context(), cashier.CashierID, productID)
	if err != nil {
		response.Error(c, err)
		return
	}
	message := "Product removed from cart"
	if result.Added {
		message = "Product added to cart"
	}
	response.OK(c, message, response.NewCheckoutResponse(result.Session))
}

// SetQuantity replaces the quantity of a cart line
func (h *CheckoutHandler) SetQuantity(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	productID, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	var req request.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidQuantity)
		return
	}
	session, err := h.checkoutService.SetQuantity(c.Request.Context(), cashier.CashierID, productID, *req.Quantity)
	h.respond(c, "Quantity updated", session, err)
}

// Increment adds one unit to a cart line
func (h *CheckoutHandler) Increment(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	productID, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	session, err := h.checkoutService.Increment(c.Request.Context(), cashier.CashierID, productID)
	h.respond(c, "Quantity updated", session, err)
}

// Decrement removes one unit from a cart line
func (h *CheckoutHandler) Decrement(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	productID, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	session, err := h.checkoutService.Decrement(c.Request.Context(), cashier.CashierID, productID)
	h.respond(c, "Quantity updated", session, err)
}

// Remove deletes a cart line
func (h *CheckoutHandler) Remove(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	productID, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	session, err := h.checkoutService.Remove(c.Request.Context(), cashier.CashierID, productID)
	h.respond(c, "Product removed from cart", session, err)
}

// ClearCart empties the cart
func (h *CheckoutHandler) ClearCart(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	session, err := h.checkoutService.ClearCart(c.Request.Context(), cashier.CashierID)
	h.respond(c, "Cart cleared", session, err)
}

// Submit finalizes the pending sale
func (h *CheckoutHandler) Submit(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	result, err := h.checkoutService.Submit(c.Request.Context(), *cashier)
	if err != nil {
		response.Error(c, err)
		return
	}
	message := "Sale completed successfully"
	if result.Warning != "" {
		message = "Sale completed but the receipt could not be printed"
	}
	response.Created(c, message, result)
}

// ListOrphaned lists sale headers left without all their lines. Sales history
// holders reconcile for the whole pharmacy, so the list spans every cashier.
func (h *CheckoutHandler) ListOrphaned(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	ctx := c.Request.Context()
	if cashier.Capabilities.Has(enum.PermissionSalesHistory) {
		ctx = repository.WithSkipCashierScope(ctx, true)
	}
	result, err := h.checkoutService.ListOrphanedAttempts(ctx, pageParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, 200, "Orphaned sales retrieved successfully", result)
}

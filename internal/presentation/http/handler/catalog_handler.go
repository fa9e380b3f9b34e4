package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/farmacia-pos/internal/application/service"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/dto/response"
)

// CatalogHandler handles catalog-related HTTP requests
type CatalogHandler struct {
	catalogService  *service.CatalogService
	checkoutService *service.CheckoutService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *service.CatalogService, checkoutService *service.CheckoutService) *CatalogHandler {
	return &CatalogHandler{
		catalogService:  catalogService,
		checkoutService: checkoutService,
	}
}

// Summary describes the loaded catalog snapshot
func (h *CatalogHandler) Summary(c *gin.Context) {
	summary, err := h.catalogService.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Catalog retrieved successfully", summary)
}

// Refresh reloads products and clients from the pharmacy API
func (h *CatalogHandler) Refresh(c *gin.Context) {
	if _, err := h.catalogService.Refresh(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.catalogService.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Catalog refreshed successfully", summary)
}

// SearchProducts lists matching products, flagging the ones already in the cart
func (h *CatalogHandler) SearchProducts(c *gin.Context) {
	session := requireCashier(c)
	if session == nil {
		return
	}
	ctx := c.Request.Context()

	checkout, err := h.checkoutService.Get(ctx, session.CashierID)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.catalogService.SearchProducts(ctx, c.Query("search"), pageParams(c), checkout.Cart.Contains)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, 200, "Products retrieved successfully", result)
}

// SearchClients lists clients matching name or tax code
func (h *CatalogHandler) SearchClients(c *gin.Context) {
	clients, err := h.catalogService.SearchClients(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Clients retrieved successfully", clients)
}

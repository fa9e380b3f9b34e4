package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/farmacia-pos/internal/application/service"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/dto/response"
)

// SalesHandler handles finalized sales
type SalesHandler struct {
	salesService *service.SalesService
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(salesService *service.SalesService) *SalesHandler {
	return &SalesHandler{salesService: salesService}
}

// ListLines returns the lines of a sale
func (h *SalesHandler) ListLines(c *gin.Context) {
	saleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	lines, err := h.salesService.ListSaleLines(c.Request.Context(), saleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Sale lines retrieved successfully", lines)
}

// Reprint prints the receipt of an existing sale again
func (h *SalesHandler) Reprint(c *gin.Context) {
	cashier := requireCashier(c)
	if cashier == nil {
		return
	}
	saleID, ok := idParam(c, "id")
	if !ok {
		return
	}

	receipt, err := h.salesService.Reprint(c.Request.Context(), saleID, *cashier)
	if err != nil {
		// If receipt was built but printing failed, return receipt with warning
		if receipt != nil {
			response.OK(c, "Receipt generated but printing failed", gin.H{
				"receipt": receipt,
				"warning": err.Error(),
			})
			return
		}
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt printed successfully", gin.H{
		"receipt": receipt,
	})
}

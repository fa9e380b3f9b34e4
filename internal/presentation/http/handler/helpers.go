package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/middleware"
	"github.com/sangkips/farmacia-pos/pkg/pagination"
)

// requireCashier returns the authenticated cashier or writes a 401
func requireCashier(c *gin.Context) *entity.CashierSession {
	session := middleware.GetCashier(c)
	if session == nil {
		response.Unauthorized(c, "Cashier not authenticated")
		return nil
	}
	return session
}

// idParam parses a positive numeric path parameter
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// pageParams reads page and per_page from the query string
func pageParams(c *gin.Context) *pagination.PaginationParams {
	params := pagination.DefaultPagination()
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		params.Page = v
	}
	if v, err := strconv.Atoi(c.Query("per_page")); err == nil {
		params.PerPage = v
	}
	params.Validate()
	return params
}

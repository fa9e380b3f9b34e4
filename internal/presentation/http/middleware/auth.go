package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	"github.com/sangkips/farmacia-pos/internal/infrastructure/repository"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/farmacia-pos/pkg/utils"
)

// CashierKey is the gin context key holding the *entity.CashierSession
const CashierKey = "cashier"

// CapabilityResolver computes the permission set of a cashier
type CapabilityResolver interface {
	Resolve(ctx context.Context, cashierID int64) (entity.Capabilities, error)
	Invalidate(cashierID int64)
}

// AuthMiddleware validates the bearer token and attaches the cashier session,
// with its capabilities, to the request. A forbidden response drops the cached
// capabilities so a newly granted permission is seen on the next request.
func AuthMiddleware(jwtManager *utils.JWTManager, capabilities CapabilityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		caps, err := capabilities.Resolve(c.Request.Context(), claims.CashierID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		session := &entity.CashierSession{
			CashierID:    claims.CashierID,
			CashierName:  claims.Name,
			Capabilities: caps,
		}
		c.Set(CashierKey, session)
		c.Request = c.Request.WithContext(repository.WithCashier(c.Request.Context(), claims.CashierID))

		c.Next()

		if c.Writer.Status() == http.StatusForbidden {
			capabilities.Invalidate(claims.CashierID)
		}
	}
}

// GetCashier returns the cashier attached by AuthMiddleware
func GetCashier(c *gin.Context) *entity.CashierSession {
	v, exists := c.Get(CashierKey)
	if !exists {
		return nil
	}
	session, _ := v.(*entity.CashierSession)
	return session
}

// RequirePermission creates a middleware that requires a specific permission
func RequirePermission(permission enum.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := GetCashier(c)
		if session == nil {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		if !session.Capabilities.Has(permission) {
			response.Forbidden(c, "You do not have permission to perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

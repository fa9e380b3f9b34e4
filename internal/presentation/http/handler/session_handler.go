package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/dto/response"
)

// SessionHandler serves the authenticated cashier's own session
type SessionHandler struct{}

// NewSessionHandler creates a new session handler
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Me returns the cashier and the capabilities computed at login
func (h *SessionHandler) Me(c *gin.Context) {
	session := requireCashier(c)
	if session == nil {
		return
	}
	response.OK(c, "Session retrieved successfully", response.NewMeResponse(session))
}

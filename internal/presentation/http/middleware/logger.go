package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/farmacia-pos/pkg/utils"
)

// LoggerMiddleware creates a structured logging middleware
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Generate request ID if not present
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = utils.NewRequestID()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		cashier := "-"
		if session := GetCashier(c); session != nil {
			cashier = session.CashierName
		}

		log.Printf("[%s] %s | %d | %v | %s | %s | %s",
			shortID(requestID),
			c.Request.Method,
			c.Writer.Status(),
			latency,
			c.ClientIP(),
			cashier,
			path,
		)

		for _, e := range c.Errors {
			log.Printf("[%s] Error: %v", shortID(requestID), e.Err)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	"github.com/sangkips/farmacia-pos/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func withCashier(session *entity.CashierSession) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session != nil {
			c.Set(CashierKey, session)
		}
		c.Next()
	}
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRateLimiter_PerCashier(t *testing.T) {
	rl := NewCashierRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 1, CleanupInterval: time.Hour, EntryTTL: time.Hour})

	first := &entity.CashierSession{CashierID: 1}
	second := &entity.CashierSession{CashierID: 2}
	r := gin.New()
	r.GET("/a", withCashier(first), rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/b", withCashier(second), rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "/a").Code)
	limited := serve(r, "/a")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, http.StatusOK, serve(r, "/b").Code)
}

func TestRateLimiter_CleanupDropsStaleEntries(t *testing.T) {
	rl := NewCashierRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1, CleanupInterval: time.Hour, EntryTTL: time.Minute})
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.getLimiter(1)

	now = now.Add(2 * time.Minute)
	rl.cleanup()

	assert.Equal(t, 0, rl.Stats()["active_cashiers"])
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name    string
		session *entity.CashierSession
		want    int
	}{
		{name: "no session", want: http.StatusForbidden},
		{name: "missing permission", session: &entity.CashierSession{CashierID: 1, Capabilities: entity.NewCapabilities(enum.PermissionClients)}, want: http.StatusForbidden},
		{name: "granted", session: &entity.CashierSession{CashierID: 1, Capabilities: entity.NewCapabilities(enum.PermissionSales)}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", withCashier(tt.session), RequirePermission(enum.PermissionSales), func(c *gin.Context) { c.Status(http.StatusOK) })

			assert.Equal(t, tt.want, serve(r, "/").Code)
		})
	}
}

type countingResolver struct {
	caps        entity.Capabilities
	invalidated []int64
}

func (r *countingResolver) Resolve(ctx context.Context, cashierID int64) (entity.Capabilities, error) {
	return r.caps, nil
}

func (r *countingResolver) Invalidate(cashierID int64) {
	r.invalidated = append(r.invalidated, cashierID)
}

func TestAuthMiddleware_InvalidatesCapabilitiesOnForbidden(t *testing.T) {
	jwtManager := utils.NewJWTManager("test-secret", time.Hour)
	resolver := &countingResolver{caps: entity.NewCapabilities(enum.PermissionClients)}

	r := gin.New()
	r.Use(AuthMiddleware(jwtManager, resolver))
	r.GET("/clients", RequirePermission(enum.PermissionClients), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/sales", RequirePermission(enum.PermissionSales), func(c *gin.Context) { c.Status(http.StatusOK) })

	token, err := jwtManager.GenerateAccessToken(7, "Rosa")
	require.NoError(t, err)
	get := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("/clients"))
	assert.Empty(t, resolver.invalidated)

	assert.Equal(t, http.StatusForbidden, get("/sales"))
	assert.Equal(t, []int64{7}, resolver.invalidated)
}

func TestLoggerMiddleware_PropagatesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(LoggerMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc", w.Body.String())
}

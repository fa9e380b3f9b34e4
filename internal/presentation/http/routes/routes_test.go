package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/farmacia-pos/internal/application/service"
	"github.com/sangkips/farmacia-pos/internal/config"
	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	domainRepo "github.com/sangkips/farmacia-pos/internal/domain/repository"
	"github.com/sangkips/farmacia-pos/internal/infrastructure/repository"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/handler"
	"github.com/sangkips/farmacia-pos/pkg/apperror"
	"github.com/sangkips/farmacia-pos/pkg/pagination"
	"github.com/sangkips/farmacia-pos/pkg/printer"
	"github.com/sangkips/farmacia-pos/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubAPI is a pharmacy API backed by fixed data
type stubAPI struct {
	mu        sync.Mutex
	grants    map[int64][]entity.PermissionGrant
	nextID    int64
	sales     int
	saleLines map[int64][]entity.SaleLine
}

func (s *stubAPI) ListActiveProducts(ctx context.Context) ([]entity.Product, error) {
	return []entity.Product{
		{ID: 1, Name: "Paracetamol 500mg", Price: decimal.RequireFromString("10"), Stock: 5},
		{ID: 2, Name: "Ibuprofeno 400mg", Price: decimal.RequireFromString("5"), Stock: 2},
	}, nil
}

func (s *stubAPI) ListActiveClients(ctx context.Context) ([]entity.Client, error) {
	return []entity.Client{{ID: 1, Name: "Ana Mamani", TaxCode: "4455667"}}, nil
}

func (s *stubAPI) ListLaboratories(ctx context.Context) ([]entity.Laboratory, error) {
	return nil, nil
}

func (s *stubAPI) ListProductTypes(ctx context.Context) ([]entity.ProductType, error) {
	return nil, nil
}

func (s *stubAPI) ListPresentations(ctx context.Context) ([]entity.Presentation, error) {
	return nil, nil
}

func (s *stubAPI) GetPharmacyProfile(ctx context.Context) (*entity.PharmacyProfile, error) {
	return &entity.PharmacyProfile{Name: "Farmacia Montecino"}, nil
}

func (s *stubAPI) ListUserPermissions(ctx context.Context, userID int64) ([]entity.PermissionGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grants[userID], nil
}

func (s *stubAPI) CreateSale(ctx context.Context, input domainRepo.CreateSaleInput) (*entity.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.sales++
	return &entity.Sale{ID: s.nextID, Date: input.Date, Total: input.Total, ClientID: input.ClientID, CashierID: input.CashierID}, nil
}

func (s *stubAPI) CreateSaleLine(ctx context.Context, line entity.SaleLine) (*entity.SaleLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saleLines[line.SaleID] = append(s.saleLines[line.SaleID], line)
	return &line, nil
}

func (s *stubAPI) DeleteSale(ctx context.Context, saleID int64) error {
	return nil
}

func (s *stubAPI) ListSaleLines(ctx context.Context, saleID int64) ([]entity.SaleLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saleLines[saleID], nil
}

// memoryIdempotency is an in-memory idempotency key store
type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]entity.IdempotencyKey
}

func (m *memoryIdempotency) GetByKey(ctx context.Context, key string, cashierID int64) (*entity.IdempotencyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[key]
	if !ok || k.CashierID != cashierID {
		return nil, nil
	}
	return &k, nil
}

func (m *memoryIdempotency) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[ikey.Key] = *ikey
	return nil
}

func (m *memoryIdempotency) DeleteExpired(ctx context.Context) error {
	return nil
}

// memoryAttempts is an in-memory checkout journal
type memoryAttempts struct {
	mu       sync.Mutex
	attempts []entity.CheckoutAttempt
}

func (m *memoryAttempts) Create(ctx context.Context, a *entity.CheckoutAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, *a)
	return nil
}

func (m *memoryAttempts) Update(ctx context.Context, a *entity.CheckoutAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.attempts {
		if m.attempts[i].ID == a.ID {
			m.attempts[i] = *a
		}
	}
	return nil
}

func (m *memoryAttempts) GetBySaleID(ctx context.Context, saleID int64) (*entity.CheckoutAttempt, error) {
	return nil, nil
}

func (m *memoryAttempts) ListOrphaned(ctx context.Context, params *pagination.PaginationParams) ([]entity.CheckoutAttempt, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cashierID, _ := repository.GetCashierID(ctx)
	var out []entity.CheckoutAttempt
	for _, a := range m.attempts {
		if a.Status != enum.AttemptStatusOrphaned {
			continue
		}
		if !repository.SkipsCashierScope(ctx) && a.CashierID != cashierID {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

type testServer struct {
	router   *gin.Engine
	api      *stubAPI
	jwt      *utils.JWTManager
	attempts *memoryAttempts
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	api := &stubAPI{
		nextID:    700,
		saleLines: map[int64][]entity.SaleLine{},
		grants: map[int64][]entity.PermissionGrant{
			9:  {{PermissionID: int(enum.PermissionSales), Active: true}, {PermissionID: int(enum.PermissionSalesHistory), Active: true}},
			10: {{PermissionID: int(enum.PermissionClients), Active: true}},
		},
	}

	catalog := service.NewCatalogService(api)
	receipts := service.NewReceiptService(&printer.BufferPrinter{}, api, service.ReceiptOptions{PrinterType: "none"})
	attempts := &memoryAttempts{}
	checkout := service.NewCheckoutService(repository.NewMemorySessionRepository(), attempts, api, catalog, receipts)
	sales := service.NewSalesService(api, catalog, checkout, receipts)

	jwtManager := utils.NewJWTManager("test-secret", time.Hour)
	cfg := &config.Config{App: config.AppConfig{Name: "farmacia-pos"}}

	router := Setup(&Handlers{
		Session:  handler.NewSessionHandler(),
		Catalog:  handler.NewCatalogHandler(catalog, checkout),
		Checkout: handler.NewCheckoutHandler(checkout),
		Sales:    handler.NewSalesHandler(sales),
		Printer:  handler.NewPrinterHandler(receipts),
	}, &Deps{
		JWTManager:      jwtManager,
		Capabilities:    service.NewCapabilityService(api, time.Minute),
		Cfg:             cfg,
		IdempotencyRepo: &memoryIdempotency{keys: map[string]entity.IdempotencyKey{}},
	})

	return &testServer{router: router, api: api, jwt: jwtManager, attempts: attempts}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
	Details map[string]any  `json:"details"`
}

func (s *testServer) do(t *testing.T, cashierID int64, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cashierID > 0 {
		token, err := s.jwt.GenerateAccessToken(cashierID, "María Quispe")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, 0, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuth_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, 0, http.MethodGet, "/api/v1/checkout", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
}

func TestAuth_RequiresSalesPermission(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, 10, http.MethodGet, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(t, 10, http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		CashierID    int64    `json:"cashier_id"`
		Capabilities []string `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, int64(10), me.CashierID)
	assert.Equal(t, []string{"clients"}, me.Capabilities)
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, 9, http.MethodPut, "/api/v1/checkout/date", map[string]string{"date": "2024-01-01"})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, 9, http.MethodPut, "/api/v1/checkout/client", map[string]int64{"client_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	w, env := s.do(t, 9, http.MethodPost, "/api/v1/checkout/cart/1/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Product added to cart", env.Message)

	w, env = s.do(t, 9, http.MethodPut, "/api/v1/checkout/cart/1", map[string]int{"quantity": 9})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(apperror.ReasonStockExceeded), env.Reason)
	assert.Equal(t, float64(5), env.Details["stock"])

	w, _ = s.do(t, 9, http.MethodPut, "/api/v1/checkout/cart/1", map[string]int{"quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, 9, http.MethodGet, "/api/v1/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Total     string `json:"total"`
		ItemCount int    `json:"item_count"`
		State     string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "20", view.Total)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, "Idle", view.State)

	w, env = s.do(t, 9, http.MethodPost, "/api/v1/checkout/submit", nil, "Idempotency-Key", "sale-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result struct {
		State string `json:"state"`
		Sale  struct {
			ID int64 `json:"id"`
		} `json:"sale"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "Succeeded", result.State)
	assert.Equal(t, int64(701), result.Sale.ID)

	// Same key replays the stored response without a second sale
	w, _ = s.do(t, 9, http.MethodPost, "/api/v1/checkout/submit", nil, "Idempotency-Key", "sale-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, 1, s.api.sales)

	w, env = s.do(t, 9, http.MethodGet, "/api/v1/sales/701/lines", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lines []struct {
		ProductName string `json:"product_name"`
		Quantity    int    `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, "Paracetamol 500mg", lines[0].ProductName)
}

func TestSubmit_RequiresIdempotencyKey(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, 9, http.MethodPost, "/api/v1/checkout/submit", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmit_ValidationFailureIsNotReplayed(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, 9, http.MethodPost, "/api/v1/checkout/submit", nil, "Idempotency-Key", "k")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(apperror.ReasonMissingDate), env.Reason)

	w, _ = s.do(t, 9, http.MethodPost, "/api/v1/checkout/submit", nil, "Idempotency-Key", "k")
	assert.Empty(t, w.Header().Get("X-Idempotency-Replayed"))
}

func TestSetQuantity_RejectsNonIntegers(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, 9, http.MethodPost, "/api/v1/checkout/cart/1/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, 9, http.MethodPut, "/api/v1/checkout/cart/1", map[string]any{"quantity": 1.5})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(apperror.ReasonInvalidQuantity), env.Reason)

	w, env = s.do(t, 9, http.MethodPut, "/api/v1/checkout/cart/1", map[string]any{"quantity": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(apperror.ReasonInvalidQuantity), env.Reason)
}

func TestSetDate_InvalidFormat(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, 9, http.MethodPut, "/api/v1/checkout/date", map[string]string{"date": "01/02/2024"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(apperror.ReasonInvalidDate), env.Reason)
}

func TestCatalogSearch(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, 9, http.MethodPost, "/api/v1/checkout/cart/2/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, 9, http.MethodGet, "/api/v1/catalog/products?search=ibu", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items []struct {
			ID     int64 `json:"id"`
			InCart bool  `json:"in_cart"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].InCart)

	w, env = s.do(t, 9, http.MethodGet, "/api/v1/catalog/clients?search=", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestUnknownProduct(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, 9, http.MethodPost, "/api/v1/checkout/cart/99/toggle", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(apperror.ReasonProductNotFound), env.Reason)
}

func TestPrinterStatus(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, 9, http.MethodGet, "/api/v1/printer/status", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"configured":false`)
}

func TestListOrphaned_SpansEveryCashier(t *testing.T) {
	s := newTestServer(t)
	first, second := int64(801), int64(802)
	s.attempts.attempts = []entity.CheckoutAttempt{
		{ID: uuid.New(), CashierID: 9, SaleID: &first, Status: enum.AttemptStatusOrphaned},
		{ID: uuid.New(), CashierID: 11, SaleID: &second, Status: enum.AttemptStatusOrphaned},
		{ID: uuid.New(), CashierID: 11, Status: enum.AttemptStatusCompensated},
	}

	w, env := s.do(t, 9, http.MethodGet, "/api/v1/checkout/attempts/orphaned", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Items []struct {
			CashierID int64 `json:"cashier_id"`
			SaleID    int64 `json:"sale_id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 2)
	assert.ElementsMatch(t, []int64{9, 11}, []int64{page.Items[0].CashierID, page.Items[1].CashierID})
}

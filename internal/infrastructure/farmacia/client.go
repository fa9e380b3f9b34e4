package farmacia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/repository"
	"github.com/sangkips/farmacia-pos/pkg/apperror"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	pathProducts      = "/api/Productos/ListarProductosActivos"
	pathClients       = "/api/Clientes/ListarClientesActivos"
	pathTypes         = "/api/Tipos/ListarTiposActivos"
	pathLaboratories  = "/api/Laboratorios/ListarLaboratoriosActivos"
	pathPresentations = "/api/Presentaciones/ListarPresentacionesActivos"
	pathConfiguration = "/api/Configuracions/ListarConfiguracionActivos"
	pathPermissions   = "/api/Detalle_Permisos/ListarDetallePermisosActivosUsuario"
	pathCreateSale    = "/api/Ventas/Crear"
	pathCreateLine    = "/api/Detalle_Ventas/Crear"
	pathSales         = "/api/Ventas/"
	pathSaleLines     = "/api/Ventas/listarVentaDetalleVenta"
)

// StatusError is returned when the pharmacy API answers with a non-2xx status
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Config configures the pharmacy API client
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerOpen     time.Duration
}

// Client talks to the pharmacy REST API
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

var _ repository.PharmacyAPI = (*Client)(nil)

// NewClient creates a new pharmacy API client
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpen <= 0 {
		cfg.BreakerOpen = 30 * time.Second
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "farmacia-api",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpen,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// The API rejecting a request is not a sign it is down
			var se *StatusError
			return errors.As(err, &se) && se.Status < http.StatusInternalServerError
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}
}

// do performs one request under the per-request timeout and the circuit breaker.
// Errors come back as *apperror.AppError with reason NetworkTimeout or NetworkError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: truncateBody(data)}
		}
		return data, nil
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return body, nil
}

func mapError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperror.ErrNetworkTimeout.WithCause(err)
	}

	var se *StatusError
	if errors.As(err, &se) {
		return apperror.ErrNetwork.WithDetail("status", se.Status).WithCause(err)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperror.ErrNetwork.WithDetail("circuit", "open").WithCause(err)
	}
	return apperror.ErrNetwork.WithCause(err)
}

func truncateBody(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit])
	}
	return string(b)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperror.ErrNetwork.WithDetail("path", path).WithCause(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// ListActiveProducts returns every product the API lists as active
func (c *Client) ListActiveProducts(ctx context.Context) ([]entity.Product, error) {
	var dtos []productDTO
	if err := c.getJSON(ctx, pathProducts, nil, &dtos); err != nil {
		return nil, err
	}
	products := make([]entity.Product, 0, len(dtos))
	for _, d := range dtos {
		products = append(products, d.toEntity())
	}
	return products, nil
}

// ListActiveClients returns every client the API lists as active
func (c *Client) ListActiveClients(ctx context.Context) ([]entity.Client, error) {
	var dtos []clientDTO
	if err := c.getJSON(ctx, pathClients, nil, &dtos); err != nil {
		return nil, err
	}
	clients := make([]entity.Client, 0, len(dtos))
	for _, d := range dtos {
		clients = append(clients, d.toEntity())
	}
	return clients, nil
}

func (c *Client) ListLaboratories(ctx context.Context) ([]entity.Laboratory, error) {
	var dtos []laboratoryDTO
	if err := c.getJSON(ctx, pathLaboratories, nil, &dtos); err != nil {
		return nil, err
	}
	labs := make([]entity.Laboratory, 0, len(dtos))
	for _, d := range dtos {
		labs = append(labs, entity.Laboratory{ID: d.ID, Name: d.LaboratorioNombre})
	}
	return labs, nil
}

func (c *Client) ListProductTypes(ctx context.Context) ([]entity.ProductType, error) {
	var dtos []typeDTO
	if err := c.getJSON(ctx, pathTypes, nil, &dtos); err != nil {
		return nil, err
	}
	types := make([]entity.ProductType, 0, len(dtos))
	for _, d := range dtos {
		types = append(types, entity.ProductType{ID: d.ID, Name: d.Nombre})
	}
	return types, nil
}

func (c *Client) ListPresentations(ctx context.Context) ([]entity.Presentation, error) {
	var dtos []presentationDTO
	if err := c.getJSON(ctx, pathPresentations, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]entity.Presentation, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, entity.Presentation{ID: d.ID, Name: d.Nombre, ShortName: d.NombreCorto})
	}
	return out, nil
}

// GetPharmacyProfile returns the first active configuration row.
// Returns apperror.ErrNotFound when the API has none.
func (c *Client) GetPharmacyProfile(ctx context.Context) (*entity.PharmacyProfile, error) {
	var dtos []configurationDTO
	if err := c.getJSON(ctx, pathConfiguration, nil, &dtos); err != nil {
		return nil, err
	}
	if len(dtos) == 0 {
		return nil, apperror.NewNotFoundError("Pharmacy configuration")
	}
	d := dtos[0]
	return &entity.PharmacyProfile{
		ID:      string(d.ID),
		Name:    d.Nombre,
		Phone:   string(d.Telefono),
		Email:   d.Email,
		Address: d.Direccion,
	}, nil
}

// ListUserPermissions returns the permission rows assigned to a user
func (c *Client) ListUserPermissions(ctx context.Context, userID int64) ([]entity.PermissionGrant, error) {
	var dtos []permissionDTO
	query := url.Values{"id": {formatID(userID)}}
	if err := c.getJSON(ctx, pathPermissions, query, &dtos); err != nil {
		return nil, err
	}
	grants := make([]entity.PermissionGrant, 0, len(dtos))
	for _, d := range dtos {
		grants = append(grants, entity.PermissionGrant{PermissionID: d.IDPermiso, Active: isActive(d.Estado)})
	}
	return grants, nil
}

// CreateSale posts the sale header. The API takes every field in the query string.
func (c *Client) CreateSale(ctx context.Context, input repository.CreateSaleInput) (*entity.Sale, error) {
	query := url.Values{
		"fecha":     {input.Date},
		"total":     {input.Total.String()},
		"idusuario": {formatID(input.CashierID)},
		"idcliente": {formatID(input.ClientID)},
	}
	body, err := c.do(ctx, http.MethodPost, pathCreateSale, query)
	if err != nil {
		return nil, err
	}

	var dto saleDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, apperror.ErrNetwork.WithCause(fmt.Errorf("decode created sale: %w", err))
	}
	if dto.ID == 0 {
		return nil, apperror.ErrNetwork.WithCause(errors.New("created sale has no id"))
	}

	return &entity.Sale{
		ID:        dto.ID,
		Date:      input.Date,
		Total:     input.Total,
		ClientID:  input.ClientID,
		CashierID: input.CashierID,
	}, nil
}

// CreateSaleLine posts one line of an existing sale
func (c *Client) CreateSaleLine(ctx context.Context, line entity.SaleLine) (*entity.SaleLine, error) {
	query := url.Values{
		"cantidad":   {strconv.Itoa(line.Quantity)},
		"descuento":  {line.Discount.String()},
		"precio":     {line.UnitPrice.String()},
		"total":      {line.LineTotal.String()},
		"idproducto": {formatID(line.ProductID)},
		"idventa":    {formatID(line.SaleID)},
	}
	body, err := c.do(ctx, http.MethodPost, pathCreateLine, query)
	if err != nil {
		return nil, err
	}

	created := line
	var dto saleLineDTO
	// Older deployments answer with an empty body
	if len(body) > 0 && json.Unmarshal(body, &dto) == nil && dto.ID != 0 {
		created.ID = dto.ID
	}
	return &created, nil
}

// DeleteSale removes a sale header
func (c *Client) DeleteSale(ctx context.Context, saleID int64) error {
	_, err := c.do(ctx, http.MethodDelete, pathSales+formatID(saleID), nil)
	return err
}

// ListSaleLines returns the persisted lines of a sale
func (c *Client) ListSaleLines(ctx context.Context, saleID int64) ([]entity.SaleLine, error) {
	var dtos []saleLineDTO
	query := url.Values{"idventa": {formatID(saleID)}}
	if err := c.getJSON(ctx, pathSaleLines, query, &dtos); err != nil {
		return nil, err
	}
	lines := make([]entity.SaleLine, 0, len(dtos))
	for _, d := range dtos {
		lines = append(lines, d.toEntity())
	}
	return lines, nil
}

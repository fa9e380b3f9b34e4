package service

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/repository"
	"github.com/sangkips/farmacia-pos/pkg/apperror"
	"github.com/sangkips/farmacia-pos/pkg/pagination"
	"golang.org/x/sync/singleflight"
)

// Snapshot is an immutable view of the pharmacy catalog.
// A refresh builds a new Snapshot and swaps it in whole.
type Snapshot struct {
	Products      []entity.Product
	Clients       []entity.Client
	Laboratories  map[int64]entity.Laboratory
	Types         map[int64]entity.ProductType
	Presentations map[int64]entity.Presentation
	LoadedAt      time.Time

	productIndex map[int64]int
	clientIndex  map[int64]int
}

func newSnapshot(products []entity.Product, clients []entity.Client, prev *Snapshot) *Snapshot {
	snap := &Snapshot{
		Products:      make([]entity.Product, 0, len(products)),
		Clients:       make([]entity.Client, 0, len(clients)),
		Laboratories:  map[int64]entity.Laboratory{},
		Types:         map[int64]entity.ProductType{},
		Presentations: map[int64]entity.Presentation{},
		LoadedAt:      time.Now(),
		productIndex:  make(map[int64]int, len(products)),
		clientIndex:   make(map[int64]int, len(clients)),
	}
	for _, p := range products {
		if p.Deleted {
			continue
		}
		snap.productIndex[p.ID] = len(snap.Products)
		snap.Products = append(snap.Products, p)
	}
	for _, c := range clients {
		if c.Deleted {
			continue
		}
		snap.clientIndex[c.ID] = len(snap.Clients)
		snap.Clients = append(snap.Clients, c)
	}
	if prev != nil {
		snap.Laboratories = prev.Laboratories
		snap.Types = prev.Types
		snap.Presentations = prev.Presentations
	}
	return snap
}

// Product returns the product with the given id
func (s *Snapshot) Product(id int64) (entity.Product, bool) {
	i, ok := s.productIndex[id]
	if !ok {
		return entity.Product{}, false
	}
	return s.Products[i], true
}

// Client returns the client with the given id
func (s *Snapshot) Client(id int64) (entity.Client, bool) {
	i, ok := s.clientIndex[id]
	if !ok {
		return entity.Client{}, false
	}
	return s.Clients[i], true
}

// ProductView is a product enriched with its lookup names
type ProductView struct {
	entity.Product
	LaboratoryName   string `json:"laboratory_name,omitempty"`
	TypeName         string `json:"type_name,omitempty"`
	PresentationName string `json:"presentation_name,omitempty"`
	InCart           bool   `json:"in_cart"`
}

// CatalogSummary describes the loaded snapshot
type CatalogSummary struct {
	Products      int       `json:"products"`
	Clients       int       `json:"clients"`
	Laboratories  int       `json:"laboratories"`
	Types         int       `json:"types"`
	Presentations int       `json:"presentations"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// CatalogService caches active products, clients and reference lookups
type CatalogService struct {
	api     repository.PharmacyAPI
	current atomic.Pointer[Snapshot]
	sfg     singleflight.Group // Coalesces concurrent refreshes
}

// NewCatalogService creates a new catalog service
func NewCatalogService(api repository.PharmacyAPI) *CatalogService {
	return &CatalogService{api: api}
}

// Current returns the loaded snapshot, or nil before the first successful refresh
func (s *CatalogService) Current() *Snapshot {
	return s.current.Load()
}

// Refresh reloads products and clients and replaces the snapshot wholesale.
// On failure the previous snapshot stays in place. Lookup lists are best-effort.
func (s *CatalogService) Refresh(ctx context.Context) (*Snapshot, error) {
	// Shared by every waiting caller, so one caller's cancellation must not abort it
	ctx = context.WithoutCancel(ctx)

	v, err, _ := s.sfg.Do("refresh", func() (interface{}, error) {
		products, err := s.api.ListActiveProducts(ctx)
		if err != nil {
			log.Printf("Catalog refresh failed (products): %v", err)
			return nil, err
		}
		clients, err := s.api.ListActiveClients(ctx)
		if err != nil {
			log.Printf("Catalog refresh failed (clients): %v", err)
			return nil, err
		}

		snap := newSnapshot(products, clients, s.current.Load())
		s.loadLookups(ctx, snap)

		s.current.Store(snap)
		log.Printf("Catalog refreshed: %d products, %d clients", len(snap.Products), len(snap.Clients))
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (s *CatalogService) loadLookups(ctx context.Context, snap *Snapshot) {
	if labs, err := s.api.ListLaboratories(ctx); err != nil {
		log.Printf("Catalog refresh: keeping previous laboratories: %v", err)
	} else {
		snap.Laboratories = make(map[int64]entity.Laboratory, len(labs))
		for _, l := range labs {
			snap.Laboratories[l.ID] = l
		}
	}

	if types, err := s.api.ListProductTypes(ctx); err != nil {
		log.Printf("Catalog refresh: keeping previous product types: %v", err)
	} else {
		snap.Types = make(map[int64]entity.ProductType, len(types))
		for _, t := range types {
			snap.Types[t.ID] = t
		}
	}

	if pres, err := s.api.ListPresentations(ctx); err != nil {
		log.Printf("Catalog refresh: keeping previous presentations: %v", err)
	} else {
		snap.Presentations = make(map[int64]entity.Presentation, len(pres))
		for _, p := range pres {
			snap.Presentations[p.ID] = p
		}
	}
}

// ensureLoaded returns the current snapshot, loading it on first use
func (s *CatalogService) ensureLoaded(ctx context.Context) (*Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	snap, err := s.Refresh(ctx)
	if err != nil {
		return nil, apperror.ErrCatalogUnavailable.WithCause(err)
	}
	return snap, nil
}

// StartBackgroundRefresh refreshes the catalog every interval until ctx is done.
// An interval of zero or less disables it.
func (s *CatalogService) StartBackgroundRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Refresh(ctx); err != nil {
					log.Printf("Background catalog refresh failed: %v", err)
				}
			}
		}
	}()
}

// Summary describes the current snapshot
func (s *CatalogService) Summary(ctx context.Context) (*CatalogSummary, error) {
	snap, err := s.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(snap), nil
}

func summarize(snap *Snapshot) *CatalogSummary {
	return &CatalogSummary{
		Products:      len(snap.Products),
		Clients:       len(snap.Clients),
		Laboratories:  len(snap.Laboratories),
		Types:         len(snap.Types),
		Presentations: len(snap.Presentations),
		LoadedAt:      snap.LoadedAt,
	}
}

// GetProduct returns an active product by id
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (entity.Product, error) {
	snap, err := s.ensureLoaded(ctx)
	if err != nil {
		return entity.Product{}, err
	}
	p, ok := snap.Product(id)
	if !ok {
		return entity.Product{}, apperror.ErrProductNotFound.WithDetail("product_id", id)
	}
	return p, nil
}

// GetClient returns an active client by id
func (s *CatalogService) GetClient(ctx context.Context, id int64) (entity.Client, error) {
	snap, err := s.ensureLoaded(ctx)
	if err != nil {
		return entity.Client{}, err
	}
	c, ok := snap.Client(id)
	if !ok {
		return entity.Client{}, apperror.ErrClientNotFound.WithDetail("client_id", id)
	}
	return c, nil
}

// SearchClients matches name or tax code, case-insensitively.
// An empty query returns no clients.
func (s *CatalogService) SearchClients(ctx context.Context, query string) ([]entity.Client, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []entity.Client{}, nil
	}

	snap, err := s.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	matches := []entity.Client{}
	for _, c := range snap.Clients {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.TaxCode), q) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

// SearchProducts matches product names case-insensitively and pages the result.
// An empty query returns an empty page. inCart marks products already in a cart.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, params *pagination.PaginationParams, inCart func(id int64) bool) (*pagination.PaginatedResult[ProductView], error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return pagination.Paginate([]ProductView{}, params), nil
	}

	snap, err := s.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	views := []ProductView{}
	for _, p := range snap.Products {
		if !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		view := ProductView{
			Product:          p,
			LaboratoryName:   snap.Laboratories[p.LaboratoryID].Name,
			TypeName:         snap.Types[p.TypeID].Name,
			PresentationName: snap.Presentations[p.PresentationID].Name,
		}
		if inCart != nil {
			view.InCart = inCart(p.ID)
		}
		views = append(views, view)
	}
	return pagination.Paginate(views, params), nil
}

// ProductNames maps product ids to names for the loaded snapshot
func (s *CatalogService) ProductNames(ids ...int64) map[int64]string {
	names := make(map[int64]string, len(ids))
	snap := s.current.Load()
	if snap == nil {
		return names
	}
	for _, id := range ids {
		if p, ok := snap.Product(id); ok {
			names[id] = p.Name
		}
	}
	return names
}

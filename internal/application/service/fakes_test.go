package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	"github.com/sangkips/farmacia-pos/internal/domain/repository"
	"github.com/sangkips/farmacia-pos/pkg/apperror"
	"github.com/sangkips/farmacia-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// fakeAPI is an in-memory pharmacy API that records every call
type fakeAPI struct {
	mu sync.Mutex

	products      []entity.Product
	clients       []entity.Client
	labs          []entity.Laboratory
	types         []entity.ProductType
	presentations []entity.Presentation
	profile       *entity.PharmacyProfile
	grants        map[int64][]entity.PermissionGrant
	saleLines     map[int64][]entity.SaleLine

	productsErr error
	lookupErr   error
	profileErr  error
	saleErr     error
	deleteErr   error
	// grantsRelease, when set, holds ListUserPermissions until closed
	grantsRelease chan struct{}
	grantsStarted chan struct{}
	// failLineAt makes the n-th CreateSaleLine call (1-based) fail
	failLineAt int
	lineErr    error

	nextSaleID int64

	calls        []string
	saleInputs   []repository.CreateSaleInput
	linesCreated []entity.SaleLine
	lineAttempts int
	deleted      []int64
	listCalls    map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextSaleID: 100,
		grants:     map[int64][]entity.PermissionGrant{},
		saleLines:  map[int64][]entity.SaleLine{},
		listCalls:  map[string]int{},
	}
}

func (f *fakeAPI) record(call string) {
	f.calls = append(f.calls, call)
	f.listCalls[call]++
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) ListActiveProducts(ctx context.Context) ([]entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListActiveProducts")
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return append([]entity.Product(nil), f.products...), nil
}

func (f *fakeAPI) ListActiveClients(ctx context.Context) ([]entity.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListActiveClients")
	return append([]entity.Client(nil), f.clients...), nil
}

func (f *fakeAPI) ListLaboratories(ctx context.Context) ([]entity.Laboratory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListLaboratories")
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.labs, nil
}

func (f *fakeAPI) ListProductTypes(ctx context.Context) ([]entity.ProductType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListProductTypes")
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.types, nil
}

func (f *fakeAPI) ListPresentations(ctx context.Context) ([]entity.Presentation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListPresentations")
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.presentations, nil
}

func (f *fakeAPI) GetPharmacyProfile(ctx context.Context) (*entity.PharmacyProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetPharmacyProfile")
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile == nil {
		return nil, apperror.NewNotFoundError("Pharmacy configuration")
	}
	return f.profile, nil
}

func (f *fakeAPI) ListUserPermissions(ctx context.Context, userID int64) ([]entity.PermissionGrant, error) {
	f.mu.Lock()
	f.record("ListUserPermissions")
	grants := f.grants[userID]
	started, release := f.grantsStarted, f.grantsRelease
	f.mu.Unlock()

	if release != nil {
		if started != nil {
			started <- struct{}{}
		}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return grants, nil
}

func (f *fakeAPI) CreateSale(ctx context.Context, input repository.CreateSaleInput) (*entity.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateSale")
	if f.saleErr != nil {
		return nil, f.saleErr
	}
	f.saleInputs = append(f.saleInputs, input)
	id := f.nextSaleID
	f.nextSaleID++
	return &entity.Sale{ID: id, Date: input.Date, Total: input.Total, ClientID: input.ClientID, CashierID: input.CashierID}, nil
}

func (f *fakeAPI) CreateSaleLine(ctx context.Context, line entity.SaleLine) (*entity.SaleLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateSaleLine")
	f.lineAttempts++
	if f.lineAttempts == f.failLineAt {
		if f.lineErr != nil {
			return nil, f.lineErr
		}
		return nil, apperror.ErrNetwork.WithCause(errors.New("connection reset"))
	}
	line.ID = int64(len(f.linesCreated) + 1)
	f.linesCreated = append(f.linesCreated, line)
	f.saleLines[line.SaleID] = append(f.saleLines[line.SaleID], line)
	return &line, nil
}

func (f *fakeAPI) DeleteSale(ctx context.Context, saleID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteSale")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, saleID)
	return nil
}

func (f *fakeAPI) ListSaleLines(ctx context.Context, saleID int64) ([]entity.SaleLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListSaleLines")
	return f.saleLines[saleID], nil
}

// fakeSessions is a map-backed session store
type fakeSessions struct {
	mu       sync.Mutex
	sessions map[int64]entity.CheckoutSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[int64]entity.CheckoutSession{}}
}

func (f *fakeSessions) Get(ctx context.Context, cashierID int64) (*entity.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[cashierID]
	if !ok {
		return nil, nil
	}
	s.Cart = s.Cart.Clone()
	return &s, nil
}

func (f *fakeSessions) Save(ctx context.Context, session *entity.CheckoutSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *session
	cp.Cart = session.Cart.Clone()
	f.sessions[session.CashierID] = cp
	return nil
}

func (f *fakeSessions) Delete(ctx context.Context, cashierID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, cashierID)
	return nil
}

// fakeAttempts is an in-memory checkout journal
type fakeAttempts struct {
	mu       sync.Mutex
	attempts []entity.CheckoutAttempt
}

func (f *fakeAttempts) Create(ctx context.Context, attempt *entity.CheckoutAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt.ID = uuid.New()
	f.attempts = append(f.attempts, *attempt)
	return nil
}

func (f *fakeAttempts) Update(ctx context.Context, attempt *entity.CheckoutAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.attempts {
		if f.attempts[i].ID == attempt.ID {
			f.attempts[i] = *attempt
			return nil
		}
	}
	return fmt.Errorf("attempt %s not found", attempt.ID)
}

func (f *fakeAttempts) GetBySaleID(ctx context.Context, saleID int64) (*entity.CheckoutAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.attempts) - 1; i >= 0; i-- {
		if a := f.attempts[i]; a.SaleID != nil && *a.SaleID == saleID {
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeAttempts) ListOrphaned(ctx context.Context, params *pagination.PaginationParams) ([]entity.CheckoutAttempt, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.CheckoutAttempt
	for _, a := range f.attempts {
		if a.Status == enum.AttemptStatusOrphaned {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAttempts) last() entity.CheckoutAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[len(f.attempts)-1]
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

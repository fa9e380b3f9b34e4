package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	"github.com/sangkips/farmacia-pos/internal/domain/repository"
	"github.com/sangkips/farmacia-pos/pkg/apperror"
	"github.com/sangkips/farmacia-pos/pkg/pagination"
)

// ReceiptEmitter prints the receipt of a finalized sale
type ReceiptEmitter interface {
	Emit(ctx context.Context, in SaleReceiptInput) (*entity.Receipt, error)
}

// CheckoutResult is the outcome of a successful submission
type CheckoutResult struct {
	State   enum.CheckoutState `json:"state"`
	Sale    *entity.Sale       `json:"sale"`
	Lines   []entity.SaleLine  `json:"lines"`
	Receipt *entity.Receipt    `json:"receipt,omitempty"`
	Warning string             `json:"warning,omitempty"`
}

// ToggleResult reports whether a toggle added or removed the product
type ToggleResult struct {
	Added   bool
	Session *entity.CheckoutSession
}

// CheckoutService owns the pending sale of every cashier and submits it to the
// pharmacy API. Operations on one cashier's session are serialized.
type CheckoutService struct {
	sessions repository.CheckoutSessionRepository
	attempts repository.CheckoutAttemptRepository
	api      repository.PharmacyAPI
	catalog  *CatalogService
	receipts ReceiptEmitter

	mu       sync.Mutex
	locks    map[int64]*sync.Mutex
	inflight map[int64]bool
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	sessions repository.CheckoutSessionRepository,
	attempts repository.CheckoutAttemptRepository,
	api repository.PharmacyAPI,
	catalog *CatalogService,
	receipts ReceiptEmitter,
) *CheckoutService {
	return &CheckoutService{
		sessions: sessions,
		attempts: attempts,
		api:      api,
		catalog:  catalog,
		receipts: receipts,
		locks:    make(map[int64]*sync.Mutex),
		inflight: make(map[int64]bool),
	}
}

func (s *CheckoutService) lockFor(cashierID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[cashierID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[cashierID] = l
	}
	return l
}

func (s *CheckoutService) isInflight(cashierID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[cashierID]
}

func (s *CheckoutService) setInflight(cashierID int64, on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on && s.inflight[cashierID] {
		return false
	}
	if on {
		s.inflight[cashierID] = true
	} else {
		delete(s.inflight, cashierID)
	}
	return true
}

// load returns the cashier's session, creating an idle one on first use.
// Callers that save the result must hold the cashier lock.
func (s *CheckoutService) load(ctx context.Context, cashierID int64) (*entity.CheckoutSession, error) {
	session, err := s.sessions.Get(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return entity.NewCheckoutSession(cashierID), nil
	}
	// A submission interrupted by a restart never reached a final state
	if session.State == enum.CheckoutStateSubmitting && !s.isInflight(cashierID) {
		session.State = enum.CheckoutStateIdle
	}
	return session, nil
}

func (s *CheckoutService) save(ctx context.Context, session *entity.CheckoutSession) error {
	session.UpdatedAt = time.Now()
	return s.sessions.Save(ctx, session)
}

// mutate applies fn to the cashier's session under its lock and saves it.
// A rejected mutation leaves the stored session untouched.
func (s *CheckoutService) mutate(ctx context.Context, cashierID int64, fn func(*entity.CheckoutSession) error) (*entity.CheckoutSession, error) {
	if s.isInflight(cashierID) {
		return nil, apperror.ErrSubmitInProgress
	}

	l := s.lockFor(cashierID)
	l.Lock()
	defer l.Unlock()

	session, err := s.load(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}

	// Editing after a failed submission starts over from Idle
	if session.State == enum.CheckoutStateFailed {
		session.State = enum.CheckoutStateIdle
		session.LastError = nil
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the cashier's pending sale
func (s *CheckoutService) Get(ctx context.Context, cashierID int64) (*entity.CheckoutSession, error) {
	return s.load(ctx, cashierID)
}

// SetDate sets the sale date. An empty date clears it.
func (s *CheckoutService) SetDate(ctx context.Context, cashierID int64, date string) (*entity.CheckoutSession, error) {
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, apperror.ErrInvalidDate.WithDetail("date", date)
		}
	}
	return s.mutate(ctx, cashierID, func(session *entity.CheckoutSession) error {
		session.SaleDate = date
		return nil
	})
}

// SelectClient makes a client active, replacing any previous selection
func (s *CheckoutService) SelectClient(ctx context.Context, cashierID, clientID int64) (*entity.CheckoutSession, error) {
	client, err := s.catalog.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, cashierID, func(session *entity.CheckoutSession) error {
		session.Client = &client
		return nil
	})
}

// ClearClient drops the active client
func (s *CheckoutService) ClearClient(ctx context.Context, cashierID int64) (*entity.CheckoutSession, error) {
	return s.mutate(ctx, cashierID, func(session *entity.CheckoutSession) error {
		session.Client = nil
		return nil
	})
}

// Toggle adds the product with quantity 1, or removes it when already in the cart
func (s *CheckoutService) Toggle(ctx context.Context, cashierID, productID int64) (*ToggleResult, error) {
	result := &ToggleResult{}
	session, err := s.mutate(ctx, cashierID, func(session *entity.CheckoutSession) error {
		if session.Cart.Remove(productID) {
			return nil
		}
		p, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		result.Added, err = session.Cart.Toggle(p)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Session = session
	return result, nil
}

// productFor returns the freshest known product for a cart line.
// When the catalog no longer lists it, the product stored on the line is used.
func (s *CheckoutService) productFor(ctx context.Context, session *entity.CheckoutSession, productID int64) (entity.Product, error) {
	line, inCart := session.Cart.Line(productID)
	if !inCart {
		return entity.Product{}, apperror.ErrNotInCart.WithDetail("product_id", productID)
	}
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return line.Product, nil
	}
	return p, nil
}

// SetQuantity replaces a line's quantity. Zero removes the line.
func (s *CheckoutService) SetQuantity(ctx context.Context, cashierID, productID int64, quantity int) (*entity.CheckoutSession, error) {
	return s.mutate(ctx, cashierID, func(session *entity.CheckoutSession) error {
		p, err := s.productFor(ctx, session, productID)
		if err != nil {
			return err
		}
		return session.Cart.SetQuantity(p, quantity)
	})
}

// Increment adds one unit to a line
func (s *CheckoutService) Increment(ctx context.Context, cashierID, productID int64) (*entity.CheckoutSession, error) {
	return s.mutate(ctx, cashierID, func(session *entity.CheckoutSession) error {
		p, err := s.productFor(ctx, session, productID)
		if err != nil {
			return err
		}
		return session.Cart.Increment(p)
	})
}

// Decrement removes one unit from a line, never below 1
func (s *CheckoutService) Decrement(ctx context.Context, cashierID, productID int64) (*entity.CheckoutSession, error) {
	return s.mutate(ctx, cashierID, func(session *entity.CheckoutSession) error {
		p, err := s.productFor(ctx, session, productID)
		if err != nil {
			return err
		}
		return session.Cart.Decrement(p)
	})
}

// Remove deletes a line. Removing a product that is not in the cart is a no-op.
func (s *CheckoutService) Remove(ctx context.Context, cashierID, productID int64) (*entity.CheckoutSession, error) {
	return s.mutate(ctx, cashierID, func(session *entity.CheckoutSession) error {
		session.Cart.Remove(productID)
		return nil
	})
}

// ClearCart empties the cart, keeping date and client
func (s *CheckoutService) ClearCart(ctx context.Context, cashierID int64) (*entity.CheckoutSession, error) {
	return s.mutate(ctx, cashierID, func(session *entity.CheckoutSession) error {
		session.Cart.Clear()
		return nil
	})
}

// validateForSubmit checks date, cart and client, in that order, then every
// line against the current stock of its product.
func (s *CheckoutService) validateForSubmit(ctx context.Context, session *entity.CheckoutSession) error {
	if session.SaleDate == "" {
		return apperror.ErrMissingDate
	}
	if session.Cart.IsEmpty() {
		return apperror.ErrEmptyCart
	}
	if session.Client == nil {
		return apperror.ErrMissingClient
	}
	for _, line := range session.Cart.Lines {
		p, err := s.productFor(ctx, session, line.Product.ID)
		if err != nil {
			return err
		}
		if line.Quantity > p.Stock {
			return apperror.NewStockExceededError(p.Name, p.Stock).WithDetail("product_id", p.ID)
		}
	}
	return nil
}

// Submit creates the sale header, then each line in cart order, then prints the receipt.
// A line failure deletes the header again; if that fails too, the attempt is journaled
// as orphaned. Once started, a submission is not cancelled by the caller's context.
func (s *CheckoutService) Submit(ctx context.Context, cashier entity.CashierSession) (*CheckoutResult, error) {
	ctx = context.WithoutCancel(ctx)
	cashierID := cashier.CashierID

	if !s.setInflight(cashierID, true) {
		return nil, apperror.ErrSubmitInProgress
	}
	defer s.setInflight(cashierID, false)

	l := s.lockFor(cashierID)
	l.Lock()
	defer l.Unlock()

	session, err := s.load(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	if session.State == enum.CheckoutStateFailed {
		session.State = enum.CheckoutStateIdle
	}

	if err := s.validateForSubmit(ctx, session); err != nil {
		session.LastError = apperror.GetAppError(err)
		if saveErr := s.save(ctx, session); saveErr != nil {
			log.Printf("Failed to save checkout session for cashier %d: %v", cashierID, saveErr)
		}
		return nil, err
	}

	if err := s.transition(session, enum.CheckoutStateSubmitting); err != nil {
		return nil, err
	}
	session.LastError = nil
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	cart := session.Cart.Clone()
	client := *session.Client
	total := cart.Total()

	attempt := &entity.CheckoutAttempt{
		CashierID:   cashierID,
		CashierName: cashier.CashierName,
		ClientID:    client.ID,
		SaleDate:    session.SaleDate,
		Total:       total.String(),
		Status:      enum.AttemptStatusSubmitting,
		LinesTotal:  len(cart.Lines),
	}
	s.journal(ctx, attempt, true)

	// Phase 1: sale header
	sale, err := s.api.CreateSale(ctx, repository.CreateSaleInput{
		Date:      session.SaleDate,
		Total:     total,
		CashierID: cashierID,
		ClientID:  client.ID,
	})
	if err != nil {
		appErr := headerFailure(err)
		attempt.Status = enum.AttemptStatusFailed
		attempt.Reason = string(appErr.Reason)
		return nil, s.fail(ctx, session, attempt, appErr)
	}
	attempt.SaleID = &sale.ID

	// Phase 2: lines, strictly one after another
	lines := make([]entity.SaleLine, 0, len(cart.Lines))
	for _, cl := range cart.Lines {
		created, err := s.api.CreateSaleLine(ctx, entity.NewSaleLine(sale.ID, cl))
		if err != nil {
			compensated := s.compensate(ctx, sale.ID)
			appErr := lineFailure(err, cl.Product, sale.ID, len(lines), compensated)

			productID := cl.Product.ID
			attempt.FailedProductID = &productID
			attempt.FailedProductName = cl.Product.Name
			attempt.LinesCreated = len(lines)
			attempt.Reason = string(appErr.Reason)
			if compensated {
				attempt.Status = enum.AttemptStatusCompensated
			} else {
				attempt.Status = enum.AttemptStatusOrphaned
			}
			return nil, s.fail(ctx, session, attempt, appErr)
		}
		lines = append(lines, *created)
	}

	attempt.Status = enum.AttemptStatusSucceeded
	attempt.LinesCreated = len(lines)
	s.journal(ctx, attempt, false)

	if err := s.transition(session, enum.CheckoutStateSucceeded); err != nil {
		return nil, err
	}
	log.Printf("Sale %d created by cashier %d: %d lines, total %s", sale.ID, cashierID, len(lines), total)

	result := &CheckoutResult{
		State: enum.CheckoutStateSucceeded,
		Sale:  sale,
		Lines: lines,
	}

	names := make(map[int64]string, len(cart.Lines))
	for _, cl := range cart.Lines {
		names[cl.Product.ID] = cl.Product.Name
	}
	receipt, err := s.receipts.Emit(ctx, SaleReceiptInput{
		Sale:         *sale,
		Lines:        lines,
		ProductNames: names,
		Client:       &client,
		Cashier:      cashier.CashierName,
	})
	result.Receipt = receipt
	if err != nil {
		result.Warning = "The sale was saved but the receipt could not be printed"
	}

	if err := s.sessions.Delete(ctx, cashierID); err != nil {
		log.Printf("Failed to clear checkout session for cashier %d: %v", cashierID, err)
		session.Reset()
		if err := s.save(ctx, session); err != nil {
			log.Printf("Failed to reset checkout session for cashier %d: %v", cashierID, err)
		}
	}

	return result, nil
}

func (s *CheckoutService) transition(session *entity.CheckoutSession, next enum.CheckoutState) error {
	if !session.State.CanTransitionTo(next) {
		return apperror.NewAppError(http.StatusConflict, fmt.Sprintf("Checkout cannot move from %s to %s", session.State, next))
	}
	session.State = next
	return nil
}

// fail records a failed submission. The cart, client and date are kept so the
// cashier can retry.
func (s *CheckoutService) fail(ctx context.Context, session *entity.CheckoutSession, attempt *entity.CheckoutAttempt, appErr *apperror.AppError) error {
	s.journal(ctx, attempt, false)

	if err := s.transition(session, enum.CheckoutStateFailed); err != nil {
		return err
	}
	session.LastError = appErr
	if err := s.save(ctx, session); err != nil {
		log.Printf("Failed to save checkout session for cashier %d: %v", session.CashierID, err)
	}

	log.Printf("Checkout failed for cashier %d: %v", session.CashierID, appErr)
	return appErr
}

// compensate deletes a sale header whose lines could not all be created
func (s *CheckoutService) compensate(ctx context.Context, saleID int64) bool {
	if err := s.api.DeleteSale(ctx, saleID); err != nil {
		log.Printf("Compensation failed, sale %d is orphaned: %v", saleID, err)
		return false
	}
	log.Printf("Compensated partially created sale %d", saleID)
	return true
}

// journal writes the attempt. The journal is advisory: a write failure is
// logged and never blocks the sale.
func (s *CheckoutService) journal(ctx context.Context, attempt *entity.CheckoutAttempt, create bool) {
	if s.attempts == nil {
		return
	}
	var err error
	if create {
		err = s.attempts.Create(ctx, attempt)
	} else {
		err = s.attempts.Update(ctx, attempt)
	}
	if err != nil {
		log.Printf("Failed to journal checkout attempt (cashier %d, status %s): %v", attempt.CashierID, attempt.Status, err)
	}
}

func headerFailure(err error) *apperror.AppError {
	if apperror.HasReason(err, apperror.ReasonNetworkTimeout) {
		return apperror.ErrNetworkTimeout.WithDetail("stage", "sale").WithCause(err)
	}
	return apperror.ErrSaleCreationFailed.WithCause(err)
}

func lineFailure(err error, p entity.Product, saleID int64, created int, compensated bool) *apperror.AppError {
	base := apperror.ErrSaleLineCreationFailed
	if apperror.HasReason(err, apperror.ReasonNetworkTimeout) {
		base = apperror.ErrNetworkTimeout.WithDetail("stage", "sale_line")
	}
	appErr := base.
		WithDetail("product_id", p.ID).
		WithDetail("product", p.Name).
		WithDetail("sale_id", saleID).
		WithDetail("lines_created", created).
		WithDetail("compensated", compensated).
		WithCause(err)
	appErr.Message = fmt.Sprintf("Failed to create the sale line for %s", p.Name)
	return appErr
}

// ListOrphanedAttempts returns sale headers left without all their lines
func (s *CheckoutService) ListOrphanedAttempts(ctx context.Context, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.CheckoutAttempt], error) {
	if s.attempts == nil {
		return nil, errors.New("checkout journal is not configured")
	}
	params.Validate()
	attempts, total, err := s.attempts.ListOrphaned(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(attempts, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// FindAttemptBySale returns the journaled attempt that created a sale, if any
func (s *CheckoutService) FindAttemptBySale(ctx context.Context, saleID int64) (*entity.CheckoutAttempt, error) {
	if s.attempts == nil {
		return nil, nil
	}
	return s.attempts.GetBySaleID(ctx, saleID)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/egme/khlav-kalash/internal/config"
	"github.com/egme/khlav-kalash/internal/logging"
	"github.com/egme/khlav-kalash/internal/models"
	"github.com/egme/khlav-kalash/internal/observability"
	"github.com/egme/khlav-kalash/internal/stripe"
)

// OrderService drives an order from creation through payment reconciliation.
// Orders move through exactly one terminal transition: the paid timestamp is
// written once, from the provider-reported charge time, and never cleared.
type OrderService struct {
	store    orderStore
	payments paymentProvider
	receipts ReceiptSender
	cfg      *config.Config
	logger   *slog.Logger
}

type orderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByPermalink(ctx context.Context, permalink string) (*models.Order, error)
	List(ctx context.Context) ([]*models.Order, error)
	UpdateBilling(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
}

type paymentProvider interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (*stripe.Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*stripe.Intent, error)
}

func NewOrderService(store orderStore, payments paymentProvider, receipts ReceiptSender, cfg *config.Config, logger *slog.Logger) *OrderService {
	if receipts == nil {
		receipts = noopReceiptSender{}
	}

	return &OrderService{
		store:    store,
		payments: payments,
		receipts: receipts,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *OrderService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Price returns the fixed unit price every order is charged.
func (s *OrderService) Price() models.Price {
	return models.Price{Cents: s.cfg.UnitPriceCents, Currency: s.cfg.Currency}
}

type CreateOrderInput struct {
	FirstName    string
	LastName     string
	EmailAddress string
	StreetLine1  string
	StreetLine2  string
	PostalCode   string
	City         string
	Region       string
	Country      string
}

func (in CreateOrderInput) order() *models.Order {
	return &models.Order{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		EmailAddress: in.EmailAddress,
		StreetLine1:  in.StreetLine1,
		StreetLine2:  in.StreetLine2,
		PostalCode:   in.PostalCode,
		City:         in.City,
		Region:       in.Region,
		Country:      in.Country,
	}
}

// Create validates the input, obtains a payment intent, and persists the
// order with its derived number and permalink. Nothing is persisted when
// validation fails or the provider is unreachable, and the provider is never
// called for invalid input.
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.create",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("Create"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	order := input.order()
	order.AmountCents = s.cfg.UnitPriceCents

	if verrs := order.Validate(); verrs.Any() {
		meter.Count("order.create.rejected", 1, sentry.WithAttributes(
			attribute.String("reason", "validation"),
		))
		return nil, verrs
	}

	intent, err := s.payments.CreateIntent(ctx, s.cfg.UnitPriceCents, s.cfg.Currency)
	if err != nil {
		meter.Count("order.create.rejected", 1, sentry.WithAttributes(
			attribute.String("reason", "provider"),
		))
		var apiErr *stripe.APIError
		if errors.As(err, &apiErr) {
			verrs := &models.ValidationErrors{}
			verrs.AddBase(fmt.Sprintf("Unable to prepare payment (%s). Try again later.", apiErr.CorrelationID))
			return nil, verrs
		}
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	order.PaymentIntentID = intent.ID

	if err := s.store.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	meter.Count("order.create.succeeded", 1)
	logger.Info("order created",
		"order_number", order.Number,
		"payment_intent_id", order.PaymentIntentID,
	)
	return order, nil
}

// PayViewData is everything the pay page needs: the order's billing
// projection and the intent's client secret for the client-side confirmation
// call.
type PayViewData struct {
	Order  *models.Order
	Intent *stripe.Intent

	// Paid is true when the provider already reports success; the caller
	// should redirect to the permalink page instead of rendering the form.
	// The local paid-state write happens in Reconcile, not here.
	Paid bool
}

// PayView loads the order and its current intent state for the pay page.
func (s *OrderService) PayView(ctx context.Context, permalink string) (*PayViewData, error) {
	order, err := s.store.GetByPermalink(ctx, permalink)
	if err != nil {
		return nil, err
	}

	intent, err := s.payments.RetrieveIntent(ctx, order.PaymentIntentID)
	if err != nil {
		return nil, err
	}

	return &PayViewData{
		Order:  order,
		Intent: intent,
		Paid:   intent.Status == stripe.StatusSucceeded,
	}, nil
}

// Reconcile pulls the provider's intent status and records the paid
// timestamp exactly once. A previously recorded timestamp short-circuits
// without a provider call. It returns the order and whether it is paid.
func (s *OrderService) Reconcile(ctx context.Context, permalink string) (*models.Order, bool, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.reconcile",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("Reconcile"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)

	order, err := s.store.GetByPermalink(ctx, permalink)
	if err != nil {
		return nil, false, err
	}

	if order.Paid() {
		return order, true, nil
	}

	intent, err := s.payments.RetrieveIntent(ctx, order.PaymentIntentID)
	if err != nil {
		return nil, false, err
	}

	if intent.Status != stripe.StatusSucceeded || intent.PaidAt == nil {
		return order, false, nil
	}

	if err := s.store.MarkPaid(ctx, order.ID, *intent.PaidAt); err != nil {
		return nil, false, err
	}
	order.PaidAt = intent.PaidAt

	meter.Count("order.reconcile.paid", 1)
	s.loggerFromContext(ctx).Info("order paid",
		"order_number", order.Number,
		"paid_at", order.PaidAt,
	)
	s.sendReceipt(ctx, order)

	return order, true, nil
}

// sendReceipt is best-effort; a failed receipt never fails the request.
func (s *OrderService) sendReceipt(ctx context.Context, order *models.Order) {
	if err := s.receipts.SendReceipt(ctx, order, s.Price()); err != nil {
		s.loggerFromContext(ctx).Warn("failed to send receipt email",
			"order_number", order.Number,
			"error", err,
		)
	}
}

// List returns all orders for the admin area, newest first.
func (s *OrderService) List(ctx context.Context) ([]*models.Order, error) {
	return s.store.List(ctx)
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.store.GetByID(ctx, id)
}

// Update rewrites the order's billing fields after re-validation. Identity,
// payment linkage, and paid state are immutable here.
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := input.order()
	updated.ID = order.ID
	updated.Number = order.Number
	updated.Permalink = order.Permalink
	updated.AmountCents = order.AmountCents
	updated.PaymentIntentID = order.PaymentIntentID
	updated.PaidAt = order.PaidAt
	updated.CreatedAt = order.CreatedAt

	if verrs := updated.Validate(); verrs.Any() {
		return nil, verrs
	}

	if err := s.store.UpdateBilling(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.loggerFromContext(ctx).Info("order deleted", "order_id", id)
	return nil
}

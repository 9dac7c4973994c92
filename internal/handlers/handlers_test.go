package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/egme/khlav-kalash/internal/config"
	"github.com/egme/khlav-kalash/internal/db"
	"github.com/egme/khlav-kalash/internal/models"
	"github.com/egme/khlav-kalash/internal/services"
	"github.com/egme/khlav-kalash/internal/stripe"
)

type memStore struct {
	orders     map[uuid.UUID]*models.Order
	nextNumber int
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[uuid.UUID]*models.Order)}
}

func (s *memStore) Create(_ context.Context, order *models.Order) error {
	s.nextNumber++
	order.ID = uuid.New()
	order.Number = fmt.Sprintf("%012d", s.nextNumber)
	order.Permalink = fmt.Sprintf("permalink-%d", s.nextNumber)
	order.CreatedAt = time.Now()
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *memStore) GetByPermalink(_ context.Context, permalink string) (*models.Order, error) {
	for _, order := range s.orders {
		if order.Permalink == permalink {
			copied := *order
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *memStore) List(_ context.Context) ([]*models.Order, error) {
	out := make([]*models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		copied := *order
		out = append(out, &copied)
	}
	return out, nil
}

func (s *memStore) UpdateBilling(_ context.Context, order *models.Order) error {
	if _, ok := s.orders[order.ID]; !ok {
		return db.ErrNotFound
	}
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.orders[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *memStore) MarkPaid(_ context.Context, id uuid.UUID, paidAt time.Time) error {
	order, ok := s.orders[id]
	if !ok {
		return db.ErrNotFound
	}
	if order.PaidAt == nil {
		order.PaidAt = &paidAt
	}
	return nil
}

type stubProvider struct {
	createErr   error
	retrieveErr error
	intents     map[string]*stripe.Intent
}

func (p *stubProvider) CreateIntent(context.Context, int64, string) (*stripe.Intent, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	return &stripe.Intent{
		ID:           "pi_123",
		ClientSecret: "pi_123_secret_456",
		Status:       stripe.StatusRequiresPaymentMethod,
	}, nil
}

func (p *stubProvider) RetrieveIntent(_ context.Context, intentID string) (*stripe.Intent, error) {
	if p.retrieveErr != nil {
		return nil, p.retrieveErr
	}
	if intent, ok := p.intents[intentID]; ok {
		return intent, nil
	}
	return &stripe.Intent{
		ID:           intentID,
		ClientSecret: intentID + "_secret",
		Status:       stripe.StatusRequiresPaymentMethod,
	}, nil
}

const (
	testAdminUsername = "admin"
	testAdminPassword = "password"
)

func testConfig() *config.Config {
	return &config.Config{
		StripePublicKey: "pk_test_abc123",
		UnitPriceCents:  299,
		Currency:        "USD",
		AdminUsername:   testAdminUsername,
		AdminPassword:   testAdminPassword,
	}
}

type testEnv struct {
	store    *memStore
	provider *stubProvider
	handlers *Handlers
	router   *mux.Router
}

func newTestEnv(provider *stubProvider) *testEnv {
	store := newMemStore()
	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := services.NewOrderService(store, provider, nil, cfg, logger)
	h := &Handlers{
		config: cfg,
		orders: svc,
		logger: logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", h.NewOrderForm).Methods("GET")
	r.HandleFunc("/orders", h.CreateOrder).Methods("POST")
	r.HandleFunc("/pay/{permalink}", h.Pay).Methods("GET")
	r.HandleFunc("/order/{permalink}", h.Permalink).Methods("GET")

	adminRouter := r.PathPrefix("/orders").Subrouter()
	adminRouter.Use(h.RequireBasicAuth)
	adminRouter.HandleFunc("", h.AdminOrders).Methods("GET")
	adminRouter.HandleFunc("/{id}", h.AdminShowOrder).Methods("GET")
	adminRouter.HandleFunc("/{id}/edit", h.AdminEditOrder).Methods("GET")
	adminRouter.HandleFunc("/{id}", h.AdminUpdateOrder).Methods("POST", "PUT", "PATCH")
	adminRouter.HandleFunc("/{id}", h.AdminDeleteOrder).Methods("DELETE")

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	return &testEnv{
		store:    store,
		provider: provider,
		handlers: h,
		router:   r,
	}
}

func (e *testEnv) createOrder() *models.Order {
	order := &models.Order{
		FirstName:    "Homer",
		LastName:     "Simpson",
		EmailAddress: "homer@example.com",
		StreetLine1:  "742 Evergreen Terrace",
		PostalCode:   "10001",
		City:         "New York",
		Region:       "NY",
		Country:      "US",
		AmountCents:  299,
	}
	order.PaymentIntentID = "pi_123"
	if err := e.store.Create(context.Background(), order); err != nil {
		panic(err)
	}
	return order
}

// Package stripe wraps the Stripe payment-intent API behind a small adapter.
// Callers only ever see the normalized Intent value or an opaque APIError;
// raw provider failures stay in the server log.
package stripe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/egme/khlav-kalash/internal/logging"
	"github.com/egme/khlav-kalash/internal/observability"
)

// IntentStatus is the closed set of payment-intent statuses the provider
// reports.
type IntentStatus string

const (
	StatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	StatusRequiresConfirmation  IntentStatus = "requires_confirmation"
	StatusRequiresAction        IntentStatus = "requires_action"
	StatusProcessing            IntentStatus = "processing"
	StatusRequiresCapture       IntentStatus = "requires_capture"
	StatusCanceled              IntentStatus = "canceled"
	StatusSucceeded             IntentStatus = "succeeded"
)

// ParseIntentStatus validates a provider-reported status string.
func ParseIntentStatus(value string) (IntentStatus, error) {
	switch status := IntentStatus(value); status {
	case StatusRequiresPaymentMethod, StatusRequiresConfirmation, StatusRequiresAction,
		StatusProcessing, StatusRequiresCapture, StatusCanceled, StatusSucceeded:
		return status, nil
	default:
		return "", fmt.Errorf("unknown payment intent status %q", value)
	}
}

// Intent is the adapter's view of a provider-side payment intent. PaidAt is
// the creation time of the latest successful charge, when the provider
// reports one.
type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	PaidAt       *time.Time
}

// APIError replaces any provider failure. Only the correlation id crosses the
// adapter boundary; the matching log line carries the original error.
type APIError struct {
	CorrelationID string
}

func (e *APIError) Error() string {
	return "payment provider error " + e.CorrelationID
}

// Client calls the Stripe API with a bounded per-request timeout.
type Client struct {
	sc     *stripe.Client
	logger *slog.Logger
}

func NewClient(secretKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		sc: stripe.NewClient(
			secretKey,
			stripe.WithBackends(stripe.NewBackendsWithConfig(&stripe.BackendConfig{
				HTTPClient: observability.NewHTTPClient(timeout),
			})),
		),
		logger: logger,
	}
}

// CreateIntent creates a payment intent for a card payment of the given
// amount in minor units.
func (c *Client) CreateIntent(ctx context.Context, amountCents int64, currency string) (*Intent, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.AddExpand("latest_charge")

	pi, err := c.sc.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, c.translateError(ctx, err)
	}
	return c.buildIntent(ctx, pi)
}

// RetrieveIntent fetches the current provider state of an intent.
func (c *Client) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentRetrieveParams{}
	params.AddExpand("latest_charge")

	pi, err := c.sc.V1PaymentIntents.Retrieve(ctx, intentID, params)
	if err != nil {
		return nil, c.translateError(ctx, err)
	}
	return c.buildIntent(ctx, pi)
}

func (c *Client) buildIntent(ctx context.Context, pi *stripe.PaymentIntent) (*Intent, error) {
	if pi == nil {
		return nil, c.translateError(ctx, fmt.Errorf("provider returned no payment intent"))
	}

	status, err := ParseIntentStatus(string(pi.Status))
	if err != nil {
		return nil, c.translateError(ctx, err)
	}

	intent := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       status,
	}
	if pi.LatestCharge != nil && pi.LatestCharge.Created > 0 {
		paidAt := time.Unix(pi.LatestCharge.Created, 0).UTC()
		intent.PaidAt = &paidAt
	}
	return intent, nil
}

// translateError swaps the provider error for an opaque one and logs the
// original, keyed by a fresh correlation id.
func (c *Client) translateError(ctx context.Context, err error) *APIError {
	correlationID := uuid.NewString()
	logging.FromContext(ctx, c.logger).Error("stripe api error",
		"correlation_id", correlationID,
		"error", err,
	)
	return &APIError{CorrelationID: correlationID}
}

package services

import (
	"context"
	"fmt"

	"github.com/egme/khlav-kalash/internal/email"
	"github.com/egme/khlav-kalash/internal/models"
)

type ReceiptSender interface {
	SendReceipt(ctx context.Context, order *models.Order, price models.Price) error
}

// EmailReceiptSender emails a plain-text receipt once an order is paid.
type EmailReceiptSender struct {
	provider email.Provider
}

func NewEmailReceiptSender(provider email.Provider) *EmailReceiptSender {
	if provider == nil {
		provider = email.NoopProvider{}
	}
	return &EmailReceiptSender{provider: provider}
}

func (s *EmailReceiptSender) SendReceipt(ctx context.Context, order *models.Order, price models.Price) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	if order.EmailAddress == "" {
		return nil
	}

	paidAt := ""
	if order.PaidAt != nil {
		paidAt = order.PaidAt.UTC().Format("2006-01-02 15:04:05 MST")
	}

	return s.provider.SendEmail(ctx, &email.Email{
		To:      order.EmailAddress,
		Subject: fmt.Sprintf("Receipt for order %s", order.Number),
		Text: fmt.Sprintf(
			"Thank you for your order!\n\nOrder number: %s\nAmount: %s\nPaid at: %s\n",
			order.Number, price.Format(), paidAt,
		),
	})
}

type noopReceiptSender struct{}

func (noopReceiptSender) SendReceipt(context.Context, *models.Order, models.Price) error {
	return nil
}

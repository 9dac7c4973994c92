package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/egme/khlav-kalash/internal/email"
	"github.com/egme/khlav-kalash/internal/models"
)

type recordingEmailProvider struct {
	sent []*email.Email
}

func (p *recordingEmailProvider) SendEmail(_ context.Context, e *email.Email) error {
	p.sent = append(p.sent, e)
	return nil
}

func TestEmailReceiptSender(t *testing.T) {
	t.Parallel()

	provider := &recordingEmailProvider{}
	sender := NewEmailReceiptSender(provider)

	paidAt := time.Date(2026, 2, 13, 9, 30, 0, 0, time.UTC)
	order := &models.Order{
		Number:       "000000000042",
		EmailAddress: "homer@example.com",
		PaidAt:       &paidAt,
	}
	price := models.Price{Cents: 299, Currency: "USD"}

	if err := sender.SendReceipt(context.Background(), order, price); err != nil {
		t.Fatalf("SendReceipt() error = %v", err)
	}

	if len(provider.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(provider.sent))
	}
	sent := provider.sent[0]
	if sent.To != "homer@example.com" {
		t.Errorf("To = %q", sent.To)
	}
	if sent.Subject != "Receipt for order 000000000042" {
		t.Errorf("Subject = %q", sent.Subject)
	}
	if !strings.Contains(sent.Text, "000000000042") {
		t.Errorf("Text does not contain the order number: %q", sent.Text)
	}
	if !strings.Contains(sent.Text, "2026-02-13 09:30:00 UTC") {
		t.Errorf("Text does not contain the paid timestamp: %q", sent.Text)
	}
}

func TestEmailReceiptSenderSkipsWithoutAddress(t *testing.T) {
	t.Parallel()

	provider := &recordingEmailProvider{}
	sender := NewEmailReceiptSender(provider)

	order := &models.Order{Number: "000000000001"}
	if err := sender.SendReceipt(context.Background(), order, models.Price{Cents: 299, Currency: "USD"}); err != nil {
		t.Fatalf("SendReceipt() error = %v", err)
	}
	if len(provider.sent) != 0 {
		t.Errorf("sent %d emails, want 0", len(provider.sent))
	}
}

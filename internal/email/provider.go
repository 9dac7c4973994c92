// Package email provides the receipt email provider interface.
package email

import "context"

type Provider interface {
	SendEmail(ctx context.Context, email *Email) error
}

type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// NoopProvider drops every email. It stands in when no provider is
// configured.
type NoopProvider struct{}

func (NoopProvider) SendEmail(context.Context, *Email) error { return nil }

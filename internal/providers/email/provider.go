// Package email sends invoice mail over SMTP.
package email

import "context"

type Provider interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
	SendWithAttachment(ctx context.Context, to []string, subject, htmlBody, filename string, attachment []byte) error
}

// NoOpProvider is used when SMTP is not configured.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(_ context.Context, _ []string, _, _ string) error {
	return nil
}

func (p *NoOpProvider) SendWithAttachment(_ context.Context, _ []string, _, _, _ string, _ []byte) error {
	return nil
}

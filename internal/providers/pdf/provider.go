// Package pdf renders rent invoices.
package pdf

import "context"

type Provider interface {
	RenderInvoice(ctx context.Context, data InvoiceData) ([]byte, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) RenderInvoice(_ context.Context, _ InvoiceData) ([]byte, error) {
	return nil, nil
}

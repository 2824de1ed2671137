package whatsapp

import (
	"net/http"

	"github.com/rentstack/rentstack/internal/config"
	"github.com/rentstack/rentstack/internal/notification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.whatsapp",
	fx.Provide(
		func(log *zap.Logger, cfg config.Config) *Provider {
			return NewProvider(log, cfg.WhatsApp, (*http.Client)(nil))
		},
		func(p *Provider) domain.Messenger { return p },
	),
)

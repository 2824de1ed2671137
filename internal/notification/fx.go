package notification

import (
	"github.com/rentstack/rentstack/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(service.NewDispatcher),
)

package settlement

import (
	"github.com/rentstack/rentstack/internal/settlement/domain"
	"github.com/rentstack/rentstack/internal/settlement/repository"
	"github.com/rentstack/rentstack/internal/settlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(func(s *service.Service) domain.Service { return s }),
)

package account

import (
	"github.com/rentstack/rentstack/internal/account/domain"
	"github.com/rentstack/rentstack/internal/account/repository"
	"github.com/rentstack/rentstack/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account",
	fx.Provide(
		repository.Provide,
		service.NewService,
		func(s *service.Service) domain.Service { return s },
	),
)

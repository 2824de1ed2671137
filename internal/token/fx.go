package token

import (
	"github.com/redis/go-redis/v9"
	"github.com/rentstack/rentstack/internal/token/domain"
	"github.com/rentstack/rentstack/internal/token/service"
	"github.com/rentstack/rentstack/internal/token/store"
	"go.uber.org/fx"
)

var Module = fx.Module("token",
	fx.Provide(
		func(client *redis.Client) domain.Store { return store.NewRedisStore(client) },
		service.NewIssuer,
	),
)

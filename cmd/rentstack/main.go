package main

import (
	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/rentstack/rentstack/internal/account/domain"
	"github.com/rentstack/rentstack/internal/config"
	"github.com/rentstack/rentstack/internal/observability"
	"github.com/rentstack/rentstack/internal/server"
	settlementdomain "github.com/rentstack/rentstack/internal/settlement/domain"
	"github.com/rentstack/rentstack/pkg/db"
	"github.com/rentstack/rentstack/pkg/kv"
	"github.com/rentstack/rentstack/pkg/log"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		observability.Module,
		db.Module,
		kv.Module,
		fx.Provide(newSnowflakeNode),
		fx.Invoke(autoMigrate),

		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func autoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&accountdomain.Account{},
		&settlementdomain.BillingTerm{},
		&settlementdomain.ChargeLine{},
		&settlementdomain.DiscountLine{},
		&settlementdomain.DebtLine{},
		&settlementdomain.PaymentLine{},
	)
}

// Package server wires the HTTP surface.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rentstack/rentstack/internal/account"
	accountdomain "github.com/rentstack/rentstack/internal/account/domain"
	"github.com/rentstack/rentstack/internal/config"
	"github.com/rentstack/rentstack/internal/delivery"
	"github.com/rentstack/rentstack/internal/notification"
	notificationservice "github.com/rentstack/rentstack/internal/notification/service"
	"github.com/rentstack/rentstack/internal/observability"
	obsmiddleware "github.com/rentstack/rentstack/internal/observability/logger"
	obsmetrics "github.com/rentstack/rentstack/internal/observability/metrics"
	obstracing "github.com/rentstack/rentstack/internal/observability/tracing"
	"github.com/rentstack/rentstack/internal/providers/email"
	"github.com/rentstack/rentstack/internal/providers/pdf"
	"github.com/rentstack/rentstack/internal/providers/whatsapp"
	"github.com/rentstack/rentstack/internal/ratelimit"
	"github.com/rentstack/rentstack/internal/settlement"
	settlementdomain "github.com/rentstack/rentstack/internal/settlement/domain"
	"github.com/rentstack/rentstack/internal/token"
	tokenservice "github.com/rentstack/rentstack/internal/token/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	account.Module,
	settlement.Module,
	notification.Module,
	delivery.Module,
	token.Module,
	ratelimit.Module,
	whatsapp.Module,
	email.Module,
	pdf.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	accountSvc    accountdomain.Service
	settlementSvc settlementdomain.Service
	dispatcher    *notificationservice.Dispatcher
	tracker       *delivery.Tracker
	issuer        *tokenservice.Issuer
	bucket        *ratelimit.TokenBucket
	pdf           pdf.Provider
	email         email.Provider
	metrics       *obsmetrics.DispatchMetrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	AccountSvc    accountdomain.Service
	SettlementSvc settlementdomain.Service
	Dispatcher    *notificationservice.Dispatcher
	Tracker       *delivery.Tracker
	Issuer        *tokenservice.Issuer
	Bucket        *ratelimit.TokenBucket `optional:"true"`
	PDF           pdf.Provider
	Email         email.Provider
	Metrics       *obsmetrics.DispatchMetrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		accountSvc:    p.AccountSvc,
		settlementSvc: p.SettlementSvc,
		dispatcher:    p.Dispatcher,
		tracker:       p.Tracker,
		issuer:        p.Issuer,
		bucket:        p.Bucket,
		pdf:           p.PDF,
		email:         p.Email,
		metrics:       p.Metrics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api/v1")

	api.POST("/signin",
		ratelimit.SigninMiddleware(s.log, s.cfg.RateLimit, s.bucket),
		s.signin,
	)
	api.POST("/signup", s.signup)
	api.POST("/refreshtoken", s.refreshToken)

	api.POST("/send-invoice", s.sendInvoice)

	api.GET("/webhook", s.verifyWebhook)
	api.POST("/webhook", s.receiveWebhook)
	api.GET("/message-status/:id", s.messageStatus)
	api.GET("/message-statuses", s.messageStatuses)

	api.POST("/terms", s.createTerm)
	api.GET("/terms/:tenantId/:term", s.getTerm)
	api.POST("/terms/:tenantId/:term/payments", s.recordPayment)
	api.POST("/terms/:tenantId/:term/discounts", s.recordDiscount)
	api.POST("/terms/:tenantId/:term/debts", s.recordDebt)
	api.POST("/terms/:tenantId/:term/archive", s.archiveTerm)
	api.GET("/terms/:tenantId/:term/invoice.pdf", s.termInvoicePDF)
	api.POST("/terms/:tenantId/:term/email-invoice", s.emailTermInvoice)
}

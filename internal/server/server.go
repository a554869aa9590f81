// Package server wires the HTTP surface over the domain services.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/gridsmith/meterbill/internal/billing"
	billingdomain "github.com/gridsmith/meterbill/internal/billing/domain"
	"github.com/gridsmith/meterbill/internal/cache"
	"github.com/gridsmith/meterbill/internal/config"
	"github.com/gridsmith/meterbill/internal/connection"
	connectiondomain "github.com/gridsmith/meterbill/internal/connection/domain"
	"github.com/gridsmith/meterbill/internal/customer"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	"github.com/gridsmith/meterbill/internal/meter"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/gridsmith/meterbill/internal/observability"
	obsmiddleware "github.com/gridsmith/meterbill/internal/observability/logger"
	obsmetrics "github.com/gridsmith/meterbill/internal/observability/metrics"
	obstracing "github.com/gridsmith/meterbill/internal/observability/tracing"
	"github.com/gridsmith/meterbill/internal/overview"
	overviewdomain "github.com/gridsmith/meterbill/internal/overview/domain"
	"github.com/gridsmith/meterbill/internal/payment"
	paymentdomain "github.com/gridsmith/meterbill/internal/payment/domain"
	"github.com/gridsmith/meterbill/internal/providers/email"
	"github.com/gridsmith/meterbill/internal/providers/pdf"
	"github.com/gridsmith/meterbill/internal/providers/slack"
	"github.com/gridsmith/meterbill/internal/ratelimit"
	"github.com/gridsmith/meterbill/internal/reading"
	readingdomain "github.com/gridsmith/meterbill/internal/reading/domain"
	"github.com/gridsmith/meterbill/internal/tariff"
	tariffdomain "github.com/gridsmith/meterbill/internal/tariff/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	customer.Module,
	meter.Module,
	reading.Module,
	tariff.Module,
	connection.Module,
	billing.Module,
	payment.Module,
	overview.Module,
	pdf.Module,
	email.Module,
	slack.Module,
	cache.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware(cfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, obsCfg, httpMetrics)
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
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	genID          *snowflake.Node
	customerSvc    customerdomain.Service
	meterSvc       meterdomain.Service
	readingSvc     readingdomain.Service
	tariffSvc      tariffdomain.Service
	connectionSvc  connectiondomain.Service
	billingSvc     billingdomain.Service
	paymentSvc     paymentdomain.Service
	overviewSvc    overviewdomain.Service
	pdfProvider    pdf.Provider
	captureLimiter *ratelimit.CaptureLimiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	DB             *gorm.DB
	GenID          *snowflake.Node
	CustomerSvc    customerdomain.Service
	MeterSvc       meterdomain.Service
	ReadingSvc     readingdomain.Service
	TariffSvc      tariffdomain.Service
	ConnectionSvc  connectiondomain.Service
	BillingSvc     billingdomain.Service
	PaymentSvc     paymentdomain.Service
	OverviewSvc    overviewdomain.Service
	PDFProvider    pdf.Provider
	CaptureLimiter *ratelimit.CaptureLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		genID:          p.GenID,
		customerSvc:    p.CustomerSvc,
		meterSvc:       p.MeterSvc,
		readingSvc:     p.ReadingSvc,
		tariffSvc:      p.TariffSvc,
		connectionSvc:  p.ConnectionSvc,
		billingSvc:     p.BillingSvc,
		paymentSvc:     p.PaymentSvc,
		overviewSvc:    p.OverviewSvc,
		pdfProvider:    p.PDFProvider,
		captureLimiter: p.CaptureLimiter,
	}
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/customers", s.CreateCustomer)
	v1.GET("/customers", s.ListCustomers)
	v1.GET("/customers/:id", s.GetCustomerByID)
	v1.PATCH("/customers/:id", s.UpdateCustomer)

	v1.POST("/meters", s.CreateMeter)
	v1.GET("/meters", s.ListMeters)
	v1.GET("/meters/:id", s.GetMeterByID)
	v1.GET("/meters/:id/readings", s.ListMeterReadings)

	v1.POST("/readings", s.CaptureReading)

	v1.POST("/tariffs", s.CreateTariff)
	v1.GET("/tariffs", s.ListTariffs)
	v1.GET("/tariffs/:id", s.GetTariffByID)

	v1.POST("/connections", s.CreateConnection)
	v1.GET("/connections", s.ListConnections)
	v1.GET("/connections/:id", s.GetConnectionByID)
	v1.POST("/connections/:id/disconnect", s.DisconnectConnection)

	v1.POST("/bills", s.GenerateBill)
	v1.GET("/bills", s.ListBills)
	v1.GET("/bills/:id", s.GetBillByID)
	v1.GET("/bills/:id/pdf", s.GetBillPDF)
	v1.POST("/bills/:id/payments", s.RecordPayment)
	v1.GET("/bills/:id/payments", s.ListBillPayments)

	v1.GET("/overview", s.GetOverview)
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dityaaz/go-shop-checkout/internal/cart"
	"github.com/dityaaz/go-shop-checkout/internal/catalog"
	"github.com/dityaaz/go-shop-checkout/internal/checkout"
	"github.com/dityaaz/go-shop-checkout/internal/config"
	"github.com/dityaaz/go-shop-checkout/internal/httpx"
	kafkax "github.com/dityaaz/go-shop-checkout/internal/kafka"
	"github.com/dityaaz/go-shop-checkout/internal/logging"
	"github.com/dityaaz/go-shop-checkout/internal/metrics"
	"github.com/dityaaz/go-shop-checkout/internal/orders"
	"github.com/dityaaz/go-shop-checkout/internal/postgres"
	"github.com/dityaaz/go-shop-checkout/internal/redisx"
	"github.com/dityaaz/go-shop-checkout/internal/shipping"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := logging.New(cfg.ServiceName, os.Getenv("DEBUG") == "1")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, satu per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, logger)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024, logger)
	pPayment := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentChanged, 1024, logger)
	pCreated.Start(ctx)
	pStatus.Start(ctx)
	pPayment.Start(ctx)

	catalogRepo := &catalog.Repo{DB: db}
	cartRepo := &cart.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}

	svc := &checkout.Service{
		Carts:   cartRepo,
		Catalog: catalogRepo,
		Orders:  orderRepo,
		Notify: &checkout.KafkaGateway{
			Created: pCreated, Status: pStatus, Payment: pPayment, Service: cfg.ServiceName,
		},
		Cache:    &checkout.RedisOrderCache{R: rdb},
		ShipCost: shipping.Cost,
		Metrics:  metrics.NewCheckoutMetrics("checkout"),
		Log:      logger,
	}

	validate := validator.New()
	router := httpx.NewRouter()
	ch := &httpx.CheckoutHandler{Service: svc, Redis: rdb, Validate: validate, Log: logger}
	ch.Register(router)
	carth := &httpx.CartHandler{Carts: cartRepo, Catalog: catalogRepo, Validate: validate, Log: logger}
	carth.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler()}

	go func() {
		logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics listen", zap.Error(err))
		}
	}()
	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	_ = metricsSrv.Shutdown(ctx2)

	// tutup inbox -> flush & close writer
	pCreated.Close()
	pStatus.Close()
	pPayment.Close()
	cancel()
	pCreated.WaitClosed()
	pStatus.WaitClosed()
	pPayment.WaitClosed()
}

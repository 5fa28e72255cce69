package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/api"
	"github.com/printhouse/storefront/internal/config"
	"github.com/printhouse/storefront/internal/events"
	"github.com/printhouse/storefront/internal/melhorenvio"
	"github.com/printhouse/storefront/internal/mercadopago"
	"github.com/printhouse/storefront/internal/payments"
	"github.com/printhouse/storefront/internal/repository/postgres"
	"github.com/printhouse/storefront/internal/service"
	"github.com/printhouse/storefront/internal/stripepay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	gateway, err := newGateway(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	rates := melhorenvio.NewClient(melhorenvio.ClientConfig{UserAgent: cfg.Shipping.UserAgent}, logger)
	credentials := service.NewSettingsShippingCredentials(repos.Setting, melhorenvio.Credentials{
		Token:       cfg.Shipping.Token,
		Environment: cfg.Shipping.Environment,
	})
	shipping := service.NewShippingService(
		rates,
		credentials,
		service.NewRateEstimator(cfg.Shipping.Estimator),
		service.ShippingServiceConfig{
			OriginCEP:      cfg.Shipping.OriginCEP,
			InsuranceValue: cfg.Shipping.InsuranceValue,
		},
		logger,
	)

	pricing := service.NewPricingValidator(repos.Product, service.PricingPolicy{
		ArtCreationFee: cfg.Pricing.ArtCreationFee,
		Tolerance:      cfg.Pricing.Tolerance,
		Shipping: service.ShippingPolicy{
			Min: cfg.Shipping.MinShipping,
			Max: cfg.Shipping.MaxShipping,
		},
	})
	orders := service.NewOrderService(repos, pricing, publisher, service.OrderServiceConfig{
		PickupAddress: cfg.Shipping.PickupAddress,
	}, logger)
	paymentService := service.NewPaymentService(repos, orders, gateway, service.PaymentServiceConfig{
		NotificationURL: cfg.Payments.MercadoPagoNotifyURL,
		Currency:        cfg.Payments.Currency,
	}, logger)

	router := api.NewRouter(cfg, api.Dependencies{
		Repos:    repos,
		Orders:   orders,
		Shipping: shipping,
		Payments: paymentService,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("payment_provider", gateway.Name()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = level
	return zcfg.Build()
}

func newPublisher(cfg *config.Config, logger *zap.Logger) events.Publisher {
	if len(cfg.Events.KafkaBrokers) == 0 {
		logger.Info("No Kafka brokers configured, order events are not published")
		return events.NopPublisher{}
	}
	writer := events.NewKafkaWriter(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
	return events.NewKafkaPublisher(writer, logger)
}

func newGateway(cfg *config.Config, logger *zap.Logger) (payments.Gateway, error) {
	switch cfg.Payments.Provider {
	case "stripe":
		gateway, err := stripepay.NewGateway(stripepay.Config{
			SecretKey: cfg.Payments.StripeSecretKey,
			Currency:  cfg.Payments.Currency,
		}, logger)
		if err != nil {
			return nil, err
		}
		return gateway, nil
	default:
		if cfg.Payments.MercadoPagoToken == "" {
			logger.Warn("MERCADOPAGO_ACCESS_TOKEN is not set, payment calls will report a configuration error")
		}
		client := mercadopago.NewClient(mercadopago.ClientConfig{
			AccessToken: cfg.Payments.MercadoPagoToken,
			BaseURL:     cfg.Payments.MercadoPagoBaseURL,
		}, logger)
		return mercadopago.NewGateway(client, logger), nil
	}
}

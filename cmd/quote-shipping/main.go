package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/config"
	"github.com/printhouse/storefront/internal/melhorenvio"
	"github.com/printhouse/storefront/internal/service"
)

// Quotes shipping straight from the configured credentials, without the
// database, to check a token or compare the estimator with live rates.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/quote-shipping/main.go <destination-cep> [weight-kg]")
		fmt.Println("Example: go run cmd/quote-shipping/main.go 70040-010 1.2")
		os.Exit(1)
	}

	destination := os.Args[1]
	var pkg *service.Package
	if len(os.Args) > 2 {
		weight, err := decimal.NewFromString(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid weight %q\n", os.Args[2])
			os.Exit(1)
		}
		parcel := service.DefaultPackage()
		parcel.Weight = weight
		pkg = &parcel
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := melhorenvio.NewClient(melhorenvio.ClientConfig{UserAgent: cfg.Shipping.UserAgent}, logger)
	shipping := service.NewShippingService(
		client,
		service.StaticShippingCredentials{
			Token:       cfg.Shipping.Token,
			Environment: cfg.Shipping.Environment,
		},
		service.NewRateEstimator(cfg.Shipping.Estimator),
		service.ShippingServiceConfig{
			OriginCEP:      cfg.Shipping.OriginCEP,
			InsuranceValue: cfg.Shipping.InsuranceValue,
		},
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	fmt.Printf("🔍 Quoting %s -> %s (%s)\n\n", cfg.Shipping.OriginCEP, destination, cfg.Shipping.Environment)

	quote, err := shipping.Calculate(ctx, destination, pkg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to quote shipping: %v\n", err)
		os.Exit(1)
	}

	if quote.Fallback {
		fmt.Printf("⚠️  Using estimated rates: %s\n\n", quote.FallbackReason)
	}
	for _, opt := range quote.Options {
		fmt.Printf("%-20s %-20s R$ %8s  %2d days\n", opt.Carrier, opt.Service, opt.FinalPrice.StringFixed(2), opt.DeliveryDays)
	}
}

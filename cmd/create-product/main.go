package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/config"
	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: go run cmd/create-product/main.go <name> <per_area|fixed_unit> <price> [max-width] [max-height]")
		fmt.Println("Example: go run cmd/create-product/main.go \"Vinyl banner\" per_area 45.90 5 3")
		fmt.Println("Example: go run cmd/create-product/main.go \"Business cards (500)\" fixed_unit 89.90")
		os.Exit(1)
	}

	name := os.Args[1]
	mode := domain.PricingMode(os.Args[2])
	price, err := decimal.NewFromString(os.Args[3])
	if err != nil || !price.IsPositive() {
		fmt.Fprintf(os.Stderr, "Invalid price %q\n", os.Args[3])
		os.Exit(1)
	}

	product := &domain.Product{
		Name:        name,
		PricingMode: mode,
		IsActive:    true,
	}
	switch mode {
	case domain.PricingModePerArea:
		product.PricePerArea = &price
		product.MaxWidth = optionalDimension(4)
		product.MaxHeight = optionalDimension(5)
	case domain.PricingModeFixedUnit:
		product.FixedPrice = &price
	default:
		fmt.Fprintf(os.Stderr, "Pricing mode must be per_area or fixed_unit, got %q\n", mode)
		os.Exit(1)
	}

	// Only the database settings are needed here
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(dbCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	if err := repos.Product.Create(context.Background(), product); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create product: %v\n", err)
		os.Exit(1)
	}

	unit, _ := product.UnitPrice()
	fmt.Printf("✅ Product created successfully!\n\n")
	fmt.Printf("Product ID: %s\n", product.ID.String())
	fmt.Printf("Name: %s\n", product.Name)
	fmt.Printf("Pricing: %s at %s\n", product.PricingMode, unit.StringFixed(2))
	if product.MaxWidth != nil {
		fmt.Printf("Max width: %s m\n", product.MaxWidth.String())
	}
	if product.MaxHeight != nil {
		fmt.Printf("Max height: %s m\n", product.MaxHeight.String())
	}
}

func optionalDimension(arg int) *decimal.Decimal {
	if len(os.Args) <= arg {
		return nil
	}
	v, err := decimal.NewFromString(os.Args[arg])
	if err != nil || !v.IsPositive() {
		fmt.Fprintf(os.Stderr, "Invalid dimension %q\n", os.Args[arg])
		os.Exit(1)
	}
	return &v
}

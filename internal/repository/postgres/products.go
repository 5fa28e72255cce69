package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/domain"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, name, description, category, pricing_mode, price_per_area, fixed_price,
		       max_width, max_height, image_urls, is_active, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product domain.Product
	var pricePerArea, fixedPrice, maxWidth, maxHeight decimal.NullDecimal

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.PricingMode,
		&pricePerArea,
		&fixedPrice,
		&maxWidth,
		&maxHeight,
		pq.Array(&product.ImageURLs),
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &apperrors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get product by ID", zap.Error(err))
		return nil, err
	}

	product.PricePerArea = nullDecimalPtr(pricePerArea)
	product.FixedPrice = nullDecimalPtr(fixedPrice)
	product.MaxWidth = nullDecimalPtr(maxWidth)
	product.MaxHeight = nullDecimalPtr(maxHeight)

	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, category, pricing_mode, price_per_area, fixed_price,
		                      max_width, max_height, image_urls, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	now := time.Now()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}
	if product.ImageURLs == nil {
		product.ImageURLs = []string{}
	}

	_, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.Category,
		product.PricingMode,
		product.PricePerArea,
		product.FixedPrice,
		product.MaxWidth,
		product.MaxHeight,
		pq.Array(product.ImageURLs),
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create product", zap.Error(err))
		return err
	}

	return nil
}

func nullDecimalPtr(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

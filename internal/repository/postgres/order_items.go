package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/domain"
)

type orderItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderItemRepository creates a new order item repository
func NewOrderItemRepository(db *sql.DB, logger *zap.Logger) *orderItemRepository {
	return &orderItemRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderItemRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	query := `
		SELECT id, order_id, line_index, product_id, product_name, pricing_mode, unit_price, width,
		       height, area, quantity, line_total, art_option, art_file, art_creation_fee, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_index, id
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to query order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		var width, height, area decimal.NullDecimal
		var quantity sql.NullInt64
		var artFile sql.NullString

		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.LineIndex,
			&item.ProductID,
			&item.ProductName,
			&item.PricingMode,
			&item.UnitPrice,
			&width,
			&height,
			&area,
			&quantity,
			&item.LineTotal,
			&item.ArtOption,
			&artFile,
			&item.ArtCreationFee,
			&item.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan order item", zap.Error(err))
			return nil, err
		}

		item.Width = nullDecimalPtr(width)
		item.Height = nullDecimalPtr(height)
		item.Area = nullDecimalPtr(area)
		if quantity.Valid {
			q := int(quantity.Int64)
			item.Quantity = &q
		}
		if artFile.Valid {
			item.ArtFile = &artFile.String
		}

		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

type orderEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderEventRepository creates a new order event repository
func NewOrderEventRepository(db *sql.DB, logger *zap.Logger) *orderEventRepository {
	return &orderEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderEventRepository) Create(ctx context.Context, event *domain.OrderEvent) error {
	if err := insertEvent(ctx, r.db, event); err != nil {
		r.logger.Error("Failed to create order event", zap.Error(err))
		return err
	}
	return nil
}

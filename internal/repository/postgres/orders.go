package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/domain"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

const orderColumns = `
	id, user_id, status, delivery_type, subtotal, art_creation_fee, shipping_cost, total,
	shipping_address, payment_method, payment_id, shipping_carrier, shipping_service,
	shipping_delivery_days, idempotency_key, request_hash, created_at, updated_at
`

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

// CreateWithItems inserts the order, its items and the creation event in one
// transaction. Nothing is visible to readers unless every insert succeeds.
func (r *orderRepository) CreateWithItems(ctx context.Context, order *domain.Order, items []*domain.OrderItem, event *domain.OrderEvent) error {
	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin order transaction", zap.Error(err))
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		order.ID,
		order.UserID,
		order.Status,
		order.DeliveryType,
		order.Subtotal,
		order.ArtCreationFee,
		order.ShippingCost,
		order.Total,
		order.ShippingAddress,
		order.PaymentMethod,
		order.PaymentID,
		order.ShippingCarrier,
		order.ShippingService,
		order.ShippingDeliveryDays,
		order.IdempotencyKey,
		order.RequestHash,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &apperrors.ErrConflict{Message: "idempotency key already used"}
		}
		r.logger.Error("Failed to insert order", zap.Error(err))
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_items (id, order_id, line_index, product_id, product_name, pricing_mode,
		                         unit_price, width, height, area, quantity, line_total, art_option,
		                         art_file, art_creation_fee, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`)
	if err != nil {
		r.logger.Error("Failed to prepare order item insert", zap.Error(err))
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		item.CreatedAt = now

		_, err := stmt.ExecContext(ctx,
			item.ID,
			item.OrderID,
			item.LineIndex,
			item.ProductID,
			item.ProductName,
			item.PricingMode,
			item.UnitPrice,
			item.Width,
			item.Height,
			item.Area,
			item.Quantity,
			item.LineTotal,
			item.ArtOption,
			item.ArtFile,
			item.ArtCreationFee,
			item.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to insert order item",
				zap.String("order_id", order.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err),
			)
			return err
		}
	}

	if event != nil {
		event.OrderID = order.ID
		if err := insertEvent(ctx, tx, event); err != nil {
			r.logger.Error("Failed to insert order event", zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit order transaction", zap.Error(err))
		return err
	}

	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &apperrors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND idempotency_key = $2`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, userID, key))
	if err == sql.ErrNoRows {
		return nil, &apperrors.ErrNotFound{Resource: "order", ID: key}
	}
	if err != nil {
		r.logger.Error("Failed to get order by idempotency key", zap.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *orderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, status, limit, offset)
}

func (r *orderRepository) List(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, offset)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error("Failed to scan order", zap.Error(err))
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) (bool, error) {
	query := `
		UPDATE orders
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`

	res, err := r.db.ExecContext(ctx, query, id, from, to, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err))
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *orderRepository) UpdatePaymentID(ctx context.Context, id uuid.UUID, paymentID string) error {
	query := `
		UPDATE orders
		SET payment_id = $2, updated_at = $3
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, paymentID, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order payment ID", zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperrors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var paymentID, idempotencyKey, requestHash sql.NullString

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.DeliveryType,
		&order.Subtotal,
		&order.ArtCreationFee,
		&order.ShippingCost,
		&order.Total,
		&order.ShippingAddress,
		&order.PaymentMethod,
		&paymentID,
		&order.ShippingCarrier,
		&order.ShippingService,
		&order.ShippingDeliveryDays,
		&idempotencyKey,
		&requestHash,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paymentID.Valid {
		order.PaymentID = &paymentID.String
	}
	if idempotencyKey.Valid {
		order.IdempotencyKey = &idempotencyKey.String
	}
	if requestHash.Valid {
		order.RequestHash = &requestHash.String
	}

	return &order, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertEvent(ctx context.Context, db execer, event *domain.OrderEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	data, err := json.Marshal(event.EventData)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO order_events (id, order_id, event_type, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.ID, event.OrderID, event.EventType, data, event.CreatedAt)
	return err
}

package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/printhouse/storefront/internal/domain"
)

// ProductRepository reads the trusted catalog
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
}

// OrderRepository persists orders. CreateWithItems writes the order, every
// item and the creation event in a single transaction.
type OrderRepository interface {
	CreateWithItems(ctx context.Context, order *domain.Order, items []*domain.OrderItem, event *domain.OrderEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Order, error)
	// CompareAndSetStatus moves the order to `to` only while it is still in
	// `from`; it reports whether a row changed.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) (bool, error)
	UpdatePaymentID(ctx context.Context, id uuid.UUID, paymentID string) error
}

type OrderItemRepository interface {
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error)
}

type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
}

// SettingRepository stores admin-managed key/value configuration
type SettingRepository interface {
	Get(ctx context.Context, key string) (*domain.Setting, error)
	Set(ctx context.Context, key, value string) error
}

// Repositories groups every repository used by the services
type Repositories struct {
	Product    ProductRepository
	Order      OrderRepository
	OrderItem  OrderItemRepository
	OrderEvent OrderEventRepository
	Setting    SettingRepository
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/events"
	"github.com/printhouse/storefront/internal/melhorenvio"
	"github.com/printhouse/storefront/internal/payments"
	"github.com/printhouse/storefront/internal/repository"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

type stubProductRepo struct {
	products map[uuid.UUID]*domain.Product
}

func (r *stubProductRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	return p, nil
}

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

type stubOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*domain.Order
	items     map[uuid.UUID][]*domain.OrderItem
	events    []*domain.OrderEvent
	createErr error
	creates   int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{
		orders: make(map[uuid.UUID]*domain.Order),
		items:  make(map[uuid.UUID][]*domain.OrderItem),
	}
}

func (r *stubOrderRepo) CreateWithItems(_ context.Context, order *domain.Order, items []*domain.OrderItem, event *domain.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.creates++
	if r.createErr != nil {
		return r.createErr
	}

	now := time.Now()
	order.ID = uuid.New()
	order.CreatedAt, order.UpdatedAt = now, now
	for _, item := range items {
		item.ID = uuid.New()
		item.OrderID = order.ID
		item.CreatedAt = now
	}
	stored := *order
	r.orders[order.ID] = &stored
	r.items[order.ID] = items
	if event != nil {
		event.OrderID = order.ID
		r.events = append(r.events, event)
	}
	return nil
}

func (r *stubOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) GetByIdempotencyKey(_ context.Context, userID uuid.UUID, key string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.orders {
		if o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, &apperrors.ErrNotFound{Resource: "order", ID: key}
}

func (r *stubOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.UserID == userID }, limit, offset), nil
}

func (r *stubOrderRepo) ListByStatus(_ context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.Status == status }, limit, offset), nil
}

func (r *stubOrderRepo) List(_ context.Context, limit, offset int) ([]*domain.Order, error) {
	return r.filter(func(*domain.Order) bool { return true }, limit, offset), nil
}

func (r *stubOrderRepo) filter(keep func(*domain.Order) bool, limit, offset int) []*domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Order
	for _, o := range r.orders {
		if keep(o) {
			cp := *o
			out = append(out, &cp)
		}
	}
	if offset >= len(out) {
		return []*domain.Order{}
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *stubOrderRepo) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to domain.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return false, &apperrors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return true, nil
}

func (r *stubOrderRepo) UpdatePaymentID(_ context.Context, id uuid.UUID, paymentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return &apperrors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	o.PaymentID = &paymentID
	return nil
}

func (r *stubOrderRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[orderID], nil
}

func (r *stubOrderRepo) Create(_ context.Context, event *domain.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *stubOrderRepo) eventTypes(orderID uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, e := range r.events {
		if e.OrderID == orderID {
			out = append(out, e.EventType)
		}
	}
	return out
}

// put stores an order directly, bypassing creation.
func (r *stubOrderRepo) put(o *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	r.orders[o.ID] = &cp
}

type stubSettingRepo struct {
	values map[string]string
	err    error
}

func (r *stubSettingRepo) Get(_ context.Context, key string) (*domain.Setting, error) {
	if r.err != nil {
		return nil, r.err
	}
	v, ok := r.values[key]
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "setting", ID: key}
	}
	return &domain.Setting{Key: key, Value: v}, nil
}

func (r *stubSettingRepo) Set(_ context.Context, key, value string) error {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	r.values[key] = value
	return nil
}

// newStubRepos wires one stubOrderRepo as order, item and event repository.
func newStubRepos(products ...*domain.Product) (*repository.Repositories, *stubOrderRepo) {
	productRepo := &stubProductRepo{products: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		productRepo.products[p.ID] = p
	}
	orders := newStubOrderRepo()
	return &repository.Repositories{
		Product:    productRepo,
		Order:      orders,
		OrderItem:  orders,
		OrderEvent: orders,
		Setting:    &stubSettingRepo{values: map[string]string{}},
	}, orders
}

type stubRateProvider struct {
	quotes  []melhorenvio.Quote
	err     error
	calls   int
	lastReq melhorenvio.CalculateRequest
	creds   melhorenvio.Credentials
}

func (p *stubRateProvider) Calculate(_ context.Context, creds melhorenvio.Credentials, req melhorenvio.CalculateRequest) ([]melhorenvio.Quote, error) {
	p.calls++
	p.lastReq = req
	p.creds = creds
	return p.quotes, p.err
}

type stubGateway struct {
	mu       sync.Mutex
	name     string
	methods  map[domain.PaymentMethod]bool
	result   *payments.PaymentResult
	err      error
	getErr   error
	payments map[string]*payments.PaymentResult
	requests []payments.PaymentRequest
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		name: "stub",
		methods: map[domain.PaymentMethod]bool{
			domain.PaymentMethodCard:   true,
			domain.PaymentMethodPix:    true,
			domain.PaymentMethodBoleto: true,
		},
		payments: make(map[string]*payments.PaymentResult),
	}
}

func (g *stubGateway) Name() string { return g.name }

func (g *stubGateway) Supports(method domain.PaymentMethod) bool { return g.methods[method] }

func (g *stubGateway) CreatePayment(_ context.Context, req payments.PaymentRequest) (*payments.PaymentResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	res := *g.result
	res.ExternalReference = req.ExternalReference
	res.Method = req.Method
	res.Amount = req.Amount
	g.payments[res.ID] = &res
	return &res, nil
}

func (g *stubGateway) GetPayment(_ context.Context, id string) (*payments.PaymentResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.getErr != nil {
		return nil, g.getErr
	}
	res, ok := g.payments[id]
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "payment", ID: id}
	}
	cp := *res
	return &cp, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

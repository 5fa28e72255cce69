package service

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/money"
	"github.com/printhouse/storefront/internal/repository"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

// ShippingPolicy is the band a delivery shipping amount must fall in
type ShippingPolicy struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// PricingPolicy configures the validator
type PricingPolicy struct {
	// ArtCreationFee, when positive, is the fee charged per create_for_me
	// line; client-submitted per-line fees are then ignored.
	ArtCreationFee decimal.Decimal
	Tolerance      decimal.Decimal
	Shipping       ShippingPolicy
}

// DefaultPricingPolicy returns the stock tolerance and shipping band.
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		ArtCreationFee: decimal.Zero,
		Tolerance:      money.Tolerance,
		Shipping: ShippingPolicy{
			Min: decimal.RequireFromString("10.00"),
			Max: decimal.RequireFromString("200.00"),
		},
	}
}

// CartLine is a cart line resolved against the product's stored pricing mode.
// It is either an AreaLine or a UnitLine.
type CartLine interface {
	line() *lineCommon
}

type lineCommon struct {
	Index     int
	Product   *domain.Product
	ArtOption domain.ArtOption
	ArtFile   *string
	ArtFee    decimal.Decimal
}

func (c *lineCommon) line() *lineCommon { return c }

// AreaLine is a line for a per_area product, dimensions in metres.
type AreaLine struct {
	lineCommon
	Width  decimal.Decimal
	Height decimal.Decimal
}

// UnitLine is a line for a fixed_unit product.
type UnitLine struct {
	lineCommon
	Quantity int
}

// PricingInput is the cart plus every client-submitted amount
type PricingInput struct {
	Lines          []CartLineInput
	DeliveryType   domain.DeliveryType
	Subtotal       decimal.Decimal
	ArtCreationFee decimal.Decimal
	Shipping       decimal.Decimal
	Total          decimal.Decimal
}

// PricedLine is a line with its server-computed amounts
type PricedLine struct {
	Line      CartLine
	UnitPrice decimal.Decimal
	Area      *decimal.Decimal
	LineTotal decimal.Decimal
}

// PricedOrder is the server recomputation of a cart
type PricedOrder struct {
	Lines       []PricedLine
	Subtotal    decimal.Decimal
	ArtFeeTotal decimal.Decimal
	Shipping    decimal.Decimal
	Total       decimal.Decimal
}

// PricingValidator recomputes every amount of a cart from the catalog and
// rejects carts whose client totals disagree.
type PricingValidator struct {
	products repository.ProductRepository
	policy   PricingPolicy
}

// NewPricingValidator creates a new pricing validator
func NewPricingValidator(products repository.ProductRepository, policy PricingPolicy) *PricingValidator {
	// Zero is honored and demands an exact match.
	if policy.Tolerance.IsNegative() {
		policy.Tolerance = money.Tolerance
	}
	return &PricingValidator{
		products: products,
		policy:   policy,
	}
}

// Validate prices the cart and cross-checks the client totals.
func (v *PricingValidator) Validate(ctx context.Context, in PricingInput) (*PricedOrder, error) {
	if len(in.Lines) == 0 {
		return nil, &apperrors.ErrValidation{Field: "items", Message: "cart is empty"}
	}
	if !in.DeliveryType.IsValid() {
		return nil, &apperrors.ErrValidation{Field: "deliveryType", Message: fmt.Sprintf("must be pickup or delivery, got %q", in.DeliveryType)}
	}
	if err := v.checkShipping(in.DeliveryType, in.Shipping); err != nil {
		return nil, err
	}

	priced := &PricedOrder{
		Lines:       make([]PricedLine, 0, len(in.Lines)),
		Subtotal:    decimal.Zero,
		ArtFeeTotal: decimal.Zero,
		Shipping:    in.Shipping,
	}

	for i, input := range in.Lines {
		line, err := v.resolveLine(ctx, i, input)
		if err != nil {
			return nil, err
		}

		pl, err := priceLine(line)
		if err != nil {
			return nil, err
		}

		priced.Lines = append(priced.Lines, pl)
		priced.Subtotal = priced.Subtotal.Add(pl.LineTotal)
		priced.ArtFeeTotal = priced.ArtFeeTotal.Add(line.line().ArtFee)
	}

	priced.Subtotal = money.Round2(priced.Subtotal)
	priced.ArtFeeTotal = money.Round2(priced.ArtFeeTotal)
	priced.Total = money.Round2(money.Sum(priced.Subtotal, priced.ArtFeeTotal, in.Shipping))

	checks := []struct {
		field          string
		client, server decimal.Decimal
	}{
		{"subtotal", in.Subtotal, priced.Subtotal},
		{"artCreationFee", in.ArtCreationFee, priced.ArtFeeTotal},
		{"total", in.Total, priced.Total},
	}
	for _, c := range checks {
		if !money.WithinTolerance(c.client, c.server, v.policy.Tolerance) {
			return nil, &apperrors.ErrTrustViolation{Field: c.field, Client: c.client, Server: c.server}
		}
	}

	return priced, nil
}

func (v *PricingValidator) checkShipping(deliveryType domain.DeliveryType, shipping decimal.Decimal) error {
	switch deliveryType {
	case domain.DeliveryTypePickup:
		if !shipping.IsZero() {
			return &apperrors.ErrValidation{Field: "shipping", Message: "shipping must be 0 for pickup orders"}
		}
	case domain.DeliveryTypeDelivery:
		band := v.policy.Shipping
		if shipping.LessThan(band.Min) || shipping.GreaterThan(band.Max) {
			return &apperrors.ErrValidation{
				Field:   "shipping",
				Message: fmt.Sprintf("shipping must be between %s and %s for delivery orders", band.Min.StringFixed(2), band.Max.StringFixed(2)),
			}
		}
	}
	return nil
}

// resolveLine turns a client line into an AreaLine or UnitLine according to
// the stored product, validating the fields that mode requires.
func (v *PricingValidator) resolveLine(ctx context.Context, i int, in CartLineInput) (CartLine, error) {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

	product, err := v.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, &apperrors.ErrNotFound{Resource: "product", ID: in.ProductID.String()}
	}

	if !in.ArtOption.IsValid() {
		return nil, &apperrors.ErrValidation{Field: field("artOption"), Message: "must be upload or create_for_me"}
	}

	fee, err := v.lineArtFee(in)
	if err != nil {
		return nil, &apperrors.ErrValidation{Field: field("artCreationFee"), Message: err.Error()}
	}

	common := lineCommon{
		Index:     i,
		Product:   product,
		ArtOption: in.ArtOption,
		ArtFile:   in.ArtFile,
		ArtFee:    fee,
	}

	switch product.PricingMode {
	case domain.PricingModePerArea:
		if in.Width == nil || in.Height == nil {
			return nil, &apperrors.ErrValidation{Field: field("width"), Message: "width and height are required for this product"}
		}
		if !in.Width.IsPositive() {
			return nil, &apperrors.ErrValidation{Field: field("width"), Message: "must be positive"}
		}
		if !in.Height.IsPositive() {
			return nil, &apperrors.ErrValidation{Field: field("height"), Message: "must be positive"}
		}
		if !hasPlaces(*in.Width, dimensionPlaces) {
			return nil, &apperrors.ErrValidation{Field: field("width"), Message: "must have at most 3 decimal places"}
		}
		if !hasPlaces(*in.Height, dimensionPlaces) {
			return nil, &apperrors.ErrValidation{Field: field("height"), Message: "must have at most 3 decimal places"}
		}
		if product.MaxWidth != nil && in.Width.GreaterThan(*product.MaxWidth) {
			return nil, &apperrors.ErrValidation{Field: field("width"), Message: fmt.Sprintf("exceeds maximum of %s", product.MaxWidth.String())}
		}
		if product.MaxHeight != nil && in.Height.GreaterThan(*product.MaxHeight) {
			return nil, &apperrors.ErrValidation{Field: field("height"), Message: fmt.Sprintf("exceeds maximum of %s", product.MaxHeight.String())}
		}
		return &AreaLine{lineCommon: common, Width: *in.Width, Height: *in.Height}, nil

	case domain.PricingModeFixedUnit:
		if in.Quantity == nil {
			return nil, &apperrors.ErrValidation{Field: field("quantity"), Message: "quantity is required for this product"}
		}
		q := *in.Quantity
		if !q.IsInteger() || !q.IsPositive() {
			return nil, &apperrors.ErrValidation{Field: field("quantity"), Message: "must be a positive integer"}
		}
		if q.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
			return nil, &apperrors.ErrValidation{Field: field("quantity"), Message: "is too large"}
		}
		return &UnitLine{lineCommon: common, Quantity: int(q.IntPart())}, nil

	default:
		return nil, fmt.Errorf("product %s has unknown pricing mode %q", product.ID, product.PricingMode)
	}
}

func (v *PricingValidator) lineArtFee(in CartLineInput) (decimal.Decimal, error) {
	if in.ArtCreationFee != nil {
		if in.ArtCreationFee.IsNegative() {
			return decimal.Zero, fmt.Errorf("must not be negative")
		}
		if !hasPlaces(*in.ArtCreationFee, 2) {
			return decimal.Zero, fmt.Errorf("must be in whole cents")
		}
	}

	if v.policy.ArtCreationFee.IsPositive() {
		if in.ArtOption == domain.ArtOptionCreateForMe {
			return v.policy.ArtCreationFee, nil
		}
		return decimal.Zero, nil
	}

	if in.ArtCreationFee == nil {
		return decimal.Zero, nil
	}
	return *in.ArtCreationFee, nil
}

// dimensionPlaces is the precision stored for widths and heights.
const dimensionPlaces = 3

// hasPlaces reports whether d needs no more than places decimal digits.
func hasPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Round(places))
}

// priceLine computes the line total from the stored product price.
func priceLine(line CartLine) (PricedLine, error) {
	product := line.line().Product

	unitPrice, ok := product.UnitPrice()
	if !ok {
		return PricedLine{}, fmt.Errorf("product %s has no price for mode %q", product.ID, product.PricingMode)
	}

	switch l := line.(type) {
	case *AreaLine:
		area, err := money.Area(l.Width, l.Height)
		if err != nil {
			return PricedLine{}, &apperrors.ErrValidation{Field: fmt.Sprintf("items[%d].width", l.Index), Message: err.Error()}
		}
		return PricedLine{
			Line:      line,
			UnitPrice: unitPrice,
			Area:      &area,
			LineTotal: money.Round2(area.Mul(unitPrice)),
		}, nil

	case *UnitLine:
		return PricedLine{
			Line:      line,
			UnitPrice: unitPrice,
			LineTotal: money.Round2(decimal.NewFromInt(int64(l.Quantity)).Mul(unitPrice)),
		}, nil

	default:
		return PricedLine{}, fmt.Errorf("unsupported cart line %T", line)
	}
}

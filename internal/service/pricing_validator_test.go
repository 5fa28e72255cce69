package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printhouse/storefront/internal/domain"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func bannerProduct() *domain.Product {
	return &domain.Product{
		ID:           uuid.New(),
		Name:         "Vinyl banner",
		PricingMode:  domain.PricingModePerArea,
		PricePerArea: decPtr("45.90"),
		MaxWidth:     decPtr("5.00"),
		IsActive:     true,
	}
}

func cardProduct() *domain.Product {
	return &domain.Product{
		ID:          uuid.New(),
		Name:        "Business cards (500)",
		PricingMode: domain.PricingModeFixedUnit,
		FixedPrice:  decPtr("89.90"),
		IsActive:    true,
	}
}

func newTestValidator(policy PricingPolicy, products ...*domain.Product) *PricingValidator {
	repos, _ := newStubRepos(products...)
	return NewPricingValidator(repos.Product, policy)
}

func TestPricingValidator_AreaLine(t *testing.T) {
	banner := bannerProduct()
	v := newTestValidator(DefaultPricingPolicy(), banner)

	priced, err := v.Validate(context.Background(), PricingInput{
		Lines: []CartLineInput{{
			ProductID: banner.ID,
			Width:     decPtr("2.5"),
			Height:    decPtr("1.5"),
			ArtOption: domain.ArtOptionUpload,
		}},
		DeliveryType: domain.DeliveryTypePickup,
		Subtotal:     d("172.13"),
		Total:        d("172.13"),
	})
	require.NoError(t, err)

	require.Len(t, priced.Lines, 1)
	line := priced.Lines[0]
	assert.Equal(t, "172.13", line.LineTotal.StringFixed(2))
	require.NotNil(t, line.Area)
	assert.Equal(t, "3.75", line.Area.StringFixed(2))
	assert.Equal(t, "45.90", line.UnitPrice.StringFixed(2))

	area, ok := line.Line.(*AreaLine)
	require.True(t, ok)
	assert.True(t, area.Width.Equal(d("2.5")))

	assert.Equal(t, "172.13", priced.Subtotal.StringFixed(2))
	assert.Equal(t, "172.13", priced.Total.StringFixed(2))
}

func TestPricingValidator_UnitLineWithDeliveryAndArtFee(t *testing.T) {
	cards := cardProduct()
	v := newTestValidator(DefaultPricingPolicy(), cards)

	priced, err := v.Validate(context.Background(), PricingInput{
		Lines: []CartLineInput{{
			ProductID:      cards.ID,
			Quantity:       decPtr("3"),
			ArtOption:      domain.ArtOptionCreateForMe,
			ArtCreationFee: decPtr("30.00"),
		}},
		DeliveryType:   domain.DeliveryTypeDelivery,
		Subtotal:       d("269.70"),
		ArtCreationFee: d("30.00"),
		Shipping:       d("21.10"),
		Total:          d("320.80"),
	})
	require.NoError(t, err)

	unit, ok := priced.Lines[0].Line.(*UnitLine)
	require.True(t, ok)
	assert.Equal(t, 3, unit.Quantity)
	assert.Nil(t, priced.Lines[0].Area)
	assert.Equal(t, "269.70", priced.Subtotal.StringFixed(2))
	assert.Equal(t, "30.00", priced.ArtFeeTotal.StringFixed(2))
	assert.Equal(t, "320.80", priced.Total.StringFixed(2))
}

func TestPricingValidator_ServerArtFee(t *testing.T) {
	cards := cardProduct()
	policy := DefaultPricingPolicy()
	policy.ArtCreationFee = d("25.00")
	v := newTestValidator(policy, cards)

	in := PricingInput{
		Lines: []CartLineInput{
			{ProductID: cards.ID, Quantity: decPtr("1"), ArtOption: domain.ArtOptionCreateForMe, ArtCreationFee: decPtr("0")},
			{ProductID: cards.ID, Quantity: decPtr("1"), ArtOption: domain.ArtOptionUpload, ArtCreationFee: decPtr("25.00")},
		},
		DeliveryType:   domain.DeliveryTypePickup,
		Subtotal:       d("179.80"),
		ArtCreationFee: d("25.00"),
		Total:          d("204.80"),
	}

	priced, err := v.Validate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "25.00", priced.Lines[0].Line.line().ArtFee.StringFixed(2))
	assert.True(t, priced.Lines[1].Line.line().ArtFee.IsZero())

	in.ArtCreationFee = d("0")
	in.Total = d("179.80")
	_, err = v.Validate(context.Background(), in)
	var trust *apperrors.ErrTrustViolation
	require.ErrorAs(t, err, &trust)
	assert.Equal(t, "artCreationFee", trust.Field)
}

func TestPricingValidator_TrustViolation(t *testing.T) {
	banner := bannerProduct()
	v := newTestValidator(DefaultPricingPolicy(), banner)

	base := PricingInput{
		Lines: []CartLineInput{{
			ProductID: banner.ID,
			Width:     decPtr("1"),
			Height:    decPtr("1"),
			ArtOption: domain.ArtOptionUpload,
		}},
		DeliveryType: domain.DeliveryTypeDelivery,
		Subtotal:     d("45.90"),
		Shipping:     d("20.00"),
		Total:        d("65.90"),
	}

	t.Run("within tolerance", func(t *testing.T) {
		in := base
		in.Total = d("65.91")
		_, err := v.Validate(context.Background(), in)
		require.NoError(t, err)
	})

	tests := []struct {
		name   string
		mutate func(*PricingInput)
		field  string
	}{
		{"subtotal", func(in *PricingInput) { in.Subtotal = d("40.00"); in.Total = d("60.00") }, "subtotal"},
		{"total", func(in *PricingInput) { in.Total = d("65.92") }, "total"},
		{"art fee", func(in *PricingInput) { in.ArtCreationFee = d("5.00"); in.Total = d("70.90") }, "artCreationFee"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)

			_, err := v.Validate(context.Background(), in)
			var trust *apperrors.ErrTrustViolation
			require.ErrorAs(t, err, &trust)
			assert.Equal(t, tt.field, trust.Field)
			assert.Contains(t, err.Error(), "refresh your cart")
		})
	}
}

func TestPricingValidator_ValidationErrors(t *testing.T) {
	banner := bannerProduct()
	cards := cardProduct()
	inactive := cardProduct()
	inactive.IsActive = false
	v := newTestValidator(DefaultPricingPolicy(), banner, cards, inactive)

	areaLine := func(w, h string) CartLineInput {
		return CartLineInput{ProductID: banner.ID, Width: decPtr(w), Height: decPtr(h), ArtOption: domain.ArtOptionUpload}
	}
	unitLine := func(q string) CartLineInput {
		return CartLineInput{ProductID: cards.ID, Quantity: decPtr(q), ArtOption: domain.ArtOptionUpload}
	}

	tests := []struct {
		name     string
		in       PricingInput
		notFound bool
		field    string
	}{
		{
			name:  "empty cart",
			in:    PricingInput{DeliveryType: domain.DeliveryTypePickup},
			field: "items",
		},
		{
			name:  "unknown delivery type",
			in:    PricingInput{Lines: []CartLineInput{unitLine("1")}, DeliveryType: "drone"},
			field: "deliveryType",
		},
		{
			name:  "pickup with shipping",
			in:    PricingInput{Lines: []CartLineInput{unitLine("1")}, DeliveryType: domain.DeliveryTypePickup, Shipping: d("0.01")},
			field: "shipping",
		},
		{
			name:  "delivery shipping below band",
			in:    PricingInput{Lines: []CartLineInput{unitLine("1")}, DeliveryType: domain.DeliveryTypeDelivery, Shipping: d("9.99")},
			field: "shipping",
		},
		{
			name:  "delivery shipping above band",
			in:    PricingInput{Lines: []CartLineInput{unitLine("1")}, DeliveryType: domain.DeliveryTypeDelivery, Shipping: d("200.01")},
			field: "shipping",
		},
		{
			name:     "unknown product",
			in:       PricingInput{Lines: []CartLineInput{{ProductID: uuid.New(), Quantity: decPtr("1"), ArtOption: domain.ArtOptionUpload}}, DeliveryType: domain.DeliveryTypePickup},
			notFound: true,
		},
		{
			name:     "inactive product",
			in:       PricingInput{Lines: []CartLineInput{{ProductID: inactive.ID, Quantity: decPtr("1"), ArtOption: domain.ArtOptionUpload}}, DeliveryType: domain.DeliveryTypePickup},
			notFound: true,
		},
		{
			name:  "zero width",
			in:    PricingInput{Lines: []CartLineInput{areaLine("0", "1")}, DeliveryType: domain.DeliveryTypePickup},
			field: "items[0].width",
		},
		{
			name:  "negative height",
			in:    PricingInput{Lines: []CartLineInput{areaLine("1", "-1")}, DeliveryType: domain.DeliveryTypePickup},
			field: "items[0].height",
		},
		{
			name:  "width above product maximum",
			in:    PricingInput{Lines: []CartLineInput{areaLine("5.01", "1")}, DeliveryType: domain.DeliveryTypePickup},
			field: "items[0].width",
		},
		{
			name:  "width finer than a millimetre",
			in:    PricingInput{Lines: []CartLineInput{areaLine("2.5555", "1")}, DeliveryType: domain.DeliveryTypePickup},
			field: "items[0].width",
		},
		{
			name:  "height finer than a millimetre",
			in:    PricingInput{Lines: []CartLineInput{areaLine("1", "0.0001")}, DeliveryType: domain.DeliveryTypePickup},
			field: "items[0].height",
		},
		{
			name: "art fee with fractional cents",
			in: PricingInput{
				Lines:        []CartLineInput{{ProductID: cards.ID, Quantity: decPtr("1"), ArtOption: domain.ArtOptionCreateForMe, ArtCreationFee: decPtr("10.005")}},
				DeliveryType: domain.DeliveryTypePickup,
			},
			field: "items[0].artCreationFee",
		},
		{
			name: "area product sent as quantity",
			in: PricingInput{
				Lines:        []CartLineInput{{ProductID: banner.ID, Quantity: decPtr("2"), ArtOption: domain.ArtOptionUpload}},
				DeliveryType: domain.DeliveryTypePickup,
			},
			field: "items[0].width",
		},
		{
			name: "unit product sent as dimensions",
			in: PricingInput{
				Lines:        []CartLineInput{{ProductID: cards.ID, Width: decPtr("1"), Height: decPtr("1"), ArtOption: domain.ArtOptionUpload}},
				DeliveryType: domain.DeliveryTypePickup,
			},
			field: "items[0].quantity",
		},
		{
			name:  "fractional quantity",
			in:    PricingInput{Lines: []CartLineInput{unitLine("1.5")}, DeliveryType: domain.DeliveryTypePickup},
			field: "items[0].quantity",
		},
		{
			name:  "zero quantity",
			in:    PricingInput{Lines: []CartLineInput{unitLine("0")}, DeliveryType: domain.DeliveryTypePickup},
			field: "items[0].quantity",
		},
		{
			name: "negative art fee",
			in: PricingInput{
				Lines:        []CartLineInput{{ProductID: cards.ID, Quantity: decPtr("1"), ArtOption: domain.ArtOptionCreateForMe, ArtCreationFee: decPtr("-1")}},
				DeliveryType: domain.DeliveryTypePickup,
			},
			field: "items[0].artCreationFee",
		},
		{
			name: "unknown art option",
			in: PricingInput{
				Lines:        []CartLineInput{{ProductID: cards.ID, Quantity: decPtr("1"), ArtOption: "email_later"}},
				DeliveryType: domain.DeliveryTypePickup,
			},
			field: "items[0].artOption",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), tt.in)
			require.Error(t, err)

			if tt.notFound {
				var nf *apperrors.ErrNotFound
				require.ErrorAs(t, err, &nf)
				return
			}
			var vErr *apperrors.ErrValidation
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestPricingValidator_ZeroToleranceRequiresExactTotals(t *testing.T) {
	cards := cardProduct()
	policy := DefaultPricingPolicy()
	policy.Tolerance = decimal.Zero
	v := newTestValidator(policy, cards)

	in := PricingInput{
		Lines:        []CartLineInput{{ProductID: cards.ID, Quantity: decPtr("1"), ArtOption: domain.ArtOptionUpload}},
		DeliveryType: domain.DeliveryTypePickup,
		Subtotal:     d("89.90"),
		Total:        d("89.90"),
	}
	_, err := v.Validate(context.Background(), in)
	require.NoError(t, err)

	in.Total = d("89.91")
	_, err = v.Validate(context.Background(), in)
	var trust *apperrors.ErrTrustViolation
	require.ErrorAs(t, err, &trust)
	assert.Equal(t, "total", trust.Field)
}

func TestPricingValidator_MillimetreDimensionsAccepted(t *testing.T) {
	banner := bannerProduct()
	v := newTestValidator(DefaultPricingPolicy(), banner)

	priced, err := v.Validate(context.Background(), PricingInput{
		Lines:        []CartLineInput{{ProductID: banner.ID, Width: decPtr("1.255"), Height: decPtr("0.8"), ArtOption: domain.ArtOptionUpload}},
		DeliveryType: domain.DeliveryTypePickup,
		Subtotal:     d("46.08"),
		Total:        d("46.08"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.004", priced.Lines[0].Area.StringFixed(3))
}

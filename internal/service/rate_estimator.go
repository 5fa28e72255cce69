package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/printhouse/storefront/internal/config"
	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/money"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

const (
	EstimatorCarrier        = "generic carrier"
	EstimatorEconomyID      = "fallback-economy"
	EstimatorExpressID      = "fallback-express"
	EstimatorEconomyService = "Economy"
	EstimatorExpressService = "Express"

	maxEconomyDays = 15
	maxExpressDays = 7
)

// Package is a parcel in centimetres and kilograms.
type Package struct {
	Height decimal.Decimal `json:"height"`
	Width  decimal.Decimal `json:"width"`
	Length decimal.Decimal `json:"length"`
	Weight decimal.Decimal `json:"weight"`
}

// DefaultPackage is the rolled-tube packaging most prints ship in.
func DefaultPackage() Package {
	return Package{
		Height: decimal.NewFromInt(10),
		Width:  decimal.NewFromInt(10),
		Length: decimal.NewFromInt(60),
		Weight: decimal.RequireFromString("0.5"),
	}
}

// DefaultEstimatorConfig returns the stock estimator coefficients.
func DefaultEstimatorConfig() config.EstimatorConfig {
	return config.EstimatorConfig{
		OriginPrefix:      "01",
		EconomyBase:       decimal.RequireFromString("15.00"),
		ExpressBase:       decimal.RequireFromString("25.00"),
		PerRegionDistance: decimal.RequireFromString("0.50"),
		EconomyPerKg:      decimal.RequireFromString("2.00"),
		ExpressPerKg:      decimal.RequireFromString("3.50"),
		VolumetricDivisor: decimal.NewFromInt(6000),
	}
}

// RateEstimator prices shipping locally when the rate provider cannot.
// It does no I/O and returns the same options for the same inputs.
type RateEstimator struct {
	cfg config.EstimatorConfig
}

// NewRateEstimator creates an estimator. A zero divisor falls back to 6000.
func NewRateEstimator(cfg config.EstimatorConfig) *RateEstimator {
	if !cfg.VolumetricDivisor.IsPositive() {
		cfg.VolumetricDivisor = decimal.NewFromInt(6000)
	}
	if len(cfg.OriginPrefix) < 2 {
		cfg.OriginPrefix = "01"
	}
	return &RateEstimator{cfg: cfg}
}

// Estimate returns an economy and an express option for the destination.
func (e *RateEstimator) Estimate(destinationCEP string, pkg Package) ([]domain.ShippingOption, error) {
	distance, err := e.regionDistance(destinationCEP)
	if err != nil {
		return nil, err
	}

	chargeable := e.chargeableWeight(pkg)
	distanceCharge := decimal.NewFromInt(int64(distance)).Mul(e.cfg.PerRegionDistance)

	economy := money.Round2(e.cfg.EconomyBase.Add(distanceCharge).Add(chargeable.Mul(e.cfg.EconomyPerKg)))
	express := money.Round2(e.cfg.ExpressBase.Add(distanceCharge).Add(chargeable.Mul(e.cfg.ExpressPerKg)))

	return []domain.ShippingOption{
		{
			ID:           EstimatorEconomyID,
			Carrier:      EstimatorCarrier,
			Service:      EstimatorEconomyService,
			DeliveryDays: min(maxEconomyDays, 5+distance/3),
			Price:        economy,
			Discount:     decimal.Zero,
			FinalPrice:   economy,
		},
		{
			ID:           EstimatorExpressID,
			Carrier:      EstimatorCarrier,
			Service:      EstimatorExpressService,
			DeliveryDays: min(maxExpressDays, 2+distance/5),
			Price:        express,
			Discount:     decimal.Zero,
			FinalPrice:   express,
		},
	}, nil
}

func (e *RateEstimator) regionDistance(destinationCEP string) (int, error) {
	digits := digitsOnly(destinationCEP)
	if len(digits) < 2 {
		return 0, &apperrors.ErrValidation{Field: "destinationCEP", Message: "must contain at least two digits"}
	}

	dest, err := strconv.Atoi(digits[:2])
	if err != nil {
		return 0, &apperrors.ErrValidation{Field: "destinationCEP", Message: "invalid postal code"}
	}
	origin, err := strconv.Atoi(e.cfg.OriginPrefix[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid estimator origin prefix %q: %w", e.cfg.OriginPrefix, err)
	}

	d := dest - origin
	if d < 0 {
		d = -d
	}
	return d, nil
}

// chargeableWeight is the larger of actual and volumetric weight.
func (e *RateEstimator) chargeableWeight(pkg Package) decimal.Decimal {
	volumetric := pkg.Height.Mul(pkg.Width).Mul(pkg.Length).Div(e.cfg.VolumetricDivisor)
	if volumetric.GreaterThan(pkg.Weight) {
		return volumetric
	}
	return pkg.Weight
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

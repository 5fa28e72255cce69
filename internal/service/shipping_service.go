package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/melhorenvio"
	"github.com/printhouse/storefront/internal/money"
	"github.com/printhouse/storefront/internal/repository"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

// RateProvider is the external shipping-rate API.
type RateProvider interface {
	Calculate(ctx context.Context, creds melhorenvio.Credentials, req melhorenvio.CalculateRequest) ([]melhorenvio.Quote, error)
}

// ShippingCredentialSource yields the rate provider credentials for one call.
type ShippingCredentialSource interface {
	ShippingCredentials(ctx context.Context) (melhorenvio.Credentials, error)
}

// StaticShippingCredentials always returns the same credentials.
type StaticShippingCredentials melhorenvio.Credentials

func (s StaticShippingCredentials) ShippingCredentials(context.Context) (melhorenvio.Credentials, error) {
	return melhorenvio.Credentials(s), nil
}

// SettingsShippingCredentials reads the admin-managed settings on every call.
// Values stored in settings win; the defaults cover keys that are not set.
type SettingsShippingCredentials struct {
	settings repository.SettingRepository
	defaults melhorenvio.Credentials
}

func NewSettingsShippingCredentials(settings repository.SettingRepository, defaults melhorenvio.Credentials) *SettingsShippingCredentials {
	return &SettingsShippingCredentials{settings: settings, defaults: defaults}
}

func (s *SettingsShippingCredentials) ShippingCredentials(ctx context.Context) (melhorenvio.Credentials, error) {
	creds := s.defaults

	token, err := s.lookup(ctx, domain.SettingShippingToken)
	if err != nil {
		return melhorenvio.Credentials{}, err
	}
	if token != "" {
		creds.Token = token
	}

	env, err := s.lookup(ctx, domain.SettingShippingEnvironment)
	if err != nil {
		return melhorenvio.Credentials{}, err
	}
	if env != "" {
		creds.Environment = env
	}

	return creds, nil
}

func (s *SettingsShippingCredentials) lookup(ctx context.Context, key string) (string, error) {
	setting, err := s.settings.Get(ctx, key)
	if err != nil {
		var notFound *apperrors.ErrNotFound
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return setting.Value, nil
}

// ShippingServiceConfig holds the warehouse-side inputs of every quote
type ShippingServiceConfig struct {
	OriginCEP      string
	InsuranceValue decimal.Decimal
}

// ShippingService resolves shipping options for a destination, degrading to
// the local estimator when the provider fails.
type ShippingService struct {
	provider    RateProvider
	credentials ShippingCredentialSource
	estimator   *RateEstimator
	originCEP   string
	insurance   decimal.Decimal
	logger      *zap.Logger
}

// NewShippingService creates a new shipping rate resolver
func NewShippingService(
	provider RateProvider,
	credentials ShippingCredentialSource,
	estimator *RateEstimator,
	cfg ShippingServiceConfig,
	logger *zap.Logger,
) *ShippingService {
	return &ShippingService{
		provider:    provider,
		credentials: credentials,
		estimator:   estimator,
		originCEP:   digitsOnly(cfg.OriginCEP),
		insurance:   cfg.InsuranceValue,
		logger:      logger,
	}
}

// Calculate quotes shipping to destinationCEP. A nil package uses the default
// tube; zero fields of a supplied package take the default value.
func (s *ShippingService) Calculate(ctx context.Context, destinationCEP string, pkg *Package) (*ShippingQuote, error) {
	cep, err := NormalizeCEP(destinationCEP)
	if err != nil {
		return nil, err
	}

	parcel, err := resolvePackage(pkg)
	if err != nil {
		return nil, err
	}

	creds, err := s.credentials.ShippingCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if creds.Token == "" {
		return nil, &apperrors.ErrConfiguration{Key: domain.SettingShippingToken}
	}

	req := melhorenvio.CalculateRequest{
		From: melhorenvio.Address{PostalCode: s.originCEP},
		To:   melhorenvio.Address{PostalCode: cep},
		Package: melhorenvio.Package{
			Height: parcel.Height.InexactFloat64(),
			Width:  parcel.Width.InexactFloat64(),
			Length: parcel.Length.InexactFloat64(),
			Weight: parcel.Weight.InexactFloat64(),
		},
		Options: &melhorenvio.Options{
			InsuranceValue: s.insurance.InexactFloat64(),
		},
	}

	quotes, err := s.provider.Calculate(ctx, creds, req)
	if err != nil {
		s.logger.Warn("Shipping provider failed, using estimator",
			zap.String("destination", cep),
			zap.Error(err),
		)
		return s.fallback(cep, parcel, fmt.Sprintf("rate provider error: %v", err))
	}

	options := make([]domain.ShippingOption, 0, len(quotes))
	for _, q := range quotes {
		if !q.Usable() {
			continue
		}
		options = append(options, mapQuote(q))
	}

	if len(options) == 0 {
		s.logger.Warn("Shipping provider returned no usable options, using estimator",
			zap.String("destination", cep),
			zap.Int("quotes", len(quotes)),
		)
		return s.fallback(cep, parcel, "rate provider returned no usable options")
	}

	return &ShippingQuote{
		Options:   options,
		OriginCEP: s.originCEP,
	}, nil
}

func (s *ShippingService) fallback(cep string, parcel Package, reason string) (*ShippingQuote, error) {
	options, err := s.estimator.Estimate(cep, parcel)
	if err != nil {
		return nil, err
	}
	return &ShippingQuote{
		Options:        options,
		OriginCEP:      s.originCEP,
		Fallback:       true,
		FallbackReason: reason,
	}, nil
}

// mapQuote converts a provider quote. The negotiated price, when present,
// is what the customer pays.
func mapQuote(q melhorenvio.Quote) domain.ShippingOption {
	price := decimal.Zero
	if q.Price != nil {
		price = *q.Price
	}
	discount := decimal.Zero
	if q.Discount != nil && q.Discount.IsPositive() {
		discount = *q.Discount
	}

	var final decimal.Decimal
	if q.CustomPrice != nil && q.CustomPrice.IsPositive() {
		final = *q.CustomPrice
		if !price.IsPositive() {
			price = final
		}
	} else {
		final = price.Sub(discount)
	}
	if final.IsNegative() {
		final = decimal.Zero
	}

	days := q.DeliveryTime
	if q.CustomDeliveryTime > 0 {
		days = q.CustomDeliveryTime
	}

	return domain.ShippingOption{
		ID:           strconv.Itoa(q.ID),
		Carrier:      q.Company.Name,
		Service:      q.Name,
		DeliveryDays: days,
		Price:        money.Round2(price),
		Discount:     money.Round2(discount),
		FinalPrice:   money.Round2(final),
	}
}

// NormalizeCEP strips formatting and requires exactly eight digits.
func NormalizeCEP(cep string) (string, error) {
	digits := digitsOnly(cep)
	if len(digits) != 8 {
		return "", &apperrors.ErrValidation{Field: "destinationCEP", Message: "postal code must have 8 digits"}
	}
	return digits, nil
}

func resolvePackage(pkg *Package) (Package, error) {
	parcel := DefaultPackage()
	if pkg == nil {
		return parcel, nil
	}

	fields := []struct {
		name  string
		value decimal.Decimal
		dst   *decimal.Decimal
	}{
		{"height", pkg.Height, &parcel.Height},
		{"width", pkg.Width, &parcel.Width},
		{"length", pkg.Length, &parcel.Length},
		{"weight", pkg.Weight, &parcel.Weight},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return Package{}, &apperrors.ErrValidation{Field: "packageDetails." + f.name, Message: "must be positive"}
		}
		if f.value.IsPositive() {
			*f.dst = f.value
		}
	}
	return parcel, nil
}

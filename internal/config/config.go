package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Auth        AuthConfig
	Shipping    ShippingConfig
	Payments    PaymentsConfig
	Pricing     PricingConfig
	Events      EventsConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the lib/pq connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type AuthConfig struct {
	JWTSecret string
}

type ShippingConfig struct {
	Token          string
	Environment    string
	UserAgent      string
	OriginCEP      string
	PickupAddress  string
	MinShipping    decimal.Decimal
	MaxShipping    decimal.Decimal
	InsuranceValue decimal.Decimal
	Estimator      EstimatorConfig
}

// EstimatorConfig holds the fallback calculator coefficients
type EstimatorConfig struct {
	OriginPrefix      string
	EconomyBase       decimal.Decimal
	ExpressBase       decimal.Decimal
	PerRegionDistance decimal.Decimal
	EconomyPerKg      decimal.Decimal
	ExpressPerKg      decimal.Decimal
	VolumetricDivisor decimal.Decimal
}

type PaymentsConfig struct {
	Provider             string
	MercadoPagoToken     string
	MercadoPagoNotifyURL string
	MercadoPagoBaseURL   string
	StripeSecretKey      string
	Currency             string
}

type PricingConfig struct {
	ArtCreationFee decimal.Decimal
	Tolerance      decimal.Decimal
}

type EventsConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
}

func Load() (*Config, error) {
	if err := readConfigFile(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database:    loadDatabase(),
		Auth: AuthConfig{
			JWTSecret: getEnvOrViper("JWT_SECRET", ""),
		},
		Payments: PaymentsConfig{
			Provider:             strings.ToLower(getEnvOrViper("PAYMENT_PROVIDER", "mercadopago")),
			MercadoPagoToken:     getEnvOrViper("MERCADOPAGO_ACCESS_TOKEN", ""),
			MercadoPagoNotifyURL: getEnvOrViper("MERCADOPAGO_NOTIFICATION_URL", ""),
			MercadoPagoBaseURL:   getEnvOrViper("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com"),
			StripeSecretKey:      getEnvOrViper("STRIPE_SECRET_KEY", ""),
			Currency:             getEnvOrViper("CURRENCY", "brl"),
		},
		Events: EventsConfig{
			KafkaBrokers: csv(getEnvOrViper("KAFKA_BROKERS", "")),
			KafkaTopic:   getEnvOrViper("KAFKA_TOPIC", "order_events"),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	var err error
	cfg.Shipping, err = loadShipping()
	if err != nil {
		return nil, err
	}
	cfg.Pricing, err = loadPricing()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Shipping.MinShipping.GreaterThan(cfg.Shipping.MaxShipping) {
		return nil, fmt.Errorf("SHIPPING_MIN must not exceed SHIPPING_MAX")
	}
	switch cfg.Payments.Provider {
	case "mercadopago", "stripe":
	default:
		return nil, fmt.Errorf("PAYMENT_PROVIDER must be mercadopago or stripe, got %q", cfg.Payments.Provider)
	}

	return cfg, nil
}

// LoadDatabase reads only the database section. Maintenance tools use it so
// they do not need the server's secrets.
func LoadDatabase() (DatabaseConfig, error) {
	if err := readConfigFile(); err != nil {
		return DatabaseConfig{}, err
	}
	return loadDatabase(), nil
}

func readConfigFile() error {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnvOrViper("DB_HOST", "localhost"),
		Port:     getEnvOrViper("DB_PORT", "5432"),
		User:     getEnvOrViper("DB_USER", "postgres"),
		Password: getEnvOrViper("DB_PASSWORD", "postgres"),
		DBName:   getEnvOrViper("DB_NAME", "storefront"),
		SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
	}
}

func loadShipping() (ShippingConfig, error) {
	amounts := map[string]string{
		"SHIPPING_MIN":                 "10.00",
		"SHIPPING_MAX":                 "200.00",
		"SHIPPING_INSURANCE_VALUE":     "0",
		"ESTIMATOR_ECONOMY_BASE":       "15.00",
		"ESTIMATOR_EXPRESS_BASE":       "25.00",
		"ESTIMATOR_PER_DISTANCE":       "0.50",
		"ESTIMATOR_ECONOMY_PER_KG":     "2.00",
		"ESTIMATOR_EXPRESS_PER_KG":     "3.50",
		"ESTIMATOR_VOLUMETRIC_DIVISOR": "6000",
	}
	parsed := make(map[string]decimal.Decimal, len(amounts))
	for key, def := range amounts {
		v, err := getDecimal(key, def)
		if err != nil {
			return ShippingConfig{}, err
		}
		parsed[key] = v
	}

	return ShippingConfig{
		Token:          getEnvOrViper("MELHOR_ENVIO_TOKEN", ""),
		Environment:    getEnvOrViper("MELHOR_ENVIO_ENVIRONMENT", "sandbox"),
		UserAgent:      getEnvOrViper("MELHOR_ENVIO_USER_AGENT", "storefront (contato@example.com)"),
		OriginCEP:      getEnvOrViper("ORIGIN_CEP", "01001000"),
		PickupAddress:  getEnvOrViper("PICKUP_ADDRESS", "Retirada no balcão - Rua da Gráfica, 100, São Paulo/SP"),
		MinShipping:    parsed["SHIPPING_MIN"],
		MaxShipping:    parsed["SHIPPING_MAX"],
		InsuranceValue: parsed["SHIPPING_INSURANCE_VALUE"],
		Estimator: EstimatorConfig{
			OriginPrefix:      getEnvOrViper("ESTIMATOR_ORIGIN_PREFIX", "01"),
			EconomyBase:       parsed["ESTIMATOR_ECONOMY_BASE"],
			ExpressBase:       parsed["ESTIMATOR_EXPRESS_BASE"],
			PerRegionDistance: parsed["ESTIMATOR_PER_DISTANCE"],
			EconomyPerKg:      parsed["ESTIMATOR_ECONOMY_PER_KG"],
			ExpressPerKg:      parsed["ESTIMATOR_EXPRESS_PER_KG"],
			VolumetricDivisor: parsed["ESTIMATOR_VOLUMETRIC_DIVISOR"],
		},
	}, nil
}

func loadPricing() (PricingConfig, error) {
	fee, err := getDecimal("ART_CREATION_FEE", "0")
	if err != nil {
		return PricingConfig{}, err
	}
	tol, err := getDecimal("PRICE_TOLERANCE", "0.01")
	if err != nil {
		return PricingConfig{}, err
	}
	if fee.IsNegative() || tol.IsNegative() {
		return PricingConfig{}, fmt.Errorf("ART_CREATION_FEE and PRICE_TOLERANCE must be non-negative")
	}
	if !fee.Equal(fee.Round(2)) {
		return PricingConfig{}, fmt.Errorf("ART_CREATION_FEE must be in whole cents, got %s", fee.String())
	}
	return PricingConfig{ArtCreationFee: fee, Tolerance: tol}, nil
}

func getDecimal(key, defaultValue string) (decimal.Decimal, error) {
	raw := getEnvOrViper(key, defaultValue)
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q: %w", key, raw, err)
	}
	return v, nil
}

func csv(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

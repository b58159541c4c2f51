package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration for the API service.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Invoice   InvoiceConfig
	Payment   PaymentConfig
	Loyalty   LoyaltyConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port          int
	MetricsPath   string
	ShutdownGrace int
}

// StorageBackend selects where products, customers, orders and idempotency
// keys live.
type StorageBackend string

const (
	BackendMemory   StorageBackend = "memory"
	BackendPostgres StorageBackend = "postgres"
)

type DatabaseConfig struct {
	Backend        StorageBackend
	URL            string
	AutoMigrate    bool
	MigrationsPath string
	IdempotencyTTL time.Duration
}

type InvoiceConfig struct {
	Secret    string
	OutputDir string
	// LogPath is the sqlite file recording issued invoices. Empty keeps the log in memory.
	LogPath string
}

type PaymentConfig struct {
	TransferApprovalRate float64
	CardLimit            float64
	TaxRate              float64
}

type LoyaltyConfig struct {
	StepDelay         time.Duration
	FrequentThreshold int
	CriticalThreshold int
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	OTelInsecure  bool
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort             = 8080
	defaultMetricsPath          = "/metrics"
	defaultShutdownGrace        = 15
	defaultBackend              = BackendMemory
	defaultMigrationsPath       = "migrations"
	defaultAutoMigrate          = true
	defaultIdempotencyTTL       = 24 * time.Hour
	defaultInvoiceDir           = "invoices"
	defaultTransferApprovalRate = 0.9
	defaultCardLimit            = 5000.0
	defaultTaxRate              = 0.13
	defaultLoyaltyStepDelay     = 100 * time.Millisecond
	defaultFrequentThreshold    = 3
	defaultCriticalThreshold    = 5
	defaultServiceName          = "puravida-api"
	defaultServiceVersion       = "0.1.0"
	defaultEnvironment          = "development"
	defaultLogLevel             = "info"
	defaultOTelSampleRate       = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	dbCfg, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("loading database config: %w", err)
	}

	paymentCfg, err := loadPaymentConfig()
	if err != nil {
		return nil, fmt.Errorf("loading payment config: %w", err)
	}

	loyaltyCfg, err := loadLoyaltyConfig()
	if err != nil {
		return nil, fmt.Errorf("loading loyalty config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	cfg := &Config{
		HTTP:      httpCfg,
		Database:  dbCfg,
		Invoice:   loadInvoiceConfig(),
		Payment:   paymentCfg,
		Loyalty:   loyaltyCfg,
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Invoice.Secret) == "" {
		errs = append(errs, errors.New("INVOICE_SECRET is required"))
	}
	if c.Payment.TransferApprovalRate < 0 || c.Payment.TransferApprovalRate > 1 {
		errs = append(errs, fmt.Errorf("TRANSFER_APPROVAL_RATE must be within [0,1], got %v", c.Payment.TransferApprovalRate))
	}
	if c.Payment.CardLimit <= 0 {
		errs = append(errs, fmt.Errorf("CARD_LIMIT must be positive, got %v", c.Payment.CardLimit))
	}
	if c.Payment.TaxRate < 0 {
		errs = append(errs, fmt.Errorf("TAX_RATE must not be negative, got %v", c.Payment.TaxRate))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be within [0,1], got %v", c.Telemetry.SampleRate))
	}
	switch c.Database.Backend {
	case BackendMemory, BackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", c.Database.Backend))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	shutdownGrace, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	metricsPath := getEnvOrDefault("API_METRICS_PATH", defaultMetricsPath)

	return HTTPConfig{
		Port:          port,
		MetricsPath:   metricsPath,
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	autoMigrate := getBoolEnv("AUTO_MIGRATE", defaultAutoMigrate)
	migrationsPath := getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath)
	backend := StorageBackend(strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", string(defaultBackend))))

	ttl, err := getDurationEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	return DatabaseConfig{
		Backend:        backend,
		URL:            databaseURL,
		AutoMigrate:    autoMigrate,
		MigrationsPath: migrationsPath,
		IdempotencyTTL: ttl,
	}, nil
}

func loadInvoiceConfig() InvoiceConfig {
	return InvoiceConfig{
		Secret:    os.Getenv("INVOICE_SECRET"),
		OutputDir: getEnvOrDefault("INVOICE_OUTPUT_DIR", defaultInvoiceDir),
		LogPath:   os.Getenv("INVOICE_LOG_PATH"),
	}
}

func loadPaymentConfig() (PaymentConfig, error) {
	rate, err := getFloatEnv("TRANSFER_APPROVAL_RATE", defaultTransferApprovalRate)
	if err != nil {
		return PaymentConfig{}, err
	}
	limit, err := getFloatEnv("CARD_LIMIT", defaultCardLimit)
	if err != nil {
		return PaymentConfig{}, err
	}
	tax, err := getFloatEnv("TAX_RATE", defaultTaxRate)
	if err != nil {
		return PaymentConfig{}, err
	}

	return PaymentConfig{
		TransferApprovalRate: rate,
		CardLimit:            limit,
		TaxRate:              tax,
	}, nil
}

func loadLoyaltyConfig() (LoyaltyConfig, error) {
	delay, err := getDurationEnv("LOYALTY_STEP_DELAY", defaultLoyaltyStepDelay)
	if err != nil {
		return LoyaltyConfig{}, err
	}
	frequent, err := getIntEnv("LOYALTY_FREQUENT_THRESHOLD", defaultFrequentThreshold)
	if err != nil {
		return LoyaltyConfig{}, err
	}
	critical, err := getIntEnv("CRITICAL_STOCK_THRESHOLD", defaultCriticalThreshold)
	if err != nil {
		return LoyaltyConfig{}, err
	}

	return LoyaltyConfig{
		StepDelay:         delay,
		FrequentThreshold: frequent,
		CriticalThreshold: critical,
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	logLevel := getEnvOrDefault("LOG_LEVEL", defaultLogLevel)
	otelEndpoint := getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	otelInsecure := getBoolEnv("OTEL_EXPORTER_OTLP_INSECURE", true)

	enableTracing := getBoolEnv("OTEL_ENABLE_TRACING", true)
	enableMetrics := getBoolEnv("OTEL_ENABLE_METRICS", true)

	sampleRate, err := getFloatEnv("OTEL_SAMPLE_RATE", defaultOTelSampleRate)
	if err != nil {
		return TelemetryConfig{}, err
	}

	return TelemetryConfig{
		LogLevel:      logLevel,
		OTelEndpoint:  otelEndpoint,
		OTelInsecure:  otelInsecure,
		EnableTracing: enableTracing,
		EnableMetrics: enableMetrics,
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "puravida")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getFloatEnv(key string, defaultValue float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

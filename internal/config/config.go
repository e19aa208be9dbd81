package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration for the storefront API.
type Config struct {
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Storage     StorageConfig
	Orders      OrdersConfig
	Idempotency IdempotencyConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Telemetry   TelemetryConfig
	Service     ServiceConfig
}

type HTTPConfig struct {
	Port          int
	ShutdownGrace int
	FrontendURL   string
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type StorageConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Configured reports whether an S3-compatible endpoint is available.
func (s StorageConfig) Configured() bool {
	return s.Bucket != "" && s.Endpoint != ""
}

type OrdersConfig struct {
	MissingProductPolicy   string
	PlaceholderProductName string
}

type IdempotencyConfig struct {
	Backend string
	TTL     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers          []string
	OrderEventsTopic string
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

// IsDevelopment reports whether internal error details may be exposed to clients.
func (s ServiceConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

const (
	defaultHTTPPort        = 5000
	defaultShutdownGrace   = 15
	defaultFrontendURL     = "http://localhost:8080"
	defaultMigrationsPath  = "migrations"
	defaultAutoMigrate     = true
	defaultMaxConns        = "20"
	defaultAccessTTL       = 15 * time.Minute
	defaultRefreshTTL      = 7 * 24 * time.Hour
	defaultStorageRegion   = "auto"
	defaultMissingPolicy   = "placeholder"
	defaultPlaceholderName = "Product"
	defaultIdemBackend     = "postgres"
	defaultIdemTTL         = 24 * time.Hour
	defaultRedisAddr       = "localhost:6379"
	defaultOrderTopic      = "orders.events"
	defaultServiceName     = "storefront-api"
	defaultServiceVersion  = "0.1.0"
	defaultEnvironment     = "development"
	defaultLogLevel        = "info"
	defaultOTelSampleRate  = 1.0

	devAccessSecret  = "dev-access-secret-change-me"
	devRefreshSecret = "dev-refresh-secret-change-me"
)

var ErrMissingSecret = errors.New("JWT_SECRET and JWT_REFRESH_SECRET are required outside development")

// Load reads configuration from environment variables, applying defaults when needed.
// A .env file in the working directory is loaded first when present; real environment
// variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	serviceCfg := loadServiceConfig()

	authCfg, err := loadAuthConfig(serviceCfg)
	if err != nil {
		return nil, fmt.Errorf("loading auth config: %w", err)
	}

	ordersCfg, err := loadOrdersConfig()
	if err != nil {
		return nil, fmt.Errorf("loading orders config: %w", err)
	}

	idemCfg, err := loadIdempotencyConfig()
	if err != nil {
		return nil, fmt.Errorf("loading idempotency config: %w", err)
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		return nil, fmt.Errorf("loading redis config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	return &Config{
		HTTP:        httpCfg,
		Database:    loadDatabaseConfig(),
		Auth:        authCfg,
		Storage:     loadStorageConfig(),
		Orders:      ordersCfg,
		Idempotency: idemCfg,
		Redis:       redisCfg,
		Kafka:       loadKafkaConfig(),
		Telemetry:   telCfg,
		Service:     serviceCfg,
	}, nil
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

	return HTTPConfig{
		Port:          port,
		ShutdownGrace: shutdownGrace,
		FrontendURL:   getEnvOrDefault("FRONTEND_URL", defaultFrontendURL),
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	} else {
		databaseURL = withPoolBound(databaseURL, getEnvOrDefault("DB_MAX_CONNS", defaultMaxConns))
	}

	return DatabaseConfig{
		URL:            databaseURL,
		AutoMigrate:    getBoolEnv("AUTO_MIGRATE", defaultAutoMigrate),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}
}

func loadAuthConfig(service ServiceConfig) (AuthConfig, error) {
	accessTTL, err := getDurationEnv("JWT_EXPIRY", defaultAccessTTL)
	if err != nil {
		return AuthConfig{}, err
	}

	refreshTTL, err := getDurationEnv("REFRESH_TOKEN_EXPIRY", defaultRefreshTTL)
	if err != nil {
		return AuthConfig{}, err
	}

	accessSecret := os.Getenv("JWT_SECRET")
	refreshSecret := os.Getenv("JWT_REFRESH_SECRET")
	if accessSecret == "" || refreshSecret == "" {
		if !service.IsDevelopment() {
			return AuthConfig{}, ErrMissingSecret
		}
		accessSecret = getEnvOrDefault("JWT_SECRET", devAccessSecret)
		refreshSecret = getEnvOrDefault("JWT_REFRESH_SECRET", devRefreshSecret)
	}

	return AuthConfig{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}, nil
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Bucket:    os.Getenv("STORAGE_BUCKET_NAME"),
		Region:    getEnvOrDefault("STORAGE_REGION", defaultStorageRegion),
		Endpoint:  strings.TrimSuffix(os.Getenv("STORAGE_ENDPOINT"), "/"),
		AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
		SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
	}
}

func loadOrdersConfig() (OrdersConfig, error) {
	policy := getEnvOrDefault("ORDER_MISSING_PRODUCT_POLICY", defaultMissingPolicy)
	if policy != "placeholder" && policy != "reject" {
		return OrdersConfig{}, fmt.Errorf("invalid ORDER_MISSING_PRODUCT_POLICY %q: want placeholder or reject", policy)
	}

	return OrdersConfig{
		MissingProductPolicy:   policy,
		PlaceholderProductName: getEnvOrDefault("ORDER_PLACEHOLDER_PRODUCT_NAME", defaultPlaceholderName),
	}, nil
}

func loadIdempotencyConfig() (IdempotencyConfig, error) {
	backend := getEnvOrDefault("IDEMPOTENCY_BACKEND", defaultIdemBackend)
	switch backend {
	case "postgres", "redis", "memory":
	default:
		return IdempotencyConfig{}, fmt.Errorf("invalid IDEMPOTENCY_BACKEND %q", backend)
	}

	ttl, err := getDurationEnv("IDEMPOTENCY_TTL", defaultIdemTTL)
	if err != nil {
		return IdempotencyConfig{}, err
	}

	return IdempotencyConfig{Backend: backend, TTL: ttl}, nil
}

func loadRedisConfig() (RedisConfig, error) {
	db, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Addr:     getEnvOrDefault("REDIS_ADDR", defaultRedisAddr),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func loadKafkaConfig() KafkaConfig {
	var brokers []string
	if value, ok := os.LookupEnv("KAFKA_BROKERS"); ok && value != "" {
		brokers = strings.Split(value, ",")
	}

	return KafkaConfig{
		Brokers:          brokers,
		OrderEventsTopic: getEnvOrDefault("KAFKA_ORDER_EVENTS_TOPIC", defaultOrderTopic),
	}
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	otelEndpoint := getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	// Exporters need somewhere to send data; without an endpoint both default off.
	return TelemetryConfig{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:  otelEndpoint,
		EnableTracing: getBoolEnv("OTEL_ENABLE_TRACING", otelEndpoint != ""),
		EnableMetrics: getBoolEnv("OTEL_ENABLE_METRICS", otelEndpoint != ""),
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
	query := url.Values{}
	query.Set("sslmode", getEnvOrDefault("DB_SSLMODE", "disable"))
	query.Set("pool_max_conns", getEnvOrDefault("DB_MAX_CONNS", defaultMaxConns))
	query.Set("pool_min_conns", getEnvOrDefault("DB_MIN_CONNS", "2"))
	query.Set("pool_max_conn_lifetime", getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m"))

	u := url.URL{
		Scheme: "postgres",
		User: url.UserPassword(
			getEnvOrDefault("DB_USER", "postgres"),
			getEnvOrDefault("DB_PASSWORD", "postgres"),
		),
		Host:     getEnvOrDefault("DB_HOST", "localhost") + ":" + getEnvOrDefault("DB_PORT", "5432"),
		Path:     "/" + getEnvOrDefault("DB_NAME", "storefront"),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// withPoolBound adds pool_max_conns to a DATABASE_URL that does not set it. Both URL and
// keyword/value connection strings are accepted.
func withPoolBound(databaseURL, maxConns string) string {
	if strings.Contains(databaseURL, "pool_max_conns") {
		return databaseURL
	}

	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		u, err := url.Parse(databaseURL)
		if err != nil {
			return databaseURL
		}
		query := u.Query()
		query.Set("pool_max_conns", maxConns)
		u.RawQuery = query.Encode()
		return u.String()
	}
	return strings.TrimSpace(databaseURL) + " pool_max_conns=" + maxConns
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
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

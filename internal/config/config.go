package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/competition-engine/internal/platform/logging"
)

const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"

	EventLogBackendMemory = "memory"
	EventLogBackendNATS   = "nats"
	EventLogBackendNone   = "none"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level
	CORSAllowedOrigins []string
	SwaggerEnabled     bool

	StoreBackend               string
	DBURL                      string
	DBDisablePreparedBinary    bool
	StoreMaxTxAttempts         int
	StoreRetryBackoff          time.Duration
	StoreRetryMaxBackoff       time.Duration
	StoreCircuitEnabled        bool
	StoreCircuitFailureCount   int
	StoreCircuitOpenTimeout    time.Duration
	StoreCircuitHalfOpenTrials int
	CacheEnabled               bool
	CacheTTL                   time.Duration
	FuzzyMaxDistance           int

	EventLogBackend   string
	NATSURL           string
	NATSStream        string
	NATSSubjectPrefix string

	AdminToken          string
	AdminRateLimitRPS   float64
	AdminRateLimitBurst int
	WorkerPoolSize      int

	UptraceEnabled         bool
	UptraceDSN             string
	PprofEnabled           bool
	PprofAddr              string
	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}
	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	readTimeout, err := getEnvAsPositiveDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsPositiveDuration("APP_WRITE_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "competition-engine"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		LogLevel:           logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SwaggerEnabled:     swaggerEnabled,
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if err := loadStore(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadEventLog(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadAdmin(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadStore(cfg *Config) error {
	backend := strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StoreBackendMemory)))
	switch backend {
	case StoreBackendMemory, StoreBackendPostgres:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: valid values are %s, %s", backend, StoreBackendMemory, StoreBackendPostgres)
	}
	cfg.StoreBackend = backend

	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	if backend == StoreBackendPostgres && cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required when STORE_BACKEND=postgres")
	}
	disablePrepared, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = disablePrepared

	maxAttempts, err := getEnvAsInt("STORE_MAX_TX_ATTEMPTS", 8)
	if err != nil {
		return fmt.Errorf("parse STORE_MAX_TX_ATTEMPTS: %w", err)
	}
	if maxAttempts < 1 {
		return fmt.Errorf("STORE_MAX_TX_ATTEMPTS must be >= 1")
	}
	cfg.StoreMaxTxAttempts = maxAttempts

	if cfg.StoreRetryBackoff, err = getEnvAsPositiveDuration("STORE_RETRY_BACKOFF", "25ms"); err != nil {
		return err
	}
	if cfg.StoreRetryMaxBackoff, err = getEnvAsPositiveDuration("STORE_RETRY_MAX_BACKOFF", "500ms"); err != nil {
		return err
	}
	if cfg.StoreRetryMaxBackoff < cfg.StoreRetryBackoff {
		return fmt.Errorf("STORE_RETRY_MAX_BACKOFF must be >= STORE_RETRY_BACKOFF")
	}

	if cfg.StoreCircuitEnabled, err = strconv.ParseBool(getEnv("STORE_CIRCUIT_ENABLED", "true")); err != nil {
		return fmt.Errorf("parse STORE_CIRCUIT_ENABLED: %w", err)
	}
	if cfg.StoreCircuitFailureCount, err = getEnvAsInt("STORE_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return fmt.Errorf("parse STORE_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.StoreCircuitFailureCount < 1 {
		return fmt.Errorf("STORE_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if cfg.StoreCircuitOpenTimeout, err = getEnvAsPositiveDuration("STORE_CIRCUIT_OPEN_TIMEOUT", "15s"); err != nil {
		return err
	}
	if cfg.StoreCircuitHalfOpenTrials, err = getEnvAsInt("STORE_CIRCUIT_HALF_OPEN_TRIALS", 2); err != nil {
		return fmt.Errorf("parse STORE_CIRCUIT_HALF_OPEN_TRIALS: %w", err)
	}
	if cfg.StoreCircuitHalfOpenTrials < 1 {
		return fmt.Errorf("STORE_CIRCUIT_HALF_OPEN_TRIALS must be >= 1")
	}

	if cfg.CacheEnabled, err = strconv.ParseBool(getEnv("CACHE_ENABLED", "true")); err != nil {
		return fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	if cfg.CacheTTL, err = getEnvAsPositiveDuration("CACHE_TTL", "30s"); err != nil {
		return err
	}

	if cfg.FuzzyMaxDistance, err = getEnvAsInt("FUZZY_MAX_DISTANCE", 3); err != nil {
		return fmt.Errorf("parse FUZZY_MAX_DISTANCE: %w", err)
	}
	if cfg.FuzzyMaxDistance < 0 {
		return fmt.Errorf("FUZZY_MAX_DISTANCE must be >= 0")
	}
	return nil
}

func loadEventLog(cfg *Config) error {
	backend := strings.ToLower(strings.TrimSpace(getEnv("EVENTLOG_BACKEND", EventLogBackendMemory)))
	switch backend {
	case EventLogBackendMemory, EventLogBackendNATS, EventLogBackendNone:
	default:
		return fmt.Errorf("invalid EVENTLOG_BACKEND %q: valid values are %s, %s, %s",
			backend, EventLogBackendMemory, EventLogBackendNATS, EventLogBackendNone)
	}
	cfg.EventLogBackend = backend
	cfg.NATSURL = strings.TrimSpace(getEnv("NATS_URL", ""))
	if backend == EventLogBackendNATS && cfg.NATSURL == "" {
		return fmt.Errorf("NATS_URL is required when EVENTLOG_BACKEND=nats")
	}
	cfg.NATSStream = strings.TrimSpace(getEnv("NATS_STREAM", "MATCH_EVENTS"))
	cfg.NATSSubjectPrefix = strings.TrimSpace(getEnv("NATS_SUBJECT_PREFIX", "competition.events"))
	return nil
}

func loadAdmin(cfg *Config) error {
	cfg.AdminToken = strings.TrimSpace(getEnv("ADMIN_TOKEN", ""))
	if cfg.AppEnv == EnvProd && cfg.AdminToken == "" {
		return fmt.Errorf("ADMIN_TOKEN is required when APP_ENV=prod")
	}

	rps, err := strconv.ParseFloat(strings.TrimSpace(getEnv("ADMIN_RATE_LIMIT_RPS", "5")), 64)
	if err != nil {
		return fmt.Errorf("parse ADMIN_RATE_LIMIT_RPS: %w", err)
	}
	if rps < 0 {
		return fmt.Errorf("ADMIN_RATE_LIMIT_RPS must be >= 0")
	}
	cfg.AdminRateLimitRPS = rps

	if cfg.AdminRateLimitBurst, err = getEnvAsInt("ADMIN_RATE_LIMIT_BURST", 10); err != nil {
		return fmt.Errorf("parse ADMIN_RATE_LIMIT_BURST: %w", err)
	}
	if cfg.AdminRateLimitBurst < 1 {
		return fmt.Errorf("ADMIN_RATE_LIMIT_BURST must be >= 1")
	}

	if cfg.WorkerPoolSize, err = getEnvAsInt("WORKER_POOL_SIZE", 4); err != nil {
		return fmt.Errorf("parse WORKER_POOL_SIZE: %w", err)
	}
	if cfg.WorkerPoolSize < 1 {
		return fmt.Errorf("WORKER_POOL_SIZE must be >= 1")
	}
	return nil
}

func loadObservability(cfg *Config) error {
	var err error
	if cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PprofEnabled, err = strconv.ParseBool(getEnv("PPROF_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	if cfg.PyroscopeUploadRate, err = getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsPositiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

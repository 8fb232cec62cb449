package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Analysis   AnalysisConfig
	Collector  CollectorConfig
	Thresholds ThresholdsConfig
	NATS       NATSConfig
	CloudWatch CloudWatchConfig
	Monitor    MonitorConfig
	Security   SecurityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

type AnalysisConfig struct {
	// Timeout ограничивает один полный цикл анализа (сбор → оценка → агрегация)
	Timeout time.Duration
}

type CollectorConfig struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	UserAgent      string
}

type ThresholdsConfig struct {
	// StorageKey задает ключ, под которым пороги лежат в Redis
	StorageKey string
	// FilePath указывает локальный JSON-файл (синхронный fallback)
	FilePath string
}

type NATSConfig struct {
	Enabled bool
	URL     string
	Subject string
}

type CloudWatchConfig struct {
	MetricsEnabled  bool
	Namespace       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BufferSize      int
	FlushInterval   time.Duration

	LogsEnabled       bool
	LogGroupName      string
	LogStreamName     string
	LogsBufferSize    int
	LogsFlushInterval time.Duration
}

type MonitorConfig struct {
	Enabled  bool
	URL      string
	Interval time.Duration
}

type SecurityConfig struct {
	AuthEnabled        bool
	AuthToken          string
	AllowedOrigins     []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	analysisTimeout, err := parseDuration(getEnv("ANALYSIS_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_TIMEOUT: %w", err)
	}
	if analysisTimeout <= 0 {
		return nil, fmt.Errorf("ANALYSIS_TIMEOUT must be positive")
	}

	collectorTimeout, err := parseDuration(getEnv("COLLECTOR_REQUEST_TIMEOUT", "8s"))
	if err != nil {
		return nil, fmt.Errorf("invalid COLLECTOR_REQUEST_TIMEOUT: %w", err)
	}

	maxBodyMB, err := strconv.Atoi(getEnv("COLLECTOR_MAX_BODY_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid COLLECTOR_MAX_BODY_MB: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cacheTTL, err := parseDuration(getEnv("REDIS_CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_CACHE_TTL: %w", err)
	}

	cwFlushInterval, err := parseDuration(getEnv("CLOUDWATCH_FLUSH_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_FLUSH_INTERVAL: %w", err)
	}

	cwBufferSize, err := strconv.Atoi(getEnv("CLOUDWATCH_BUFFER_SIZE", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_BUFFER_SIZE: %w", err)
	}

	cwLogsBufferSize, err := strconv.Atoi(getEnv("CLOUDWATCH_LOGS_BUFFER_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_LOGS_BUFFER_SIZE: %w", err)
	}

	cwLogsFlushInterval, err := parseDuration(getEnv("CLOUDWATCH_LOGS_FLUSH_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_LOGS_FLUSH_INTERVAL: %w", err)
	}

	monitorInterval, err := parseDuration(getEnv("MONITOR_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONITOR_INTERVAL: %w", err)
	}
	if monitorInterval < 30*time.Second {
		return nil, fmt.Errorf("MONITOR_INTERVAL must be >= 30s")
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Enabled:         getEnvBool("DB_ENABLED", true),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "pagehealth"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:      getEnvBool("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           redisDB,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CacheTTL:     cacheTTL,
		},
		Analysis: AnalysisConfig{
			Timeout: analysisTimeout,
		},
		Collector: CollectorConfig{
			RequestTimeout: collectorTimeout,
			MaxBodyBytes:   int64(maxBodyMB) * 1024 * 1024,
			UserAgent:      getEnv("COLLECTOR_USER_AGENT", "PageHealthBot/1.0"),
		},
		Thresholds: ThresholdsConfig{
			StorageKey: getEnv("THRESHOLDS_STORAGE_KEY", "page_health:thresholds"),
			FilePath:   getEnv("THRESHOLDS_FILE", "thresholds.json"),
		},
		NATS: NATSConfig{
			Enabled: getEnvBool("NATS_ENABLED", false),
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Subject: getEnv("NATS_SUBJECT", "page_health.reports"),
		},
		CloudWatch: CloudWatchConfig{
			MetricsEnabled:    getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			Namespace:         getEnv("CLOUDWATCH_NAMESPACE", "PageHealth/Analysis"),
			Region:            getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:          getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:       getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey:   getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),
			BufferSize:        cwBufferSize,
			FlushInterval:     cwFlushInterval,
			LogsEnabled:       getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			LogGroupName:      getEnv("CLOUDWATCH_LOG_GROUP", "/page-health-analyzer/app"),
			LogStreamName:     getEnv("CLOUDWATCH_LOG_STREAM", "api"),
			LogsBufferSize:    cwLogsBufferSize,
			LogsFlushInterval: cwLogsFlushInterval,
		},
		Monitor: MonitorConfig{
			Enabled:  getEnvBool("MONITOR_ENABLED", false),
			URL:      getEnv("MONITOR_URL", ""),
			Interval: monitorInterval,
		},
		Security: SecurityConfig{
			AuthEnabled:        getEnvBool("AUTH_ENABLED", false),
			AuthToken:          getEnv("AUTH_BEARER_TOKEN", ""),
			AllowedOrigins:     splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			RateLimitPerSecond: rps,
			RateLimitBurst:     burst,
		},
	}

	if cfg.Security.AuthEnabled && cfg.Security.AuthToken == "" {
		return nil, fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}

	if cfg.Monitor.Enabled && cfg.Monitor.URL == "" {
		return nil, fmt.Errorf("MONITOR_URL is required when MONITOR_ENABLED=true")
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	current := ""

	for _, r := range raw {
		if r == ',' {
			if current != "" {
				items = append(items, current)
				current = ""
			}
			continue
		}
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			current += string(r)
		}
	}

	if current != "" {
		items = append(items, current)
	}

	return items
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

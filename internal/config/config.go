package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string         `json:"env"`
	Http     HttpConfig     `json:"http"`
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
	Media    MediaConfig    `json:"media"`
	AI       AIConfig       `json:"ai"`
	Engine   EngineConfig   `json:"engine"`
	APIKey   string         `json:"api_key,omitempty"`
}

type HttpConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	SSLMode  string `json:"ssl_mode"`

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
}

type MediaConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"use_ssl"`
	Disabled  bool   `json:"disabled"`
}

type AIConfig struct {
	Backend    string        `json:"backend"` // "openai" or "rules"
	BaseURL    string        `json:"base_url"`
	APIKey     string        `json:"api_key,omitempty"`
	Timeout    time.Duration `json:"timeout"`
	ConfigPath string        `json:"config_path"` // optional YAML prompt overlay
}

// EngineConfig carries the lifecycle tuning. The defaults are the
// operational constants of the system; every one of them is an env
// knob, not a literal in the code paths.
type EngineConfig struct {
	MergeRadiusKM   float64       `json:"merge_radius_km"`
	MergeWindow     time.Duration `json:"merge_window"`
	DefaultTTL      time.Duration `json:"default_ttl"`
	SweepInterval   time.Duration `json:"sweep_interval"`
	CacheInterval   time.Duration `json:"cache_interval"`
	VerifyThreshold int           `json:"verify_threshold"`
	FalseThreshold  int           `json:"false_threshold"`
	TrustReportGain int           `json:"trust_report_gain"`
	TrustVerifyGain int           `json:"trust_verify_gain"`
	TrustDenyLoss   int           `json:"trust_deny_loss"`
	PendingTTL      time.Duration `json:"pending_ttl"`
	BroadcastURL    string        `json:"broadcast_url"`
	DefaultRadiusKM float64       `json:"default_radius_km"`
}

func Load() (*Config, error) {

	stdLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLogger.Warn(".env load warning", slog.Any("error", err))
	}

	cfg := &Config{
		Env: getEnv("ENV", "local"),
		Http: HttpConfig{
			Port:            getEnv("HTTP_PORT", ":8080"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "pg-local"),
			Port:            getEnvInt("POSTGRES_PORT", 5432),
			Database:        getEnv("POSTGRES_DB", "roadwatch_db"),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        getEnv("POSTGRES_PASSWORD", "postgres"),
			SSLMode:         getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxConns:        20,
			MinConns:        1,
			MaxConnLifetime: 1 * time.Hour,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "redis-local:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Media: MediaConfig{
			Endpoint:  getEnv("MEDIA_ENDPOINT", "minio-local:9000"),
			AccessKey: getEnv("MEDIA_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MEDIA_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MEDIA_BUCKET", "roadwatch-media"),
			UseSSL:    getEnvBool("MEDIA_USE_SSL", false),
			Disabled:  getEnvBool("MEDIA_DISABLED", false),
		},
		AI: AIConfig{
			Backend:    getEnv("AI_BACKEND", "rules"),
			BaseURL:    getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:     getEnv("AI_API_KEY", ""),
			Timeout:    getEnvDuration("AI_TIMEOUT", 15*time.Second),
			ConfigPath: getEnv("AI_CONFIG_PATH", ""),
		},
		Engine: EngineConfig{
			MergeRadiusKM:   getEnvFloat("ENGINE_MERGE_RADIUS_KM", 0.05),
			MergeWindow:     getEnvDuration("ENGINE_MERGE_WINDOW", 10*time.Minute),
			DefaultTTL:      getEnvDuration("ENGINE_DEFAULT_TTL", 60*time.Minute),
			SweepInterval:   getEnvDuration("ENGINE_SWEEP_INTERVAL", 15*time.Minute),
			CacheInterval:   getEnvDuration("ENGINE_CACHE_INTERVAL", 30*time.Second),
			VerifyThreshold: getEnvInt("ENGINE_VERIFY_THRESHOLD", 2),
			FalseThreshold:  getEnvInt("ENGINE_FALSE_THRESHOLD", 3),
			TrustReportGain: getEnvInt("ENGINE_TRUST_REPORT_GAIN", 1),
			TrustVerifyGain: getEnvInt("ENGINE_TRUST_VERIFY_GAIN", 3),
			TrustDenyLoss:   getEnvInt("ENGINE_TRUST_DENY_LOSS", 2),
			PendingTTL:      getEnvDuration("ENGINE_PENDING_TTL", 30*time.Minute),
			BroadcastURL:    getEnv("BROADCAST_URL", ""),
			DefaultRadiusKM: getEnvFloat("ENGINE_DEFAULT_RADIUS_KM", 5.0),
		},
		APIKey: getEnv("API_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stdLogger.Info("Config loaded successfully",
		slog.String("env", cfg.Env),
		slog.String("http_port", cfg.Http.Port),
		slog.String("postgres_db", cfg.Postgres.Database),
		slog.String("redis_addr", cfg.Redis.Addr),
		slog.String("ai_backend", cfg.AI.Backend))

	return cfg, nil
}

func (c *Config) Validate() error {

	if c.Http.Port == "" || c.Http.Port[0] != ':' {
		return errors.New("HTTP_PORT must start with ':' like ':8080'")
	}

	if c.Postgres.Host == "" {
		return errors.New("POSTGRES_HOST required")
	}

	if c.AI.Backend != "rules" && c.AI.Backend != "openai" {
		return errors.New("AI_BACKEND must be 'rules' or 'openai'")
	}

	if c.Engine.MergeRadiusKM <= 0 || c.Engine.DefaultTTL <= 0 {
		return errors.New("engine merge radius and default TTL must be positive")
	}

	if c.Engine.VerifyThreshold < 1 {
		return errors.New("ENGINE_VERIFY_THRESHOLD must be >= 1")
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// The signing secret never has a default inside code and must be provided via config file, .env or the environment.
type AppConfig struct {
	AppPort            string
	SecretKey          string
	TokenTTLHours      int
	DatabaseType       string
	DatabaseURI        string
	GinMode            string
	AllowedOrigins     []string
	RateLimitPerMinute int
	// Redis backs the response cache; empty host keeps the cache in-process
	RedisHost       string
	RedisPort       int
	RedisDB         int
	RedisPassword   string
	CacheTTLSeconds int
	// Domain events are published only when brokers are configured
	KafkaBrokers []string
	KafkaTopic   string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// ErrMissingSecret is returned by Load when no signing secret is configured.
var ErrMissingSecret = errors.New("SECRET_KEY must be set in config or environment")

// DefaultPath is the optional JSON config file read by Load.
var DefaultPath = filepath.Join("config", "config.json")

// Load reads the application configuration. Precedence: config/config.json -> defaults -> .env -> environment.
func Load() (AppConfig, error) {
	return LoadFrom(DefaultPath)
}

// LoadFrom is Load with an explicit JSON config path.
func LoadFrom(path string) (AppConfig, error) {
	var cfg AppConfig
	if err := loadJSONConfig(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	applyDefaults(&cfg)

	// .env is optional; existing environment variables win over it
	_ = godotenv.Load()
	applyEnvOverrides(&cfg)

	if cfg.SecretKey == "" {
		return cfg, ErrMissingSecret
	}
	return cfg, nil
}

// TokenTTL is the lifetime of issued bearer tokens.
func (c AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// CacheTTL is the lifetime of cached GET responses.
func (c AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

type fileConfig struct {
	App struct {
		AppPort            string   `json:"AppPort"`
		SecretKey          string   `json:"SecretKey"`
		TokenTTLHours      int      `json:"TokenTTLHours"`
		GinMode            string   `json:"GinMode"`
		AllowedOrigins     []string `json:"AllowedOrigins"`
		RateLimitPerMinute int      `json:"RateLimitPerMinute"`
	} `json:"app"`
	Database struct {
		Type string `json:"Type"`
		URI  string `json:"URI"`
	} `json:"database"`
	Redis struct {
		Host            string `json:"Host"`
		Port            int    `json:"Port"`
		DB              int    `json:"DB"`
		Password        string `json:"Password"`
		CacheTTLSeconds int    `json:"CacheTTLSeconds"`
	} `json:"redis"`
	Kafka struct {
		Brokers []string `json:"Brokers"`
		Topic   string   `json:"Topic"`
	} `json:"kafka"`
	Log struct {
		Level      string `json:"Level"`
		Path       string `json:"Path"`
		MaxSizeMB  int    `json:"MaxSizeMB"`
		MaxBackups int    `json:"MaxBackups"`
		MaxAgeDays int    `json:"MaxAgeDays"`
		Compress   bool   `json:"Compress"`
	} `json:"log"`
}

// loadJSONConfig reads the grouped JSON file into out if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var fc fileConfig
	if err := json.NewDecoder(f).Decode(&fc); err != nil {
		return err
	}

	out.AppPort = fc.App.AppPort
	out.SecretKey = fc.App.SecretKey
	out.TokenTTLHours = fc.App.TokenTTLHours
	out.GinMode = fc.App.GinMode
	out.AllowedOrigins = fc.App.AllowedOrigins
	out.RateLimitPerMinute = fc.App.RateLimitPerMinute
	out.DatabaseType = fc.Database.Type
	out.DatabaseURI = fc.Database.URI
	out.RedisHost = fc.Redis.Host
	out.RedisPort = fc.Redis.Port
	out.RedisDB = fc.Redis.DB
	out.RedisPassword = fc.Redis.Password
	out.CacheTTLSeconds = fc.Redis.CacheTTLSeconds
	out.KafkaBrokers = fc.Kafka.Brokers
	out.KafkaTopic = fc.Kafka.Topic
	out.LogLevel = fc.Log.Level
	out.LogPath = fc.Log.Path
	out.LogMaxSizeMB = fc.Log.MaxSizeMB
	out.LogMaxBackups = fc.Log.MaxBackups
	out.LogMaxAgeDays = fc.Log.MaxAgeDays
	out.LogCompress = fc.Log.Compress
	return nil
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "5000"
	}
	if c.TokenTTLHours <= 0 {
		c.TokenTTLHours = 24
	}
	if c.DatabaseType == "" {
		c.DatabaseType = "sqlite"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = 60
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = 60
	}
	if c.KafkaTopic == "" {
		c.KafkaTopic = "blog.events"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func applyEnvOverrides(c *AppConfig) {
	c.AppPort = getEnv("APP_PORT", c.AppPort)
	// JWT_SECRET is accepted as an alias for deployments sharing env files
	c.SecretKey = getEnv("JWT_SECRET", c.SecretKey)
	c.SecretKey = getEnv("SECRET_KEY", c.SecretKey)
	c.TokenTTLHours = getEnvInt("TOKEN_TTL_HOURS", c.TokenTTLHours)
	c.DatabaseType = strings.ToLower(getEnv("DATABASE_TYPE", c.DatabaseType))
	c.DatabaseURI = getEnv("DATABASE_URI", c.DatabaseURI)
	c.DatabaseURI = getEnv("SQLALCHEMY_DATABASE_URI", c.DatabaseURI)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.AllowedOrigins = readListEnv("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)

	c.RedisHost = getEnv("REDIS_HOST", c.RedisHost)
	c.RedisPort = getEnvInt("REDIS_PORT", c.RedisPort)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.CacheTTLSeconds = getEnvInt("CACHE_TTL_SECONDS", c.CacheTTLSeconds)

	c.KafkaBrokers = readListEnv("KAFKA_BROKERS", c.KafkaBrokers)
	c.KafkaTopic = getEnv("KAFKA_TOPIC", c.KafkaTopic)

	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.LogPath = getEnv("LOG_PATH", c.LogPath)
	c.LogMaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", c.LogMaxSizeMB)
	c.LogMaxBackups = getEnvInt("LOG_MAX_BACKUPS", c.LogMaxBackups)
	c.LogMaxAgeDays = getEnvInt("LOG_MAX_AGE_DAYS", c.LogMaxAgeDays)
	c.LogCompress = getEnvBool("LOG_COMPRESS", c.LogCompress)
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultVal
	}
	return b
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

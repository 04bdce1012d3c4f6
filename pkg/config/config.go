package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devJWTSecret = "dev_secret"
)

type Config struct {
	Env            string
	BindAddress    string
	Port           int
	Debug          bool
	TLSEnabled     bool
	TrustedProxies []string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Security  SecurityConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	QueryTimeout time.Duration
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// PasswordConfig describes the password strength policy and hashing cost.
type PasswordConfig struct {
	MinLength    int
	RequireUpper bool
	RequireLower bool
	RequireDigit bool
	BcryptCost   int
}

// EmailConfig holds the institutional address pattern accepted at registration.
type EmailConfig struct {
	DomainPattern string
}

// Rule is a fixed-window allowance: Limit hits per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// RateLimitConfig configures per-endpoint-group limits.
type RateLimitConfig struct {
	Enabled  bool
	Register Rule
	Login    Rule
	Password Rule
	Default  Rule
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// CacheConfig tunes the read-through cache for public listings.
type CacheConfig struct {
	TTL time.Duration
}

// SecurityConfig tunes security event persistence.
type SecurityConfig struct {
	EventWorkers int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.BindAddress = strings.TrimSpace(v.GetString("BIND_ADDRESS"))
	cfg.Port = v.GetInt("PORT")
	cfg.Debug = v.GetBool("DEBUG") && cfg.Env != EnvProduction
	cfg.TLSEnabled = v.GetBool("TLS_ENABLED")
	cfg.TrustedProxies = splitAndTrim(v.GetString("TRUSTED_PROXIES"))

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		QueryTimeout: parseDuration(v.GetString("DB_QUERY_TIMEOUT"), 10*time.Second),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Password = PasswordConfig{
		MinLength:    v.GetInt("PASSWORD_MIN_LENGTH"),
		RequireUpper: v.GetBool("PASSWORD_REQUIRE_UPPER"),
		RequireLower: v.GetBool("PASSWORD_REQUIRE_LOWER"),
		RequireDigit: v.GetBool("PASSWORD_REQUIRE_DIGIT"),
		BcryptCost:   v.GetInt("BCRYPT_COST"),
	}

	cfg.Email = EmailConfig{DomainPattern: v.GetString("EMAIL_DOMAIN_PATTERN")}

	cfg.RateLimit = RateLimitConfig{
		Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
		Register: parseRule(v.GetString("RATE_LIMIT_REGISTER"), Rule{Limit: 5, Window: time.Hour}),
		Login:    parseRule(v.GetString("RATE_LIMIT_LOGIN"), Rule{Limit: 10, Window: time.Minute}),
		Password: parseRule(v.GetString("RATE_LIMIT_PASSWORD"), Rule{Limit: 3, Window: time.Hour}),
		Default:  parseRule(v.GetString("RATE_LIMIT_DEFAULT"), Rule{Limit: 100, Window: time.Hour}),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
		File:   v.GetString("LOG_FILE"),
	}

	cfg.Cache = CacheConfig{TTL: parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute)}

	cfg.Security = SecurityConfig{EventWorkers: v.GetInt("SECURITY_EVENT_WORKERS")}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings that are unsafe for the selected environment.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.Password.MinLength < 1 {
		return errors.New("PASSWORD_MIN_LENGTH must be positive")
	}
	for _, origin := range c.CORS.AllowedOrigins {
		if origin == "*" {
			return errors.New("ALLOWED_ORIGINS must list explicit origins")
		}
	}
	if c.Env == EnvProduction && c.JWT.Secret == devJWTSecret {
		return errors.New("JWT_SECRET must be overridden in production")
	}
	return nil
}

// IsProduction reports whether the process runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// ListenAddr joins BindAddress and Port into a net.Listen address.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("BIND_ADDRESS", "0.0.0.0")
	v.SetDefault("PORT", 5000)
	v.SetDefault("DEBUG", false)
	v.SetDefault("TLS_ENABLED", false)
	v.SetDefault("TRUSTED_PROXIES", "")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "studyblog")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_QUERY_TIMEOUT", "10s")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "studyblog-api")

	v.SetDefault("PASSWORD_MIN_LENGTH", 8)
	v.SetDefault("PASSWORD_REQUIRE_UPPER", true)
	v.SetDefault("PASSWORD_REQUIRE_LOWER", true)
	v.SetDefault("PASSWORD_REQUIRE_DIGIT", true)
	v.SetDefault("BCRYPT_COST", 12)

	v.SetDefault("EMAIL_DOMAIN_PATTERN", `^[A-Za-z0-9._%+-]+@(student\.)?ubc\.ca$`)

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_REGISTER", "5/1h")
	v.SetDefault("RATE_LIMIT_LOGIN", "10/1m")
	v.SetDefault("RATE_LIMIT_PASSWORD", "3/1h")
	v.SetDefault("RATE_LIMIT_DEFAULT", "100/1h")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("SECURITY_EVENT_WORKERS", 1)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// parseRule reads "<limit>/<window>", e.g. "10/1m". Invalid input yields the fallback.
func parseRule(raw string, fallback Rule) Rule {
	limitPart, windowPart, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok {
		return fallback
	}

	limit, err := strconv.Atoi(strings.TrimSpace(limitPart))
	if err != nil || limit <= 0 {
		return fallback
	}

	window := parseDuration(strings.TrimSpace(windowPart), 0)
	if window <= 0 {
		return fallback
	}

	return Rule{Limit: limit, Window: window}
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

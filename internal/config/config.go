// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"

	MediaCloudinary = "cloudinary"
	MediaS3         = "s3"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	Security  SecurityConfig  `koanf:"security"`
	Cookie    CookieConfig    `koanf:"cookie"`
	Upload    UploadConfig    `koanf:"upload"`
	Media     MediaConfig     `koanf:"media"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig selects the backing store. Driver "mongo" uses URL and Name;
// driver "postgres" uses URL and the pool settings.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	URL             string        `koanf:"url"`
	Name            string        `koanf:"name"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	AccessTokenSecret  string        `koanf:"access_token_secret"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenSecret string        `koanf:"refresh_token_secret"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

// SecurityConfig holds the argon2id work factor used for password hashing.
type SecurityConfig struct {
	HashTime    uint32 `koanf:"hash_time"`
	HashMemory  uint32 `koanf:"hash_memory"`
	HashThreads uint8  `koanf:"hash_threads"`
}

type CookieConfig struct {
	Secure   bool   `koanf:"secure"`
	SameSite string `koanf:"same_site"`
	Domain   string `koanf:"domain"`
	Path     string `koanf:"path"`
}

type UploadConfig struct {
	TempDir  string `koanf:"temp_dir"`
	MaxBytes int64  `koanf:"max_bytes"`
}

type MediaConfig struct {
	Provider   string           `koanf:"provider"`
	Timeout    time.Duration    `koanf:"timeout"`
	Cloudinary CloudinaryConfig `koanf:"cloudinary"`
	S3         S3Config         `koanf:"s3"`
}

type CloudinaryConfig struct {
	CloudName string `koanf:"cloud_name"`
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
	Folder    string `koanf:"folder"`
}

type S3Config struct {
	Endpoint      string `koanf:"endpoint"`
	Region        string `koanf:"region"`
	Bucket        string `koanf:"bucket"`
	AccessKey     string `koanf:"access_key"`
	SecretKey     string `koanf:"secret_key"`
	PublicBaseURL string `koanf:"public_base_url"`
	KeyPrefix     string `koanf:"key_prefix"`
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthBurst    int           `koanf:"auth_burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// Load reads defaults, an optional .env file, the YAML config file and the
// environment, in that order of precedence.
func Load(configPath string) (*Config, error) {
	return load(configPath)
}

func load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		err := k.Load(file.Provider(configPath), yaml.Parser())
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "VidTube API",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8000,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "60s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.driver":             DriverMongo,
		"database.url":                "mongodb://localhost:27017",
		"database.name":               "vidtube",
		"database.connect_timeout":    "10s",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire":  "24h",
		"jwt.refresh_token_expire": "240h",
		"jwt.issuer":               "vidtube",
		"jwt.audience":             "vidtube-api",

		"security.hash_time":    1,
		"security.hash_memory":  64 * 1024,
		"security.hash_threads": 4,

		"cookie.secure":    true,
		"cookie.same_site": "lax",
		"cookie.path":      "/",

		"upload.temp_dir":  "./public/temp",
		"upload.max_bytes": 100 << 20,

		"media.provider": MediaCloudinary,
		"media.timeout":  "2m",

		"rate_limit.requests":      100,
		"rate_limit.window":        "1m",
		"rate_limit.burst":         20,
		"rate_limit.auth_requests": 10,
		"rate_limit.auth_burst":    5,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "vidtube-api",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_DRIVER":             "database.driver",
	"DATABASE_URI":                "database.url",
	"DATABASE_URL":                "database.url",
	"DATABASE_NAME":               "database.name",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"ACCESS_TOKEN_SECRET":         "jwt.access_token_secret",
	"ACCESS_TOKEN_EXPIRY":         "jwt.access_token_expire",
	"REFRESH_TOKEN_SECRET":        "jwt.refresh_token_secret",
	"REFRESH_TOKEN_EXPIRY":        "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"COOKIE_SECURE":               "cookie.secure",
	"COOKIE_DOMAIN":               "cookie.domain",
	"UPLOAD_TEMP_DIR":             "upload.temp_dir",
	"MEDIA_PROVIDER":              "media.provider",
	"CLOUDINARY_CLOUD_NAME":       "media.cloudinary.cloud_name",
	"CLOUDINARY_API_KEY":          "media.cloudinary.api_key",
	"CLOUDINARY_API_SECRET":       "media.cloudinary.api_secret",
	"CLOUDINARY_FOLDER":           "media.cloudinary.folder",
	"S3_ENDPOINT":                 "media.s3.endpoint",
	"S3_REGION":                   "media.s3.region",
	"S3_BUCKET":                   "media.s3.bucket",
	"S3_ACCESS_KEY":               "media.s3.access_key",
	"S3_SECRET_KEY":               "media.s3.secret_key",
	"S3_PUBLIC_BASE_URL":          "media.s3.public_base_url",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"CORS_ORIGIN":                 "cors.allowed_origins",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	switch c.Database.Driver {
	case DriverMongo, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Database.Driver == DriverMongo && c.Database.Name == "" {
		return fmt.Errorf("DATABASE_NAME is required for mongo")
	}

	if c.Redis.URL == "" && c.IsProduction() {
		return fmt.Errorf("REDIS_URL is required in production")
	}

	if c.JWT.AccessTokenSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}

	if c.JWT.RefreshTokenSecret == "" {
		return fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}

	if c.JWT.AccessTokenSecret == c.JWT.RefreshTokenSecret {
		return fmt.Errorf("access and refresh token secrets must differ")
	}

	if c.JWT.AccessTokenExpire <= 0 || c.JWT.RefreshTokenExpire <= 0 {
		return fmt.Errorf("token expiries must be positive")
	}

	if c.Security.HashTime == 0 || c.Security.HashMemory == 0 ||
		c.Security.HashThreads == 0 {
		return fmt.Errorf("security hash parameters must be positive")
	}

	switch strings.ToLower(c.Media.Provider) {
	case MediaCloudinary:
		if c.Media.Cloudinary.CloudName == "" {
			return fmt.Errorf("CLOUDINARY_CLOUD_NAME is required")
		}
	case MediaS3:
		if c.Media.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required")
		}
	default:
		return fmt.Errorf("unsupported media provider %q", c.Media.Provider)
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if !c.Cookie.Secure {
			return fmt.Errorf("COOKIE_SECURE must be true in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

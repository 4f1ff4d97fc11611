package config

import (
	"fmt"
	"time"

	config "github.com/0xsj/overwatch-pkg/config"
)

// Config holds all configuration for the payments challenge service.
type Config struct {
	Server          ServerConfig
	GRPC            GRPCConfig
	Database        DatabaseConfig
	Redis           RedisConfig
	NATS            NATSConfig
	Storage         StorageConfig
	Services        ServicesConfig
	Challenge       ChallengeConfig
	Signing         SigningConfig
	Auth            AuthConfig
	ServiceIdentity ServiceIdentityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" default:"8080"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	RoundTimeout    time.Duration `env:"SERVER_ROUND_TIMEOUT" default:"20s"`
	MaxBodyBytes    int64         `env:"SERVER_MAX_BODY_BYTES" default:"1048576"`
	EnableMetrics   bool          `env:"SERVER_ENABLE_METRICS" default:"true"`
}

// GRPCConfig holds the session read gRPC server configuration.
type GRPCConfig struct {
	Enabled          bool   `env:"GRPC_ENABLED" default:"true"`
	Host             string `env:"GRPC_HOST" default:"0.0.0.0"`
	Port             int    `env:"GRPC_PORT" default:"9090"`
	EnableReflection bool   `env:"GRPC_ENABLE_REFLECTION" default:"false"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host              string        `env:"DATABASE_HOST" default:"localhost"`
	Port              int           `env:"DATABASE_PORT" default:"5450"`
	User              string        `env:"DATABASE_USER" default:"overwatch"`
	Password          string        `env:"DATABASE_PASSWORD" default:"overwatch" sensitive:"true"`
	Database          string        `env:"DATABASE_NAME" default:"overwatch_payments"`
	SSLMode           string        `env:"DATABASE_SSL_MODE" default:"disable"`
	MaxConns          int           `env:"DATABASE_MAX_CONNS" default:"25"`
	MinConns          int           `env:"DATABASE_MIN_CONNS" default:"5"`
	MaxConnLifetime   time.Duration `env:"DATABASE_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime   time.Duration `env:"DATABASE_MAX_CONN_IDLE_TIME" default:"30m"`
	HealthCheckPeriod time.Duration `env:"DATABASE_HEALTH_CHECK_PERIOD" default:"1m"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled      bool          `env:"REDIS_ENABLED" default:"true"`
	Host         string        `env:"REDIS_HOST" default:"localhost"`
	Port         int           `env:"REDIS_PORT" default:"6390"`
	Password     string        `env:"REDIS_PASSWORD" default:"" sensitive:"true"`
	DB           int           `env:"REDIS_DB" default:"0"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" default:"5"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	Enabled       bool          `env:"NATS_ENABLED" default:"true"`
	URL           string        `env:"NATS_URL" default:"nats://localhost:4230"`
	SubjectPrefix string        `env:"NATS_SUBJECT_PREFIX" default:"overwatch"`
	MaxReconnects int           `env:"NATS_MAX_RECONNECTS" default:"10"`
	ReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT" default:"2s"`
}

// Session store drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverBolt     = "bbolt"
	StorageDriverMemory   = "memory"
)

// StorageConfig selects the durable session store.
type StorageConfig struct {
	Driver   string        `env:"STORAGE_DRIVER" default:"postgres"`
	BoltPath string        `env:"STORAGE_BOLT_PATH" default:"payments.db"`
	TTL      time.Duration `env:"STORAGE_SESSION_TTL" default:"72h"`
}

// ServicesConfig holds the downstream payments services.
type ServicesConfig struct {
	InstrumentBaseURL     string        `env:"SERVICES_INSTRUMENT_BASE_URL" default:"http://localhost:8081"`
	InstrumentTimeout     time.Duration `env:"SERVICES_INSTRUMENT_TIMEOUT" default:"10s"`
	AuthenticationBaseURL string        `env:"SERVICES_AUTHENTICATION_BASE_URL" default:"http://localhost:8082"`
	AuthenticationTimeout time.Duration `env:"SERVICES_AUTHENTICATION_TIMEOUT" default:"15s"`
	AttestationBaseURL    string        `env:"SERVICES_ATTESTATION_BASE_URL" default:"http://localhost:8083"`
	AttestationTimeout    time.Duration `env:"SERVICES_ATTESTATION_TIMEOUT" default:"5s"`
	BearerToken           string        `env:"SERVICES_BEARER_TOKEN" default:"" sensitive:"true"`
}

// ChallengeConfig holds challenge orchestration settings.
type ChallengeConfig struct {
	HandlerVersion         string        `env:"CHALLENGE_HANDLER_VERSION" default:"V2"`
	PartnerSettingsVersion string        `env:"CHALLENGE_PARTNER_SETTINGS_VERSION" default:""`
	NotificationBaseURL    string        `env:"CHALLENGE_NOTIFICATION_BASE_URL" default:"http://localhost:8080/v1"`
	TrustRootDir           string        `env:"CHALLENGE_TRUST_ROOT_DIR" default:"./trust"`
	DefaultFlags           []string      `env:"CHALLENGE_DEFAULT_FLAGS" default:""`
	CacheTTL               time.Duration `env:"CHALLENGE_CACHE_TTL" default:"30m"`
}

// SigningConfig holds the payment session signing secret.
type SigningConfig struct {
	Secret string `env:"SIGNING_SECRET" required:"true" sensitive:"true"`
}

// AuthConfig holds partner bearer token verification settings.
type AuthConfig struct {
	Enabled   bool   `env:"AUTH_ENABLED" default:"true"`
	JWTSecret string `env:"AUTH_JWT_SECRET" default:"" sensitive:"true"`
	Issuer    string `env:"AUTH_ISSUER" default:"overwatch"`
	Audience  string `env:"AUTH_AUDIENCE" default:"overwatch-payments"`
}

// ServiceIdentityConfig holds service identity configuration.
type ServiceIdentityConfig struct {
	ID                string `env:"SERVICE_IDENTITY_ID" default:"payments-service"`
	Name              string `env:"SERVICE_IDENTITY_NAME" default:"payments"`
	PrivateKeyPath    string `env:"SERVICE_IDENTITY_PRIVATE_KEY_PATH" default:""`
	PrivateKeyBase64  string `env:"SERVICE_IDENTITY_PRIVATE_KEY" default:"" sensitive:"true"`
	GenerateIfMissing bool   `env:"SERVICE_IDENTITY_GENERATE_IF_MISSING" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.WithPrefix("PAYMENTS_")); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad() *Config {
	cfg := &Config{}
	config.MustLoad(cfg, config.WithPrefix("PAYMENTS_"))
	return cfg
}

// Address returns the HTTP server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Address returns the gRPC server address.
func (c *GRPCConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Address returns the Redis address.
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HasPrivateKey returns true if a private key is configured.
func (c *ServiceIdentityConfig) HasPrivateKey() bool {
	return c.PrivateKeyBase64 != "" || c.PrivateKeyPath != ""
}

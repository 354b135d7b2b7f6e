package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Storage  StorageConfig  `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logger   LoggerConfig   `yaml:"logger"`
	Auth     AuthConfig     `yaml:"auth"`
	Intake   IntakeConfig   `yaml:"intake"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                       string `yaml:"name"`
	Env                        string `yaml:"env"`
	Host                       string `yaml:"host"`
	Port                       string `yaml:"port"`
	Version                    string `yaml:"version"`
	RequestTimeoutSeconds      int    `yaml:"request_timeout_seconds"`
	CollaboratorTimeoutSeconds int    `yaml:"collaborator_timeout_seconds"`
}

// StorageConfig selects the backing store.
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	MaxConns       int32  `yaml:"max_conns"`
	MinConns       int32  `yaml:"min_conns"`
	RunMigrations  bool   `yaml:"run_migrations"`
	ConnMaxIdleSec int32  `yaml:"conn_max_idle_seconds"`
	ConnMaxLifeSec int32  `yaml:"conn_max_life_seconds"`
}

// RedisConfig holds Redis connection values. An empty Addr disables the claim cache.
type RedisConfig struct {
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	ClaimTTLSeconds int    `yaml:"claim_ttl_seconds"`
}

// KafkaConfig configures the ticket event sink. No brokers means no sink.
type KafkaConfig struct {
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	QueueSize int      `yaml:"queue_size"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuthConfig defines session and credential parameters.
type AuthConfig struct {
	JWTSecret             string `yaml:"jwt_secret"`
	AccessTokenTTLMinutes int    `yaml:"access_token_ttl_minutes"`
	BcryptCost            int    `yaml:"bcrypt_cost"`
	MinPasswordLength     int    `yaml:"min_password_length"`
}

// IntakeConfig configures the inbound event endpoint.
type IntakeConfig struct {
	Secret       string `yaml:"secret"`
	DefaultTitle string `yaml:"default_title"`
}

// Default returns the baseline configuration before file and env overrides.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:                       "helpdesk-intake",
			Env:                        "development",
			Host:                       "0.0.0.0",
			Port:                       "8080",
			Version:                    "dev",
			RequestTimeoutSeconds:      30,
			CollaboratorTimeoutSeconds: 5,
		},
		Storage: StorageConfig{
			Driver:     StorageDriverPostgres,
			SQLitePath: "helpdesk.db",
		},
		Postgres: PostgresConfig{
			MaxConns:       10,
			MinConns:       2,
			RunMigrations:  true,
			ConnMaxIdleSec: 30,
			ConnMaxLifeSec: 300,
		},
		Redis: RedisConfig{
			ClaimTTLSeconds: 86400,
		},
		Kafka: KafkaConfig{
			Topic:     "helpdesk.ticket-events",
			QueueSize: 256,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{
			AccessTokenTTLMinutes: 60,
			BcryptCost:            12,
			MinPasswordLength:     8,
		},
		Intake: IntakeConfig{
			DefaultTitle: "(no subject)",
		},
	}
}

// Load builds configuration from defaults, an optional YAML file at path, then environment
// variables. Environment values win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", strconv.Itoa(cfg.Redis.DB)))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.App = AppConfig{
		Name:                       getEnv("APP_NAME", cfg.App.Name),
		Env:                        getEnv("APP_ENV", cfg.App.Env),
		Host:                       getEnv("APP_HOST", cfg.App.Host),
		Port:                       getEnv("APP_PORT", cfg.App.Port),
		Version:                    getEnv("APP_VERSION", cfg.App.Version),
		RequestTimeoutSeconds:      getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", cfg.App.RequestTimeoutSeconds),
		CollaboratorTimeoutSeconds: getEnvAsInt("COLLABORATOR_TIMEOUT_SECONDS", cfg.App.CollaboratorTimeoutSeconds),
	}
	cfg.Storage = StorageConfig{
		Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", cfg.Storage.Driver)),
		SQLitePath: getEnv("SQLITE_PATH", cfg.Storage.SQLitePath),
	}
	cfg.Postgres = PostgresConfig{
		DSN:            getEnv("POSTGRES_DSN", cfg.Postgres.DSN),
		MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", int(cfg.Postgres.MaxConns))),
		MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", int(cfg.Postgres.MinConns))),
		RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", cfg.Postgres.RunMigrations),
		ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", int(cfg.Postgres.ConnMaxIdleSec))),
		ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", int(cfg.Postgres.ConnMaxLifeSec))),
	}
	cfg.Redis = RedisConfig{
		Addr:            getEnv("REDIS_ADDR", cfg.Redis.Addr),
		Password:        getEnv("REDIS_PASSWORD", cfg.Redis.Password),
		DB:              redisDB,
		ClaimTTLSeconds: getEnvAsInt("REDIS_CLAIM_TTL_SECONDS", cfg.Redis.ClaimTTLSeconds),
	}
	cfg.Kafka = KafkaConfig{
		Brokers:   getEnvAsList("KAFKA_BROKERS", cfg.Kafka.Brokers),
		Topic:     getEnv("KAFKA_TOPIC", cfg.Kafka.Topic),
		QueueSize: getEnvAsInt("KAFKA_QUEUE_SIZE", cfg.Kafka.QueueSize),
	}
	cfg.Logger = LoggerConfig{
		Level:  getEnv("LOG_LEVEL", cfg.Logger.Level),
		Format: strings.ToLower(getEnv("LOG_FORMAT", cfg.Logger.Format)),
	}
	cfg.Auth = AuthConfig{
		JWTSecret:             getEnv("AUTH_JWT_SECRET", cfg.Auth.JWTSecret),
		AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", cfg.Auth.AccessTokenTTLMinutes),
		BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", cfg.Auth.BcryptCost),
		MinPasswordLength:     getEnvAsInt("AUTH_MIN_PASSWORD_LENGTH", cfg.Auth.MinPasswordLength),
	}
	cfg.Intake = IntakeConfig{
		Secret:       getEnv("INTAKE_SECRET", cfg.Intake.Secret),
		DefaultTitle: getEnv("INTAKE_DEFAULT_TITLE", cfg.Intake.DefaultTitle),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres driver"))
		}
	case StorageDriverSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}
	if c.Auth.MinPasswordLength <= 0 {
		errs = append(errs, errors.New("AUTH_MIN_PASSWORD_LENGTH must be positive"))
	}
	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.Logger.Format))
	}
	if strings.TrimSpace(c.Intake.DefaultTitle) == "" {
		errs = append(errs, errors.New("INTAKE_DEFAULT_TITLE must not be blank"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CollaboratorTimeout bounds every store, cache and session call.
func (a AppConfig) CollaboratorTimeout() time.Duration {
	if a.CollaboratorTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(a.CollaboratorTimeoutSeconds) * time.Second
}

// ClaimTTL returns how long completed claims stay in the cache.
func (r RedisConfig) ClaimTTL() time.Duration {
	if r.ClaimTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(r.ClaimTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

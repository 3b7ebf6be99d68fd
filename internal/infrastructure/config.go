package infrastructure

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v3"
	"github.com/go-ozzo/ozzo-validation/v3/is"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Sandbox     SandboxConfig
	Solutions   SolutionsConfig
	JWT         JWTConfig
	Leaderboard LeaderboardConfig
	Telemetry   TelemetryConfig
	Seed        SeedConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Environment    string
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// DatabaseConfig holds the application database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SandboxConfig describes the restricted role participant queries run as.
// The database name is chosen per problem.
type SandboxConfig struct {
	Host             string
	Port             int
	User             string
	Password         string
	SSLMode          string
	StatementTimeout time.Duration
	PreviewRowLimit  int
}

// SolutionsConfig holds the connection to the reference solution tables
type SolutionsConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	Schema          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig holds bearer token verification settings
type JWTConfig struct {
	SecretKey string
	Issuer    string
}

// LeaderboardConfig holds scoring constants and cache settings
type LeaderboardConfig struct {
	CacheSize          int
	CacheTTL           time.Duration
	FeedLimit          int
	MaxSolveTime       time.Duration
	IncorrectPenalty   time.Duration
	FeedStreamInterval time.Duration
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	Environment     string
	OTLPEndpoint    string
	MetricsEndpoint string
}

// SeedConfig controls demo data loading at startup
type SeedConfig struct {
	DemoData bool
}

// fileConfig mirrors the optional TOML config file. Durations are whole seconds
// (milliseconds where the key says so) so the file stays plain.
type fileConfig struct {
	Server struct {
		Host           string   `toml:"host"`
		Port           int      `toml:"port"`
		ReadTimeout    int      `toml:"read_timeout_secs"`
		WriteTimeout   int      `toml:"write_timeout_secs"`
		Environment    string   `toml:"environment"`
		AllowedOrigins []string `toml:"allowed_origins"`
		MaxBodyBytes   int      `toml:"max_body_bytes"`
	} `toml:"server"`
	Database struct {
		Host            string `toml:"host"`
		Port            int    `toml:"port"`
		User            string `toml:"user"`
		Password        string `toml:"password"`
		DBName          string `toml:"dbname"`
		SSLMode         string `toml:"sslmode"`
		MaxOpenConns    int    `toml:"max_open_conns"`
		MaxIdleConns    int    `toml:"max_idle_conns"`
		ConnMaxLifetime int    `toml:"conn_max_lifetime_secs"`
	} `toml:"database"`
	Sandbox struct {
		Host             string `toml:"host"`
		Port             int    `toml:"port"`
		User             string `toml:"user"`
		Password         string `toml:"password"`
		SSLMode          string `toml:"sslmode"`
		StatementTimeout int    `toml:"statement_timeout_ms"`
		PreviewRowLimit  int    `toml:"preview_row_limit"`
	} `toml:"sandbox"`
	Solutions struct {
		Host            string `toml:"host"`
		Port            int    `toml:"port"`
		User            string `toml:"user"`
		Password        string `toml:"password"`
		DBName          string `toml:"dbname"`
		Schema          string `toml:"schema"`
		SSLMode         string `toml:"sslmode"`
		MaxOpenConns    int    `toml:"max_open_conns"`
		MaxIdleConns    int    `toml:"max_idle_conns"`
		ConnMaxLifetime int    `toml:"conn_max_lifetime_secs"`
	} `toml:"solutions"`
	JWT struct {
		SecretKey string `toml:"secret"`
		Issuer    string `toml:"issuer"`
	} `toml:"jwt"`
	Leaderboard struct {
		CacheSize          int `toml:"cache_size"`
		CacheTTL           int `toml:"cache_ttl_secs"`
		FeedLimit          int `toml:"feed_limit"`
		MaxSolveTime       int `toml:"max_solve_time_secs"`
		IncorrectPenalty   int `toml:"incorrect_penalty_secs"`
		FeedStreamInterval int `toml:"feed_stream_interval_secs"`
	} `toml:"leaderboard"`
	Telemetry struct {
		Enabled      *bool  `toml:"enabled"`
		ServiceName  string `toml:"service_name"`
		OTLPEndpoint string `toml:"otlp_endpoint"`
	} `toml:"telemetry"`
	Seed struct {
		DemoData *bool `toml:"demo_data"`
	} `toml:"seed"`
}

// LoadConfig builds the configuration from built-in defaults, an optional TOML
// file and the environment, in increasing order of precedence. Outside
// production a .env file in the working directory is loaded first.
func LoadConfig(path string) (*Config, error) {
	if os.Getenv("ENVIRONMENT") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	var file fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", or(file.Server.Host, "0.0.0.0")),
			Port:           getEnvInt("SERVER_PORT", orInt(file.Server.Port, 8080)),
			ReadTimeout:    time.Duration(getEnvInt("SERVER_READ_TIMEOUT", orInt(file.Server.ReadTimeout, 10))) * time.Second,
			WriteTimeout:   time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", orInt(file.Server.WriteTimeout, 30))) * time.Second,
			Environment:    getEnv("ENVIRONMENT", or(file.Server.Environment, "development")),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", file.Server.AllowedOrigins),
			MaxBodyBytes:   int64(getEnvInt("SERVER_MAX_BODY_BYTES", orInt(file.Server.MaxBodyBytes, 64<<10))),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", or(file.Database.Host, "localhost")),
			Port:            getEnvInt("DB_PORT", orInt(file.Database.Port, 5432)),
			User:            getEnv("DB_USER", or(file.Database.User, "postgres")),
			Password:        getEnv("DB_PASSWORD", or(file.Database.Password, "postgres")),
			DBName:          getEnv("DB_NAME", or(file.Database.DBName, "sql_dojo")),
			SSLMode:         getEnv("DB_SSL_MODE", or(file.Database.SSLMode, "disable")),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", orInt(file.Database.MaxOpenConns, 25)),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", orInt(file.Database.MaxIdleConns, 5)),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", orInt(file.Database.ConnMaxLifetime, 300))) * time.Second,
		},
		Sandbox: SandboxConfig{
			Host:             getEnv("CONTESTANT_HOST", or(file.Sandbox.Host, "localhost")),
			Port:             getEnvInt("CONTESTANT_PORT", orInt(file.Sandbox.Port, 5432)),
			User:             getEnv("CONTESTANT_USER", or(file.Sandbox.User, "contestant")),
			Password:         getEnv("CONTESTANT_PWD", file.Sandbox.Password),
			SSLMode:          getEnv("CONTESTANT_SSL_MODE", or(file.Sandbox.SSLMode, "disable")),
			StatementTimeout: time.Duration(getEnvInt("CONTESTANT_STATEMENT_TIMEOUT_MS", orInt(file.Sandbox.StatementTimeout, 5000))) * time.Millisecond,
			PreviewRowLimit:  getEnvInt("CONTESTANT_PREVIEW_ROW_LIMIT", orInt(file.Sandbox.PreviewRowLimit, 100)),
		},
		Solutions: SolutionsConfig{
			Host:            getEnv("SOLUTIONS_HOST", or(file.Solutions.Host, "localhost")),
			Port:            getEnvInt("SOLUTIONS_PORT", orInt(file.Solutions.Port, 5432)),
			User:            getEnv("SOLUTIONS_USER", or(file.Solutions.User, "postgres")),
			Password:        getEnv("SOLUTIONS_PASSWORD", or(file.Solutions.Password, "postgres")),
			DBName:          getEnv("SOLUTIONS_DB_NAME", or(file.Solutions.DBName, "solutions")),
			Schema:          getEnv("SOLUTIONS_SCHEMA", or(file.Solutions.Schema, "solutions")),
			SSLMode:         getEnv("SOLUTIONS_SSL_MODE", or(file.Solutions.SSLMode, "disable")),
			MaxOpenConns:    getEnvInt("SOLUTIONS_MAX_OPEN_CONNS", orInt(file.Solutions.MaxOpenConns, 10)),
			MaxIdleConns:    getEnvInt("SOLUTIONS_MAX_IDLE_CONNS", orInt(file.Solutions.MaxIdleConns, 2)),
			ConnMaxLifetime: time.Duration(getEnvInt("SOLUTIONS_CONN_MAX_LIFETIME", orInt(file.Solutions.ConnMaxLifetime, 300))) * time.Second,
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", file.JWT.SecretKey),
			Issuer:    getEnv("JWT_ISSUER", or(file.JWT.Issuer, "sql-dojo")),
		},
		Leaderboard: LeaderboardConfig{
			CacheSize:          getEnvInt("LEADERBOARD_CACHE_SIZE", orInt(file.Leaderboard.CacheSize, 10)),
			CacheTTL:           time.Duration(getEnvInt("LEADERBOARD_CACHE_TTL", orInt(file.Leaderboard.CacheTTL, 3))) * time.Second,
			FeedLimit:          getEnvInt("LEADERBOARD_FEED_LIMIT", orInt(file.Leaderboard.FeedLimit, 25)),
			MaxSolveTime:       time.Duration(getEnvInt("LEADERBOARD_MAX_SOLVE_TIME", orInt(file.Leaderboard.MaxSolveTime, 3600))) * time.Second,
			IncorrectPenalty:   time.Duration(getEnvInt("LEADERBOARD_INCORRECT_PENALTY", orInt(file.Leaderboard.IncorrectPenalty, 300))) * time.Second,
			FeedStreamInterval: time.Duration(getEnvInt("LEADERBOARD_FEED_STREAM_INTERVAL", orInt(file.Leaderboard.FeedStreamInterval, 2))) * time.Second,
		},
		Telemetry: TelemetryConfig{
			Enabled:         getEnvBool("TELEMETRY_ENABLED", orBool(file.Telemetry.Enabled, true)),
			ServiceName:     getEnv("SERVICE_NAME", or(file.Telemetry.ServiceName, "sql-dojo-api")),
			ServiceVersion:  getEnv("SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", or(file.Telemetry.OTLPEndpoint, "otel-collector:4318")),
			MetricsEndpoint: getEnv("METRICS_ENDPOINT", "/metrics"),
		},
		Seed: SeedConfig{
			DemoData: getEnvBool("SEED_DEMO_DATA", orBool(file.Seed.DemoData, false)),
		},
	}
	config.Telemetry.Environment = config.Server.Environment

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Validate checks every section and reports the first failing one
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"server", &c.Server},
		{"database", &c.Database},
		{"sandbox", &c.Sandbox},
		{"solutions", &c.Solutions},
		{"jwt", &c.JWT},
		{"leaderboard", &c.Leaderboard},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(
		c,
		validation.Field(&c.Host, validation.Required, is.Host),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ReadTimeout, validation.Required),
		validation.Field(&c.WriteTimeout, validation.Required),
		validation.Field(&c.MaxBodyBytes, validation.Required, validation.Min(int64(1))),
	)
}

func (c *DatabaseConfig) Validate() error {
	return validation.ValidateStruct(
		c,
		validation.Field(&c.Host, validation.Required, is.Host),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.User, validation.Required),
		validation.Field(&c.DBName, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(1)),
	)
}

func (c *SandboxConfig) Validate() error {
	return validation.ValidateStruct(
		c,
		validation.Field(&c.Host, validation.Required, is.Host),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.User, validation.Required),
		validation.Field(&c.StatementTimeout, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&c.PreviewRowLimit, validation.Required, validation.Min(1)),
	)
}

func (c *SolutionsConfig) Validate() error {
	return validation.ValidateStruct(
		c,
		validation.Field(&c.Host, validation.Required, is.Host),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.User, validation.Required),
		validation.Field(&c.DBName, validation.Required),
		validation.Field(&c.Schema, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(1)),
		validation.Field(&c.MaxIdleConns, validation.Min(0)),
	)
}

func (c *JWTConfig) Validate() error {
	return validation.ValidateStruct(
		c,
		validation.Field(&c.SecretKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.Issuer, validation.Required),
	)
}

func (c *LeaderboardConfig) Validate() error {
	return validation.ValidateStruct(
		c,
		validation.Field(&c.CacheSize, validation.Required, validation.Min(1)),
		validation.Field(&c.CacheTTL, validation.Required),
		validation.Field(&c.FeedLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxSolveTime, validation.Required),
		validation.Field(&c.FeedStreamInterval, validation.Required),
	)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList reads a comma separated list
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}

func orBool(value *bool, fallback bool) bool {
	if value != nil {
		return *value
	}
	return fallback
}

// DSN returns the application database connection string
func (c *DatabaseConfig) DSN() string {
	return keywordDSN(c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// DSN returns the solutions database connection string
func (c *SolutionsConfig) DSN() string {
	return keywordDSN(c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// DSN returns the sandbox connection string for one problem database. The
// statement timeout travels as a runtime parameter so the server enforces it.
func (c *SandboxConfig) DSN(dbName string) string {
	return keywordDSN(c.Host, c.Port, c.User, c.Password, dbName, c.SSLMode) +
		" statement_timeout=" + strconv.FormatInt(c.StatementTimeout.Milliseconds(), 10)
}

func keywordDSN(host string, port int, user, password, dbName, sslMode string) string {
	return "host=" + host +
		" port=" + strconv.Itoa(port) +
		" user=" + user +
		" password=" + quoteDSNValue(password) +
		" dbname=" + quoteDSNValue(dbName) +
		" sslmode=" + sslMode
}

// quoteDSNValue single-quotes a keyword/value DSN field so empty values and
// values containing spaces survive parsing.
func quoteDSNValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return "'" + value + "'"
}

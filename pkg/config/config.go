package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultConfigPath is the YAML file read by Load when present.
const DefaultConfigPath = "config.yaml"

// Config holds all configuration for the welfare NL2SQL service.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	LLM        LLMConfig        `yaml:"llm"`
	Datasource DatasourceConfig `yaml:"datasource"`
	History    HistoryConfig    `yaml:"history"`
	Cache      CacheConfig      `yaml:"cache"`
	MCP        MCPConfig        `yaml:"mcp"`
}

// LLMConfig selects the language model used for translation.
// Without an API key or endpoint the service runs on pattern fallback only.
type LLMConfig struct {
	Provider    string        `yaml:"provider" env:"LLM_PROVIDER" env-default:"azure"`
	Endpoint    string        `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`
	Model       string        `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	APIKey      string        `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	APIVersion  string        `yaml:"api_version" env:"LLM_API_VERSION" env-default:""`
	Timeout     time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" env-default:"20s"`
	Temperature float64       `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.1"`
	MaxTokens   int           `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"800"`

	// BreakerThreshold consecutive failures open the circuit for BreakerReset.
	BreakerThreshold int           `yaml:"breaker_threshold" env:"LLM_BREAKER_THRESHOLD" env-default:"5"`
	BreakerReset     time.Duration `yaml:"breaker_reset" env:"LLM_BREAKER_RESET" env-default:"30s"`
}

// Configured reports whether a model provider can be reached.
func (c *LLMConfig) Configured() bool {
	return c.APIKey != "" || c.Endpoint != ""
}

// DatasourceConfig holds the SQL Server / Azure SQL connection for query
// execution. Execution is disabled when Host is empty.
type DatasourceConfig struct {
	Host                   string `yaml:"host" env:"MSSQL_HOST" env-default:""`
	Port                   int    `yaml:"port" env:"MSSQL_PORT" env-default:"1433"`
	Database               string `yaml:"database" env:"MSSQL_DATABASE" env-default:"welfare"`
	AuthMethod             string `yaml:"auth_method" env:"MSSQL_AUTH_METHOD" env-default:"sql"`
	Username               string `yaml:"username" env:"MSSQL_USER" env-default:""`
	Password               string `yaml:"-" env:"MSSQL_PASSWORD"` // Secret - not in YAML
	TenantID               string `yaml:"tenant_id" env:"MSSQL_TENANT_ID" env-default:""`
	ClientID               string `yaml:"client_id" env:"MSSQL_CLIENT_ID" env-default:""`
	ClientSecret           string `yaml:"-" env:"MSSQL_CLIENT_SECRET"` // Secret - not in YAML
	Encrypt                bool   `yaml:"encrypt" env:"MSSQL_ENCRYPT" env-default:"true"`
	TrustServerCertificate bool   `yaml:"trust_server_certificate" env:"MSSQL_TRUST_SERVER_CERTIFICATE" env-default:"false"`
	ConnectionTimeout      int    `yaml:"connection_timeout" env:"MSSQL_CONNECTION_TIMEOUT" env-default:"30"`
	MaxOpenConns           int    `yaml:"max_open_conns" env:"MSSQL_MAX_OPEN_CONNS" env-default:"10"`

	// MaxRows caps the rows returned for an executed query.
	MaxRows int `yaml:"max_rows" env:"MAX_ROWS" env-default:"1000"`
}

// Enabled reports whether query execution is configured.
func (c *DatasourceConfig) Enabled() bool {
	return c.Host != ""
}

// HistoryConfig holds the optional PostgreSQL query-history store.
type HistoryConfig struct {
	Enabled        bool   `yaml:"enabled" env:"HISTORY_ENABLED" env-default:"false"`
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"welfare"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"welfare_history"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	MigrationsPath string `yaml:"migrations_path" env:"HISTORY_MIGRATIONS_PATH" env-default:"./migrations"`
	RetentionDays  int    `yaml:"retention_days" env:"HISTORY_RETENTION_DAYS" env-default:"90"`

	// StatementTimeout bounds history reads and writes so a slow store never
	// holds up a query response.
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"HISTORY_STATEMENT_TIMEOUT" env-default:"5s"`
}

// URL returns the PostgreSQL connection URL used by pgx and migrate.
func (c *HistoryConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// CacheConfig holds the optional Redis translation cache.
// The cache is disabled when Host is empty.
type CacheConfig struct {
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int           `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"24h"`
}

// Addr returns host:port for the Redis client.
func (c *CacheConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MCPConfig controls the MCP endpoint.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"true"`
}

// LoadDotEnv loads .env from the working directory when it exists.
// Variables already set in the environment are not overridden.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load reads configuration from config.yaml (if present) with environment
// variable overrides. The version parameter is injected at build time and set
// on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFile(DefaultConfigPath, version)
}

// LoadFile is Load with an explicit YAML path. A missing file is not an
// error: configuration then comes from the environment alone.
func LoadFile(path, version string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	cfg.Version = version

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// Validate checks values that cleanenv cannot express as defaults.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "azure", "anthropic":
	default:
		return fmt.Errorf("unknown llm provider %q (must be openai, azure or anthropic)", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("llm temperature must be between 0 and 1, got %v", c.LLM.Temperature)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive, got %s", c.LLM.Timeout)
	}
	if c.LLM.Provider == "azure" && c.LLM.Configured() && c.LLM.Endpoint == "" {
		return fmt.Errorf("llm endpoint is required for azure")
	}

	if c.Datasource.Enabled() {
		switch c.Datasource.AuthMethod {
		case "sql":
			if c.Datasource.Username == "" {
				return fmt.Errorf("datasource username is required for sql authentication")
			}
		case "service_principal":
			if c.Datasource.TenantID == "" || c.Datasource.ClientID == "" || c.Datasource.ClientSecret == "" {
				return fmt.Errorf("datasource tenant_id, client_id and MSSQL_CLIENT_SECRET are required for service_principal authentication")
			}
		default:
			return fmt.Errorf("unknown datasource auth method %q (must be sql or service_principal)", c.Datasource.AuthMethod)
		}
	}
	if c.Datasource.MaxRows <= 0 {
		return fmt.Errorf("max_rows must be positive, got %d", c.Datasource.MaxRows)
	}

	if c.History.Enabled && c.History.RetentionDays < 0 {
		return fmt.Errorf("history retention_days must not be negative")
	}

	return nil
}

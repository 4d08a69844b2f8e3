package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	STORE_DRIVER=postgres
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=flexledger
//	FLEX_TOKEN=123456789012345678901234
//	FLEX_ACTIVITY_QUERY_ID=111111
//	FLEX_CONFIRMATION_QUERY_ID=222222
//	EXCLUDED_SYMBOLS=USD.SEK
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Store    StoreConfig    // Which database backs the ledger
	Postgres PostgresConfig // PostgreSQL connection settings
	Flex     FlexConfig     // Upstream reporting API
	Sync     SyncConfig     // Normalization and polling behavior
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string
}

// StoreConfig selects the database driver.
//
// Fields:
//   - Driver: "postgres" or "sqlite".
//   - SQLitePath: database file used when Driver is "sqlite".
type StoreConfig struct {
	Driver     string
	SQLitePath string
}

// PostgresConfig defines connection details for PostgreSQL.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// FlexConfig configures the Flex Web Service client.
//
// Fields:
//   - Token: Flex Web Service token (credential).
//   - ActivityQueryID / ConfirmationQueryID: the two saved queries to poll.
//   - SendURL / StatementURL: the two-step request/retrieve endpoints.
//   - Version: API version sent as "v".
//   - RequestPause: fixed delay between the two queries (upstream rate limit).
//   - HTTPTimeout: per-request timeout.
type FlexConfig struct {
	Token               string
	ActivityQueryID     string
	ConfirmationQueryID string
	SendURL             string
	StatementURL        string
	Version             int
	RequestPause        time.Duration
	HTTPTimeout         time.Duration
}

// SyncConfig configures normalization and the optional poll loop.
type SyncConfig struct {
	ExcludedSymbols []string
	PollInterval    time.Duration
}

// AppConfig is the globally accessible configuration instance, populated by LoadConfig().
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("STORE_DRIVER", "postgres")
	viper.SetDefault("SQLITE_PATH", "./data/flexledger.db")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "flexledger")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("FLEX_TOKEN", "")
	viper.SetDefault("FLEX_ACTIVITY_QUERY_ID", "")
	viper.SetDefault("FLEX_CONFIRMATION_QUERY_ID", "")
	viper.SetDefault("FLEX_SEND_URL", "https://ndcdyn.interactivebrokers.com/AccountManagement/FlexWebService/SendRequest")
	viper.SetDefault("FLEX_STATEMENT_URL", "https://gdcdyn.interactivebrokers.com/Universal/servlet/FlexStatementService.GetStatement")
	viper.SetDefault("FLEX_VERSION", 3)
	viper.SetDefault("FLEX_REQUEST_PAUSE", "2s")
	viper.SetDefault("FLEX_HTTP_TIMEOUT", "30s")

	viper.SetDefault("EXCLUDED_SYMBOLS", "USD.SEK")
	viper.SetDefault("POLL_INTERVAL", "0s")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(strings.TrimSpace(viper.GetString("STORE_DRIVER"))),
			SQLitePath: viper.GetString("SQLITE_PATH"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Flex: FlexConfig{
			Token:               viper.GetString("FLEX_TOKEN"),
			ActivityQueryID:     viper.GetString("FLEX_ACTIVITY_QUERY_ID"),
			ConfirmationQueryID: viper.GetString("FLEX_CONFIRMATION_QUERY_ID"),
			SendURL:             viper.GetString("FLEX_SEND_URL"),
			StatementURL:        viper.GetString("FLEX_STATEMENT_URL"),
			Version:             viper.GetInt("FLEX_VERSION"),
			RequestPause:        viper.GetDuration("FLEX_REQUEST_PAUSE"),
			HTTPTimeout:         viper.GetDuration("FLEX_HTTP_TIMEOUT"),
		},
		Sync: SyncConfig{
			ExcludedSymbols: splitList(viper.GetString("EXCLUDED_SYMBOLS")),
			PollInterval:    viper.GetDuration("POLL_INTERVAL"),
		},
	}

	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	validateConfig()
}

// Missing returns the names of required variables that are not set.
//
// Postgres settings are only required for the postgres driver; the flex
// token and query ids are checked by the sync path itself (see FlexConfig.Missing)
// so read-only commands work without credentials.
func (c Config) Missing() []string {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	switch c.Store.Driver {
	case "postgres":
		if c.Postgres.Host == "" {
			missing = append(missing, "POSTGRES_HOST")
		}
		if c.Postgres.Port == 0 {
			missing = append(missing, "POSTGRES_PORT")
		}
		if c.Postgres.User == "" {
			missing = append(missing, "POSTGRES_USER")
		}
		if c.Postgres.Password == "" {
			missing = append(missing, "POSTGRES_PASSWORD")
		}
		if c.Postgres.DBName == "" {
			missing = append(missing, "POSTGRES_DB")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			missing = append(missing, "SQLITE_PATH")
		}
	default:
		missing = append(missing, "STORE_DRIVER")
	}
	return missing
}

// Missing returns the flex variables required to fetch executions that are not set.
func (f FlexConfig) Missing() []string {
	var missing []string
	if f.Token == "" {
		missing = append(missing, "FLEX_TOKEN")
	}
	if f.ActivityQueryID == "" && f.ConfirmationQueryID == "" {
		missing = append(missing, "FLEX_ACTIVITY_QUERY_ID|FLEX_CONFIRMATION_QUERY_ID")
	}
	return missing
}

// validateConfig terminates the application when required variables are missing.
func validateConfig() {
	if missing := AppConfig.Missing(); len(missing) > 0 {
		log.Fatalf("missing or invalid required environment variables: %v\n", missing)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

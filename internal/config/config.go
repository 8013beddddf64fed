package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Ledger backends
const (
	LedgerBackendWorkbook = "workbook"
	LedgerBackendSQLite   = "sqlite"
	LedgerBackendMemory   = "memory"
)

// Rates and staff sources
const (
	SourceFile     = "file"
	SourceWorkbook = "workbook"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Rates     RatesConfig     `mapstructure:"rates"`
	Staff     StaffConfig     `mapstructure:"staff"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Lark      LarkConfig      `mapstructure:"lark"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds sqlite configuration. The database carries the invoice
// store and, when the ledger backend is sqlite, the work items table.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// LedgerConfig selects the work ledger backend
type LedgerConfig struct {
	Backend      string `mapstructure:"backend"`
	WorkbookPath string `mapstructure:"workbook_path"`
}

// RatesConfig selects where pay rates come from
type RatesConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
}

// StaffConfig selects where the staff directory comes from
type StaffConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
}

// StoreConfig toggles the invoice batch store
type StoreConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// RedisConfig holds the run lock backend configuration. Disabled means commit
// runs are serialized in-process only.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockKey  string        `mapstructure:"lock_key"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// LarkConfig holds chat notification configuration
type LarkConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	AppID      string        `mapstructure:"app_id"`
	AppSecret  string        `mapstructure:"app_secret"`
	ChatID     string        `mapstructure:"chat_id"`
	APITimeout time.Duration `mapstructure:"api_timeout"`
}

// SchedulerConfig holds the scheduled run configuration
type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Mode     string        `mapstructure:"mode"`
	Interval time.Duration `mapstructure:"interval"`
}

// TelemetryConfig holds tracing configuration. An empty endpoint disables the
// exporter.
type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/staffpayer.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Ledger defaults
	viper.SetDefault("ledger.backend", LedgerBackendWorkbook)
	viper.SetDefault("ledger.workbook_path", "data/work_log.xlsx")

	// Rates and staff default to the workbook's own sheets
	viper.SetDefault("rates.source", SourceWorkbook)
	viper.SetDefault("rates.path", "configs/rates.yaml")
	viper.SetDefault("staff.source", SourceWorkbook)
	viper.SetDefault("staff.path", "configs/staff.yaml")

	// Store defaults
	viper.SetDefault("store.enabled", true)

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.lock_key", "staffpayer:invoicing-run")
	viper.SetDefault("redis.lock_ttl", 10*time.Minute)

	// Lark defaults
	viper.SetDefault("lark.enabled", false)
	viper.SetDefault("lark.api_timeout", 30*time.Second)

	// Scheduler defaults
	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("scheduler.mode", "preview")
	viper.SetDefault("scheduler.interval", 24*time.Hour)

	// Telemetry defaults
	viper.SetDefault("telemetry.service_name", "staffpayer")
	viper.SetDefault("telemetry.otlp_endpoint", "")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("lark.app_id", "LARK_APP_ID")
	viper.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	viper.BindEnv("lark.chat_id", "LARK_CHAT_ID")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate ledger backend
	switch c.Ledger.Backend {
	case LedgerBackendWorkbook:
		if c.Ledger.WorkbookPath == "" {
			return fmt.Errorf("ledger.workbook_path is required for the workbook backend")
		}
	case LedgerBackendSQLite, LedgerBackendMemory:
	default:
		return fmt.Errorf("ledger.backend must be one of workbook, sqlite, memory")
	}

	// Validate rates source
	switch c.Rates.Source {
	case SourceFile:
		if c.Rates.Path == "" {
			return fmt.Errorf("rates.path is required when rates.source is file")
		}
	case SourceWorkbook:
		if c.Ledger.Backend != LedgerBackendWorkbook {
			return fmt.Errorf("rates.source workbook requires the workbook ledger backend")
		}
	default:
		return fmt.Errorf("rates.source must be file or workbook")
	}

	// Validate staff source
	switch c.Staff.Source {
	case SourceFile:
		if c.Staff.Path == "" {
			return fmt.Errorf("staff.path is required when staff.source is file")
		}
	case SourceWorkbook:
		if c.Ledger.Backend != LedgerBackendWorkbook {
			return fmt.Errorf("staff.source workbook requires the workbook ledger backend")
		}
	default:
		return fmt.Errorf("staff.source must be file or workbook")
	}

	// Database is needed by the store and the sqlite ledger
	if c.Store.Enabled || c.Ledger.Backend == LedgerBackendSQLite {
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required")
		}
	}

	// Validate redis lock
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when redis is enabled")
		}
		if c.Redis.LockKey == "" {
			return fmt.Errorf("redis.lock_key is required when redis is enabled")
		}
	}

	// Validate lark credentials
	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required when lark is enabled")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required when lark is enabled")
		}
		if c.Lark.ChatID == "" {
			return fmt.Errorf("lark.chat_id is required when lark is enabled")
		}
	}

	// Validate scheduler
	if c.Scheduler.Enabled {
		if c.Scheduler.Mode != "preview" && c.Scheduler.Mode != "commit" {
			return fmt.Errorf("scheduler.mode must be preview or commit")
		}
		if c.Scheduler.Interval <= 0 {
			return fmt.Errorf("scheduler.interval must be positive")
		}
	}

	return nil
}

// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Chain        ChainConfig        `mapstructure:"chain"`
	Wallet       WalletConfig       `mapstructure:"wallet"`
	Contracts    ContractsConfig    `mapstructure:"contracts"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Journal      JournalConfig      `mapstructure:"journal"`
	Recommender  RecommenderConfig  `mapstructure:"recommender"`
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ChainConfig contains EVM node connection configuration
type ChainConfig struct {
	NodeURL        string        `mapstructure:"node_url"`
	ChainID        int64         `mapstructure:"chain_id"`
	BackupNodes    []string      `mapstructure:"backup_nodes"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

// WalletConfig contains local signer configuration
type WalletConfig struct {
	PrivateKeyEnv string `mapstructure:"private_key_env"`
	KeyFile       string `mapstructure:"key_file"`
}

// ContractsConfig contains deployed contract addresses
type ContractsConfig struct {
	BaseToken         string `mapstructure:"base_token"`
	SYToken           string `mapstructure:"sy_token"`
	SYWrapper         string `mapstructure:"sy_wrapper"`
	YieldTokenization string `mapstructure:"yield_tokenization"`
	StakingPool       string `mapstructure:"staking_pool"`
}

// OrchestratorConfig contains approve-then-execute sequencing configuration
type OrchestratorConfig struct {
	SettleDelay           time.Duration `mapstructure:"settle_delay"`
	AllowancePollInterval time.Duration `mapstructure:"allowance_poll_interval"`
	AllowancePollAttempts int           `mapstructure:"allowance_poll_attempts"`
	HashRetryAttempts     int           `mapstructure:"hash_retry_attempts"`
	HashRetryDelay        time.Duration `mapstructure:"hash_retry_delay"`
	GasMarginPercent      int64         `mapstructure:"gas_margin_percent"`
	ConfirmInterval       time.Duration `mapstructure:"confirm_interval"`
	ConfirmAttempts       int           `mapstructure:"confirm_attempts"`
}

// JournalConfig contains activity journal configuration.
// ConnectionString is a directory for the file store, a database path for
// sqlite, and a DSN for postgres.
type JournalConfig struct {
	StoreType        string        `mapstructure:"store_type"` // file, sqlite, postgres
	ConnectionString string        `mapstructure:"connection_string"`
	MaxConnections   int           `mapstructure:"max_connections"`
	MaxIdleTime      time.Duration `mapstructure:"max_idle_time"`
	MaxEntries       int           `mapstructure:"max_entries"`
	SeedSamples      bool          `mapstructure:"seed_samples"`
}

// RecommenderConfig contains remote recommendation API configuration
type RecommenderConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	DefaultChain   string        `mapstructure:"default_chain"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	EnableHealth  bool          `mapstructure:"enable_health"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("YIELDFORGE")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override with environment variables if present
	if nodeURL := os.Getenv("CHAIN_NODE_URL"); nodeURL != "" {
		config.Chain.NodeURL = nodeURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Journal.ConnectionString = dbURL
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "yieldforge")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Chain defaults (Avalanche Fuji testnet)
	viper.SetDefault("chain.node_url", "https://api.avax-test.network/ext/bc/C/rpc")
	viper.SetDefault("chain.chain_id", 43113)
	viper.SetDefault("chain.request_timeout", "30s")
	viper.SetDefault("chain.retry_attempts", 3)
	viper.SetDefault("chain.retry_delay", "5s")

	// Wallet defaults
	viper.SetDefault("wallet.private_key_env", "WALLET_PRIVATE_KEY")

	// Orchestrator defaults
	viper.SetDefault("orchestrator.settle_delay", "2s")
	viper.SetDefault("orchestrator.allowance_poll_interval", "500ms")
	viper.SetDefault("orchestrator.allowance_poll_attempts", 8)
	viper.SetDefault("orchestrator.hash_retry_attempts", 2)
	viper.SetDefault("orchestrator.hash_retry_delay", "2s")
	viper.SetDefault("orchestrator.gas_margin_percent", 20)
	viper.SetDefault("orchestrator.confirm_interval", "3s")
	viper.SetDefault("orchestrator.confirm_attempts", 20)

	// Journal defaults
	viper.SetDefault("journal.store_type", "file")
	viper.SetDefault("journal.connection_string", "./data")
	viper.SetDefault("journal.max_connections", 25)
	viper.SetDefault("journal.max_idle_time", "15m")
	viper.SetDefault("journal.max_entries", 100)
	viper.SetDefault("journal.seed_samples", false)

	// Recommender defaults
	viper.SetDefault("recommender.base_url", "https://fastapi-on-render-0s0u.onrender.com")
	viper.SetDefault("recommender.request_timeout", "30s")
	viper.SetDefault("recommender.default_chain", "avalanche")

	// Server defaults
	viper.SetDefault("server.port", 8081)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.enable_metrics", true)
	viper.SetDefault("server.enable_health", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Chain.NodeURL == "" {
		return fmt.Errorf("chain node URL is required")
	}
	if c.Journal.ConnectionString == "" {
		return fmt.Errorf("journal connection string is required")
	}
	if c.Journal.MaxEntries <= 0 {
		return fmt.Errorf("journal max entries must be positive")
	}
	if c.Orchestrator.SettleDelay < 0 {
		return fmt.Errorf("orchestrator settle delay must not be negative")
	}
	if c.Orchestrator.HashRetryAttempts < 0 {
		return fmt.Errorf("orchestrator hash retry attempts must not be negative")
	}
	return nil
}

// File: cmd/yieldforge/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/internal/connection"
	"github.com/yieldforge/yieldforge/internal/contracts"
	"github.com/yieldforge/yieldforge/internal/journal"
	"github.com/yieldforge/yieldforge/internal/metrics"
	"github.com/yieldforge/yieldforge/internal/orchestrator"
	"github.com/yieldforge/yieldforge/internal/recommender"
	"github.com/yieldforge/yieldforge/internal/server"
	"github.com/yieldforge/yieldforge/internal/wallet"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// Application represents the main application
type Application struct {
	config       *config.Config
	logger       *logrus.Logger
	connection   *connection.ConnectionManager
	session      wallet.Session
	store        journal.Store
	journal      *journal.Journal
	contracts    *contracts.Service
	orchestrator *orchestrator.Orchestrator
	recommender  *recommender.Client
	metrics      *metrics.Manager
	server       *server.HTTPServer
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.initializeLogger(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := app.initializeComponents(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

// initializeLogger initializes the application logger
func (app *Application) initializeLogger() error {
	logCfg := app.config.Logging

	if err := utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger = utils.GetLogger()
	app.logger.Info("Logger initialized",
		"level", logCfg.Level,
		"format", logCfg.Format,
		"output", logCfg.Output)

	return nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	app.logger.Info("Initializing application components")

	app.metrics = metrics.NewManager()

	if err := app.initializeConnection(); err != nil {
		return fmt.Errorf("failed to initialize connection: %w", err)
	}

	if err := app.initializeWallet(); err != nil {
		return fmt.Errorf("failed to initialize wallet: %w", err)
	}

	if err := app.initializeJournal(); err != nil {
		return fmt.Errorf("failed to initialize journal: %w", err)
	}

	if err := app.initializeContracts(); err != nil {
		return fmt.Errorf("failed to initialize contracts: %w", err)
	}

	app.initializeOrchestrator()
	app.recommender = recommender.NewClient(&app.config.Recommender, app.metrics)

	if err := app.initializeServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	app.logger.Info("All components initialized successfully")
	return nil
}

// initializeConnection initializes the connection manager
func (app *Application) initializeConnection() error {
	app.logger.Info("Initializing connection manager", "node_url", app.config.Chain.NodeURL)

	app.connection = connection.NewConnectionManager(&app.config.Chain)
	app.connection.SetMetrics(app.metrics.GetPrometheusMetrics())

	if _, err := app.connection.GetClient(); err != nil {
		return fmt.Errorf("failed to connect to chain node: %w", err)
	}

	app.logger.Info("Connection manager initialized successfully")
	return nil
}

// initializeWallet initializes the local signer session
func (app *Application) initializeWallet() error {
	app.logger.Info("Initializing wallet session")

	session, err := wallet.NewLocalSession(&app.config.Wallet, big.NewInt(app.config.Chain.ChainID))
	if err != nil {
		return fmt.Errorf("failed to create wallet session: %w", err)
	}
	app.session = session

	if session.IsConnected() {
		app.logger.Info("Wallet session initialized", "address", session.Address().Hex())
	} else {
		app.logger.Warn("No signer key configured, write operations will be rejected")
	}

	return nil
}

// initializeJournal initializes the activity journal and its store
func (app *Application) initializeJournal() error {
	app.logger.Info("Initializing activity journal", "store_type", app.config.Journal.StoreType)

	store, err := journal.NewStore(&app.config.Journal)
	if err != nil {
		return fmt.Errorf("failed to create journal store: %w", err)
	}

	if err := store.Connect(); err != nil {
		return fmt.Errorf("failed to connect to journal store: %w", err)
	}
	app.store = store

	app.journal, err = journal.NewJournal(store, &app.config.Journal)
	if err != nil {
		return fmt.Errorf("failed to create journal: %w", err)
	}
	app.journal.SetMetrics(app.metrics.GetPrometheusMetrics())

	app.logger.Info("Activity journal initialized", "entries", app.journal.Count())
	return nil
}

// initializeContracts initializes the contract reader, writer, and confirmer
func (app *Application) initializeContracts() error {
	app.logger.Info("Initializing contract service")

	reader := contracts.NewReader(app.connection)
	writer := contracts.NewWriter(app.connection, app.session, &app.config.Orchestrator)
	confirmer := contracts.NewConfirmer(app.connection, &app.config.Orchestrator)

	pm := app.metrics.GetPrometheusMetrics()
	reader.SetMetrics(pm)
	writer.SetMetrics(pm)
	confirmer.SetMetrics(pm)

	service, err := contracts.NewService(writer, reader, confirmer, &app.config.Contracts)
	if err != nil {
		return fmt.Errorf("failed to create contract service: %w", err)
	}
	app.contracts = service

	app.logger.Info("Contract service initialized successfully")
	return nil
}

// initializeOrchestrator initializes the approve-then-execute orchestrator
func (app *Application) initializeOrchestrator() {
	app.orchestrator = orchestrator.NewOrchestrator(
		&app.config.Orchestrator,
		app.contracts,
		app.contracts.Reader,
		app.session,
		app.journal,
		app.metrics,
	)
}

// initializeServer initializes the HTTP server
func (app *Application) initializeServer() error {
	app.logger.Info("Initializing HTTP server")

	httpServer, err := server.NewHTTPServer(
		&app.config.Server,
		app.orchestrator,
		app.contracts,
		app.journal,
		app.recommender,
		app.session,
		app.connection,
		app.metrics,
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	app.server = httpServer

	app.logger.Info("HTTP server initialized successfully")
	return nil
}

// Start starts the application
func (app *Application) Start() error {
	app.logger.Info("Starting YieldForge",
		"version", AppVersion,
		"environment", app.config.App.Environment)

	if err := app.server.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	app.logger.Info("YieldForge started successfully",
		"server_address", fmt.Sprintf("%s:%d", app.config.Server.Host, app.config.Server.Port),
		"chain_endpoint", app.config.Chain.NodeURL,
		"chain_id", app.config.Chain.ChainID)

	return nil
}

// Stop stops the application gracefully
func (app *Application) Stop() error {
	app.logger.Info("Stopping YieldForge")

	app.cancel()

	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			app.logger.Error("Failed to stop HTTP server", "error", err)
		}
	}

	if app.store != nil {
		if err := app.store.Close(); err != nil {
			app.logger.Error("Failed to close journal store", "error", err)
		}
	}

	if app.connection != nil {
		if err := app.connection.Close(); err != nil {
			app.logger.Error("Failed to close connection", "error", err)
		}
	}

	app.logger.Info("YieldForge stopped successfully")
	return nil
}

// GetStats returns application statistics
func (app *Application) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"version":   AppVersion,
		"timestamp": time.Now(),
	}

	if app.connection != nil {
		stats["connection"] = app.connection.Stats()
	}

	if app.journal != nil {
		stats["journal_entries"] = app.journal.Count()
	}

	if app.contracts != nil {
		stats["confirmer"] = app.contracts.Confirmer.GetStats()
	}

	return stats
}

// CLI Commands

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "yieldforge",
	Short:   "YieldForge yield tokenization backend",
	Long:    `A backend service that orchestrates allowance-based token operations on EVM chains, records them in a persisted activity journal, and proxies AI investment recommendation APIs.`,
	Version: AppVersion,
	RunE:    runServer,
}

// runServer is the main command to run the service
func runServer(cmd *cobra.Command, args []string) error {
	configPath := viper.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	app, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	<-signalChan
	fmt.Println("\nReceived shutdown signal, stopping application...")

	if err := app.Stop(); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}

	return nil
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("YieldForge %s\n", AppVersion)
	},
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Environment: %s\n", cfg.App.Environment)
		fmt.Printf("Chain Node: %s\n", cfg.Chain.NodeURL)
		fmt.Printf("Chain ID: %d\n", cfg.Chain.ChainID)
		fmt.Printf("Journal Store: %s\n", cfg.Journal.StoreType)
		fmt.Printf("Recommender: %s\n", cfg.Recommender.BaseURL)

		return nil
	},
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connectivity and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		fmt.Println("Testing YieldForge connectivity...")

		fmt.Printf("Testing chain connection to %s...\n", cfg.Chain.NodeURL)
		conn := connection.NewConnectionManager(&cfg.Chain)
		if _, err := conn.GetClient(); err != nil {
			return fmt.Errorf("failed to connect to chain node: %w", err)
		}
		chainID, err := conn.GetChainID()
		if err != nil {
			return fmt.Errorf("failed to query chain id: %w", err)
		}
		fmt.Printf("✓ Chain connection successful (chain id %d)\n", chainID)

		fmt.Printf("Testing journal store (%s)...\n", cfg.Journal.StoreType)
		store, err := journal.NewStore(&cfg.Journal)
		if err != nil {
			return fmt.Errorf("failed to create journal store: %w", err)
		}
		if err := store.Connect(); err != nil {
			return fmt.Errorf("failed to connect to journal store: %w", err)
		}
		store.Close()
		fmt.Println("✓ Journal store connection successful")

		fmt.Println("\nAll connectivity tests passed! ✓")
		return nil
	},
}

// init initializes the CLI commands
func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug mode")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(testCmd)
	configCmd.AddCommand(validateConfigCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

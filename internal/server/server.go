// File: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/internal/connection"
	"github.com/yieldforge/yieldforge/internal/contracts"
	"github.com/yieldforge/yieldforge/internal/journal"
	"github.com/yieldforge/yieldforge/internal/metrics"
	"github.com/yieldforge/yieldforge/internal/orchestrator"
	"github.com/yieldforge/yieldforge/internal/recommender"
	"github.com/yieldforge/yieldforge/internal/wallet"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// HTTPServer exposes the orchestrator, journal, contract reads, and
// recommendation proxy over HTTP.
type HTTPServer struct {
	config         *config.ServerConfig
	server         *http.Server
	router         *mux.Router
	orchestrator   *orchestrator.Orchestrator
	contracts      *contracts.Service
	journal        *journal.Journal
	recommender    *recommender.Client
	session        wallet.Session
	connections    connection.Manager
	metricsManager *metrics.Manager
	logger         *logrus.Logger
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(
	cfg *config.ServerConfig,
	orch *orchestrator.Orchestrator,
	contractService *contracts.Service,
	activityJournal *journal.Journal,
	recommenderClient *recommender.Client,
	session wallet.Session,
	connections connection.Manager,
	metricsManager *metrics.Manager,
) (*HTTPServer, error) {

	server := &HTTPServer{
		config:         cfg,
		orchestrator:   orch,
		contracts:      contractService,
		journal:        activityJournal,
		recommender:    recommenderClient,
		session:        session,
		connections:    connections,
		metricsManager: metricsManager,
		logger:         utils.GetLogger(),
	}

	server.setupRouter()

	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, nil
}

// setupRouter sets up the HTTP routes
func (s *HTTPServer) setupRouter() {
	s.router = mux.NewRouter()

	// Middleware
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
	if s.metricsManager != nil {
		s.router.Use(s.metricsMiddleware)
	}

	// API routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint
	if s.config.EnableHealth {
		api.HandleFunc("/health", s.healthHandler).Methods("GET")
		api.HandleFunc("/health/detailed", s.detailedHealthHandler).Methods("GET")
	}

	// Metrics endpoint
	if s.config.EnableMetrics {
		s.router.Handle("/metrics", promhttp.Handler())
		api.HandleFunc("/stats", s.statsHandler).Methods("GET")
	}

	// Wallet endpoints
	api.HandleFunc("/wallet", s.walletHandler).Methods("GET")

	// Activity journal endpoints
	api.HandleFunc("/activities", s.listActivitiesHandler).Methods("GET")
	api.HandleFunc("/activities", s.clearActivitiesHandler).Methods("DELETE")

	// Read endpoints
	api.HandleFunc("/tokens/{token}", s.tokenInfoHandler).Methods("GET")
	api.HandleFunc("/tokens/{token}/balance", s.balanceHandler).Methods("GET")
	api.HandleFunc("/tokens/{token}/allowance", s.allowanceHandler).Methods("GET")
	api.HandleFunc("/maturities", s.maturitiesHandler).Methods("GET")
	api.HandleFunc("/rates", s.ratesHandler).Methods("GET")
	api.HandleFunc("/staking/balance", s.stakedBalanceHandler).Methods("GET")

	// Operation endpoints
	api.HandleFunc("/operations/wrap", s.wrapHandler).Methods("POST")
	api.HandleFunc("/operations/unwrap", s.unwrapHandler).Methods("POST")
	api.HandleFunc("/operations/split", s.splitHandler).Methods("POST")
	api.HandleFunc("/operations/combine", s.combineHandler).Methods("POST")
	api.HandleFunc("/operations/stake", s.stakeHandler).Methods("POST")
	api.HandleFunc("/operations/unstake", s.unstakeHandler).Methods("POST")
	api.HandleFunc("/operations/faucet", s.faucetHandler).Methods("POST")

	// Recommendation proxy endpoints
	api.HandleFunc("/recommendations/pools", s.recommendPoolsHandler).Methods("GET")
	api.HandleFunc("/recommendations/optimize", s.optimizeSplitHandler).Methods("POST")
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.Info("Starting HTTP server",
		"address", s.server.Addr,
		"metrics_enabled", s.config.EnableMetrics)

	// Prime metrics so the first scrape is not empty
	if s.metricsManager != nil {
		s.metricsManager.UpdateSystemMetrics()
		s.updateComponentHealth()
		go s.systemMetricsUpdater()
	}

	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// systemMetricsUpdater updates system metrics periodically
func (s *HTTPServer) systemMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.metricsManager.UpdateSystemMetrics()
		s.updateComponentHealth()
	}
}

func (s *HTTPServer) updateComponentHealth() {
	pm := s.metricsManager.GetPrometheusMetrics()
	if s.connections != nil {
		pm.UpdateComponentHealth("connection", s.connections.IsConnected())
	}
	if s.session != nil {
		pm.UpdateComponentHealth("wallet", s.session.IsConnected())
	}
	if s.journal != nil {
		pm.UpdateComponentHealth("journal", true)
		pm.UpdateJournalSize(s.journal.Count())
	}
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop() error {
	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Utility Methods

// writeJSON writes a JSON response
func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError writes an error response
func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string, err error) {
	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    status,
		"timestamp": time.Now(),
	}

	if err != nil {
		errorResponse["details"] = err.Error()
		s.logger.Error("HTTP error", "status", status, "message", message, "error", err)
	}

	s.writeJSON(w, status, errorResponse)
}

// writeAppError maps an application error onto an HTTP status and response
// body carrying the error code and user-facing message.
func (s *HTTPServer) writeAppError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*utils.AppError)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "Internal error", err)
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case utils.ErrCodeInvalidAmount, utils.ErrCodeValidation:
		status = http.StatusBadRequest
	case utils.ErrCodeNotConnected, utils.ErrCodeWalletDisconnected:
		status = http.StatusConflict
	case utils.ErrCodeInsufficientAllowance, utils.ErrCodeInsufficientBalance:
		status = http.StatusUnprocessableEntity
	case utils.ErrCodeNetworkError, utils.ErrCodeTxHashUnavailable:
		status = http.StatusBadGateway
	case utils.ErrCodeNotFound:
		status = http.StatusNotFound
	}

	s.writeJSON(w, status, map[string]interface{}{
		"error":     appErr.UserMessage,
		"code":      appErr.Code,
		"status":    status,
		"timestamp": time.Now(),
	})
}

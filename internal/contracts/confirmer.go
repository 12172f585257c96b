// File: internal/contracts/confirmer.go
package contracts

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/internal/connection"
	"github.com/yieldforge/yieldforge/internal/metrics"
	"github.com/yieldforge/yieldforge/internal/models"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// Confirmer polls for transaction receipts so callers get the block number
// and gas used alongside the hash.
type Confirmer struct {
	connectionManager connection.Manager
	config            *config.OrchestratorConfig
	logger            *logrus.Logger
	metrics           *metrics.PrometheusMetrics

	mu           sync.RWMutex
	lastPollTime time.Time
	pollCount    uint64
	errorCount   uint64
}

// NewConfirmer creates a new receipt confirmer
func NewConfirmer(connectionManager connection.Manager, cfg *config.OrchestratorConfig) *Confirmer {
	return &Confirmer{
		connectionManager: connectionManager,
		config:            cfg,
		logger:            utils.GetLogger(),
	}
}

// SetMetrics attaches Prometheus recorders to the confirmer.
func (c *Confirmer) SetMetrics(pm *metrics.PrometheusMetrics) {
	c.metrics = pm
}

// WaitForReceipt polls for the receipt of hash until it lands or the
// configured attempt budget is spent.
func (c *Confirmer) WaitForReceipt(ctx context.Context, hash common.Hash) (*models.TxResult, error) {
	interval := c.config.ConfirmInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	attempts := c.config.ConfirmAttempts
	if attempts <= 0 {
		attempts = 20
	}

	start := time.Now()
	for attempt := 0; attempt < attempts; attempt++ {
		receipt, err := c.pollReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return nil, utils.NewAppError(utils.ErrCodeContractRevert,
					"Transaction reverted on chain", hash.Hex())
			}
			if c.metrics != nil {
				c.metrics.RecordTxConfirmation(time.Since(start))
			}
			return &models.TxResult{
				TxHash:      hash,
				BlockNumber: receipt.BlockNumber.Uint64(),
				GasUsed:     new(big.Int).SetUint64(receipt.GasUsed),
			}, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			c.recordError()
			return nil, utils.ClassifyWriteError(err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}

	return nil, utils.NewAppError(utils.ErrCodeNetworkError,
		"Transaction not confirmed within attempt budget", hash.Hex())
}

// pollReceipt performs a single receipt lookup
func (c *Confirmer) pollReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	c.pollCount++
	c.lastPollTime = time.Now()
	c.mu.Unlock()

	client, err := c.connectionManager.GetClientWithContext(ctx)
	if err != nil {
		c.recordError()
		return nil, utils.NewAppError(utils.ErrCodeConnection, "Failed to get client", err.Error())
	}

	callStart := time.Now()
	receipt, err := client.TransactionReceipt(ctx, hash)
	if c.metrics != nil && !errors.Is(err, ethereum.NotFound) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordRPCRequest("eth_getTransactionReceipt", status, time.Since(callStart))
	}
	return receipt, err
}

func (c *Confirmer) recordError() {
	c.mu.Lock()
	c.errorCount++
	c.mu.Unlock()
}

// GetStats returns confirmer statistics
func (c *Confirmer) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"poll_count":     c.pollCount,
		"error_count":    c.errorCount,
		"last_poll_time": c.lastPollTime,
	}
}

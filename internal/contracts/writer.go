// File: internal/contracts/writer.go
package contracts

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/internal/connection"
	"github.com/yieldforge/yieldforge/internal/metrics"
	"github.com/yieldforge/yieldforge/internal/wallet"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// fallbackGasLimit is used when gas estimation fails: estimation failure is
// informational, not fatal, and the node applies its own default.
const fallbackGasLimit = 500_000

// Writer submits state-changing contract calls. It owns gas estimation with
// a safety margin, and the retry policy for transient wallet faults.
type Writer struct {
	connectionManager connection.Manager
	session           wallet.Session
	config            *config.OrchestratorConfig
	metrics           *metrics.PrometheusMetrics
	logger            *logrus.Logger
}

// NewWriter creates a new contract writer
func NewWriter(connectionManager connection.Manager, session wallet.Session, cfg *config.OrchestratorConfig) *Writer {
	return &Writer{
		connectionManager: connectionManager,
		session:           session,
		config:            cfg,
		logger:            utils.GetLogger(),
	}
}

// SetMetrics attaches the metrics sink. Safe to leave unset.
func (w *Writer) SetMetrics(pm *metrics.PrometheusMetrics) {
	w.metrics = pm
}

// invoke builds, signs and submits one transaction carrying the packed call.
func (w *Writer) invoke(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	client, err := w.connectionManager.GetClientWithContext(ctx)
	if err != nil {
		return common.Hash{}, utils.NewAppError(utils.ErrCodeConnection, "Failed to get client", err.Error())
	}

	from := w.session.Address()

	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, utils.ClassifyWriteError(err)
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, utils.ClassifyWriteError(err)
	}

	gasLimit := w.estimateGas(ctx, client, from, to, data)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := w.session.SignTx(tx)
	if err != nil {
		return common.Hash{}, utils.ClassifyWriteError(err)
	}

	sendStart := time.Now()
	if err := client.SendTransaction(ctx, signed); err != nil {
		if w.metrics != nil {
			w.metrics.RecordRPCRequest("eth_sendRawTransaction", "error", time.Since(sendStart))
		}
		return common.Hash{}, utils.ClassifyWriteError(err)
	}
	if w.metrics != nil {
		w.metrics.RecordRPCRequest("eth_sendRawTransaction", "ok", time.Since(sendStart))
	}

	return signed.Hash(), nil
}

// estimateGas estimates gas for the call and applies the configured safety
// margin. When estimation fails the fallback limit is used instead of
// aborting the submission.
func (w *Writer) estimateGas(ctx context.Context, client ethereum.GasEstimator, from, to common.Address, data []byte) uint64 {
	estimate, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &to,
		Data: data,
	})
	if err != nil {
		w.logger.Warn("Gas estimation failed, submitting with fallback limit",
			"contract", to.Hex(), "error", err)
		if w.metrics != nil {
			w.metrics.RecordGasEstimationFallback()
		}
		return fallbackGasLimit
	}

	margin := w.config.GasMarginPercent
	if margin <= 0 {
		margin = 20
	}
	return estimate + estimate*uint64(margin)/100
}

// submitWithRetry runs one submission attempt plus the configured number of
// retries for the transaction-hash race. Lost wallet channels fail
// immediately and invalidate the cached client handle.
func (w *Writer) submitWithRetry(ctx context.Context, submit func(context.Context) (common.Hash, error)) (common.Hash, error) {
	maxRetries := w.config.HashRetryAttempts
	backoff := w.config.HashRetryDelay

	var lastErr *utils.AppError

	for attempt := 0; attempt <= maxRetries; attempt++ {
		hash, err := submit(ctx)
		if err == nil {
			return hash, nil
		}

		classified := utils.ClassifyWriteError(err)

		switch classified.Code {
		case utils.ErrCodeWalletDisconnected:
			w.connectionManager.Invalidate()
			w.logger.Warn("Wallet channel lost, invalidated cached client", "error", classified)
			return common.Hash{}, classified
		case utils.ErrCodeTxHashUnavailable:
			lastErr = classified
			if attempt < maxRetries {
				if w.metrics != nil {
					w.metrics.RecordSubmissionRetry("tx_hash_unavailable")
				}
				w.logger.Info("Transaction hash unavailable, retrying",
					"attempt", attempt+1, "max_attempts", maxRetries+1)
				select {
				case <-ctx.Done():
					return common.Hash{}, ctx.Err()
				case <-time.After(backoff):
				}
				continue
			}
		default:
			return common.Hash{}, classified
		}
	}

	return common.Hash{}, lastErr
}

// submitCall packs a method call and submits it under the retry policy.
func (w *Writer) submitCall(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) (common.Hash, error) {
	if !w.session.IsConnected() {
		return common.Hash{}, utils.NewAppError(utils.ErrCodeNotConnected, "Wallet session not connected")
	}

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return common.Hash{}, utils.NewAppError(utils.ErrCodeInternal, "Failed to pack call data", err.Error())
	}

	return w.submitWithRetry(ctx, func(ctx context.Context) (common.Hash, error) {
		return w.invoke(ctx, contract, data)
	})
}

// Approve grants spender the right to move amount of token for the signer
func (w *Writer) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	return w.submitCall(ctx, token, erc20ABI, "approve", spender, amount)
}

// Transfer moves amount of token to the recipient
func (w *Writer) Transfer(ctx context.Context, token, to common.Address, amount *big.Int) (common.Hash, error) {
	return w.submitCall(ctx, token, erc20ABI, "transfer", to, amount)
}

// Mint mints amount of a test token to the recipient
func (w *Writer) Mint(ctx context.Context, token, to common.Address, amount *big.Int) (common.Hash, error) {
	return w.submitCall(ctx, token, erc20ABI, "mint", to, amount)
}

// Wrap converts amount of the base token into the yield-bearing SY token
func (w *Writer) Wrap(ctx context.Context, wrapper common.Address, amount *big.Int) (common.Hash, error) {
	return w.submitCall(ctx, wrapper, syWrapperABI, "wrap", amount)
}

// Unwrap converts amount of SY back to the base token
func (w *Writer) Unwrap(ctx context.Context, wrapper common.Address, amount *big.Int) (common.Hash, error) {
	return w.submitCall(ctx, wrapper, syWrapperABI, "unwrap", amount)
}

// Split divides SY into principal and yield tokens with a shared maturity
func (w *Writer) Split(ctx context.Context, tokenization common.Address, syAmount, maturity *big.Int) (common.Hash, error) {
	return w.submitCall(ctx, tokenization, yieldTokenizationABI, "split", syAmount, maturity)
}

// Redeem combines matured PT (and YT) back into SY
func (w *Writer) Redeem(ctx context.Context, tokenization common.Address, ptAmount, maturity *big.Int) (common.Hash, error) {
	return w.submitCall(ctx, tokenization, yieldTokenizationABI, "redeem", ptAmount, maturity)
}

// Stake deposits amount into the staking pool
func (w *Writer) Stake(ctx context.Context, pool common.Address, amount *big.Int) (common.Hash, error) {
	return w.submitCall(ctx, pool, stakingPoolABI, "stake", amount)
}

// Unstake withdraws amount from the staking pool
func (w *Writer) Unstake(ctx context.Context, pool common.Address, amount *big.Int) (common.Hash, error) {
	return w.submitCall(ctx, pool, stakingPoolABI, "unstake", amount)
}

package contracts

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/internal/connection"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

type fakeConnectionManager struct {
	invalidations int
}

func (f *fakeConnectionManager) GetClient() (*ethclient.Client, error) { return nil, nil }
func (f *fakeConnectionManager) GetClientWithContext(ctx context.Context) (*ethclient.Client, error) {
	return nil, nil
}
func (f *fakeConnectionManager) HealthCheck() error                                 { return nil }
func (f *fakeConnectionManager) HealthCheckWithContext(ctx context.Context) error   { return nil }
func (f *fakeConnectionManager) GetChainID() (uint64, error)                        { return 43113, nil }
func (f *fakeConnectionManager) GetLatestBlockNumber() (uint64, error)              { return 0, nil }
func (f *fakeConnectionManager) IsConnected() bool                                  { return true }
func (f *fakeConnectionManager) Invalidate()                                        { f.invalidations++ }
func (f *fakeConnectionManager) Close() error                                       { return nil }
func (f *fakeConnectionManager) Stats() connection.ConnectionStats                  { return connection.ConnectionStats{} }

type fakeWalletSession struct{}

func (fakeWalletSession) IsConnected() bool       { return true }
func (fakeWalletSession) Address() common.Address { return common.HexToAddress("0x01") }
func (fakeWalletSession) ChainID() *big.Int       { return big.NewInt(43113) }
func (fakeWalletSession) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	return tx, nil
}
func (fakeWalletSession) SignMessage(msg []byte) ([]byte, error) { return nil, nil }
func (fakeWalletSession) Disconnect()                            {}

type fakeGasEstimator struct {
	estimate uint64
	err      error
}

func (f *fakeGasEstimator) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return f.estimate, f.err
}

func newTestWriter(conn *fakeConnectionManager) *Writer {
	cfg := &config.OrchestratorConfig{
		HashRetryAttempts: 2,
		HashRetryDelay:    time.Millisecond,
		GasMarginPercent:  20,
	}
	return NewWriter(conn, fakeWalletSession{}, cfg)
}

func TestSubmitWithRetrySucceedsFirstAttempt(t *testing.T) {
	conn := &fakeConnectionManager{}
	w := newTestWriter(conn)

	want := common.HexToHash("0xabc")
	attempts := 0
	hash, err := w.submitWithRetry(context.Background(), func(ctx context.Context) (common.Hash, error) {
		attempts++
		return want, nil
	})

	require.NoError(t, err)
	assert.Equal(t, want, hash)
	assert.Equal(t, 1, attempts)
	assert.Zero(t, conn.invalidations)
}

func TestSubmitWithRetryRecoversFromHashRace(t *testing.T) {
	conn := &fakeConnectionManager{}
	w := newTestWriter(conn)

	want := common.HexToHash("0xdef")
	attempts := 0
	hash, err := w.submitWithRetry(context.Background(), func(ctx context.Context) (common.Hash, error) {
		attempts++
		if attempts < 3 {
			return common.Hash{}, errors.New("unable to get transaction hash")
		}
		return want, nil
	})

	require.NoError(t, err)
	assert.Equal(t, want, hash)
	assert.Equal(t, 3, attempts)
}

func TestSubmitWithRetryExhaustsHashRetries(t *testing.T) {
	conn := &fakeConnectionManager{}
	w := newTestWriter(conn)

	attempts := 0
	_, err := w.submitWithRetry(context.Background(), func(ctx context.Context) (common.Hash, error) {
		attempts++
		return common.Hash{}, errors.New("unable to get transaction hash")
	})

	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrCodeTxHashUnavailable))
	// One initial attempt plus two retries.
	assert.Equal(t, 3, attempts)
}

func TestSubmitWithRetryDisconnectFailsFastAndInvalidates(t *testing.T) {
	conn := &fakeConnectionManager{}
	w := newTestWriter(conn)

	attempts := 0
	_, err := w.submitWithRetry(context.Background(), func(ctx context.Context) (common.Hash, error) {
		attempts++
		return common.Hash{}, errors.New("attempting to use a disconnected port object")
	})

	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrCodeWalletDisconnected))
	assert.Equal(t, 1, attempts, "wallet loss must not be retried")
	assert.Equal(t, 1, conn.invalidations)
}

func TestSubmitWithRetryOtherErrorsAreNotRetried(t *testing.T) {
	conn := &fakeConnectionManager{}
	w := newTestWriter(conn)

	attempts := 0
	_, err := w.submitWithRetry(context.Background(), func(ctx context.Context) (common.Hash, error) {
		attempts++
		return common.Hash{}, errors.New("execution reverted: Maturity not reached")
	})

	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrCodeContractRevert))
	assert.Equal(t, 1, attempts)
	assert.Zero(t, conn.invalidations)
}

func TestSubmitWithRetryHonorsContextBetweenAttempts(t *testing.T) {
	conn := &fakeConnectionManager{}
	w := newTestWriter(conn)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := w.submitWithRetry(ctx, func(ctx context.Context) (common.Hash, error) {
		attempts++
		cancel()
		return common.Hash{}, errors.New("unable to get transaction hash")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestEstimateGasAppliesMargin(t *testing.T) {
	w := newTestWriter(&fakeConnectionManager{})

	got := w.estimateGas(context.Background(), &fakeGasEstimator{estimate: 100_000},
		common.HexToAddress("0x01"), common.HexToAddress("0x02"), nil)
	assert.Equal(t, uint64(120_000), got)
}

func TestEstimateGasDefaultMargin(t *testing.T) {
	conn := &fakeConnectionManager{}
	w := NewWriter(conn, fakeWalletSession{}, &config.OrchestratorConfig{})

	got := w.estimateGas(context.Background(), &fakeGasEstimator{estimate: 50_000},
		common.HexToAddress("0x01"), common.HexToAddress("0x02"), nil)
	assert.Equal(t, uint64(60_000), got)
}

func TestEstimateGasFallsBackOnFailure(t *testing.T) {
	w := newTestWriter(&fakeConnectionManager{})

	got := w.estimateGas(context.Background(),
		&fakeGasEstimator{err: errors.New("execution reverted")},
		common.HexToAddress("0x01"), common.HexToAddress("0x02"), nil)
	assert.Equal(t, uint64(fallbackGasLimit), got)
}

// File: internal/contracts/reader.go
package contracts

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/yieldforge/yieldforge/internal/connection"
	"github.com/yieldforge/yieldforge/internal/metrics"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// Reader exposes balance, allowance, maturity and reserve queries. Pure
// display concern: the orchestrator core never depends on it except for
// allowance polling during settle.
type Reader struct {
	connectionManager connection.Manager
	logger            *logrus.Logger
	metrics           *metrics.PrometheusMetrics
}

// NewReader creates a new contract reader
func NewReader(connectionManager connection.Manager) *Reader {
	return &Reader{
		connectionManager: connectionManager,
		logger:            utils.GetLogger(),
	}
}

// SetMetrics attaches Prometheus recorders to the reader.
func (r *Reader) SetMetrics(pm *metrics.PrometheusMetrics) {
	r.metrics = pm
}

// call executes a read-only contract call and unpacks the single result.
func (r *Reader) call(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	client, err := r.connectionManager.GetClientWithContext(ctx)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeConnection, "Failed to get client", err.Error())
	}

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeInternal, "Failed to pack call data", err.Error())
	}

	callStart := time.Now()
	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if r.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		r.metrics.RecordRPCRequest("eth_call", status, time.Since(callStart))
	}
	if err != nil {
		return nil, utils.ClassifyWriteError(err)
	}

	values, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeInternal, "Failed to unpack call result", err.Error())
	}

	return values, nil
}

// BalanceOf returns the token balance of an account
func (r *Reader) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	values, err := r.call(ctx, token, erc20ABI, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

// Allowance returns the amount spender may move on behalf of owner
func (r *Reader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	values, err := r.call(ctx, token, erc20ABI, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

// TokenName returns the token's full name
func (r *Reader) TokenName(ctx context.Context, token common.Address) (string, error) {
	values, err := r.call(ctx, token, erc20ABI, "name")
	if err != nil {
		return "", err
	}
	return values[0].(string), nil
}

// TotalSupply returns the token's total supply
func (r *Reader) TotalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	values, err := r.call(ctx, token, erc20ABI, "totalSupply")
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

// TokenSymbol returns the token's symbol
func (r *Reader) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	values, err := r.call(ctx, token, erc20ABI, "symbol")
	if err != nil {
		return "", err
	}
	return values[0].(string), nil
}

// TokenDecimals returns the token's decimal places
func (r *Reader) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	values, err := r.call(ctx, token, erc20ABI, "decimals")
	if err != nil {
		return 0, err
	}
	return values[0].(uint8), nil
}

// Maturities returns the active maturities of the yield tokenization contract
func (r *Reader) Maturities(ctx context.Context, tokenization common.Address) ([]*big.Int, error) {
	values, err := r.call(ctx, tokenization, yieldTokenizationABI, "getMaturities")
	if err != nil {
		return nil, err
	}
	return values[0].([]*big.Int), nil
}

// MaturityTokens returns the PT and YT token addresses for a maturity
func (r *Reader) MaturityTokens(ctx context.Context, tokenization common.Address, maturity *big.Int) (pt, yt common.Address, err error) {
	ptValues, err := r.call(ctx, tokenization, yieldTokenizationABI, "ptTokens", maturity)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	ytValues, err := r.call(ctx, tokenization, yieldTokenizationABI, "ytTokens", maturity)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return ptValues[0].(common.Address), ytValues[0].(common.Address), nil
}

// StakedBalance returns the staked balance of an account
func (r *Reader) StakedBalance(ctx context.Context, pool, account common.Address) (*big.Int, error) {
	values, err := r.call(ctx, pool, stakingPoolABI, "stakedBalance", account)
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

// YieldRate returns the wrapper's current yield accrual rate
func (r *Reader) YieldRate(ctx context.Context, wrapper common.Address) (*big.Int, error) {
	values, err := r.call(ctx, wrapper, syWrapperABI, "yieldRate")
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

// RewardRate returns the staking pool's current reward rate
func (r *Reader) RewardRate(ctx context.Context, pool common.Address) (*big.Int, error) {
	values, err := r.call(ctx, pool, stakingPoolABI, "rewardRate")
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

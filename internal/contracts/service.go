// File: internal/contracts/service.go
package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/internal/models"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// Service binds the deployed contract addresses to the writer and confirmer,
// exposing confirmed high-level operations. Each call submits the write and
// waits for its receipt so the result carries block number and gas used.
type Service struct {
	Writer    *Writer
	Reader    *Reader
	Confirmer *Confirmer

	BaseToken    common.Address
	SYToken      common.Address
	Wrapper      common.Address
	Tokenization common.Address
	StakingPool  common.Address

	logger *logrus.Logger
}

// NewService creates a new contract service from configured addresses
func NewService(writer *Writer, reader *Reader, confirmer *Confirmer, cfg *config.ContractsConfig) (*Service, error) {
	for name, addr := range map[string]string{
		"base_token":         cfg.BaseToken,
		"sy_token":           cfg.SYToken,
		"sy_wrapper":         cfg.SYWrapper,
		"yield_tokenization": cfg.YieldTokenization,
		"staking_pool":       cfg.StakingPool,
	} {
		if addr != "" && !utils.IsValidAddress(addr) {
			return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Invalid contract address", name+"="+addr)
		}
	}

	return &Service{
		Writer:       writer,
		Reader:       reader,
		Confirmer:    confirmer,
		BaseToken:    common.HexToAddress(cfg.BaseToken),
		SYToken:      common.HexToAddress(cfg.SYToken),
		Wrapper:      common.HexToAddress(cfg.SYWrapper),
		Tokenization: common.HexToAddress(cfg.YieldTokenization),
		StakingPool:  common.HexToAddress(cfg.StakingPool),
		logger:       utils.GetLogger(),
	}, nil
}

// submitAndConfirm submits a write and waits for its receipt.
func (s *Service) submitAndConfirm(ctx context.Context, submit func(context.Context) (common.Hash, error)) (*models.TxResult, error) {
	hash, err := submit(ctx)
	if err != nil {
		return nil, err
	}
	return s.Confirmer.WaitForReceipt(ctx, hash)
}

// Approve grants spender an allowance of amount on token and waits for the
// approval to land.
func (s *Service) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (*models.TxResult, error) {
	return s.submitAndConfirm(ctx, func(ctx context.Context) (common.Hash, error) {
		return s.Writer.Approve(ctx, token, spender, amount)
	})
}

// Wrap converts base tokens to SY
func (s *Service) Wrap(ctx context.Context, amount *big.Int) (*models.TxResult, error) {
	return s.submitAndConfirm(ctx, func(ctx context.Context) (common.Hash, error) {
		return s.Writer.Wrap(ctx, s.Wrapper, amount)
	})
}

// Unwrap converts SY back to base tokens
func (s *Service) Unwrap(ctx context.Context, amount *big.Int) (*models.TxResult, error) {
	return s.submitAndConfirm(ctx, func(ctx context.Context) (common.Hash, error) {
		return s.Writer.Unwrap(ctx, s.Wrapper, amount)
	})
}

// Split divides SY into PT and YT for a maturity
func (s *Service) Split(ctx context.Context, syAmount, maturity *big.Int) (*models.TxResult, error) {
	return s.submitAndConfirm(ctx, func(ctx context.Context) (common.Hash, error) {
		return s.Writer.Split(ctx, s.Tokenization, syAmount, maturity)
	})
}

// Redeem combines PT and YT back into SY for a maturity
func (s *Service) Redeem(ctx context.Context, ptAmount, maturity *big.Int) (*models.TxResult, error) {
	return s.submitAndConfirm(ctx, func(ctx context.Context) (common.Hash, error) {
		return s.Writer.Redeem(ctx, s.Tokenization, ptAmount, maturity)
	})
}

// Stake deposits into the staking pool
func (s *Service) Stake(ctx context.Context, amount *big.Int) (*models.TxResult, error) {
	return s.submitAndConfirm(ctx, func(ctx context.Context) (common.Hash, error) {
		return s.Writer.Stake(ctx, s.StakingPool, amount)
	})
}

// Unstake withdraws from the staking pool
func (s *Service) Unstake(ctx context.Context, amount *big.Int) (*models.TxResult, error) {
	return s.submitAndConfirm(ctx, func(ctx context.Context) (common.Hash, error) {
		return s.Writer.Unstake(ctx, s.StakingPool, amount)
	})
}

// Mint mints test tokens to the signer account
func (s *Service) Mint(ctx context.Context, token common.Address, amount *big.Int) (*models.TxResult, error) {
	return s.submitAndConfirm(ctx, func(ctx context.Context) (common.Hash, error) {
		return s.Writer.Mint(ctx, token, s.Writer.session.Address(), amount)
	})
}

// File: internal/wallet/session.go
package wallet

import (
	"crypto/ecdsa"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// Session is the wallet collaborator gating all state-changing operations.
// A session is connected once a signing key has been loaded; every write
// call must check IsConnected first.
type Session interface {
	IsConnected() bool
	Address() common.Address
	ChainID() *big.Int
	SignTx(tx *types.Transaction) (*types.Transaction, error)
	SignMessage(msg []byte) ([]byte, error)
	Disconnect()
}

// LocalSession implements Session with an in-process private key signer.
type LocalSession struct {
	mu      sync.RWMutex
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	logger  *logrus.Logger
}

// NewLocalSession loads the signing key named by the wallet configuration:
// key_file first, then the private_key_env environment variable.
func NewLocalSession(cfg *config.WalletConfig, chainID *big.Int) (*LocalSession, error) {
	logger := utils.GetLogger()

	keyHex := ""
	if cfg.KeyFile != "" {
		raw, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Failed to read wallet key file", err.Error())
		}
		keyHex = strings.TrimSpace(string(raw))
	} else if cfg.PrivateKeyEnv != "" {
		keyHex = strings.TrimSpace(os.Getenv(cfg.PrivateKeyEnv))
	}

	if keyHex == "" {
		// No key material: a disconnected session. Reads still work, writes
		// fail with NotConnected.
		logger.Warn("No wallet key configured, starting disconnected")
		return &LocalSession{chainID: chainID, logger: logger}, nil
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Invalid wallet private key", err.Error())
	}

	session := &LocalSession{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		logger:  logger,
	}

	logger.Info("Wallet session connected", "address", session.address.Hex())
	return session, nil
}

// IsConnected reports whether a signing key is loaded.
func (s *LocalSession) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != nil
}

// Address returns the signer account address.
func (s *LocalSession) Address() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

// ChainID returns the chain the session signs for.
func (s *LocalSession) ChainID() *big.Int {
	return s.chainID
}

// SignTx signs a transaction with the session key.
func (s *LocalSession) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil, utils.NewAppError(utils.ErrCodeNotConnected, "Wallet session not connected")
	}

	signer := types.LatestSignerForChainID(s.chainID)
	return types.SignTx(tx, signer, s.key)
}

// SignMessage signs an arbitrary message with the standard Ethereum prefix.
func (s *LocalSession) SignMessage(msg []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil, utils.NewAppError(utils.ErrCodeNotConnected, "Wallet session not connected")
	}

	prefixed := crypto.Keccak256(
		[]byte("\x19Ethereum Signed Message:\n"+big.NewInt(int64(len(msg))).String()),
		msg,
	)
	return crypto.Sign(prefixed, s.key)
}

// Disconnect drops the signing key. Subsequent writes fail with NotConnected.
func (s *LocalSession) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.key = nil
	s.address = common.Address{}
	s.logger.Info("Wallet session disconnected")
}

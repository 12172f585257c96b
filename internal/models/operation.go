package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxResult carries the outcome of a confirmed state-changing contract call.
type TxResult struct {
	TxHash      common.Hash `json:"tx_hash"`
	BlockNumber uint64      `json:"block_number"`
	GasUsed     *big.Int    `json:"gas_used"`
}

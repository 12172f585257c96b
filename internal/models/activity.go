package models

import (
	"encoding/json"
	"math/big"
	"time"
)

// ActivityKind defines the kind of a journaled operation
type ActivityKind string

const (
	ActivityKindTransfer ActivityKind = "transfer"
	ActivityKindApproval ActivityKind = "approval"
	ActivityKindWrap     ActivityKind = "wrap"
	ActivityKindSplit    ActivityKind = "split"
	ActivityKindCombine  ActivityKind = "combine"
	ActivityKindStake    ActivityKind = "stake"
	ActivityKindUnstake  ActivityKind = "unstake"
	ActivityKindSwap     ActivityKind = "swap"
	ActivityKindError    ActivityKind = "error"
	ActivityKindInfo     ActivityKind = "info"
)

// ActivityStatus defines the lifecycle state of a journal entry
type ActivityStatus string

const (
	ActivityStatusPending   ActivityStatus = "pending"
	ActivityStatusSuccess   ActivityStatus = "success"
	ActivityStatusFailed    ActivityStatus = "failed"
	ActivityStatusCompleted ActivityStatus = "completed"
)

// Terminal reports whether the status is a terminal lifecycle state.
func (s ActivityStatus) Terminal() bool {
	return s == ActivityStatusSuccess || s == ActivityStatusFailed || s == ActivityStatusCompleted
}

// ActivityEntry represents one journaled user-initiated operation.
// Metadata holds display-only scalars (string, number, bool); it is never
// interpreted by logic.
type ActivityEntry struct {
	ID          string                 `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	Kind        ActivityKind           `json:"kind"`
	Status      ActivityStatus         `json:"status"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	TxHash      string                 `json:"tx_hash,omitempty"`
	BlockNumber uint64                 `json:"block_number,omitempty"`
	GasUsed     *big.Int               `json:"-"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// MarshalJSON renders GasUsed as a base-10 string so big values survive
// JSON number precision.
func (e *ActivityEntry) MarshalJSON() ([]byte, error) {
	type alias ActivityEntry
	var gas string
	if e.GasUsed != nil {
		gas = e.GasUsed.String()
	}
	return json.Marshal(&struct {
		*alias
		GasUsed string `json:"gas_used,omitempty"`
	}{(*alias)(e), gas})
}

// Clone returns a copy of the entry with its own metadata map. GasUsed is
// copied by value so callers cannot mutate the journal's copy.
func (e *ActivityEntry) Clone() *ActivityEntry {
	c := *e
	if e.GasUsed != nil {
		c.GasUsed = new(big.Int).Set(e.GasUsed)
	}
	if e.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

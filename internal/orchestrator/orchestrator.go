// File: internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/internal/metrics"
	"github.com/yieldforge/yieldforge/internal/models"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// State is the per-invocation lifecycle of an approve-then-execute sequence.
type State string

const (
	StateIdle      State = "idle"
	StateApproving State = "approving"
	StateApproved  State = "approved"
	StateExecuting State = "executing"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Request describes one approve-then-execute unit of work. OnExecute is the
// actual write, invoked only after the approval has settled.
type Request struct {
	Kind           models.ActivityKind
	Title          string
	Description    string
	Metadata       map[string]interface{}
	TokenAddress   common.Address
	SpenderAddress common.Address
	Amount         *big.Int
	SkipApproval   bool
	OnExecute      func(ctx context.Context) (*models.TxResult, error)
}

// Approver is the contract-write collaborator granting allowances.
type Approver interface {
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (*models.TxResult, error)
}

// AllowanceReader polls allowance state during settle.
type AllowanceReader interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
}

// WalletSession gates all operations on an active wallet session.
type WalletSession interface {
	IsConnected() bool
	Address() common.Address
}

// ActivityJournal records the lifecycle of orchestrated operations.
type ActivityJournal interface {
	Track(kind models.ActivityKind, title, description string, metadata map[string]interface{}) (string, error)
	RecordSuccess(entryID, txHash string, blockNumber uint64, gasUsed *big.Int)
	RecordFailure(entryID, errorMessage string)
}

// Orchestrator sequences approve -> settle -> execute as one logical unit of
// work, shielding callers from the two-step nature of allowance-based token
// operations. It holds no state across invocations.
type Orchestrator struct {
	config     *config.OrchestratorConfig
	approver   Approver
	allowances AllowanceReader
	session    WalletSession
	journal    ActivityJournal
	metrics    *metrics.Manager
	logger     *logrus.Logger
}

// NewOrchestrator creates a new transaction orchestrator
func NewOrchestrator(
	cfg *config.OrchestratorConfig,
	approver Approver,
	allowances AllowanceReader,
	session WalletSession,
	journal ActivityJournal,
	metricsManager *metrics.Manager,
) *Orchestrator {
	return &Orchestrator{
		config:     cfg,
		approver:   approver,
		allowances: allowances,
		session:    session,
		journal:    journal,
		metrics:    metricsManager,
		logger:     utils.GetLogger(),
	}
}

// Invocation is one run of the approve-then-execute sequence. Each
// invocation owns its own state; nothing is shared between invocations.
type Invocation struct {
	orchestrator *Orchestrator

	mu    sync.RWMutex
	state State
	err   error
}

// NewInvocation prepares a fresh invocation in the idle state.
func (o *Orchestrator) NewInvocation() *Invocation {
	return &Invocation{orchestrator: o, state: StateIdle}
}

// ExecuteWithApproval is the convenience form for callers that do not need
// to observe intermediate state.
func (o *Orchestrator) ExecuteWithApproval(ctx context.Context, req Request) (*models.TxResult, error) {
	return o.NewInvocation().Execute(ctx, req)
}

// State returns the invocation's current lifecycle state.
func (inv *Invocation) State() State {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.state
}

// IsApproving reports whether the approval step is in flight.
func (inv *Invocation) IsApproving() bool {
	return inv.State() == StateApproving
}

// IsExecuting reports whether the execute step is in flight.
func (inv *Invocation) IsExecuting() bool {
	return inv.State() == StateExecuting
}

// IsPending reports whether any step is still in flight. Callers disable
// their triggers while this is true.
func (inv *Invocation) IsPending() bool {
	switch inv.State() {
	case StateApproving, StateApproved, StateExecuting:
		return true
	}
	return false
}

// Err returns the invocation's terminal error, if any.
func (inv *Invocation) Err() error {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.err
}

func (inv *Invocation) setState(s State) {
	inv.mu.Lock()
	inv.state = s
	inv.mu.Unlock()
}

func (inv *Invocation) fail(entryID string, err error) error {
	classified := utils.ClassifyWriteError(err)

	inv.mu.Lock()
	inv.state = StateFailed
	inv.err = classified
	inv.mu.Unlock()

	if entryID != "" {
		inv.orchestrator.journal.RecordFailure(entryID, classified.UserMessage)
	}
	return classified
}

// Execute runs the full sequence: journal a pending entry, approve the
// spender (unless skipped), wait for the allowance to settle, invoke the
// target write, then finalize the journal entry. Any error aborts the
// sequence, resets the in-flight state, and is re-raised classified; the
// caller decides whether to resubmit the whole sequence.
func (inv *Invocation) Execute(ctx context.Context, req Request) (*models.TxResult, error) {
	o := inv.orchestrator
	start := time.Now()

	if !o.session.IsConnected() {
		return nil, inv.fail("", utils.NewAppError(utils.ErrCodeNotConnected, "Wallet session not connected"))
	}

	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, inv.fail("", utils.NewAppError(utils.ErrCodeInvalidAmount,
			"Amount must be a positive integer in the token's smallest unit"))
	}

	entryID, err := o.journal.Track(req.Kind, req.Title, req.Description, req.Metadata)
	if err != nil {
		return nil, inv.fail("", err)
	}

	if !req.SkipApproval {
		inv.setState(StateApproving)
		approvalStart := time.Now()

		o.logger.Info("Approving tokens",
			"token", req.TokenAddress.Hex(),
			"spender", req.SpenderAddress.Hex(),
			"amount", req.Amount.String())

		if _, err := o.approver.Approve(ctx, req.TokenAddress, req.SpenderAddress, req.Amount); err != nil {
			return nil, inv.fail(entryID, err)
		}

		if o.metrics != nil {
			o.metrics.RecordApproval(time.Since(approvalStart))
		}

		inv.setState(StateApproved)

		if err := o.waitForAllowance(ctx, req); err != nil {
			return nil, inv.fail(entryID, err)
		}
	}

	inv.setState(StateExecuting)
	o.logger.Info("Executing operation", "kind", req.Kind, "entry_id", entryID)

	result, err := req.OnExecute(ctx)
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordOperation(string(req.Kind), "failed", time.Since(start))
		}
		return nil, inv.fail(entryID, err)
	}

	inv.setState(StateSucceeded)
	o.journal.RecordSuccess(entryID, result.TxHash.Hex(), result.BlockNumber, result.GasUsed)

	if o.metrics != nil {
		o.metrics.RecordOperation(string(req.Kind), "success", time.Since(start))
	}

	o.logger.Info("Operation succeeded",
		"kind", req.Kind,
		"tx_hash", result.TxHash.Hex(),
		"block", result.BlockNumber)

	return result, nil
}

// waitForAllowance polls allowance state until it covers the requested
// amount, bounded by the configured attempt budget. When polling cannot
// answer (no reader, budget exhausted, read errors) it falls back to the
// fixed settle delay to accommodate indexing lag.
func (o *Orchestrator) waitForAllowance(ctx context.Context, req Request) error {
	if o.allowances == nil || o.config.AllowancePollAttempts <= 0 {
		return o.settleDelay(ctx)
	}

	interval := o.config.AllowancePollInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	owner := o.session.Address()
	for attempt := 0; attempt < o.config.AllowancePollAttempts; attempt++ {
		allowance, err := o.allowances.Allowance(ctx, req.TokenAddress, owner, req.SpenderAddress)
		if err == nil && allowance.Cmp(req.Amount) >= 0 {
			return nil
		}
		if err != nil {
			o.logger.Debug("Allowance poll failed", "attempt", attempt+1, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	o.logger.Warn("Allowance poll budget exhausted, falling back to settle delay")
	return o.settleDelay(ctx)
}

// settleDelay waits the fixed post-approval delay.
func (o *Orchestrator) settleDelay(ctx context.Context) error {
	delay := o.config.SettleDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

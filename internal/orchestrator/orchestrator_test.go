package orchestrator

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/internal/models"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

type fakeApprover struct {
	calls []string
	err   error
}

func (f *fakeApprover) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (*models.TxResult, error) {
	f.calls = append(f.calls, "approve")
	if f.err != nil {
		return nil, f.err
	}
	return &models.TxResult{TxHash: common.HexToHash("0x01")}, nil
}

type fakeAllowances struct {
	granted *big.Int
	polls   int
}

func (f *fakeAllowances) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	f.polls++
	if f.granted == nil {
		return big.NewInt(0), nil
	}
	return f.granted, nil
}

type fakeSession struct {
	connected bool
	address   common.Address
}

func (f *fakeSession) IsConnected() bool      { return f.connected }
func (f *fakeSession) Address() common.Address { return f.address }

type journalCall struct {
	op      string
	entryID string
	message string
	txHash  string
}

type fakeJournal struct {
	nextID string
	calls  []journalCall
}

func (f *fakeJournal) Track(kind models.ActivityKind, title, description string, metadata map[string]interface{}) (string, error) {
	f.calls = append(f.calls, journalCall{op: "track"})
	return f.nextID, nil
}

func (f *fakeJournal) RecordSuccess(entryID, txHash string, blockNumber uint64, gasUsed *big.Int) {
	f.calls = append(f.calls, journalCall{op: "success", entryID: entryID, txHash: txHash})
}

func (f *fakeJournal) RecordFailure(entryID, errorMessage string) {
	f.calls = append(f.calls, journalCall{op: "failure", entryID: entryID, message: errorMessage})
}

func testOrchestratorConfig() *config.OrchestratorConfig {
	return &config.OrchestratorConfig{
		SettleDelay:           5 * time.Millisecond,
		AllowancePollInterval: time.Millisecond,
		AllowancePollAttempts: 3,
	}
}

type fixture struct {
	orchestrator *Orchestrator
	approver     *fakeApprover
	allowances   *fakeAllowances
	journal      *fakeJournal
	session      *fakeSession
}

func newFixture() *fixture {
	approver := &fakeApprover{}
	allowances := &fakeAllowances{granted: big.NewInt(1000)}
	journal := &fakeJournal{nextID: "entry-1"}
	session := &fakeSession{connected: true, address: common.HexToAddress("0x1111111111111111111111111111111111111111")}

	return &fixture{
		orchestrator: NewOrchestrator(testOrchestratorConfig(), approver, allowances, session, journal, nil),
		approver:     approver,
		allowances:   allowances,
		journal:      journal,
		session:      session,
	}
}

func okRequest(executed *[]string) Request {
	return Request{
		Kind:           models.ActivityKindWrap,
		Title:          "Wrap tokens",
		TokenAddress:   common.HexToAddress("0x2222222222222222222222222222222222222222"),
		SpenderAddress: common.HexToAddress("0x3333333333333333333333333333333333333333"),
		Amount:         big.NewInt(100),
		OnExecute: func(ctx context.Context) (*models.TxResult, error) {
			*executed = append(*executed, "execute")
			return &models.TxResult{
				TxHash:      common.HexToHash("0xbeef"),
				BlockNumber: 7,
				GasUsed:     big.NewInt(21000),
			}, nil
		},
	}
}

func TestExecuteWithApprovalHappyPath(t *testing.T) {
	f := newFixture()
	var order []string
	req := okRequest(&order)
	req.OnExecute = func(ctx context.Context) (*models.TxResult, error) {
		order = append(order, "execute")
		return &models.TxResult{TxHash: common.HexToHash("0xbeef"), BlockNumber: 7, GasUsed: big.NewInt(21000)}, nil
	}

	inv := f.orchestrator.NewInvocation()
	result, err := inv.Execute(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, StateSucceeded, inv.State())
	assert.False(t, inv.IsPending())

	// Approval always runs before execution.
	require.Equal(t, []string{"approve"}, f.approver.calls)
	require.Equal(t, []string{"execute"}, order)

	// Journal saw track then success with the receipt fields.
	require.Len(t, f.journal.calls, 2)
	assert.Equal(t, "track", f.journal.calls[0].op)
	assert.Equal(t, "success", f.journal.calls[1].op)
	assert.Equal(t, "entry-1", f.journal.calls[1].entryID)
	assert.Equal(t, common.HexToHash("0xbeef").Hex(), f.journal.calls[1].txHash)
}

func TestExecuteRejectsDisconnectedSession(t *testing.T) {
	f := newFixture()
	f.session.connected = false

	var order []string
	_, err := f.orchestrator.ExecuteWithApproval(context.Background(), okRequest(&order))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrCodeNotConnected))

	// Nothing ran and nothing was journaled.
	assert.Empty(t, f.approver.calls)
	assert.Empty(t, order)
	assert.Empty(t, f.journal.calls)
}

func TestExecuteRejectsNonPositiveAmount(t *testing.T) {
	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		f := newFixture()
		var order []string
		req := okRequest(&order)
		req.Amount = amount

		inv := f.orchestrator.NewInvocation()
		_, err := inv.Execute(context.Background(), req)
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.ErrCodeInvalidAmount))
		assert.Equal(t, StateFailed, inv.State())
		assert.Empty(t, order, "OnExecute must not run for invalid amounts")
		assert.Empty(t, f.journal.calls)
	}
}

func TestApprovalFailureAbortsSequence(t *testing.T) {
	f := newFixture()
	f.approver.err = errors.New("execution reverted: ERC20: insufficient balance")

	var order []string
	inv := f.orchestrator.NewInvocation()
	_, err := inv.Execute(context.Background(), okRequest(&order))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrCodeInsufficientBalance))
	assert.Equal(t, StateFailed, inv.State())
	assert.Empty(t, order, "execution must not run after a failed approval")

	require.Len(t, f.journal.calls, 2)
	assert.Equal(t, "failure", f.journal.calls[1].op)
	assert.Equal(t, "entry-1", f.journal.calls[1].entryID)
	assert.NotEmpty(t, f.journal.calls[1].message)
}

func TestExecutionFailureIsClassifiedAndJournaled(t *testing.T) {
	f := newFixture()
	var order []string
	req := okRequest(&order)
	req.OnExecute = func(ctx context.Context) (*models.TxResult, error) {
		return nil, errors.New("attempting to use a disconnected port object")
	}

	inv := f.orchestrator.NewInvocation()
	_, err := inv.Execute(context.Background(), req)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrCodeWalletDisconnected))
	assert.Equal(t, StateFailed, inv.State())

	require.Len(t, f.journal.calls, 2)
	assert.Equal(t, "failure", f.journal.calls[1].op)
	assert.Contains(t, f.journal.calls[1].message, "Wallet connection lost")
}

func TestSkipApprovalBypassesApprover(t *testing.T) {
	f := newFixture()
	var order []string
	req := okRequest(&order)
	req.SkipApproval = true

	_, err := f.orchestrator.ExecuteWithApproval(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, f.approver.calls)
	assert.Equal(t, []string{"execute"}, order)
}

func TestAllowancePollStopsOnceSatisfied(t *testing.T) {
	f := newFixture()
	f.allowances.granted = big.NewInt(100)

	var order []string
	_, err := f.orchestrator.ExecuteWithApproval(context.Background(), okRequest(&order))
	require.NoError(t, err)
	assert.Equal(t, 1, f.allowances.polls)
}

func TestAllowancePollFallsBackToSettleDelay(t *testing.T) {
	f := newFixture()
	f.allowances.granted = big.NewInt(0)

	var order []string
	start := time.Now()
	_, err := f.orchestrator.ExecuteWithApproval(context.Background(), okRequest(&order))
	require.NoError(t, err)

	// All poll attempts were consumed, then the fixed delay ran and the
	// sequence continued regardless.
	assert.Equal(t, 3, f.allowances.polls)
	assert.Equal(t, []string{"execute"}, order)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestNoAllowanceReaderUsesFixedDelay(t *testing.T) {
	approver := &fakeApprover{}
	journal := &fakeJournal{nextID: "entry-1"}
	session := &fakeSession{connected: true}
	orch := NewOrchestrator(testOrchestratorConfig(), approver, nil, session, journal, nil)

	var order []string
	_, err := orch.ExecuteWithApproval(context.Background(), okRequest(&order))
	require.NoError(t, err)
	assert.Equal(t, []string{"execute"}, order)
}

func TestContextCancellationDuringSettle(t *testing.T) {
	f := newFixture()
	f.allowances.granted = big.NewInt(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var order []string
	inv := f.orchestrator.NewInvocation()
	_, err := inv.Execute(ctx, okRequest(&order))
	require.Error(t, err)
	assert.Equal(t, StateFailed, inv.State())
	assert.Empty(t, order)
}

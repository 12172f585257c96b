// File: internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/yieldforge/yieldforge/internal/models"
	"github.com/yieldforge/yieldforge/internal/orchestrator"
	"github.com/yieldforge/yieldforge/internal/recommender"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// Health Handlers

// healthHandler returns basic health status
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().UTC().Format(time.RFC3339Nano),
		"metrics_enabled": s.config.EnableMetrics,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// detailedHealthHandler returns detailed health status
func (s *HTTPServer) detailedHealthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"components": map[string]interface{}{
			"connection": s.connections.IsConnected(),
			"wallet":     s.session.IsConnected(),
			"journal":    s.journal.Count(),
		},
	}

	s.writeJSON(w, http.StatusOK, health)
}

// statsHandler returns application statistics
func (s *HTTPServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"timestamp":       time.Now(),
		"connection":      s.connections.Stats(),
		"confirmer":       s.contracts.Confirmer.GetStats(),
		"journal_entries": s.journal.Count(),
		"metrics_enabled": s.config.EnableMetrics,
	}

	s.writeJSON(w, http.StatusOK, stats)
}

// Wallet Handlers

// walletHandler returns the signer session state
func (s *HTTPServer) walletHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"connected": s.session.IsConnected(),
	}
	if s.session.IsConnected() {
		resp["address"] = s.session.Address().Hex()
		resp["chain_id"] = s.session.ChainID().String()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// Activity Journal Handlers

// listActivitiesHandler lists journal entries, newest first
func (s *HTTPServer) listActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	var entries []*models.ActivityEntry

	kind := r.URL.Query().Get("kind")
	status := r.URL.Query().Get("status")
	recent := r.URL.Query().Get("recent")

	switch {
	case kind != "":
		entries = s.journal.ListByKind(models.ActivityKind(kind))
	case status != "":
		entries = s.journal.ListByStatus(models.ActivityStatus(status))
	case recent == "true":
		entries = s.journal.ListRecent()
	default:
		entries = s.journal.List()
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit >= 0 && limit < len(entries) {
			entries = entries[:limit]
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"activities": entries,
		"total":      len(entries),
	})
}

// clearActivitiesHandler wipes the journal
func (s *HTTPServer) clearActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.journal.Clear(); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to clear activities", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Activity journal cleared",
	})
}

// Read Handlers

func (s *HTTPServer) parseAddressVar(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	value := mux.Vars(r)[name]
	if !utils.IsValidAddress(value) {
		s.writeError(w, http.StatusBadRequest, "Invalid address: "+value, nil)
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

// tokenInfoHandler returns a token's name, symbol, decimals, and supply
func (s *HTTPServer) tokenInfoHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := s.parseAddressVar(w, r, "token")
	if !ok {
		return
	}

	name, err := s.contracts.Reader.TokenName(r.Context(), token)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	symbol, err := s.contracts.Reader.TokenSymbol(r.Context(), token)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	decimals, err := s.contracts.Reader.TokenDecimals(r.Context(), token)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	supply, err := s.contracts.Reader.TotalSupply(r.Context(), token)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":        token.Hex(),
		"name":         name,
		"symbol":       symbol,
		"decimals":     decimals,
		"total_supply": supply.String(),
	})
}

// balanceHandler returns a token balance, defaulting to the signer account
func (s *HTTPServer) balanceHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := s.parseAddressVar(w, r, "token")
	if !ok {
		return
	}

	account := s.session.Address()
	if acc := r.URL.Query().Get("account"); acc != "" {
		if !utils.IsValidAddress(acc) {
			s.writeError(w, http.StatusBadRequest, "Invalid account address", nil)
			return
		}
		account = common.HexToAddress(acc)
	}

	balance, err := s.contracts.Reader.BalanceOf(r.Context(), token, account)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":   token.Hex(),
		"account": account.Hex(),
		"balance": balance.String(),
	})
}

// allowanceHandler returns the signer's allowance toward a spender
func (s *HTTPServer) allowanceHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := s.parseAddressVar(w, r, "token")
	if !ok {
		return
	}

	spenderStr := r.URL.Query().Get("spender")
	if !utils.IsValidAddress(spenderStr) {
		s.writeError(w, http.StatusBadRequest, "Valid spender address is required", nil)
		return
	}
	spender := common.HexToAddress(spenderStr)

	allowance, err := s.contracts.Reader.Allowance(r.Context(), token, s.session.Address(), spender)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":     token.Hex(),
		"owner":     s.session.Address().Hex(),
		"spender":   spender.Hex(),
		"allowance": allowance.String(),
	})
}

// maturitiesHandler lists tokenization maturities with their PT/YT pairs
func (s *HTTPServer) maturitiesHandler(w http.ResponseWriter, r *http.Request) {
	maturities, err := s.contracts.Reader.Maturities(r.Context(), s.contracts.Tokenization)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	result := make([]map[string]interface{}, 0, len(maturities))
	for _, maturity := range maturities {
		entry := map[string]interface{}{
			"maturity": maturity.String(),
			"date":     time.Unix(maturity.Int64(), 0).UTC().Format(time.RFC3339),
		}
		if pt, yt, err := s.contracts.Reader.MaturityTokens(r.Context(), s.contracts.Tokenization, maturity); err == nil {
			entry["pt_token"] = pt.Hex()
			entry["yt_token"] = yt.Hex()
		}
		result = append(result, entry)
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"maturities": result,
		"total":      len(result),
	})
}

// stakedBalanceHandler returns the signer's staked balance
func (s *HTTPServer) stakedBalanceHandler(w http.ResponseWriter, r *http.Request) {
	balance, err := s.contracts.Reader.StakedBalance(r.Context(), s.contracts.StakingPool, s.session.Address())
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"pool":    s.contracts.StakingPool.Hex(),
		"account": s.session.Address().Hex(),
		"staked":  balance.String(),
	})
}

// ratesHandler returns the protocol's current yield and reward rates
func (s *HTTPServer) ratesHandler(w http.ResponseWriter, r *http.Request) {
	yieldRate, err := s.contracts.Reader.YieldRate(r.Context(), s.contracts.Wrapper)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	rewardRate, err := s.contracts.Reader.RewardRate(r.Context(), s.contracts.StakingPool)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"yield_rate":  yieldRate.String(),
		"reward_rate": rewardRate.String(),
	})
}

// Operation Handlers

// operationRequest is the shared body of all operation endpoints. Amounts
// are decimal strings in the token's smallest unit.
type operationRequest struct {
	Amount   string `json:"amount"`
	Maturity string `json:"maturity,omitempty"`
}

func (s *HTTPServer) decodeOperation(w http.ResponseWriter, r *http.Request) (amount, maturity *big.Int, ok bool) {
	var req operationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, nil, false
	}

	amount, err := utils.ParseAmount(req.Amount)
	if err != nil {
		s.writeAppError(w, err)
		return nil, nil, false
	}

	if req.Maturity != "" {
		maturity, err = utils.ParseAmount(req.Maturity)
		if err != nil {
			s.writeAppError(w, err)
			return nil, nil, false
		}
	}

	return amount, maturity, true
}

func (s *HTTPServer) runOperation(w http.ResponseWriter, r *http.Request, req orchestrator.Request) {
	result, err := s.orchestrator.ExecuteWithApproval(r.Context(), req)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      req.Title + " succeeded",
		"tx_hash":      result.TxHash.Hex(),
		"block_number": result.BlockNumber,
		"gas_used":     result.GasUsed.String(),
	})
}

// wrapHandler wraps base tokens into SY
func (s *HTTPServer) wrapHandler(w http.ResponseWriter, r *http.Request) {
	amount, _, ok := s.decodeOperation(w, r)
	if !ok {
		return
	}

	s.runOperation(w, r, orchestrator.Request{
		Kind:           models.ActivityKindWrap,
		Title:          "Wrap tokens",
		Description:    "Wrap base tokens into SY",
		Metadata:       map[string]interface{}{"amount": amount.String()},
		TokenAddress:   s.contracts.BaseToken,
		SpenderAddress: s.contracts.Wrapper,
		Amount:         amount,
		OnExecute: func(ctx context.Context) (*models.TxResult, error) {
			return s.contracts.Wrap(ctx, amount)
		},
	})
}

// unwrapHandler unwraps SY back into base tokens. Unwrapping burns the
// caller's own SY, so no approval is needed.
func (s *HTTPServer) unwrapHandler(w http.ResponseWriter, r *http.Request) {
	amount, _, ok := s.decodeOperation(w, r)
	if !ok {
		return
	}

	s.runOperation(w, r, orchestrator.Request{
		Kind:         models.ActivityKindWrap,
		Title:        "Unwrap tokens",
		Description:  "Unwrap SY into base tokens",
		Metadata:     map[string]interface{}{"amount": amount.String()},
		Amount:       amount,
		SkipApproval: true,
		OnExecute: func(ctx context.Context) (*models.TxResult, error) {
			return s.contracts.Unwrap(ctx, amount)
		},
	})
}

// splitHandler splits SY into PT and YT for a maturity
func (s *HTTPServer) splitHandler(w http.ResponseWriter, r *http.Request) {
	amount, maturity, ok := s.decodeOperation(w, r)
	if !ok {
		return
	}
	if maturity == nil {
		s.writeError(w, http.StatusBadRequest, "Maturity is required", nil)
		return
	}

	s.runOperation(w, r, orchestrator.Request{
		Kind:        models.ActivityKindSplit,
		Title:       "Split tokens",
		Description: "Split SY into PT and YT",
		Metadata: map[string]interface{}{
			"amount":   amount.String(),
			"maturity": maturity.String(),
		},
		TokenAddress:   s.contracts.SYToken,
		SpenderAddress: s.contracts.Tokenization,
		Amount:         amount,
		OnExecute: func(ctx context.Context) (*models.TxResult, error) {
			return s.contracts.Split(ctx, amount, maturity)
		},
	})
}

// combineHandler redeems PT and YT back into SY for a maturity
func (s *HTTPServer) combineHandler(w http.ResponseWriter, r *http.Request) {
	amount, maturity, ok := s.decodeOperation(w, r)
	if !ok {
		return
	}
	if maturity == nil {
		s.writeError(w, http.StatusBadRequest, "Maturity is required", nil)
		return
	}

	ptToken, err := s.resolvePTToken(r.Context(), maturity)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.runOperation(w, r, orchestrator.Request{
		Kind:        models.ActivityKindCombine,
		Title:       "Combine tokens",
		Description: "Redeem PT and YT back into SY",
		Metadata: map[string]interface{}{
			"amount":   amount.String(),
			"maturity": maturity.String(),
		},
		TokenAddress:   ptToken,
		SpenderAddress: s.contracts.Tokenization,
		Amount:         amount,
		OnExecute: func(ctx context.Context) (*models.TxResult, error) {
			return s.contracts.Redeem(ctx, amount, maturity)
		},
	})
}

// resolvePTToken looks up the PT token address for a maturity.
func (s *HTTPServer) resolvePTToken(ctx context.Context, maturity *big.Int) (common.Address, error) {
	pt, _, err := s.contracts.Reader.MaturityTokens(ctx, s.contracts.Tokenization, maturity)
	if err != nil {
		return common.Address{}, err
	}
	if pt == (common.Address{}) {
		return common.Address{}, utils.NewAppError(utils.ErrCodeNotFound,
			"No PT token for maturity "+maturity.String())
	}
	return pt, nil
}

// stakeHandler deposits base tokens into the staking pool
func (s *HTTPServer) stakeHandler(w http.ResponseWriter, r *http.Request) {
	amount, _, ok := s.decodeOperation(w, r)
	if !ok {
		return
	}

	s.runOperation(w, r, orchestrator.Request{
		Kind:           models.ActivityKindStake,
		Title:          "Stake tokens",
		Description:    "Deposit tokens into the staking pool",
		Metadata:       map[string]interface{}{"amount": amount.String()},
		TokenAddress:   s.contracts.BaseToken,
		SpenderAddress: s.contracts.StakingPool,
		Amount:         amount,
		OnExecute: func(ctx context.Context) (*models.TxResult, error) {
			return s.contracts.Stake(ctx, amount)
		},
	})
}

// unstakeHandler withdraws from the staking pool. Withdrawing releases the
// caller's own stake, so no approval is needed.
func (s *HTTPServer) unstakeHandler(w http.ResponseWriter, r *http.Request) {
	amount, _, ok := s.decodeOperation(w, r)
	if !ok {
		return
	}

	s.runOperation(w, r, orchestrator.Request{
		Kind:         models.ActivityKindUnstake,
		Title:        "Unstake tokens",
		Description:  "Withdraw tokens from the staking pool",
		Metadata:     map[string]interface{}{"amount": amount.String()},
		Amount:       amount,
		SkipApproval: true,
		OnExecute: func(ctx context.Context) (*models.TxResult, error) {
			return s.contracts.Unstake(ctx, amount)
		},
	})
}

// faucetHandler mints test tokens to the signer account
func (s *HTTPServer) faucetHandler(w http.ResponseWriter, r *http.Request) {
	amount, _, ok := s.decodeOperation(w, r)
	if !ok {
		return
	}

	s.runOperation(w, r, orchestrator.Request{
		Kind:         models.ActivityKindInfo,
		Title:        "Mint test tokens",
		Description:  "Mint base tokens from the test faucet",
		Metadata:     map[string]interface{}{"amount": amount.String()},
		Amount:       amount,
		SkipApproval: true,
		OnExecute: func(ctx context.Context) (*models.TxResult, error) {
			return s.contracts.Mint(ctx, s.contracts.BaseToken, amount)
		},
	})
}

// Recommendation Handlers

// recommendPoolsHandler proxies LP pool recommendations
func (s *HTTPServer) recommendPoolsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	amountUSD, err := strconv.ParseFloat(query.Get("amountUsd"), 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "amountUsd must be a number", err)
		return
	}

	horizonMonths, err := strconv.Atoi(query.Get("horizonMonths"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "horizonMonths must be an integer", err)
		return
	}

	req := recommender.LPRecommendationRequest{
		AmountUSD:        amountUSD,
		HorizonMonths:    horizonMonths,
		RiskTolerance:    query.Get("riskTolerance"),
		Chain:            query.Get("chain"),
		Project:          query.Get("project"),
		Search:           query.Get("search"),
		IncludeNarrative: query.Get("includeNarrative") == "true",
	}
	if topN, err := strconv.Atoi(query.Get("topN")); err == nil {
		req.TopN = topN
	}

	result, err := s.recommender.RecommendPools(r.Context(), req)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// optimizeSplitHandler proxies PT/YT split optimization
func (s *HTTPServer) optimizeSplitHandler(w http.ResponseWriter, r *http.Request) {
	var req recommender.OptimizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := s.recommender.OptimizeSplit(r.Context(), req)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

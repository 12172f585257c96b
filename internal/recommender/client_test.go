package recommender

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&config.RecommenderConfig{
		BaseURL:      baseURL,
		DefaultChain: "avalanche",
	}, nil)
}

func TestRecommendPoolsBuildsQueryAndDecodes(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/recommend", r.URL.Path)

		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}

		json.NewEncoder(w).Encode(LPRecommendationResponse{
			UniverseCount: 42,
			TVLFloorUsed:  100000,
			TopN: []RecommendedPool{
				{Project: "trader-joe", Symbol: "USDC-AVAX", APYNow: 12.5},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.RecommendPools(context.Background(), LPRecommendationRequest{
		AmountUSD:     1500,
		HorizonMonths: 6,
		TopN:          3,
	})
	require.NoError(t, err)

	assert.Equal(t, "1500", gotQuery["amountUsd"])
	assert.Equal(t, "6", gotQuery["horizonMonths"])
	assert.Equal(t, "moderate", gotQuery["riskTolerance"], "risk defaults to moderate")
	assert.Equal(t, "avalanche", gotQuery["chain"], "chain defaults from config")
	assert.Equal(t, "3", gotQuery["topN"])
	assert.NotContains(t, gotQuery, "includeNarrative")

	assert.Equal(t, 42, resp.UniverseCount)
	require.Len(t, resp.TopN, 1)
	assert.Equal(t, "trader-joe", resp.TopN[0].Project)
	assert.Equal(t, 12.5, resp.TopN[0].APYNow)
}

func TestRecommendPoolsRejectsNonPositiveAmount(t *testing.T) {
	client := newTestClient("http://unused.invalid")
	_, err := client.RecommendPools(context.Background(), LPRecommendationRequest{AmountUSD: 0})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrCodeInvalidAmount))
}

func TestOptimizeSplitOmitsModerateRiskProfile(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/optimize", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(OptimizationResponse{
			CoinID:           "bitcoin",
			RecommendedSplit: SplitRecommendation{PT: 70, YT: 30},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.OptimizeSplit(context.Background(), OptimizationRequest{
		CoinID:      "bitcoin",
		RiskProfile: RiskModerate,
	})
	require.NoError(t, err)

	assert.Equal(t, "bitcoin", gotBody["coin_id"])
	assert.NotContains(t, gotBody, "risk_profile", "moderate is the service default")
	assert.Equal(t, 70.0, resp.RecommendedSplit.PT)
	assert.Equal(t, 30.0, resp.RecommendedSplit.YT)
}

func TestOptimizeSplitSendsExplicitRiskProfile(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(OptimizationResponse{CoinID: "ethereum"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.OptimizeSplit(context.Background(), OptimizationRequest{
		CoinID:      "ethereum",
		RiskProfile: RiskAggressive,
	})
	require.NoError(t, err)
	assert.Equal(t, "aggressive", gotBody["risk_profile"])
}

func TestOptimizeSplitRequiresCoinID(t *testing.T) {
	client := newTestClient("http://unused.invalid")
	_, err := client.OptimizeSplit(context.Background(), OptimizationRequest{})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrCodeInvalidAmount))
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode string
		wantMsg  string
	}{
		{"model not ready", http.StatusServiceUnavailable, utils.ErrCodeNetworkError, "Model not initialized"},
		{"insufficient data", http.StatusUnprocessableEntity, utils.ErrCodeInvalidAmount, "Insufficient historical data"},
		{"prediction error", http.StatusInternalServerError, utils.ErrCodeUnknown, "Internal prediction error"},
		{"unexpected status", http.StatusBadGateway, utils.ErrCodeUnknown, "Recommendation request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.OptimizeSplit(context.Background(), OptimizationRequest{CoinID: "bitcoin"})
			require.Error(t, err)
			assert.True(t, utils.IsCode(err, tt.wantCode), "got %v", err)

			var appErr *utils.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Contains(t, appErr.Message, tt.wantMsg)
		})
	}
}

func TestUnreachableServiceIsNetworkError(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	_, err := client.OptimizeSplit(context.Background(), OptimizationRequest{CoinID: "bitcoin"})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrCodeNetworkError))
}

// File: internal/recommender/types.go
package recommender

// Risk tolerance levels accepted by the recommendation service.
const (
	RiskConservative = "conservative"
	RiskModerate     = "moderate"
	RiskAggressive   = "aggressive"
)

// LPRecommendationRequest are the query parameters for the LP pool
// recommendation endpoint.
type LPRecommendationRequest struct {
	AmountUSD        float64
	HorizonMonths    int
	RiskTolerance    string
	Chain            string
	TopN             int
	Project          string
	Search           string
	IncludeNarrative bool
}

// PoolRationale explains why a pool was scored the way it was.
type PoolRationale struct {
	TVLScore        float64 `json:"tvlScore"`
	ILPenaltyPctPts float64 `json:"ilPenaltyPctPts"`
	ExposureBias    float64 `json:"exposureBias"`
	Style           string  `json:"style"`
}

// RecommendedPool is one scored LP pool in a recommendation response.
type RecommendedPool struct {
	Pool             string        `json:"pool"`
	Project          string        `json:"project"`
	Chain            string        `json:"chain"`
	Symbol           string        `json:"symbol"`
	URL              string        `json:"url"`
	Category         string        `json:"category"`
	TVLUSD           float64       `json:"tvlUsd"`
	APYNow           float64       `json:"apy_now"`
	APYNetEstimate   float64       `json:"apy_net_estimate"`
	PeriodReturnPct  float64       `json:"periodReturnPct"`
	DownsidePeriod   float64       `json:"downsidePeriod"`
	RiskAdjusted     float64       `json:"RAR"`
	Score            float64       `json:"Score"`
	Confidence       float64       `json:"conf"`
	AmountStartUSD   float64       `json:"amountStartUSD"`
	AmountEndUSD     float64       `json:"amountEndUSD"`
	ProfitUSD        float64       `json:"profitUsd"`
	HorizonMonths    float64       `json:"horizonMonths"`
	Why              PoolRationale `json:"why"`
	Exposure         string        `json:"exposure"`
	ILRisk           string        `json:"ilRisk"`
	UnderlyingTokens []string      `json:"underlyingTokens"`
}

// PoolExplanation is the narrative text for one recommended pool.
type PoolExplanation struct {
	Pool    string `json:"pool"`
	Project string `json:"project"`
	Symbol  string `json:"symbol"`
	Text    string `json:"text"`
}

// LPRecommendationResponse is the recommendation service's answer to a
// pool recommendation query.
type LPRecommendationResponse struct {
	UniverseCount int               `json:"universeCount"`
	TVLFloorUsed  float64           `json:"tvlFloorUsed"`
	TopN          []RecommendedPool `json:"topN"`
	Explanations  []PoolExplanation `json:"explanations"`
}

// OptimizationRequest is the body of a PT/YT split optimization request.
// RiskProfile is omitted for a moderate profile.
type OptimizationRequest struct {
	CoinID      string `json:"coin_id"`
	RiskProfile string `json:"risk_profile,omitempty"`
}

// SplitRecommendation is the recommended PT/YT allocation in percent.
type SplitRecommendation struct {
	PT float64 `json:"PT"`
	YT float64 `json:"YT"`
}

// PricePrediction is the model's short-horizon price forecast backing
// a split recommendation.
type PricePrediction struct {
	Window             int     `json:"window"`
	LastPrice          float64 `json:"last_price"`
	PredictedNextPrice float64 `json:"predicted_next_price"`
}

// OptimizationResponse is the optimizer's answer for one asset.
type OptimizationResponse struct {
	CoinID           string              `json:"coin_id"`
	RiskProfile      string              `json:"risk_profile"`
	RecommendedSplit SplitRecommendation `json:"recommended_split"`
	Prediction       PricePrediction     `json:"prediction"`
}

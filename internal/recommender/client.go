// File: internal/recommender/client.go
package recommender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/internal/metrics"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// Client talks to the remote recommendation service. Requests are not
// retried; callers resubmit on failure.
type Client struct {
	baseURL      string
	defaultChain string
	httpClient   *http.Client
	metrics      *metrics.Manager
	logger       *logrus.Logger
}

// NewClient creates a new recommendation service client
func NewClient(cfg *config.RecommenderConfig, metricsManager *metrics.Manager) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	defaultChain := cfg.DefaultChain
	if defaultChain == "" {
		defaultChain = "avalanche"
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		defaultChain: defaultChain,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		metrics: metricsManager,
		logger:  utils.GetLogger(),
	}
}

// RecommendPools fetches scored LP pool recommendations for the given
// amount, horizon, and risk tolerance.
func (c *Client) RecommendPools(ctx context.Context, req LPRecommendationRequest) (*LPRecommendationResponse, error) {
	if req.AmountUSD <= 0 {
		return nil, utils.NewAppError(utils.ErrCodeInvalidAmount, "Amount must be positive")
	}
	if req.Chain == "" {
		req.Chain = c.defaultChain
	}
	if req.RiskTolerance == "" {
		req.RiskTolerance = RiskModerate
	}

	params := url.Values{}
	params.Set("amountUsd", strconv.FormatFloat(req.AmountUSD, 'f', -1, 64))
	params.Set("horizonMonths", strconv.Itoa(req.HorizonMonths))
	params.Set("riskTolerance", req.RiskTolerance)
	params.Set("chain", req.Chain)
	if req.TopN > 0 {
		params.Set("topN", strconv.Itoa(req.TopN))
	}
	if req.Project != "" {
		params.Set("project", req.Project)
	}
	if req.Search != "" {
		params.Set("search", req.Search)
	}
	if req.IncludeNarrative {
		params.Set("includeNarrative", "true")
	}

	var result LPRecommendationResponse
	if err := c.get(ctx, "/recommend", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// OptimizeSplit requests a PT/YT allocation for one asset. Moderate
// risk is the service default and is sent as an absent risk_profile.
func (c *Client) OptimizeSplit(ctx context.Context, req OptimizationRequest) (*OptimizationResponse, error) {
	if req.CoinID == "" {
		return nil, utils.NewAppError(utils.ErrCodeInvalidAmount, "coin_id is required")
	}
	if req.RiskProfile == RiskModerate {
		req.RiskProfile = ""
	}

	var result OptimizationResponse
	if err := c.post(ctx, "/optimize", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeNetworkError, fmt.Sprintf("Failed to build request: %v", err))
	}

	return c.do(req, path, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeUnknown, fmt.Sprintf("Failed to encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return utils.NewAppError(utils.ErrCodeNetworkError, fmt.Sprintf("Failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out interface{}) error {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(path, "error", start)
		return utils.NewAppError(utils.ErrCodeNetworkError,
			fmt.Sprintf("Recommendation service unreachable: %v", err))
	}
	defer resp.Body.Close()

	c.record(path, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return utils.NewAppError(utils.ErrCodeUnknown,
			fmt.Sprintf("Failed to decode recommendation response: %v", err))
	}
	return nil
}

// statusError maps the service's documented status codes onto user-facing
// errors. Unknown codes fall through to a generic message.
func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	c.logger.Warn("Recommendation service error",
		"status", resp.StatusCode, "body", string(body))

	switch resp.StatusCode {
	case http.StatusServiceUnavailable:
		return utils.NewAppError(utils.ErrCodeNetworkError,
			"Model not initialized. Please try again in a moment.")
	case http.StatusUnprocessableEntity:
		return utils.NewAppError(utils.ErrCodeInvalidAmount,
			"Insufficient historical data to make a prediction.")
	case http.StatusInternalServerError:
		return utils.NewAppError(utils.ErrCodeUnknown,
			"Internal prediction error. Please try again.")
	default:
		return utils.NewAppError(utils.ErrCodeUnknown,
			fmt.Sprintf("Recommendation request failed: %s", resp.Status))
	}
}

func (c *Client) record(endpoint, status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.GetPrometheusMetrics().RecordRecommenderRequest(endpoint, status, time.Since(start))
	}
}

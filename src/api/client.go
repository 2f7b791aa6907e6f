package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"pulse/src/common"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	HistoricalDataPath     = "/api/historical_data"
	VolatilityForecastPath = "/api/volatility_forecast"
	SentimentAnalysisPath  = "/api/sentiment_analysis"

	RequestIDHeaderKey = "X-Request-ID"

	maxBodyBytes = 8 << 20
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// getJSON issues a GET for path and decodes a 2xx body into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	id := uuid.New().String()
	req.Header.Set(RequestIDHeaderKey, id)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body %s: %w", path, err)
	}
	common.Logger.Sugar().Debugf("Client getJSON %s request_id=%s status=%d elapsed=%s", path, id, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		failed := &RequestFailedError{Path: path, StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			failed.Message = eb.Error
		}
		return failed
	}
	if err := json.Unmarshal(body, out); err != nil {
		return malformed(path, "%v", err)
	}
	return nil
}

// Package gateway is the HTTP client of the cache gateway. Client-tier
// processes use it as the secondary tier in front of the data backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"itravel/application/services"
	"itravel/domain/cachekey"
	pkgerrors "itravel/pkg/errors"
)

// maxResponseBytes bounds a gateway response body
const maxResponseBytes = 10 << 20

// Config locates the gateway and tunes its circuit breaker
type Config struct {
	BaseURL string
	Timeout time.Duration

	MaxRequests      uint32
	Interval         time.Duration
	OpenTimeout      time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultConfig returns a 5s request timeout and a breaker that opens at
// 80% failures over at least 5 requests
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:          baseURL,
		Timeout:          5 * time.Second,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		OpenTimeout:      60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Client talks to the gateway's REST API
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a gateway client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cache-gateway",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		breaker: breaker,
		logger:  logger,
	}
}

// State reports the circuit breaker state
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

type travelsResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Cached  bool            `json:"cached"`
	Message string          `json:"message"`
}

// FetchAllTravels reads the gateway's travel list. A 202 is a miss.
func (c *Client) FetchAllTravels(ctx context.Context) (json.RawMessage, bool, error) {
	var body travelsResponse
	status, err := c.do(ctx, http.MethodGet, "/api/travels", nil, &body)
	if err != nil {
		return nil, false, err
	}
	if status == http.StatusAccepted || !body.Success || len(body.Data) == 0 {
		return nil, false, nil
	}
	return body.Data, true, nil
}

// StoreAllTravels pushes a travel list, given as a JSON array, to the gateway
func (c *Client) StoreAllTravels(ctx context.Context, travels json.RawMessage) error {
	if len(travels) == 0 {
		travels = json.RawMessage("[]")
	}
	payload, err := json.Marshal(struct {
		Travels json.RawMessage `json:"travels"`
	}{Travels: travels})
	if err != nil {
		return pkgerrors.NewSerializationError(cachekey.ServerAllTravels, err)
	}

	_, err = c.do(ctx, http.MethodPost, "/api/travels/cache", payload, nil)
	return err
}

// Invalidate asks the gateway to drop a key family
func (c *Client) Invalidate(ctx context.Context, typ cachekey.InvalidationType) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/cache/"+string(typ), nil, nil)
	return err
}

// Stats reads the gateway's server-tier statistics
func (c *Client) Stats(ctx context.Context) (services.GatewayStats, error) {
	var body struct {
		Success bool                  `json:"success"`
		Stats   services.GatewayStats `json:"stats"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/api/cache/stats", nil, &body); err != nil {
		return services.GatewayStats{}, err
	}
	return body.Stats, nil
}

// do runs one request through the breaker. Transport failures and 5xx
// responses count against the breaker; 4xx responses do not.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, out interface{}) (int, error) {
	var clientErr error

	result, err := c.breaker.Execute(func() (interface{}, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return 0, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return resp.StatusCode, err
		}

		if resp.StatusCode >= 500 {
			return resp.StatusCode, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, errorMessage(data))
		}
		if resp.StatusCode >= 400 {
			clientErr = pkgerrors.NewGatewayError(
				fmt.Sprintf("gateway rejected %s %s with %d: %s", method, path, resp.StatusCode, errorMessage(data)), nil)
			return resp.StatusCode, nil
		}

		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				clientErr = pkgerrors.NewSerializationError(path, err)
			}
		}
		return resp.StatusCode, nil
	})
	if err != nil {
		c.logger.Debug("Gateway request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return 0, pkgerrors.NewGatewayError(fmt.Sprintf("gateway %s %s failed", method, path), err)
	}
	if clientErr != nil {
		return result.(int), clientErr
	}
	return result.(int), nil
}

func errorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(data))
}

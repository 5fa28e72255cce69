package melhorenvio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	ProductionURL = "https://melhorenvio.com.br"
	SandboxURL    = "https://sandbox.melhorenvio.com.br"

	calculatePath = "/api/v2/me/shipment/calculate"
)

// Credentials select the account and environment used for a call. They are
// passed per call because the token is admin-managed and may change at runtime.
type Credentials struct {
	Token       string
	Environment string
}

// ClientConfig configures the HTTP client
type ClientConfig struct {
	UserAgent string
	// BaseURL overrides the environment-derived host (tests, proxies).
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	userAgent  string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Melhor Envio shipping-rate client
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		userAgent: cfg.UserAgent,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) hostFor(environment string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	if strings.EqualFold(environment, "production") {
		return ProductionURL
	}
	return SandboxURL
}

// Calculate requests quotes for a single package
func (c *Client) Calculate(ctx context.Context, creds Credentials, req CalculateRequest) ([]Quote, error) {
	url := c.hostFor(creds.Environment) + calculatePath

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+creds.Token)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("melhor envio API error: status %d, body: %s", resp.StatusCode, truncate(body, 512))
	}

	var quotes []Quote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.logger.Debug("Melhor Envio quotes received",
		zap.String("to", req.To.PostalCode),
		zap.Int("quotes", len(quotes)),
	)

	return quotes, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

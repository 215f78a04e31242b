package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/text/language"

	"github.com/sublimeanger/vintifi/pkg/metering"
)

// GatewayConfig holds the AI gateway client configuration.
type GatewayConfig struct {
	BaseURL string        `env:"GATEWAY_BASE_URL,required"`
	APIKey  string        `env:"GATEWAY_API_KEY,required"`
	Timeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"60s"`
}

// GatewayClient is a thin client for the internal AI gateway. It implements
// every upstream interface and classifies provider responses into the
// metering error kinds so callers can pick retry versus hard-fail handling.
type GatewayClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewGatewayClient creates the gateway client.
func NewGatewayClient(cfg GatewayConfig) (*GatewayClient, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, errors.New("gateway base url and api key are required")
	}
	return &GatewayClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *GatewayClient) Check(ctx context.Context, draft ListingDraft) (PriceCheckResult, error) {
	var result PriceCheckResult
	err := c.postJSON(ctx, "/v1/price-check", draft, &result)
	return result, err
}

func (c *GatewayClient) Optimize(ctx context.Context, draft ListingDraft) (OptimizedListing, error) {
	var result OptimizedListing
	err := c.postJSON(ctx, "/v1/listings/optimize", draft, &result)
	return result, err
}

func (c *GatewayClient) Translate(ctx context.Context, draft ListingDraft, targets []language.Tag) ([]TranslatedListing, error) {
	langs := make([]string, len(targets))
	for i, tag := range targets {
		langs[i] = tag.String()
	}

	req := struct {
		Listing ListingDraft `json:"listing"`
		Targets []string     `json:"targets"`
	}{Listing: draft, Targets: langs}

	var result struct {
		Translations []TranslatedListing `json:"translations"`
	}
	if err := c.postJSON(ctx, "/v1/listings/translate", req, &result); err != nil {
		return nil, err
	}
	if len(result.Translations) != len(targets) {
		return nil, fmt.Errorf("%w: expected %d translations, got %d",
			metering.ErrMalformedPayload, len(targets), len(result.Translations))
	}
	return result.Translations, nil
}

func (c *GatewayClient) Enhance(ctx context.Context, imageURL string) ([]byte, string, error) {
	body, err := json.Marshal(struct {
		ImageURL string `json:"image_url"`
	}{ImageURL: imageURL})
	if err != nil {
		return nil, "", err
	}

	resp, err := c.do(ctx, "/v1/photos/enhance", body)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.Join(metering.ErrUpstreamFailure, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image response", metering.ErrMalformedPayload)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}

func (c *GatewayClient) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(metering.ErrMalformedPayload, err)
	}
	return nil
}

func (c *GatewayClient) do(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Join(metering.ErrUpstreamFailure, err)
	}
	return resp, nil
}

// classifyStatus maps gateway response codes onto the metering error kinds.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return metering.ErrRateLimited
	case status == http.StatusPaymentRequired, status == http.StatusForbidden:
		return metering.ErrQuotaExhausted
	default:
		return fmt.Errorf("%w: gateway returned %d", metering.ErrUpstreamFailure, status)
	}
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	apperrors "github.com/utafrali/review-service/pkg/errors"
	"github.com/utafrali/review-service/pkg/httpclient"
)

const serviceName = "catalog"

// Client looks products up in the catalog service.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
}

// NewClient creates a catalog client for baseURL with the default retry and
// circuit breaker settings.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return newClient(baseURL, httpclient.DefaultConfig(), httpclient.DefaultCircuitBreakerConfig(serviceName), logger)
}

func newClient(baseURL string, cfg httpclient.Config, cbCfg httpclient.CircuitBreakerConfig, logger *slog.Logger) *Client {
	return &Client{
		http:    httpclient.NewCircuitBreakerClient(httpclient.New(cfg), cbCfg, logger),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ProductExists reports whether the catalog knows productID. A 404 is
// (false, nil); any other failure is returned as an error.
func (c *Client) ProductExists(ctx context.Context, productID string) (bool, error) {
	resp, err := c.http.Get(ctx, c.baseURL+"/api/v1/products/"+url.PathEscape(productID))
	if err != nil {
		return false, fmt.Errorf("catalog lookup %s: %w", productID, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return true, nil
	}

	err = httpclient.ParseResponseError(resp, serviceName)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("catalog lookup %s: %w", productID, err)
}

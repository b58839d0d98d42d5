package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domainsync "github.com/bloomshop/backend/internal/domain/sync"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 1 * 1024 * 1024 // 1MB max response
	// defaultTimeout bounds one push attempt end to end
	defaultTimeout = 10 * time.Second
)

// Client is the HTTP adapter for the external flower-shop CRM. One
// instance serves all tenants: the per-tenant base URL and token arrive
// with each call in the tenant's sync config.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a CRM HTTP client
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// productUpdateRequest mirrors the CRM's product update wire format
type productUpdateRequest struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Image       string `json:"image,omitempty"`
	IsAvailable bool   `json:"isAvailable"`
	Description string `json:"description,omitempty"`
}

// PushProduct pushes one product mutation to the tenant's CRM. Single
// attempt, no retry: the caller treats failures as best-effort losses.
func (c *Client) PushProduct(ctx context.Context, config *domainsync.TenantSyncConfig, push *domainsync.ProductPush) error {
	body, err := json.Marshal(productUpdateRequest{
		Name:        push.Name,
		Price:       push.Price,
		Image:       push.Image,
		IsAvailable: push.Enabled,
		Description: push.Description,
	})
	if err != nil {
		return fmt.Errorf("crm: failed to marshal request: %w", err)
	}

	url := config.CRMBaseURL + "/products/update-from-railway"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("crm: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if config.CRMToken != "" {
		req.Header.Set("Authorization", "Bearer "+config.CRMToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domainsync.ErrCRMUnavailable, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", domainsync.ErrCRMRequestFailed, resp.StatusCode)
	}
	return nil
}

// Ensure Client implements the CRM gateway port
var _ domainsync.CRMGateway = (*Client)(nil)

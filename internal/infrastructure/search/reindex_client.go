package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	domainsync "github.com/bloomshop/backend/internal/domain/sync"
)

const (
	maxResponseSize = 256 * 1024
	defaultTimeout  = 15 * time.Second
)

// ReindexClient is the HTTP adapter for the visual-search reindex
// worker. The call carries only identifiers: the worker loads the
// product and its images itself before recomputing the embedding.
type ReindexClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewReindexClient creates a reindex worker client
func NewReindexClient(baseURL string) *ReindexClient {
	return &ReindexClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// reindexRequest mirrors the worker's trigger wire format
type reindexRequest struct {
	TenantID  string `json:"tenant_id"`
	ProductID string `json:"product_id"`
}

// ReindexOne asks the worker to recompute one product's embedding
func (c *ReindexClient) ReindexOne(ctx context.Context, tenantID, productID uuid.UUID) error {
	body, err := json.Marshal(reindexRequest{
		TenantID:  tenantID.String(),
		ProductID: productID.String(),
	})
	if err != nil {
		return fmt.Errorf("search: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reindex-one", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("search: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domainsync.ErrReindexUnavailable, err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", domainsync.ErrReindexFailed, resp.StatusCode)
	}
	return nil
}

// Ensure ReindexClient implements the reindex port
var _ domainsync.ReindexClient = (*ReindexClient)(nil)

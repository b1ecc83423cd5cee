// Package feedapi contains vendor API adapters. The standard adapter talks
// to the REST feed contract most of our vendors implement: bearer-token
// auth, page/limit query pagination, and a JSON body that is either a bare
// array of records or a {"data": [...]} envelope.
package feedapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/feedsync/backend/internal/domain/feed"
)

// maxResponseSize is the maximum allowed response size from a vendor API (10MB)
const maxResponseSize = 10 * 1024 * 1024

const (
	// APITypeStandard is the registry key of this adapter.
	APITypeStandard = "standard"

	defaultTimeout = 30 * time.Second
)

// StandardAdapter implements feed.VendorAdapter against the standard
// vendor feed contract. The credential is only ever written to the
// Authorization header; it must never appear in logs or error text.
type StandardAdapter struct {
	baseURL    string
	credential string
	mapping    feed.FieldMapping
	httpClient *http.Client
}

// NewStandardAdapter builds an adapter for one vendor configuration.
func NewStandardAdapter(cfg feed.AdapterConfig) (feed.VendorAdapter, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("%w: base url is required", feed.ErrAdapterInvalidConfig)
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("%w: malformed base url", feed.ErrAdapterInvalidConfig)
	}
	return &StandardAdapter{
		baseURL:    base,
		credential: cfg.Credential,
		mapping:    cfg.Mapping,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Register adds the standard adapter to a registry.
func Register(registry *feed.AdapterRegistry) {
	registry.Register(APITypeStandard, NewStandardAdapter)
}

// APIType returns the registry key of this adapter.
func (a *StandardAdapter) APIType() string {
	return APITypeStandard
}

// FetchPage retrieves one page of products from GET {base}/products.
func (a *StandardAdapter) FetchPage(ctx context.Context, page, limit int) ([]feed.RawRecord, error) {
	if page < 1 {
		page = 1
	}
	endpoint := a.baseURL + "/products?" + url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}.Encode()

	body, err := a.doRequest(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}
	return records, nil
}

// Normalize maps a raw record into a canonical product.
func (a *StandardAdapter) Normalize(record feed.RawRecord) (*feed.CanonicalProduct, bool) {
	return feed.NormalizeRecord(record, a.mapping)
}

// TestConnection probes GET {base}/ping with a short deadline.
func (a *StandardAdapter) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := a.doRequest(ctx, a.baseURL+"/ping")
	return err == nil
}

// doRequest performs an authenticated GET and classifies HTTP failures
// into the feed error taxonomy. Error text carries only the status code,
// never headers or the credential.
func (a *StandardAdapter) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("feedapi: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.credential != "" {
		req.Header.Set("Authorization", "Bearer "+a.credential)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: network failure", feed.ErrFeedUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("feedapi: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP 429", feed.ErrFeedRateLimited)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", feed.ErrFeedUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", feed.ErrFeedAuthFailed, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", feed.ErrFeedRequestRejected, resp.StatusCode)
	}

	return body, nil
}

// decodeRecords accepts either a bare JSON array of records or an object
// with a "data" array.
func decodeRecords(body []byte) ([]feed.RawRecord, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var records []feed.RawRecord
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", feed.ErrFeedInvalidResponse, err)
		}
		return records, nil
	}

	var envelope struct {
		Data []feed.RawRecord `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", feed.ErrFeedInvalidResponse, err)
	}
	return envelope.Data, nil
}

var _ feed.VendorAdapter = (*StandardAdapter)(nil)

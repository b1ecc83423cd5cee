package feedapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedsync/backend/internal/domain/feed"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) feed.VendorAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewStandardAdapter(feed.AdapterConfig{
		BaseURL:    server.URL,
		Credential: "secret-token",
	})
	require.NoError(t, err)
	return adapter
}

func TestNewStandardAdapter_RequiresBaseURL(t *testing.T) {
	_, err := NewStandardAdapter(feed.AdapterConfig{})
	assert.ErrorIs(t, err, feed.ErrAdapterInvalidConfig)
}

func TestFetchPage_EnvelopeBody(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[{"id":"42","title":"Widget","price":9.99}]}`))
	})

	records, err := adapter.FetchPage(context.Background(), 2, 50)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "42", records[0]["id"])
}

func TestFetchPage_BareArrayBody(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"1"},{"id":"2"}]`))
	})

	records, err := adapter.FetchPage(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFetchPage_EmptyData(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})

	records, err := adapter.FetchPage(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchPage_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, feed.ErrFeedRateLimited},
		{"server error", http.StatusBadGateway, feed.ErrFeedUnavailable},
		{"unauthorized", http.StatusUnauthorized, feed.ErrFeedAuthFailed},
		{"forbidden", http.StatusForbidden, feed.ErrFeedAuthFailed},
		{"bad request", http.StatusBadRequest, feed.ErrFeedRequestRejected},
		{"not found", http.StatusNotFound, feed.ErrFeedRequestRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := adapter.FetchPage(context.Background(), 1, 50)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchPage_NetworkErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	adapter, err := NewStandardAdapter(feed.AdapterConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = adapter.FetchPage(context.Background(), 1, 50)
	assert.ErrorIs(t, err, feed.ErrFeedUnavailable)
	assert.True(t, feed.IsRetryable(err))
}

func TestFetchPage_ErrorNeverContainsCredential(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := adapter.FetchPage(context.Background(), 1, 50)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestFetchPage_MalformedJSON(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{{{`))
	})

	_, err := adapter.FetchPage(context.Background(), 1, 50)
	assert.ErrorIs(t, err, feed.ErrFeedInvalidResponse)
	assert.False(t, feed.IsRetryable(err))
}

func TestTestConnection(t *testing.T) {
	pinged := false
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			pinged = true
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	assert.True(t, adapter.TestConnection(context.Background()))
	assert.True(t, pinged)
}

func TestTestConnection_Failure(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.False(t, adapter.TestConnection(context.Background()))
}

package providerapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/infrastructure/transport"
)

const servicesPayload = `{"data":[{"service":"9","name":"Instagram Followers","category":"Instagram","rate":"0.90","min":10,"max":5000,"refill":"1"}]}`

func fastClient(opts ...ClientOption) *Client {
	base := []ClientOption{WithRetryConfig(transport.RetryConfig{MaxAttempts: 1, BaseDelay: 0})}
	return NewClient(transport.NewClient(), append(base, opts...)...)
}

func fixtureProvider(t *testing.T, apiURL string) *provider.Provider {
	t.Helper()
	p, err := provider.NewProvider("upstream", apiURL, "secret")
	require.NoError(t, err)
	return p
}

func TestFetchServices_PreferredVerbSucceeds(t *testing.T) {
	var postHits, getHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			postHits.Add(1)
		} else {
			getHits.Add(1)
		}
		_, _ = w.Write([]byte(servicesPayload))
	}))
	defer server.Close()

	client := fastClient()
	services, err := client.FetchServices(context.Background(), fixtureProvider(t, server.URL))
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "9", services[0].ServiceID)
	assert.True(t, services[0].Refill)
	assert.Equal(t, int32(1), postHits.Load())
	assert.Equal(t, int32(0), getHits.Load(), "no fallback when the preferred verb works")
}

func TestFetchServices_FallbackOnTransportFailure(t *testing.T) {
	var postHits, getHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			postHits.Add(1)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		getHits.Add(1)
		_, _ = w.Write([]byte(servicesPayload))
	}))
	defer server.Close()

	client := NewClient(transport.NewClient(),
		WithRetryConfig(transport.RetryConfig{MaxAttempts: 2, BaseDelay: 0}))
	services, err := client.FetchServices(context.Background(), fixtureProvider(t, server.URL))
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, int32(2), postHits.Load(), "the failing verb is retried before falling back")
	assert.Equal(t, int32(1), getHits.Load())
}

func TestFetchServices_FallbackOnUnparseableBody(t *testing.T) {
	var postHits, getHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			postHits.Add(1)
			_, _ = w.Write([]byte("<html>login page</html>"))
			return
		}
		getHits.Add(1)
		_, _ = w.Write([]byte(servicesPayload))
	}))
	defer server.Close()

	client := NewClient(transport.NewClient(),
		WithRetryConfig(transport.RetryConfig{MaxAttempts: 3, BaseDelay: 0}))
	services, err := client.FetchServices(context.Background(), fixtureProvider(t, server.URL))
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, int32(1), postHits.Load(), "a parse failure is never retried on the same verb")
	assert.Equal(t, int32(1), getHits.Load())
}

func TestFetchServices_GetPreferredFallsBackToPost(t *testing.T) {
	var order []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.Method)
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(servicesPayload))
	}))
	defer server.Close()

	p := fixtureProvider(t, server.URL)
	p.Method = provider.HTTPMethodGet

	client := fastClient()
	_, err := client.FetchServices(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"GET", "POST"}, order)
}

func TestFetchServices_BothVerbsExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := fastClient()
	_, err := client.FetchServices(context.Background(), fixtureProvider(t, server.URL))
	require.ErrorIs(t, err, provider.ErrFetchFailed)
}

func TestFetchCategories_AggregatesWithoutDedicatedEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"service":"1","category":"TikTok","rate":1},
			{"service":"2","category":"Instagram","rate":1},
			{"service":"3","category":"Instagram","rate":1}
		]`))
	}))
	defer server.Close()

	client := fastClient()
	categories, err := client.FetchCategories(context.Background(), fixtureProvider(t, server.URL))
	require.NoError(t, err)
	assert.Equal(t, []provider.CategorySummary{
		{Name: "Instagram", ServiceCount: 2},
		{Name: "TikTok", ServiceCount: 1},
	}, categories)
}

func TestFetchCategories_PrefersDedicatedEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/categories" {
			_, _ = w.Write([]byte(`["Instagram","TikTok"]`))
			return
		}
		t.Errorf("unexpected path %s", r.URL.Path)
	}))
	defer server.Close()

	p := fixtureProvider(t, server.URL)
	p.Endpoints = provider.StringMap{"categories": "/categories"}

	client := fastClient()
	categories, err := client.FetchCategories(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, categories, 2)
}

func TestOrderStatuses_BatchedIDs(t *testing.T) {
	var gotOrders string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotOrders = r.PostFormValue("orders")
		_, _ = w.Write([]byte(`{"101":{"status":"completed"},"102":{"status":"partial","remains":40}}`))
	}))
	defer server.Close()

	client := fastClient()
	statuses, err := client.OrderStatuses(context.Background(), fixtureProvider(t, server.URL), []string{"101", "102"})
	require.NoError(t, err)
	assert.Equal(t, "101,102", gotOrders)
	assert.Equal(t, provider.OrderStatusCompleted, statuses["101"].Status)
	assert.Equal(t, 40, statuses["102"].Remains)
}

func TestOrderStatuses_EmptyBatchSkipsCall(t *testing.T) {
	client := fastClient()
	statuses, err := client.OrderStatuses(context.Background(), fixtureProvider(t, "http://127.0.0.1:1"), nil)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestPlaceOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "add", r.PostFormValue("action"))
		assert.Equal(t, "9", r.PostFormValue("service"))
		assert.Equal(t, "500", r.PostFormValue("quantity"))
		_, _ = w.Write([]byte(`{"order":31337}`))
	}))
	defer server.Close()

	client := fastClient()
	id, err := client.PlaceOrder(context.Background(), fixtureProvider(t, server.URL), "9", "https://insta.example/p/1", 500)
	require.NoError(t, err)
	assert.Equal(t, "31337", id)
}

func TestPlaceOrder_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"not enough funds"}`))
	}))
	defer server.Close()

	client := fastClient()
	_, err := client.PlaceOrder(context.Background(), fixtureProvider(t, server.URL), "9", "link", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough funds")
}

func TestCancelOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cancel", r.PostFormValue("action"))
		assert.Equal(t, "31337", r.PostFormValue("order"))
		_, _ = w.Write([]byte(`{"cancel":"ok"}`))
	}))
	defer server.Close()

	client := fastClient()
	err := client.CancelOrder(context.Background(), fixtureProvider(t, server.URL), "31337")
	require.NoError(t, err)
}

func TestProbe_SingleAttempt(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(transport.NewClient(),
		WithRetryConfig(transport.RetryConfig{MaxAttempts: 3, BaseDelay: 0}))
	err := client.Probe(context.Background(), fixtureProvider(t, server.URL))
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "probes never retry and never fall back")
}

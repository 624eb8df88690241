package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient()
	client.BaseURL = srv.URL
	return client
}

func writeBody(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestLoginStoresToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body["email"])

		writeBody(t, w, AuthResponse{Token: "tok", User: User{ID: 1, Email: "ana@example.com", Role: RoleUser}})
	})

	resp, err := client.Login(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "tok", client.AccessToken)
}

func TestLoginMissingToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(t, w, map[string]any{"user": map[string]any{"id": 1}})
	})

	_, err := client.Login(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing token")
}

func TestBearerTokenSent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		writeBody(t, w, []User{{ID: 1}})
	})
	client.AccessToken = "abc"

	users, err := client.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUnauthorizedTriggersHook(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "token expired", status)
		})
		var calls int
		client.OnUnauthorized = func() { calls++ }

		_, err := client.ListRents(context.Background(), 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnauthorized))
		assert.Equal(t, 1, calls)

		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, status, apiErr.StatusCode)
		assert.Equal(t, "token expired", apiErr.Body)
	}
}

func TestServerErrorIsNotUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client.OnUnauthorized = func() { t.Fatal("hook must not run for 500") }

	_, err := client.ListTools(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestCheckAvailabilityQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tools/7/check-availability", r.URL.Path)
		assert.Equal(t, "2025-01-10", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2025-01-13", r.URL.Query().Get("endDate"))
		writeBody(t, w, AvailabilityResponse{Available: true})
	})

	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	ok, err := client.CheckAvailability(context.Background(), 7, start, end)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListRentsToolFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("toolId"))
		writeBody(t, w, []map[string]any{
			{"id": 1, "toolId": 5, "status": "APPROVED", "startDate": "2025-01-10", "endDate": "2025-01-13"},
			{"id": 2, "tool": map[string]any{"id": 5, "name": "Serra"}, "status": "PENDING", "startDate": "2025-02-01", "endDate": "2025-02-02"},
		})
	})

	rents, err := client.ListRents(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rents, 2)
	assert.Equal(t, int64(5), rents[0].ToolRef())
	assert.Equal(t, int64(5), rents[1].ToolRef())
	assert.Equal(t, "Serra", rents[1].ToolName())
}

func TestCreateRentRequiresID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(t, w, map[string]any{"status": "PENDING"})
	})

	_, err := client.CreateRent(context.Background(), RentalInput{ToolID: 1})
	require.Error(t, err)
}

func TestPayPalOrderFlow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/paypal/orders":
			assert.Equal(t, "req-1", r.Header.Get("PayPal-Request-Id"))
			writeBody(t, w, PayPalOrder{
				ID:     "ORDER1",
				Status: "CREATED",
				Links: []PayPalLink{
					{Href: "https://paypal.test/self", Rel: "self"},
					{Href: "https://paypal.test/approve", Rel: "approve"},
				},
			})
		case "/api/paypal/orders/ORDER1/capture":
			writeBody(t, w, map[string]string{"status": PayPalCompleted})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	order, err := client.CreatePayPalOrder(context.Background(), PayPalOrderRequest{ToolID: 1, Amount: "30.00", Currency: "EUR"}, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "https://paypal.test/approve", order.ApprovalURL())

	captured, err := client.CapturePayPalOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORDER1", captured.ID)
	assert.Equal(t, PayPalCompleted, captured.Status)
}

func TestToolCacheWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.Method {
		case http.MethodGet:
			writeBody(t, w, []Tool{{ID: 1, Name: "Serra circular", DailyPrice: 12.5}})
		case http.MethodPost:
			writeBody(t, w, Tool{ID: 2, Name: "Berbequim"})
		}
	})
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	client.UseRedisCache(rdb, time.Minute)

	ctx := context.Background()
	first, err := client.ListTools(ctx)
	require.NoError(t, err)
	second, err := client.ListTools(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, mr.Exists(toolsCacheKey))

	_, err = client.CreateTool(ctx, ToolInput{Name: "Berbequim"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(toolsCacheKey))

	_, err = client.ListTools(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestCheckAvailabilityIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeBody(t, w, AvailabilityResponse{Available: true})
	})
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	client.UseRedisCache(rdb, time.Minute)

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		_, err := client.CheckAvailability(context.Background(), 1, day, day)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), hits.Load())
}

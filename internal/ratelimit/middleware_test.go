package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHandlerMiddlewareEnforcesLimit(t *testing.T) {
	_, client := newRedis(t)

	var limitedKeys []string
	handler := Handler{
		Limiter:   Limiter{Client: client, Prefix: "ratelimit:"},
		Config:    Config{Key: func(*http.Request) string { return "static" }, Window: time.Minute, Max: 1},
		OnLimited: func(key string) { limitedKeys = append(limitedKeys, key) },
	}
	counted := handler.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases/discount-preview", nil)
	rr1 := httptest.NewRecorder()
	counted.ServeHTTP(rr1, req.Clone(req.Context()))
	require.Equal(t, http.StatusOK, rr1.Code)

	rr2 := httptest.NewRecorder()
	counted.ServeHTTP(rr2, req.Clone(req.Context()))
	require.Equal(t, http.StatusTooManyRequests, rr2.Code)
	require.Equal(t, "1", rr2.Header().Get("X-RateLimit-Limit"))
	require.NotEmpty(t, rr2.Header().Get("Retry-After"))
	require.Contains(t, rr2.Body.String(), "RATE_LIMITED")
	require.Equal(t, []string{"static"}, limitedKeys)
}

func TestHandlerMiddlewareOnError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", MaxRetries: -1})
	defer func() { _ = client.Close() }()

	var got error
	handler := Handler{
		Limiter: Limiter{Client: client, Prefix: "ratelimit:"},
		Config:  Config{Key: func(*http.Request) string { return "err" }, Window: time.Second, Max: 1},
		OnError: func(err error) { got = err },
	}

	rr := httptest.NewRecorder()
	handler.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Error(t, got)
}

func TestSupplierKey(t *testing.T) {
	r := chi.NewRouter()
	var key string
	r.Get("/suppliers/{supplierID}/discounts", func(w http.ResponseWriter, r *http.Request) {
		key = SupplierKey(r)
	})
	req := httptest.NewRequest(http.MethodGet, "/suppliers/s-1/discounts", nil)
	req.RemoteAddr = "10.0.0.7:5000"
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "ip:10.0.0.7:supplier:s-1", key)

	plain := httptest.NewRequest(http.MethodGet, "/x", nil)
	plain.RemoteAddr = "10.0.0.8:5000"
	require.Equal(t, "ip:10.0.0.8", SupplierKey(plain))
}

func TestFixedWindow(t *testing.T) {
	mw, err := FixedWindow(memory.NewStore(), "2-M", func(*http.Request) string { return "admin" }, nil)
	require.NoError(t, err)
	h := mw(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/discounts/1", nil))
		codes = append(codes, rr.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestFixedWindowRejectsBadRate(t *testing.T) {
	_, err := FixedWindow(memory.NewStore(), "lots", nil, nil)
	require.Error(t, err)
}

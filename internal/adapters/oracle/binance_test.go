package oracle_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emarden/agentarena/internal/adapters/oracle"
	"github.com/emarden/agentarena/internal/domain"
)

func klineBody(open string) string {
	// Positional kline array: openTime, open, high, low, close, volume, ...
	return fmt.Sprintf(`[[1700000000000, "%s", "0", "0", "0", "0"]]`, open)
}

func TestCurrentPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `{"symbol":"BTCUSDT","price":"50123.45"}`)
	}))
	defer srv.Close()

	client := oracle.NewClient(srv.URL)
	price, err := client.CurrentPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.InDelta(t, 50123.45, price, 0.001)
}

func TestCurrentPrice_GarbageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"price":"not-a-number"}`)
	}))
	defer srv.Close()

	client := oracle.NewClient(srv.URL)
	_, err := client.CurrentPrice(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOracleUnavailable)
}

func TestSettlementPrices(t *testing.T) {
	comp := domain.Competition{
		Slug:       "btcusdt-test",
		Market:     "BTCUSDT",
		StartTime:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		SettleTime: time.Date(2026, 3, 1, 12, 40, 0, 0, time.UTC),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/klines", r.URL.Path)
		start := r.URL.Query().Get("startTime")
		if start == fmt.Sprint(comp.StartTime.UnixMilli()) {
			fmt.Fprint(w, klineBody("50000.00"))
			return
		}
		fmt.Fprint(w, klineBody("51000.00"))
	}))
	defer srv.Close()

	client := oracle.NewClient(srv.URL)
	priceStart, priceEnd, err := client.SettlementPrices(context.Background(), comp)
	require.NoError(t, err)
	assert.InDelta(t, 50000, priceStart, 0.001)
	assert.InDelta(t, 51000, priceEnd, 0.001)

	outcome, err := client.Outcome(context.Background(), comp)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ActionLong), outcome)
}

func TestSettlementPrices_EmptyKlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	client := oracle.NewClient(srv.URL)
	_, _, err := client.SettlementPrices(context.Background(), domain.Competition{Market: "BTCUSDT"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOracleUnavailable)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"price":"42000.00"}`)
	}))
	defer srv.Close()

	client := oracle.NewClient(srv.URL)
	price, err := client.CurrentPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.InDelta(t, 42000, price, 0.001)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":-1121,"msg":"Invalid symbol."}`)
	}))
	defer srv.Close()

	client := oracle.NewClient(srv.URL)
	_, err := client.CurrentPrice(context.Background(), "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOracleUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

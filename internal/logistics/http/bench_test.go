package logistichttp

import (
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func seedOrders(tb testing.TB, ts *testServer, n int) {
	tb.Helper()
	for range n {
		rr := ts.do(tb, http.MethodPost, "/orders", map[string]any{
			"supplier":  "PTT",
			"branchIds": []int64{1},
			"items":     []map[string]any{{"product": "Diesel B7", "quantity": 5000, "unitPrice": 30}},
		})
		require.Equal(tb, http.StatusCreated, rr.Code, rr.Body.String())
	}
}

func TestListOrdersLatencyTarget(t *testing.T) {
	ts := newTestServer(t, 0)
	seedOrders(t, ts, 200)

	samples := make([]time.Duration, 0, 50)
	for range 50 {
		start := time.Now()
		rr := ts.do(t, http.MethodGet, "/orders?branch=1&perPage=50", nil)
		samples = append(samples, time.Since(start))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	if p95 := percentile95(samples); p95 > 250*time.Millisecond {
		t.Fatalf("list orders latency regression: p95=%s", p95)
	}
}

func BenchmarkListOrders(b *testing.B) {
	ts := newTestServer(b, 0)
	seedOrders(b, ts, 200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := ts.do(b, http.MethodGet, "/orders?branch=1&perPage=50", nil)
		if rr.Code != http.StatusOK {
			b.Fatalf("status %d", rr.Code)
		}
	}
}

func BenchmarkCreateOrder(b *testing.B) {
	ts := newTestServer(b, 0)
	b.ResetTimer()
	seedOrders(b, ts, b.N)
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return sorted[int(float64(len(sorted)-1)*0.95)]
}

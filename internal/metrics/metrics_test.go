package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(operations.WithLabelValues("invest", "rejected"))
	RecordOperation("invest", false)
	assert.Equal(t, before+1, testutil.ToFloat64(operations.WithLabelValues("invest", "rejected")))
}

func TestClientGauge(t *testing.T) {
	before := testutil.ToFloat64(wsClients)
	ClientConnected()
	ClientConnected()
	ClientDisconnected()
	assert.Equal(t, before+1, testutil.ToFloat64(wsClients))
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Instrument)
	r.Post("/api/releases/{id}/invest", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/releases/101/invest", nil))
	require.Equal(t, http.StatusPaymentRequired, rr.Code)

	got := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodPost, "/api/releases/{id}/invest", "402"))
	assert.Equal(t, float64(1), got)
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordTick(101)
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "boutique_playback_ticks_total")
}

func TestInstrumentKeepsHijacker(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Instrument)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "no hijacker", http.StatusInternalServerError)
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 101 Switching Protocols\r\nUpgrade: test\r\nConnection: Upgrade\r\n\r\n")
		_ = buf.Flush()
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/ws", nil)
	require.NoError(t, err)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "test")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/ws", "101")) == 1
	}, time.Second, 5*time.Millisecond)
}

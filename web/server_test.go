package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackconf-go/config"
	"trackconf-go/confidence"
)

func newTestServer(t *testing.T, base *config.Tuning) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(base)
	go s.Hub.Run()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Hub.Close()
	})
	return s, ts
}

func postScore(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url+"/api/score", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestScoreEndpoint(t *testing.T) {
	_, ts := newTestServer(t, &config.Tuning{MinStationsHigh: config.PtrInt(4)})

	var resp scoreResponse
	r, err := http.Post(ts.URL+"/api/score", "application/json", strings.NewReader(
		`{"track_id":"t1","points":[{"x":0,"y":0,"stations":4,"std":0},{"x":5,"y":5,"stations":3,"std":10}]}`))
	require.NoError(t, err)
	defer r.Body.Close()
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.NoError(t, json.NewDecoder(r.Body).Decode(&resp))

	assert.Equal(t, []int{2, 2}, resp.Levels)
	assert.Equal(t, levelCounts{High: 2}, resp.Counts)
	assert.Equal(t, "t1", resp.TrackID)
	assert.Len(t, resp.RunID, 36)
	assert.Equal(t, confidence.DefaultConnectDist, resp.Params.ConnectDist)
}

func TestScoreEndpointParamsOverride(t *testing.T) {
	_, ts := newTestServer(t, nil)

	// Raising the high threshold leaves the first fix moderate.
	resp, out := postScore(t, ts.URL,
		`{"points":[{"x":0,"y":0,"stations":4,"std":0}],"params":{"min_stations_high":6}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{1.0}, out["levels"])
}

func TestScoreEndpointEmpty(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, out := postScore(t, ts.URL, `{"points":[]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, out["levels"])
}

func TestScoreEndpointErrors(t *testing.T) {
	_, ts := newTestServer(t, nil)

	tests := []struct {
		name, body string
	}{
		{"bad json", `{"points":`},
		{"unknown field", `{"pts":[]}`},
		{"bad params", `{"points":[],"params":{"std_limit":-1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := postScore(t, ts.URL, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}

	r, err := http.Get(ts.URL + "/api/score")
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, r.StatusCode)
}

func TestParamsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, &config.Tuning{StdLimit: config.PtrFloat64(55)})

	r, err := http.Get(ts.URL + "/api/params")
	require.NoError(t, err)
	defer r.Body.Close()
	var p confidence.Params
	require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
	assert.Equal(t, 55.0, p.StdLimit)
	assert.Equal(t, config.DefaultMinStationsHigh, p.MinStationsHigh)
}

func TestWebsocketBroadcast(t *testing.T) {
	s, ts := newTestServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, _ := postScore(t, ts.URL, `{"track_id":"live","points":[{"x":0,"y":0,"stations":9,"std":0}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var got scoreResponse
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "live", got.TrackID)
	assert.Equal(t, []int{2}, got.Levels)
}

func TestStartStops(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(nil)
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, addr) }()

	require.Eventually(t, func() bool {
		r, err := http.Get("http://" + addr + "/api/params")
		if err != nil {
			return false
		}
		r.Body.Close()
		return r.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestHubCloseTwice(t *testing.T) {
	h := NewHub()
	go h.Run()
	h.Close()
	assert.NotPanics(t, h.Close)
	assert.Equal(t, 0, h.Clients())
}

package transmission

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	Method    string                 `json:"method"`
	Arguments map[string]interface{} `json:"arguments"`
}

// newServer fakes the rpc endpoint including the session id handshake.
func newServer(t *testing.T, handler func(req rpcRequest) (int, interface{})) (*httptest.Server, *int32) {
	t.Helper()

	var conflicts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultRPCPath, r.URL.Path)

		if r.Header.Get(SessionIDHeader) != "session-1" {
			atomic.AddInt32(&conflicts, 1)
			w.Header().Set(SessionIDHeader, "session-1")
			w.WriteHeader(http.StatusConflict)
			return
		}

		var req rpcRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, body := handler(req)
		w.WriteHeader(status)
		if body != nil {
			assert.NoError(t, json.NewEncoder(w).Encode(body))
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &conflicts
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	c, err := New(Config{URL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		port     int
		expected string
		wantErr  bool
	}{
		{name: "host_only", address: "localhost", port: 9091, expected: "http://localhost:9091/transmission/rpc"},
		{name: "scheme", address: "https://seedbox.lan", port: 443, expected: "https://seedbox.lan:443/transmission/rpc"},
		{name: "explicit_port_wins", address: "seedbox.lan:8080", port: 9091, expected: "http://seedbox.lan:8080/transmission/rpc"},
		{name: "custom_path", address: "http://seedbox.lan/rpc", port: 9091, expected: "http://seedbox.lan:9091/rpc"},
		{name: "ipv6", address: "[::1]", port: 9091, expected: "http://[::1]:9091/transmission/rpc"},
		{name: "empty", address: "", port: 9091, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Endpoint(tt.address, tt.port)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestClient_SessionHandshake(t *testing.T) {
	srv, conflicts := newServer(t, func(req rpcRequest) (int, interface{}) {
		assert.Equal(t, "session-get", req.Method)
		return http.StatusOK, map[string]interface{}{
			"result":    "success",
			"arguments": map[string]interface{}{"version": "4.0.5", "rpc-version": 17},
		}
	})

	c := newTestClient(t, srv)

	s, err := c.SessionGet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4.0.5", s.Version)
	assert.Equal(t, 17, s.RPCVersion)
	assert.Equal(t, int32(1), atomic.LoadInt32(conflicts))

	// session id is reused
	_, err = c.SessionGet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(conflicts))
}

func TestClient_TorrentGet(t *testing.T) {
	srv, _ := newServer(t, func(req rpcRequest) (int, interface{}) {
		assert.Equal(t, "torrent-get", req.Method)
		assert.Len(t, req.Arguments["fields"], len(TorrentFields))

		return http.StatusOK, map[string]interface{}{
			"result": "success",
			"arguments": map[string]interface{}{
				"torrents": []map[string]interface{}{
					{
						"id":          1,
						"hashString":  "aaaa",
						"name":        "ubuntu.iso",
						"status":      6,
						"doneDate":    1700000000,
						"uploadRatio": 3.5,
						"totalSize":   4 << 30,
						"labels":      []string{"linux"},
						"trackers":    []map[string]interface{}{{"id": 0, "announce": "https://torrent.ubuntu.com/announce", "tier": 0}},
					},
					{
						"id":          2,
						"hashString":  "bbbb",
						"name":        "partial.iso",
						"status":      4,
						"doneDate":    0,
						"uploadRatio": -1,
					},
				},
			},
		}
	})

	torrents, err := newTestClient(t, srv).TorrentGet(context.Background(), TorrentFields)
	require.NoError(t, err)
	require.Len(t, torrents, 2)

	assert.Equal(t, int64(1), torrents[0].ID)
	assert.Equal(t, StatusSeed, torrents[0].Status)
	assert.Equal(t, "seeding", torrents[0].Status.String())
	assert.Equal(t, int64(1700000000), torrents[0].DoneDate)
	assert.InDelta(t, 3.5, torrents[0].UploadRatio, 0.0001)
	assert.Equal(t, []string{"linux"}, torrents[0].Labels)
	assert.Equal(t, "https://torrent.ubuntu.com/announce", torrents[0].Trackers[0].Announce)

	assert.Equal(t, "downloading", torrents[1].Status.String())
	assert.Equal(t, float64(RatioNotAvailable), torrents[1].UploadRatio)
}

func TestClient_StopAndRemove(t *testing.T) {
	var methods []string
	var removeArgs map[string]interface{}

	srv, _ := newServer(t, func(req rpcRequest) (int, interface{}) {
		methods = append(methods, req.Method)
		if req.Method == "torrent-remove" {
			removeArgs = req.Arguments
		}
		return http.StatusOK, map[string]interface{}{"result": "success", "arguments": map[string]interface{}{}}
	})

	c := newTestClient(t, srv)
	ids := ParseIDs([]string{"1", "cafebabe"})

	require.NoError(t, c.TorrentStop(context.Background(), ids))
	require.NoError(t, c.TorrentRemove(context.Background(), ids, true))

	assert.Equal(t, []string{"torrent-stop", "torrent-remove"}, methods)
	assert.Equal(t, true, removeArgs["delete-local-data"])
	assert.Equal(t, []interface{}{float64(1), "cafebabe"}, removeArgs["ids"])
}

func TestClient_RPCFailureResult(t *testing.T) {
	srv, _ := newServer(t, func(req rpcRequest) (int, interface{}) {
		return http.StatusOK, map[string]interface{}{"result": "torrent not found"}
	})

	err := newTestClient(t, srv).TorrentStop(context.Background(), ParseIDs([]string{"42"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "torrent not found")
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "wrong", pass)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New(Config{URL: srv.URL, User: "admin", Password: "wrong"})
	require.NoError(t, err)

	_, err = c.SessionGet(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestClient_RequestHeaders(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		wantAuth bool
	}{
		{name: "no_auth"},
		{name: "user_and_password", user: "admin", password: "secret", wantAuth: true},
		{name: "user_only", user: "admin", wantAuth: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

				user, pass, ok := r.BasicAuth()
				assert.Equal(t, tt.wantAuth, ok)
				assert.Equal(t, tt.user, user)
				assert.Equal(t, tt.password, pass)

				if atomic.AddInt32(&calls, 1) == 1 {
					assert.Empty(t, r.Header.Get(SessionIDHeader))
					w.Header().Set(SessionIDHeader, "abc")
					w.WriteHeader(http.StatusConflict)
					return
				}

				assert.Equal(t, "abc", r.Header.Get(SessionIDHeader))
				_, _ = w.Write([]byte(`{"result":"success","arguments":{"version":"4.0.6","rpc-version":17}}`))
			}))
			defer srv.Close()

			c, err := New(Config{URL: srv.URL, User: tt.user, Password: tt.password})
			require.NoError(t, err)

			s, err := c.SessionGet(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "4.0.6", s.Version)
			assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_PersistentConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(SessionIDHeader, "rotating")
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c, err := New(Config{URL: srv.URL})
	require.NoError(t, err)

	_, err = c.TorrentGet(context.Background(), TorrentFields)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHandshake))
}

func TestParseIDs(t *testing.T) {
	assert.Equal(t, []interface{}{int64(7), "abcdef", int64(12)}, ParseIDs([]string{"7", "abcdef", "12"}))
	assert.Empty(t, ParseIDs(nil))
}

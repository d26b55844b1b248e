package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/simplex/config"
)

func TestSameOrigin(t *testing.T) {
	cases := []struct {
		host, origin string
		want         bool
	}{
		{"api.example.com:8080", "", true},
		{"api.example.com:8080", "https://api.example.com", true},
		{"api.example.com", "http://localhost:3000", true},
		{"api.example.com", "https://evil.example.org", false},
		{"api.example.com", "://bad", false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = tc.host
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		assert.Equal(t, tc.want, sameOrigin(r), "%s <- %s", tc.host, tc.origin)
	}
}

func TestWSConnEcho(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Upgrade(w, r)
		if err != nil {
			return
		}
		defer c.Close()
		var msg map[string]string
		if err := c.ReadJSON(&msg); err != nil {
			return
		}
		_ = c.WriteJSON(map[string]string{"type": "echo", "objective": msg["objective"]})
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"objective": "3 + 5"}))
	var got map[string]string
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "echo", got["type"])
	assert.Equal(t, "3 + 5", got["objective"])

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestGinServerStartStop(t *testing.T) {
	var cfg config.ServerConfig
	cfg.HTTP.Addr = "127.0.0.1"
	cfg.HTTP.Port = 18089

	engine := NewDefaultGinEngine("test")
	engine.GET("/sys/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	s := NewGinServer(engine, cfg, slog.Default())
	assert.Equal(t, "127.0.0.1:18089", s.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:18089/sys/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-errCh)
}

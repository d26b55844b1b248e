package solve

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/simplex/logging"
	"github.com/wyfcoding/simplex/lp"
)

type envelope struct {
	Code   int     `json:"code"`
	Msg    string  `json:"msg"`
	Detail string  `json:"detail"`
	Data   *Result `json:"data"`
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(defaultLimits()), logging.Default()).Register(r)
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSolveHandlerSuccess(t *testing.T) {
	rec := postJSON(t, newRouter(t), "/v1/solve", textbookRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	assert.Equal(t, 0, env.Code)
	require.NotNil(t, env.Data)
	assert.InDeltaSlice(t, []float64{2, 6}, env.Data.Values, 1e-9)
	assert.InDelta(t, 36.0, env.Data.Objective, 1e-9)
	assert.Equal(t, 2, env.Data.Iterations)
	assert.Len(t, env.Data.Snapshots, 4)
	assert.Equal(t, lp.LabelOptimal, env.Data.Snapshots[3].Label)
}

func TestSolveHandlerErrorStatus(t *testing.T) {
	r := newRouter(t)

	cases := []struct {
		name   string
		body   any
		status int
		code   int
	}{
		{"unbounded", Request{Objective: "1 + 0", Constraints: "1 - 1 <= 1"}, http.StatusUnprocessableEntity, 422001},
		{"parse", Request{Objective: "3 + abc", Constraints: "1 + 1 <= 2"}, http.StatusBadRequest, 400019},
		{"empty", Request{Objective: "3 + 5"}, http.StatusBadRequest, 400020},
		{"direction", Request{Objective: "3", Constraints: "1 <= 2", Direction: "up"}, http.StatusBadRequest, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, r, "/v1/solve", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			env := decode(t, rec)
			assert.Equal(t, tc.code, env.Code)
			assert.NotEmpty(t, env.Msg)
			assert.Nil(t, env.Data)
		})
	}
}

func TestSolveHandlerRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decode(t, rec).Msg)
}

func TestReportHandlerReturnsText(t *testing.T) {
	rec := postJSON(t, newRouter(t), "/v1/solve/report", textbookRequest())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "Initial table\n"))
	assert.Contains(t, body, "Iteration 2\n")
	assert.True(t, strings.HasSuffix(body, "Z = 36.00\n"))
}

func dialStream(t *testing.T) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newRouter(t))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/solve/stream", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUntilFinal(t *testing.T, conn *websocket.Conn) ([]lp.Snapshot, StreamMessage) {
	t.Helper()
	var snaps []lp.Snapshot
	for {
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != MessageSnapshot {
			return snaps, msg
		}
		require.NotNil(t, msg.Snapshot)
		snaps = append(snaps, *msg.Snapshot)
	}
}

func TestStreamEmitsSnapshotsBeforeResult(t *testing.T) {
	conn := dialStream(t)
	require.NoError(t, conn.WriteJSON(textbookRequest()))

	snaps, final := readUntilFinal(t, conn)
	require.Equal(t, MessageResult, final.Type)
	require.NotNil(t, final.Result)

	labels := make([]string, 0, len(snaps))
	for _, s := range snaps {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"Initial table", "Iteration 1", "Iteration 2", "Optimal solution"}, labels)
	assert.InDelta(t, 36.0, final.Result.Objective, 1e-9)
	assert.Empty(t, final.Result.Snapshots)
}

func TestStreamReportsUnbounded(t *testing.T) {
	conn := dialStream(t)
	require.NoError(t, conn.WriteJSON(Request{Objective: "1 + 0", Constraints: "1 - 1 <= 1"}))

	snaps, final := readUntilFinal(t, conn)
	assert.Len(t, snaps, 2)
	require.Equal(t, MessageError, final.Type)
	require.NotNil(t, final.Error)
	assert.Equal(t, 422001, final.Error.Code)
}

func TestStreamRejectsMalformedRequest(t *testing.T) {
	conn := dialStream(t)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{oops")))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, 400002, msg.Error.Code)
}

package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tally"
	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/observability"
)

func newServer(t *testing.T, opts ...Option) (http.Handler, *tally.Engine) {
	t.Helper()
	eng := tally.New()
	return NewHandler(eng, opts...), eng
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndInfo(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	info := decodeJSON[map[string]string](t, w)
	assert.Equal(t, "tally-http", info["app"])
	assert.NotEmpty(t, info["version"])

	w = do(t, h, http.MethodGet, "/functions", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sqrt"`)
	assert.Contains(t, w.Body.String(), `"totient"`)
}

func TestEvaluate(t *testing.T) {
	h, eng := newServer(t)

	w := do(t, h, http.MethodPost, "/sessions/alice/evaluate", `{"expression":"2^10"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeJSON[EvaluateResponse](t, w)
	assert.Equal(t, "1024", resp.Display)
	assert.Equal(t, "2**10", resp.Canonical)
	assert.Equal(t, domain.DefaultMode(), resp.Mode)

	history, err := eng.History(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "2^10", history[0].Expression)
}

func TestCalculate_Stateless(t *testing.T) {
	h, eng := newServer(t)

	w := do(t, h, http.MethodPost, "/evaluate", `{"expression":"sin(pi/2)","mode":{"angle":"radians","rational":false,"pi":true}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeJSON[EvaluateResponse](t, w)
	assert.Equal(t, "1.0", resp.Display)
	assert.Equal(t, domain.Radians, resp.Mode.Angle)

	w = do(t, h, http.MethodPost, "/evaluate", `{"expression":"10/4"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2.5", decodeJSON[EvaluateResponse](t, w).Display)

	ids, err := eng.Sessions().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestErrors(t *testing.T) {
	h, _ := newServer(t, WithMaxInputSize(16))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		kind   domain.ErrorKind
	}{
		{"division by zero", http.MethodPost, "/sessions/a/evaluate", `{"expression":"1/0"}`, http.StatusUnprocessableEntity, domain.KindArithmetic},
		{"parse error", http.MethodPost, "/evaluate", `{"expression":"import os"}`, http.StatusUnprocessableEntity, domain.KindParse},
		{"empty expression", http.MethodPost, "/evaluate", `{"expression":""}`, http.StatusUnprocessableEntity, domain.KindParse},
		{"input too large", http.MethodPost, "/evaluate", `{"expression":"1+1+1+1+1+1+1+1+1"}`, http.StatusBadRequest, domain.KindInput},
		{"malformed body", http.MethodPost, "/evaluate", `{"expression":`, http.StatusBadRequest, ""},
		{"unknown field", http.MethodPost, "/evaluate", `{"expr":"1"}`, http.StatusBadRequest, ""},
		{"invalid session id", http.MethodPost, "/sessions/-x/evaluate", `{"expression":"1"}`, http.StatusBadRequest, ""},
		{"unknown transform", http.MethodPost, "/sessions/a/transform/cube", `{"input":"2"}`, http.StatusNotFound, ""},
		{"transform input type", http.MethodPost, "/sessions/a/transform/square", `{"input":"abc"}`, http.StatusUnprocessableEntity, domain.KindInputType},
		{"transform limit", http.MethodPost, "/sessions/a/transform/prime_count", `{"input":"100000000000"}`, http.StatusUnprocessableEntity, domain.KindLimit},
		{"unknown flag", http.MethodPost, "/sessions/a/toggle/hex", "", http.StatusNotFound, ""},
		{"unknown session", http.MethodGet, "/sessions/nobody", "", http.StatusNotFound, ""},
		{"bad history index", http.MethodDelete, "/sessions/a/history/x", "", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decodeJSON[errorResponse](t, w)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestTransformAndToggle(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, http.MethodPost, "/sessions/a/transform/totient", `{"input":"9"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, TransformResponse{Op: "totient", Input: "9", Result: "6"}, decodeJSON[TransformResponse](t, w))

	w = do(t, h, http.MethodPost, "/sessions/a/transform/d2r", `{"input":"180"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "π", decodeJSON[TransformResponse](t, w).Result)

	w = do(t, h, http.MethodPost, "/sessions/a/toggle/rational", `{"display":"0.75"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	toggled := decodeJSON[ToggleResponse](t, w)
	assert.True(t, toggled.Mode.Rational)
	assert.Equal(t, "3/4", toggled.Display)

	w = do(t, h, http.MethodPost, "/sessions/a/toggle/pi", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decodeJSON[ToggleResponse](t, w).Mode.Pi)

	w = do(t, h, http.MethodPost, "/sessions/a/evaluate", `{"expression":"1/3 + 1/6"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1/2", decodeJSON[EvaluateResponse](t, w).Display)
}

func TestSessionAndHistory(t *testing.T) {
	h, _ := newServer(t)
	for _, e := range []string{"1+1", "2+2", "3+3"} {
		w := do(t, h, http.MethodPost, "/sessions/s/evaluate", `{"expression":"`+e+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(t, h, http.MethodGet, "/sessions/s", "")
	require.Equal(t, http.StatusOK, w.Code)
	sess := decodeJSON[domain.Session](t, w)
	assert.Equal(t, "s", sess.ID)
	assert.Len(t, sess.History, 3)

	w = do(t, h, http.MethodDelete, "/sessions/s/history/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/sessions/s/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	history := decodeJSON[[]domain.HistoryEntry](t, w)
	require.Len(t, history, 2)
	assert.Equal(t, "1+1", history[0].Expression)
	assert.Equal(t, "3+3", history[1].Expression)

	w = do(t, h, http.MethodDelete, "/sessions/s/history/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodDelete, "/sessions/s/history", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/sessions/s/history", "")
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, h, http.MethodDelete, "/sessions/s", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/sessions/s", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observability.NewMetrics()
	eng := tally.New(tally.WithLifecycleHooks(metrics.Hooks()))
	h := NewHandler(eng, WithMetrics(metrics.Handler()))

	do(t, h, http.MethodPost, "/sessions/m/evaluate", `{"expression":"1/0"}`)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `tally_evaluations_total{outcome="ArithmeticError"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newServer(t)
	w := do(t, h, http.MethodOptions, "/evaluate", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents(t *testing.T) {
	h, _ := newServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/live/events?types=evaluate", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	post := func(path, body string) {
		r, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		r.Body.Close()
	}
	post("/sessions/live/toggle/pi", "")
	post("/sessions/live/evaluate", `{"expression":"6x7"}`)

	for lines.Scan() {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: {") {
			continue
		}
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		assert.Equal(t, "evaluate", ev.Type, "toggle events are filtered out")
		assert.Equal(t, "42", ev.Display)
		return
	}
	t.Fatal("stream ended without an evaluate event")
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s")
	assert.Equal(t, 1, sm.Subscribers("s"))

	sm.Publish("s", Event{Type: "evaluate", Display: "1"})
	sm.Publish("other", Event{Type: "evaluate"})
	assert.JSONEq(t, `{"type":"evaluate","display":"1"}`, <-ch)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s"))
	_, open := <-ch
	assert.False(t, open)
}

// toggleAfterEvaluate flips the angle unit as soon as an evaluation commits,
// the way a concurrent toggle request would.
type toggleAfterEvaluate struct {
	*tally.Engine
}

func (e toggleAfterEvaluate) Evaluate(ctx context.Context, sessionID, expression string) (domain.Result, error) {
	res, err := e.Engine.Evaluate(ctx, sessionID, expression)
	if err == nil {
		_, err = e.Engine.ToggleAngleUnit(ctx, sessionID)
	}
	return res, err
}

func TestEvaluate_ReportsModeUsed(t *testing.T) {
	eng := tally.New()
	h := NewHandler(toggleAfterEvaluate{eng})

	w := do(t, h, http.MethodPost, "/sessions/bob/evaluate", `{"expression":"sin(90)"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeJSON[EvaluateResponse](t, w)
	assert.Equal(t, "1.0", resp.Display)
	assert.Equal(t, domain.Degrees, resp.Mode.Angle)

	mode, err := eng.Mode(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.Radians, mode.Angle, "the toggle landed after the evaluation")
}

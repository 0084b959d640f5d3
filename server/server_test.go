package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashkov/biliwatch/pkg/monitor"
	"github.com/pashkov/biliwatch/server/mocks"
)

func testServer(t *testing.T, controller Controller, tokens []string) *httptest.Server {
	t.Helper()
	cfg := &mocks.ConfigProviderMock{
		GetServerConfigFunc: func() (string, time.Duration) { return ":0", 30 * time.Second },
	}
	s := New(cfg, controller, tokens, "test-1.0", false)
	ts := httptest.NewServer(s.router)
	t.Cleanup(ts.Close)
	return ts
}

func adminReq(t *testing.T, method, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, http.NoBody)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("X-Admin-Token", token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAdminOnly(t *testing.T) {
	controller := &mocks.ControllerMock{
		StatusFunc: func(_ context.Context) (monitor.Status, error) { return monitor.Status{}, nil },
	}
	ts := testServer(t, controller, []string{"good-token"})

	t.Run("no token rejected", func(t *testing.T) {
		resp := adminReq(t, http.MethodGet, ts.URL+"/api/v1/status", "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		resp := adminReq(t, http.MethodGet, ts.URL+"/api/v1/status", "bad-token")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Empty(t, controller.StatusCalls(), "handler never reached")
	})

	t.Run("valid token passes", func(t *testing.T) {
		resp := adminReq(t, http.MethodGet, ts.URL+"/api/v1/status", "good-token")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("empty allow-list denies everything", func(t *testing.T) {
		ts2 := testServer(t, controller, nil)
		resp := adminReq(t, http.MethodGet, ts2.URL+"/api/v1/status", "good-token")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestStatusHandler(t *testing.T) {
	started := time.Now()
	controller := &mocks.ControllerMock{
		StatusFunc: func(_ context.Context) (monitor.Status, error) {
			return monitor.Status{Running: true, Authors: 2, Markers: 2, StartedAt: &started}, nil
		},
	}
	ts := testServer(t, controller, []string{"tok"})

	resp := adminReq(t, http.MethodGet, ts.URL+"/api/v1/status", "tok")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Version string         `json:"version"`
		Monitor monitor.Status `json:"monitor"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "test-1.0", body.Version)
	assert.True(t, body.Monitor.Running)
	assert.Equal(t, 2, body.Monitor.Authors)

	t.Run("store failure is a 500", func(t *testing.T) {
		failing := &mocks.ControllerMock{
			StatusFunc: func(_ context.Context) (monitor.Status, error) {
				return monitor.Status{}, errors.New("database is locked")
			},
		}
		ts2 := testServer(t, failing, []string{"tok"})
		resp := adminReq(t, http.MethodGet, ts2.URL+"/api/v1/status", "tok")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestControlHandlers(t *testing.T) {
	t.Run("start launches the loop", func(t *testing.T) {
		controller := &mocks.ControllerMock{
			RunningFunc: func() bool { return false },
			StartFunc:   func(_ context.Context) {},
		}
		ts := testServer(t, controller, []string{"tok"})

		resp := adminReq(t, http.MethodPost, ts.URL+"/api/v1/control/start", "tok")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "started", body["result"])
		assert.Len(t, controller.StartCalls(), 1)
	})

	t.Run("start when already running is a no-op", func(t *testing.T) {
		controller := &mocks.ControllerMock{
			RunningFunc: func() bool { return true },
		}
		ts := testServer(t, controller, []string{"tok"})

		resp := adminReq(t, http.MethodPost, ts.URL+"/api/v1/control/start", "tok")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "already running", body["result"])
		assert.Empty(t, controller.StartCalls())
	})

	t.Run("stop halts the loop", func(t *testing.T) {
		controller := &mocks.ControllerMock{
			RunningFunc: func() bool { return true },
			StopFunc:    func() {},
		}
		ts := testServer(t, controller, []string{"tok"})

		resp := adminReq(t, http.MethodPost, ts.URL+"/api/v1/control/stop", "tok")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "stopped", body["result"])
		assert.Len(t, controller.StopCalls(), 1)
	})

	t.Run("stop when not running is a no-op", func(t *testing.T) {
		controller := &mocks.ControllerMock{
			RunningFunc: func() bool { return false },
		}
		ts := testServer(t, controller, []string{"tok"})

		resp := adminReq(t, http.MethodPost, ts.URL+"/api/v1/control/stop", "tok")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "not running", body["result"])
		assert.Empty(t, controller.StopCalls())
	})
}

func TestTestPushHandler(t *testing.T) {
	t.Run("delivers and echoes the uid", func(t *testing.T) {
		controller := &mocks.ControllerMock{
			TestPushFunc: func(_ context.Context, _, _ string) error { return nil },
		}
		ts := testServer(t, controller, []string{"tok"})

		resp := adminReq(t, http.MethodPost, ts.URL+"/api/v1/test-push/42?dest=dest-1", "tok")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "pushed", body["result"])
		assert.Equal(t, "42", body["uid"])

		require.Len(t, controller.TestPushCalls(), 1)
		assert.Equal(t, "42", controller.TestPushCalls()[0].UID)
		assert.Equal(t, "dest-1", controller.TestPushCalls()[0].Dest)
	})

	t.Run("failure surfaced as 502 with the raw error", func(t *testing.T) {
		controller := &mocks.ControllerMock{
			TestPushFunc: func(_ context.Context, _, _ string) error {
				return errors.New("deliver to dest-1: status 500")
			},
		}
		ts := testServer(t, controller, []string{"tok"})

		resp := adminReq(t, http.MethodPost, ts.URL+"/api/v1/test-push/42", "tok")
		require.Equal(t, http.StatusBadGateway, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "deliver to dest-1: status 500", body["error"])
	})
}

func TestPingAndAppInfo(t *testing.T) {
	controller := &mocks.ControllerMock{}
	ts := testServer(t, controller, nil)

	// ping bypasses the admin gate, it sits in front of the api group
	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "pong", string(body))
	assert.Equal(t, "biliwatch", resp.Header.Get("App-Name"))
	assert.Equal(t, "test-1.0", resp.Header.Get("App-Version"))
}

func TestRenderJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RenderJSON(rec, nil, http.StatusTeapot, map[string]string{"k": "v"})

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"k":"v"}`, rec.Body.String())
}

func TestRenderError(t *testing.T) {
	rec := httptest.NewRecorder()
	RenderError(rec, nil, errors.New("boom"), http.StatusBadRequest)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"boom"}`, rec.Body.String())

	rec2 := httptest.NewRecorder()
	RenderError(rec2, nil, nil, http.StatusInternalServerError)
	assert.JSONEq(t, `{"error":"unknown error"}`, rec2.Body.String())
}

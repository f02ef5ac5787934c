package devserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/resphone/resphone/internal/httpx"
	"github.com/resphone/resphone/internal/logx"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(got *events.APIGatewayV2HTTPRequest) EventHandler {
	return func(_ context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		*got = req
		return httpx.Raw(http.StatusTeapot, httpx.ContentTypeXML, []byte("<Response/>")), nil
	}
}

func TestRouterTranslatesRequest(t *testing.T) {
	var got events.APIGatewayV2HTTPRequest
	srv := httptest.NewServer(NewRouter(echoHandler(&got), logx.New(io.Discard, "error")))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/update?x=1", strings.NewReader(`{"hash":"h"}`))
	require.NoError(t, err)
	req.Header.Set("CF-Connecting-IP", "1.2.3.4")
	req.Header.Set("X-Request-Id", "abc")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "<Response/>", string(body))
	assert.Equal(t, "text/xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "abc", resp.Header.Get("X-Request-Id"))

	assert.Equal(t, "/update", got.RawPath)
	assert.Equal(t, "x=1", got.RawQueryString)
	assert.Equal(t, http.MethodPost, got.RequestContext.HTTP.Method)
	assert.Equal(t, "127.0.0.1", got.RequestContext.HTTP.SourceIP)
	assert.Equal(t, "abc", got.RequestContext.RequestID)
	assert.Equal(t, "1.2.3.4", got.Headers["cf-connecting-ip"])
	assert.Equal(t, `{"hash":"h"}`, got.Body)
	assert.False(t, got.IsBase64Encoded)
}

func TestRouterRootAndGeneratedRequestID(t *testing.T) {
	var got events.APIGatewayV2HTTPRequest
	h := NewRouter(echoHandler(&got), logx.New(io.Discard, "error"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "/", got.RawPath)
	assert.Len(t, got.RequestContext.RequestID, 36)
	assert.Equal(t, got.RequestContext.RequestID, rec.Header().Get("X-Request-Id"))
}

func TestHealth(t *testing.T) {
	h := NewRouter(func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		t.Fatal("health must not reach the event handler")
		return events.APIGatewayV2HTTPResponse{}, nil
	}, logx.New(io.Discard, "error"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthDoesNotShadowServicePaths(t *testing.T) {
	var got events.APIGatewayV2HTTPRequest
	h := NewRouter(echoHandler(&got), logx.New(io.Discard, "error"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "/health", got.RawPath)
}

func TestBinaryBodyIsBase64(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/auth", bytes.NewReader([]byte{0xff, 0xfe}))
	ev, err := ToEvent(r)
	require.NoError(t, err)
	assert.True(t, ev.IsBase64Encoded)
	assert.Equal(t, "//4=", ev.Body)
}

func TestHandlerErrorAndPanic(t *testing.T) {
	var logs bytes.Buffer
	h := NewRouter(func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return events.APIGatewayV2HTTPResponse{}, errors.New("boom")
	}, logx.New(&logs, "error"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plivo", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, logs.String(), "boom")

	h = NewRouter(func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		panic("kaboom")
	}, logx.New(&logs, "error"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plivo", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestWriteResponseDefaults(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteResponse(rec, events.APIGatewayV2HTTPResponse{Body: "aGk=", IsBase64Encoded: true})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", rec.Body.String())
}

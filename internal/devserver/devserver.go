// Package devserver serves the RequestRouter over plain net/http for local and
// container runs, translating requests into API Gateway v2 events.
package devserver

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/resphone/resphone/internal/httpx"
	"github.com/resphone/resphone/internal/logx"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxBody bounds request bodies; the largest legitimate one is a contact list.
const maxBody = 1 << 20

// EventHandler is the lambda-shaped handler being served.
type EventHandler func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// HealthPath is answered by the devserver itself. It sits outside the
// service's route table so it never shadows a service path.
const HealthPath = "/_devserver/health"

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

// NewRouter mounts h behind request-id and panic-recovery middleware.
func NewRouter(h EventHandler, log *slog.Logger) http.Handler {
	log = logx.Module(log, "devserver")
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(log))

	r.Get(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		WriteResponse(w, httpx.Raw(http.StatusOK, httpx.ContentTypeJSON, []byte(`{"status":"ok"}`)))
	})
	r.Handle("/*", adapt(h, log))
	return r
}

func adapt(h EventHandler, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := ToEvent(r)
		if err != nil {
			resp, _ := httpx.Error(http.StatusBadRequest, "Invalid request format")
			WriteResponse(w, resp)
			return
		}
		resp, err := h(r.Context(), ev)
		if err != nil {
			log.ErrorContext(r.Context(), "handler error", "operation", "devserver_adapt", "error", err.Error())
			resp, _ = httpx.Error(http.StatusInternalServerError, "Internal server error")
		}
		WriteResponse(w, resp)
	}
}

// ToEvent converts r into the API Gateway HTTP API (v2) event shape.
func ToEvent(r *http.Request) (events.APIGatewayV2HTTPRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return events.APIGatewayV2HTTPRequest{}, err
	}

	headers := make(map[string]string, len(r.Header))
	for k, vs := range r.Header {
		headers[strings.ToLower(k)] = strings.Join(vs, ",")
	}

	ev := events.APIGatewayV2HTTPRequest{
		Version:        "2.0",
		RawPath:        r.URL.Path,
		RawQueryString: r.URL.RawQuery,
		Headers:        headers,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RequestID: requestIDFromContext(r.Context()),
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:    r.Method,
				Path:      r.URL.Path,
				Protocol:  r.Proto,
				SourceIP:  remoteHost(r.RemoteAddr),
				UserAgent: r.UserAgent(),
			},
		},
	}
	if utf8.Valid(body) {
		ev.Body = string(body)
	} else {
		ev.Body = base64.StdEncoding.EncodeToString(body)
		ev.IsBase64Encoded = true
	}
	return ev, nil
}

// WriteResponse copies resp onto w.
func WriteResponse(w http.ResponseWriter, resp events.APIGatewayV2HTTPResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	for k, vs := range resp.MultiValueHeaders {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		if b, err := base64.StdEncoding.DecodeString(resp.Body); err == nil {
			body = b
		}
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recoverMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.ErrorContext(r.Context(), "panic recovered",
						"operation", "http_panic_recovery",
						"outcome", "failure",
						"request_id", requestIDFromContext(r.Context()),
						"method", r.Method,
						"path", r.URL.Path,
						"panic", rec,
					)
					resp, _ := httpx.Error(http.StatusInternalServerError, "Internal server error")
					WriteResponse(w, resp)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

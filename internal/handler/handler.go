// Package handler routes API Gateway HTTP events to the auth, store and
// routing-document components.
package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/resphone/resphone/internal/api"
	"github.com/resphone/resphone/internal/auth"
	"github.com/resphone/resphone/internal/httpx"
	"github.com/resphone/resphone/internal/logx"
	"github.com/resphone/resphone/internal/models"
	"github.com/resphone/resphone/internal/plivo"
	"github.com/resphone/resphone/internal/store"

	"github.com/aws/aws-lambda-go/events"
	"github.com/oklog/ulid/v2"
)

// DebugHeader asks for a diagnostic comment in the Plivo document.
const DebugHeader = "X-Plivo-Debug"

// Placeholder is returned for unrouted requests.
const Placeholder = "<div>hello</div>"

// Authenticator checks a credential proof.
type Authenticator interface {
	Check(hash string, utc int64) error
}

// ConfigStore is the document access the router needs.
type ConfigStore interface {
	Load(ctx context.Context) (models.Configuration, error)
	LoadRaw(ctx context.Context) ([]byte, error)
	ApplyUpdate(ctx context.Context, contacts []models.Contact, selected, actor string) (models.Configuration, error)
}

var _ Authenticator = (*auth.Validator)(nil)
var _ ConfigStore = (*store.ConfigStore)(nil)

// App holds the router's collaborators.
type App struct {
	Auth           Authenticator
	Store          ConfigStore
	ClientIPHeader string
	Log            *slog.Logger
}

// New returns an App logging under the "handler" module.
func New(a Authenticator, s ConfigStore, clientIPHeader string, log *slog.Logger) *App {
	return &App{Auth: a, Store: s, ClientIPHeader: clientIPHeader, Log: logx.Module(log, "handler")}
}

// Handle serves one request. It always returns a response; the error is always nil.
func (a *App) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (resp events.APIGatewayV2HTTPResponse, _ error) {
	start := time.Now()
	method, path := methodOf(req), pathOf(req)
	log := a.logger().With("request_id", requestID(req), "method", method, "path", path)

	defer func() {
		fields := []any{
			"operation", "http_request",
			"status_code", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case resp.StatusCode >= 500:
			log.ErrorContext(ctx, "request completed", append(fields, "outcome", "failure")...)
		case resp.StatusCode >= 400:
			log.WarnContext(ctx, "request completed", append(fields, "outcome", "failure")...)
		default:
			log.InfoContext(ctx, "request completed", append(fields, "outcome", "success")...)
		}
	}()

	if method == http.MethodOptions {
		return httpx.Empty(http.StatusOK)
	}

	switch {
	case path == "/auth" && method == http.MethodPost:
		return a.handleAuth(ctx, log, req)
	case path == "/update" && method == http.MethodPost:
		return a.handleUpdate(ctx, log, req)
	case path == "/" && method == http.MethodGet:
		return a.handleRaw(ctx, log, req)
	case path == "/plivo" && method == http.MethodGet:
		return a.handlePlivo(ctx, log, req)
	default:
		return httpx.Raw(http.StatusOK, httpx.ContentTypeHTML, []byte(Placeholder)), nil
	}
}

// handleAuth verifies a proof and nothing else.
func (a *App) handleAuth(ctx context.Context, log *slog.Logger, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if _, err := a.authenticate(req); err != nil {
		return a.fail(ctx, log, "auth", err)
	}
	return httpx.Text(http.StatusOK, "Authorized")
}

// handleUpdate verifies a proof, then replaces contacts/selected and appends an audit entry.
func (a *App) handleUpdate(ctx context.Context, log *slog.Logger, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, err := bodyOf(req)
	if err != nil {
		return a.fail(ctx, log, "update", err)
	}
	upd, err := api.DecodeUpdate(body)
	if err != nil {
		return a.fail(ctx, log, "update", err)
	}
	if err := a.Auth.Check(upd.Hash, upd.Timestamp()); err != nil {
		return a.fail(ctx, log, "update", err)
	}

	cfg, err := a.Store.ApplyUpdate(ctx, *upd.Contacts, *upd.Selected, a.clientIP(req))
	if err != nil {
		return a.fail(ctx, log, "update", err)
	}
	log.InfoContext(ctx, "forwarding updated", "operation", "update", "selected", cfg.Selected, "contacts", len(cfg.Contacts))
	return httpx.JSON(http.StatusOK, cfg)
}

// handleRaw returns the stored document untouched.
func (a *App) handleRaw(ctx context.Context, log *slog.Logger, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if _, err := a.authenticate(req); err != nil {
		return a.fail(ctx, log, "read", err)
	}
	raw, err := a.Store.LoadRaw(ctx)
	if err != nil {
		return a.fail(ctx, log, "read", err)
	}
	return httpx.Raw(http.StatusOK, httpx.ContentTypeHTML, raw), nil
}

// handlePlivo renders the routing document for the current selection. Unauthenticated.
func (a *App) handlePlivo(ctx context.Context, log *slog.Logger, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	cfg, err := a.Store.Load(ctx)
	if err != nil {
		return a.fail(ctx, log, "plivo", err)
	}
	doc := plivo.Render(cfg.Selected, header(req.Headers, DebugHeader))
	log.DebugContext(ctx, "plivo response", "operation", "plivo", "document", string(doc))
	return httpx.Raw(http.StatusOK, plivo.ContentType, doc), nil
}

// authenticate decodes the credential proof from the body and checks it.
func (a *App) authenticate(req events.APIGatewayV2HTTPRequest) (api.AuthRequest, error) {
	body, err := bodyOf(req)
	if err != nil {
		return api.AuthRequest{}, err
	}
	cred, err := api.DecodeAuth(body)
	if err != nil {
		return cred, err
	}
	return cred, a.Auth.Check(cred.Hash, cred.Timestamp())
}

// fail maps err to a response and logs it; 5xx faults log at error level.
func (a *App) fail(ctx context.Context, log *slog.Logger, operation string, err error) (events.APIGatewayV2HTTPResponse, error) {
	status, msg := mapError(err)
	fields := []any{"operation", operation, "status_code", status, "error", err.Error()}
	if status >= 500 {
		log.ErrorContext(ctx, "operation failed", fields...)
	} else {
		log.WarnContext(ctx, "operation failed", fields...)
	}
	return httpx.Error(status, msg)
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, api.ErrMalformed):
		return http.StatusBadRequest, "Invalid request format"
	case errors.Is(err, auth.ErrExpired):
		return http.StatusUnauthorized, "Not authorized: Time mismatch"
	case errors.Is(err, auth.ErrBadSecret):
		return http.StatusUnauthorized, "Not authorized: invalid password"
	case errors.Is(err, auth.ErrMisconfigured):
		return http.StatusInternalServerError, "Server configuration error"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Config object not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// clientIP prefers the provider header, then the gateway's source address.
func (a *App) clientIP(req events.APIGatewayV2HTTPRequest) string {
	if a.ClientIPHeader != "" {
		if v := strings.TrimSpace(header(req.Headers, a.ClientIPHeader)); v != "" {
			return v
		}
	}
	if ip := strings.TrimSpace(req.RequestContext.HTTP.SourceIP); ip != "" {
		return ip
	}
	return store.UnknownActor
}

func (a *App) logger() *slog.Logger {
	if a.Log != nil {
		return a.Log
	}
	return logx.Module(slog.Default(), "handler")
}

// header retrieves a header value in a case-insensitive manner.
func header(h map[string]string, key string) string {
	if v, ok := h[key]; ok {
		return v
	}
	lk := strings.ToLower(key)
	for k, v := range h {
		if strings.ToLower(k) == lk {
			return v
		}
	}
	return ""
}

func methodOf(req events.APIGatewayV2HTTPRequest) string {
	return strings.ToUpper(req.RequestContext.HTTP.Method)
}

func pathOf(req events.APIGatewayV2HTTPRequest) string {
	p := req.RawPath
	if p == "" {
		p = req.RequestContext.HTTP.Path
	}
	if p == "" {
		p = "/"
	}
	return p
}

func bodyOf(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, api.ErrMalformed
	}
	return b, nil
}

func requestID(req events.APIGatewayV2HTTPRequest) string {
	if id := req.RequestContext.RequestID; id != "" {
		return id
	}
	if id := header(req.Headers, "X-Request-Id"); id != "" {
		return id
	}
	return ulid.Make().String()
}

package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
)

type errorResponse struct {
	Detail     string            `json:"detail"`
	Errors     map[string]string `json:"errors,omitempty"`
	RetryAfter int64             `json:"retry_after,omitempty"`
}

type successResponse struct {
	Detail string         `json:"detail"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// Handler is the application-style handler used by this router.
//
// It returns a response payload (that will be JSON encoded) or an error.
type Handler func(r *Request) (any, error)

// Config holds dependencies required to build a Router.
type Config struct {
	// Config provides runtime configuration values.
	Config config.Config
	// UUID generates request correlation IDs.
	UUID uid.StringID
	// JWT verifies access tokens on protected routes.
	JWT jwt.Issuer
	// Instrument provides tracing and metrics helpers.
	Instrument instrument.Instrumentation
	// PublicEndpoints are "METHOD /path" pairs served without a token.
	PublicEndpoints []string
}

// Router is an http.Handler that wraps httprouter and a middleware chain.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

// NewRouter builds the default application router with standard middleware.
func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Detail: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Detail: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	ins := cfg.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}

	return &Router{
		hr: hr,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareRealIP,
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(instrument.NewMasker(configArray(cfg.Config, "instrument.log_mask_fields")), ins),
			middlewareMaintenance(configArray(cfg.Config, "app.maintenance.endpoints")),
			middlewareAuthentication(cfg.JWT, routeSet(cfg.PublicEndpoints)),
		},
	}
}

func configArray(cfg config.Config, key string) []string {
	if cfg == nil {
		return nil
	}
	return cfg.GetArray(key)
}

// routeSet groups "METHOD /path" pairs by method.
func routeSet(endpoints []string) map[string]map[string]struct{} {
	pairs := lo.FilterMap(endpoints, func(e string, _ int) (lo.Tuple2[string, string], bool) {
		method, path, ok := strings.Cut(strings.TrimSpace(e), " ")
		return lo.T2(strings.ToUpper(method), strings.TrimSpace(path)), ok
	})

	return lo.MapValues(
		lo.GroupBy(pairs, func(p lo.Tuple2[string, string]) string { return p.A }),
		func(ps []lo.Tuple2[string, string], _ string) map[string]struct{} {
			return lo.Keyify(lo.Map(ps, func(p lo.Tuple2[string, string], _ int) string { return p.B }))
		},
	)
}

// GET registers a GET endpoint using the application Handler signature.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

// GETRaw registers a GET endpoint that writes directly to the response writer.
func (r *Router) GETRaw(path string, h http.Handler, mws ...Middleware) {
	r.hr.Handler(http.MethodGet, path, Chain(h, append(r.mws, mws...)...))
}

// POST registers a POST endpoint using the application Handler signature.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.hr.Handler(method, path, Chain(http.HandlerFunc(func(w http.ResponseWriter, re *http.Request) {
		resp, err := h(&Request{Request: re})
		if err != nil {
			if setter, ok := w.(interface{ SetError(error) }); ok {
				setter.SetError(err)
			}
			writeError(re.Context(), w, err)
			return
		}
		writeSuccess(w, resp)
	}), append(r.mws, mws...)...))
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		slog.ErrorContext(ctx, "unhandled error reached the router", "error", err)
		writeJSON(w, errorResponse{Detail: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Detail: gerr.Msg()}

	var errValidate validator.V10ValidationError
	if errors.As(err, &errValidate) {
		resp.Errors = errValidate.Values()
	} else if len(gerr.Fields()) > 0 {
		resp.Errors = gerr.Fields()
	}

	if ra := gerr.RetryAfter(); ra > 0 {
		secs := int64(math.Ceil(ra.Seconds()))
		resp.RetryAfter = secs
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}

	writeJSON(w, resp, gerr.StatusCode())
}

func writeSuccess(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		code = sc.StatusCode()
	}

	if code == http.StatusNoContent || resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	detail := "request has been successfully"
	if m, ok := resp.(interface{ Message() string }); ok {
		detail = m.Message()
	}

	var data any = resp
	if d, ok := resp.(interface{ Data() any }); ok {
		data = d.Data()
	}

	var meta map[string]any
	if m, ok := resp.(interface{ Meta() map[string]any }); ok {
		meta = m.Meta()
	}

	writeJSON(w, successResponse{Detail: detail, Data: data, Meta: meta}, code)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("server: failed to encode data to json", "error", err)
	}
}

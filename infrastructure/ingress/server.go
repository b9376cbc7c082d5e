// Package ingress exposes the provider query and the normalized port view over HTTP.
package ingress

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
	"github.com/carlosrabelo/cscc/infrastructure/provider"
)

// Error codes reported for transport failures; protocol errors keep the provider's code
const (
	CodeTimeout           = "timeout"
	CodeUnreachable       = "unreachable"
	CodeMalformedResponse = "malformed_response"
)

const maxRequestBody = 64 << 10

// RawQuerier forwards a query to the provider and returns the undecoded result
type RawQuerier interface {
	Raw(ctx context.Context, q entities.Query) (string, error)
}

// PortViewer returns the normalized port view
type PortViewer interface {
	Show(ctx context.Context) (entities.NormalizedResult, error)
	ShowSwitch(ctx context.Context, switchIP string) (entities.NormalizedResult, error)
}

// NewRouter builds the HTTP routes. gatherer may be nil to leave out /metrics.
func NewRouter(querier RawQuerier, viewer PortViewer, gatherer prometheus.Gatherer) http.Handler {
	h := &handlers{querier: querier, viewer: viewer}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Post("/api/getData", h.getData)
	r.Get("/api/ports", h.ports)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// MetricsRouter serves only /metrics, for processes without the query routes
func MetricsRouter(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

// Serve runs the HTTP server on addr until ctx is done
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Ingress listening on %s", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serving ingress")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutting down ingress")
		}
		return nil
	}
}

type handlers struct {
	querier RawQuerier
	viewer  PortViewer
}

func (h *handlers) getData(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeReply(w, http.StatusBadRequest, provider.ErrorReply(provider.CodeMalformedRequest, "read body: %v", err))
		return
	}
	q, err := provider.DecodeQuery(body)
	if err != nil {
		writeReply(w, http.StatusBadRequest, provider.ErrorReply(provider.CodeMalformedRequest, "%v", err))
		return
	}
	result, err := h.querier.Raw(r.Context(), q)
	if err != nil {
		status, code := classify(err)
		writeReply(w, status, provider.ErrorReply(code, "%v", err))
		return
	}
	writeReply(w, http.StatusOK, provider.ResultReply(result))
}

func (h *handlers) ports(w http.ResponseWriter, r *http.Request) {
	var (
		result entities.NormalizedResult
		err    error
	)
	if switchIP := r.URL.Query().Get("switch"); switchIP != "" {
		result, err = h.viewer.ShowSwitch(r.Context(), switchIP)
	} else {
		result, err = h.viewer.Show(r.Context())
	}
	if err != nil {
		status, code := classify(err)
		writeReply(w, status, provider.ErrorReply(code, "%v", err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// classify maps a fetch failure to an HTTP status and error code. Timeouts are checked
// first since a timed out exchange also carries the unreachable kind.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, provider.ErrTimeout):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, provider.ErrUnsupportedQuery):
		return http.StatusBadRequest, provider.CodeUnsupportedQuery
	case errors.Is(err, provider.ErrMalformedRequest):
		return http.StatusBadRequest, provider.CodeMalformedRequest
	case errors.Is(err, provider.ErrUnknownSwitch):
		return http.StatusNotFound, provider.CodeUnknownSwitch
	case errors.Is(err, provider.ErrMalformedResponse):
		return http.StatusBadGateway, CodeMalformedResponse
	case errors.Is(err, provider.ErrProviderInternal):
		return http.StatusBadGateway, provider.CodeInternal
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, CodeUnreachable
	default:
		return http.StatusBadGateway, CodeUnreachable
	}
}

func writeReply(w http.ResponseWriter, status int, reply provider.Reply) {
	body, err := provider.EncodeReply(reply)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.Debug("Failed to write response: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to write response: %v", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

// Package api exposes the HTTP interface for the bindery service.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/bindery/internal/config"
	"github.com/printforge/bindery/internal/order"
	"github.com/printforge/bindery/internal/pipeline"
	"github.com/printforge/bindery/internal/telemetry"
)

// Webhook processing can run many minutes for large orders; the request
// timeout has to cover the slowest archive fetch.
const webhookTimeout = 10 * time.Minute

// Server wires HTTP handlers to the order pipeline.
type Server struct {
	router chi.Router
	batch  *pipeline.Batch
	logger *zap.Logger
	cfg    config.Config
}

// NewServer constructs a Server with middleware and routes.
func NewServer(batch *pipeline.Batch, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		batch:  batch,
		logger: logger,
		cfg:    cfg,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(telemetry.Middleware)
	r.Use(timeoutMiddleware(webhookTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/webhooks", func(r chi.Router) {
			if cfg.Server.WebhookSecret != "" {
				r.Use(secretMiddleware(cfg.Server.WebhookSecret))
			}
			r.Post("/render-complete", s.renderComplete)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// renderComplete runs the order pipeline for the announced order and maps
// the derived batch status onto the transport: 200 all succeeded, 207 mixed,
// 502 all failed.
func (s *Server) renderComplete(w http.ResponseWriter, r *http.Request) {
	var ord order.Order
	if err := json.NewDecoder(r.Body).Decode(&ord); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(ord.ID) == "" {
		writeError(w, http.StatusBadRequest, "missing order_id")
		return
	}

	result := s.batch.Run(r.Context(), ord)
	writeJSON(w, statusCode(result.Status()), newOrderResponse(result))
}

func statusCode(status order.Status) int {
	switch status {
	case order.StatusSuccess:
		return http.StatusOK
	case order.StatusPartial:
		return http.StatusMultiStatus
	default:
		return http.StatusBadGateway
	}
}

type orderResponse struct {
	OrderID  string            `json:"order_id"`
	Status   order.Status      `json:"status"`
	Projects []projectResponse `json:"projects"`
}

type projectResponse struct {
	Index     int    `json:"index"`
	Status    string `json:"status"`
	Path      string `json:"path,omitempty"`
	PageCount int    `json:"page_count,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

func newOrderResponse(result order.Result) orderResponse {
	resp := orderResponse{
		OrderID:  result.OrderID,
		Status:   result.Status(),
		Projects: make([]projectResponse, 0, len(result.Outcomes)),
	}
	for _, o := range result.Outcomes {
		pr := projectResponse{Index: o.Index}
		if o.Succeeded() {
			pr.Status = "success"
			pr.Path = o.Path
			pr.PageCount = o.PageCount
		} else {
			pr.Status = "failure"
			pr.Error = o.Err.Error()
			if kind, ok := order.ErrKind(o.Err); ok {
				pr.ErrorKind = string(kind)
			}
		}
		resp.Projects = append(resp.Projects, pr)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func secretMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Webhook-Secret")
			if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Package handler は HTTP/JSON の API を提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ogurasousui/personnel-ledger/internal/core/directory"
	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/relocation"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
)

// RequestObserver は HTTP リクエストの計測先です。
type RequestObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// Dependencies はルーターが利用するユースケースと周辺機能です。
type Dependencies struct {
	Employees  employee.UseCase
	Transfers  transfer.UseCase
	Directory  directory.UseCase
	Relocation relocation.UseCase
	Logger     *slog.Logger
	Observer   RequestObserver
	// Metrics は /metrics で公開するハンドラーです。nil なら公開しません。
	Metrics http.Handler
	// Ready は /healthz で呼ばれる疎通確認です。nil なら常に成功します。
	Ready func(context.Context) error
}

// NewRouter は API 全体のルーターを構築します。
func NewRouter(deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	if deps.Observer != nil {
		r.Use(observe(deps.Observer))
	}

	r.Get("/healthz", healthz(deps.Ready))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	employees := &EmployeeHandler{
		employees:  deps.Employees,
		directory:  deps.Directory,
		relocation: deps.Relocation,
		logger:     deps.Logger,
	}
	transfers := &TransferHandler{
		transfers:  deps.Transfers,
		directory:  deps.Directory,
		relocation: deps.Relocation,
		logger:     deps.Logger,
	}

	r.Route("/api", func(api chi.Router) {
		employees.Register(api)
		transfers.Register(api)
	})

	return r
}

func healthz(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.DebugContext(r.Context(), "http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

func observe(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			observer.ObserveHTTP(r.Method, route, status, time.Since(start))
		})
	}
}

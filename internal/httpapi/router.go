package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Leganyst/slot-engine/internal/service"
)

// Config содержит зависимости служебного HTTP-роутера.
type Config struct {
	Logger *zap.Logger
	// Ready проверяет готовность (пинг БД). nil означает «всегда готов».
	Ready func(ctx context.Context) error
	// LastRenewal отдаёт итог последнего пакетного продления. Без него маршрут не регистрируется.
	LastRenewal func() (time.Time, service.RenewalReport)
	// MetricsHandler по умолчанию promhttp.Handler().
	MetricsHandler http.Handler
}

// New собирает роутер с /healthz, /readyz, /metrics и /renewal/status.
func New(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MetricsHandler == nil {
		cfg.MetricsHandler = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Ready != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Ready(ctx); err != nil {
				cfg.Logger.Warn("readiness check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)

	if cfg.LastRenewal != nil {
		r.Get("/renewal/status", func(w http.ResponseWriter, _ *http.Request) {
			last, report := cfg.LastRenewal()
			body := map[string]any{
				"renewed": len(report.Renewed),
				"failed":  len(report.Failed),
				"skipped": len(report.Skipped),
			}
			if !last.IsZero() {
				body["last_run"] = last.UTC().Format(time.RFC3339)
			}
			writeJSON(w, http.StatusOK, body)
		})
	}

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

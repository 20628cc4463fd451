package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const apiPrefix = "/patrol/api/v1"

// NewRouter 注册巡逻服务路由
func NewRouter(h *PatrolHandler, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(accessLog(logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix(apiPrefix).Subrouter()
	api.HandleFunc("/operational-day", h.GetOperationalDay).Methods(http.MethodGet)
	api.HandleFunc("/guards/{guardId}/board", h.GetGuardBoard).Methods(http.MethodGet)
	api.HandleFunc("/roster", h.GetRoster).Methods(http.MethodGet)
	api.HandleFunc("/roster/export", h.ExportRoster).Methods(http.MethodGet)
	api.HandleFunc("/inspections", h.RecordInspection).Methods(http.MethodPost)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func accessLog(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

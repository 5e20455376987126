package http

import (
	"context"
	"net/http"
	"time"

	"denaro/internal/core"
	"denaro/internal/log"
)

// respond writes data with status, or the mapped error response. A
// persistence failure still carries data, flagged with a warning.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, data any, err error) {
	if resp := FromError(err); resp != nil {
		s.logFailure(r, err)
		resp.Write(w)
		return
	}
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Change applied but not persisted",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	NewJSONResponse().Status(status).Data(data).Warning(err).Write(w)
}

func (s *Server) logFailure(r *http.Request, err error) {
	logger := log.FromContext(r.Context())
	switch {
	case core.IsValidation(err), core.IsFormat(err):
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err)
	default:
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version int64  `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(healthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Version: s.svc.Version(),
	}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, CodeInternal, "backend unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"requests":  s.traceMiddleware.GetMetrics(),
		"rateLimit": s.rateLimiter.GetMetrics(),
		"security":  s.securityDetector.GetMetrics(),
		"cache":     s.svc.CacheStats(),
		"store": map[string]any{
			"version":  s.svc.Version(),
			"revision": s.svc.Revision(),
			"periods":  len(s.svc.Periods()),
		},
	}).Write(w)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.Export()
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	name := "denaro-backup-" + s.svc.Clock().Now().Format("2006-01-02") + ".json"
	NewJSONResponse().
		Header("Content-Disposition", `attachment; filename="`+name+`"`).
		Raw(data).
		Write(w)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	rep, err := s.svc.Import(r.Context(), body)
	s.respond(w, r, http.StatusOK, rep, err)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Reload(r.Context())
	s.respond(w, r, http.StatusOK, map[string]any{
		"version": s.svc.Version(),
		"load":    s.svc.LastLoad(),
	}, err)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	fix := r.URL.Query().Get("fix") != "false"
	drift, err := s.svc.Reconcile(r.Context(), fix)
	s.respond(w, r, http.StatusOK, map[string]any{"fixed": fix, "drift": drift}, err)
}

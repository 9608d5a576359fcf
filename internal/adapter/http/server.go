package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/adapter/xlsx"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dashboard renders pages and exports their data.
type Dashboard interface {
	sharedobs.ReadinessChecker
	Render(ctx context.Context, id domain.PageID) (domain.PageReport, error)
	Export(ctx context.Context, id domain.PageID) (domain.Sheet, error)
}

// Server exposes health, readiness, metrics and the dashboard API.
type Server struct {
	httpServer *http.Server
	dashboard  Dashboard
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the health, metrics and page routes.
func NewServer(addr string, dashboard Dashboard, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Map sections wait on the geocoder for each uncached location.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		dashboard: dashboard,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(dashboard))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/pages", s.handlePages)
	mux.HandleFunc("GET /api/pages/{page}", s.handlePage)
	mux.HandleFunc("GET /api/pages/{page}/sections/{section}", s.handleSection)
	mux.HandleFunc("GET /api/pages/{page}/export.xlsx", s.handleExport)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type pageInfo struct {
	ID    domain.PageID `json:"id"`
	Title string        `json:"title"`
}

func (s *Server) handlePages(w http.ResponseWriter, _ *http.Request) {
	out := make([]pageInfo, len(domain.Pages))
	for i, id := range domain.Pages {
		out[i] = pageInfo{ID: id, Title: id.Title()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	report, ok := s.render(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleSection serves one section as JSON, or as a spreadsheet when the
// section key carries an ".xlsx" suffix.
func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("section")
	key, asXLSX := strings.CutSuffix(key, ".xlsx")

	report, ok := s.render(w, r)
	if !ok {
		return
	}
	section, found := report.Section(key)
	if !found {
		writeError(w, http.StatusNotFound, "unknown section "+key)
		return
	}

	if !asXLSX {
		writeJSON(w, http.StatusOK, section)
		return
	}
	s.writeXLSX(w, xlsx.FileName(string(report.Page), section.Key), section.Sheet())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParsePageID(r.PathValue("page"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	sheet, err := s.dashboard.Export(r.Context(), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeXLSX(w, xlsx.FileName(sheet.Name), sheet)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) (domain.PageReport, bool) {
	id, err := domain.ParsePageID(r.PathValue("page"))
	if err != nil {
		s.writeErr(w, err)
		return domain.PageReport{}, false
	}
	report, err := s.dashboard.Render(r.Context(), id)
	if err != nil {
		s.writeErr(w, err)
		return domain.PageReport{}, false
	}
	return report, true
}

func (s *Server) writeXLSX(w http.ResponseWriter, filename string, sheet domain.Sheet) {
	data, err := xlsx.Encode(sheet)
	if err != nil {
		s.logger.Error("xlsx export failed", "file", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client may have gone away
}

func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

// statusFor maps dashboard errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownPage), errors.Is(err, domain.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedCSV), errors.Is(err, domain.ErrEmptyAfterFilter):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

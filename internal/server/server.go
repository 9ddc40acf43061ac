// Package server exposes the scanner over HTTP with a chi router.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/harrison/nuxview/internal/history"
	"github.com/harrison/nuxview/internal/models"
	"github.com/harrison/nuxview/internal/scanner"
)

// RequestTimeout bounds every request, including synchronous node scans.
const RequestTimeout = 60 * time.Second

// Scanner is the orchestrator surface served over HTTP.
type Scanner interface {
	StartFullScan(path string, maxDepth int, excludes []string) (scanner.StartResult, error)
	GetScanStatus() models.ScanStatus
	ScanOneLevel(ctx context.Context, path string, excludes []string) (*models.Node, error)
	GetCachedTree(ctx context.Context) (*scanner.CachedTree, error)
	Stop() bool
}

// HistoryReader lists recorded scans.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]*history.ScanRun, error)
}

// Logger is the subset of the application logger used for request logs.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogError(message string)
}

// Server is the nuxview HTTP API.
type Server struct {
	router    *chi.Mux
	scanner   Scanner
	history   HistoryReader
	logger    Logger
	staticDir string

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New builds the router. history and logger may be nil; staticDir, when
// set, is served at "/".
func New(svc Scanner, hist HistoryReader, logger Logger, staticDir string) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		scanner:   svc,
		history:   hist,
		logger:    logger,
		staticDir: staticDir,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(RequestTimeout))
	s.router.Use(cors)

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/api/health", s.handleHealth)

	s.router.Route("/api/scan", func(r chi.Router) {
		r.Post("/", s.handleStartScan)
		r.Post("/full", s.handleStartScan)
		r.Get("/status", s.handleStatus)
		r.Post("/stop", s.handleStop)
		r.Post("/node", s.handleScanNode)
		r.Get("/history", s.handleHistory)
	})
	s.router.Get("/api/tree", s.handleTree)

	if s.staticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.server = srv
	s.mu.Unlock()

	s.logInfo(fmt.Sprintf("nuxview listening on http://%s", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown cancels any running full scan and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.scanner.Stop() {
		s.logInfo("cancelled in-flight scan for shutdown")
	}
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

type scanRequest struct {
	Path     string   `json:"path"`
	MaxDepth *int     `json:"max_depth"`
	Excludes []string `json:"excludes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeScanRequest(w, r)
	if !ok {
		return
	}
	depth := 0
	if req.MaxDepth != nil {
		if *req.MaxDepth < 1 {
			writeError(w, http.StatusBadRequest, "max_depth must be a positive integer")
			return
		}
		depth = *req.MaxDepth
	}

	res, err := s.scanner.StartFullScan(req.Path, depth, req.Excludes)
	if err != nil {
		s.writeScanError(w, err)
		return
	}
	if !res.Started {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "already_scanning",
			"progress": res.Status,
		})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":   "started",
		"scanId":   res.ScanID,
		"progress": res.Status,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.scanner.GetScanStatus())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	status := "idle"
	if s.scanner.Stop() {
		status = "stopping"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleScanNode(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeScanRequest(w, r)
	if !ok {
		return
	}
	node, err := s.scanner.ScanOneLevel(r.Context(), req.Path, req.Excludes)
	if err != nil {
		s.writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "node": node})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.scanner.GetCachedTree(r.Context())
	if err != nil {
		s.writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"scans": []*history.ScanRun{}})
		return
	}
	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logError(fmt.Sprintf("read scan history: %v", err))
		writeError(w, http.StatusInternalServerError, "failed to read scan history")
		return
	}
	if runs == nil {
		runs = []*history.ScanRun{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scans": runs})
}

func decodeScanRequest(w http.ResponseWriter, r *http.Request) (scanRequest, bool) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return req, false
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return req, false
	}
	return req, true
}

// writeScanError maps scanner errors onto status codes: a missing path is
// 404, a non-directory 400, anything else 500.
func (s *Server) writeScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scanner.ErrPathNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scanner.ErrNotDirectory):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logError(err.Error())
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) logInfo(message string) {
	if s.logger != nil {
		s.logger.LogInfo(message)
	}
}

func (s *Server) logError(message string) {
	if s.logger != nil {
		s.logger.LogError(message)
	}
}

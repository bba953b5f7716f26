// Package api serves the telescope control surface: telescope state and
// pointing commands, the live spectrum stream, stored observations and the
// rendered charts.
package api

import (
	"bufio"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/salsa-telescope/salsa/internal/db"
	"github.com/salsa-telescope/salsa/internal/httputil"
	"github.com/salsa-telescope/salsa/internal/telescope"
	"github.com/salsa-telescope/salsa/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Default chart size in pixels, overridable per request.
const (
	defaultChartWidth  = 900.0
	defaultChartHeight = 500.0
)

type Server struct {
	scopes *telescope.Registry
	db     *db.DB
}

func NewServer(scopes *telescope.Registry, db *db.DB) *Server {
	return &Server{
		scopes: scopes,
		db:     db,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack is needed so the websocket upgrade works through the middleware.
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/version", s.showVersion)

	mux.HandleFunc("GET /api/telescopes", s.listTelescopes)
	mux.HandleFunc("GET /api/telescopes/{id}", s.showTelescope)
	mux.HandleFunc("POST /api/telescopes/{id}/target", s.setTarget)
	mux.HandleFunc("POST /api/telescopes/{id}/observe", s.startObservation)
	mux.HandleFunc("POST /api/telescopes/{id}/stop", s.stopObservation)
	mux.HandleFunc("GET /api/stream/{id}", s.streamSpectra)

	mux.HandleFunc("GET /api/observations", s.listObservations)
	mux.HandleFunc("POST /api/observations", s.storeObservation)
	mux.HandleFunc("GET /api/observations/{id}", s.showObservation)
	mux.HandleFunc("GET /api/observations/{id}/plot.png", s.observationPlot)
	mux.HandleFunc("GET /api/observations/{id}/readout", s.observationReadout)

	mux.HandleFunc("GET /charts/telescopes/{id}", s.telescopeChart)
	mux.HandleFunc("GET /charts/observations/{id}", s.observationChart)

	return mux
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

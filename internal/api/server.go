// Package api is the HTTP surface of the map server: processor proxy
// endpoints, session control, scrubbing, and static track data.
package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hoardermap/internal/db"
	"hoardermap/internal/engine"
	"hoardermap/internal/httputil"
	"hoardermap/internal/processor"
	"hoardermap/internal/track"
	"hoardermap/internal/units"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	proc    processor.Client
	session *engine.Session
	db      *db.DB
	dataDir string
	units   string
}

func NewServer(proc processor.Client, session *engine.Session, database *db.DB, dataDir, speedUnits string) *Server {
	if !units.IsValid(speedUnits) {
		speedUnits = units.MPS
	}
	return &Server{
		proc:    proc,
		session: session,
		db:      database,
		dataDir: dataDir,
		units:   speedUnits,
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
	mux.HandleFunc("/api/devices", s.listDevices)
	mux.HandleFunc("/api/latest/", s.showLatest)
	mux.HandleFunc("/api/session", s.showSession)
	mux.HandleFunc("/api/session/select", s.selectDevice)
	mux.HandleFunc("/api/session/clear", s.clearSession)
	mux.HandleFunc("/api/scrub", s.scrub)
	mux.HandleFunc("/api/config", s.showConfig)
	if s.dataDir != "" {
		mux.Handle("/data/", http.StripPrefix("/data/", http.FileServer(http.Dir(s.dataDir))))
	}
	return mux
}

// listDevices proxies the processor's device list. When the processor is
// unreachable the local registry serves a degraded list so the UI can
// still offer known devices.
func (s *Server) listDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	devices, err := s.proc.Devices(r.Context())
	if err == nil {
		httputil.WriteJSONOK(w, devices)
		return
	}
	log.Printf("device list fetch failed, falling back to registry: %v", err)

	if s.db == nil {
		httputil.ServiceUnavailable(w, fmt.Sprintf("processor unreachable: %v", err))
		return
	}
	known, dbErr := s.db.Devices()
	if dbErr != nil {
		httputil.ServiceUnavailable(w, fmt.Sprintf("processor unreachable: %v", err))
		return
	}
	fallback := make([]processor.Device, 0, len(known))
	for _, d := range known {
		fallback = append(fallback, processor.Device{DeviceID: d.DeviceID, DeviceName: d.DeviceName})
	}
	httputil.WriteJSONOK(w, fallback)
}

func (s *Server) showLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	deviceID := strings.TrimPrefix(r.URL.Path, "/api/latest/")
	if deviceID == "" || strings.Contains(deviceID, "/") {
		httputil.BadRequest(w, "invalid device id")
		return
	}

	record, err := s.proc.Latest(r.Context(), deviceID)
	if err != nil {
		httputil.ServiceUnavailable(w, fmt.Sprintf("failed to fetch latest record: %v", err))
		return
	}
	httputil.WriteJSONOK(w, record)
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	snapshot := s.session.Snapshot()
	snapshot.SpeedMPS = units.ConvertSpeed(snapshot.SpeedMPS, s.units)
	httputil.WriteJSONOK(w, map[string]any{
		"session": snapshot,
		"units":   s.units,
	})
}

func (s *Server) selectDevice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	deviceID := r.FormValue("device")
	if deviceID == "" {
		// An empty selection clears the session rather than failing, so
		// the UI's deselect is one endpoint away.
		s.session.Clear()
		httputil.WriteJSONOK(w, map[string]string{"status": "cleared"})
		return
	}

	if err := s.session.Select(deviceID); err != nil {
		httputil.NotFound(w, fmt.Sprintf("failed to select device %s: %v", deviceID, err))
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "selected", "device_id": deviceID})
}

func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	s.session.Clear()
	httputil.WriteJSONOK(w, map[string]string{"status": "cleared"})
}

// scrub resolves an auxiliary state for the timestamp in the "t" query
// parameter. Only instants present on the loaded track resolve.
func (s *Server) scrub(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	raw := r.URL.Query().Get("t")
	if raw == "" {
		httputil.BadRequest(w, "missing 't' parameter")
		return
	}
	at, ok := track.ParseInstant(raw)
	if !ok {
		httputil.BadRequest(w, fmt.Sprintf("unparseable timestamp %q", raw))
		return
	}

	state, ok := s.session.Scrub(at)
	if !ok {
		httputil.NotFound(w, "no state recorded at that instant")
		return
	}
	httputil.WriteJSONOK(w, map[string]any{
		"instant": at.Canonical(),
		"state":   state,
	})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	httputil.WriteJSONOK(w, map[string]any{
		"units": s.units,
	})
}

package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"yearcal/internal/capture"
	"yearcal/internal/config"
	"yearcal/internal/ics"
	appLog "yearcal/internal/log"
	"yearcal/internal/model"
	"yearcal/internal/render"
	"yearcal/internal/schedule"
)

// Server serves the rendered calendar of one input file and re-renders it
// on the configured cron schedule.
type Server struct {
	cfg       *config.Config
	inputPath string
	opts      render.Options
	mux       *http.ServeMux

	// capture writes the PNG preview; swapped out in tests.
	capture func(context.Context, capture.Options) error

	mu   sync.RWMutex
	snap *snapshot
}

// snapshot is one successful render of the input file.
type snapshot struct {
	input    model.Input
	entries  []schedule.Entry
	html     string
	ics      string
	loadedAt time.Time
}

// NewServer constructs a Server. Call Reload before serving to have a
// calendar available on the first request.
func NewServer(cfg *config.Config, inputPath string) *Server {
	s := &Server{
		cfg:       cfg,
		inputPath: inputPath,
		opts:      render.OptionsFromConfig(cfg),
		mux:       http.NewServeMux(),
		capture:   capture.CapturePNG,
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server, wrapped with Basic
// Auth when credentials are configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.cfg.BasicAuthEnabled() {
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="yearcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Reload reads the input file and renders it. On failure the previous
// snapshot keeps being served.
func (s *Server) Reload() error {
	in, err := model.LoadInput(s.inputPath)
	if err != nil {
		return err
	}
	entries, err := schedule.Build(in.Year, in.Events)
	if err != nil {
		return err
	}
	doc, err := render.Build(s.opts, in, entries)
	if err != nil {
		return err
	}

	now := time.Now()
	snap := &snapshot{
		input:    in,
		entries:  entries,
		html:     doc.String(),
		ics:      ics.Export(in, entries, now),
		loadedAt: now,
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	appLog.Info("calendar reloaded", "input", s.inputPath, "days", len(entries), "events", len(in.Events))
	return nil
}

func (s *Server) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// refreshPreview writes a PNG of the current snapshot to the configured
// preview path. It is a no-op when no preview path is set.
func (s *Server) refreshPreview(ctx context.Context) error {
	path := s.cfg.Capture.PreviewPath
	if path == "" {
		return nil
	}
	snap := s.current()
	if snap == nil {
		return errors.New("web: calendar not loaded")
	}
	return s.capture(ctx, capture.Options{
		HTML:       snap.html,
		OutputPath: path,
		Width:      s.cfg.Capture.Width,
		Height:     s.cfg.Capture.Height,
		Timeout:    s.cfg.CaptureTimeout(),
	})
}

// refresh reloads the input and, on success, the PNG preview.
func (s *Server) refresh(ctx context.Context) {
	if err := s.Reload(); err != nil {
		appLog.Error("scheduled reload failed", err, "input", s.inputPath)
		return
	}
	if err := s.refreshPreview(ctx); err != nil {
		appLog.Error("preview capture failed", err, "path", s.cfg.Capture.PreviewPath)
	}
}

// Run serves HTTP on cfg.Listen and reloads on cfg.RefreshCron until ctx
// is cancelled, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.RefreshCron, func() { s.refresh(ctx) }); err != nil {
		return err
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	go func() {
		if err := s.refreshPreview(ctx); err != nil {
			appLog.Error("preview capture failed", err, "path", s.cfg.Capture.PreviewPath)
		}
	}()

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server",
			"listen", "http://"+s.cfg.Listen,
			"refresh", s.cfg.RefreshCron,
			"basic_auth", s.cfg.BasicAuthEnabled(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/calendar", s.handleCalendar)
	s.mux.HandleFunc("/calendar.ics", s.handleICS)
	s.mux.HandleFunc("/calendar.png", s.handlePreview)
	s.mux.HandleFunc("/api/schedule", s.handleSchedule)
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		s.handleCalendar(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	snap := s.current()
	if snap == nil {
		http.Error(w, "calendar not loaded", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(snap.html))
}

func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	snap := s.current()
	if snap == nil {
		http.Error(w, "calendar not loaded", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(snap.ics))
}

// handlePreview serves the PNG written by refreshPreview; 404 when previews
// are off or none has been captured yet.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	path := s.cfg.Capture.PreviewPath
	if path == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

// scheduleResponse is the JSON response shape for /api/schedule.
type scheduleResponse struct {
	Title    string    `json:"title"`
	Year     int       `json:"year"`
	Events   []string  `json:"events"`
	Days     []dayDTO  `json:"days"`
	LoadedAt time.Time `json:"loaded_at"`
}

// dayDTO is one schedule entry; Event is omitted on free days.
type dayDTO struct {
	Date  string `json:"date"`
	Event *int   `json:"event,omitempty"`
}

func (s *Server) handleSchedule(w http.ResponseWriter, _ *http.Request) {
	snap := s.current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "calendar not loaded")
		return
	}

	resp := scheduleResponse{
		Title:    snap.input.Title,
		Year:     snap.input.Year,
		Events:   make([]string, 0, len(snap.input.Events)),
		Days:     make([]dayDTO, 0, len(snap.entries)),
		LoadedAt: snap.loadedAt,
	}
	for _, ev := range snap.input.Events {
		resp.Events = append(resp.Events, ev.Name)
	}
	for _, e := range snap.entries {
		d := dayDTO{Date: e.Date.Format(time.DateOnly)}
		if idx, ok := e.EventIndex(); ok {
			d.Event = &idx
		}
		resp.Days = append(resp.Days, d)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

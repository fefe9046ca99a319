package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"itsrazy/internal/feed"
	"itsrazy/internal/ics"
	appLog "itsrazy/internal/log"
)

//go:embed templates/index.html.tmpl
var templatesFS embed.FS

// Czech abbreviations, Sunday first like time.Weekday.
var weekdays = [...]string{"Ne", "Po", "Út", "St", "Čt", "Pá", "So"}

var months = [...]string{
	"leden", "únor", "březen", "duben", "květen", "červen",
	"červenec", "srpen", "září", "říjen", "listopad", "prosinec",
}

var indexTmpl = template.Must(template.New("index.html.tmpl").Funcs(template.FuncMap{
	"weekday":   func(t time.Time) string { return weekdays[t.Weekday()] },
	"monthName": func(m time.Month) string { return months[m-1] },
}).ParseFS(templatesFS, "templates/index.html.tmpl"))

// Server serves the event listing, its JSON form and an iCalendar feed.
// Every request rebuilds the feed from the data directory.
type Server struct {
	pipeline  feed.Pipeline
	siteTitle string
	now       func() time.Time
	mux       *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(p feed.Pipeline, siteTitle string) *Server {
	s := &Server{
		pipeline:  p,
		siteTitle: siteTitle,
		now:       time.Now,
		mux:       http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
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
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// buildFeed runs the pipeline and writes a 500 response on failure.
func (s *Server) buildFeed(w http.ResponseWriter) (feed.Feed, bool) {
	f, err := s.pipeline.Run(s.now())
	if err != nil {
		appLog.Error("feed build failed", err, "data_dir", s.pipeline.DataDir)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return feed.Feed{}, false
	}
	return f, true
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	f, ok := s.buildFeed(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	f, ok := s.buildFeed(w)
	if !ok {
		return
	}
	body := ics.Export(f.Events, ics.ExportOptions{Name: s.siteTitle, Stamp: s.now()})
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

type indexData struct {
	Title string
	Feed  feed.Feed
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	f, ok := s.buildFeed(w)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, indexData{Title: s.siteTitle, Feed: f}); err != nil {
		appLog.Error("index render failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
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

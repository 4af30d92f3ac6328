package rest

import (
	"LinguaChat/internal/adapter/shell"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Ensure interface compliance
var _ shell.Server = (*Server)(nil)

// Config параметры REST оболочки.
type Config struct {
	BindAddr string
	// Должен покрывать таймаут запроса к модели
	WriteTimeout time.Duration
}

type Server struct {
	*shell.HTTPServer
	cfg    Config
	tutor  shell.Tutor
	logger *zap.SugaredLogger
}

func NewServer(cfg Config, tutor shell.Tutor, logger *zap.SugaredLogger) *Server {
	if cfg.BindAddr == "" {
		cfg.BindAddr = "127.0.0.1:8080"
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 90 * time.Second
	}
	s := &Server{cfg: cfg, tutor: tutor, logger: logger}

	s.HTTPServer = shell.NewHTTPServer("rest", &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}, logger)
	return s
}

// Handler возвращает маршруты: JSON API и HTML страницу.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /new-session", s.handleNewSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /sessions/{id}/reset", s.handleReset)

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("POST /{$}", s.handlePageMessage)
	mux.HandleFunc("POST /new", s.handlePageNew)
	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debugw("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"duration", time.Since(start).String(),
		)
	})
}

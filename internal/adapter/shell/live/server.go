// Package live реализует реактивный UI: одна страница и WebSocket, каждое соединение владеет своей сессией.
package live

import (
	"LinguaChat/internal/adapter/shell"
	_ "embed"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Ensure interface compliance
var _ shell.Server = (*Server)(nil)

//go:embed page.html
var pageHTML []byte

type Config struct {
	BindAddr string
	// Таймаут одного хода (запрос к модели + классификация)
	TurnTimeout time.Duration
}

type Server struct {
	*shell.HTTPServer
	cfg      Config
	tutor    shell.Tutor
	logger   *zap.SugaredLogger
	upgrader websocket.Upgrader
}

func NewServer(cfg Config, tutor shell.Tutor, logger *zap.SugaredLogger) *Server {
	if cfg.BindAddr == "" {
		cfg.BindAddr = "127.0.0.1:8081"
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = 90 * time.Second
	}
	s := &Server{
		cfg:    cfg,
		tutor:  tutor,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	s.HTTPServer = shell.NewHTTPServer("live", &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, logger)
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(pageHTML)
}

package shell

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Ensure interface compliance
var _ Server = (*HTTPServer)(nil)

// shutdownTimeout ограничивает graceful shutdown, даже если контекст вызывающего без дедлайна.
const shutdownTimeout = 5 * time.Second

// HTTPServer реализует Server поверх http.Server. Обе оболочки встраивают его
// и отличаются только обработчиками.
type HTTPServer struct {
	name   string
	srv    *http.Server
	logger *zap.SugaredLogger

	mu       sync.Mutex
	listener net.Listener
}

func NewHTTPServer(name string, srv *http.Server, logger *zap.SugaredLogger) *HTTPServer {
	return &HTTPServer{name: name, srv: srv, logger: logger}
}

// Start занимает адрес синхронно: ошибка bind возвращается сразу, а не только в логе.
// Повторный вызов на запущенном сервере ничего не делает.
func (h *HTTPServer) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return fmt.Errorf("%s listen %s: %w", h.name, h.srv.Addr, err)
	}
	h.listener = ln

	go func() {
		h.logger.Infow("Server listening", "server", h.name, "addr", ln.Addr().String())
		if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Errorw("Server stopped with error", "server", h.name, "error", err)
			return
		}
		h.logger.Infow("Server stopped", "server", h.name)
	}()

	go func() {
		<-ctx.Done()
		_ = h.Stop(context.WithoutCancel(ctx))
	}()
	return nil
}

// Stop не ждёт hijacked соединений (WebSocket): они закрываются вместе с процессом.
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return nil
	}
	h.listener = nil

	shutdownCtx, cancel := context.WithTimeoutCause(ctx, shutdownTimeout, fmt.Errorf("%s shutdown timeout", h.name))
	defer cancel()
	if err := h.srv.Shutdown(shutdownCtx); err != nil {
		h.logger.Warnw("graceful shutdown error", "server", h.name, "error", err)
		return h.srv.Close()
	}
	return nil
}

// Addr возвращает фактический адрес после Start (важно для ":0"), до него настроенный.
func (h *HTTPServer) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener != nil {
		return h.listener.Addr().String()
	}
	return h.srv.Addr
}

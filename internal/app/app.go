// Package app собирает компоненты для обеих оболочек: логгер, шлюз модели, хранилище и оркестратор.
package app

import (
	"LinguaChat/internal/adapter/shell"
	"LinguaChat/internal/ai"
	"LinguaChat/internal/config"
	"LinguaChat/internal/service/level"
	"LinguaChat/internal/service/prompt"
	"LinguaChat/internal/service/session"
	"LinguaChat/internal/service/tutor"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// NewLogger создаёт zap логгер: development в режиме дебага, иначе production.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewGateway возвращает заглушку при AI_STUB, иначе клиента Responses API.
func NewGateway(cfg *config.Config, logger *zap.SugaredLogger) ai.Gateway {
	if cfg.AIStub {
		logger.Warnw("AI_STUB включён, запросы в OpenAI не отправляются")
		return ai.NewStubClient()
	}
	client := ai.NewOpenAIClient(ai.Options{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.MaxRetries,
	})
	return ai.NewResponsesGateway(client, cfg.OpenAIModel, cfg.RequestTimeout, logger)
}

// NewTutor собирает оркестратор. Хранилище создаётся здесь один раз на процесс.
func NewTutor(cfg *config.Config, gateway ai.Gateway, logger *zap.SugaredLogger) *tutor.Tutor {
	store := session.NewStore()
	detector := level.NewDetector(gateway, cfg.Detection(), logger)
	composer := prompt.NewComposer(cfg.TutorPersona)
	return tutor.New(store, gateway, detector, composer, logger)
}

// TurnTimeout возвращает верхнюю границу хода (классификация и ответ) с запасом.
func TurnTimeout(cfg *config.Config) time.Duration {
	if cfg.RequestTimeout <= 0 {
		return 0
	}
	return 2*cfg.RequestTimeout + 10*time.Second
}

// Run запускает сервер и блокируется до Ctrl+C / SIGTERM.
func Run(srv shell.Server, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	logger.Infow("Shutting down...", "addr", srv.Addr())

	stopCtx, cancel := context.WithTimeoutCause(context.Background(), 5*time.Second, errors.New("shutdown timeout"))
	defer cancel()
	return srv.Stop(stopCtx)
}

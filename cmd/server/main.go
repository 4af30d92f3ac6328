package main

import (
	"LinguaChat/internal/adapter/shell/rest"
	"LinguaChat/internal/app"
	"LinguaChat/internal/config"
	"log"
)

// REST оболочка: JSON API (/chat, /new-session) и HTML страница с формой.
func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := app.NewLogger(cfg.DebugMode)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	sugar.Infow(
		"Starting REST server",
		"DebugMode", cfg.DebugMode,
		"model", cfg.OpenAIModel,
		"stub", cfg.AIStub,
	)

	tutor := app.NewTutor(cfg, app.NewGateway(cfg, sugar), sugar)
	srv := rest.NewServer(rest.Config{
		BindAddr:     cfg.ServerBindAddr,
		WriteTimeout: app.TurnTimeout(cfg),
	}, tutor, sugar)

	if err := app.Run(srv, sugar); err != nil {
		sugar.Errorw("server stopped with error", "error", err)
	}
	sugar.Infow("server stopped")
}

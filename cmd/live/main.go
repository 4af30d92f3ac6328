package main

import (
	"LinguaChat/internal/adapter/shell/live"
	"LinguaChat/internal/app"
	"LinguaChat/internal/config"
	"log"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// создаём регистратор zap
	logger, err := app.NewLogger(cfg.DebugMode)
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	sugar.Infow(
		"Starting live UI",
		"DebugMode", cfg.DebugMode,
		"model", cfg.OpenAIModel,
		"stub", cfg.AIStub,
	)

	tutor := app.NewTutor(cfg, app.NewGateway(cfg, sugar), sugar)
	srv := live.NewServer(live.Config{
		BindAddr:    cfg.LiveBindAddr,
		TurnTimeout: app.TurnTimeout(cfg),
	}, tutor, sugar)

	if err := app.Run(srv, sugar); err != nil {
		sugar.Errorw("live UI stopped with error", "error", err)
	}
}

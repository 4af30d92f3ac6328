package config

import (
	"LinguaChat/internal/service/level"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// ErrMissingAPIKey: ключ OpenAI не задан, а заглушка не включена. Фатально при старте.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

type Config struct {
	DebugMode bool `env:"DEBUG_MODE"` //Режим дебага

	// OpenAI
	OpenAIAPIKey   string        `env:"OPENAI_API_KEY"`         // Ключ API, без него работает только заглушка
	OpenAIModel    string        `env:"OPENAI_MODEL"`           // Модель для диалога и классификации
	OpenAIBaseURL  string        `env:"OPENAI_BASE_URL"`        // Альтернативный endpoint (прокси, совместимые API)
	RequestTimeout time.Duration `env:"OPENAI_REQUEST_TIMEOUT"` // Таймаут одного запроса к модели
	MaxRetries     int           `env:"OPENAI_MAX_RETRIES"`     // Повторы SDK при 429/5xx
	AIStub         bool          `env:"AI_STUB"`                // Отвечать заглушкой без обращения к OpenAI

	// Определение уровня
	DefaultLanguage string `env:"DEFAULT_LANGUAGE"` // Язык, если модель назвала неподдерживаемый
	DefaultLevel    string `env:"DEFAULT_LEVEL"`    // Уровень, если ответ не распознан; пусто: по длине сообщений

	TutorPersona string `env:"TUTOR_PERSONA"` // Необязательная преамбула системной инструкции

	// Оболочки
	ServerBindAddr string `env:"SERVER_BIND_ADDR"` // REST + HTML шаблоны
	LiveBindAddr   string `env:"LIVE_BIND_ADDR"`   // Реактивный UI на WebSocket
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode:       false,
		OpenAIModel:     "gpt-4o",
		RequestTimeout:  60 * time.Second,
		MaxRetries:      2,
		DefaultLanguage: string(level.English),
		DefaultLevel:    "",
		ServerBindAddr:  "127.0.0.1:8080",
		LiveBindAddr:    "127.0.0.1:8081",
	}
}

// NewConfig загружает конфигурацию приложения из .env, окружения и os.Args.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()
	return Load(os.Args[0], os.Args[1:])
}

// Load стартует с дефолтов, затем перекрывает окружением и флагами.
func Load(name string, args []string) (*Config, error) {
	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага (подробные логи)")
	fs.StringVar(&cfg.OpenAIModel, "model", cfg.OpenAIModel, "модель OpenAI")
	fs.StringVar(&cfg.OpenAIBaseURL, "openai-base-url", cfg.OpenAIBaseURL, "альтернативный endpoint OpenAI API")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "таймаут запроса к модели, напр. 30s")
	fs.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "повторы запроса при 429/5xx")
	fs.BoolVar(&cfg.AIStub, "ai-stub", cfg.AIStub, "отвечать заглушкой без обращения к OpenAI")
	fs.StringVar(&cfg.DefaultLanguage, "default-language", cfg.DefaultLanguage, "язык по умолчанию: Turkish|English|German|French|Italian")
	fs.StringVar(&cfg.DefaultLevel, "default-level", cfg.DefaultLevel, "уровень по умолчанию A1..C2; пусто: по длине сообщений")
	fs.StringVar(&cfg.TutorPersona, "persona", cfg.TutorPersona, "преамбула системной инструкции")
	fs.StringVar(&cfg.ServerBindAddr, "server-bind-addr", cfg.ServerBindAddr, "адрес REST сервера")
	fs.StringVar(&cfg.LiveBindAddr, "live-bind-addr", cfg.LiveBindAddr, "адрес live UI")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные параметры и нормализует язык и уровень.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" && !c.AIStub {
		return ErrMissingAPIKey
	}
	if c.DefaultLanguage != "" {
		l, ok := level.ParseLanguage(c.DefaultLanguage)
		if !ok {
			return fmt.Errorf("unsupported DEFAULT_LANGUAGE %q", c.DefaultLanguage)
		}
		c.DefaultLanguage = string(l)
	}
	if c.DefaultLevel != "" {
		lv, ok := level.ParseCEFR(c.DefaultLevel)
		if !ok {
			return fmt.Errorf("invalid DEFAULT_LEVEL %q", c.DefaultLevel)
		}
		c.DefaultLevel = string(lv)
	}
	return nil
}

// Detection возвращает запасные значения для детектора уровня.
func (c *Config) Detection() level.Config {
	return level.Config{
		DefaultLanguage: level.Language(c.DefaultLanguage),
		DefaultLevel:    level.CEFR(c.DefaultLevel),
	}
}

// Package shell описывает общий контракт оболочек, принимающих реплики пользователя по HTTP.
package shell

import (
	"LinguaChat/internal/ai"
	"LinguaChat/internal/service/session"
	"LinguaChat/internal/service/tutor"
	"context"
	"errors"
	"net/http"
)

// Server описывает транспортную оболочку над tutor.Tutor.
// Реализации: REST + HTML шаблоны, реактивный UI на WebSocket.
type Server interface {
	// Start запускает сервер в отдельной горутине и немедленно возвращается.
	// Должен реагировать на отмену контекста и завершать работу.
	Start(ctx context.Context) error

	// Stop инициирует graceful shutdown с использованием контекста.
	Stop(ctx context.Context) error

	// Addr возвращает адрес, на котором слушает сервер.
	Addr() string
}

// RetryMessage: единственный текст ошибки модели, который видит пользователь.
const RetryMessage = "Something went wrong, please try again."

// Status переводит ошибку хода в HTTP статус и текст для пользователя.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, session.ErrInvalidTurn):
		return http.StatusBadRequest, "message must not be empty"
	}
	switch ai.KindOf(err) {
	case ai.KindTimeout:
		return http.StatusGatewayTimeout, RetryMessage
	case ai.KindRateLimit:
		return http.StatusServiceUnavailable, RetryMessage
	case ai.KindAuth, ai.KindMalformed, ai.KindUpstream:
		return http.StatusBadGateway, RetryMessage
	}
	return http.StatusInternalServerError, RetryMessage
}

// Tutor: то, что оболочкам нужно от сервиса оркестрации.
type Tutor interface {
	NewSession() session.Session
	Session(id string) (session.Session, error)
	Reset(id string) (session.Session, error)
	End(id string)
	Turn(ctx context.Context, id string, text string) (tutor.Reply, error)
}

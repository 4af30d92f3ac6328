package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/openai/openai-go/v3"
)

// Kind: категория ошибки обращения к модели.
type Kind int

const (
	KindUnknown Kind = iota
	// Сетевая ошибка или таймаут
	KindTimeout
	// Отсутствующий или неверный API ключ
	KindAuth
	// Превышен лимит запросов или квота
	KindRateLimit
	// Ответ не удалось разобрать или он пустой
	KindMalformed
	// Прочие ошибки провайдера (4xx/5xx)
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindMalformed:
		return "malformed"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Error: ошибка шлюза модели с категорией.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model gateway %s error (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model gateway %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrEmptyReply: модель ответила без текста.
var ErrEmptyReply = errors.New("empty model reply")

// KindOf возвращает категорию ошибки; для ошибок не из шлюза: KindUnknown.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindUnknown
}

// classify переводит ошибку openai-go/транспорта в *Error.
func classify(err error) *Error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &Error{Kind: kindForStatus(apiErr.StatusCode), StatusCode: apiErr.StatusCode, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	// Всё остальное: ошибка декодирования ответа
	return &Error{Kind: KindMalformed, Err: err}
}

func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindUpstream
	}
}

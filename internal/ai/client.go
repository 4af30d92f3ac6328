package ai

import (
	"LinguaChat/internal/service/session"
	"context"
)

// Gateway: единственная точка обращения к модели. Все реализации взаимозаменяемы.
type Gateway interface {
	// Send отправляет системную инструкцию и весь диалог, возвращает ответ ассистента.
	// Ошибки возвращаются как *Error.
	Send(ctx context.Context, systemPrompt string, transcript []session.Turn) (string, error)
	// Classify: одноразовый запрос без истории (определение языка и уровня).
	Classify(ctx context.Context, instructions string, text string) (string, error)
}

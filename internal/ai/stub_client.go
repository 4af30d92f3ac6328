package ai

import (
	"LinguaChat/internal/service/session"
	"context"
	"fmt"
)

// StubClient заглушка, которая не делает реальных запросов (AI_STUB=true).
// Отвечает эхом последней реплики пользователя, классификация: фиксированный JSON.
type StubClient struct {
	Classification string
}

func NewStubClient() *StubClient {
	return &StubClient{Classification: `{"language": "English", "level": "B1"}`}
}

func (c *StubClient) Send(_ context.Context, _ string, transcript []session.Turn) (string, error) {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == session.RoleUser {
			return fmt.Sprintf("запрос получен: %s", transcript[i].Text), nil
		}
	}
	return "запрос получен", nil
}

func (c *StubClient) Classify(_ context.Context, _, _ string) (string, error) {
	return c.Classification, nil
}

// Package session хранит диалоги в памяти процесса: ID → реплики и результат определения уровня.
package session

import (
	"LinguaChat/internal/service/level"
	"time"
)

// Role: автор реплики.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) valid() bool { return r == RoleUser || r == RoleAssistant }

// Turn: одна реплика диалога. После добавления не изменяется.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session: снимок состояния диалога.
type Session struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Turns     []Turn    `json:"turns"`
	// nil, пока уровень не определён
	Detection *level.Detection `json:"detection,omitempty"`
	// Сколько раз запускалась классификация (включая неудачные)
	DetectionAttempts int `json:"detection_attempts"`
}

// UserMessages возвращает тексты пользователя по порядку.
func (s Session) UserMessages() []string {
	out := make([]string, 0, len(s.Turns))
	for _, t := range s.Turns {
		if t.Role == RoleUser {
			out = append(out, t.Text)
		}
	}
	return out
}

// Detected сообщает, установлен ли результат определения.
func (s Session) Detected() bool { return s.Detection != nil }

func (s *Session) clone() Session {
	c := *s
	c.Turns = make([]Turn, len(s.Turns))
	copy(c.Turns, s.Turns)
	if s.Detection != nil {
		d := *s.Detection
		c.Detection = &d
	}
	return c
}

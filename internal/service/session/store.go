package session

import (
	"LinguaChat/internal/service/level"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrInvalidTurn     = errors.New("invalid turn")
	ErrAlreadyDetected = errors.New("detection already set")
)

// Store: потокобезопасное хранилище сессий в памяти. Создаётся один раз при старте
// процесса и передаётся обработчикам явно. Вытеснения нет: сессии живут до Delete или рестарта.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session), now: time.Now}
}

// Create создаёт пустую сессию и возвращает её ID.
func (s *Store) Create() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &Session{ID: id, CreatedAt: s.now()}
	s.mu.Unlock()
	return id
}

// Get возвращает копию сессии.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess.clone(), nil
}

// AppendTurn добавляет реплику в конец диалога. Пустой текст и неизвестная роль отклоняются.
func (s *Store) AppendTurn(id string, role Role, text string) error {
	if !role.valid() || strings.TrimSpace(text) == "" {
		return ErrInvalidTurn
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Turns = append(sess.Turns, Turn{Role: role, Text: text, At: s.now()})
	return nil
}

// Reset очищает реплики и результат определения, ID сохраняется.
func (s *Store) Reset(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	sess.Turns = nil
	sess.Detection = nil
	sess.DetectionAttempts = 0
	return sess.clone(), nil
}

// Delete удаляет сессию; отсутствие сессии ошибкой не считается.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// SetDetection записывает результат один раз. Повторная запись возвращает ErrAlreadyDetected.
func (s *Store) SetDetection(id string, det level.Detection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if sess.Detection != nil {
		return ErrAlreadyDetected
	}
	sess.Detection = &det
	return nil
}

// MarkDetectionAttempt увеличивает счётчик попыток классификации и возвращает его.
func (s *Store) MarkDetectionAttempt(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return 0, ErrNotFound
	}
	sess.DetectionAttempts++
	return sess.DetectionAttempts, nil
}

// UserMessages возвращает тексты пользователя по порядку.
func (s *Store) UserMessages(id string) ([]string, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.UserMessages(), nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	l := len(s.sessions)
	s.mu.Unlock()
	return l
}

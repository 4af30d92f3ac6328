// Package tutor содержит общий сценарий обработки реплики для обеих оболочек (REST и live).
package tutor

import (
	"LinguaChat/internal/service/level"
	"LinguaChat/internal/service/session"
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Gateway interface {
	Send(ctx context.Context, systemPrompt string, transcript []session.Turn) (string, error)
}

type Detector interface {
	// Detect возвращает ok=false, пока сообщений меньше порога.
	Detect(ctx context.Context, userMessages []string) (level.Detection, bool, error)
}

type Composer interface {
	Compose(det *level.Detection) string
}

// Reply: результат одного хода.
type Reply struct {
	SessionID string
	Text      string
	// nil, пока уровень не определён
	Detection *level.Detection
}

type Tutor struct {
	store    *session.Store
	gateway  Gateway
	detector Detector
	composer Composer
	logger   *zap.SugaredLogger
}

// New создаёт сервис оркестрации.
func New(store *session.Store, gateway Gateway, detector Detector, composer Composer, logger *zap.SugaredLogger) *Tutor {
	return &Tutor{store: store, gateway: gateway, detector: detector, composer: composer, logger: logger}
}

// NewSession создаёт пустую сессию.
func (t *Tutor) NewSession() session.Session {
	id := t.store.Create()
	sess, err := t.store.Get(id)
	if err != nil {
		// сессию успели удалить между Create и Get: отдаём пустую с тем же ID
		t.logger.Warnw("Новая сессия не найдена в хранилище", "session", id, "error", err)
		sess = session.Session{ID: id}
	}
	t.logger.Infow("Новая сессия", "session", id, "sessions", t.store.Len())
	return sess
}

func (t *Tutor) Session(id string) (session.Session, error) {
	return t.store.Get(id)
}

// Reset очищает диалог, ID сохраняется.
func (t *Tutor) Reset(id string) (session.Session, error) {
	sess, err := t.store.Reset(id)
	if err == nil {
		t.logger.Infow("Сессия сброшена", "session", id)
	}
	return sess, err
}

// End удаляет сессию.
func (t *Tutor) End(id string) {
	t.store.Delete(id)
	t.logger.Debugw("Сессия удалена", "session", id, "sessions", t.store.Len())
}

// Turn обрабатывает реплику пользователя:
// реплика → (определение уровня) → инструкция → модель → ответ ассистента.
// Ошибка модели возвращается как есть; реплика пользователя при этом остаётся в истории,
// ответ ассистента не добавляется. Ошибка определения уровня не прерывает ход.
func (t *Tutor) Turn(ctx context.Context, id string, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if err := t.store.AppendTurn(id, session.RoleUser, text); err != nil {
		return Reply{}, err
	}
	sess, err := t.store.Get(id)
	if err != nil {
		return Reply{}, err
	}

	if !sess.Detected() {
		if det, ok := t.detect(ctx, sess); ok {
			sess.Detection = &det
		}
	}

	system := t.composer.Compose(sess.Detection)

	start := time.Now()
	answer, err := t.gateway.Send(ctx, system, sess.Turns)
	if err != nil {
		t.logger.Errorw("Ход не выполнен", "session", id, "turns", len(sess.Turns), "error", err)
		return Reply{}, err
	}
	if err := t.store.AppendTurn(id, session.RoleAssistant, answer); err != nil {
		return Reply{}, err
	}
	t.logger.Infow("Ход выполнен", "session", id, "turns", len(sess.Turns)+1, "duration", time.Since(start).String())

	return Reply{SessionID: id, Text: answer, Detection: sess.Detection}, nil
}

func (t *Tutor) detect(ctx context.Context, sess session.Session) (level.Detection, bool) {
	msgs := sess.UserMessages()
	if len(msgs) < level.Threshold {
		return level.Detection{}, false
	}
	attempt, err := t.store.MarkDetectionAttempt(sess.ID)
	if err != nil {
		// сессия удалена во время хода: сохранить результат всё равно будет некуда
		t.logger.Warnw("Не удалось отметить попытку определения уровня", "session", sess.ID, "error", err)
		return level.Detection{}, false
	}

	det, ok, err := t.detector.Detect(ctx, msgs)
	if err != nil {
		t.logger.Warnw("Уровень не определён, повторим на следующем ходе", "session", sess.ID, "attempt", attempt, "error", err)
		return level.Detection{}, false
	}
	if !ok {
		return level.Detection{}, false
	}

	if err := t.store.SetDetection(sess.ID, det); err != nil {
		if errors.Is(err, session.ErrAlreadyDetected) {
			// параллельный ход успел раньше: берём сохранённое
			if cur, gerr := t.store.Get(sess.ID); gerr == nil && cur.Detection != nil {
				return *cur.Detection, true
			}
		}
		t.logger.Warnw("Не удалось сохранить уровень", "session", sess.ID, "error", err)
		return level.Detection{}, false
	}
	t.logger.Infow("Уровень сессии зафиксирован", "session", sess.ID, "language", det.Language, "level", det.Level, "attempt", attempt)
	return det, true
}

package live

import (
	"LinguaChat/internal/adapter/shell"
	"LinguaChat/internal/service/level"
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
)

const maxFrameBytes = 64 << 10

// Типы кадров
const (
	frameMessage = "message"
	frameReset   = "reset"
	frameNew     = "new"

	frameSession = "session"
	frameReply   = "reply"
	frameError   = "error"
)

type inFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type outFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text,omitempty"`
	Language  string `json:"language,omitempty"`
	Level     string `json:"level,omitempty"`
}

// handleWS обслуживает одно соединение. Кадры обрабатываются последовательно,
// поэтому у сессии всегда один писатель. При закрытии сокета сессия удаляется.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	sessID := s.tutor.NewSession().ID
	defer func() { s.tutor.End(sessID) }()
	s.logger.Infow("Live client connected", "remote", r.RemoteAddr, "session", sessID)

	if err := conn.WriteJSON(outFrame{Type: frameSession, SessionID: sessID}); err != nil {
		return
	}

	for {
		var in inFrame
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warnw("websocket read error", "session", sessID, "error", err)
			}
			s.logger.Infow("Live client disconnected", "session", sessID)
			return
		}

		var out outFrame
		switch in.Type {
		case frameMessage:
			out = s.turn(r.Context(), sessID, in.Text)
		case frameReset:
			if _, err := s.tutor.Reset(sessID); err != nil {
				out = outFrame{Type: frameError, Text: shell.RetryMessage}
				break
			}
			out = outFrame{Type: frameSession, SessionID: sessID}
		case frameNew:
			s.tutor.End(sessID)
			sessID = s.tutor.NewSession().ID
			out = outFrame{Type: frameSession, SessionID: sessID}
		default:
			out = outFrame{Type: frameError, Text: "unknown frame type"}
		}

		if err := conn.WriteJSON(out); err != nil {
			s.logger.Warnw("websocket write error", "session", sessID, "error", err)
			return
		}
	}
}

func (s *Server) turn(parent context.Context, sessID string, text string) outFrame {
	ctx, cancel := context.WithTimeoutCause(parent, s.cfg.TurnTimeout, errors.New("live turn timeout"))
	defer cancel()

	reply, err := s.tutor.Turn(ctx, sessID, text)
	if err != nil {
		_, msg := shell.Status(err)
		return outFrame{Type: frameError, SessionID: sessID, Text: msg}
	}
	return replyFrame(reply.SessionID, reply.Text, reply.Detection)
}

func replyFrame(id string, text string, det *level.Detection) outFrame {
	out := outFrame{Type: frameReply, SessionID: id, Text: text}
	if det != nil {
		out.Language = string(det.Language)
		out.Level = string(det.Level)
	}
	return out
}

package rest

import (
	"LinguaChat/internal/adapter/shell"
	"LinguaChat/internal/service/level"
	"LinguaChat/internal/service/session"
	"embed"
	"html/template"
	"net/http"
)

const sessionCookie = "session_id"

//go:embed templates/*.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type pageData struct {
	SessionID string
	Turns     []session.Turn
	Detection *level.Detection
	Error     string
	Draft     string
}

// currentSession берёт сессию из cookie или создаёт новую.
func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) session.Session {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if sess, err := s.tutor.Session(c.Value); err == nil {
			return sess
		}
	}
	sess := s.tutor.NewSession()
	setSessionCookie(w, sess.ID)
	return sess
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w, r)
	s.render(w, http.StatusOK, pageData{SessionID: sess.ID, Turns: sess.Turns, Detection: sess.Detection})
}

// handlePageMessage: отправка формы; при успехе POST/Redirect/GET.
func (s *Server) handlePageMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := s.currentSession(w, r)
	text := r.PostFormValue("message")

	if _, err := s.tutor.Turn(r.Context(), sess.ID, text); err != nil {
		status, msg := shell.Status(err)
		if status >= http.StatusInternalServerError {
			s.logger.Warnw("page turn failed", "session", sess.ID, "status", status, "error", err)
		}
		// История могла измениться (реплика пользователя сохраняется)
		if cur, gerr := s.tutor.Session(sess.ID); gerr == nil {
			sess = cur
		}
		s.render(w, status, pageData{SessionID: sess.ID, Turns: sess.Turns, Detection: sess.Detection, Error: msg, Draft: text})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handlePageNew(w http.ResponseWriter, r *http.Request) {
	sess := s.tutor.NewSession()
	setSessionCookie(w, sess.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, data); err != nil {
		s.logger.Errorw("template render failed", "error", err)
	}
}

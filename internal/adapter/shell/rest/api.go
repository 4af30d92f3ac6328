package rest

import (
	"LinguaChat/internal/adapter/shell"
	"LinguaChat/internal/service/session"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

const maxBodyBytes = 64 << 10

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID        string `json:"session_id"`
	Reply            string `json:"reply"`
	DetectedLanguage string `json:"detected_language,omitempty"`
	DetectedLevel    string `json:"detected_level,omitempty"`
}

type newSessionResponse struct {
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session_id is required"})
		return
	}

	reply, err := s.tutor.Turn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		status, msg := shell.Status(err)
		if status >= http.StatusInternalServerError {
			s.logger.Warnw("chat turn failed", "session", req.SessionID, "status", status, "error", err)
		}
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	resp := chatResponse{SessionID: reply.SessionID, Reply: reply.Text}
	if reply.Detection != nil {
		resp.DetectedLanguage = string(reply.Detection.Language)
		resp.DetectedLevel = string(reply.Detection.Level)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	sess := s.tutor.NewSession()
	writeJSON(w, http.StatusOK, newSessionResponse{SessionID: sess.ID})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.tutor.Session(r.PathValue("id"))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.tutor.Reset(r.PathValue("id"))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}
	s.logger.Errorw("session lookup failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: shell.RetryMessage})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

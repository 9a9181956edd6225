package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

type chatRequest struct {
	Message   *string `json:"message"`
	SessionID *string `json:"session_id"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		return
	}

	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("session_id", *req.SessionID).Msg("chat turn")

	reply, err := s.chat.HandleMessage(ctx, *req.SessionID, *req.Message)
	if err != nil {
		logger.Error().Err(err).Str("session_id", *req.SessionID).Msg("chat turn failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func decodeChatRequest(r *http.Request) (chatRequest, error) {
	var req chatRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return req, errors.New("could not read request body")
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, errors.New("invalid JSON body: " + err.Error())
	}
	switch {
	case req.Message == nil:
		return req, errors.New("message: field required")
	case req.SessionID == nil:
		return req, errors.New("session_id: field required")
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

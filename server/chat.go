package server

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dparolin/dommyhoops/assistant"
	"github.com/dparolin/dommyhoops/llm"

	"encoding/json"
)

// chatRequest accepts either a single question or a full conversation.
type chatRequest struct {
	Question  string           `json:"question,omitempty"`
	Messages  []assistant.Turn `json:"messages,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
}

// chatResponse carries the assistant's final answer.
type chatResponse struct {
	Message llm.Message `json:"message"`
	Rounds  int         `json:"rounds"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	turns, err := s.buildTurns(ctx, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.assistant.Answer(ctx, turns)
	if err != nil {
		id, _ := ctx.Value(requestIDKey).(string)
		s.logger.Error("chat failed", zap.String("id", id), zap.Error(err))
		switch {
		case errors.Is(err, assistant.ErrNoConvergence):
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			writeError(w, http.StatusBadGateway, "completion service failed: "+err.Error())
		}
		return
	}

	if req.SessionID != "" {
		s.persistExchange(ctx, req.SessionID, turns[len(turns)-1], outcome.Message)
	}

	writeJSON(w, http.StatusOK, chatResponse{Message: outcome.Message, Rounds: outcome.Rounds})
}

// buildTurns assembles and validates the caller's turns, prepending stored
// session history when a session is given.
func (s *Server) buildTurns(ctx context.Context, req chatRequest) ([]assistant.Turn, error) {
	var turns []assistant.Turn

	if req.SessionID != "" {
		if s.sessions == nil {
			return nil, errors.New("session_id given but session storage is not configured")
		}
		history, err := s.sessions.Load(ctx, req.SessionID)
		if err != nil {
			return nil, errors.New("failed to load session: " + err.Error())
		}
		for _, msg := range history {
			// Only the visible exchange replays; tool plumbing is owned by
			// the loop and is not part of caller turns.
			if msg.Role == llm.RoleUser || msg.Role == llm.RoleAssistant {
				turns = append(turns, assistant.Turn{Role: msg.Role, Content: msg.Content})
			}
		}
	}

	switch {
	case req.Question != "" && len(req.Messages) > 0:
		return nil, errors.New("provide either question or messages, not both")
	case req.Question != "":
		turns = append(turns, assistant.Turn{Role: llm.RoleUser, Content: req.Question})
	case len(req.Messages) > 0:
		turns = append(turns, req.Messages...)
	default:
		return nil, errors.New("question or messages is required")
	}

	if err := assistant.ValidateTurns(turns); err != nil {
		return nil, err
	}
	return turns, nil
}

// persistExchange stores the visible question/answer pair. Best-effort: a
// storage failure is logged, not surfaced, since the answer already exists.
func (s *Server) persistExchange(ctx context.Context, sessionID string, question assistant.Turn, answer llm.Message) {
	messages := []llm.Message{
		{Role: question.Role, Content: question.Content},
		answer,
	}
	if err := s.sessions.Append(ctx, sessionID, messages); err != nil {
		s.logger.Warn("failed to persist session",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

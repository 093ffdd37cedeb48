package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/api/middleware"
	"github.com/dvloznov/diane/internal/domain"
)

const defaultHistoryLimit = 50

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	service ChatService
	history ChatHistory
	log     zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(service ChatService, history ChatHistory, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{service: service, history: history, log: log}
}

// ChatResponse is the body of POST /api/chat. ErrorType is null unless the
// reply is an error message ("quota" or "llm").
type ChatResponse struct {
	Reply                string              `json:"reply"`
	ExtractedTransaction *domain.Transaction `json:"extracted_transaction"`
	ErrorType            *string             `json:"error_type"`
}

// PostMessage handles POST /api/chat
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Message is required")
		return
	}

	resp, err := h.service.HandleMessage(r.Context(), req.Message)
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to process message")
		return
	}

	body := ChatResponse{Reply: resp.Reply, ExtractedTransaction: resp.Transaction}
	if resp.ErrorKind != "" {
		kind := string(resp.ErrorKind)
		body.ErrorType = &kind
	}
	middleware.WriteJSON(w, http.StatusOK, body)
}

// History handles GET /api/chat/history
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultHistoryLimit, 1, 500)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, err := h.history.RecentChat(r.Context(), limit)
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to load chat history")
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	middleware.WriteJSON(w, http.StatusOK, messages)
}

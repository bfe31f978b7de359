package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/services"
	"github.com/akinalp/sohbet/ws"
)

// MessageHandler, mesaj endpoint'lerini yöneten struct.
type MessageHandler struct {
	messageService services.MessageService
}

// NewMessageHandler, constructor.
func NewMessageHandler(messageService services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// List godoc
// GET /api/chats/{id}/messages?before=RFC3339&limit=50
//
// Cursor bazlı sayfalama: "before" parametresi verilen zamandan önceki
// mesajları döner. Offset pagination yerine cursor — yeni mesaj geldiğinde
// sayfalar kaymaz.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	chatID := r.PathValue("id")

	var before time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid 'before' parameter, expected RFC3339 timestamp")
			return
		}
		before = parsed
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	messages, err := h.messageService.List(r.Context(), user.ID, chatID, before, limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}

// Create godoc
// POST /api/chats/{id}/messages
// Body: { "content": "..." }
//
// Rate limit aşılırsa 429 + Retry-After döner. WS üzerinden gelen mesajlar
// da aynı service akışından geçtiği için transport değiştirmek limiti aşmaz.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	chatID := r.PathValue("id")

	var req models.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.messageService.Create(r.Context(), user.ID, user.DisplayName, chatID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMessageRateLimited):
			retryAfter := h.messageService.CooldownSeconds(user.ID)
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			pkg.ErrorWithMessage(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, ws.ErrUnknownChat):
			pkg.ErrorWithMessage(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ws.ErrStaleMembership):
			pkg.ErrorWithMessage(w, http.StatusForbidden, err.Error())
		default:
			pkg.Error(w, err)
		}
		return
	}

	pkg.JSON(w, http.StatusCreated, message)
}

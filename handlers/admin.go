package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/ws"
)

// AdminHandler, platform admin endpoint'lerini yöneten struct.
// Tüm endpoint'ler PlatformAdminMiddleware arkasındadır.
type AdminHandler struct {
	router *ws.Router
}

// NewAdminHandler, constructor.
func NewAdminHandler(router *ws.Router) *AdminHandler {
	return &AdminHandler{router: router}
}

// Broadcast godoc
// POST /api/admin/alerts
// Body: { "message": "...", "chat_id": "..." }
//
// Sistem duyurusu yayınlar (ALERT event'i). chat_id boşsa tüm bağlı
// kullanıcılara, doluysa sadece o sohbetin üyelerine gider.
// Event DB'ye yazılmaz — offline kullanıcılar duyuruyu almaz.
func (h *AdminHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		ChatID  string `json:"chat_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "message is required")
		return
	}

	if err := h.router.SystemAlert(r.Context(), req.ChatID, req.Message); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "alert broadcast"})
}

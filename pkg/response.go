package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
)

// APIResponse, tüm REST endpoint'lerinin ortak zarfıdır.
// Frontend success bayrağına bakar: true ise data, false ise error dolu.
// WebSocket event'leri bu zarfı KULLANMAZ — onların kendi envelope'u
// vardır (ws.Event: op/data/seq).
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON, başarılı yanıt yazar.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Success: true,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// Error, domain error'ını uygun HTTP status ile yazar.
// Service'ten gelen wrap'li error zinciri statusOf ile çözülür —
// handler'ın switch yazmasına gerek kalmaz.
func Error(w http.ResponseWriter, err error) {
	writeError(w, statusOf(err), err.Error())
}

// ErrorWithMessage, status ve mesajı caller'ın belirlediği hata yanıtı yazar.
// Domain error'a map'lenemeyen durumlar için: bozuk request body,
// rate limit (429 + handler'ın eklediği Retry-After header'ı) gibi.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	writeError(w, status, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Success: false,
		Error:   message,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode error response", http.StatusInternalServerError)
	}
}

// statusOf, sentinel error'ları HTTP status'a eşler.
// errors.Is wrap zincirini takip eder — service'in sardığı mesaj
// status eşlemesini bozmaz. Eşleşmeyen her şey 500'dür: bilinmeyen
// hata detayı client'a status üzerinden sızdırılmaz.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

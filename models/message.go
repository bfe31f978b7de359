// Package models — Message domain modeli.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength, tek bir mesajın maksimum karakter sayısı.
const MaxMessageLength = 4000

// Message, bir sohbet mesajını temsil eder.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageWithSender, mesajı gönderen kullanıcının bilgisiyle döner.
// Frontend'de mesaj listesi gösterirken kullanılır (JOIN ile gelir).
type MessageWithSender struct {
	Message
	SenderUsername    string `json:"sender_username"`
	SenderDisplayName string `json:"sender_display_name"`
	SenderAvatarURL   string `json:"sender_avatar_url"`
}

// CreateMessageRequest, mesaj gönderme payload'ı.
// Hem REST endpoint'i hem WebSocket new_message event'i bu yapıyı kullanır.
type CreateMessageRequest struct {
	Content string `json:"content"`
}

// Validate, CreateMessageRequest kontrolü.
func (r *CreateMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return fmt.Errorf("message content is required")
	}
	if utf8.RuneCountInString(r.Content) > MaxMessageLength {
		return fmt.Errorf("message must be at most %d characters", MaxMessageLength)
	}
	return nil
}

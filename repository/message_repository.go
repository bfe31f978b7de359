package repository

import (
	"context"
	"time"

	"github.com/akinalp/sohbet/models"
)

// MessageRepository, mesaj veritabanı işlemleri.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	// ListByChat, cursor bazlı sayfalama ile mesajları döner (yeniden eskiye).
	// before: bu zamandan önceki mesajlar (zero value = en yeniden başla).
	// limit: sayfa boyutu.
	ListByChat(ctx context.Context, chatID string, before time.Time, limit int) ([]models.MessageWithSender, error)
}

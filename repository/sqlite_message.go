package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
)

// sqliteMessageRepo, MessageRepository'nin SQLite implementasyonu.
type sqliteMessageRepo struct {
	db database.TxQuerier
}

// NewSQLiteMessageRepo, MessageRepository constructor'ı.
func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

func (r *sqliteMessageRepo) Create(ctx context.Context, message *models.Message) error {
	message.ID = uuid.NewString()

	query := `
		INSERT INTO messages (id, chat_id, sender_id, content)
		VALUES (?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		message.ID, message.ChatID, message.SenderID, message.Content,
	).Scan(&message.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// ListByChat, cursor bazlı sayfalama ile mesajları döner.
//
// Neden offset değil cursor?
// OFFSET büyük değerlerde yavaşlar (tüm satırları sayar) ve yeni mesaj
// geldiğinde sayfa kayar. created_at cursor'ı ile her sayfa sabit kalır.
func (r *sqliteMessageRepo) ListByChat(ctx context.Context, chatID string, before time.Time, limit int) ([]models.MessageWithSender, error) {
	query := `
		SELECT m.id, m.chat_id, m.sender_id, m.content, m.created_at,
		       u.username, u.display_name, u.avatar_url
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.chat_id = ?`

	args := []any{chatID}
	if !before.IsZero() {
		query += ` AND m.created_at < ?`
		args = append(args, before)
	}
	query += ` ORDER BY m.created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.MessageWithSender
	for rows.Next() {
		var m models.MessageWithSender
		if err := rows.Scan(
			&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt,
			&m.SenderUsername, &m.SenderDisplayName, &m.SenderAvatarURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

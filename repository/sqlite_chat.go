package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
)

// sqliteChatRepo, ChatRepository'nin SQLite implementasyonu.
//
// Create ve Delete gibi çoklu-tablo operasyonları transaction gerektirir —
// bu yüzden repo TxQuerier yerine *database.DB alır ve WithTx kullanır.
type sqliteChatRepo struct {
	db *database.DB
}

// NewSQLiteChatRepo, ChatRepository constructor'ı.
func NewSQLiteChatRepo(db *database.DB) ChatRepository {
	return &sqliteChatRepo{db: db}
}

// Create, sohbeti ve başlangıç üyelerini tek transaction içinde yazar.
// Üye eklemesi yarıda kalırsa sohbet de oluşmaz (all-or-nothing).
func (r *sqliteChatRepo) Create(ctx context.Context, chat *models.Chat, memberIDs []string) error {
	chat.ID = uuid.NewString()

	return database.WithTx(ctx, r.db.Conn, func(tx *sql.Tx) error {
		var ownerID any
		if chat.OwnerID != "" {
			ownerID = chat.OwnerID
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO chats (id, name, is_group, owner_id)
			VALUES (?, ?, ?, ?)
			RETURNING created_at`,
			chat.ID, chat.Name, chat.IsGroup, ownerID,
		).Scan(&chat.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create chat: %w", err)
		}

		for _, userID := range memberIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO chat_members (chat_id, user_id) VALUES (?, ?)`,
				chat.ID, userID,
			); err != nil {
				return fmt.Errorf("failed to add chat member: %w", err)
			}
		}

		return nil
	})
}

func (r *sqliteChatRepo) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	query := `
		SELECT id, name, is_group, COALESCE(owner_id, ''), created_at
		FROM chats WHERE id = ?`

	chat := &models.Chat{}
	err := r.db.Conn.QueryRowContext(ctx, query, id).Scan(
		&chat.ID, &chat.Name, &chat.IsGroup, &chat.OwnerID, &chat.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	return chat, nil
}

// FindDirect, iki kullanıcı arasındaki mevcut birebir sohbeti arar.
//
// Sorgu mantığı: is_group=0 olan ve üyeleri TAM OLARAK {userA, userB}
// olan sohbet. Birebir sohbetlerin her zaman 2 üyesi olduğu için
// "her iki kullanıcı da üye" kontrolü yeterlidir.
func (r *sqliteChatRepo) FindDirect(ctx context.Context, userA, userB string) (*models.Chat, error) {
	query := `
		SELECT c.id, c.name, c.is_group, COALESCE(c.owner_id, ''), c.created_at
		FROM chats c
		JOIN chat_members m1 ON m1.chat_id = c.id AND m1.user_id = ?
		JOIN chat_members m2 ON m2.chat_id = c.id AND m2.user_id = ?
		WHERE c.is_group = 0
		LIMIT 1`

	chat := &models.Chat{}
	err := r.db.Conn.QueryRowContext(ctx, query, userA, userB).Scan(
		&chat.ID, &chat.Name, &chat.IsGroup, &chat.OwnerID, &chat.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find direct chat: %w", err)
	}

	return chat, nil
}

// Members, sohbetin güncel üye ID listesini döner.
//
// Önce sohbetin varlığı kontrol edilir: var olmayan sohbet ile
// üyesiz sohbet farklı durumlardır — ilki pkg.ErrNotFound döner.
func (r *sqliteChatRepo) Members(ctx context.Context, chatID string) ([]string, error) {
	var exists int
	err := r.db.Conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chats WHERE id = ?`, chatID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check chat existence: %w", err)
	}
	if exists == 0 {
		return nil, pkg.ErrNotFound
	}

	rows, err := r.db.Conn.QueryContext(ctx,
		`SELECT user_id FROM chat_members WHERE chat_id = ? ORDER BY joined_at`, chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat members: %w", err)
	}
	defer rows.Close() // Önemli: rows'u kapatmayı ASLA unutma — aksi halde bağlantı sızar (leak)

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return members, nil
}

func (r *sqliteChatRepo) ChatIDsOf(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Conn.QueryContext(ctx,
		`SELECT chat_id FROM chat_members WHERE user_id = ?`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user chats: %w", err)
	}
	defer rows.Close()

	var chatIDs []string
	for rows.Next() {
		var chatID string
		if err := rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("failed to scan chat id row: %w", err)
		}
		chatIDs = append(chatIDs, chatID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat id rows: %w", err)
	}

	return chatIDs, nil
}

func (r *sqliteChatRepo) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	var count int
	err := r.db.Conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_members WHERE chat_id = ? AND user_id = ?`,
		chatID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (r *sqliteChatRepo) AddMember(ctx context.Context, chatID, userID string) error {
	_, err := r.db.Conn.ExecContext(ctx,
		`INSERT INTO chat_members (chat_id, user_id) VALUES (?, ?)`,
		chatID, userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user is already a member", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (r *sqliteChatRepo) RemoveMember(ctx context.Context, chatID, userID string) error {
	result, err := r.db.Conn.ExecContext(ctx,
		`DELETE FROM chat_members WHERE chat_id = ? AND user_id = ?`,
		chatID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}

	return nil
}

func (r *sqliteChatRepo) Rename(ctx context.Context, chatID, name string) error {
	result, err := r.db.Conn.ExecContext(ctx,
		`UPDATE chats SET name = ? WHERE id = ?`, name, chatID,
	)
	if err != nil {
		return fmt.Errorf("failed to rename chat: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}

	return nil
}

// Delete, sohbeti siler. Üyeler ve mesajlar FK cascade ile temizlenir.
func (r *sqliteChatRepo) Delete(ctx context.Context, chatID string) error {
	result, err := r.db.Conn.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}

	return nil
}

// ListForUser, kullanıcının sohbetlerini son mesaj önizlemesiyle döner.
// Sohbetler son aktiviteye göre sıralanır (en yeni üstte).
func (r *sqliteChatRepo) ListForUser(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	query := `
		SELECT c.id, c.name, c.is_group, COALESCE(c.owner_id, ''), c.created_at,
		       COALESCE(lm.content, ''), lm.created_at, COALESCE(lm.sender_id, '')
		FROM chats c
		JOIN chat_members cm ON cm.chat_id = c.id AND cm.user_id = ?
		LEFT JOIN (
			SELECT m.chat_id, m.content, m.created_at, m.sender_id
			FROM messages m
			WHERE m.id IN (
				SELECT id FROM messages m2
				WHERE m2.chat_id = m.chat_id
				ORDER BY m2.created_at DESC LIMIT 1
			)
		) lm ON lm.chat_id = c.id
		ORDER BY COALESCE(lm.created_at, c.created_at) DESC`

	rows, err := r.db.Conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var summaries []models.ChatSummary
	for rows.Next() {
		var s models.ChatSummary
		var lastAt sql.NullTime
		if err := rows.Scan(
			&s.ID, &s.Name, &s.IsGroup, &s.OwnerID, &s.CreatedAt,
			&s.LastMessage, &lastAt, &s.LastMessageFrom,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat summary row: %w", err)
		}
		if lastAt.Valid {
			t := lastAt.Time
			s.LastMessageAt = &t
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat summary rows: %w", err)
	}

	// Üye listelerini doldur — liste ekranı karşı tarafın adını göstermek
	// için üye ID'lerine ihtiyaç duyar.
	for i := range summaries {
		members, err := r.Members(ctx, summaries[i].ID)
		if err != nil {
			return nil, err
		}
		summaries[i].MemberIDs = members
	}

	return summaries, nil
}

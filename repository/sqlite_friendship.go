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

// sqliteFriendshipRepo, FriendshipRepository'nin SQLite implementasyonu.
type sqliteFriendshipRepo struct {
	db database.TxQuerier
}

// NewSQLiteFriendshipRepo, FriendshipRepository constructor'ı.
func NewSQLiteFriendshipRepo(db database.TxQuerier) FriendshipRepository {
	return &sqliteFriendshipRepo{db: db}
}

func (r *sqliteFriendshipRepo) Create(ctx context.Context, friendship *models.Friendship) error {
	friendship.ID = uuid.NewString()
	if friendship.Status == "" {
		friendship.Status = models.FriendshipStatusPending
	}

	query := `
		INSERT INTO friendships (id, requester_id, addressee_id, status)
		VALUES (?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		friendship.ID, friendship.RequesterID, friendship.AddresseeID, friendship.Status,
	).Scan(&friendship.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: friend request already exists", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create friendship: %w", err)
	}

	return nil
}

func (r *sqliteFriendshipRepo) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	query := `
		SELECT id, requester_id, addressee_id, status, created_at
		FROM friendships WHERE id = ?`

	f := &models.Friendship{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}

	return f, nil
}

// GetBetween, iki kullanıcı arasındaki kaydı yönden bağımsız arar.
func (r *sqliteFriendshipRepo) GetBetween(ctx context.Context, userA, userB string) (*models.Friendship, error) {
	query := `
		SELECT id, requester_id, addressee_id, status, created_at
		FROM friendships
		WHERE (requester_id = ? AND addressee_id = ?)
		   OR (requester_id = ? AND addressee_id = ?)`

	f := &models.Friendship{}
	err := r.db.QueryRowContext(ctx, query, userA, userB, userB, userA).Scan(
		&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friendship between users: %w", err)
	}

	return f, nil
}

func (r *sqliteFriendshipRepo) Accept(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE friendships SET status = ? WHERE id = ? AND status = ?`,
		models.FriendshipStatusAccepted, id, models.FriendshipStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to accept friendship: %w", err)
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

func (r *sqliteFriendshipRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
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

// ListFriends, kabul edilmiş arkadaşlıkları karşı taraf bilgisiyle döner.
//
// CASE ifadesi "karşı taraf" ayrımını SQL'de yapar:
// ben requester isem addressee'nin bilgisi, değilsem requester'ın bilgisi gelir.
func (r *sqliteFriendshipRepo) ListFriends(ctx context.Context, userID string) ([]models.FriendshipWithUser, error) {
	query := `
		SELECT f.id, f.status, f.created_at,
		       u.id, u.username, u.display_name, u.avatar_url
		FROM friendships f
		JOIN users u ON u.id = CASE
			WHEN f.requester_id = ? THEN f.addressee_id
			ELSE f.requester_id
		END
		WHERE (f.requester_id = ? OR f.addressee_id = ?) AND f.status = ?
		ORDER BY u.username`

	return r.queryWithUser(ctx, query, userID, userID, userID, models.FriendshipStatusAccepted)
}

// ListPendingFor, kullanıcıya GELEN bekleyen istekleri döner.
// Karşı taraf her zaman requester'dır.
func (r *sqliteFriendshipRepo) ListPendingFor(ctx context.Context, userID string) ([]models.FriendshipWithUser, error) {
	query := `
		SELECT f.id, f.status, f.created_at,
		       u.id, u.username, u.display_name, u.avatar_url
		FROM friendships f
		JOIN users u ON u.id = f.requester_id
		WHERE f.addressee_id = ? AND f.status = ?
		ORDER BY f.created_at DESC`

	return r.queryWithUser(ctx, query, userID, models.FriendshipStatusPending)
}

// queryWithUser, FriendshipWithUser dönen sorguların ortak iterasyon mantığı.
func (r *sqliteFriendshipRepo) queryWithUser(ctx context.Context, query string, args ...any) ([]models.FriendshipWithUser, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query friendships: %w", err)
	}
	defer rows.Close()

	var results []models.FriendshipWithUser
	for rows.Next() {
		var f models.FriendshipWithUser
		if err := rows.Scan(
			&f.ID, &f.Status, &f.CreatedAt,
			&f.UserID, &f.Username, &f.DisplayName, &f.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan friendship row: %w", err)
		}
		results = append(results, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friendship rows: %w", err)
	}

	return results, nil
}

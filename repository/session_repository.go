package repository

import (
	"context"

	"github.com/akinalp/sohbet/models"
)

// SessionRepository, refresh token oturumları için DB işlemleri.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)
	// Delete, tek bir oturumu sonlandırır (logout veya token rotasyonu).
	Delete(ctx context.Context, id string) error
	// DeleteByUserID, kullanıcının TÜM oturumlarını sonlandırır
	// (şifre değişikliği sonrası güvenlik önlemi).
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

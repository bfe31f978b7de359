package repository

import (
	"context"

	"github.com/akinalp/sohbet/models"
)

// ResetTokenRepository, şifre sıfırlama token'ları için DB işlemleri.
// Token'lar hash'lenmiş saklanır — bkz. models.PasswordResetToken.
type ResetTokenRepository interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	// GetByHash, kullanılmamış ve süresi geçmemiş token'ı arar.
	GetByHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id string) error
	// DeleteForUser, kullanıcının önceki token'larını temizler —
	// her yeni istek eskileri geçersiz kılar.
	DeleteForUser(ctx context.Context, userID string) error
}

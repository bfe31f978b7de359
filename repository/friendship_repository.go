package repository

import (
	"context"

	"github.com/akinalp/sohbet/models"
)

// FriendshipRepository, arkadaşlık veritabanı işlemleri.
type FriendshipRepository interface {
	Create(ctx context.Context, friendship *models.Friendship) error
	GetByID(ctx context.Context, id string) (*models.Friendship, error)
	// GetBetween, iki kullanıcı arasındaki kaydı yönden bağımsız arar
	// (A→B veya B→A). Yoksa pkg.ErrNotFound döner.
	GetBetween(ctx context.Context, userA, userB string) (*models.Friendship, error)
	// Accept, pending kaydı accepted'a çevirir.
	Accept(ctx context.Context, id string) error
	// Delete, isteği reddetme veya arkadaşlıktan çıkarma — satır silinir.
	Delete(ctx context.Context, id string) error
	ListFriends(ctx context.Context, userID string) ([]models.FriendshipWithUser, error)
	// ListPendingFor, kullanıcıya GELEN bekleyen istekleri döner.
	ListPendingFor(ctx context.Context, userID string) ([]models.FriendshipWithUser, error)
}

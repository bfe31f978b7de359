package repository

import (
	"context"

	"github.com/akinalp/sohbet/models"
)

// ChatRepository, sohbet ve üyelik veritabanı işlemleri.
//
// Members ve ChatIDsOf method'ları ws katmanının üyelik kaynağıdır —
// realtime tarafı bu iki sorgu üzerinden kimin nerede olduğunu öğrenir
// (sonuçlar ws tarafında TTL cache ile sarılır, her event DB'ye gitmez).
type ChatRepository interface {
	// Create, sohbeti ve başlangıç üyelerini tek transaction içinde yazar.
	Create(ctx context.Context, chat *models.Chat, memberIDs []string) error
	GetByID(ctx context.Context, id string) (*models.Chat, error)
	// FindDirect, iki kullanıcı arasındaki mevcut birebir sohbeti arar.
	// Yoksa pkg.ErrNotFound döner — caller yeni sohbet açar (dedupe).
	FindDirect(ctx context.Context, userA, userB string) (*models.Chat, error)
	// Members, sohbetin güncel üye ID listesini döner.
	// Sohbet yoksa pkg.ErrNotFound döner (boş liste değil — ikisi farklı durum).
	Members(ctx context.Context, chatID string) ([]string, error)
	// ChatIDsOf, kullanıcının üyesi olduğu tüm sohbet ID'lerini döner.
	ChatIDsOf(ctx context.Context, userID string) ([]string, error)
	IsMember(ctx context.Context, chatID, userID string) (bool, error)
	AddMember(ctx context.Context, chatID, userID string) error
	RemoveMember(ctx context.Context, chatID, userID string) error
	Rename(ctx context.Context, chatID, name string) error
	Delete(ctx context.Context, chatID string) error
	// ListForUser, kullanıcının sohbetlerini son mesaj önizlemesiyle döner.
	ListForUser(ctx context.Context, userID string) ([]models.ChatSummary, error)
}

package ws

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/pkg/cache"
)

// MemberStore, üyelik verisinin kalıcı kaynağı (pratikte ChatRepository).
//
// ws paketi repository'ye DOĞRUDAN bağımlı olmaz — bu küçük interface
// circular dependency'yi önler ve testlerde fake store kullanmayı sağlar.
// Go'da interface'ler implicit'tir: ChatRepository bu iki method'u
// taşıdığı için otomatik olarak MemberStore'u karşılar.
type MemberStore interface {
	// Members, sohbetin güncel üye ID'lerini döner.
	// Sohbet yoksa pkg.ErrNotFound dönmelidir.
	Members(ctx context.Context, chatID string) ([]string, error)
	// ChatIDsOf, kullanıcının üyesi olduğu sohbet ID'lerini döner.
	ChatIDsOf(ctx context.Context, userID string) ([]string, error)
}

// RoomResolver, üyelik sorgularını TTL cache ile sarar.
//
// Neden cache?
// Her realtime event (mesaj, typing, presence) üye listesine ihtiyaç duyar.
// Her event'te DB'ye gitmek SQLite'ı gereksiz yere döver — kısa ömürlü
// bir cache, "kim bu sohbetin üyesi" sorusunu bellekte yanıtlar.
//
// Bayatlık toleransı:
// Cache TTL süresi boyunca bayat olabilir. Üyelik DEĞİŞTİĞİNDE service
// katmanı Invalidate çağırır — kritik yol (REFETCH_CHATS) asla bayat
// veri üzerinden çalışmaz.
//
// Degraded read:
// DB geçici olarak hata verirse resolver son bilinen iyi listeyi döner ve
// log'a düşer. Realtime dağıtımın tamamen durması, birkaç saniyelik bayat
// üye listesinden daha kötüdür. "Sohbet yok" (ErrUnknownChat) bu kapsamda
// DEĞİLDİR — o kesin bir yanıttır, fallback yapılmaz.
type RoomResolver struct {
	store MemberStore

	// members: chatID → üye ID listesi (TTL'li)
	members *cache.TTLCache[string, []string]
	// userChats: userID → sohbet ID listesi (TTL'li)
	userChats *cache.TTLCache[string, []string]

	// lastGood*: TTL'den bağımsız son başarılı sonuçlar — degraded read için.
	// Invalidate bunları da temizler: üyelikten çıkarılan kullanıcı,
	// DB hatası bahanesiyle event almaya devam etmemeli.
	mu            sync.RWMutex
	lastGoodChats map[string][]string
	lastGoodUsers map[string][]string
}

// NewRoomResolver, yeni bir RoomResolver oluşturur.
// ttl: cache yaşam süresi (ör. 30sn). Cleanup aralığı sabit 5dk'dır.
func NewRoomResolver(store MemberStore, ttl time.Duration) *RoomResolver {
	return &RoomResolver{
		store:         store,
		members:       cache.New[string, []string](ttl, 5*time.Minute),
		userChats:     cache.New[string, []string](ttl, 5*time.Minute),
		lastGoodChats: make(map[string][]string),
		lastGoodUsers: make(map[string][]string),
	}
}

// Members, sohbetin üye ID'lerini döner (cache → store → degraded sırasıyla).
//
// Dönen slice her zaman kopyadır — caller'lar listeyi değiştirebilir,
// cache'teki veri etkilenmez.
func (r *RoomResolver) Members(ctx context.Context, chatID string) ([]string, error) {
	if ids, ok := r.members.Get(chatID); ok {
		return copyIDs(ids), nil
	}

	// Cache miss — store'a git. Lock TUTULMAZ: DB sorgusu sırasında
	// diğer resolver çağrıları bloklanmamalı.
	ids, err := r.store.Members(ctx, chatID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownChat, chatID)
		}

		// Geçici store hatası — son bilinen iyi listeye düş.
		r.mu.RLock()
		fallback, ok := r.lastGoodChats[chatID]
		r.mu.RUnlock()
		if ok {
			log.Printf("[rooms] degraded read for chat %s: %v", chatID, err)
			return copyIDs(fallback), nil
		}
		return nil, fmt.Errorf("failed to resolve members of chat %s: %w", chatID, err)
	}

	r.members.Set(chatID, ids)
	r.mu.Lock()
	r.lastGoodChats[chatID] = ids
	r.mu.Unlock()

	return copyIDs(ids), nil
}

// ChatIDsOf, kullanıcının üyesi olduğu sohbet ID'lerini döner.
func (r *RoomResolver) ChatIDsOf(ctx context.Context, userID string) ([]string, error) {
	if ids, ok := r.userChats.Get(userID); ok {
		return copyIDs(ids), nil
	}

	ids, err := r.store.ChatIDsOf(ctx, userID)
	if err != nil {
		r.mu.RLock()
		fallback, ok := r.lastGoodUsers[userID]
		r.mu.RUnlock()
		if ok {
			log.Printf("[rooms] degraded read for user %s: %v", userID, err)
			return copyIDs(fallback), nil
		}
		return nil, fmt.Errorf("failed to resolve chats of user %s: %w", userID, err)
	}

	r.userChats.Set(userID, ids)
	r.mu.Lock()
	r.lastGoodUsers[userID] = ids
	r.mu.Unlock()

	return copyIDs(ids), nil
}

// Invalidate, sohbetin üye cache'ini düşürür.
// Üyelik değiştiren HER operasyon (ekleme, çıkarma, silme) önce bunu çağırır —
// sonraki Members çağrısı taze veriyle döner.
func (r *RoomResolver) Invalidate(chatID string) {
	r.members.Delete(chatID)
	r.mu.Lock()
	delete(r.lastGoodChats, chatID)
	r.mu.Unlock()
}

// InvalidateUser, kullanıcının sohbet listesi cache'ini düşürür.
func (r *RoomResolver) InvalidateUser(userID string) {
	r.userChats.Delete(userID)
	r.mu.Lock()
	delete(r.lastGoodUsers, userID)
	r.mu.Unlock()
}

// Close, alttaki cache'lerin cleanup goroutine'lerini durdurur.
func (r *RoomResolver) Close() {
	r.members.Close()
	r.userChats.Close()
}

// copyIDs, ID slice'ının savunmacı kopyasını döner.
func copyIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

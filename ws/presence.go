package ws

import (
	"context"
	"log"
)

// PresenceTracker, kullanıcı online/offline geçişlerini sohbet kapsamında yayınlar.
//
// İki kural:
//
// 1. Sadece SINIR geçişleri yayınlanır: 0→1 bağlantı (online oldu) ve
//    1→0 bağlantı (offline oldu). İkinci tab açmak veya tablardan birini
//    kapatmak event üretmez — sınır tespiti Hub.Run'da yapılır, buraya
//    sadece gerçek geçişler gelir.
//
// 2. ONLINE_USERS listesi her zaman TEK bir sohbetin kapsamıyla sınırlıdır.
//    Kullanıcının "global" online durumu diye bir yayın yoktur — A ile ortak
//    sohbeti olmayan B, A'nın online olduğunu hiçbir event'ten öğrenemez.
type PresenceTracker struct {
	pub   EventPublisher
	rooms *RoomResolver
}

// NewPresenceTracker, yeni bir PresenceTracker oluşturur.
func NewPresenceTracker(pub EventPublisher, rooms *RoomResolver) *PresenceTracker {
	return &PresenceTracker{pub: pub, rooms: rooms}
}

// UserOnline, kullanıcının 0→1 bağlantı geçişini yayınlar.
func (p *PresenceTracker) UserOnline(ctx context.Context, userID string) {
	p.broadcastBoundary(ctx, userID, "online")
}

// UserOffline, kullanıcının 1→0 bağlantı geçişini yayınlar.
// Hub bu noktada kullanıcıyı registry'den çıkarmıştır — online listesi
// hesaplanırken kullanıcı otomatik olarak dışarıda kalır.
func (p *PresenceTracker) UserOffline(ctx context.Context, userID string) {
	p.broadcastBoundary(ctx, userID, "offline")
}

// broadcastBoundary, geçiş yapan kullanıcının her sohbetine güncel
// online üye listesini gönderir.
//
// Hata toleransı: üyelik çözülemeyen sohbet atlanır ve loglanır —
// bir sohbetin hatası diğerlerinin yayınını durdurmaz.
func (p *PresenceTracker) broadcastBoundary(ctx context.Context, userID, direction string) {
	chatIDs, err := p.rooms.ChatIDsOf(ctx, userID)
	if err != nil {
		log.Printf("[presence] failed to resolve chats for user %s (%s): %v", userID, direction, err)
		return
	}

	// Hiç sohbeti olmayan kullanıcının geçişi kimseyi ilgilendirmez.
	if len(chatIDs) == 0 {
		return
	}

	for _, chatID := range chatIDs {
		members, err := p.rooms.Members(ctx, chatID)
		if err != nil {
			log.Printf("[presence] skipping chat %s for user %s: %v", chatID, userID, err)
			continue
		}

		event := Event{
			Op:   OpOnlineUsers,
			Data: OnlineUsersData{ChatID: chatID, UserIDs: p.onlineAmong(members)},
		}

		// Geçiş yapan kullanıcıya kendi geçişi gönderilmez — yeni bağlanan
		// taraf snapshot ile, kapanan tarafın bağlantısı zaten yok.
		for _, member := range members {
			if member == userID {
				continue
			}
			p.pub.BroadcastToUser(member, event)
		}
	}

	log.Printf("[presence] user %s is %s (broadcast to %d chats)", userID, direction, len(chatIDs))
}

// SnapshotEvents, yeni bağlanan bir client için sohbet bazlı ONLINE_USERS
// event'lerini üretir. Hub bunları SADECE o bağlantıya gönderir —
// kullanıcının diğer tab'ları ve diğer üyeler etkilenmez.
func (p *PresenceTracker) SnapshotEvents(ctx context.Context, userID string) []Event {
	chatIDs, err := p.rooms.ChatIDsOf(ctx, userID)
	if err != nil {
		log.Printf("[presence] snapshot failed for user %s: %v", userID, err)
		return nil
	}

	events := make([]Event, 0, len(chatIDs))
	for _, chatID := range chatIDs {
		members, err := p.rooms.Members(ctx, chatID)
		if err != nil {
			log.Printf("[presence] snapshot skipping chat %s: %v", chatID, err)
			continue
		}
		events = append(events, Event{
			Op:   OpOnlineUsers,
			Data: OnlineUsersData{ChatID: chatID, UserIDs: p.onlineAmong(members)},
		})
	}
	return events
}

// onlineAmong, üye listesinden şu an bağlı olanları süzer.
func (p *PresenceTracker) onlineAmong(members []string) []string {
	online := make([]string, 0, len(members))
	for _, id := range members {
		if p.pub.IsOnline(id) {
			online = append(online, id)
		}
	}
	return online
}

package ws

import (
	"context"
	"errors"
	"log"
	"sync"
)

// keyedMutex, string key başına ayrı bir mutex sağlar.
//
// Router mesaj dağıtımını SOHBET BAZINDA serileştirir: aynı sohbetin iki
// mesajı sırayla dağıtılır (üyeler tutarlı sırada event alır), farklı
// sohbetler birbirini bloklamaz. Global tek mutex tüm platformu tek
// kuyruğa sokardı.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock, key'e ait mutex'i kilitler ve unlock fonksiyonunu döner.
//
//	unlock := km.lock(chatID)
//	defer unlock()
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// forget, key'in mutex kaydını map'ten düşürür — silinen sohbetin kilidi
// süresiz bellekte kalmasın. Eski mutex'i bekleyen bir goroutine varsa
// işini normal bitirir; silinmiş sohbet için yeni yayın gelmeyeceğinden
// taze bir mutex ile yarışmaz.
func (k *keyedMutex) forget(key string) {
	k.mu.Lock()
	delete(k.locks, key)
	k.mu.Unlock()
}

// Router, sohbet event'lerinin dağıtım merkezi.
//
// Üç sorumluluğu vardır:
// 1. Mesaj dağıtımı: NEW_MESSAGE her üyeye, NEW_MESSAGE_ALERT sohbete
//    bakmayan üyelere (okunmamış rozeti için).
// 2. Odak takibi: CHAT_JOINED / CHAT_LEAVED ile FocusStore güncellemesi.
// 3. Yapısal değişiklik bildirimi: üyelik değişen sohbetin etkilenen
//    herkesine tam olarak BİR kez REFETCH_CHATS.
type Router struct {
	pub    EventPublisher
	rooms  *RoomResolver
	focus  *FocusStore
	typing *TypingCoordinator
	locks  keyedMutex
}

// NewRouter, yeni bir Router oluşturur.
func NewRouter(pub EventPublisher, rooms *RoomResolver, focus *FocusStore, typing *TypingCoordinator) *Router {
	return &Router{pub: pub, rooms: rooms, focus: focus, typing: typing}
}

// Join, kullanıcının sohbet ekranını açtığını işler (CHAT_JOINED).
//
// Üyelik doğrulanır: üye olmayan kullanıcı odak iddia edemez —
// aksi halde üyesi olmadığı sohbetin alert'lerini bastırabilirdi.
func (r *Router) Join(ctx context.Context, userID, chatID string) error {
	members, err := r.rooms.Members(ctx, chatID)
	if err != nil {
		return err
	}
	if !containsID(members, userID) {
		return ErrStaleMembership
	}

	r.focus.Set(userID, chatID)
	return nil
}

// Leave, kullanıcının sohbet ekranından ayrılmasını işler (CHAT_LEAVED).
//
// Ekrandan ayrılmak açık typing göstergesini de örtülü kapatır — kimse
// terk edilmiş bir ekrandan "yazıyor..." görmemeli. Odak başka sohbete
// geçmişse veya gösterge kapalıysa her iki adım da no-op (idempotent).
func (r *Router) Leave(ctx context.Context, userID, chatID string) {
	r.focus.Clear(userID, chatID)
	r.typing.Stop(ctx, chatID, userID)
}

// Publish, kalıcılaştırılmış bir mesajı sohbetin üyelerine dağıtır.
//
// Her üyeye NEW_MESSAGE gider. Göndereni ve şu an bu sohbete bakanları
// HARİÇ tutarak NEW_MESSAGE_ALERT gider — bakmakta olan kullanıcının
// okunmamış sayacı artmamalı.
//
// Hata (ErrUnknownChat dahil) sadece caller'a döner — service bunu
// gönderen bağlantıya uyarı olarak iletir, diğer üyeler etkilenmez.
func (r *Router) Publish(ctx context.Context, msg NewMessageData) error {
	unlock := r.locks.lock(msg.ChatID)
	defer unlock()

	members, err := r.rooms.Members(ctx, msg.ChatID)
	if err != nil {
		return err
	}

	event := Event{Op: OpNewMessage, Data: msg}
	alert := Event{Op: OpNewMessageAlert, Data: NewMessageAlertData{ChatID: msg.ChatID}}

	for _, member := range members {
		r.pub.BroadcastToUser(member, event)

		if member != msg.SenderID && !r.focus.IsViewing(member, msg.ChatID) {
			r.pub.BroadcastToUser(member, alert)
		}
	}

	return nil
}

// PublishStructuralChange, sohbetin üyelik yapısı değiştiğinde çağrılır
// (oluşturma, yeniden adlandırma, üye ekleme/çıkarma, silme).
//
// Sıra kritiktir: ÖNCE cache invalidation, SONRA bildirim. REFETCH_CHATS
// alan client hemen listeyi çeker — invalidation önce yapılmazsa client
// bayat cache üzerinden eski listeyi görürdü.
//
// affected: işlemden etkilenen kullanıcılar (eklenen/çıkarılan üyeler).
// Bildirim, güncel üyeler ∪ affected kümesine gider — çıkarılan üye artık
// listede olmasa da "bu sohbet senden gitti" bilgisini almalıdır. Küme
// dedupe edilir: her kullanıcı tam olarak BİR event alır.
func (r *Router) PublishStructuralChange(ctx context.Context, chatID string, kind StructuralChangeKind, affected []string) {
	unlock := r.locks.lock(chatID)
	defer unlock()

	// 1. Invalidation — bildirimden önce.
	r.rooms.Invalidate(chatID)
	for _, userID := range affected {
		r.rooms.InvalidateUser(userID)
	}

	// 2. Güncel üyeleri taze veriyle çöz. Silinen sohbette ErrUnknownChat
	// normaldir — bildirim sadece affected listesine gider.
	current, err := r.rooms.Members(ctx, chatID)
	if err != nil && !errors.Is(err, ErrUnknownChat) {
		log.Printf("[router] structural change for chat %s: resolve failed, notifying affected only: %v", chatID, err)
	}

	// 3. Hedef kümesi: current ∪ affected, dedupe edilmiş.
	targets := make(map[string]bool, len(current)+len(affected))
	for _, id := range current {
		targets[id] = true
	}
	for _, id := range affected {
		targets[id] = true
	}

	event := Event{Op: OpRefetchChats, Data: RefetchChatsData{ChatID: chatID, Kind: kind}}
	for userID := range targets {
		r.pub.BroadcastToUser(userID, event)
	}

	// 4. Artık üye olmayanların kalıntı state'i temizlenir: çıkarılan
	// kullanıcının odağı ve açık typing göstergesi bu sohbette kalamaz.
	for _, userID := range affected {
		if !containsID(current, userID) {
			r.focus.Clear(userID, chatID)
			r.typing.Stop(ctx, chatID, userID)
		}
	}

	// 5. Silinen sohbetin kilit kaydı da gider — map sadece yaşayan
	// sohbetler için büyür.
	if kind == ChangeChatDeleted {
		r.locks.forget(chatID)
	}

	log.Printf("[router] structural change %s for chat %s (notified %d users)", kind, chatID, len(targets))
}

// SystemAlert, sistem duyurusu yayınlar.
// chatID boşsa platform geneli (tüm bağlı kullanıcılar), doluysa sadece
// o sohbetin üyeleri.
func (r *Router) SystemAlert(ctx context.Context, chatID, message string) error {
	event := Event{Op: OpAlert, Data: AlertData{ChatID: chatID, Message: message}}

	if chatID == "" {
		r.pub.BroadcastToAll(event)
		return nil
	}

	members, err := r.rooms.Members(ctx, chatID)
	if err != nil {
		return err
	}
	for _, member := range members {
		r.pub.BroadcastToUser(member, event)
	}
	return nil
}

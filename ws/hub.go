package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// EventPublisher, service katmanının WebSocket event'leri yayınlamak için
// kullandığı interface.
//
// Dependency Inversion: Service'ler ve ws içi bileşenler (presence, typing,
// router) Hub'ın concrete struct'ına değil, bu interface'e bağımlıdır. Böylece:
// 1. Bileşenler test edilirken mock EventPublisher kullanılabilir
// 2. Hub implementasyonu değişse bile bağımlı kod etkilenmez
type EventPublisher interface {
	BroadcastToAll(event Event)
	BroadcastToUser(userID string, event Event)
	OnlineUserIDs() []string
	IsOnline(userID string) bool
}

// ChatMessageFunc, WS üzerinden gelen NEW_MESSAGE'ı service katmanına taşıyan
// callback. init_callbacks.go'da MessageService'e bağlanır — ws paketi
// services'e bağımlı olmaz (circular dependency önleme).
type ChatMessageFunc func(ctx context.Context, userID, username, chatID, content string) error

// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır (Observer pattern).
//
// Go channel nedir? (register, unregister)
// Goroutine'ler arası güvenli iletişim sağlayan yapılar.
// Hub.Run() goroutine'i bu channel'lardan `select` ile okur:
// - register channel'dan yeni client gelirse → clients map'e ekle
// - unregister channel'dan client gelirse → map'ten çıkar
//
// Run() tek goroutine'de çalıştığı için bağlantı giriş/çıkışları SIRALIDIR:
// bir kullanıcının ilk bağlantısı (online geçiş) ile son bağlantısının
// kopması (offline geçiş) asla iç içe işlenmez.
type Hub struct {
	// clients: userID → Client set (bir kullanıcının birden fazla tab'ı olabilir).
	// map[string]map[*Client]bool — Go'da set yoktur, map[*Client]bool kullanılır.
	clients map[string]map[*Client]bool

	// mu: clients map'ini koruyan read-write mutex.
	// Broadcast'ler RLock ile eşzamanlı okur, giriş/çıkış Lock ile yazar.
	mu sync.RWMutex

	// register/unregister: Client giriş/çıkış sinyalleri.
	register   chan *Client
	unregister chan *Client

	// seq: Her outbound event'e verilen artan sayaç.
	// atomic.Int64: Birden fazla goroutine'in güvenle okuyup yazabildiği sayı.
	seq atomic.Int64

	// Realtime bileşenleri — Attach ile bağlanır (wiring main.go tarafında).
	presence *PresenceTracker
	typing   *TypingCoordinator
	focus    *FocusStore
	router   *Router

	// onChatMessage: WS'ten gelen mesajları service'e taşıyan callback.
	onChatMessage ChatMessageFunc
}

// NewHub, yeni bir Hub oluşturur.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Attach, Hub'a realtime bileşenlerini bağlar.
//
// Neden constructor'da değil?
// Bileşenler EventPublisher'a (yani Hub'a) ihtiyaç duyar — önce Hub
// oluşturulur, sonra bileşenler, en son bu bağlama yapılır.
func (h *Hub) Attach(presence *PresenceTracker, typing *TypingCoordinator, focus *FocusStore, router *Router) {
	h.presence = presence
	h.typing = typing
	h.focus = focus
	h.router = router
}

// SetChatMessageCallback, WS mesaj akışının service callback'ini bağlar.
func (h *Hub) SetChatMessageCallback(fn ChatMessageFunc) {
	h.onChatMessage = fn
}

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır.
//
// select nedir?
// Birden fazla channel'ı aynı anda dinler.
// Hangi channel'dan veri gelirse o case çalışır.
// Hiçbirinden gelmezse bekler (blocking).
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			first := h.addClient(client)

			// Online geçişi SADECE 0→1 sınırında yayınlanır.
			// İkinci tab açmak yeni bir online event'i üretmez.
			if first && h.presence != nil {
				h.presence.UserOnline(context.Background(), client.userID)
			}

			// Her yeni bağlantı, kendi sohbetlerinin online listesini
			// snapshot olarak alır — ekran ilk açılışta doğru gösterilir.
			if h.presence != nil {
				for _, ev := range h.presence.SnapshotEvents(context.Background(), client.userID) {
					h.sendToClient(client, ev)
				}
			}

		case client := <-h.unregister:
			last, removed := h.removeClient(client)

			// Offline geçişi 1→0 sınırında: önce kullanıcının açık typing
			// göstergeleri kapatılır, odak temizlenir, en son online listesi
			// yayınlanır. Sıra önemli — karşı taraf önce "yazması durdu"
			// sonra "offline oldu" görür.
			if removed && last {
				if h.typing != nil {
					h.typing.StopAllForUser(context.Background(), client.userID)
				}
				if h.focus != nil {
					h.focus.ClearUser(client.userID)
				}
				if h.presence != nil {
					h.presence.UserOffline(context.Background(), client.userID)
				}
			}
		}
	}
}

// addClient, yeni bir client'ı Hub'a ekler.
// Dönüş: bu kullanıcının İLK bağlantısı mı (0→1 geçişi)?
func (h *Hub) addClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	first := false
	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
		first = true
	}
	h.clients[client.userID][client] = true

	log.Printf("[ws] client connected: user=%s conn=%s (total connections for user: %d)",
		client.userID, client.connID, len(h.clients[client.userID]))

	return first
}

// removeClient, bir client'ı Hub'dan çıkarır ve send channel'ını kapatır.
// Dönüş: (kullanıcının son bağlantısı mıydı, client gerçekten kayıtlı mıydı).
// İkinci değer DisconnectRace için: aynı client iki kez unregister edilirse
// (read hatası + yavaş buffer aynı anda) ikincisi no-op olur.
func (h *Hub) removeClient(client *Client) (last, removed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok {
		return false, false
	}
	if _, exists := clients[client]; !exists {
		return false, false
	}

	delete(clients, client)
	// closeSend bayrağı kapanıştan önce set eder: client'ın ReadPump'ı
	// hâlâ event işliyor olsa bile kapanmış channel'a yazamaz.
	client.closeSend()

	// Kullanıcının başka bağlantısı kalmadıysa map'ten sil
	if len(clients) == 0 {
		delete(h.clients, client.userID)
		log.Printf("[ws] user fully disconnected: %s", client.userID)
		return true, true
	}

	log.Printf("[ws] client disconnected: user=%s (remaining: %d)",
		client.userID, len(clients))
	return false, true
}

// BroadcastToAll, tüm bağlı client'lara event gönderir.
func (h *Hub) BroadcastToAll(event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal broadcast event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			h.enqueue(client, data)
		}
	}
}

// BroadcastToUser, belirli bir kullanıcının tüm bağlantılarına event gönderir.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal user event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.clients[userID]; ok {
		for client := range clients {
			h.enqueue(client, data)
		}
	}
}

// sendToClient, TEK bir bağlantıya event gönderir (snapshot ve error ack için).
// BroadcastToUser'dan farkı: kullanıcının diğer tab'ları event'i almaz.
func (h *Hub) sendToClient(client *Client, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal client event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.enqueue(client, data)
}

// enqueue, marshal edilmiş veriyi client'ın send buffer'ına ekler.
// Buffer doluysa client yavaş demektir — bağlantı ayrı bir goroutine
// üzerinden kapatılır (Run loop'una channel ile sinyal, deadlock olmaz).
func (h *Hub) enqueue(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		go func(c *Client) { h.unregister <- c }(client)
	}
}

// OnlineUserIDs, bağlı olan tüm kullanıcı ID'lerini döner.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// IsOnline, kullanıcının en az bir aktif bağlantısı var mı?
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.clients[userID]
	return ok
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			// Pump'lar hâlâ canlı — closeSend geç gelen heartbeat'lerin
			// kapanmış channel'a yazmasını engeller.
			client.closeSend()
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	log.Println("[ws] hub shut down, all connections closed")
}

package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	// Bu süre aşılırsa bağlantı kapatılır (ağ sorunu olabilir).
	writeWait = 10 * time.Second

	// pongWait: Client'ın heartbeat göndermesi için beklenen maksimum süre.
	// 3 heartbeat kaçırma = 30s × 3 = 90s.
	// Bu sürede heartbeat gelmezse client bağlantısı kopmuş sayılır.
	pongWait = 90 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum mesaj boyutu (byte).
	maxMessageSize = 8192

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	// Buffer doluysa (client yavaş) client disconnect edilir.
	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Go'da WebSocket bağlantı yönetimi pattern'i:
// Her bağlantı için iki goroutine oluşturulur:
// - ReadPump: Client'dan gelen event'leri okur → ilgili bileşene iletir
// - WritePump: send channel'dan gelen veriyi client'a yazar
//
// Neden iki goroutine?
// gorilla/websocket aynı anda sadece bir okuma ve bir yazma işlemi destekler.
// İki ayrı goroutine kullanarak okuma ve yazma birbirini bloklamaz.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	userID   string
	username string
	connID   string // Bağlantı kimliği — loglarda tab ayırt etmek için

	// send, client'a gönderilecek mesajların buffer'landığı channel.
	send chan []byte
	mu   sync.Mutex // conn.WriteMessage çağrılarını korur

	// closed: Bağlantı kapanış yoluna girdi mi?
	// Kapanıştan SONRA işlem sırasına girmiş event'ler bu bayrak sayesinde
	// sessizce düşürülür — kapanmış bağlantıya yanıt yazılmaya çalışılmaz.
	closed atomic.Bool

	// sendMu + sendClosed: send channel'ının kapanışını korur.
	// Hub client'ı düşürdüğünde (yavaş buffer, shutdown) ReadPump hâlâ
	// yaşıyor olabilir — kapanış ile sendEvent'in channel yazması bu mutex
	// ile serileştirilir, kapanmış channel'a yazma asla gerçekleşmez.
	sendMu     sync.RWMutex
	sendClosed bool
}

// closeSend, send channel'ını kapatır. TEK kapanış noktası budur —
// hub'ın removeClient'ı ve Shutdown'ı buradan geçer. İkinci çağrı no-op
// (disconnect yarışında çifte close panic'i olmaz). Bayrak kapanıştan
// ÖNCE set edilir: sendEvent'teki guard hub kaynaklı kapanışı da görür.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.closed.Store(true)
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// ReadPump, WebSocket bağlantısından gelen event'leri okur ve işler.
//
// Bu fonksiyon bağlantı kapanana kadar döngüde kalır.
// Event'ler SIRALI işlenir — aynı bağlantıdan gelen iki keystroke'un
// sırası asla değişmez (typing göstergesinin tutarlılığı buna dayanır).
func (c *Client) ReadPump() {
	defer func() {
		c.closed.Store(true)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	// SetReadDeadline: Bu süre içinde mesaj gelmezse Read hata verir.
	// Her heartbeat geldiğinde deadline yenilenir.
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(rawMessage, &event); err != nil {
			log.Printf("[ws] invalid message from user %s: %v", c.userID, err)
			continue
		}

		c.handleEvent(event)
	}
}

// handleEvent, client'dan gelen event'leri türüne göre işler.
func (c *Client) handleEvent(event Event) {
	// Kapanış yarışı: bağlantı kapanmışsa geç gelen event sessizce düşer.
	if c.closed.Load() {
		return
	}

	ctx := context.Background()

	switch event.Op {
	case OpHeartbeat:
		// Heartbeat geldi — deadline'ı yenile ve ack gönder.
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpChatJoined:
		var data ChatRefData
		if !decodeData(event.Data, &data) || data.ChatID == "" {
			return
		}
		if err := c.hub.router.Join(ctx, c.userID, data.ChatID); err != nil {
			c.sendError(err)
		}

	case OpChatLeaved:
		var data ChatRefData
		if !decodeData(event.Data, &data) || data.ChatID == "" {
			return
		}
		c.hub.router.Leave(ctx, c.userID, data.ChatID)

	case OpStartTyping:
		var data TypingData
		if !decodeData(event.Data, &data) || data.ChatID == "" {
			return
		}
		if err := c.hub.typing.Keystroke(ctx, data.ChatID, c.userID, c.username); err != nil {
			c.sendError(err)
		}

	case OpStopTyping:
		var data TypingData
		if !decodeData(event.Data, &data) || data.ChatID == "" {
			return
		}
		c.hub.typing.Stop(ctx, data.ChatID, c.userID)

	case OpNewMessage:
		var data NewMessageInbound
		if !decodeData(event.Data, &data) || data.ChatID == "" {
			return
		}
		if c.hub.onChatMessage == nil {
			return
		}
		// Hata SADECE gönderen bağlantıya iletilir — diğer üyeler
		// başarısız bir mesajdan haberdar olmaz.
		if err := c.hub.onChatMessage(ctx, c.userID, c.username, data.ChatID, data.Content); err != nil {
			c.sendError(err)
		}

	default:
		log.Printf("[ws] unknown op from user %s: %s", c.userID, event.Op)
	}
}

// decodeData, event.Data'yı (any) hedef struct'a parse eder.
//
// json.Marshal + json.Unmarshal neden?
// event.Data tipi `any` (interface{}), doğrudan cast edemeyiz.
// JSON'a çevirip tekrar parse etmek en güvenli yöntem.
func decodeData(data any, target any) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}

// sendError, isteği yapan bağlantıya hata uyarısı gönderir.
func (c *Client) sendError(err error) {
	c.sendEvent(Event{Op: OpError, Data: ErrorData{Message: err.Error()}})
}

// sendEvent, client'a tek bir event gönderir.
// Bağlantı kapanmışsa ErrDisconnectRace döner — caller genelde yoksayar.
func (c *Client) sendEvent(event Event) error {
	// RLock, closeSend ile yarışı kapatır: bayrak kontrolü ile channel
	// yazması arasında kapanış giremez.
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.closed.Load() {
		return ErrDisconnectRace
	}

	event.Seq = c.hub.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for user %s: %v", c.userID, err)
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer dolu — client muhtemelen donmuş, bağlantıyı kapat
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		go func() { c.hub.unregister <- c }()
		return ErrDisconnectRace
	}
}

// WritePump, send channel'dan gelen mesajları WebSocket bağlantısına yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı — Hub client'ı çıkardı
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage, WebSocket'e mesaj yazar (mutex ile korunur).
// gorilla/websocket conn'a aynı anda birden fazla yazma YASAK —
// bu yüzden mutex ile koruyoruz.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

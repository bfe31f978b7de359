// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları yöneten merkezi yapı (Observer pattern)
// - Client: Her WebSocket bağlantısını temsil eder
// - RoomResolver: Sohbet üyeliklerini cache'li çözer (DB'ye her event'te gidilmez)
// - PresenceTracker: Kullanıcının 0↔1 bağlantı sınırında online/offline yayını
// - TypingCoordinator: "yazıyor" göstergesi + 2sn emniyet zamanlayıcısı
// - Router: Mesaj dağıtımı, okunmamış uyarıları ve yapısal değişiklik bildirimi
//
// Event akışı (mesaj örneği):
// 1. Kullanıcı mesaj gönderir → HTTP POST veya WS NEW_MESSAGE → Service → DB kayıt
// 2. Service, Router.Publish'i çağırır
// 3. Router üyeleri çözer, her üyeye NEW_MESSAGE iletir
// 4. Sohbete bakmayan üyelere ek olarak NEW_MESSAGE_ALERT gider
// 5. Her client'ın WritePump'ı event'i WebSocket'e yazar
package ws

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü — "NEW_MESSAGE", "heartbeat" vb.
// Data: Event'e özgü payload — mesaj objesi, sohbet bilgisi vb.
// Seq (sequence number): Her outbound event'e verilen artan sayı.
//   Frontend eksik event tespit etmek için seq'i takip eder.
//   Örnek: seq 5'ten sonra seq 7 gelirse, 6 kaybolmuş demektir.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// ────────────────────────────────────────────
// Operation sabitleri
// ────────────────────────────────────────────

// Transport-level operasyonlar (Client ↔ Server)
const (
	OpHeartbeat    = "heartbeat"     // Client her 30sn'de gönderir — "hâlâ bağlıyım" sinyali
	OpHeartbeatAck = "heartbeat_ack" // Heartbeat'e yanıt — "seni duydum"
	OpError        = "ERROR"         // Sadece isteği yapan bağlantıya giden hata uyarısı
)

// Client → Server domain operasyonları
const (
	OpChatJoined  = "CHAT_JOINED" // Kullanıcı bir sohbet ekranını açtı (focus)
	OpChatLeaved  = "CHAT_LEAVED" // Kullanıcı sohbet ekranından ayrıldı
	OpNewMessage  = "NEW_MESSAGE" // Yeni mesaj — hem inbound (gönderim) hem outbound (dağıtım)
	OpStartTyping = "START_TYPING"
	OpStopTyping  = "STOP_TYPING"
)

// Server → Client domain operasyonları
const (
	OpOnlineUsers     = "ONLINE_USERS"      // Sohbet kapsamında online üye listesi
	OpNewMessageAlert = "NEW_MESSAGE_ALERT" // Sohbete bakmayan üyeye okunmamış uyarısı
	OpNewRequest      = "NEW_REQUEST"       // Yeni arkadaşlık isteği geldi
	OpRefetchChats    = "REFETCH_CHATS"     // Sohbet listesi yapısal olarak değişti — yeniden çek
	OpAlert           = "ALERT"             // Sistem duyurusu (admin kaynaklı)
)

// StructuralChangeKind, REFETCH_CHATS'i tetikleyen değişikliğin türü.
type StructuralChangeKind string

const (
	ChangeChatCreated   StructuralChangeKind = "chat_created"
	ChangeChatRenamed   StructuralChangeKind = "chat_renamed"
	ChangeChatDeleted   StructuralChangeKind = "chat_deleted"
	ChangeMemberAdded   StructuralChangeKind = "member_added"
	ChangeMemberRemoved StructuralChangeKind = "member_removed"
)

// ────────────────────────────────────────────
// Event payload struct'ları
// ────────────────────────────────────────────

// ChatRefData, chat_joined / chat_leaved gibi sadece sohbet ID'si taşıyan
// inbound event'lerin payload'ı.
type ChatRefData struct {
	ChatID string `json:"chat_id"`
}

// NewMessageInbound, client'tan gelen NEW_MESSAGE payload'ı.
type NewMessageInbound struct {
	ChatID  string `json:"chat_id"`
	Content string `json:"content"`
}

// NewMessageData, üyelere dağıtılan NEW_MESSAGE payload'ı.
// Mesaj DB'ye yazıldıktan SONRA dağıtılır — ID ve timestamp kesinleşmiştir.
type NewMessageData struct {
	MessageID  string `json:"message_id"`
	ChatID     string `json:"chat_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"` // RFC3339
}

// TypingData, START_TYPING / STOP_TYPING event'lerinin payload'ı.
// Inbound'da sadece ChatID dolu gelir; outbound'da UserID ve Username server doldurur.
type TypingData struct {
	ChatID   string `json:"chat_id"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// OnlineUsersData, ONLINE_USERS event'inin payload'ı.
// Liste her zaman TEK bir sohbetin kapsamıyla sınırlıdır — kullanıcının
// global online durumu değil, "bu sohbetin üyelerinden kimler online" bilgisi.
type OnlineUsersData struct {
	ChatID  string   `json:"chat_id"`
	UserIDs []string `json:"user_ids"`
}

// NewMessageAlertData, NEW_MESSAGE_ALERT payload'ı.
// Sadece sohbet ID'si taşır — mesaj içeriği alert'e konmaz,
// frontend rozet sayacını artırmak için sohbet ID'si yeterlidir.
type NewMessageAlertData struct {
	ChatID string `json:"chat_id"`
}

// NewRequestData, NEW_REQUEST payload'ı.
type NewRequestData struct {
	RequestID string `json:"request_id"`
	FromID    string `json:"from_id"`
	FromName  string `json:"from_name"`
}

// RefetchChatsData, REFETCH_CHATS payload'ı.
// Frontend bu event'i aldığında sohbet listesini API'den yeniden çeker —
// event deltayı değil, "listen bayat" sinyalini taşır.
type RefetchChatsData struct {
	ChatID string               `json:"chat_id"`
	Kind   StructuralChangeKind `json:"kind"`
}

// AlertData, ALERT event'inin payload'ı.
type AlertData struct {
	ChatID  string `json:"chat_id,omitempty"` // Boşsa platform geneli duyuru
	Message string `json:"message"`
}

// ErrorData, ERROR event'inin payload'ı.
// Sadece isteği yapan bağlantıya gider — diğer üyeler hatayı görmez.
type ErrorData struct {
	Message string `json:"message"`
}

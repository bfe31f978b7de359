package ws

import "errors"

// Realtime katmanının sentinel error'ları.
// pkg paketindeki genel error'lardan farklı olarak bunlar WS akışlarına özgüdür —
// handler katmanı değil, Router/TypingCoordinator çağıranları yakalar.
var (
	// ErrInvalidIdentity: Bağlantı isteği doğrulanamadı (token yok/geçersiz).
	// Bağlantı reddedilir, hiçbir state oluşturulmaz.
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrStaleMembership: Kullanıcı artık üyesi olmadığı bir sohbete
	// event göndermeye çalıştı (client'ın listesi bayat).
	ErrStaleMembership = errors.New("stale membership")

	// ErrUnknownChat: Var olmayan bir sohbet hedeflendi.
	ErrUnknownChat = errors.New("unknown chat")

	// ErrDisconnectRace: Event, bağlantı kapandıktan sonra geldi.
	// Sessizce düşürülür — client'a bildirim yapılmaz (yapılamaz).
	ErrDisconnectRace = errors.New("connection already closed")
)

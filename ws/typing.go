package ws

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultTypingTimeout, keystroke gelmediğinde göstergenin otomatik
// kapanma süresi. Client STOP_TYPING göndermeyi unutursa (crash, tab
// kapanması) karşı taraf sonsuza kadar "yazıyor..." görmez.
const DefaultTypingTimeout = 2 * time.Second

// typingKey, bir (sohbet, kullanıcı) çiftinin aktif typing durumunu adresler.
// Aynı kullanıcı iki farklı sohbette bağımsız olarak "yazıyor" olabilir.
type typingKey struct {
	chatID string
	userID string
}

// typingState, aktif bir typing göstergesinin durumu.
type typingState struct {
	username     string
	lastActivity time.Time
	timer        *time.Timer
}

// TypingCoordinator, "yazıyor" göstergesini yönetir.
//
// Davranış:
// - İlk keystroke START_TYPING yayınlar; gösterge açıkken gelen her yeni
//   keystroke SADECE zamanlayıcıyı uzatır, tekrar yayın yapmaz.
// - timeout boyunca keystroke gelmezse STOP_TYPING otomatik yayınlanır.
// - Explicit STOP_TYPING, disconnect ve sohbetten ayrılma göstergeyi
//   hemen kapatır. Açık olmayan göstergeye stop no-op'tur (idempotent).
//
// Keystroke kazanır:
// Zamanlayıcı tam dolarken keystroke gelirse mutex sırası karar verir.
// Zamanlayıcı callback'i lastActivity'yi YENİDEN kontrol eder — keystroke
// lock'u önce aldıysa süre dolmamış görünür ve zamanlayıcı yeniden kurulur.
// Sonuç: eşzamanlı yarışta gösterge açık kalır, asla "stop + start"
// çiftine bölünmez.
type TypingCoordinator struct {
	pub     EventPublisher
	rooms   *RoomResolver
	timeout time.Duration

	mu     sync.Mutex
	states map[typingKey]*typingState

	// now, zaman kaynağı — testlerde enjekte edilebilir.
	now func() time.Time
}

// NewTypingCoordinator, yeni bir TypingCoordinator oluşturur.
// timeout ≤ 0 ise DefaultTypingTimeout kullanılır.
func NewTypingCoordinator(pub EventPublisher, rooms *RoomResolver, timeout time.Duration) *TypingCoordinator {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &TypingCoordinator{
		pub:     pub,
		rooms:   rooms,
		timeout: timeout,
		states:  make(map[typingKey]*typingState),
		now:     time.Now,
	}
}

// Keystroke, kullanıcıdan gelen START_TYPING sinyalini işler.
//
// Dönen hatalar SADECE gönderene iletilmelidir:
// - ErrUnknownChat: sohbet yok
// - ErrStaleMembership: kullanıcı artık üye değil (client listesi bayat)
func (t *TypingCoordinator) Keystroke(ctx context.Context, chatID, userID, username string) error {
	// Üyelik doğrulaması lock DIŞINDA — DB/cache sorgusu diğer
	// keystroke'ları bloklamasın.
	members, err := t.rooms.Members(ctx, chatID)
	if err != nil {
		return err
	}
	if !containsID(members, userID) {
		return ErrStaleMembership
	}

	key := typingKey{chatID: chatID, userID: userID}

	t.mu.Lock()
	if st, ok := t.states[key]; ok {
		// Gösterge zaten açık — zamanlayıcıyı uzat, tekrar yayın yapma.
		st.lastActivity = t.now()
		st.timer.Reset(t.timeout)
		t.mu.Unlock()
		return nil
	}

	st := &typingState{username: username, lastActivity: t.now()}
	st.timer = time.AfterFunc(t.timeout, func() { t.expire(key) })
	t.states[key] = st
	t.mu.Unlock()

	// Yayın lock dışında — broadcast sırasında yeni keystroke'lar işlenebilir.
	t.emit(OpStartTyping, chatID, userID, username, members)
	return nil
}

// Stop, göstergeyi hemen kapatır (explicit STOP_TYPING veya sohbetten ayrılma).
// Açık gösterge yoksa no-op.
func (t *TypingCoordinator) Stop(ctx context.Context, chatID, userID string) {
	key := typingKey{chatID: chatID, userID: userID}

	t.mu.Lock()
	st, ok := t.states[key]
	if !ok {
		t.mu.Unlock()
		return
	}
	st.timer.Stop()
	delete(t.states, key)
	username := st.username
	t.mu.Unlock()

	t.emitToChat(ctx, OpStopTyping, chatID, userID, username)
}

// StopAllForUser, kullanıcının TÜM açık göstergelerini kapatır.
// Son bağlantı koptuğunda Hub tarafından çağrılır — karşı taraflar
// offline yayınından ÖNCE "yazması durdu" görür.
func (t *TypingCoordinator) StopAllForUser(ctx context.Context, userID string) {
	type stopped struct {
		chatID   string
		username string
	}

	t.mu.Lock()
	var toStop []stopped
	for key, st := range t.states {
		if key.userID == userID {
			st.timer.Stop()
			delete(t.states, key)
			toStop = append(toStop, stopped{chatID: key.chatID, username: st.username})
		}
	}
	t.mu.Unlock()

	for _, s := range toStop {
		t.emitToChat(ctx, OpStopTyping, s.chatID, userID, s.username)
	}
}

// ActiveCount, açık gösterge sayısını döner (test ve debug için).
func (t *TypingCoordinator) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.states)
}

// expire, zamanlayıcı dolduğunda çalışır.
//
// lastActivity yeniden kontrol edilir: zamanlayıcı ateşlenirken bir
// keystroke lock'u önce almış olabilir — bu durumda süre dolmamış
// görünür ve zamanlayıcı kalan süreyle yeniden kurulur (keystroke kazanır).
func (t *TypingCoordinator) expire(key typingKey) {
	t.mu.Lock()
	st, ok := t.states[key]
	if !ok {
		// Explicit stop zamanlayıcıdan önce davrandı.
		t.mu.Unlock()
		return
	}

	elapsed := t.now().Sub(st.lastActivity)
	if elapsed < t.timeout {
		st.timer.Reset(t.timeout - elapsed)
		t.mu.Unlock()
		return
	}

	delete(t.states, key)
	username := st.username
	t.mu.Unlock()

	t.emitToChat(context.Background(), OpStopTyping, key.chatID, key.userID, username)
}

// emit, typing event'ini verilen üye listesine yayınlar (yazan hariç).
func (t *TypingCoordinator) emit(op, chatID, userID, username string, members []string) {
	event := Event{
		Op:   op,
		Data: TypingData{ChatID: chatID, UserID: userID, Username: username},
	}
	for _, member := range members {
		if member == userID {
			continue
		}
		t.pub.BroadcastToUser(member, event)
	}
}

// emitToChat, üyeleri kendisi çözerek yayın yapar (stop yolları için).
// Üyelik çözülemezse yayın sessizce atlanır — gösterge zaten kapandı,
// stop event'inin kaybolması açık gösterge bırakmaz.
func (t *TypingCoordinator) emitToChat(ctx context.Context, op, chatID, userID, username string) {
	members, err := t.rooms.Members(ctx, chatID)
	if err != nil {
		log.Printf("[typing] cannot broadcast %s for chat %s: %v", op, chatID, err)
		return
	}
	t.emit(op, chatID, userID, username, members)
}

// containsID, ID listesinde arama yapar.
func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

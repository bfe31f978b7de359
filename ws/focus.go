package ws

import "sync"

// FocusStore, her kullanıcının şu an hangi sohbet ekranına baktığını tutar.
//
// Tek odak modeli: Bir kullanıcı aynı anda tek bir sohbete "bakıyor" sayılır.
// Yeni bir sohbete CHAT_JOINED göndermek önceki odağı örtülü olarak değiştirir —
// client her ekran geçişinde ayrıca CHAT_LEAVED göndermek zorunda değildir.
//
// Bu bilgi tamamen geçicidir (in-memory): bağlantı koptuğunda sıfırlanır,
// DB'ye yazılmaz. Okunmamış uyarı bastırma (NEW_MESSAGE_ALERT) dışında
// hiçbir şey buna bağlı değildir.
type FocusStore struct {
	mu      sync.RWMutex
	viewing map[string]string // userID → chatID
}

// NewFocusStore, yeni bir FocusStore oluşturur.
func NewFocusStore() *FocusStore {
	return &FocusStore{viewing: make(map[string]string)}
}

// Set, kullanıcının odağını verilen sohbete taşır (önceki odağı değiştirir).
func (f *FocusStore) Set(userID, chatID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewing[userID] = chatID
}

// Clear, odağı SADECE hâlâ verilen sohbetteyse temizler.
//
// Neden koşullu? Ekran geçişlerinde event'ler sırasız gelebilir:
// CHAT_JOINED(B) işlendikten sonra geciken CHAT_LEAVED(A) gelirse,
// koşulsuz silme B odağını yanlışlıkla düşürürdü. Idempotent:
// odak zaten başka yerdeyse no-op.
func (f *FocusStore) Clear(userID, chatID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.viewing[userID] == chatID {
		delete(f.viewing, userID)
	}
}

// ClearUser, kullanıcının odağını koşulsuz temizler (son bağlantı koptu).
func (f *FocusStore) ClearUser(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.viewing, userID)
}

// IsViewing, kullanıcı şu an verilen sohbete mi bakıyor?
func (f *FocusStore) IsViewing(userID, chatID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.viewing[userID] == chatID
}

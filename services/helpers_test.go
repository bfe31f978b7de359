package services

// Test fake'leri — repository interface'lerinin in-memory implementasyonları.
// DB olmadan service iş kurallarını test etmeyi sağlar; SQL davranışı
// (unique constraint, not found) burada elle taklit edilir.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/ws"
)

// ─── fakeUserRepo ───

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User // ID → user
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) addUser(id, username string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := &models.User{
		ID:          id,
		Username:    username,
		Email:       username + "@test.local",
		DisplayName: username,
		CreatedAt:   time.Now(),
	}
	r.users[id] = u
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: username is already taken", pkg.ErrAlreadyExists)
		}
		if u.Email == user.Email {
			return fmt.Errorf("%w: email is already registered", pkg.ErrAlreadyExists)
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userID, newPasswordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return pkg.ErrNotFound
	}
	u.PasswordHash = newPasswordHash
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

// ─── fakeSessionRepo ───

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session // ID → session
	seq      int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	session.ID = fmt.Sprintf("session-%d", r.seq)
	session.CreatedAt = time.Now()
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.RefreshToken == refreshToken {
			cp := *s
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return pkg.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := time.Now()
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ─── fakeResetTokenRepo ───

type fakeResetTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.PasswordResetToken // ID → token
	seq    int
}

func newFakeResetTokenRepo() *fakeResetTokenRepo {
	return &fakeResetTokenRepo{tokens: make(map[string]*models.PasswordResetToken)}
}

func (r *fakeResetTokenRepo) Create(ctx context.Context, token *models.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	token.ID = fmt.Sprintf("reset-%d", r.seq)
	token.CreatedAt = time.Now()
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *fakeResetTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash && !t.Used && t.ExpiresAt.After(now) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeResetTokenRepo) MarkUsed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return pkg.ErrNotFound
	}
	t.Used = true
	return nil
}

func (r *fakeResetTokenRepo) DeleteForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, id)
		}
	}
	return nil
}

// ─── fakeEmailSender ───

type fakeEmailSender struct {
	mu     sync.Mutex
	sent   []string // gönderilen plaintext token'lar
	toAddr []string
}

func (s *fakeEmailSender) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, token)
	s.toAddr = append(s.toAddr, toEmail)
	return nil
}

// ─── fakeChatRepo ───
//
// Members ve ChatIDsOf method'larıyla ws.MemberStore'u da karşılar —
// realtime stack'i gerçek RoomResolver/Router ile kurulabilir.

type fakeChatRepo struct {
	mu      sync.Mutex
	chats   map[string]*models.Chat
	members map[string][]string // chatID → üyeler
	seq     int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:   make(map[string]*models.Chat),
		members: make(map[string][]string),
	}
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *models.Chat, memberIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	chat.ID = fmt.Sprintf("chat-%d", r.seq)
	chat.CreatedAt = time.Now()
	cp := *chat
	r.chats[chat.ID] = &cp
	r.members[chat.ID] = append([]string(nil), memberIDs...)
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeChatRepo) FindDirect(ctx context.Context, userA, userB string) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.chats {
		if c.IsGroup {
			continue
		}
		ms := r.members[id]
		if containsStr(ms, userA) && containsStr(ms, userB) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeChatRepo) Members(ctx context.Context, chatID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[chatID]; !ok {
		return nil, pkg.ErrNotFound
	}
	return append([]string(nil), r.members[chatID]...), nil
}

func (r *fakeChatRepo) ChatIDsOf(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, ms := range r.members {
		if containsStr(ms, userID) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeChatRepo) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return containsStr(r.members[chatID], userID), nil
}

func (r *fakeChatRepo) AddMember(ctx context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[chatID]; !ok {
		return pkg.ErrNotFound
	}
	if containsStr(r.members[chatID], userID) {
		return fmt.Errorf("%w: user is already a member", pkg.ErrAlreadyExists)
	}
	r.members[chatID] = append(r.members[chatID], userID)
	return nil
}

func (r *fakeChatRepo) RemoveMember(ctx context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms := r.members[chatID]
	for i, id := range ms {
		if id == userID {
			r.members[chatID] = append(ms[:i], ms[i+1:]...)
			return nil
		}
	}
	return pkg.ErrNotFound
}

func (r *fakeChatRepo) Rename(ctx context.Context, chatID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return pkg.ErrNotFound
	}
	c.Name = name
	return nil
}

func (r *fakeChatRepo) Delete(ctx context.Context, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[chatID]; !ok {
		return pkg.ErrNotFound
	}
	delete(r.chats, chatID)
	delete(r.members, chatID)
	return nil
}

func (r *fakeChatRepo) ListForUser(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChatSummary
	for id, c := range r.chats {
		if containsStr(r.members[id], userID) {
			out = append(out, models.ChatSummary{
				Chat:      *c,
				MemberIDs: append([]string(nil), r.members[id]...),
			})
		}
	}
	return out, nil
}

// ─── fakeMessageRepo ───

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []models.Message
	seq      int
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	message.ID = fmt.Sprintf("msg-%d", r.seq)
	message.CreatedAt = time.Now()
	r.messages = append(r.messages, *message)
	return nil
}

func (r *fakeMessageRepo) ListByChat(ctx context.Context, chatID string, before time.Time, limit int) ([]models.MessageWithSender, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.MessageWithSender
	for i := len(r.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.messages[i]
		if m.ChatID != chatID {
			continue
		}
		if !before.IsZero() && !m.CreatedAt.Before(before) {
			continue
		}
		out = append(out, models.MessageWithSender{Message: m})
	}
	return out, nil
}

func (r *fakeMessageRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// ─── fakeFriendshipRepo ───

type fakeFriendshipRepo struct {
	mu      sync.Mutex
	records map[string]*models.Friendship
	seq     int
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{records: make(map[string]*models.Friendship)}
}

func (r *fakeFriendshipRepo) Create(ctx context.Context, friendship *models.Friendship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	friendship.ID = fmt.Sprintf("fr-%d", r.seq)
	friendship.CreatedAt = time.Now()
	cp := *friendship
	r.records[friendship.ID] = &cp
	return nil
}

func (r *fakeFriendshipRepo) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.records[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFriendshipRepo) GetBetween(ctx context.Context, userA, userB string) (*models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.records {
		if (f.RequesterID == userA && f.AddresseeID == userB) ||
			(f.RequesterID == userB && f.AddresseeID == userA) {
			cp := *f
			return &cp, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeFriendshipRepo) Accept(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.records[id]
	if !ok || f.Status != models.FriendshipStatusPending {
		return pkg.ErrNotFound
	}
	f.Status = models.FriendshipStatusAccepted
	return nil
}

func (r *fakeFriendshipRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return pkg.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *fakeFriendshipRepo) ListFriends(ctx context.Context, userID string) ([]models.FriendshipWithUser, error) {
	return nil, nil
}

func (r *fakeFriendshipRepo) ListPendingFor(ctx context.Context, userID string) ([]models.FriendshipWithUser, error) {
	return nil, nil
}

// ─── fakePublisher (ws.EventPublisher) ───

type recordedEvent struct {
	UserID string // BroadcastToAll için "*"
	Event  ws.Event
}

type fakePublisher struct {
	mu     sync.Mutex
	sent   []recordedEvent
	online map[string]bool
}

func newFakePublisher(onlineUsers ...string) *fakePublisher {
	online := make(map[string]bool)
	for _, id := range onlineUsers {
		online[id] = true
	}
	return &fakePublisher{online: online}
}

func (p *fakePublisher) BroadcastToAll(event ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, recordedEvent{UserID: "*", Event: event})
}

func (p *fakePublisher) BroadcastToUser(userID string, event ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, recordedEvent{UserID: userID, Event: event})
}

func (p *fakePublisher) OnlineUserIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.online))
	for id := range p.online {
		ids = append(ids, id)
	}
	return ids
}

func (p *fakePublisher) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *fakePublisher) eventsFor(op string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedEvent
	for _, e := range p.sent {
		if e.Event.Op == op {
			out = append(out, e)
		}
	}
	return out
}

func (p *fakePublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = nil
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

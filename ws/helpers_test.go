package ws

import (
	"context"
	"fmt"
	"sync"

	"github.com/akinalp/sohbet/pkg"
)

// fakeStore, testlerde MemberStore yerine geçen in-memory implementasyon.
// failing=true yapılarak geçici DB hatası simüle edilir (degraded read testleri).
type fakeStore struct {
	mu      sync.Mutex
	members map[string][]string // chatID → üyeler
	chats   map[string][]string // userID → sohbetler
	failing bool
	calls   int // store'a kaç kez inildiğini sayar (cache hit testleri)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members: make(map[string][]string),
		chats:   make(map[string][]string),
	}
}

func (s *fakeStore) Members(ctx context.Context, chatID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failing {
		return nil, fmt.Errorf("store unavailable")
	}
	ids, ok := s.members[chatID]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return ids, nil
}

func (s *fakeStore) ChatIDsOf(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failing {
		return nil, fmt.Errorf("store unavailable")
	}
	return s.chats[userID], nil
}

func (s *fakeStore) setMembers(chatID string, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[chatID] = ids
	for _, id := range ids {
		found := false
		for _, c := range s.chats[id] {
			if c == chatID {
				found = true
				break
			}
		}
		if !found {
			s.chats[id] = append(s.chats[id], chatID)
		}
	}
}

func (s *fakeStore) setFailing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = v
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// sentEvent, recordingPub'ın kaydettiği tek bir yayın.
type sentEvent struct {
	UserID string // BroadcastToAll için "*"
	Event  Event
}

// recordingPub, testlerde EventPublisher yerine geçen kayıt tutucu.
// online set'i IsOnline cevaplarını belirler.
type recordingPub struct {
	mu     sync.Mutex
	sent   []sentEvent
	online map[string]bool
}

func newRecordingPub(onlineUsers ...string) *recordingPub {
	online := make(map[string]bool)
	for _, id := range onlineUsers {
		online[id] = true
	}
	return &recordingPub{online: online}
}

func (p *recordingPub) BroadcastToAll(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentEvent{UserID: "*", Event: event})
}

func (p *recordingPub) BroadcastToUser(userID string, event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentEvent{UserID: userID, Event: event})
}

func (p *recordingPub) OnlineUserIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.online))
	for id := range p.online {
		ids = append(ids, id)
	}
	return ids
}

func (p *recordingPub) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

// events, kayıtlı yayınların kopyasını döner.
func (p *recordingPub) events() []sentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]sentEvent, len(p.sent))
	copy(out, p.sent)
	return out
}

// eventsFor, belirli op türündeki yayınları döner.
func (p *recordingPub) eventsFor(op string) []sentEvent {
	var out []sentEvent
	for _, e := range p.events() {
		if e.Event.Op == op {
			out = append(out, e)
		}
	}
	return out
}

// reset, kayıtları temizler.
func (p *recordingPub) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = nil
}

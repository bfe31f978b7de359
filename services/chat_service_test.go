package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/ws"
)

// chatFixture, service'i GERÇEK Router ile kurar — fake sadece DB ve
// publisher katmanında. Böylece cache invalidation + REFETCH_CHATS
// davranışı da service testlerinde doğrulanır.
type chatFixture struct {
	svc   ChatService
	chats *fakeChatRepo
	users *fakeUserRepo
	pub   *fakePublisher
}

func newChatFixture(t *testing.T, onlineUsers ...string) *chatFixture {
	t.Helper()

	chats := newFakeChatRepo()
	users := newFakeUserRepo()
	pub := newFakePublisher(onlineUsers...)

	rooms := ws.NewRoomResolver(chats, time.Minute)
	t.Cleanup(rooms.Close)
	focus := ws.NewFocusStore()
	typing := ws.NewTypingCoordinator(pub, rooms, time.Second)
	router := ws.NewRouter(pub, rooms, focus, typing)

	users.addUser("alice", "alice")
	users.addUser("bob", "bob")
	users.addUser("carol", "carol")

	return &chatFixture{
		svc:   NewChatService(chats, users, router),
		chats: chats,
		users: users,
		pub:   pub,
	}
}

func TestChatCreateDirect(t *testing.T) {
	f := newChatFixture(t, "alice", "bob")
	ctx := context.Background()

	chat, err := f.svc.CreateDirect(ctx, "alice", &models.CreateDirectChatRequest{UserID: "bob"})
	if err != nil {
		t.Fatalf("create direct: %v", err)
	}
	if chat.IsGroup {
		t.Error("direct chat must not be a group")
	}

	// Her iki üye REFETCH_CHATS almalı
	refetch := f.pub.eventsFor(ws.OpRefetchChats)
	if len(refetch) != 2 {
		t.Errorf("expected 2 refetch events, got %d", len(refetch))
	}
}

// Aynı çift için ikinci istek MEVCUT sohbeti dönmeli — yeni kayıt açılmaz.
func TestChatCreateDirectDedupe(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, _ := f.svc.CreateDirect(ctx, "alice", &models.CreateDirectChatRequest{UserID: "bob"})
	f.pub.reset()

	// Yön fark etmez: bob'dan alice'e de aynı sohbet
	second, err := f.svc.CreateDirect(ctx, "bob", &models.CreateDirectChatRequest{UserID: "alice"})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected existing chat %s, got %s", first.ID, second.ID)
	}
	if len(f.pub.eventsFor(ws.OpRefetchChats)) != 0 {
		t.Error("dedupe hit must not publish a structural change")
	}
}

func TestChatCreateDirectValidation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateDirect(ctx, "alice", &models.CreateDirectChatRequest{UserID: "alice"}); !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("self-chat must be rejected, got %v", err)
	}
	if _, err := f.svc.CreateDirect(ctx, "alice", &models.CreateDirectChatRequest{UserID: "hayalet"}); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("unknown target must be not found, got %v", err)
	}
}

// Owner üye listesinde olmasa bile gruba dahil edilir; tekrarlar ayıklanır.
func TestChatCreateGroup(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	chat, err := f.svc.CreateGroup(ctx, "alice", &models.CreateGroupChatRequest{
		Name:      "takım",
		MemberIDs: []string{"bob", "bob", "carol"},
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if chat.OwnerID != "alice" {
		t.Errorf("creator must be the owner, got %s", chat.OwnerID)
	}

	members, _ := f.chats.Members(ctx, chat.ID)
	if len(members) != 3 {
		t.Errorf("expected 3 unique members (owner included), got %v", members)
	}
}

func TestChatRenameOwnerOnly(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	chat, _ := f.svc.CreateGroup(ctx, "alice", &models.CreateGroupChatRequest{
		Name: "takım", MemberIDs: []string{"bob"},
	})

	if _, err := f.svc.Rename(ctx, "bob", chat.ID, &models.RenameChatRequest{Name: "darbe"}); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("non-owner rename must be forbidden, got %v", err)
	}

	renamed, err := f.svc.Rename(ctx, "alice", chat.ID, &models.RenameChatRequest{Name: "yeni takım"})
	if err != nil {
		t.Fatalf("owner rename: %v", err)
	}
	if renamed.Name != "yeni takım" {
		t.Errorf("got %q", renamed.Name)
	}
}

// Birebir sohbette üyelik sabittir — rename/add/remove reddedilir.
func TestChatDirectChatIsImmutable(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	chat, _ := f.svc.CreateDirect(ctx, "alice", &models.CreateDirectChatRequest{UserID: "bob"})

	if _, err := f.svc.Rename(ctx, "alice", chat.ID, &models.RenameChatRequest{Name: "x"}); !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("rename on direct chat: got %v", err)
	}
	if err := f.svc.AddMember(ctx, "alice", chat.ID, &models.AddMemberRequest{UserID: "carol"}); !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("add member on direct chat: got %v", err)
	}
	if err := f.svc.RemoveMember(ctx, "alice", chat.ID, "bob"); !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("remove member on direct chat: got %v", err)
	}
}

func TestChatAddMember(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	chat, _ := f.svc.CreateGroup(ctx, "alice", &models.CreateGroupChatRequest{
		Name: "takım", MemberIDs: []string{"bob"},
	})
	f.pub.reset()

	if err := f.svc.AddMember(ctx, "alice", chat.ID, &models.AddMemberRequest{UserID: "carol"}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	members, _ := f.chats.Members(ctx, chat.ID)
	if !containsStr(members, "carol") {
		t.Errorf("carol must be a member, got %v", members)
	}
	// Mevcut üyeler + yeni üye = 3 kişi REFETCH_CHATS alır
	if got := len(f.pub.eventsFor(ws.OpRefetchChats)); got != 3 {
		t.Errorf("expected 3 refetch events, got %d", got)
	}
}

// Üye kendini çıkarabilir (ayrılma); başkasını çıkaramaz; owner ayrılamaz.
func TestChatRemoveMemberRules(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	chat, _ := f.svc.CreateGroup(ctx, "alice", &models.CreateGroupChatRequest{
		Name: "takım", MemberIDs: []string{"bob", "carol"},
	})

	if err := f.svc.RemoveMember(ctx, "bob", chat.ID, "carol"); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("member removing another member must be forbidden, got %v", err)
	}
	if err := f.svc.RemoveMember(ctx, "alice", chat.ID, "alice"); !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("owner leaving must be rejected, got %v", err)
	}

	// bob kendi ayrılabilir
	if err := f.svc.RemoveMember(ctx, "bob", chat.ID, "bob"); err != nil {
		t.Fatalf("self-leave: %v", err)
	}
	// owner carol'u çıkarabilir
	if err := f.svc.RemoveMember(ctx, "alice", chat.ID, "carol"); err != nil {
		t.Fatalf("owner remove: %v", err)
	}

	members, _ := f.chats.Members(ctx, chat.ID)
	if len(members) != 1 || members[0] != "alice" {
		t.Errorf("only the owner should remain, got %v", members)
	}
}

// Çıkarılan üye artık listede olmasa da REFETCH_CHATS almalı.
func TestChatRemoveMemberNotifiesRemoved(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	chat, _ := f.svc.CreateGroup(ctx, "alice", &models.CreateGroupChatRequest{
		Name: "takım", MemberIDs: []string{"bob"},
	})
	f.pub.reset()

	if err := f.svc.RemoveMember(ctx, "alice", chat.ID, "bob"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	var bobNotified bool
	for _, e := range f.pub.eventsFor(ws.OpRefetchChats) {
		if e.UserID == "bob" {
			bobNotified = true
		}
	}
	if !bobNotified {
		t.Error("removed member must receive a refetch notification")
	}
}

// Silme: üye listesi silmeden ÖNCE alınır, herkes bildirilir.
func TestChatDelete(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	chat, _ := f.svc.CreateGroup(ctx, "alice", &models.CreateGroupChatRequest{
		Name: "takım", MemberIDs: []string{"bob", "carol"},
	})
	f.pub.reset()

	if err := f.svc.Delete(ctx, "bob", chat.ID); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("non-owner delete must be forbidden, got %v", err)
	}
	if err := f.svc.Delete(ctx, "alice", chat.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.chats.GetByID(ctx, chat.ID); !errors.Is(err, pkg.ErrNotFound) {
		t.Error("chat must be gone after delete")
	}
	if got := len(f.pub.eventsFor(ws.OpRefetchChats)); got != 3 {
		t.Errorf("all 3 former members must be notified, got %d", got)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/repository"
	"github.com/akinalp/sohbet/ws"
)

// ChatService, sohbet CRUD ve üyelik iş kuralları.
//
// Her yapısal değişiklik (oluşturma, yeniden adlandırma, üye ekleme/çıkarma,
// silme) Router.PublishStructuralChange üzerinden geçer: cache invalidation +
// etkilenen herkese tek REFETCH_CHATS. Service bu çağrıyı DB işlemi
// BAŞARILI olduktan sonra yapar — başarısız bir işlem bildirim üretmez.
type ChatService interface {
	// CreateDirect, iki kullanıcı arasında birebir sohbet açar.
	// Mevcut birebir sohbet varsa ONU döner — aynı çift için ikinci
	// sohbet açılmaz (dedupe).
	CreateDirect(ctx context.Context, userID string, req *models.CreateDirectChatRequest) (*models.Chat, error)
	CreateGroup(ctx context.Context, ownerID string, req *models.CreateGroupChatRequest) (*models.Chat, error)
	Rename(ctx context.Context, userID, chatID string, req *models.RenameChatRequest) (*models.Chat, error)
	AddMember(ctx context.Context, userID, chatID string, req *models.AddMemberRequest) error
	// RemoveMember, üye çıkarır. Owner herkesi çıkarabilir;
	// sıradan üye sadece kendini çıkarabilir (gruptan ayrılma).
	RemoveMember(ctx context.Context, userID, chatID, targetID string) error
	Delete(ctx context.Context, userID, chatID string) error
	ListForUser(ctx context.Context, userID string) ([]models.ChatSummary, error)
}

type chatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	router   *ws.Router
}

// NewChatService, constructor.
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, router *ws.Router) ChatService {
	return &chatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		router:   router,
	}
}

// CreateDirect, birebir sohbet açar veya mevcut olanı döner.
func (s *chatService) CreateDirect(ctx context.Context, userID string, req *models.CreateDirectChatRequest) (*models.Chat, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if req.UserID == userID {
		return nil, fmt.Errorf("%w: cannot create a chat with yourself", pkg.ErrBadRequest)
	}

	// Karşı taraf gerçekten var mı?
	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
		}
		return nil, err
	}

	// Dedupe: mevcut birebir sohbet varsa yenisini açma.
	existing, err := s.chatRepo.FindDirect(ctx, userID, req.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	chat := &models.Chat{IsGroup: false}
	memberIDs := []string{userID, req.UserID}
	if err := s.chatRepo.Create(ctx, chat, memberIDs); err != nil {
		return nil, err
	}

	s.router.PublishStructuralChange(ctx, chat.ID, ws.ChangeChatCreated, memberIDs)
	return chat, nil
}

// CreateGroup, grup sohbeti oluşturur. Oluşturan owner olur ve
// listede olmasa bile üyelere eklenir.
func (s *chatService) CreateGroup(ctx context.Context, ownerID string, req *models.CreateGroupChatRequest) (*models.Chat, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// Üye listesi dedupe edilir, owner her zaman dahildir.
	seen := map[string]bool{ownerID: true}
	memberIDs := []string{ownerID}
	for _, id := range req.MemberIDs {
		if seen[id] {
			continue
		}
		if _, err := s.userRepo.GetByID(ctx, id); err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				return nil, fmt.Errorf("%w: user %s not found", pkg.ErrNotFound, id)
			}
			return nil, err
		}
		seen[id] = true
		memberIDs = append(memberIDs, id)
	}

	chat := &models.Chat{
		Name:    req.Name,
		IsGroup: true,
		OwnerID: ownerID,
	}
	if err := s.chatRepo.Create(ctx, chat, memberIDs); err != nil {
		return nil, err
	}

	s.router.PublishStructuralChange(ctx, chat.ID, ws.ChangeChatCreated, memberIDs)
	return chat, nil
}

// Rename, grup sohbetinin adını değiştirir (sadece owner).
func (s *chatService) Rename(ctx context.Context, userID, chatID string, req *models.RenameChatRequest) (*models.Chat, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	chat, err := s.requireGroupOwner(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	if err := s.chatRepo.Rename(ctx, chatID, req.Name); err != nil {
		return nil, err
	}
	chat.Name = req.Name

	s.router.PublishStructuralChange(ctx, chatID, ws.ChangeChatRenamed, nil)
	return chat, nil
}

// AddMember, gruba üye ekler (sadece owner).
func (s *chatService) AddMember(ctx context.Context, userID, chatID string, req *models.AddMemberRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if _, err := s.requireGroupOwner(ctx, userID, chatID); err != nil {
		return err
	}

	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: user not found", pkg.ErrNotFound)
		}
		return err
	}

	if err := s.chatRepo.AddMember(ctx, chatID, req.UserID); err != nil {
		return err
	}

	s.router.PublishStructuralChange(ctx, chatID, ws.ChangeMemberAdded, []string{req.UserID})
	return nil
}

// RemoveMember, gruptan üye çıkarır.
// Owner herkesi çıkarabilir; üye sadece kendini (gruptan ayrılma).
// Owner kendini çıkaramaz — önce sohbeti silmeli veya devretmeli.
func (s *chatService) RemoveMember(ctx context.Context, userID, chatID, targetID string) error {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.IsGroup {
		return fmt.Errorf("%w: direct chats have fixed membership", pkg.ErrBadRequest)
	}

	isOwner := chat.OwnerID == userID
	if !isOwner && targetID != userID {
		return fmt.Errorf("%w: only the owner can remove other members", pkg.ErrForbidden)
	}
	if targetID == chat.OwnerID {
		return fmt.Errorf("%w: the owner cannot leave the group, delete it instead", pkg.ErrBadRequest)
	}

	if err := s.chatRepo.RemoveMember(ctx, chatID, targetID); err != nil {
		return err
	}

	// Çıkarılan kullanıcı artık üye listesinde yok ama bildirimi ALMALI —
	// affected listesi bunu garanti eder.
	s.router.PublishStructuralChange(ctx, chatID, ws.ChangeMemberRemoved, []string{targetID})
	return nil
}

// Delete, sohbeti siler (sadece owner).
// Üye listesi silmeden ÖNCE alınır — silme sonrası Members artık
// ErrNotFound döner ve bildirilecek kimse kalmazdı.
func (s *chatService) Delete(ctx context.Context, userID, chatID string) error {
	if _, err := s.requireGroupOwner(ctx, userID, chatID); err != nil {
		return err
	}

	members, err := s.chatRepo.Members(ctx, chatID)
	if err != nil {
		return err
	}

	if err := s.chatRepo.Delete(ctx, chatID); err != nil {
		return err
	}

	s.router.PublishStructuralChange(ctx, chatID, ws.ChangeChatDeleted, members)
	return nil
}

// ListForUser, kullanıcının sohbet listesini döner.
func (s *chatService) ListForUser(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	return s.chatRepo.ListForUser(ctx, userID)
}

// requireGroupOwner, sohbetin grup olduğunu ve userID'nin owner olduğunu doğrular.
func (s *chatService) requireGroupOwner(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, fmt.Errorf("%w: not a group chat", pkg.ErrBadRequest)
	}
	if chat.OwnerID != userID {
		return nil, fmt.Errorf("%w: only the group owner can do this", pkg.ErrForbidden)
	}
	return chat, nil
}

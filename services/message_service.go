package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/pkg/ratelimit"
	"github.com/akinalp/sohbet/repository"
	"github.com/akinalp/sohbet/ws"
)

// defaultMessagePageSize, mesaj listesinin varsayılan sayfa boyutu.
const defaultMessagePageSize = 50

// ErrMessageRateLimited, mesaj spam limiti aşıldığında döner.
// Handler bunu 429 + Retry-After olarak çevirir.
var ErrMessageRateLimited = errors.New("too many messages, slow down")

// MessageService, mesaj iş kuralları.
//
// Create iki transport'tan çağrılır: REST (POST /chats/{id}/messages) ve
// WebSocket (NEW_MESSAGE event'i). İkisi de aynı akıştan geçer:
// validation → üyelik kontrolü → rate limit → DB → Router.Publish.
// Dağıtım her zaman kalıcılaştırmadan SONRA yapılır — event'teki ID ve
// timestamp DB'nin verdiği kesin değerlerdir.
type MessageService interface {
	Create(ctx context.Context, userID, username, chatID string, req *models.CreateMessageRequest) (*models.Message, error)
	List(ctx context.Context, userID, chatID string, before time.Time, limit int) ([]models.MessageWithSender, error)
	// CooldownSeconds, rate limit sonrası kalan bekleme süresi (Retry-After).
	CooldownSeconds(userID string) int
}

type messageService struct {
	messageRepo repository.MessageRepository
	chatRepo    repository.ChatRepository
	router      *ws.Router
	limiter     *ratelimit.MessageRateLimiter
}

// NewMessageService, constructor.
func NewMessageService(
	messageRepo repository.MessageRepository,
	chatRepo repository.ChatRepository,
	router *ws.Router,
	limiter *ratelimit.MessageRateLimiter,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		router:      router,
		limiter:     limiter,
	}
}

// Create, mesajı kalıcılaştırır ve üyelere dağıtır.
func (s *messageService) Create(ctx context.Context, userID, username, chatID string, req *models.CreateMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// Üyelik kontrolü — üye olmayan kullanıcı sohbete yazamaz.
	isMember, err := s.chatRepo.IsMember(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		// Sohbet var mı yok mu ayrımı: yoksa UnknownChat, varsa bayat üyelik.
		if _, getErr := s.chatRepo.GetByID(ctx, chatID); getErr != nil {
			if errors.Is(getErr, pkg.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ws.ErrUnknownChat, chatID)
			}
			return nil, getErr
		}
		return nil, ws.ErrStaleMembership
	}

	// Spam koruması — DB yazımından ÖNCE, reddedilen mesaj iz bırakmaz.
	if !s.limiter.Allow(userID) {
		return nil, ErrMessageRateLimited
	}

	message := &models.Message{
		ChatID:   chatID,
		SenderID: userID,
		Content:  req.Content,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	// Dağıtım hatası mesajı geri almaz — mesaj DB'de, client'lar
	// REFETCH veya sayfa yenilemeyle yakalar. Hata sadece loglanıp
	// gönderene iletilmek üzere döndürülmez; Publish'in kendi hataları
	// (ErrUnknownChat) zaten üyelik kontrolünden geçemezdi.
	_ = s.router.Publish(ctx, ws.NewMessageData{
		MessageID:  message.ID,
		ChatID:     message.ChatID,
		SenderID:   message.SenderID,
		SenderName: username,
		Content:    message.Content,
		CreatedAt:  message.CreatedAt.UTC().Format(time.RFC3339),
	})

	return message, nil
}

// List, sohbet mesajlarını sayfalı döner (yeniden eskiye).
func (s *messageService) List(ctx context.Context, userID, chatID string, before time.Time, limit int) ([]models.MessageWithSender, error) {
	isMember, err := s.chatRepo.IsMember(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("%w: you are not a member of this chat", pkg.ErrForbidden)
	}

	if limit <= 0 || limit > 100 {
		limit = defaultMessagePageSize
	}

	return s.messageRepo.ListByChat(ctx, chatID, before, limit)
}

// CooldownSeconds, kullanıcının kalan mesaj cooldown süresi (Retry-After için).
func (s *messageService) CooldownSeconds(userID string) int {
	return s.limiter.CooldownSeconds(userID)
}

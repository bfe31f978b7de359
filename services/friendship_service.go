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

// FriendshipService, arkadaşlık iş kuralları.
//
// İstek geldiğinde hedef kullanıcı online ise NEW_REQUEST event'i alır —
// offline ise event kaybolur, listeyi açtığında pending istekler zaten
// DB'den gelir (event sadece anlık bildirimdir, kayıt kaynağı değil).
type FriendshipService interface {
	// SendRequest, username ile arkadaşlık isteği gönderir.
	SendRequest(ctx context.Context, userID string, req *models.SendFriendRequestRequest) (*models.Friendship, error)
	// Accept, gelen isteği kabul eder (sadece addressee).
	Accept(ctx context.Context, userID, requestID string) error
	// Decline, gelen isteği reddeder — kayıt silinir (sadece addressee).
	Decline(ctx context.Context, userID, requestID string) error
	// Remove, mevcut arkadaşlığı kaldırır (iki taraf da yapabilir).
	Remove(ctx context.Context, userID, friendshipID string) error
	ListFriends(ctx context.Context, userID string) ([]models.FriendshipWithUser, error)
	ListPending(ctx context.Context, userID string) ([]models.FriendshipWithUser, error)
}

type friendshipService struct {
	friendshipRepo repository.FriendshipRepository
	userRepo       repository.UserRepository
	pub            ws.EventPublisher
}

// NewFriendshipService, constructor.
func NewFriendshipService(friendshipRepo repository.FriendshipRepository, userRepo repository.UserRepository, pub ws.EventPublisher) FriendshipService {
	return &friendshipService{
		friendshipRepo: friendshipRepo,
		userRepo:       userRepo,
		pub:            pub,
	}
}

// SendRequest, arkadaşlık isteği gönderir ve hedefe NEW_REQUEST yayınlar.
func (s *friendshipService) SendRequest(ctx context.Context, userID string, req *models.SendFriendRequestRequest) (*models.Friendship, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	sender, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	target, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
		}
		return nil, err
	}

	if target.ID == userID {
		return nil, fmt.Errorf("%w: cannot send a friend request to yourself", pkg.ErrBadRequest)
	}

	// Hâlihazırda bir kayıt var mı? (pending veya accepted, her iki yönde)
	if existing, err := s.friendshipRepo.GetBetween(ctx, userID, target.ID); err == nil {
		if existing.Status == models.FriendshipStatusAccepted {
			return nil, fmt.Errorf("%w: you are already friends", pkg.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("%w: friend request already exists", pkg.ErrAlreadyExists)
	} else if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	friendship := &models.Friendship{
		RequesterID: userID,
		AddresseeID: target.ID,
		Status:      models.FriendshipStatusPending,
	}
	if err := s.friendshipRepo.Create(ctx, friendship); err != nil {
		return nil, err
	}

	// Hedefe anlık bildirim — tüm tab'larına gider.
	s.pub.BroadcastToUser(target.ID, ws.Event{
		Op: ws.OpNewRequest,
		Data: ws.NewRequestData{
			RequestID: friendship.ID,
			FromID:    sender.ID,
			FromName:  sender.DisplayName,
		},
	})

	return friendship, nil
}

// Accept, isteği kabul eder.
func (s *friendshipService) Accept(ctx context.Context, userID, requestID string) error {
	friendship, err := s.friendshipRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if friendship.AddresseeID != userID {
		return fmt.Errorf("%w: only the recipient can accept a friend request", pkg.ErrForbidden)
	}
	if friendship.Status != models.FriendshipStatusPending {
		return fmt.Errorf("%w: request is not pending", pkg.ErrBadRequest)
	}

	return s.friendshipRepo.Accept(ctx, requestID)
}

// Decline, isteği reddeder (kayıt silinir).
func (s *friendshipService) Decline(ctx context.Context, userID, requestID string) error {
	friendship, err := s.friendshipRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if friendship.AddresseeID != userID {
		return fmt.Errorf("%w: only the recipient can decline a friend request", pkg.ErrForbidden)
	}
	if friendship.Status != models.FriendshipStatusPending {
		return fmt.Errorf("%w: request is not pending", pkg.ErrBadRequest)
	}

	return s.friendshipRepo.Delete(ctx, requestID)
}

// Remove, arkadaşlığı kaldırır. Taraflardan herhangi biri yapabilir.
func (s *friendshipService) Remove(ctx context.Context, userID, friendshipID string) error {
	friendship, err := s.friendshipRepo.GetByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if friendship.RequesterID != userID && friendship.AddresseeID != userID {
		return fmt.Errorf("%w: not your friendship", pkg.ErrForbidden)
	}

	return s.friendshipRepo.Delete(ctx, friendshipID)
}

// ListFriends, kabul edilmiş arkadaşları döner.
func (s *friendshipService) ListFriends(ctx context.Context, userID string) ([]models.FriendshipWithUser, error) {
	return s.friendshipRepo.ListFriends(ctx, userID)
}

// ListPending, kullanıcıya gelen bekleyen istekleri döner.
func (s *friendshipService) ListPending(ctx context.Context, userID string) ([]models.FriendshipWithUser, error) {
	return s.friendshipRepo.ListPendingFor(ctx, userID)
}

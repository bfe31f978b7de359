// Package models — Chat domain modelleri.
//
// İki tür sohbet vardır:
// - Birebir (direct): is_group=false, name boş, her zaman 2 üye.
//   Aynı iki kullanıcı arasında tek bir birebir sohbet bulunur.
// - Grup: is_group=true, name dolu, bir owner'ı vardır.
//   Üye ekleme/çıkarma ve yeniden adlandırma sadece owner'a açıktır.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Chat, bir sohbeti temsil eder.
type Chat struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"` // Birebir sohbette boş — frontend karşı tarafın adını gösterir
	IsGroup   bool      `json:"is_group"`
	OwnerID   string    `json:"owner_id,omitempty"` // Sadece grup sohbetlerinde dolu
	CreatedAt time.Time `json:"created_at"`
}

// ChatSummary, sohbet listesi için zenginleştirilmiş görünüm.
// Son mesaj bilgisi JOIN ile gelir — liste ekranında önizleme için.
type ChatSummary struct {
	Chat
	MemberIDs       []string   `json:"member_ids"`
	LastMessage     string     `json:"last_message,omitempty"`
	LastMessageAt   *time.Time `json:"last_message_at,omitempty"`
	LastMessageFrom string     `json:"last_message_from,omitempty"`
}

// CreateDirectChatRequest, birebir sohbet açma payload'ı.
type CreateDirectChatRequest struct {
	UserID string `json:"user_id"` // Karşı taraf
}

// Validate, CreateDirectChatRequest kontrolü.
func (r *CreateDirectChatRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return nil
}

// CreateGroupChatRequest, grup sohbeti oluşturma payload'ı.
// MemberIDs oluşturan kullanıcıyı içermek zorunda değildir — service ekler.
type CreateGroupChatRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
}

// Validate, CreateGroupChatRequest kontrolü.
func (r *CreateGroupChatRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)
	if nameLen < 1 || nameLen > 64 {
		return fmt.Errorf("group name must be between 1 and 64 characters")
	}
	if len(r.MemberIDs) == 0 {
		return fmt.Errorf("at least one member is required")
	}
	return nil
}

// RenameChatRequest, grup sohbeti yeniden adlandırma payload'ı.
type RenameChatRequest struct {
	Name string `json:"name"`
}

// Validate, RenameChatRequest kontrolü.
func (r *RenameChatRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)
	if nameLen < 1 || nameLen > 64 {
		return fmt.Errorf("group name must be between 1 and 64 characters")
	}
	return nil
}

// AddMemberRequest, gruba üye ekleme payload'ı.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

// Validate, AddMemberRequest kontrolü.
func (r *AddMemberRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return nil
}

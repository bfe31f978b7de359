// Package pkg, katmanlar arası paylaşılan parçaları barındırır:
// domain error'ları, API response helper'ları ve alt paketlerdeki
// cache / ratelimit / email yardımcıları.
//
// Bu dosya domain-level sentinel error'ları tanımlar. Service katmanı
// bunları fmt.Errorf("%w: ...") ile sarıp döner, handler katmanı
// pkg.Error ile HTTP status'a çevirir:
//
//	return fmt.Errorf("%w: chat not found", pkg.ErrNotFound)
//
// errors.Is ile karşılaştırma wrap zincirini de takip eder — string
// karşılaştırmasına asla ihtiyaç kalmaz.
//
// Realtime çekirdeğin kendi sentinel'ları (ErrStaleMembership,
// ErrUnknownChat vb.) ws paketindedir; handler'lar ikisini birlikte
// map'ler (ör. handlers/message.go).
package pkg

import "errors"

var (
	ErrNotFound      = errors.New("not found")      // 404 — kayıt yok (user, chat, friendship...)
	ErrUnauthorized  = errors.New("unauthorized")   // 401 — kimlik yok/geçersiz
	ErrForbidden     = errors.New("forbidden")      // 403 — kimlik var, yetki yok
	ErrAlreadyExists = errors.New("already exists") // 409 — unique ihlali (username, pending istek...)
	ErrBadRequest    = errors.New("bad request")    // 400 — validation hatası
	ErrInternal      = errors.New("internal error") // 500 — beklenmeyen durum
)

package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
)

type authFixture struct {
	svc      AuthService
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	resets   *fakeResetTokenRepo
	email    *fakeEmailSender
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    newFakeUserRepo(),
		sessions: newFakeSessionRepo(),
		resets:   newFakeResetTokenRepo(),
		email:    &fakeEmailSender{},
	}
	f.svc = NewAuthService(f.users, f.sessions, f.resets, f.email, "test-secret", 15, 7)
	return f
}

func (f *authFixture) register(t *testing.T, username, password string) *AuthTokens {
	t.Helper()
	tokens, err := f.svc.Register(context.Background(), &models.CreateUserRequest{
		Username: username,
		Email:    username + "@test.local",
		Password: password,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return tokens
}

// Register → Login → ValidateAccessToken tam tur.
func TestAuthRegisterLoginRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	regTokens := f.register(t, "alice", "parola123")
	if regTokens.AccessToken == "" || regTokens.RefreshToken == "" {
		t.Fatal("register must return both tokens")
	}
	if regTokens.User.PasswordHash != "" {
		t.Error("password hash must never leak into the response")
	}

	loginTokens, err := f.svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "parola123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := f.svc.ValidateAccessToken(loginTokens.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != regTokens.User.ID || claims.Username != "alice" {
		t.Errorf("claims mismatch: %+v", claims)
	}
}

func TestAuthRegisterDuplicateUsername(t *testing.T) {
	f := newAuthFixture(t)

	f.register(t, "alice", "parola123")
	_, err := f.svc.Register(context.Background(), &models.CreateUserRequest{
		Username: "alice",
		Email:    "baska@test.local",
		Password: "parola123",
	})
	if !errors.Is(err, pkg.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

// "Kullanıcı yok" ile "şifre yanlış" aynı mesajı dönmeli —
// hesap varlığı response'tan sızdırılmaz.
func TestAuthLoginUniformFailureMessage(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "alice", "parola123")

	_, errUnknown := f.svc.Login(ctx, &models.LoginRequest{Username: "kimse", Password: "parola123"})
	_, errWrongPw := f.svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "yanlisparola"})

	if !errors.Is(errUnknown, pkg.ErrUnauthorized) || !errors.Is(errWrongPw, pkg.ErrUnauthorized) {
		t.Fatalf("both failures must be unauthorized: %v / %v", errUnknown, errWrongPw)
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Errorf("error messages must be identical: %q vs %q", errUnknown, errWrongPw)
	}
}

// Refresh rotasyonu: eski refresh token kullanılamaz hale gelmeli.
func TestAuthRefreshTokenRotation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	tokens := f.register(t, "alice", "parola123")

	rotated, err := f.svc.RefreshToken(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Error("refresh must issue a NEW refresh token")
	}

	// Eski token artık geçersiz
	if _, err := f.svc.RefreshToken(ctx, tokens.RefreshToken); !errors.Is(err, pkg.ErrUnauthorized) {
		t.Errorf("old refresh token must be rejected after rotation, got %v", err)
	}

	// Yenisi çalışır
	if _, err := f.svc.RefreshToken(ctx, rotated.RefreshToken); err != nil {
		t.Errorf("rotated token must work: %v", err)
	}
}

// Logout idempotent: bilinmeyen token'da da hata dönmez.
func TestAuthLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	tokens := f.register(t, "alice", "parola123")

	if err := f.svc.Logout(ctx, tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if f.sessions.count() != 0 {
		t.Error("logout must delete the session")
	}
	if err := f.svc.Logout(ctx, tokens.RefreshToken); err != nil {
		t.Errorf("second logout must be a no-op, got %v", err)
	}
}

func TestAuthValidateGarbageToken(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.ValidateAccessToken("bu-bir-jwt-degil"); !errors.Is(err, pkg.ErrUnauthorized) {
		t.Errorf("garbage token must be unauthorized, got %v", err)
	}
}

// Şifre sıfırlama tam turu: email'deki token ile yeni şifre belirlenir,
// tüm oturumlar kapanır, token ikinci kez kullanılamaz.
func TestAuthPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "alice", "eskiparola1")

	if err := f.svc.RequestPasswordReset(ctx, &models.ForgotPasswordRequest{Email: "alice@test.local"}); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if len(f.email.sent) != 1 {
		t.Fatalf("expected 1 reset email, got %d", len(f.email.sent))
	}
	plaintext := f.email.sent[0]
	if len(plaintext) != 64 {
		t.Errorf("reset token should be 64 hex chars, got %d", len(plaintext))
	}

	if err := f.svc.ResetPassword(ctx, &models.ResetPasswordRequest{Token: plaintext, NewPassword: "yeniparola1"}); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	// Tüm oturumlar iptal edildi
	if f.sessions.count() != 0 {
		t.Error("reset must invalidate all sessions")
	}

	// Eski şifre artık çalışmaz, yenisi çalışır
	if _, err := f.svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "eskiparola1"}); err == nil {
		t.Error("old password must be rejected after reset")
	}
	if _, err := f.svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "yeniparola1"}); err != nil {
		t.Errorf("new password must work: %v", err)
	}

	// Token tek kullanımlık
	err := f.svc.ResetPassword(ctx, &models.ResetPasswordRequest{Token: plaintext, NewPassword: "baskaparola1"})
	if !errors.Is(err, pkg.ErrUnauthorized) {
		t.Errorf("used token must be rejected, got %v", err)
	}
}

// Bilinmeyen email sessizce başarılı görünmeli — enumeration koruması.
func TestAuthPasswordResetUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	if err := f.svc.RequestPasswordReset(context.Background(), &models.ForgotPasswordRequest{Email: "yok@test.local"}); err != nil {
		t.Fatalf("unknown email must not surface an error, got %v", err)
	}
	if len(f.email.sent) != 0 {
		t.Error("no email must be sent for unknown addresses")
	}
}

// Email yapılandırılmamışsa (sender=nil) akış kapalıdır.
func TestAuthPasswordResetNotConfigured(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users, newFakeSessionRepo(), newFakeResetTokenRepo(), nil, "test-secret", 15, 7)

	err := svc.RequestPasswordReset(context.Background(), &models.ForgotPasswordRequest{Email: "alice@test.local"})
	if !errors.Is(err, pkg.ErrInternal) {
		t.Errorf("expected ErrInternal when email is not configured, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "not configured") {
		t.Errorf("unexpected message: %v", err)
	}
}

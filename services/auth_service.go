package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/wespark/certifier/models"
	"github.com/wespark/certifier/storage"
)

const magicLinkTTL = 15 * time.Minute

// ErrInvalidMagicLink covers missing, expired and already-used tokens alike;
// callers get no hint which one it was.
var ErrInvalidMagicLink = errors.New("invalid or expired magic link")

type AuthService struct {
	store     storage.Storage
	jwtSecret []byte
}

func NewAuthService(store storage.Storage, jwtSecret string) *AuthService {
	return &AuthService{store: store, jwtSecret: []byte(jwtSecret)}
}

// CreateMagicLink mints a single-use login token for the address and stores
// it with a 15-minute expiry. Delivery is the caller's concern.
func (s *AuthService) CreateMagicLink(ctx context.Context, email string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate magic link token: %w", err)
	}
	token := hex.EncodeToString(buf)

	link := &models.MagicLink{
		Email:     email,
		Token:     token,
		ExpiresAt: time.Now().Add(magicLinkTTL),
	}
	if err := s.store.CreateMagicLink(ctx, link); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyMagicLink consumes a token: it succeeds at most once per token,
// rejects expired or already-used ones, and finds or creates the graduate
// account for the link's email.
func (s *AuthService) VerifyMagicLink(ctx context.Context, token string) (*models.User, error) {
	link, err := s.store.GetMagicLink(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidMagicLink
		}
		return nil, err
	}
	if link.Used || link.Expired(time.Now()) {
		return nil, ErrInvalidMagicLink
	}

	used, err := s.store.UseMagicLink(ctx, token)
	if err != nil {
		return nil, err
	}
	if !used {
		return nil, ErrInvalidMagicLink
	}

	user, err := s.store.GetUserByEmail(ctx, link.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	user = &models.User{
		Email: link.Email,
		Name:  strings.SplitN(link.Email, "@", 2)[0],
		Role:  models.RoleGraduate,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs a 72-hour JWT carrying the user id and role, used to gate
// the admin API group.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tripbite/middleware"
	"tripbite/models"
	"tripbite/rdx"
	"tripbite/utils"
)

var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrUserNotFound       = errors.New("user not found")
)

const (
	minPasswordLen = 8
	// bcrypt refuses anything longer.
	maxPasswordLen = 72
)

// ValidationError lists every problem with a submitted form.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, " ")
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLogin(ctx context.Context, userID string, at time.Time) error
}

type TokenStore interface {
	Save(ctx context.Context, hash, userID string, ttl time.Duration) error
	Lookup(ctx context.Context, hash string) (string, error)
	Delete(ctx context.Context, hash string) error
}

type Options struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

type Service struct {
	users  UserStore
	tokens TokenStore
	opts   Options
	now    func() time.Time
}

func NewService(users UserStore, tokens TokenStore, opts Options) *Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, tokens: tokens, opts: opts, now: time.Now}
}

// Session is what a successful login or refresh hands back to the client.
type Session struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         *Profile  `json:"user,omitempty"`
}

type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	var problems []string
	if !validEmail(email) {
		problems = append(problems, "Email is invalid.")
	}
	if len(strings.TrimSpace(password)) < minPasswordLen {
		problems = append(problems, "Password must be 8 characters long.")
	}
	if len(strings.TrimSpace(password)) > maxPasswordLen {
		problems = append(problems, "Password must be at most 72 bytes.")
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Errors: problems}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		UserID:    utils.GetUUID(),
		Email:     email,
		Password:  string(hashed),
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	var problems []string
	if !validEmail(email) {
		problems = append(problems, "Email is invalid.")
	}
	if strings.TrimSpace(password) == "" {
		problems = append(problems, "Please enter a password.")
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Errors: problems}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(strings.TrimSpace(password))); err != nil {
		return nil, ErrInvalidCredentials
	}

	sess, err := s.issue(user.UserID, user.Email)
	if err != nil {
		return nil, err
	}

	refresh, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokens.Save(ctx, hashToken(refresh), user.UserID, s.opts.RefreshTTL); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	sess.RefreshToken = refresh
	sess.User = &Profile{ID: user.UserID, Email: user.Email}

	if err := s.users.TouchLogin(ctx, user.UserID, s.now().UTC()); err != nil {
		log.Printf("[Login] failed to record login for %s: %v", user.UserID, err)
	}
	return sess, nil
}

// Refresh trades a refresh token for a new access token. The refresh token
// must belong to userID.
func (s *Service) Refresh(ctx context.Context, userID, refreshToken string) (*Session, error) {
	if userID == "" || refreshToken == "" {
		return nil, ErrInvalidRefresh
	}
	owner, err := s.tokens.Lookup(ctx, hashToken(refreshToken))
	if errors.Is(err, rdx.ErrTokenNotFound) {
		return nil, ErrInvalidRefresh
	}
	if err != nil {
		return nil, fmt.Errorf("look up refresh token: %w", err)
	}
	if owner != userID {
		return nil, ErrInvalidRefresh
	}
	return s.issue(userID, "")
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrInvalidRefresh
	}
	if err := s.tokens.Delete(ctx, hashToken(refreshToken)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *Service) issue(userID, email string) (*Session, error) {
	now := s.now()
	expires := now.Add(s.opts.AccessTTL)
	claims := &middleware.Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expires.UTC()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

func generateRefreshToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

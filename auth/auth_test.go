package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"

	"tripbite/middleware"
	"tripbite/models"
	"tripbite/rdx"
)

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]models.User
	touched map[string]time.Time
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]models.User{}, touched: map[string]time.Time{}}
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return ErrEmailTaken
	}
	m.byEmail[user.Email] = *user
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) TouchLogin(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[userID] = at
	return nil
}

type memTokens struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memTokens) Save(_ context.Context, hash, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[hash] = userID
	return nil
}

func (m *memTokens) Lookup(_ context.Context, hash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.data[hash]
	if !ok {
		return "", rdx.ErrTokenNotFound
	}
	return id, nil
}

func (m *memTokens) Delete(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, hash)
	return nil
}

var testSecret = []byte("test_secret")

func newTestService() (*Service, *memUsers, *memTokens) {
	users := newMemUsers()
	tokens := &memTokens{data: map[string]string{}}
	svc := NewService(users, tokens, Options{
		Secret:     testSecret,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	return svc, users, tokens
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()

	tests := []struct {
		name     string
		email    string
		password string
		want     []string
	}{
		{"bad email", "not-an-email", "longenough", []string{"Email is invalid."}},
		{"short password", "a@b.com", "short", []string{"Password must be 8 characters long."}},
		{"both", "", "", []string{"Email is invalid.", "Password must be 8 characters long."}},
		{"padded password", "a@b.com", "   1234   ", []string{"Password must be 8 characters long."}},
		{"long password", "a@b.com", strings.Repeat("x", 73), []string{"Password must be at most 72 bytes."}},
		{"multibyte password", "a@b.com", strings.Repeat("é", 40), []string{"Password must be at most 72 bytes."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.password)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if strings.Join(verr.Errors, "|") != strings.Join(tt.want, "|") {
				t.Errorf("errors = %v, want %v", verr.Errors, tt.want)
			}
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users, tokens := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, " Ann@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ann@example.com" || user.UserID == "" {
		t.Errorf("unexpected user %+v", user)
	}
	if user.Password == "correct horse" {
		t.Error("password stored in clear text")
	}

	if _, err := svc.Register(ctx, "ann@example.com", "another one"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if _, err := svc.Login(ctx, "ann@example.com", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "bob@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	sess, err := svc.Login(ctx, "ANN@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.User == nil || sess.User.ID != user.UserID || sess.RefreshToken == "" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if _, ok := users.touched[user.UserID]; !ok {
		t.Error("last login not recorded")
	}
	if _, ok := tokens.data[sess.RefreshToken]; ok {
		t.Error("refresh token must be stored hashed")
	}
	if tokens.data[hashToken(sess.RefreshToken)] != user.UserID {
		t.Error("refresh token not stored")
	}

	claims, err := middleware.NewAuthenticator(testSecret).ValidateJWT("Bearer " + sess.Token)
	if err != nil {
		t.Fatalf("access token rejected: %v", err)
	}
	if claims.UserID != user.UserID || claims.Email != "ann@example.com" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "ann@example.com", "correct horse")
	if err != nil {
		t.Fatal(err)
	}
	sess, err := svc.Login(ctx, "ann@example.com", "correct horse")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Refresh(ctx, "someone-else", sess.RefreshToken); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh for the wrong user, got %v", err)
	}

	fresh, err := svc.Refresh(ctx, user.UserID, sess.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if fresh.RefreshToken != "" || fresh.Token == "" {
		t.Errorf("unexpected refreshed session %+v", fresh)
	}

	if err := svc.Logout(ctx, sess.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, user.UserID, sess.RefreshToken); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh after logout, got %v", err)
	}
}

func TestHandlers(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	router := httprouter.New()
	router.POST("/api/auth/register", h.Register)
	router.POST("/api/auth/login", h.Login)
	router.POST("/api/auth/token", h.RefreshToken)
	router.POST("/api/auth/logout", h.Logout)

	post := func(path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		return rec
	}

	rec := post("/api/auth/register", `{"email": "nope", "password": "x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("register validation status = %d", rec.Code)
	}
	var errs struct {
		Errors []string `json:"errors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&errs); err != nil || len(errs.Errors) != 2 {
		t.Fatalf("unexpected errors body: %v %+v", err, errs)
	}

	long := `{"email": "bob@example.com", "password": "` + strings.Repeat("x", 80) + `"}`
	if rec := post("/api/auth/register", long); rec.Code != http.StatusBadRequest {
		t.Fatalf("overlong password status = %d, body = %s", rec.Code, rec.Body)
	}
	limit := `{"email": "bob@example.com", "password": "` + strings.Repeat("x", 72) + `"}`
	if rec := post("/api/auth/register", limit); rec.Code != http.StatusCreated {
		t.Fatalf("72-byte password status = %d, body = %s", rec.Code, rec.Body)
	}

	if rec := post("/api/auth/register", `{"email": "ann@example.com", "password": "correct horse"}`); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec := post("/api/auth/register", `{"email": "ann@example.com", "password": "correct horse"}`); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", rec.Code)
	}
	if rec := post("/api/auth/login", `{"email": "ann@example.com", "password": "wrong one!"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", rec.Code)
	}

	rec = post("/api/auth/login", `{"email": "ann@example.com", "password": "correct horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body)
	}
	var login struct {
		Data Session `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatal(err)
	}
	if login.Data.Token == "" || login.Data.RefreshToken == "" || login.Data.User == nil {
		t.Fatalf("unexpected login body %+v", login)
	}

	body := `{"userId": "` + login.Data.User.ID + `", "refreshToken": "` + login.Data.RefreshToken + `"}`
	if rec := post("/api/auth/token", body); rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec := post("/api/auth/logout", body); rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if rec := post("/api/auth/token", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status = %d", rec.Code)
	}
}

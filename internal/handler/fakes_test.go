package handler_test

import (
	"context"
	"database/sql"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/gch/gch-api-go/internal/config"
	"github.com/gch/gch-api-go/internal/handler"
	"github.com/gch/gch-api-go/internal/model"
	"github.com/gch/gch-api-go/internal/repository"
	"github.com/gch/gch-api-go/internal/router"
	"github.com/gch/gch-api-go/internal/utils"
)

// In-memory stand-ins for the repositories so the full routing table can be
// exercised without a database.

type fakeUserStore struct {
	nextID  uint64
	byEmail map[string]model.User
	byID    map[uint64]model.User
	err     error // when set, every call fails with it
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]model.User{}, byID: map[uint64]model.User{}}
}

// seed inserts a prebuilt user, hashing the given plain password.
func (f *fakeUserStore) seed(t *testing.T, u model.User, password string) model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("seed: hash password: %v", err)
	}
	f.nextID++
	u.ID = f.nextID
	u.PasswordHash = hash
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
		u.UpdatedAt = u.CreatedAt
	}
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
	return u
}

func (f *fakeUserStore) Create(ctx context.Context, email, fullName, phone, password string, cost int) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	if _, ok := f.byEmail[email]; ok {
		return model.User{}, repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	f.nextID++
	now := time.Now().UTC()
	u := model.User{
		ID:           f.nextID,
		Email:        email,
		FullName:     fullName,
		Phone:        phone,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.byEmail[email] = u
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	u, ok := f.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

type fakeRefresh struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type fakeTokenStore struct {
	byHash    map[string]*fakeRefresh
	revokeErr error // when set, RevokeByHash fails with it
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{byHash: map[string]*fakeRefresh{}}
}

func (f *fakeTokenStore) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	f.byHash[tokenHash] = &fakeRefresh{userID: userID, exp: exp}
	return nil
}

func (f *fakeTokenStore) ValidateRefresh(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	r, ok := f.byHash[tokenHash]
	if !ok || r.revoked || time.Now().UTC().After(r.exp) {
		return model.RefreshToken{}, repository.ErrTokenNotFound
	}
	return model.RefreshToken{UserID: r.userID, TokenHash: tokenHash, ExpiresAt: r.exp}, nil
}

func (f *fakeTokenStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	if r, ok := f.byHash[tokenHash]; ok {
		r.revoked = true
	}
	return nil
}

func (f *fakeTokenStore) RevokeAllForUser(ctx context.Context, userID uint64) error {
	for _, r := range f.byHash {
		if r.userID == userID {
			r.revoked = true
		}
	}
	return nil
}

type fakeFormStore struct {
	nextID uint64
	subs   []model.FormSubmission
	err    error
}

func newFakeFormStore() *fakeFormStore { return &fakeFormStore{} }

func (f *fakeFormStore) Create(ctx context.Context, s model.FormSubmission) (model.FormSubmission, error) {
	if f.err != nil {
		return model.FormSubmission{}, f.err
	}
	f.nextID++
	s.ID = f.nextID
	s.SubmittedAt = time.Now().UTC()
	// Newest first, matching the repository ordering.
	f.subs = append([]model.FormSubmission{s}, f.subs...)
	return s, nil
}

func (f *fakeFormStore) ListAll(ctx context.Context) ([]model.FormSubmission, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.FormSubmission{}, f.subs...), nil
}

func (f *fakeFormStore) ListByUser(ctx context.Context, userID uint64) ([]model.FormSubmission, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.FormSubmission{}
	for _, s := range f.subs {
		if s.UserID != nil && *s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

// testApp wires the real routing table around the fakes.
type testApp struct {
	e      *echo.Echo
	cfg    config.Config
	users  *fakeUserStore
	tokens *fakeTokenStore
	forms  *fakeFormStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Config{
		Env:            "test",
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	}
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	forms := newFakeFormStore()

	e := echo.New()
	a := handler.NewAuthHandler(cfg, users, tokens)
	f := handler.NewFormHandler(forms, nil)
	router.Register(e, cfg, a, f, users, nil)

	return &testApp{e: e, cfg: cfg, users: users, tokens: tokens, forms: forms}
}

// do performs a request against the app.  body may be empty; token, when
// non-empty, is sent as a bearer credential.
func (a *testApp) do(method, path, body, token string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// token mints a valid access token for a seeded user.
func (a *testApp) token(t *testing.T, u model.User) string {
	t.Helper()
	tok, err := utils.NewAccessToken(a.cfg.JWTSecret, u.ID, u.IsAdmin, a.cfg.AccessTTLMin)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return tok.Token
}

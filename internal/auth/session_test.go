package auth

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/christopherklint97/asistr/internal/api"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

type postCall struct {
	path string
	body map[string]string
}

type fakePoster struct {
	calls []postCall
	resp  map[string]*api.Response
	err   error
}

func (f *fakePoster) Post(_ context.Context, path string, body any) (*api.Response, error) {
	f.calls = append(f.calls, postCall{path: path, body: body.(map[string]string)})
	if f.err != nil {
		return nil, f.err
	}
	return f.resp[path], nil
}

func okData(t *testing.T, v any) *api.Response {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return &api.Response{OK: true, Status: 200, Data: data}
}

func TestTokenData_IsExpired(t *testing.T) {
	now := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid", signedToken(t, now.Add(time.Hour)), false},
		{"within skew", signedToken(t, now.Add(30*time.Second)), true},
		{"expired", signedToken(t, now.Add(-time.Hour)), true},
		{"opaque token", "not-a-jwt", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td := &TokenData{AccessToken: tt.token}
			if got := td.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	s := NewStore(path)

	got, err := s.Load()
	if err != nil || got != nil {
		t.Fatalf("Load on missing file = %v, %v", got, err)
	}

	want := &TokenData{AccessToken: "a", RefreshToken: "r", Email: "ana@example.com"}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	got, err = s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear twice: %v", err)
	}
}

func TestSession_Login(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	poster := &fakePoster{resp: map[string]*api.Response{
		"auth/login": okData(t, map[string]string{"token": "access-1", "refresh_token": "refresh-1"}),
	}}
	s := NewSession(poster, store, nil)

	tokens, err := s.Login(context.Background(), "ana@example.com", "secreto")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tokens.AccessToken != "access-1" || tokens.Email != "ana@example.com" {
		t.Errorf("tokens = %+v", tokens)
	}
	if poster.calls[0].body["password"] != "secreto" {
		t.Errorf("login body = %v", poster.calls[0].body)
	}

	tok, err := s.Token(context.Background())
	if err != nil || tok != "access-1" {
		t.Errorf("Token() = %q, %v", tok, err)
	}
}

func TestSession_LoginRejected(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	poster := &fakePoster{resp: map[string]*api.Response{
		"auth/login": {OK: false, Status: 401, Message: "Credenciales inválidas"},
	}}
	s := NewSession(poster, store, nil)

	_, err := s.Login(context.Background(), "ana@example.com", "mala")
	var re *api.ResponseError
	if !errors.As(err, &re) || re.Message != "Credenciales inválidas" {
		t.Fatalf("err = %v", err)
	}
	if saved, _ := store.Load(); saved != nil {
		t.Error("rejected login should not cache tokens")
	}
}

func TestSession_TokenRefreshesWhenExpiring(t *testing.T) {
	now := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	store := NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	if err := store.Save(&TokenData{
		AccessToken:  signedToken(t, now.Add(-time.Minute)),
		RefreshToken: "refresh-1",
		Email:        "ana@example.com",
	}); err != nil {
		t.Fatal(err)
	}

	fresh := signedToken(t, now.Add(time.Hour))
	poster := &fakePoster{resp: map[string]*api.Response{
		"auth/refresh": okData(t, map[string]string{"access_token": fresh}),
	}}
	s := NewSession(poster, store, nil)
	s.now = func() time.Time { return now }

	tok, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != fresh {
		t.Error("expected refreshed access token")
	}
	if len(poster.calls) != 1 || poster.calls[0].body["refresh_token"] != "refresh-1" {
		t.Errorf("calls = %+v", poster.calls)
	}

	saved, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if saved.RefreshToken != "refresh-1" || saved.Email != "ana@example.com" {
		t.Errorf("saved = %+v", saved)
	}

	// A valid token is served without another refresh.
	if _, err := s.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(poster.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(poster.calls))
	}
}

func TestSession_NotLoggedIn(t *testing.T) {
	s := NewSession(&fakePoster{}, NewStore(filepath.Join(t.TempDir(), "tokens.json")), nil)
	if _, err := s.Token(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Token err = %v", err)
	}
	if _, err := s.Refresh(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Refresh err = %v", err)
	}
}

func TestSession_Logout(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	if err := store.Save(&TokenData{AccessToken: "a"}); err != nil {
		t.Fatal(err)
	}
	s := NewSession(&fakePoster{}, store, nil)
	if err := s.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := s.Token(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Token after logout err = %v", err)
	}
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/christopherklint97/asistr/internal/api"
)

var ErrNotLoggedIn = errors.New("not logged in, run 'asistr login' first")

// Poster is the unauthenticated API surface the session talks to.
type Poster interface {
	Post(ctx context.Context, path string, body any) (*api.Response, error)
}

type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

func (p tokenPayload) access() string {
	if p.AccessToken != "" {
		return p.AccessToken
	}
	return p.Token
}

// Session keeps the cached tokens valid. It implements api.TokenSource.
type Session struct {
	api    Poster
	store  *Store
	now    func() time.Time
	mu     sync.Mutex
	logger *slog.Logger
}

func NewSession(client Poster, store *Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		api:    client,
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// Login exchanges credentials for tokens and caches them.
func (s *Session) Login(ctx context.Context, email, password string) (*TokenData, error) {
	resp, err := s.api.Post(ctx, "auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	tokens, err := parseTokens(resp)
	if err != nil {
		return nil, err
	}
	tokens.Email = email

	if err := s.store.Save(tokens); err != nil {
		return nil, fmt.Errorf("caching tokens: %w", err)
	}
	return tokens, nil
}

// Token returns a valid access token, refreshing it first when it is about
// to expire.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.store.Load()
	if err != nil {
		return "", fmt.Errorf("loading cached tokens: %w", err)
	}
	if tokens == nil || tokens.AccessToken == "" {
		return "", ErrNotLoggedIn
	}
	if !tokens.IsExpired(s.now()) {
		return tokens.AccessToken, nil
	}

	s.logger.Debug("access token expiring, refreshing")
	refreshed, err := s.refresh(ctx, tokens)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// Refresh obtains a new access token unconditionally.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.store.Load()
	if err != nil {
		return "", fmt.Errorf("loading cached tokens: %w", err)
	}
	if tokens == nil {
		return "", ErrNotLoggedIn
	}
	refreshed, err := s.refresh(ctx, tokens)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

func (s *Session) refresh(ctx context.Context, tokens *TokenData) (*TokenData, error) {
	if tokens.RefreshToken == "" {
		return nil, ErrNotLoggedIn
	}

	resp, err := s.api.Post(ctx, "auth/refresh", map[string]string{
		"refresh_token": tokens.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("token refresh failed (run 'asistr login' to re-authenticate): %w", err)
	}

	refreshed, err := parseTokens(resp)
	if err != nil {
		return nil, err
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tokens.RefreshToken
	}
	refreshed.Email = tokens.Email

	if err := s.store.Save(refreshed); err != nil {
		s.logger.Warn("failed to cache refreshed tokens", "error", err)
	}
	return refreshed, nil
}

// Logout forgets the cached tokens.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Clear()
}

func parseTokens(resp *api.Response) (*TokenData, error) {
	var p tokenPayload
	if err := json.Unmarshal(resp.Data, &p); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}
	if p.access() == "" {
		return nil, fmt.Errorf("token response has no access token")
	}
	return &TokenData{
		AccessToken:  p.access(),
		RefreshToken: p.RefreshToken,
	}, nil
}

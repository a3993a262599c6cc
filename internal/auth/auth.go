// Package auth handles accounts and request identity: password sign-up and
// sign-in backed by a cookie session, plus optional identity headers set by
// a trusted reverse proxy.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"github.com/hperssn/panicbutton/internal/domain"
	"github.com/hperssn/panicbutton/internal/storage"
)

const (
	MinPasswordLength = 6

	sessionName = "panicbutton"
	userIDKey   = "user_id"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password should be at least %d characters", MinPasswordLength)
	ErrEmailTaken         = errors.New("user already registered")
)

// Accounts is the slice of the repository that auth needs.
type Accounts interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

type Options struct {
	// TrustProxy accepts X-Auth-User style headers as the caller's identity.
	TrustProxy bool
	// Secure marks the session cookie Secure.
	Secure bool
	MaxAge int
	Logger *slog.Logger
}

type Service struct {
	accounts   Accounts
	store      sessions.Store
	trustProxy bool
	logger     *slog.Logger
}

func New(accounts Accounts, secret []byte, opts Options) *Service {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if store.Options.MaxAge == 0 {
		store.Options.MaxAge = 86400 * 30
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		accounts:   accounts,
		store:      store,
		trustProxy: opts.TrustProxy,
		logger:     logger,
	}
}

func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// SignUp creates the account and its empty profile, then signs the caller in.
func (s *Service) SignUp(w http.ResponseWriter, r *http.Request, email, password string) (*domain.User, error) {
	ctx := r.Context()

	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{Email: email, PasswordHash: hash}
	if err := s.accounts.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	if _, err := s.accounts.CreateProfile(ctx, u.ID); err != nil && !errors.Is(err, storage.ErrDuplicate) {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if err := s.login(w, r, u.ID); err != nil {
		return nil, err
	}
	s.logger.Info("user signed up", "user_id", u.ID)
	return u, nil
}

func (s *Service) SignIn(w http.ResponseWriter, r *http.Request, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.accounts.GetUserByEmail(r.Context(), email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.login(w, r, u.ID); err != nil {
		return nil, err
	}
	s.logger.Info("user signed in", "user_id", u.ID)
	return u, nil
}

func (s *Service) SignOut(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	delete(session.Values, userIDKey)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Service) login(w http.ResponseWriter, r *http.Request, userID string) error {
	// a stale or tampered cookie still yields a fresh session
	session, _ := s.store.New(r, sessionName)
	session.Values[userIDKey] = userID
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

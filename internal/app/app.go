// Package app wires the session runners, the repository and the account
// operations into the use cases exposed over HTTP.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hperssn/panicbutton/internal/catalog"
	"github.com/hperssn/panicbutton/internal/notify"
	"github.com/hperssn/panicbutton/internal/runner"
	"github.com/hperssn/panicbutton/internal/storage"
)

const defaultMaxAvatarSize = 2 << 20

// ErrUnauthenticated is returned by operations that need a signed-in user.
var ErrUnauthenticated = errors.New("not signed in")

// Error is a failed operation together with the notification to show the
// user. Nothing is retried.
type Error struct {
	Err          error
	Notification notify.Notification
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func fail(err error, title, description string) error {
	return &Error{Err: err, Notification: notify.Failure(title, description)}
}

// NotificationFor returns the notification carried by err, or a generic one.
func NotificationFor(err error) notify.Notification {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Notification
	}
	return notify.Failure("Error", err.Error())
}

type AvatarStore interface {
	Put(ctx context.Context, userID, ext string, r io.Reader) (key, url string, err error)
}

type Deps struct {
	Repo     storage.Repository
	Catalog  *catalog.Catalog
	Sessions *runner.SessionManager
	Bolt     *runner.BoltManager
	Avatars  AvatarStore
	Logger   *slog.Logger

	MaxAvatarSize int64
}

type Service struct {
	repo     storage.Repository
	catalog  *catalog.Catalog
	sessions *runner.SessionManager
	bolt     *runner.BoltManager
	avatars  AvatarStore
	logger   *slog.Logger

	maxAvatarSize int64
	now           func() time.Time

	background sync.WaitGroup
}

func New(d Deps) *Service {
	s := &Service{
		repo:          d.Repo,
		catalog:       d.Catalog,
		sessions:      d.Sessions,
		bolt:          d.Bolt,
		avatars:       d.Avatars,
		logger:        d.Logger,
		maxAvatarSize: d.MaxAvatarSize,
		now:           time.Now,
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.maxAvatarSize <= 0 {
		s.maxAvatarSize = defaultMaxAvatarSize
	}
	return s
}

// Close waits for fire-and-forget writes to finish.
func (s *Service) Close() {
	s.background.Wait()
}

// Ping reports whether the repository is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

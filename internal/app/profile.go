package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/hperssn/panicbutton/internal/auth"
	"github.com/hperssn/panicbutton/internal/domain"
	"github.com/hperssn/panicbutton/internal/notify"
	"github.com/hperssn/panicbutton/internal/storage"
)

var avatarExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

var ErrAvatarTooLarge = errors.New("avatar too large")

// Profile returns the user's profile, creating an empty one for users that
// arrived through proxy identity and never signed up.
func (s *Service) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		p, err = s.repo.CreateProfile(ctx, userID)
	}
	if err != nil {
		s.logger.Error("failed to load profile", "user_id", userID, "error", err)
		return nil, fail(err, "Error", "Could not load your profile.")
	}
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, u domain.ProfileUpdate) (*domain.Profile, notify.Notification, error) {
	if err := u.Validate(); err != nil {
		return nil, notify.Notification{}, fail(err, "Error", strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": "))
	}
	if _, err := s.Profile(ctx, userID); err != nil {
		return nil, notify.Notification{}, err
	}

	p, err := s.repo.UpdateProfile(ctx, userID, u)
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, notify.Notification{}, fail(err, "Error", "That username is already taken.")
	}
	if err != nil {
		s.logger.Error("failed to update profile", "user_id", userID, "error", err)
		return nil, notify.Notification{}, fail(err, "Error", "Could not update your profile.")
	}
	return p, notify.Success("Profile updated", "Your profile has been updated."), nil
}

// UploadAvatar stores the image and points the profile at it. size is the
// declared length; the copy is capped regardless.
func (s *Service) UploadAvatar(ctx context.Context, userID, filename string, size int64, r io.Reader) (*domain.Profile, notify.Notification, error) {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if !avatarExtensions[ext] {
		err := fmt.Errorf("%w: unsupported image type %q", domain.ErrInvalidInput, ext)
		return nil, notify.Notification{}, fail(err, "Error", "Upload a JPG, PNG, GIF or WebP image.")
	}
	if size > s.maxAvatarSize {
		return nil, notify.Notification{}, fail(ErrAvatarTooLarge, "Error", "That image is too large.")
	}
	if s.avatars == nil {
		return nil, notify.Notification{}, fail(errors.New("avatar storage not configured"), "Error", "Avatar uploads are not available.")
	}

	lr := &limitedReader{r: r, n: s.maxAvatarSize}
	_, url, err := s.avatars.Put(ctx, userID, ext, lr)
	if errors.Is(err, ErrAvatarTooLarge) {
		return nil, notify.Notification{}, fail(err, "Error", "That image is too large.")
	}
	if err != nil {
		s.logger.Error("failed to store avatar", "user_id", userID, "error", err)
		return nil, notify.Notification{}, fail(err, "Error", "Could not upload your avatar.")
	}

	p, _, err := s.UpdateProfile(ctx, userID, domain.ProfileUpdate{AvatarURL: &url})
	if err != nil {
		return nil, notify.Notification{}, err
	}
	return p, notify.Success("Avatar updated", "Your avatar has been updated."), nil
}

// limitedReader fails instead of truncating once more than n bytes are read.
type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n < 0 {
		return n, ErrAvatarTooLarge
	}
	return n, err
}

func (s *Service) UpdateEmail(ctx context.Context, userID, email string) (notify.Notification, error) {
	email, err := auth.NormalizeEmail(email)
	if err != nil {
		return notify.Notification{}, fail(err, "Error", "Enter a valid email address.")
	}

	err = s.repo.UpdateUserEmail(ctx, userID, email)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return notify.Notification{}, fail(err, "Error", "That email is already in use.")
	case errors.Is(err, storage.ErrNotFound):
		return notify.Notification{}, fail(err, "Error", "Account not found.")
	case err != nil:
		s.logger.Error("failed to update email", "user_id", userID, "error", err)
		return notify.Notification{}, fail(err, "Error", "Could not update your email.")
	}
	return notify.Success("Email updated", "Your email address has been changed."), nil
}

func (s *Service) UpdatePassword(ctx context.Context, userID, password string) (notify.Notification, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return notify.Notification{}, fail(err, "Error", err.Error())
	}

	err = s.repo.UpdateUserPassword(ctx, userID, hash)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return notify.Notification{}, fail(err, "Error", "Account not found.")
	case err != nil:
		s.logger.Error("failed to update password", "user_id", userID, "error", err)
		return notify.Notification{}, fail(err, "Error", "Could not update your password.")
	}
	return notify.Success("Password updated", "Your password has been changed."), nil
}

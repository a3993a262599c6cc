package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AvatarStore keeps uploaded profile images on the local filesystem under
// keys of the form <userID>/<unix-ms>.<ext>.
type AvatarStore struct {
	dir     string
	baseURL string
	now     func() time.Time
}

func NewAvatarStore(dir, baseURL string) (*AvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &AvatarStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}, nil
}

func (s *AvatarStore) Dir() string {
	return s.dir
}

// Put writes the image and returns its key and public URL.
func (s *AvatarStore) Put(ctx context.Context, userID, ext string, r io.Reader) (key, url string, err error) {
	if userID == "" || strings.ContainsAny(userID, `/\.`) {
		return "", "", fmt.Errorf("invalid avatar owner %q", userID)
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")

	key = fmt.Sprintf("%s/%d.%s", userID, s.now().UnixMilli(), ext)
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", "", fmt.Errorf("create avatar dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("create avatar: %w", err)
	}
	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		os.Remove(path)
		return "", "", fmt.Errorf("write avatar: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("write avatar: %w", err)
	}

	return key, s.URL(key), nil
}

func (s *AvatarStore) URL(key string) string {
	return s.baseURL + "/" + key
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

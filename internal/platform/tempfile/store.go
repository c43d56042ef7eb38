// Package tempfile stores uploaded images as short-lived, per-request files.
package tempfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/usecase"
	"plantid_backend/internal/platform/metrics"
)

var _ usecase.ImageStore = (*Store)(nil)

// validExt limits file extensions to a short alphanumeric suffix.
var validExt = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

var errOutsideDir = errors.New("path is outside the upload directory")

// Store writes each upload to its own uniquely named file under dir.
type Store struct {
	dir string
}

// NewStore creates dir (mode 0700) if needed and returns a Store rooted there.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "plantid-uploads")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, &domain.ResourceError{Op: "mkdir", Path: abs, Err: err}
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute upload directory.
func (s *Store) Dir() string { return s.dir }

// Save copies r into a new file named <uuid><ext>. When limit is positive and the
// stream is longer than limit, the partial file is removed and a ValidationError is returned.
func (s *Store) Save(r io.Reader, ext string, limit int64) (string, error) {
	if !validExt.MatchString(ext) {
		ext = ""
	}
	path := filepath.Join(s.dir, uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", &domain.ResourceError{Op: "create", Path: path, Err: err}
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		s.discard(path)
		return "", &domain.ResourceError{Op: "write", Path: path, Err: copyErr}
	case closeErr != nil:
		s.discard(path)
		return "", &domain.ResourceError{Op: "write", Path: path, Err: closeErr}
	case limit > 0 && n > limit:
		s.discard(path)
		return "", domain.NewValidationError(domain.ErrImageTooLarge, "image exceeds maximum of %d bytes", limit)
	}
	return path, nil
}

// Read returns the contents of a file previously returned by Save.
func (s *Store) Read(path string) ([]byte, error) {
	if err := s.owns(path); err != nil {
		return nil, &domain.ResourceError{Op: "read", Path: path, Err: err}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ResourceError{Op: "read", Path: path, Err: err}
	}
	return b, nil
}

// Remove deletes path. A file that is already gone is not an error.
func (s *Store) Remove(path string) error {
	if err := s.owns(path); err != nil {
		return &domain.ResourceError{Op: "delete", Path: path, Err: err}
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		metrics.TempFileCleanupFailuresTotal.Inc()
		return &domain.ResourceError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

// Sweep removes regular files older than maxAge, left behind by a crashed process.
// It returns the number of files removed.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, &domain.ResourceError{Op: "sweep", Path: s.dir, Err: err}
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := s.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			slog.Warn("failed to sweep stale upload", "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *Store) owns(path string) error {
	if filepath.Dir(filepath.Clean(path)) != s.dir {
		return errOutsideDir
	}
	return nil
}

func (s *Store) discard(path string) {
	if err := s.Remove(path); err != nil {
		slog.Error("failed to delete partial upload", "path", path, "error", err)
	}
}

package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"asis-server/internal/domain"
)

// Store resolves request paths to as-is documents beneath a root directory.
// It keeps no state besides the root: every Open reads the file again.
type Store struct {
	root string
}

// NewStore returns a Store serving documents under root. The root is made
// absolute with symlinks resolved so containment checks compare real paths.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("document root: %w", err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return nil, fmt.Errorf("document root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document root %s is not a directory", root)
	}
	return &Store{root: real}, nil
}

func (s *Store) Root() string { return s.root }

// Resolve maps a URL path to a regular file beneath the root. Paths with
// ".." segments, paths whose real location (after symlinks) is outside the
// root, directories and missing files all yield domain.ErrNotFound.
func (s *Store) Resolve(requestPath string) (string, error) {
	if strings.IndexByte(requestPath, 0) >= 0 {
		return "", domain.ErrNotFound
	}
	for _, seg := range strings.Split(requestPath, "/") {
		if seg == ".." || strings.ContainsRune(seg, '\\') {
			return "", domain.ErrNotFound
		}
	}

	full := filepath.Join(s.root, filepath.FromSlash(strings.TrimLeft(requestPath, "/")))
	if !s.contains(full) {
		return "", domain.ErrNotFound
	}
	real, err := filepath.EvalSymlinks(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	if !s.contains(real) {
		return "", domain.ErrNotFound
	}
	info, err := os.Stat(real)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", domain.ErrNotFound
	}
	return real, nil
}

func (s *Store) contains(p string) bool {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Open resolves requestPath and reads the whole file. The file is closed
// before Open returns.
func (s *Store) Open(ctx context.Context, requestPath string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	p, err := s.Resolve(requestPath)
	if err != nil {
		return domain.Document{}, err
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Document{}, domain.ErrNotFound
		}
		return domain.Document{}, err
	}
	return domain.Document{Path: requestPath, Raw: raw}, nil
}

package avatar

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// LocalStore keeps avatars in a directory served as static files.
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore creates dir if needed. Returned URLs are urlPrefix/<file>.
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create avatars dir: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: urlPrefix}, nil
}

// Save moves tempPath into the avatars directory and resizes it in place.
// The moved file is removed again if resizing fails.
func (s *LocalStore) Save(userID, originalName, tempPath string) (string, error) {
	name, err := FileName(userID, originalName)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.dir, name)
	if err := moveFile(tempPath, dst); err != nil {
		return "", fmt.Errorf("failed to move avatar: %w", err)
	}
	if err := resizeFile(dst); err != nil {
		os.Remove(dst)
		return "", err
	}
	return path.Join(s.urlPrefix, name), nil
}

// moveFile renames src to dst, copying when they sit on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

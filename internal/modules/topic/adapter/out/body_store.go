package out

import (
	"fmt"
	"os"
	"path/filepath"

	topicout "iromo/internal/modules/topic/port/out"
	apperrors "iromo/internal/platform/errors"
)

// FileBodyStore keeps one raw text file per topic under the collection's
// bodies directory. Bodies are opaque blobs; nothing here parses them.
type FileBodyStore struct {
	bodiesPath string
}

func NewFileBodyStore(bodiesPath string) topicout.BodyStore {
	return &FileBodyStore{bodiesPath: bodiesPath}
}

func (s *FileBodyStore) Path(ref string) string {
	return filepath.Join(s.bodiesPath, ref)
}

func (s *FileBodyStore) Write(ref, body string) error {
	if err := os.MkdirAll(s.bodiesPath, 0o755); err != nil {
		return fmt.Errorf("create bodies dir: %w", err)
	}
	if err := os.WriteFile(s.Path(ref), []byte(body), 0o644); err != nil {
		return fmt.Errorf("write body %s: %w", ref, err)
	}
	return nil
}

func (s *FileBodyStore) Read(ref string) (string, error) {
	raw, err := os.ReadFile(s.Path(ref))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("body %s: %w", ref, apperrors.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read body %s: %w", ref, err)
	}
	return string(raw), nil
}

func (s *FileBodyStore) Delete(ref string) error {
	if err := os.Remove(s.Path(ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete body %s: %w", ref, err)
	}
	return nil
}

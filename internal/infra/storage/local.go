package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	repo "ebake/internal/repository"
)

// 画像を公開するURLの先頭（server側で静的配信する）
const LocalURLPrefix = "/uploads"

// MinIO未設定の開発環境用。UploadDir 配下に保存する。
type LocalImageStore struct {
	dir string
}

var _ repo.ImageStore = (*LocalImageStore)(nil)

func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, imagePrefix), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalImageStore{dir: dir}, nil
}

func (s *LocalImageStore) Dir() string {
	return s.dir
}

func (s *LocalImageStore) Save(ctx context.Context, img repo.ImageUpload) (string, error) {
	key := objectKey(img.Filename)
	dst := filepath.Join(s.dir, filepath.FromSlash(key))

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}

	if _, err := io.Copy(f, img.Body); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close %s: %w", key, err)
	}

	return LocalURLPrefix + "/" + key, nil
}

// 既に無いファイルは成功扱い
func (s *LocalImageStore) Remove(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, LocalURLPrefix+"/") {
		return nil
	}
	key := strings.TrimPrefix(ref, LocalURLPrefix+"/")
	// ../ で外に出ない
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, clean))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"ebake/internal/config"
	repo "ebake/internal/repository"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// 商品画像の置き場所（バケット内）
const imagePrefix = "cakes"

type MinioImageStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

var _ repo.ImageStore = (*MinioImageStore)(nil)

func NewMinioImageStore(cfg config.Config) (*MinioImageStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	base := strings.TrimRight(cfg.MinioPublicURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.MinioEndpoint
	}

	return &MinioImageStore{client: client, bucket: cfg.MinioBucket, baseURL: base}, nil
}

// バケットがなければ作る（起動時に1回）
func (s *MinioImageStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio bucket check: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("minio make bucket: %w", err)
	}
	return nil
}

// 保存してURLを返す。ファイル名は衝突しないように振り直す。
func (s *MinioImageStore) Save(ctx context.Context, img repo.ImageUpload) (string, error) {
	key := objectKey(img.Filename)

	_, err := s.client.PutObject(ctx, s.bucket, key, img.Body, img.Size,
		minio.PutObjectOptions{ContentType: img.ContentType})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}

	return s.baseURL + "/" + s.bucket + "/" + key, nil
}

// 自分のバケットのURLでなければ何もしない
func (s *MinioImageStore) Remove(ctx context.Context, ref string) error {
	prefix := s.baseURL + "/" + s.bucket + "/"
	if !strings.HasPrefix(ref, prefix) {
		return nil
	}
	key := strings.TrimPrefix(ref, prefix)
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove %s: %w", key, err)
	}
	return nil
}

// cakes/<uuid>.<ext>
func objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(imagePrefix, uuid.NewString()+ext)
}

package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ebake/internal/config"
	repo "ebake/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalImageStore_SaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalImageStore(dir)
	require.NoError(t, err)

	ref, err := s.Save(context.Background(), repo.ImageUpload{
		Filename:    "Chocolate.JPG",
		ContentType: "image/jpeg",
		Size:        5,
		Body:        strings.NewReader("jpeg!"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/uploads/cakes/"), ref)
	assert.True(t, strings.HasSuffix(ref, ".jpg"), ref)

	path := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(ref, "/uploads/")))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg!", string(b))

	require.NoError(t, s.Remove(context.Background(), ref))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// 2回目も成功
	assert.NoError(t, s.Remove(context.Background(), ref))
}

func TestLocalImageStore_RemoveIgnoresForeignRefs(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalImageStore(dir)
	require.NoError(t, err)

	outside := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	for _, ref := range []string{
		"https://cdn.example.com/cakes/a.jpg",
		"",
		"/uploads/../keep.txt",
		"/uploads/cakes/../../keep.txt",
	} {
		assert.NoError(t, s.Remove(context.Background(), ref), ref)
	}

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

func TestMinioImageStore_URLs(t *testing.T) {
	s, err := NewMinioImageStore(config.Config{
		MinioEndpoint:  "minio:9000",
		MinioAccessKey: "key",
		MinioSecretKey: "secret",
		MinioBucket:    "cakes",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", s.baseURL)

	// 別の置き場所のURLには触らない（通信しない）
	assert.NoError(t, s.Remove(context.Background(), "/uploads/cakes/a.jpg"))

	s, err = NewMinioImageStore(config.Config{
		MinioEndpoint:  "minio:9000",
		MinioAccessKey: "key",
		MinioSecretKey: "secret",
		MinioBucket:    "cakes",
		MinioPublicURL: "https://img.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com", s.baseURL)
}

func TestObjectKey(t *testing.T) {
	k1 := objectKey("cake.PNG")
	k2 := objectKey("cake.PNG")
	assert.NotEqual(t, k1, k2)
	assert.True(t, strings.HasPrefix(k1, "cakes/"))
	assert.True(t, strings.HasSuffix(k1, ".png"))
	assert.Equal(t, "cakes/", objectKey("noext")[:6])
}

package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"case_desk_app_go/config"
	"case_desk_app_go/logger"

	"github.com/stretchr/testify/assert"
)

func TestLocalStorage(t *testing.T) {
	tempDir := t.TempDir()
	storage := NewLocalStorage(tempDir)
	ctx := context.Background()
	content := "hello storage"
	key := "test/file.json"
	size := int64(len(content))

	t.Run("UploadReader creates file", func(t *testing.T) {
		result, err := storage.UploadReader(ctx, strings.NewReader(content), key, "application/json", size)
		assert.NoError(t, err)
		assert.Equal(t, key, result.Key)
		assert.Equal(t, size, result.FileSize)

		_, err = os.Stat(filepath.Join(tempDir, key))
		assert.NoError(t, err)
	})

	t.Run("UploadReader replaces content", func(t *testing.T) {
		_, err := storage.UploadReader(ctx, strings.NewReader("v2"), key, "application/json", 2)
		assert.NoError(t, err)

		got, err := os.ReadFile(filepath.Join(tempDir, key))
		assert.NoError(t, err)
		assert.Equal(t, "v2", string(got))

		entries, _ := os.ReadDir(filepath.Join(tempDir, "test"))
		assert.Len(t, entries, 1)
	})

	t.Run("Get retrieves file content", func(t *testing.T) {
		reader, retrievedType, err := storage.Get(ctx, key)
		assert.NoError(t, err)
		defer reader.Close()

		got, _ := io.ReadAll(reader)
		assert.Equal(t, "v2", string(got))
		assert.Equal(t, "application/json", retrievedType)
	})

	t.Run("Get missing key", func(t *testing.T) {
		_, _, err := storage.Get(ctx, "nope.json")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("Path traversal rejected", func(t *testing.T) {
		_, err := storage.UploadReader(ctx, strings.NewReader("x"), "../escape.json", "application/json", 1)
		assert.Error(t, err)
		_, _, err = storage.Get(ctx, "../../etc/passwd")
		assert.Error(t, err)
	})

	t.Run("Delete removes file", func(t *testing.T) {
		assert.NoError(t, storage.Delete(ctx, key))
		_, err := os.Stat(filepath.Join(tempDir, key))
		assert.True(t, os.IsNotExist(err))

		// Deleting twice is not an error
		assert.NoError(t, storage.Delete(ctx, key))
	})

	assert.Equal(t, "file:"+tempDir, storage.Describe())
}

func TestR2StorageRequiresConfig(t *testing.T) {
	_, err := NewR2StorageFromConfig(context.Background(), &config.Config{R2BucketName: "bucket"}, logger.Nop())
	assert.Error(t, err)

	r2 := &R2Storage{bucket: "test-bucket"}
	assert.Equal(t, "r2:test-bucket", r2.Describe())
}

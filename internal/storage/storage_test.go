package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartanofurioso/platform/internal/config"
)

func TestLocal_PutAndDelete(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "http://localhost:3001/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := l.Put(ctx, "uploads/2026/10/abc.png", "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001/uploads/2026/10/abc.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "uploads", "2026", "10", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = l.Put(ctx, "uploads/2026/10/abc.png", "image/png", strings.NewReader("again"), 5)
	assert.Error(t, err, "existing objects are not overwritten")

	require.NoError(t, l.Delete(ctx, "uploads/2026/10/abc.png"))
	require.NoError(t, l.Delete(ctx, "uploads/2026/10/abc.png"))
}

func TestLocal_KeyCannotEscapeRoot(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(filepath.Join(dir, "root"), "")
	require.NoError(t, err)

	_, err = l.Put(context.Background(), "../../escape.txt", "text/plain", strings.NewReader("x"), 1)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(dir, "root", "escape.txt"))
	assert.NoError(t, statErr)
}

func TestNew_Drivers(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Driver: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}

func TestDefaultBaseURL(t *testing.T) {
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com", defaultBaseURL("", "media", "eu-west-1"))
	assert.Equal(t, "http://minio:9000/media", defaultBaseURL("http://minio:9000/", "media", "us-east-1"))
}

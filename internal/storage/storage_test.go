package storage

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/inhahackathon/foodmarket/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "/board/3/a.jpg", want: "board/3/a.jpg"},
		{in: "profile/a.jpg", want: "profile/a.jpg"},
		{in: "//profile//a.jpg", want: "profile/a.jpg"},
		{in: "\\profile\\a.jpg", want: "profile/a.jpg"},
		{in: "/board/../../etc/passwd", wantErr: true},
		{in: "..", wantErr: true},
		{in: "/", wantErr: true},
		{in: "", wantErr: true},
		{in: "a\x00b", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Key(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidKey, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func newLocal(t *testing.T) (*Storage, string) {
	t.Helper()
	root := t.TempDir()
	backend, err := NewLocalBackend(root)
	require.NoError(t, err)
	require.NoError(t, backend.EnsureBucket(t.Context()))
	return New(backend), root
}

func TestLocalPutAndGet(t *testing.T) {
	s, root := newLocal(t)

	err := s.Put(t.Context(), "/board/1/a.jpg", strings.NewReader("jpeg"), 4, "image/jpeg")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(root, "board", "1", "a.jpg"))
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, fs.FileMode(0o400), info.Mode().Perm())
	}

	rc, err := s.Get(t.Context(), "/board/1/a.jpg")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(body))
}

func TestLocalPutRefusesOverwrite(t *testing.T) {
	s, _ := newLocal(t)

	require.NoError(t, s.Put(t.Context(), "profile/a.png", strings.NewReader("1"), 1, ""))
	assert.Error(t, s.Put(t.Context(), "profile/a.png", strings.NewReader("2"), 1, ""))
}

func TestLocalGetMissing(t *testing.T) {
	s, _ := newLocal(t)

	_, err := s.Get(t.Context(), "/profile/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(t.Context(), "/board/1/a.jpg", strings.NewReader("x"), 1, ""))
	_, err = s.Get(t.Context(), "/board/1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalDeletePrefix(t *testing.T) {
	s, root := newLocal(t)

	require.NoError(t, s.Put(t.Context(), "/board/1/a.jpg", strings.NewReader("a"), 1, ""))
	require.NoError(t, s.Put(t.Context(), "/board/1/b.jpg", strings.NewReader("b"), 1, ""))
	require.NoError(t, s.Put(t.Context(), "/board/10/c.jpg", strings.NewReader("c"), 1, ""))

	require.NoError(t, s.DeletePrefix(t.Context(), "/board/1"))

	_, err := os.Stat(filepath.Join(root, "board", "1"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = s.Get(t.Context(), "/board/10/c.jpg")
	assert.NoError(t, err)
}

func TestLocalDelete(t *testing.T) {
	s, _ := newLocal(t)

	require.NoError(t, s.Put(t.Context(), "/profile/a.jpg", strings.NewReader("a"), 1, ""))
	require.NoError(t, s.Delete(t.Context(), "/profile/a.jpg"))
	assert.ErrorIs(t, s.Delete(t.Context(), "/profile/a.jpg"), ErrNotFound)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(t.Context(), config.Config{Storage: config.StorageConfig{Backend: "ftp"}})
	assert.Error(t, err)
}

func TestOpenLocal(t *testing.T) {
	root := filepath.Join(t.TempDir(), "resources")
	s, err := Open(t.Context(), config.Config{Resource: config.ResourceConfig{FilePath: root}})
	require.NoError(t, err)
	assert.Equal(t, "local", s.Backend())

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestObjectKeys(t *testing.T) {
	bare := newObjectKeys("")
	assert.Equal(t, "board/3/a.jpg", bare.object("board/3/a.jpg"))
	assert.Equal(t, "board/3/", bare.dir("board/3/"))

	prefixed := newObjectKeys(" /resources/ ")
	assert.Equal(t, "resources/board/3/a.jpg", prefixed.object("board/3/a.jpg"))
	assert.Equal(t, "resources/board/3/", prefixed.dir("board/3/"))
	assert.Equal(t, "resources/user/1/", prefixed.dir("user/1"))
}

func TestObjectStoreClientsValidateConfig(t *testing.T) {
	_, err := NewMinioClient(config.MinioConfig{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewMinioClient(config.MinioConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "secret key")

	_, err = NewMinioClient(config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket")

	client, err := NewMinioClient(config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "a",
		SecretKey: "s",
		Bucket:    "foodmarket",
		KeyPrefix: "resources",
	})
	require.NoError(t, err)
	assert.Equal(t, config.StorageMinio, client.Name())
	assert.Equal(t, "resources/board/1/x.jpg", client.keys.object("board/1/x.jpg"))

	_, err = NewGCSClient(t.Context(), config.GCSConfig{})
	assert.ErrorContains(t, err, "bucket")
}

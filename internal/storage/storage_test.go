package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadKey(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "uploads/2024/03/09/abc_notes.pdf", UploadKey(now, "abc_notes.pdf"))
	assert.Equal(t, "uploads/2024/03/09/my_notes.pdf", UploadKey(now, `C:\docs\my notes.pdf`))
	assert.Equal(t, "uploads/2024/03/09/passwd", UploadKey(now, "../../etc/passwd"))
}

func TestFSStore_Put(t *testing.T) {
	base := t.TempDir()
	s, err := NewFSStore(base)
	require.NoError(t, err)

	loc, err := s.Put(context.Background(), "uploads/2024/01/02/file.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "uploads", "2024", "01", "02", "file.txt"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFSStore_KeyStaysInside(t *testing.T) {
	base := t.TempDir()
	s, err := NewFSStore(base)
	require.NoError(t, err)

	loc, err := s.Put(context.Background(), "../../escape.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc, base))

	_, err = s.Put(context.Background(), "", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestFSStore_CancelledContext(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Put(ctx, "k", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestS3Store_Put(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body string
		ct   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, body, ct = r.URL.Path, string(b), r.Header.Get("Content-Type")
		mu.Unlock()
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	s, err := NewS3Store(context.Background(), S3Config{
		Bucket:    "quizzes",
		Endpoint:  server.URL,
		Region:    "us-east-1",
		AccessKey: "key",
		SecretKey: "secret",
	})
	require.NoError(t, err)

	loc, err := s.Put(context.Background(), "uploads/2024/01/02/notes.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "s3://quizzes/uploads/2024/01/02/notes.pdf", loc)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/quizzes/uploads/2024/01/02/notes.pdf", path)
	assert.Contains(t, body, "%PDF-1.4")
	assert.Equal(t, "application/pdf", ct)
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}

package files

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packscaler/internal/bot"
)

type stubBot struct {
	file *bot.File
	err  error
}

func (b *stubBot) Start(context.Context, func(context.Context, telego.Update)) error { return nil }
func (b *stubBot) SendText(context.Context, int64, string) error                     { return nil }
func (b *stubBot) SendPhoto(context.Context, int64, string) error                    { return nil }
func (b *stubBot) SendDocument(context.Context, int64, string) error                 { return nil }
func (b *stubBot) SendChatAction(context.Context, int64, string) error               { return nil }

func (b *stubBot) GetFile(context.Context, string) (*bot.File, error) {
	return b.file, b.err
}

func newTestFileManager(t *testing.T, client bot.Bot, maxSize int64, handler http.HandlerFunc) (*telegramFileManager, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	fm, err := NewTelegramFileManager(client, dir, "secret", maxSize)
	require.NoError(t, err)

	tfm := fm.(*telegramFileManager)
	tfm.fileURL = srv.URL + "/file/bot%s/%s"
	tfm.httpClient = srv.Client()
	return tfm, dir
}

func TestDownloadDocument(t *testing.T) {
	content := []byte("PK\x03\x04 pretend zip")
	client := &stubBot{file: &bot.File{FileID: "f1", FilePath: "documents/pack.zip", FileSize: int64(len(content))}}

	fm, dir := newTestFileManager(t, client, 1024, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file/botsecret/documents/pack.zip", r.URL.Path)
		_, _ = w.Write(content)
	})

	path, cleanup, err := fm.DownloadDocument(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "_pack.zip"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	cleanup()
	assert.NoFileExists(t, path)
}

func TestDownloadDocumentRejectsLargeFiles(t *testing.T) {
	big := strings.Repeat("x", 64)

	client := &stubBot{file: &bot.File{FilePath: "a.zip", FileSize: 64}}
	fm, _ := newTestFileManager(t, client, 16, func(w http.ResponseWriter, r *http.Request) {
		t.Error("download should not start")
	})
	_, _, err := fm.DownloadDocument(context.Background(), "a")
	assert.ErrorContains(t, err, "limit is 16")

	// size unknown up front, cut off while streaming
	client = &stubBot{file: &bot.File{FilePath: "b.zip"}}
	fm, dir := newTestFileManager(t, client, 16, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(big))
	})
	_, _, err = fm.DownloadDocument(context.Background(), "b")
	assert.ErrorContains(t, err, "exceeds 16 bytes")

	leftovers, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestDownloadDocumentErrors(t *testing.T) {
	fm, _ := newTestFileManager(t, &stubBot{err: errors.New("bad token")}, 0, func(w http.ResponseWriter, r *http.Request) {})
	_, _, err := fm.DownloadDocument(context.Background(), "x")
	assert.ErrorContains(t, err, "bad token")

	fm, _ = newTestFileManager(t, &stubBot{file: &bot.File{}}, 0, func(w http.ResponseWriter, r *http.Request) {})
	_, _, err = fm.DownloadDocument(context.Background(), "x")
	assert.ErrorContains(t, err, "invalid file info")

	fm, _ = newTestFileManager(t, &stubBot{file: &bot.File{FilePath: "gone.zip"}}, 0, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	_, _, err = fm.DownloadDocument(context.Background(), "x")
	assert.ErrorContains(t, err, "404")
}

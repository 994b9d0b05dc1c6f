package files

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"packscaler/internal/bot"
)

const telegramFileURL = "https://api.telegram.org/file/bot%s/%s"

type telegramFileManager struct {
	client      bot.Bot
	tempDir     string
	token       string
	maxFileSize int64
	fileURL     string
	httpClient  *http.Client
}

func NewTelegramFileManager(client bot.Bot, tempDir, token string, maxFileSize int64) (FileManager, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "packscaler")
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return &telegramFileManager{
		client:      client,
		tempDir:     tempDir,
		token:       token,
		maxFileSize: maxFileSize,
		fileURL:     telegramFileURL,
		httpClient:  http.DefaultClient,
	}, nil
}

func (fm *telegramFileManager) DownloadDocument(ctx context.Context, fileID string) (string, func(), error) {
	tf, err := fm.client.GetFile(ctx, fileID)
	if err != nil {
		return "", nil, fmt.Errorf("GetFile error: %w", err)
	}
	if tf == nil || tf.FilePath == "" {
		return "", nil, fmt.Errorf("invalid file info from telegram for id %s", fileID)
	}
	if fm.maxFileSize > 0 && tf.FileSize > fm.maxFileSize {
		return "", nil, fmt.Errorf("file is %d bytes, limit is %d", tf.FileSize, fm.maxFileSize)
	}

	downloadURL := fmt.Sprintf(fm.fileURL, fm.token, tf.FilePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := fm.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", nil, fmt.Errorf("download failed: status %s, body: %s", resp.Status, string(body))
	}

	localName := filepath.Join(fm.tempDir, uuid.NewString()+"_"+filepath.Base(tf.FilePath))
	out, err := os.Create(localName)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create local file: %w", err)
	}

	body := io.Reader(resp.Body)
	if fm.maxFileSize > 0 {
		body = io.LimitReader(resp.Body, fm.maxFileSize+1)
	}
	n, err := io.Copy(out, body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil && fm.maxFileSize > 0 && n > fm.maxFileSize {
		err = fmt.Errorf("file exceeds %d bytes", fm.maxFileSize)
	}
	if err != nil {
		_ = os.Remove(localName)
		return "", nil, fmt.Errorf("failed to save downloaded file: %w", err)
	}

	cleanup := func() {
		_ = os.Remove(localName)
	}

	return localName, cleanup, nil
}

package bot

import (
	"context"
	"fmt"
	"os"

	"github.com/mymmrac/telego"
	"github.com/sirupsen/logrus"
)

type TelegramBot struct {
	client *telego.Bot
	logger logrus.FieldLogger
}

func NewTelegramBot(token string, logger logrus.FieldLogger) (Bot, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	b, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telego bot: %w", err)
	}

	return &TelegramBot{
		client: b,
		logger: logger,
	}, nil
}

// Start long-polls for updates and hands each one to handler on its own
// goroutine until ctx is done.
func (tb *TelegramBot) Start(ctx context.Context, handler func(context.Context, telego.Update)) error {
	updates, err := tb.client.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{Timeout: 30})
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	tb.logger.Info("Bot started receiving updates...")

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				tb.logger.Info("Updates channel closed. Bot stopped.")
				return nil
			}
			go handler(ctx, update)

		case <-ctx.Done():
			tb.logger.Info("Bot stopped by context cancellation.")
			return ctx.Err()
		}
	}
}

func (tb *TelegramBot) sendFileFromPath(
	ctx context.Context,
	chatID int64,
	filePath string,
	sender func(context.Context, telego.ChatID, telego.InputFile) (*telego.Message, error),
) error {

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer func(file *os.File) {
		if closeErr := file.Close(); closeErr != nil {
			tb.logger.Warnf("Failed to close file %s: %v", filePath, closeErr)
		}
	}(file)

	_, err = sender(ctx, telego.ChatID{ID: chatID}, telego.InputFile{File: file})
	if err != nil {
		return fmt.Errorf("failed to send file to chat %d: %w", chatID, err)
	}
	return nil
}

func (tb *TelegramBot) SendPhoto(ctx context.Context, chatID int64, filePath string) error {
	return tb.sendFileFromPath(ctx, chatID, filePath,
		func(ctx context.Context, id telego.ChatID, f telego.InputFile) (*telego.Message, error) {
			return tb.client.SendPhoto(ctx, &telego.SendPhotoParams{
				ChatID: id,
				Photo:  f,
			})
		},
	)
}

func (tb *TelegramBot) SendDocument(ctx context.Context, chatID int64, filePath string) error {
	return tb.sendFileFromPath(ctx, chatID, filePath,
		func(ctx context.Context, id telego.ChatID, f telego.InputFile) (*telego.Message, error) {
			return tb.client.SendDocument(ctx, &telego.SendDocumentParams{
				ChatID:   id,
				Document: f,
			})
		},
	)
}

func (tb *TelegramBot) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := tb.client.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

func (tb *TelegramBot) SendChatAction(ctx context.Context, chatID int64, action string) error {
	err := tb.client.SendChatAction(ctx, &telego.SendChatActionParams{
		ChatID: telego.ChatID{ID: chatID},
		Action: action,
	})
	if err != nil {
		return fmt.Errorf("failed to send chat action: %w", err)
	}
	return nil
}

func (tb *TelegramBot) GetFile(ctx context.Context, fileID string) (*File, error) {
	f, err := tb.client.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file info for ID %s: %w", fileID, err)
	}

	return &File{
		FileID:   f.FileID,
		FilePath: f.FilePath,
		FileSize: int64(f.FileSize),
	}, nil
}

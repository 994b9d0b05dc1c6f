package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"packscaler/internal/bot"
	"packscaler/internal/files"
	"packscaler/internal/handlers"
	"packscaler/internal/storage"
)

func NewBotCmd(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve texture pack rescaling over a Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunBot(cmd.Context(), root)
		},
	}
}

func RunBot(ctx context.Context, o *RootOptions) error {
	cfg := o.Config
	if cfg.BotToken == "" {
		return errors.New("TOKEN environment variable or bot_token is required")
	}

	svc, err := NewScaleService(cfg, o.Logger)
	if err != nil {
		return err
	}

	botService, err := bot.NewTelegramBot(cfg.BotToken, o.Logger)
	if err != nil {
		return err
	}

	fileManager, err := files.NewTelegramFileManager(
		botService,
		cfg.TempDir,
		cfg.BotToken,
		cfg.MaxFileSize,
	)
	if err != nil {
		return err
	}

	packHandler := handlers.NewPackHandler(
		svc,
		botService,
		fileManager,
		storage.NewSessionStore(),
		cfg.TempDir,
		o.Logger,
	)

	if err := botService.Start(ctx, packHandler.HandleUpdate); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

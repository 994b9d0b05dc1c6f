package mobile

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"packscaler/internal/cli"
	"packscaler/internal/config"
	"packscaler/internal/image"
	"packscaler/internal/services"
)

// PackControl is the gomobile entry point. Methods return a status line
// instead of an error so they bind cleanly to Java and Objective-C.
type PackControl struct {
	tempDir string
	logger  *logrus.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	run    int
}

func NewPackControl(tempDir string) *PackControl {
	return &PackControl{
		tempDir: tempDir,
		logger:  logrus.StandardLogger(),
	}
}

func (pc *PackControl) config() *config.Config {
	cfg := config.Default()
	cfg.TempDir = pc.tempDir
	return cfg
}

// Scale rescales the pack at path and writes the result next to it.
func (pc *PackControl) Scale(path, mode string, factor int) string {
	m, err := image.ParseMode(mode)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	svc, err := cli.NewScaleService(pc.config(), pc.logger)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	report, err := svc.Run(context.Background(), services.NewTask(path, factor, m))
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Texture pack %s and saved to:\n%s", m.Past(), report.Output)
}

func (pc *PackControl) StartBot(token string) string {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.cancel != nil {
		return "Bot already started"
	}

	cfg := pc.config()
	cfg.BotToken = token
	root := &cli.RootOptions{Config: cfg, Logger: pc.logger}

	ctx, cancel := context.WithCancel(context.Background())
	pc.cancel = cancel
	pc.run++
	run := pc.run

	go func() {
		defer cancel()
		pc.logger.Info("Bot goroutine started")
		if err := cli.RunBot(ctx, root); err != nil {
			pc.logger.Errorf("Error starting bot: %v", err)
		}
		pc.mu.Lock()
		if pc.run == run {
			pc.cancel = nil
		}
		pc.mu.Unlock()
	}()

	return "Bot started successfully"
}

func (pc *PackControl) StopBot() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.cancel != nil {
		pc.cancel()
		pc.cancel = nil
		pc.logger.Info("Bot stopped by user")
	}
}

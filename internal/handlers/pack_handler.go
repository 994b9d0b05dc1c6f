package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/sirupsen/logrus"

	"packscaler/internal/archive"
	"packscaler/internal/bot"
	"packscaler/internal/files"
	"packscaler/internal/image"
	"packscaler/internal/services"
	"packscaler/internal/storage"
)

const actionUploadDocument = "upload_document"

var progressVerb = map[image.Mode]string{
	image.ModeUpscale:   "Upscaling",
	image.ModeDownscale: "Downscaling",
}

const helpText = "🧱 Send me a .zip texture pack and I'll rescale every PNG/JPEG in it.\n\n" +
	"/upscale - enlarge with hard pixel edges\n" +
	"/downscale - shrink with smoothing\n" +
	"/factor N - scale factor from 1 to 4\n" +
	"/settings - show current settings\n\n" +
	"A caption like \"downscale 2\" overrides the settings for one pack."

type Scaler interface {
	Run(ctx context.Context, task services.Task) (*services.Report, error)
}

type PackHandler struct {
	scaler      Scaler
	bot         bot.Bot
	fileManager files.FileManager
	stateStore  *storage.SessionStore
	tempDir     string
	logger      logrus.FieldLogger
}

func NewPackHandler(
	scaler Scaler,
	bot bot.Bot,
	fileManager files.FileManager,
	stateStore *storage.SessionStore,
	tempDir string,
	logger logrus.FieldLogger,
) *PackHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PackHandler{
		scaler:      scaler,
		bot:         bot,
		fileManager: fileManager,
		stateStore:  stateStore,
		tempDir:     tempDir,
		logger:      logger,
	}
}

func (ph *PackHandler) HandleUpdate(ctx context.Context, update telego.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	if cmd, arg, ok := parseCommand(msg.Text); ok {
		ph.handleCommand(ctx, chatID, cmd, arg)
		return
	}

	if msg.Document == nil {
		if ph.stateStore.IsProcessing(chatID) {
			_ = ph.bot.SendText(ctx, chatID, "😵‍💫 Slow down, I'm still scaling your last pack.")
		} else {
			_ = ph.bot.SendText(ctx, chatID, helpText)
		}
		return
	}

	if !files.IsArchive(msg.Document.FileName) {
		_ = ph.bot.SendText(ctx, chatID, "❌ Please send a .zip texture pack.")
		return
	}

	settings, err := ParseSettings(msg.Caption, ph.stateStore.Get(chatID))
	if err != nil {
		_ = ph.bot.SendText(ctx, chatID, "❌ "+err.Error())
		return
	}

	_ = ph.withProcessing(ctx, chatID, func() error {
		return ph.handlePack(ctx, chatID, msg.Document, settings)
	})
}

func (ph *PackHandler) handleCommand(ctx context.Context, chatID int64, cmd, arg string) {
	switch cmd {
	case "/start":
		ph.stateStore.Reset(chatID)
		_ = ph.bot.SendText(ctx, chatID, helpText)
	case "/help":
		_ = ph.bot.SendText(ctx, chatID, helpText)
	case "/upscale":
		ph.stateStore.SetMode(chatID, image.ModeUpscale)
		ph.sendSettings(ctx, chatID)
	case "/downscale":
		ph.stateStore.SetMode(chatID, image.ModeDownscale)
		ph.sendSettings(ctx, chatID)
	case "/factor":
		factor, err := parseFactor(arg)
		if err != nil {
			_ = ph.bot.SendText(ctx, chatID, "❌ "+err.Error())
			return
		}
		ph.stateStore.SetFactor(chatID, factor)
		ph.sendSettings(ctx, chatID)
	case "/settings":
		ph.sendSettings(ctx, chatID)
	default:
		_ = ph.bot.SendText(ctx, chatID, helpText)
	}
}

func (ph *PackHandler) sendSettings(ctx context.Context, chatID int64) {
	s := ph.stateStore.Get(chatID)
	_ = ph.bot.SendText(ctx, chatID, fmt.Sprintf("⚙️ Mode: %s, factor: %dx", s.Mode, s.Factor))
}

func (ph *PackHandler) handlePack(ctx context.Context, chatID int64, doc *telego.Document, settings storage.Session) error {
	_ = ph.bot.SendText(ctx, chatID, fmt.Sprintf("⏳ %s %s by %dx...", progressVerb[settings.Mode], doc.FileName, settings.Factor))
	_ = ph.bot.SendChatAction(ctx, chatID, actionUploadDocument)

	localPath, cleanupTemp, err := ph.fileManager.DownloadDocument(ctx, doc.FileID)
	if err != nil {
		return ph.fail(ctx, chatID, "download failed", "🚧 Error downloading the pack.", err)
	}
	defer cleanupTemp()

	jobDir, err := os.MkdirTemp(ph.tempDir, "job-*")
	if err != nil {
		return ph.fail(ctx, chatID, "job dir failed", "🚧 Error preparing the job.", err)
	}
	defer os.RemoveAll(jobDir)

	task := services.Task{
		Input:       localPath,
		Output:      files.OutputPath(filepath.Join(jobDir, filepath.Base(doc.FileName)), settings.Factor, settings.Mode.Past()),
		Factor:      settings.Factor,
		Mode:        settings.Mode,
		PreviewPath: filepath.Join(jobDir, "preview.png"),
	}

	report, err := ph.scaler.Run(ctx, task)
	if err != nil {
		var ae *archive.ArchiveError
		if errors.As(err, &ae) {
			return ph.fail(ctx, chatID, "archive error", "❌ That file is not a readable zip archive.", err)
		}
		return ph.fail(ctx, chatID, "scale failed", "🚧 Error while scaling the pack.", err)
	}

	if err := ph.bot.SendDocument(ctx, chatID, report.Output); err != nil {
		return ph.fail(ctx, chatID, "send error", "🚧 Error sending the result.", err)
	}
	if report.Preview != "" {
		if err := ph.bot.SendPhoto(ctx, chatID, report.Preview); err != nil {
			ph.logger.Warnf("send preview: %v", err)
		}
	}

	return ph.bot.SendText(ctx, chatID, Summary(report))
}

// Summary is the user-facing result line for a finished run.
func Summary(report *services.Report) string {
	text := fmt.Sprintf("✅ Saved %s: %d of %d images rescaled.",
		filepath.Base(report.Output), report.Transformed, report.Images)
	if n := report.Warnings(); n > 0 {
		var names []string
		for i, f := range report.Failures {
			if i == 3 {
				names = append(names, "...")
				break
			}
			names = append(names, f.Path)
		}
		text += fmt.Sprintf("\n⚠️ %d skipped: %s", n, strings.Join(names, ", "))
	}
	return text
}

func (ph *PackHandler) withProcessing(ctx context.Context, chatID int64, fn func() error) error {
	if !ph.stateStore.TryStart(chatID) {
		_ = ph.bot.SendText(ctx, chatID, "😵‍💫 Slow down, I'm still scaling your last pack.")
		return fmt.Errorf("already processing")
	}
	defer ph.stateStore.Finish(chatID)
	return fn()
}

func (ph *PackHandler) fail(ctx context.Context, chatID int64, logMsg, userMsg string, err error) error {
	ph.logger.WithField("chat", chatID).Errorf("%s: %v", logMsg, err)
	_ = ph.bot.SendText(context.WithoutCancel(ctx), chatID, userMsg)
	return err
}

func parseCommand(text string) (cmd, arg string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	fields := strings.Fields(text)
	cmd = strings.ToLower(fields[0])
	// "/factor@SomeBot 2" addresses a bot by name in group chats
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	if len(fields) > 1 {
		arg = fields[1]
	}
	return cmd, arg, true
}

func parseFactor(s string) (int, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "x")
	factor, err := strconv.Atoi(s)
	if err != nil || !image.ValidFactor(factor) {
		return 0, fmt.Errorf("factor must be a number from %d to %d", image.MinFactor, image.MaxFactor)
	}
	return factor, nil
}

// ParseSettings applies a caption such as "downscale 2x" on top of base.
// Words that are neither a mode nor a number are ignored; a number outside
// the factor range is an error.
func ParseSettings(caption string, base storage.Session) (storage.Session, error) {
	out := base
	for _, word := range strings.Fields(caption) {
		if mode, err := image.ParseMode(word); err == nil {
			out.Mode = mode
			continue
		}
		if !looksLikeFactor(word) {
			continue
		}
		factor, err := parseFactor(word)
		if err != nil {
			return base, fmt.Errorf("can't use %q: %v", word, err)
		}
		out.Factor = factor
	}
	return out, nil
}

func looksLikeFactor(word string) bool {
	_, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(word), "x"))
	return err == nil
}

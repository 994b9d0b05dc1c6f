package mobile

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"packscaler/internal/testutil"
)

func newTestControl(t *testing.T) *PackControl {
	pc := NewPackControl(t.TempDir())
	pc.logger = logrus.New()
	pc.logger.SetOutput(io.Discard)
	return pc
}

func TestScale(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pack.zip")
	testutil.WriteZip(t, input, map[string][]byte{"a.png": testutil.PNG(t, testutil.Checker(4, 4))})

	pc := newTestControl(t)
	got := pc.Scale(input, "upscale", 3)

	want := filepath.Join(dir, "pack_3x_upscaled.zip")
	assert.Equal(t, "Texture pack upscaled and saved to:\n"+want, got)
	assert.Equal(t, 12, testutil.Decode(t, testutil.ReadZip(t, want)["a.png"]).Bounds().Dx())
}

func TestScaleErrors(t *testing.T) {
	pc := newTestControl(t)
	assert.Contains(t, pc.Scale("pack.zip", "sideways", 2), "Error: ")
	assert.Contains(t, pc.Scale(filepath.Join(t.TempDir(), "missing.zip"), "upscale", 2), "Error: extract")
}

func TestStartBotWithoutToken(t *testing.T) {
	pc := newTestControl(t)
	assert.Equal(t, "Bot started successfully", pc.StartBot(""))

	// the bot goroutine gives up immediately and frees the slot
	assert.Eventually(t, func() bool {
		pc.mu.Lock()
		defer pc.mu.Unlock()
		return pc.cancel == nil
	}, 2*time.Second, 10*time.Millisecond)

	pc.StopBot()
}

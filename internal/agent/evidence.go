package agent

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

// ScreenshotContext represents the moment the screenshot was taken
type ScreenshotContext string

const (
	// ContextSolved is the page reached after a correct drag
	ContextSolved ScreenshotContext = "solved"
)

// DefaultScreenshotPath is where the success screenshot is written
const DefaultScreenshotPath = "screenshot.png"

// Screenshot represents a captured screenshot with metadata
type Screenshot struct {
	// Filepath is the local path to the screenshot file
	Filepath string
	// Context indicates when the screenshot was taken
	Context ScreenshotContext
	// Timestamp records when the screenshot was captured
	Timestamp time.Time
	// Data contains the raw PNG image bytes
	Data []byte
	// Width is the screenshot width in pixels
	Width int
	// Height is the screenshot height in pixels
	Height int
}

// CaptureScreenshot captures a full-page PNG screenshot using chromedp
func CaptureScreenshot(ctx context.Context, screenshotContext ScreenshotContext) (*Screenshot, error) {
	var buf []byte

	if err := chromedp.Run(ctx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, 100), // 100 quality selects PNG
	); err != nil {
		return nil, NewBrowserError("failed to capture screenshot", err)
	}

	return NewScreenshot(screenshotContext, buf), nil
}

// NewScreenshot wraps PNG bytes, reading the dimensions from the header
func NewScreenshot(screenshotContext ScreenshotContext, data []byte) *Screenshot {
	s := &Screenshot{
		Context:   screenshotContext,
		Timestamp: time.Now(),
		Data:      data,
	}
	if cfg, err := png.DecodeConfig(bytes.NewReader(data)); err == nil {
		s.Width = cfg.Width
		s.Height = cfg.Height
	}
	return s
}

// SaveTo writes the screenshot to path
func (s *Screenshot) SaveTo(path string) error {
	if len(s.Data) == 0 {
		return NewStorageError("screenshot is empty", fmt.Errorf("no data for %s", path))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return NewStorageError(fmt.Sprintf("failed to create %s", dir), err)
		}
	}

	if err := os.WriteFile(path, s.Data, 0644); err != nil {
		return NewStorageError(fmt.Sprintf("failed to save screenshot to %s", path), err)
	}

	s.Filepath = path
	return nil
}

// SaveToTemp saves the screenshot to the temp directory with a unique filename
func (s *Screenshot) SaveToTemp() error {
	filename := fmt.Sprintf("screenshot_%s_%s_%s.png",
		s.Context,
		s.Timestamp.Format("20060102_150405"),
		uuid.New().String()[:8],
	)
	return s.SaveTo(filepath.Join(os.TempDir(), filename))
}

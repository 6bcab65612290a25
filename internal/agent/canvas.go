package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// DefaultMinImageLength is the shortest data URL accepted as a loaded captcha
const DefaultMinImageLength = 2000

// CanvasImage is the rendered captcha canvas as a data URL
type CanvasImage struct {
	DataURL string
}

// Len returns the length of the encoded data URL
func (c CanvasImage) Len() int {
	return len(c.DataURL)
}

// Base64 returns the image payload without the data URL header
func (c CanvasImage) Base64() string {
	if i := strings.Index(c.DataURL, ";base64,"); i != -1 && strings.HasPrefix(c.DataURL, "data:") {
		return c.DataURL[i+len(";base64,"):]
	}
	return c.DataURL
}

// CheckImageLength rejects images shorter than min characters.
// A blank or failed canvas encodes to a few hundred bytes at most.
func CheckImageLength(img CanvasImage, min int) error {
	if img.Len() < min {
		return NewFatalError(
			fmt.Sprintf("captured image is %d characters, expected at least %d", img.Len(), min),
			ErrDegenerateImage,
		)
	}
	return nil
}

// CaptureCanvas reads the canvas matching selector with toDataURL
func CaptureCanvas(ctx context.Context, selector string) (CanvasImage, error) {
	var dataURL string
	script := fmt.Sprintf(`document.querySelector(%q).toDataURL()`, selector)

	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &dataURL)); err != nil {
		return CanvasImage{}, NewBrowserError("failed to read captcha canvas", err)
	}

	return CanvasImage{DataURL: dataURL}, nil
}

// MarkPoint draws a small red square on the canvas at (x, y) in canvas pixels
func MarkPoint(ctx context.Context, selector string, x, y float64) error {
	script := fmt.Sprintf(`
(function() {
    const canvas = document.querySelector(%q);
    const ctx = canvas.getContext('2d');
    ctx.globalAlpha = 1;
    ctx.fillStyle = 'red';
    ctx.fillRect(%d, %d, 3, 3);
    return true;
})();
`, selector, int(x), int(y))

	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return NewBrowserError("failed to mark solution on canvas", err)
	}
	return nil
}

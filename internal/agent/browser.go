package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserOptions configures the Chrome instance
type BrowserOptions struct {
	// Headless runs Chrome without a window
	Headless bool
	// WindowWidth and WindowHeight set the initial window size
	WindowWidth  int
	WindowHeight int
}

// DefaultBrowserOptions returns a visible 1280x900 window
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		Headless:     false,
		WindowWidth:  1280,
		WindowHeight: 900,
	}
}

// BrowserManager manages browser lifecycle and navigation
type BrowserManager struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewBrowserManager launches Chrome and opens the first tab.
// Cancelling parent shuts the browser down.
func NewBrowserManager(parent context.Context, options BrowserOptions) (*BrowserManager, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", options.Headless),
		chromedp.Flag("disable-gpu", options.Headless), // Only disable GPU in headless mode
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		// Hide automation detection
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if options.WindowWidth > 0 && options.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(options.WindowWidth, options.WindowHeight))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	bm := &BrowserManager{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
	}

	// Start the browser now so later timeout contexts only bound single actions
	if err := chromedp.Run(ctx); err != nil {
		bm.Close()
		return nil, NewBrowserError("failed to start browser", err)
	}

	return bm, nil
}

// Close shuts down the browser and cleans up resources
func (bm *BrowserManager) Close() {
	if bm.cancel != nil {
		bm.cancel()
		bm.cancel = nil
	}
	if bm.allocCancel != nil {
		bm.allocCancel()
		bm.allocCancel = nil
	}
}

// GetContext returns the browser context for running chromedp tasks
func (bm *BrowserManager) GetContext() context.Context {
	return bm.ctx
}

// NavigateWithTimeout navigates to URL with a specific timeout
func (bm *BrowserManager) NavigateWithTimeout(url string, timeout time.Duration) error {
	timeoutCtx, timeoutCancel := context.WithTimeout(bm.ctx, timeout)
	defer timeoutCancel()

	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return NewTimeoutError(fmt.Sprintf("timeout after %v while loading %s", timeout, url), err)
		}
		return NewNetworkError(fmt.Sprintf("failed to navigate to %s", url), err)
	}
	return nil
}

// LoadCaptchaPage opens the captcha page with a 45-second timeout
func (bm *BrowserManager) LoadCaptchaPage(url string) error {
	const pageLoadTimeout = 45 * time.Second
	return bm.NavigateWithTimeout(url, pageLoadTimeout)
}

// DismissConsent clicks the cookie dialog button if it shows up within timeout.
// A missing dialog is not an error.
func (bm *BrowserManager) DismissConsent(selector string, timeout time.Duration) bool {
	if selector == "" {
		return false
	}

	timeoutCtx, cancel := context.WithTimeout(bm.ctx, timeout)
	defer cancel()

	err := chromedp.Run(timeoutCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	if err != nil {
		return false
	}

	log.Printf("[Consent] Declined cookie dialog")
	return true
}

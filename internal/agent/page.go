package agent

import "time"

const (
	// DefaultConsentSelector is the "do not consent" button of the demo page's cookie dialog
	DefaultConsentSelector = "body > div.fc-consent-root > div.fc-dialog-container > div.fc-dialog.fc-choice-dialog > div.fc-footer-buttons-container > div.fc-footer-buttons > button.fc-button.fc-cta-do-not-consent.fc-secondary-button"
	// DefaultCanvasSelector is the captcha background canvas
	DefaultCanvasSelector = "canvas"
	// DefaultSliderSelector is the draggable slider button
	DefaultSliderSelector = "div.slider"
	// DefaultConsentTimeout is how long to wait for the cookie dialog
	DefaultConsentTimeout = 3 * time.Second
	// DefaultStepDelay is the pause after every input event
	DefaultStepDelay = 11 * time.Millisecond
)

// Page is what the solve loop needs from the captcha page
type Page interface {
	// DismissConsent declines the cookie dialog if it appears
	DismissConsent() bool
	// CaptureCanvas returns the captcha image
	CaptureCanvas() (CanvasImage, error)
	// SliderBox returns the slider button's client rect
	SliderBox() (BoundingBox, error)
	// MarkPoint draws the solver's answer on the canvas
	MarkPoint(x, y float64) error
	// ExpectNavigation starts listening for the post-drag redirect
	ExpectNavigation() NavigationWaiter
	// Drag replays the drag with the given number of moves
	Drag(path DragPath, steps int) error
	// Screenshot captures the current page
	Screenshot() (*Screenshot, error)
	// Close releases the browser
	Close()
}

// PageSettings holds selectors and timings for the captcha page
type PageSettings struct {
	ConsentSelector   string
	CanvasSelector    string
	SliderSelector    string
	ConsentTimeout    time.Duration
	NavigationTimeout time.Duration
	StepDelay         time.Duration
}

// DefaultPageSettings returns the settings for the jqueryscript.net demo
func DefaultPageSettings() PageSettings {
	return PageSettings{
		ConsentSelector:   DefaultConsentSelector,
		CanvasSelector:    DefaultCanvasSelector,
		SliderSelector:    DefaultSliderSelector,
		ConsentTimeout:    DefaultConsentTimeout,
		NavigationTimeout: DefaultNavigationTimeout,
		StepDelay:         DefaultStepDelay,
	}
}

// ChromePage drives the captcha page through a BrowserManager
type ChromePage struct {
	bm       *BrowserManager
	settings PageSettings
}

// NewChromePage wraps an open browser
func NewChromePage(bm *BrowserManager, settings PageSettings) *ChromePage {
	return &ChromePage{bm: bm, settings: settings}
}

func (p *ChromePage) DismissConsent() bool {
	return p.bm.DismissConsent(p.settings.ConsentSelector, p.settings.ConsentTimeout)
}

func (p *ChromePage) CaptureCanvas() (CanvasImage, error) {
	return CaptureCanvas(p.bm.GetContext(), p.settings.CanvasSelector)
}

func (p *ChromePage) SliderBox() (BoundingBox, error) {
	return SliderBox(p.bm.GetContext(), p.settings.SliderSelector)
}

func (p *ChromePage) MarkPoint(x, y float64) error {
	return MarkPoint(p.bm.GetContext(), p.settings.CanvasSelector, x, y)
}

func (p *ChromePage) ExpectNavigation() NavigationWaiter {
	return ExpectNavigation(p.bm.GetContext(), p.settings.NavigationTimeout)
}

func (p *ChromePage) Drag(path DragPath, steps int) error {
	return PerformDrag(p.bm.GetContext(), path, steps, p.settings.StepDelay)
}

func (p *ChromePage) Screenshot() (*Screenshot, error) {
	return CaptureScreenshot(p.bm.GetContext(), ContextSolved)
}

func (p *ChromePage) Close() {
	p.bm.Close()
}

package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/slidersolve/slider-agent/internal/solver"
)

// DefaultSuccessPause is how long the solved page stays open
const DefaultSuccessPause = 5 * time.Second

// Settings tunes the solve loop
type Settings struct {
	// TextInstructions and ImageInstructions are sent with every captcha
	TextInstructions  string
	ImageInstructions string
	// Correction is subtracted from the target x
	Correction float64
	// MinSteps and MaxSteps bound the random number of drag moves
	MinSteps int
	MaxSteps int
	// MinImageLength is the shortest data URL treated as a loaded captcha
	MinImageLength int
	// MarkSolution draws the answer on the canvas before dragging
	MarkSolution bool
	// SuccessPause is slept after the success screenshot
	SuccessPause time.Duration
	// ScreenshotPath is where the success screenshot is saved. Empty saves
	// under a unique name in the temp directory.
	ScreenshotPath string
	// MaxAttempts stops the loop after that many passes, whether or not a
	// pass got as far as dragging. 0 means no limit.
	MaxAttempts int
}

// DefaultSettings returns the values tuned for the demo page
func DefaultSettings() Settings {
	return Settings{
		TextInstructions: solver.DefaultTextInstructions,
		Correction:       DefaultCorrection,
		MinSteps:         DefaultMinSteps,
		MaxSteps:         DefaultMaxSteps,
		MinImageLength:   DefaultMinImageLength,
		MarkSolution:     true,
		SuccessPause:     DefaultSuccessPause,
		ScreenshotPath:   DefaultScreenshotPath,
	}
}

// Result describes a solved captcha
type Result struct {
	// Attempts counts loop iterations including the successful one
	Attempts int
	// CaptchaID is the solver's id for the accepted answer
	CaptchaID string
	// Screenshot is the page after the redirect, already saved
	Screenshot *Screenshot
	// Duration is the time spent in Run
	Duration time.Duration
}

// SliderAgent repeats solve attempts on a page until the captcha is passed
type SliderAgent struct {
	page     Page
	solver   solver.Solver
	settings Settings
	rng      *rand.Rand
	retry    RetryConfig
}

// NewSliderAgent creates an agent for page using s as the solving service
func NewSliderAgent(page Page, s solver.Solver, settings Settings) *SliderAgent {
	return &SliderAgent{
		page:     page,
		solver:   s,
		settings: settings,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		retry:    DefaultRetryConfig(),
	}
}

// ErrAttemptsExhausted is returned when MaxAttempts passes all failed
var ErrAttemptsExhausted = errors.New("captcha not solved within attempt limit")

// Run loops until a drag is followed by a navigation. It returns an error
// only for a degenerate captcha image, the attempt limit or ctx cancellation.
// The page is closed on success only.
func (a *SliderAgent) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.settings.MaxAttempts > 0 && attempt > a.settings.MaxAttempts {
			return nil, fmt.Errorf("%w (%d)", ErrAttemptsExhausted, a.settings.MaxAttempts)
		}

		id, err := a.attempt(ctx)
		if err != nil {
			if IsFatal(err) {
				log.Printf("[Slider] Giving up: %v", err)
				return nil, err
			}
			if errors.Is(err, ErrNoNavigation) {
				log.Printf("[Slider] Failed to bypass the captcha, trying one more time...")
				a.report(ctx, id, false)
				continue
			}
			log.Printf("[Slider] Failed to solve the captcha: %v", err)
			continue
		}

		log.Printf("[Slider] Successfully bypassed the captcha on attempt %d", attempt)
		a.report(ctx, id, true)

		shot := a.finish(ctx)

		return &Result{
			Attempts:   attempt,
			CaptchaID:  id,
			Screenshot: shot,
			Duration:   time.Since(start),
		}, nil
	}
}

// attempt runs one solve and drag. It returns the solver id whenever an
// answer was received, so a failed drag can still be reported.
func (a *SliderAgent) attempt(ctx context.Context) (string, error) {
	a.page.DismissConsent()

	img, err := a.page.CaptureCanvas()
	if err != nil {
		return "", NewFatalError("captcha image failed to load", errors.Join(ErrDegenerateImage, err))
	}
	if err := CheckImageLength(img, a.settings.MinImageLength); err != nil {
		return "", err
	}

	log.Printf("[Slider] Sending the captcha to the solving service...")
	solution, err := a.solver.Coordinates(ctx, solver.Task{
		Image:             img.Base64(),
		TextInstructions:  a.settings.TextInstructions,
		ImageInstructions: a.settings.ImageInstructions,
	})
	if err != nil {
		return "", NewSolverError("submission failed", err)
	}

	answer, err := solution.First()
	if err != nil {
		return "", NewSolverError("unusable answer", err)
	}
	log.Printf("[Slider] Captcha solved: id %s, x=%v y=%v", solution.ID, answer.X, answer.Y)

	box, err := a.page.SliderBox()
	if err != nil {
		return "", err
	}

	// answer.X is the distance from the left image edge to the puzzle center
	path, err := ComputeDrag(box, answer.X, answer.Y, a.settings.Correction)
	if err != nil {
		return "", err
	}

	if a.settings.MarkSolution {
		if err := a.page.MarkPoint(answer.X, answer.Y); err != nil {
			log.Printf("[Slider] Could not mark answer: %v", err)
		}
	}

	waiter := a.page.ExpectNavigation()
	if err := a.page.Drag(path, RandomSteps(a.rng, a.settings.MinSteps, a.settings.MaxSteps)); err != nil {
		return "", err
	}

	return solution.ID, waiter.Wait()
}

// report sends the outcome with retries; failures are only logged
func (a *SliderAgent) report(ctx context.Context, id string, correct bool) {
	if id == "" {
		return
	}

	label := "bad"
	if correct {
		label = "good"
	}
	log.Printf("[Slider] Reporting %s solution %s...", label, id)

	err := Retry(ctx, a.retry, func() error {
		err := a.solver.Report(ctx, id, correct)
		var apiErr *solver.APIError
		if err == nil || errors.As(err, &apiErr) {
			return err
		}
		return NewNetworkError("outcome report failed", err)
	})
	if err != nil {
		log.Printf("[Slider] Could not report %s solution %s: %v", label, id, err)
	}
}

// finish saves the screenshot, lingers and releases the browser.
// A failed screenshot does not undo the solve and is only logged.
func (a *SliderAgent) finish(ctx context.Context) *Screenshot {
	defer a.page.Close()

	shot, err := a.page.Screenshot()
	if err == nil {
		if a.settings.ScreenshotPath == "" {
			err = shot.SaveToTemp()
		} else {
			err = shot.SaveTo(a.settings.ScreenshotPath)
		}
	}
	if err != nil {
		log.Printf("[Slider] Could not save screenshot: %v", err)
		shot = nil
	} else {
		log.Printf("[Slider] Screenshot saved to %s", shot.Filepath)
	}

	if a.settings.SuccessPause > 0 {
		select {
		case <-time.After(a.settings.SuccessPause):
		case <-ctx.Done():
		}
	}

	return shot
}

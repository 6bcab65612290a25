package agent

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

const (
	// DefaultMinSteps is the fewest intermediate moves in a drag
	DefaultMinSteps = 50
	// DefaultMaxSteps is the most intermediate moves in a drag
	DefaultMaxSteps = 100
)

// RandomSteps returns a uniform integer in [min, max]
func RandomSteps(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}

// InterpolatePath returns steps evenly spaced points after start, the last one at target
func InterpolatePath(start, target Point, steps int) []Point {
	if steps < 1 {
		steps = 1
	}

	points := make([]Point, 0, steps)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		points = append(points, Point{
			X: start.X + (target.X-start.X)*t,
			Y: start.Y + (target.Y-start.Y)*t,
		})
	}
	return points
}

// PerformDrag moves to path.Start, presses the left button, moves to path.Target
// in steps moves and releases. stepDelay is slept after every dispatched event.
func PerformDrag(ctx context.Context, path DragPath, steps int, stepDelay time.Duration) error {
	log.Printf("[Mouse] Drag from (%.1f,%.1f) to (%.1f,%.1f) in %d steps",
		path.Start.X, path.Start.Y, path.Target.X, path.Target.Y, steps)

	pause := func() {
		if stepDelay > 0 {
			time.Sleep(stepDelay)
		}
	}

	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := input.DispatchMouseEvent(input.MouseMoved, path.Start.X, path.Start.Y).Do(ctx); err != nil {
			return fmt.Errorf("mouse move to start failed: %w", err)
		}
		pause()

		err := input.DispatchMouseEvent(input.MousePressed, path.Start.X, path.Start.Y).
			WithButton(input.Left).
			WithButtons(1).
			WithClickCount(1).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("mouse press failed: %w", err)
		}
		pause()

		for i, p := range InterpolatePath(path.Start, path.Target, steps) {
			err := input.DispatchMouseEvent(input.MouseMoved, p.X, p.Y).
				WithButton(input.Left).
				WithButtons(1).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("mouse move failed at step %d: %w", i+1, err)
			}
			pause()
		}

		err = input.DispatchMouseEvent(input.MouseReleased, path.Target.X, path.Target.Y).
			WithButton(input.Left).
			WithClickCount(1).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("mouse release failed: %w", err)
		}
		return nil
	}))
	if err != nil {
		return NewBrowserError("drag failed", err)
	}

	return nil
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/chromedp/chromedp"
)

// DefaultCorrection is subtracted from the target x. Tuned for the demo page.
const DefaultCorrection = 20.0

// Point is a viewport position in CSS pixels
type Point struct {
	X float64
	Y float64
}

func (p Point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// BoundingBox is an element's client rect
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the geometric center of the box
func (b BoundingBox) Center() Point {
	return Point{
		X: b.X + b.Width/2,
		Y: b.Y + b.Height/2,
	}
}

// DragPath is where the drag begins and ends
type DragPath struct {
	Start  Point
	Target Point
}

// ComputeDrag starts at the slider center and ends offsetX to the right of it,
// less correction, at height targetY
func ComputeDrag(box BoundingBox, offsetX, targetY, correction float64) (DragPath, error) {
	start := box.Center()
	path := DragPath{
		Start: start,
		Target: Point{
			X: start.X + offsetX - correction,
			Y: targetY,
		},
	}

	if !path.Start.finite() || !path.Target.finite() {
		return DragPath{}, fmt.Errorf("drag from (%v,%v) to (%v,%v): %w",
			path.Start.X, path.Start.Y, path.Target.X, path.Target.Y, ErrInvalidCoordinate)
	}

	return path, nil
}

// SliderBox returns the client rect of the element matching selector
func SliderBox(ctx context.Context, selector string) (BoundingBox, error) {
	script := fmt.Sprintf(`JSON.stringify(document.querySelector(%q).getBoundingClientRect())`, selector)

	var resp string
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &resp)); err != nil {
		return BoundingBox{}, NewBrowserError("failed to read slider position", err)
	}

	var box BoundingBox
	if err := json.Unmarshal([]byte(resp), &box); err != nil {
		return BoundingBox{}, NewBrowserError("failed to parse slider position", err)
	}

	return box, nil
}

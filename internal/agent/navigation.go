package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultNavigationTimeout is how long a correct drag takes to redirect
const DefaultNavigationTimeout = 5 * time.Second

// NavigationWaiter reports whether the main frame navigated
type NavigationWaiter interface {
	Wait() error
}

type navigationWaiter struct {
	ctx       context.Context
	cancel    context.CancelFunc
	navigated chan struct{}
	timeout   time.Duration
}

// ExpectNavigation starts listening for a main frame navigation.
// It must be called before the action that triggers it.
func ExpectNavigation(ctx context.Context, timeout time.Duration) NavigationWaiter {
	listenCtx, cancel := context.WithCancel(ctx)
	w := &navigationWaiter{
		ctx:       listenCtx,
		cancel:    cancel,
		navigated: make(chan struct{}, 1),
		timeout:   timeout,
	}

	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventFrameNavigated)
		if !ok || e.Frame == nil || e.Frame.ParentID != "" {
			return
		}
		select {
		case w.navigated <- struct{}{}:
		default:
		}
	})

	return w
}

// Wait blocks until the navigation or the timeout, then stops listening
func (w *navigationWaiter) Wait() error {
	defer w.cancel()

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case <-w.navigated:
		return nil
	case <-timer.C:
		return NewTimeoutError(fmt.Sprintf("waited %v for navigation", w.timeout), ErrNoNavigation)
	case <-w.ctx.Done():
		return w.ctx.Err()
	}
}

// Package runner wires configuration, the browser and the solving service
// into one solve session.
package runner

import (
	"context"
	"fmt"
	"log"

	"github.com/slidersolve/slider-agent/internal/agent"
	"github.com/slidersolve/slider-agent/internal/config"
	"github.com/slidersolve/slider-agent/internal/solver"
)

// Session is an opened browser plus the loop that drives it
type Session struct {
	Browser *agent.BrowserManager
	Agent   *agent.SliderAgent
}

// Open prepares a session: it reads the instruction image, creates the
// solver client, launches Chrome and loads the captcha page.
func Open(ctx context.Context, cfg *config.Config) (*Session, error) {
	instructions, err := solver.LoadInstructionImage(cfg.InstructionsFile)
	if err != nil {
		return nil, err
	}

	s, err := solver.New(cfg.SolverConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create solver: %w", err)
	}

	bm, err := agent.NewBrowserManager(ctx, cfg.BrowserOptions())
	if err != nil {
		return nil, err
	}

	log.Printf("[Runner] Opening %s", cfg.URL)
	if err := bm.LoadCaptchaPage(cfg.URL); err != nil {
		bm.Close()
		return nil, err
	}

	page := agent.NewChromePage(bm, cfg.PageSettings())
	return &Session{
		Browser: bm,
		Agent:   agent.NewSliderAgent(page, s, cfg.Settings(instructions)),
	}, nil
}

// Run opens a session and loops until the captcha is solved.
// The browser is always released before returning.
func Run(ctx context.Context, cfg *config.Config) (*agent.Result, error) {
	session, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer session.Browser.Close()

	return session.Agent.Run(ctx)
}

// Package config loads solver settings from defaults, an optional
// config.yaml, the environment and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slidersolve/slider-agent/internal/agent"
	"github.com/slidersolve/slider-agent/internal/solver"
	"github.com/spf13/viper"
)

// DefaultURL is the slider captcha demo page
const DefaultURL = "https://www.jqueryscript.net/demo/image-puzzle-slider-captcha/"

// Config holds application configuration
type Config struct {
	URL string

	Headless     bool
	SlowMo       time.Duration
	WindowWidth  int
	WindowHeight int

	ConsentSelector string
	CanvasSelector  string
	SliderSelector  string

	InstructionsFile string
	InstructionsText string

	Correction     float64
	MinSteps       int
	MaxSteps       int
	MinImageLength int

	ConsentTimeout    time.Duration
	NavigationTimeout time.Duration
	SuccessPause      time.Duration

	ScreenshotPath string
	MarkSolution   bool
	MaxAttempts    int

	Solver          string
	APIKey          string
	SolverBaseURL   string
	PollingInterval time.Duration
	SolveTimeout    time.Duration
	OpenAIKey       string
	OpenAIBaseURL   string
	OpenAIModel     string

	S3Bucket  string
	AWSRegion string
}

// SetDefaults registers every key with its default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("url", DefaultURL)
	v.SetDefault("headless", false)
	v.SetDefault("slow_mo", agent.DefaultStepDelay)
	v.SetDefault("window_width", 1280)
	v.SetDefault("window_height", 900)
	v.SetDefault("consent_selector", agent.DefaultConsentSelector)
	v.SetDefault("canvas_selector", agent.DefaultCanvasSelector)
	v.SetDefault("slider_selector", agent.DefaultSliderSelector)
	v.SetDefault("instructions_file", "./imginstructions.png")
	v.SetDefault("instructions_text", solver.DefaultTextInstructions)
	v.SetDefault("correction", agent.DefaultCorrection)
	v.SetDefault("min_steps", agent.DefaultMinSteps)
	v.SetDefault("max_steps", agent.DefaultMaxSteps)
	v.SetDefault("min_image_length", agent.DefaultMinImageLength)
	v.SetDefault("consent_timeout", agent.DefaultConsentTimeout)
	v.SetDefault("navigation_timeout", agent.DefaultNavigationTimeout)
	v.SetDefault("success_pause", agent.DefaultSuccessPause)
	v.SetDefault("screenshot", agent.DefaultScreenshotPath)
	v.SetDefault("mark", true)
	v.SetDefault("max_attempts", 0)
	v.SetDefault("solver", solver.BackendTwoCaptcha)
	v.SetDefault("solver_base_url", "")
	v.SetDefault("polling_interval", solver.DefaultPollingInterval)
	v.SetDefault("solve_timeout", solver.DefaultSolveTimeout)
	v.SetDefault("openai_base_url", "")
	v.SetDefault("openai_model", "")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("aws_region", "")
}

// Load reads configuration into a Config. Flags must already be bound to v.
func Load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.slider")

	SetDefaults(v)

	v.SetEnvPrefix("SLIDER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// The API key keeps the plain APIKEY variable used by the solving service docs
	_ = v.BindEnv("api_key", "SLIDER_API_KEY", "APIKEY")
	_ = v.BindEnv("openai_api_key", "SLIDER_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("s3_bucket", "SLIDER_S3_BUCKET", "S3_BUCKET_NAME")
	_ = v.BindEnv("aws_region", "SLIDER_AWS_REGION", "AWS_REGION")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		URL:               v.GetString("url"),
		Headless:          v.GetBool("headless"),
		SlowMo:            v.GetDuration("slow_mo"),
		WindowWidth:       v.GetInt("window_width"),
		WindowHeight:      v.GetInt("window_height"),
		ConsentSelector:   v.GetString("consent_selector"),
		CanvasSelector:    v.GetString("canvas_selector"),
		SliderSelector:    v.GetString("slider_selector"),
		InstructionsFile:  v.GetString("instructions_file"),
		InstructionsText:  v.GetString("instructions_text"),
		Correction:        v.GetFloat64("correction"),
		MinSteps:          v.GetInt("min_steps"),
		MaxSteps:          v.GetInt("max_steps"),
		MinImageLength:    v.GetInt("min_image_length"),
		ConsentTimeout:    v.GetDuration("consent_timeout"),
		NavigationTimeout: v.GetDuration("navigation_timeout"),
		SuccessPause:      v.GetDuration("success_pause"),
		ScreenshotPath:    v.GetString("screenshot"),
		MarkSolution:      v.GetBool("mark"),
		MaxAttempts:       v.GetInt("max_attempts"),
		Solver:            v.GetString("solver"),
		APIKey:            v.GetString("api_key"),
		SolverBaseURL:     v.GetString("solver_base_url"),
		PollingInterval:   v.GetDuration("polling_interval"),
		SolveTimeout:      v.GetDuration("solve_timeout"),
		OpenAIKey:         v.GetString("openai_api_key"),
		OpenAIBaseURL:     v.GetString("openai_base_url"),
		OpenAIModel:       v.GetString("openai_model"),
		S3Bucket:          v.GetString("s3_bucket"),
		AWSRegion:         v.GetString("aws_region"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the loop misbehave
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url must not be empty")
	}
	if c.CanvasSelector == "" || c.SliderSelector == "" {
		return fmt.Errorf("canvas and slider selectors must be set")
	}
	if c.MinSteps < 1 || c.MaxSteps < c.MinSteps {
		return fmt.Errorf("invalid step range [%d, %d]", c.MinSteps, c.MaxSteps)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be >= 0, got %d", c.MaxAttempts)
	}
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation_timeout must be positive")
	}
	return nil
}

// BrowserOptions returns the browser part of the configuration
func (c *Config) BrowserOptions() agent.BrowserOptions {
	return agent.BrowserOptions{
		Headless:     c.Headless,
		WindowWidth:  c.WindowWidth,
		WindowHeight: c.WindowHeight,
	}
}

// PageSettings returns the selectors and page timings
func (c *Config) PageSettings() agent.PageSettings {
	return agent.PageSettings{
		ConsentSelector:   c.ConsentSelector,
		CanvasSelector:    c.CanvasSelector,
		SliderSelector:    c.SliderSelector,
		ConsentTimeout:    c.ConsentTimeout,
		NavigationTimeout: c.NavigationTimeout,
		StepDelay:         c.SlowMo,
	}
}

// SolverConfig returns the solving backend configuration
func (c *Config) SolverConfig() solver.Config {
	return solver.Config{
		Backend:         c.Solver,
		APIKey:          c.APIKey,
		BaseURL:         c.SolverBaseURL,
		PollingInterval: c.PollingInterval,
		Timeout:         c.SolveTimeout,
		OpenAIKey:       c.OpenAIKey,
		OpenAIBaseURL:   c.OpenAIBaseURL,
		Model:           c.OpenAIModel,
	}
}

// Settings returns the loop settings. imageInstructions is the loaded
// instruction image in base64.
func (c *Config) Settings(imageInstructions string) agent.Settings {
	return agent.Settings{
		TextInstructions:  c.InstructionsText,
		ImageInstructions: imageInstructions,
		Correction:        c.Correction,
		MinSteps:          c.MinSteps,
		MaxSteps:          c.MaxSteps,
		MinImageLength:    c.MinImageLength,
		MarkSolution:      c.MarkSolution,
		SuccessPause:      c.SuccessPause,
		ScreenshotPath:    c.ScreenshotPath,
		MaxAttempts:       c.MaxAttempts,
	}
}

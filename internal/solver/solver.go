// Package solver talks to the services that locate the puzzle piece on a
// captcha image and accept feedback on whether the answer worked.
package solver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"
)

const (
	// BackendTwoCaptcha selects the 2captcha coordinates API
	BackendTwoCaptcha = "2captcha"
	// BackendOpenAI selects the OpenAI vision backend
	BackendOpenAI = "openai"
)

// DefaultTextInstructions is the hint shown to 2captcha workers
const DefaultTextInstructions = "Puzzle center | Центр пазла"

// ErrNoPoints is returned when a solution carries no coordinates
var ErrNoPoints = errors.New("solution has no coordinates")

// Point is a position on the captcha image in image pixels
type Point struct {
	X float64
	Y float64
}

// Task is one captcha to solve. Images are base64 without a data URL header.
type Task struct {
	Image             string
	TextInstructions  string
	ImageInstructions string
}

// Solution is the service's answer
type Solution struct {
	// ID identifies the answer for outcome reports
	ID string
	// Points are the clicked coordinates, in order
	Points []Point
}

// First returns the first point, which for a slider is the puzzle center
func (s *Solution) First() (Point, error) {
	if s == nil || len(s.Points) == 0 {
		return Point{}, ErrNoPoints
	}
	p := s.Points[0]
	if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
		return Point{}, fmt.Errorf("solution %s has non-finite point (%v,%v)", s.ID, p.X, p.Y)
	}
	return p, nil
}

// Solver finds coordinates on captcha images and takes outcome reports
type Solver interface {
	// Coordinates submits the task and blocks until an answer or an error
	Coordinates(ctx context.Context, task Task) (*Solution, error)
	// Report tells the service whether the answer with id was accepted
	Report(ctx context.Context, id string, correct bool) error
}

// Config selects and configures a backend
type Config struct {
	Backend string
	// APIKey is the 2captcha key
	APIKey string
	// BaseURL overrides the 2captcha endpoint
	BaseURL         string
	PollingInterval time.Duration
	Timeout         time.Duration
	// OpenAIKey, OpenAIBaseURL and Model configure the vision backend
	OpenAIKey     string
	OpenAIBaseURL string
	Model         string
}

// New builds the backend named by cfg.Backend
func New(cfg Config) (Solver, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendTwoCaptcha:
		return NewTwoCaptcha(cfg.APIKey, TwoCaptchaOptions{
			BaseURL:         cfg.BaseURL,
			PollingInterval: cfg.PollingInterval,
			Timeout:         cfg.Timeout,
		})
	case BackendOpenAI:
		return NewVision(cfg.OpenAIKey, VisionOptions{
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unknown solver backend %q (supported: %s, %s)", cfg.Backend, BackendTwoCaptcha, BackendOpenAI)
	}
}

// LoadInstructionImage reads an image file and returns it base64 encoded
func LoadInstructionImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read instruction image %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("instruction image %s is empty", path)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

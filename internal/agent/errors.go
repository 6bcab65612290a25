package agent

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrorCategory represents the type of error
type ErrorCategory string

const (
	// ErrorCategoryBrowser for browser automation errors
	ErrorCategoryBrowser ErrorCategory = "browser"
	// ErrorCategoryNetwork for network/connectivity errors
	ErrorCategoryNetwork ErrorCategory = "network"
	// ErrorCategoryTimeout for timeout errors
	ErrorCategoryTimeout ErrorCategory = "timeout"
	// ErrorCategorySolver for solving service errors
	ErrorCategorySolver ErrorCategory = "solver"
	// ErrorCategoryStorage for screenshot/S3 errors
	ErrorCategoryStorage ErrorCategory = "storage"
	// ErrorCategoryFatal for conditions that end the run
	ErrorCategoryFatal ErrorCategory = "fatal"
)

var (
	// ErrDegenerateImage is returned when the captured canvas is too short to be a real captcha
	ErrDegenerateImage = errors.New("captcha image failed to load")
	// ErrNoNavigation is returned when the page did not navigate after the drag
	ErrNoNavigation = errors.New("no navigation after drag")
	// ErrInvalidCoordinate is returned for NaN or infinite coordinates
	ErrInvalidCoordinate = errors.New("coordinate is not a finite number")
)

// CategorizedError wraps an error with category and retry info
type CategorizedError struct {
	Category  ErrorCategory
	Original  error
	Retryable bool
	Message   string
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Message, e.Original)
}

// Unwrap implements error unwrapping
func (e *CategorizedError) Unwrap() error {
	return e.Original
}

// NewBrowserError creates a browser-related error
func NewBrowserError(message string, err error) *CategorizedError {
	return &CategorizedError{
		Category:  ErrorCategoryBrowser,
		Original:  err,
		Retryable: true,
		Message:   message,
	}
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, err error) *CategorizedError {
	return &CategorizedError{
		Category:  ErrorCategoryNetwork,
		Original:  err,
		Retryable: true,
		Message:   message,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string, err error) *CategorizedError {
	return &CategorizedError{
		Category:  ErrorCategoryTimeout,
		Original:  err,
		Retryable: true,
		Message:   message,
	}
}

// NewSolverError creates a solving service error
func NewSolverError(message string, err error) *CategorizedError {
	return &CategorizedError{
		Category:  ErrorCategorySolver,
		Original:  err,
		Retryable: true,
		Message:   message,
	}
}

// NewStorageError creates a storage error
func NewStorageError(message string, err error) *CategorizedError {
	return &CategorizedError{
		Category:  ErrorCategoryStorage,
		Original:  err,
		Retryable: false,
		Message:   message,
	}
}

// NewFatalError creates an error that stops the solve loop
func NewFatalError(message string, err error) *CategorizedError {
	return &CategorizedError{
		Category:  ErrorCategoryFatal,
		Original:  err,
		Retryable: false,
		Message:   message,
	}
}

// IsFatal reports whether err should end the run
func IsFatal(err error) bool {
	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category == ErrorCategoryFatal
	}
	return errors.Is(err, ErrDegenerateImage)
}

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors []ErrorCategory
}

// DefaultRetryConfig returns the retry policy used for outcome reports
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		RetryableErrors: []ErrorCategory{
			ErrorCategoryNetwork,
			ErrorCategoryTimeout,
			ErrorCategorySolver,
		},
	}
}

// Retry executes a function with exponential backoff retry logic
func Retry(ctx context.Context, config RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !shouldRetry(err, config) {
			return err
		}

		if attempt < config.MaxAttempts-1 {
			delay := calculateDelay(attempt, config)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", config.MaxAttempts, lastErr)
}

// shouldRetry determines if an error is retryable
func shouldRetry(err error, config RetryConfig) bool {
	var catErr *CategorizedError
	if !errors.As(err, &catErr) {
		// Unknown errors are not retryable by default
		return false
	}

	if !catErr.Retryable {
		return false
	}

	for _, category := range config.RetryableErrors {
		if catErr.Category == category {
			return true
		}
	}

	return false
}

// calculateDelay calculates retry delay with exponential backoff
func calculateDelay(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay)

	for i := 0; i < attempt; i++ {
		delay *= config.BackoffFactor
	}

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	return time.Duration(delay)
}

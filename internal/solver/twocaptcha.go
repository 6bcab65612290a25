package solver

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	api2captcha "github.com/2captcha/2captcha-go"
)

const (
	// DefaultPollingInterval is the wait between result polls
	DefaultPollingInterval = 5 * time.Second
	// DefaultSolveTimeout bounds one Coordinates call
	DefaultSolveTimeout = 120 * time.Second
)

// APIError is a 2captcha error code such as ERROR_ZERO_BALANCE
type APIError struct {
	Code string
	Err  error
}

func (e *APIError) Error() string {
	return "2captcha: " + e.Code
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// TwoCaptchaOptions configures the client. Zero values select defaults.
type TwoCaptchaOptions struct {
	BaseURL         string
	PollingInterval time.Duration
	Timeout         time.Duration
}

// TwoCaptcha is a client for the 2captcha coordinates method
type TwoCaptcha struct {
	client  *api2captcha.Client
	timeout time.Duration
}

// NewTwoCaptcha creates a client for apiKey
func NewTwoCaptcha(apiKey string, opts TwoCaptchaOptions) (*TwoCaptcha, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("2captcha API key not set (export APIKEY)")
	}

	if opts.PollingInterval <= 0 {
		opts.PollingInterval = DefaultPollingInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSolveTimeout
	}

	client := api2captcha.NewClient(apiKey)
	client.DefaultTimeout = int(math.Ceil(opts.Timeout.Seconds()))
	client.PollingInterval = int(opts.PollingInterval / time.Second)

	if opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid 2captcha base URL %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = base
	}

	return &TwoCaptcha{client: client, timeout: opts.Timeout}, nil
}

// Coordinates submits the task and waits until the answer is ready
func (c *TwoCaptcha) Coordinates(ctx context.Context, task Task) (*Solution, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	captcha := api2captcha.Coordinates{
		Base64:          task.Image,
		HintText:        task.TextInstructions,
		HintImageBase64: task.ImageInstructions,
	}

	type answer struct {
		code string
		id   string
	}
	res, err := await(ctx, func() (answer, error) {
		code, id, err := c.client.Solve(captcha.ToRequest())
		return answer{code, id}, err
	})
	if err != nil {
		return nil, wrapError("solve", err)
	}

	log.Printf("[Solver] Captcha %s answered: %s", res.id, res.code)

	points, err := parseCoordinates(res.code)
	if err != nil {
		return nil, fmt.Errorf("2captcha: answer %s: %w", res.id, err)
	}
	return &Solution{ID: res.id, Points: points}, nil
}

// parseCoordinates reads an answer of the form "coordinates:x=1,y=2;x=3,y=4"
func parseCoordinates(code string) ([]Point, error) {
	code = strings.TrimSpace(code)
	code = strings.TrimPrefix(code, "OK|")
	code = strings.TrimPrefix(code, "coordinates:")

	var points []Point
	for _, pair := range strings.Split(code, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		var p Point
		var hasX, hasY bool
		for _, field := range strings.Split(pair, ",") {
			key, value, ok := strings.Cut(field, "=")
			if !ok {
				return nil, fmt.Errorf("malformed coordinate %q", pair)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid coordinate %q: %w", pair, err)
			}
			switch strings.TrimSpace(key) {
			case "x":
				p.X, hasX = v, true
			case "y":
				p.Y, hasY = v, true
			}
		}
		if !hasX || !hasY {
			return nil, fmt.Errorf("coordinate %q needs both x and y", pair)
		}
		points = append(points, p)
	}

	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	return points, nil
}

// Report sends reportgood or reportbad for id
func (c *TwoCaptcha) Report(ctx context.Context, id string, correct bool) error {
	_, err := await(ctx, func() (struct{}, error) {
		return struct{}{}, c.client.Report(id, correct)
	})
	if err != nil {
		return wrapError("report", err)
	}
	return nil
}

// Balance returns the account balance in USD
func (c *TwoCaptcha) Balance(ctx context.Context) (float64, error) {
	balance, err := await(ctx, c.client.GetBalance)
	if err != nil {
		return 0, wrapError("getbalance", err)
	}
	return balance, nil
}

// await runs fn and returns early when ctx ends. The client has no
// context support, so fn keeps running until its own timeout.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.value, r.err
	}
}

// wrapError turns service error codes into *APIError
func wrapError(op string, err error) error {
	if code := errorCode(err.Error()); code != "" {
		return fmt.Errorf("2captcha: %s: %w", op, &APIError{Code: code, Err: err})
	}
	return fmt.Errorf("2captcha: %s: %w", op, err)
}

func errorCode(msg string) string {
	for _, word := range strings.FieldsFunc(msg, func(r rune) bool {
		return r == ' ' || r == ':' || r == '|' || r == '"'
	}) {
		if strings.HasPrefix(word, "ERROR_") || word == "IP_BANNED" || word == "MAX_USER_TURN" {
			return word
		}
	}
	return ""
}

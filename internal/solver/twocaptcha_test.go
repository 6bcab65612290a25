package solver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTwoCaptcha serves the in.php/res.php contract from canned poll answers
type fakeTwoCaptcha struct {
	mu      sync.Mutex
	submit  string
	polls   []string
	form    map[string]string
	actions []string
}

func (f *fakeTwoCaptcha) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/in.php", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.form = map[string]string{}
		for _, k := range []string{"key", "coordinatescaptcha", "body", "textinstructions"} {
			f.form[k] = r.FormValue(k)
		}
		submit := f.submit
		f.mu.Unlock()

		if submit == "" {
			submit = "OK|7410"
		}
		fmt.Fprint(w, submit)
	})
	mux.HandleFunc("/res.php", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.FormValue("key"))

		f.mu.Lock()
		defer f.mu.Unlock()
		action := r.FormValue("action")
		f.actions = append(f.actions, action)

		switch action {
		case "get":
			body := f.polls[0]
			if len(f.polls) > 1 {
				f.polls = f.polls[1:]
			}
			fmt.Fprint(w, body)
		case "reportgood", "reportbad":
			if r.FormValue("id") != "7410" {
				fmt.Fprint(w, "ERROR_WRONG_CAPTCHA_ID")
				return
			}
			fmt.Fprint(w, "OK_REPORT_RECORDED")
		case "getbalance":
			fmt.Fprint(w, "3.1415")
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
		}
	})
	return mux
}

// snapshot returns the last submitted form and the res.php actions seen
func (f *fakeTwoCaptcha) snapshot() (map[string]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form, append([]string(nil), f.actions...)
}

func newTestClient(t *testing.T, fake *fakeTwoCaptcha) *TwoCaptcha {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	c, err := NewTwoCaptcha("secret", TwoCaptchaOptions{
		BaseURL:         srv.URL,
		PollingInterval: time.Millisecond,
		Timeout:         5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestTwoCaptchaCoordinates(t *testing.T) {
	fake := &fakeTwoCaptcha{polls: []string{
		"CAPCHA_NOT_READY",
		"OK|coordinates:x=150,y=42",
	}}
	c := newTestClient(t, fake)

	solution, err := c.Coordinates(context.Background(), Task{
		Image:             "aW1hZ2U=",
		TextInstructions:  DefaultTextInstructions,
		ImageInstructions: "aGludA==",
	})
	require.NoError(t, err)

	assert.Equal(t, "7410", solution.ID)
	p, err := solution.First()
	require.NoError(t, err)
	assert.Equal(t, Point{X: 150, Y: 42}, p)

	form, actions := fake.snapshot()
	assert.Equal(t, "secret", form["key"])
	assert.Equal(t, "1", form["coordinatescaptcha"])
	assert.Equal(t, "aW1hZ2U=", form["body"])
	assert.Equal(t, DefaultTextInstructions, form["textinstructions"])
	assert.Contains(t, actions, "get")
}

func TestTwoCaptchaCoordinatesAPIError(t *testing.T) {
	fake := &fakeTwoCaptcha{polls: []string{"ERROR_CAPTCHA_UNSOLVABLE"}}
	c := newTestClient(t, fake)

	_, err := c.Coordinates(context.Background(), Task{Image: "aW1hZ2U="})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ERROR_CAPTCHA_UNSOLVABLE", apiErr.Code)
}

func TestTwoCaptchaSubmitError(t *testing.T) {
	fake := &fakeTwoCaptcha{submit: "ERROR_ZERO_BALANCE"}
	c := newTestClient(t, fake)

	_, err := c.Coordinates(context.Background(), Task{Image: "aW1hZ2U="})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ERROR_ZERO_BALANCE", apiErr.Code)
}

func TestTwoCaptchaCoordinatesEmptyAnswer(t *testing.T) {
	fake := &fakeTwoCaptcha{polls: []string{"OK|coordinates:"}}
	c := newTestClient(t, fake)

	_, err := c.Coordinates(context.Background(), Task{Image: "aW1hZ2U="})
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestTwoCaptchaCoordinatesHonoursContext(t *testing.T) {
	fake := &fakeTwoCaptcha{polls: []string{"CAPCHA_NOT_READY"}}
	c := newTestClient(t, fake)
	c.client.DefaultTimeout = 1

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Coordinates(ctx, Task{Image: "aW1hZ2U="})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTwoCaptchaReport(t *testing.T) {
	fake := &fakeTwoCaptcha{}
	c := newTestClient(t, fake)

	require.NoError(t, c.Report(context.Background(), "7410", true))
	require.NoError(t, c.Report(context.Background(), "7410", false))
	_, actions := fake.snapshot()
	assert.Equal(t, []string{"reportgood", "reportbad"}, actions)
}

func TestTwoCaptchaReportUnknownID(t *testing.T) {
	c := newTestClient(t, &fakeTwoCaptcha{})

	err := c.Report(context.Background(), "1", false)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ERROR_WRONG_CAPTCHA_ID", apiErr.Code)
}

func TestTwoCaptchaBalance(t *testing.T) {
	c := newTestClient(t, &fakeTwoCaptcha{})

	balance, err := c.Balance(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 3.1415, balance, 1e-9)
}

func TestNewTwoCaptchaRequiresKey(t *testing.T) {
	_, err := NewTwoCaptcha("", TwoCaptchaOptions{})
	assert.Error(t, err)
}

func TestParseCoordinates(t *testing.T) {
	points, err := parseCoordinates("coordinates:x=150,y=42")
	require.NoError(t, err)
	assert.Equal(t, []Point{{X: 150, Y: 42}}, points)

	points, err = parseCoordinates("OK|coordinates:x=150.5,y=42;x=10,y=11")
	require.NoError(t, err)
	assert.Equal(t, []Point{{X: 150.5, Y: 42}, {X: 10, Y: 11}}, points)

	_, err = parseCoordinates("coordinates:")
	assert.ErrorIs(t, err, ErrNoPoints)

	_, err = parseCoordinates("coordinates:x=150")
	assert.ErrorContains(t, err, "needs both x and y")

	_, err = parseCoordinates("coordinates:x=abc,y=1")
	assert.Error(t, err)

	_, err = parseCoordinates("150,42")
	assert.Error(t, err)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "ERROR_ZERO_BALANCE", errorCode("api2captcha: API error: ERROR_ZERO_BALANCE"))
	assert.Equal(t, "IP_BANNED", errorCode("IP_BANNED"))
	assert.Empty(t, errorCode("api2captcha: Network failure"))
}

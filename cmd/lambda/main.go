package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/slidersolve/slider-agent/internal/config"
	"github.com/slidersolve/slider-agent/internal/reporter"
	"github.com/slidersolve/slider-agent/internal/runner"
	"github.com/spf13/viper"
)

// defaultMaxAttempts bounds the loop so it ends before the Lambda deadline
const defaultMaxAttempts = 5

// LambdaEvent represents the input event for Lambda
type LambdaEvent struct {
	// URL overrides the captcha page (optional)
	URL string `json:"url,omitempty"`
	// MaxAttempts bounds the number of attempts (default 5)
	MaxAttempts int `json:"max_attempts,omitempty"`
	// Timeout in seconds (default: 240)
	Timeout int `json:"timeout,omitempty"`
	// UploadToS3 determines if the screenshot should be uploaded
	UploadToS3 bool `json:"upload_to_s3"`
	// BucketName for S3 uploads (optional, defaults to env var)
	BucketName string `json:"bucket_name,omitempty"`
}

// LambdaResponse represents the Lambda function output
type LambdaResponse struct {
	// Success indicates the captcha was passed
	Success bool `json:"success"`
	// RunID identifies this invocation's artifacts
	RunID string `json:"run_id"`
	// Attempts is the number of loop passes made
	Attempts int `json:"attempts,omitempty"`
	// CaptchaID is the accepted solver answer
	CaptchaID string `json:"captcha_id,omitempty"`
	// ScreenshotURL is the S3 URL (if uploaded)
	ScreenshotURL string `json:"screenshot_url,omitempty"`
	// Error message if failed
	Error string `json:"error,omitempty"`
	// Duration in seconds
	Duration float64 `json:"duration_seconds,omitempty"`
}

// HandleRequest is the Lambda handler function
func HandleRequest(ctx context.Context, event LambdaEvent) (LambdaResponse, error) {
	startTime := time.Now()
	runID := uuid.New().String()

	if event.URL != "" {
		parsedURL, err := url.ParseRequestURI(event.URL)
		if err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
			return LambdaResponse{
				RunID: runID,
				Error: "url must be a valid http or https URL",
			}, fmt.Errorf("invalid url: %s", event.URL)
		}
	}

	v := viper.New()
	v.Set("headless", true)
	v.Set("success_pause", 0)
	// empty path saves under a unique temp name
	v.Set("screenshot", "")
	if event.URL != "" {
		v.Set("url", event.URL)
	}
	if event.MaxAttempts == 0 {
		event.MaxAttempts = defaultMaxAttempts
	}
	v.Set("max_attempts", event.MaxAttempts)

	cfg, err := config.Load(v)
	if err != nil {
		return LambdaResponse{RunID: runID, Error: err.Error()}, err
	}

	if event.Timeout == 0 {
		event.Timeout = 240
	}
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(event.Timeout)*time.Second)
	defer cancel()

	result, err := runner.Run(runCtx, cfg)
	duration := time.Since(startTime)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("timed out after %ds", event.Timeout)
		}
		// Don't return error to Lambda - include in response
		return LambdaResponse{RunID: runID, Error: msg, Duration: duration.Seconds()}, nil
	}

	response := LambdaResponse{
		Success:   true,
		RunID:     runID,
		Attempts:  result.Attempts,
		CaptchaID: result.CaptchaID,
		Duration:  duration.Seconds(),
	}

	if event.UploadToS3 && result.Screenshot != nil {
		bucketName := event.BucketName
		if bucketName == "" {
			bucketName = cfg.S3Bucket
		}

		uploader, err := reporter.NewS3Uploader(ctx, bucketName, cfg.AWSRegion)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: S3 upload skipped: %v\n", err)
		} else if screenshotURL, err := uploader.UploadScreenshot(ctx, result.Screenshot, runID); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: S3 upload failed: %v\n", err)
		} else {
			response.ScreenshotURL = screenshotURL
		}
	}

	if result.Screenshot != nil && result.Screenshot.Filepath != "" {
		os.Remove(result.Screenshot.Filepath)
	}

	return response, nil
}

func main() {
	lambda.Start(HandleRequest)
}

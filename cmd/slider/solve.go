package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/slidersolve/slider-agent/internal/reporter"
	"github.com/slidersolve/slider-agent/internal/runner"
	"github.com/spf13/cobra"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the slider captcha",
	Long: `Open the captcha page and loop until a drag is accepted. Each wrong
drag is reported as a bad answer and retried. The run stops with an error
only if the captcha image fails to load.`,
	RunE: runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringP("url", "u", "", "Captcha page URL")
	f.Bool("headless", false, "Run browser in headless mode")
	f.StringP("instructions", "i", "", "Instruction image sent with every captcha")
	f.String("text", "", "Text instructions sent with every captcha")
	f.StringP("screenshot", "o", "", "Where to save the screenshot after success")
	f.String("solver", "", "Solving backend: 2captcha or openai")
	f.IntP("max-attempts", "n", 0, "Stop after this many attempts (0 = no limit)")
	f.Bool("mark", true, "Draw the answer on the captcha canvas before dragging")
	f.String("s3-bucket", "", "Also upload the screenshot to this S3 bucket")
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("🧩 Slider solver v%s\n", version)
	fmt.Printf("📋 Configuration:\n")
	fmt.Printf("   URL: %s\n", cfg.URL)
	fmt.Printf("   Solver: %s\n", cfg.Solver)
	fmt.Printf("   Headless Mode: %v\n", cfg.Headless)
	fmt.Printf("   Instructions: %s\n", cfg.InstructionsFile)
	if cfg.MaxAttempts > 0 {
		fmt.Printf("   Max Attempts: %d\n", cfg.MaxAttempts)
	}
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("🌐 Starting browser...")
	result, err := runner.Run(ctx, cfg)
	if err != nil {
		color.Red("❌ Captcha not solved: %v", err)
		return err
	}

	color.Green("✅ Captcha solved after %d attempt(s) in %s", result.Attempts, result.Duration.Round(time.Millisecond))
	if result.Screenshot != nil {
		fmt.Printf("📸 Screenshot: %s\n", result.Screenshot.Filepath)
	}

	if cfg.S3Bucket != "" && result.Screenshot != nil {
		uploader, err := reporter.NewS3Uploader(ctx, cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: S3 upload skipped: %v\n", err)
			return nil
		}
		url, err := uploader.UploadScreenshot(ctx, result.Screenshot, uuid.New().String())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: S3 upload failed: %v\n", err)
			return nil
		}
		fmt.Printf("☁️  Uploaded: %s\n", url)
	}

	return nil
}

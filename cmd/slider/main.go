package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "slider",
	Short: "Slider captcha solver for the jqueryscript.net puzzle demo",
	Long: `slider opens the image puzzle slider captcha demo in Chrome, sends the
captcha canvas to a coordinates solving service, drags the slider to the
returned offset and reports the outcome back to the service. It repeats
until the page redirects.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(balanceCmd)
}

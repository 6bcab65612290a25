package main

import (
	"fmt"

	"github.com/slidersolve/slider-agent/internal/solver"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the 2captcha account balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		client, err := solver.NewTwoCaptcha(cfg.APIKey, solver.TwoCaptchaOptions{BaseURL: cfg.SolverBaseURL})
		if err != nil {
			return err
		}

		balance, err := client.Balance(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("💰 Balance: $%.4f\n", balance)
		return nil
	},
}

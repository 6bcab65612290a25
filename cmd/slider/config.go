package main

import (
	"fmt"

	"github.com/slidersolve/slider-agent/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"url":          "url",
	"headless":     "headless",
	"instructions": "instructions_file",
	"text":         "instructions_text",
	"screenshot":   "screenshot",
	"solver":       "solver",
	"max-attempts": "max_attempts",
	"mark":         "mark",
	"s3-bucket":    "s3_bucket",
}

// loadConfig binds the flags cmd defines and loads the configuration
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
			}
		}
	}
	return config.Load(v)
}

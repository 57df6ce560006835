// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/casefile-tui/internal/config"
	"github.com/jeranaias/casefile-tui/internal/gate"
)

// Build information, set from main.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Persistent flags.
var (
	configPath string
	plainMode  bool
	policyFlag string
	codeMode   string
	themeFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "casefile",
	Short: "Access panel for the confidential case file",
	Long: "Opens the case file access panel. A correct phone number and access code " +
		"reveal the briefing, the access link and the attempt log; repeated failures " +
		"lock the panel.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPanel,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default $CASEFILE_HOME/config.toml)")
	pf.StringVar(&policyFlag, "policy", "", "lockout policy: escalating or fixed_cutoff")
	pf.StringVar(&codeMode, "code-mode", "", "code comparison: exact or case_insensitive")
	pf.StringVar(&themeFlag, "theme", "", "panel theme: dark, light or auto")
	rootCmd.Flags().BoolVar(&plainMode, "plain", false, "use the line-mode shell instead of the full-screen panel")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:")+" "+err.Error())
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if policyFlag != "" {
		p, err := gate.ParseLockoutPolicy(policyFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --policy: %w", err)
		}
		cfg.Gate.LockoutPolicy = string(p)
	}
	if codeMode != "" {
		m, err := gate.ParseCodeComparison(codeMode)
		if err != nil {
			return nil, fmt.Errorf("invalid --code-mode: %w", err)
		}
		cfg.Gate.CodeComparison = string(m)
	}
	if themeFlag != "" {
		cfg.UI.Theme = themeFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

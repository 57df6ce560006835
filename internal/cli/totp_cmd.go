// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/spf13/cobra"

	"github.com/jeranaias/casefile-tui/internal/config"
)

var (
	totpIssuer  string
	totpAccount string
	totpSave    bool
)

func init() {
	totpCmd.Flags().StringVar(&totpIssuer, "issuer", "casefile", "issuer shown in the authenticator app")
	totpCmd.Flags().StringVar(&totpAccount, "account", "", "account name (default: the configured phone number)")
	totpCmd.Flags().BoolVar(&totpSave, "save", false, "store the secret and switch code_source to totp")
	rootCmd.AddCommand(totpCmd)
}

var totpCmd = &cobra.Command{
	Use:   "totp",
	Short: "Generate a TOTP secret for time-based access codes",
	Long: "Generates a new TOTP secret. With code_source = \"totp\" the access code is the " +
		"six-digit code from an authenticator app instead of the static code.",
	Args: cobra.NoArgs,
	RunE: runTOTP,
}

func runTOTP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	account := totpAccount
	if account == "" {
		account = cfg.Gate.Phone
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: account,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, RenderLabel("Secret")+key.Secret())
	fmt.Fprintln(out, RenderLabel("URL")+key.URL())

	if !totpSave {
		fmt.Fprintln(out, DimStyle.Render("Run again with --save to enable it, or set gate.totp_secret yourself."))
		return nil
	}

	cfg.Gate.CodeSource = "totp"
	cfg.Gate.TOTPSecret = key.Secret()
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintln(out, SuccessStyle.Render("Saved. The panel now expects authenticator codes."))
	return nil
}

// saveConfig writes cfg to --config when given, else to the default path.
func saveConfig(cfg *config.Config) error {
	if configPath != "" {
		return config.SaveTOML(cfg, configPath)
	}
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return config.Save(cfg)
}

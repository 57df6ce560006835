// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/casefile-tui/internal/config"
)

var configInitForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd, configKeysCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the casefile configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (credentials redacted)",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every configuration key",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

var configGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Print one configuration value",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeConfigKey,
	RunE:              runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one configuration value and save",
	Long:  "Sets a key in dot notation, for example gate.max_attempts or ui.theme. Lists take comma-separated values.",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeConfigKey,
	RunE:              runConfigSet,
}

// completeConfigKey completes the key argument of get and set.
func completeConfigKey(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var keys []string
	for _, key := range config.GetAllKeys() {
		if strings.HasPrefix(key, strings.ToLower(toComplete)) {
			keys = append(keys, key)
		}
	}
	return keys, cobra.ShellCompDirectiveNoFileComp
}

// checkKey rejects keys that are not part of the config file.
func checkKey(key string) error {
	if !config.IsValidKey(key) {
		return fmt.Errorf("unknown config key %q (see 'casefile config keys')", key)
	}
	return nil
}

func resolvedConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.ConfigPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := resolvedConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := saveConfig(config.Default()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Created "+path))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := resolvedConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runConfigKeys(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, key := range config.GetAllKeys() {
		if config.IsSecretKey(key) {
			fmt.Fprintln(out, key+" "+DimStyle.Render("(secret)"))
			continue
		}
		fmt.Fprintln(out, key)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := checkKey(key); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	val, err := cfg.Get(key)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if config.IsSecretKey(key) {
		if s, ok := val.(string); ok && s != "" {
			fmt.Fprintln(out, "[REDACTED]")
			return nil
		}
	}
	switch v := val.(type) {
	case []string:
		fmt.Fprintln(out, strings.Join(v, ","))
	default:
		fmt.Fprintln(out, v)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if err := checkKey(key); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	shown := value
	if config.IsSecretKey(key) {
		shown = "[REDACTED]"
	}
	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(fmt.Sprintf("Set %s = %s", key, shown)))
	return nil
}

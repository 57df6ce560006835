// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/casefile-tui/internal/audit"
	"github.com/jeranaias/casefile-tui/internal/util"
)

var (
	auditListLimit   int
	auditExportLimit int
	auditSession     string
	auditFailedOnly  bool

	auditFormat string
	auditOut    string
)

func init() {
	auditListCmd.Flags().IntVar(&auditListLimit, "limit", 50, "maximum number of attempts (0 = all)")
	auditExportCmd.Flags().IntVar(&auditExportLimit, "limit", 0, "maximum number of attempts (0 = all)")
	for _, c := range []*cobra.Command{auditListCmd, auditExportCmd} {
		c.Flags().StringVar(&auditSession, "session", "", "only attempts from this session ID")
		c.Flags().BoolVar(&auditFailedOnly, "failed", false, "only failed attempts")
	}
	auditExportCmd.Flags().StringVar(&auditFormat, "format", "json", "export format: json, yaml or csv")
	auditExportCmd.Flags().StringVarP(&auditOut, "out", "o", "", "output file (default stdout)")

	auditCmd.AddCommand(auditListCmd, auditExportCmd)
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the attempt archive",
	Long:  "Reads attempts archived by earlier sessions from the SQLite archive.",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived attempts, newest first",
	Args:  cobra.NoArgs,
	RunE:  runAuditList,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived attempts as JSON, YAML or CSV",
	Args:  cobra.NoArgs,
	RunE:  runAuditExport,
}

// openArchive opens the configured archive. A missing archive is an error so
// that a typo in archive_path does not silently create an empty database.
func openArchive() (*audit.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	path := cfg.ArchivePath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no archive at %s (is audit.archive_enabled set?)", path)
	}
	return audit.OpenStore(path)
}

// commandContext returns the command's context, or Background when the
// command was invoked without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func listOptions(limit int) audit.ListOptions {
	return audit.ListOptions{
		Limit:      limit,
		SessionID:  auditSession,
		FailedOnly: auditFailedOnly,
	}
}

func runAuditList(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(commandContext(cmd), listOptions(auditListLimit))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No attempts archived."))
		return nil
	}
	for _, e := range entries {
		session := e.SessionID
		if len(session) > 8 {
			session = session[:8]
		}
		fmt.Fprintf(out, "%s  %s %s  %s  %s\n",
			DimStyle.Render(e.Timestamp.Format("2006-01-02 15:04:05")),
			RenderStatus(e.Success),
			util.PadWidth(e.Phone, 16),
			util.PadWidth(e.Code, 14),
			DimStyle.Render(session+" "+e.Outcome))
	}
	return nil
}

func runAuditExport(cmd *cobra.Command, args []string) error {
	format, err := audit.ParseFormat(auditFormat)
	if err != nil {
		return err
	}

	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(commandContext(cmd), listOptions(auditExportLimit))
	if err != nil {
		return err
	}

	if auditOut == "" {
		return audit.Export(cmd.OutOrStdout(), entries, format)
	}

	err = util.WritePrivateFile(auditOut, func(w io.Writer) error {
		return audit.Export(w, entries, format)
	})
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), SuccessStyle.Render(fmt.Sprintf("Exported %d attempts to %s", len(entries), auditOut)))
	return nil
}

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgerlanc/gitu/internal/audit"
	"github.com/dgerlanc/gitu/internal/config"
)

var (
	auditLimit int
	auditJSON  bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent runs from the audit log",
	Long: `Audit prints the most recent entries of the audit log, including entries
from rotated archives.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "l", 20, "Number of entries to show (0 for all)")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Print entries as JSON lines")
}

func runAudit(cmd *cobra.Command, args []string) error {
	path := audit.Path()
	if path == "" {
		path = config.Get().Audit.Path
	}
	if path == "" {
		var err error
		if path, err = audit.DefaultLogPath(); err != nil {
			return err
		}
	}

	entries, err := audit.ReadEntries(path, auditLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if auditJSON {
		enc := json.NewEncoder(out)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}

	for _, e := range entries {
		fmt.Fprintln(out, formatEntry(e))
	}
	return nil
}

func formatEntry(e audit.Entry) string {
	status := "ok"
	if !e.Succeeded {
		status = fmt.Sprintf("exit %d", e.ExitCode)
	}

	var detail string
	switch e.Kind {
	case audit.KindGuard:
		detail = fmt.Sprintf("pre-commit: %d lines, %d violations", e.ScannedLines, len(e.Violations))
	default:
		detail = e.Operation
		if e.Mode != "" && e.Mode != "execute" {
			detail += " [" + e.Mode + "]"
		}
		if len(e.Invocations) > 0 {
			detail += ": " + strings.Join(e.Invocations, " && ")
		}
	}
	if e.Error != "" {
		detail += " (" + e.Error + ")"
	}
	return fmt.Sprintf("%s  %-7s  %s", e.Timestamp, status, detail)
}

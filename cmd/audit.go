package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knoweval/internal/audit"
)

var (
	auditFile    string
	auditSession string
	auditSource  string
	auditAction  string
	auditSince   time.Duration
	auditLimit   int
	auditPrune   time.Duration
	auditJSON    bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the activity log",
	Long: `Lists recorded activity (notes created, saved or deleted, evaluations run)
from the CLI, the dashboard and MCP, newest first.

Use --prune to delete entries older than a duration, e.g. --prune 720h.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()

		if auditPrune > 0 {
			n, err := a.audit.DeleteBefore(ctx, time.Now().Add(-auditPrune))
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d entries older than %s.\n", n, auditPrune)
			return nil
		}

		filter := audit.QueryFilter{
			Source:    audit.Source(auditSource),
			SessionID: auditSession,
			Action:    audit.Action(auditAction),
			File:      auditFile,
			Limit:     auditLimit,
		}
		if auditSince > 0 {
			since := time.Now().Add(-auditSince)
			filter.Since = &since
		}

		entries, err := a.audit.Query(ctx, filter)
		if err != nil {
			return err
		}
		if auditJSON {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No activity recorded.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %-9s %-20s %s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Source, e.Action, e.Summary)
			if verbose && e.Detail != "" {
				fmt.Printf("    %s\n", e.Detail)
			}
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditFile, "file", "", "only entries for this knowledge file")
	auditCmd.Flags().StringVar(&auditSession, "session", "", "only entries from this session")
	auditCmd.Flags().StringVar(&auditSource, "source", "", "only entries from cli, dashboard or mcp")
	auditCmd.Flags().StringVar(&auditAction, "action", "", "only entries with this action (e.g. evaluation_recorded)")
	auditCmd.Flags().DurationVar(&auditSince, "since", 0, "only entries newer than this duration (e.g. 24h)")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum number of entries")
	auditCmd.Flags().DurationVar(&auditPrune, "prune", 0, "delete entries older than this duration instead of listing")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "print entries as JSON")
	rootCmd.AddCommand(auditCmd)
}

package main

import (
	"strconv"
	"time"

	"github.com/bambi/overwatch/pkg/diag"
	"github.com/bambi/overwatch/pkg/diag/journal"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "List journaled hook diagnostics",
	Long: `diag lists the diagnostics recorded by earlier runs, newest first. Use
--prune to delete entries older than a duration.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		runID, _ := cmd.Flags().GetString("run")
		kind, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")
		prune, _ := cmd.Flags().GetDuration("prune")
		format, _ := cmd.Flags().GetString("output")

		path, err := journalPath()
		if err != nil {
			return err
		}
		store, err := journal.Open(ctx, path)
		if err != nil {
			return errors.Wrapf(err, "failed to open journal at %s", path)
		}
		defer store.Close()

		if prune > 0 {
			n, err := store.Prune(ctx, time.Now().Add(-prune))
			if err != nil {
				return err
			}
			out.Success(formatCount(n, "entry", "entries") + " pruned")
			return nil
		}

		records, err := store.List(ctx, journal.Query{RunID: runID, Kind: diag.EntryKind(kind), Limit: limit})
		if err != nil {
			return err
		}
		if format != "table" {
			return render(cmd.OutOrStdout(), format, records)
		}
		if len(records) == 0 {
			out.Info("no diagnostics recorded")
			return nil
		}

		rows := make([][]string, len(records))
		for i, r := range records {
			rows[i] = []string{
				r.Time.Local().Format(time.DateTime),
				short(r.RunID),
				string(r.Kind),
				r.Line(),
				r.Detail,
			}
		}
		out.Table([]string{"TIME", "RUN", "KIND", "MESSAGE", "DETAIL"}, rows)
		return nil
	},
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatCount(n int64, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.FormatInt(n, 10) + " " + many
}

func init() {
	diagCmd.Flags().String("run", "", "Only show entries of this run id")
	diagCmd.Flags().String("kind", "", "Only show one kind (hook_failure, unhook_failure, note)")
	diagCmd.Flags().Int("limit", 50, "Maximum entries to show (0 for all)")
	diagCmd.Flags().Duration("prune", 0, "Delete entries older than this instead of listing")
	diagCmd.Flags().StringP("output", "o", "table", "Output format (table, json, yaml)")
}

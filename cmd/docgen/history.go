// cmd/docgen/history.go
package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/julianshen/docgen/internal/config"
	"github.com/julianshen/docgen/internal/store"
)

func historyCmd() *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent documentation runs",
		Long:  "List recent documentation runs, or the documents of one run.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Path == "" {
				return fmt.Errorf("run history is disabled (store.path is empty)")
			}

			s, err := store.NewStore(config.ExpandHome(cfg.Store.Path))
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 1 {
				return printRun(cmd.Context(), s, args[0], cmd.OutOrStdout())
			}
			return printHistory(cmd.Context(), s, limitFlag, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "number of runs to show (0 = all)")
	return cmd
}

func printHistory(ctx context.Context, s *store.Store, limit int, out io.Writer) error {
	runs, err := s.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tPROJECT\tREPOSITORY\tSTATUS\tDOCS\tSTARTED\tDURATION")
	for _, r := range runs {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.Duration().Round(time.Second).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s@%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Project, r.Repository, r.Branch, r.Status, r.Documents,
			r.StartedAt.Local().Format("2006-01-02 15:04"), duration)
	}
	return w.Flush()
}

func printRun(ctx context.Context, s *store.Store, id string, out io.Writer) error {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %q not found", id)
	}
	docs, err := s.ListDocuments(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run %s: %s %s@%s (%s)\n", run.ID, run.Project, run.Repository, run.Branch, run.Status)
	fmt.Fprintf(out, "Output: %s\n", run.OutputDir)
	if run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", run.Error)
	}
	if len(docs) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tFILES\tBYTES\tSTATUS")
	for _, d := range docs {
		status := "ok"
		if d.Failed {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", d.Path, d.Files, d.Bytes, status)
	}
	return w.Flush()
}

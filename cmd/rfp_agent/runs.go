package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/rfp-agent/internal/db"
	"github.com/spf13/cobra"
)

func newRunsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage stored pipeline runs (requires a database)",
	}
	cmd.AddCommand(newRunsListCmd(g), newRunsStepsCmd(g), newRunsShowCmd(g), newRunsDeleteCmd(g))
	return cmd
}

// withDB runs fn against the configured database.
func withDB(cmd *cobra.Command, g *globalFlags, fn func(*db.DB) error) error {
	a, err := setup(cmd.Context(), g)
	if err != nil {
		return err
	}
	defer a.Close()
	conn, err := a.requireDB()
	if err != nil {
		return err
	}
	return fn(conn)
}

func parseRunID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid run id %q: %w", arg, err)
	}
	return id, nil
}

func newRunsListCmd(g *globalFlags) *cobra.Command {
	var filters db.RunFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, g, func(conn *db.DB) error {
				runs, err := conn.ListRuns(cmd.Context(), filters)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tCREATED")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Title, r.Status, r.CreatedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&filters.Status, "status", "", "Only runs with this status")
	cmd.Flags().StringVar(&filters.Title, "title", "", "Only runs whose title contains this text")
	cmd.Flags().IntVar(&filters.Limit, "limit", 50, "Maximum runs to list")
	return cmd
}

func newRunsStepsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "steps <run-id>",
		Short: "Show the stage timings of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return withDB(cmd, g, func(conn *db.DB) error {
				steps, err := conn.ListRunSteps(cmd.Context(), id)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "STEP\tCATEGORY\tSTATUS\tDURATION\tERROR")
				for _, s := range steps {
					duration, errMsg := "-", ""
					if s.DurationMs != nil {
						duration = fmt.Sprintf("%dms", *s.DurationMs)
					}
					if s.ErrorMessage != nil {
						errMsg = *s.ErrorMessage
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Step, s.Category, s.Status, duration, errMsg)
				}
				return tw.Flush()
			})
		},
	}
}

func newRunsShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the stored result of a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return withDB(cmd, g, func(conn *db.DB) error {
				res, err := conn.Runs().LoadRun(cmd.Context(), id.String())
				if err != nil {
					return err
				}
				if res == nil {
					return fmt.Errorf("run not found: %s", id)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			})
		},
	}
}

func newRunsDeleteCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run with its steps and artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return withDB(cmd, g, func(conn *db.DB) error {
				if err := conn.DeleteRun(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", id)
				return nil
			})
		},
	}
}

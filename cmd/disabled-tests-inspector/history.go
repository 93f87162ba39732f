package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/quarkus-qe/quarkus-utilities/internal/report"
	"github.com/quarkus-qe/quarkus-utilities/internal/storage"
)

var (
	historyLimit  int
	historyAll    bool
	historyBranch string
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored runs",
	Long: `Every analyze run is stored in .disabled-tests/history.db (see storage.path).

Examples:
  disabled-tests-inspector history list
  disabled-tests-inspector history show latest --branch main
  disabled-tests-inspector history show 3f1c... --format json
  disabled-tests-inspector history delete 3f1c...`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id|latest>",
	Short: "Show the records of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show (0 for all)")
	historyListCmd.Flags().BoolVar(&historyAll, "all", false, "Include runs of other repositories")
	historyShowCmd.Flags().StringVarP(&historyBranch, "branch", "b", "", "Only this branch")
	historyShowCmd.Flags().StringVarP(&historyFormat, "format", "f", "human", "Output format: human, json, yaml, toml")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func withHistory(fn func(e *env, store *storage.RunStore) error) error {
	e, err := loadEnv(nil)
	if err != nil {
		return err
	}
	defer e.Close()

	db, store, err := openHistory(e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(e, store)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	return withHistory(func(e *env, store *storage.RunStore) error {
		repository := e.cfg.Repository.Slug()
		if historyAll {
			repository = ""
		}
		runs, err := store.ListRuns(repository, historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			_, err := fmt.Fprintln(out, "No runs stored.")
			return err
		}
		_, err = fmt.Fprintln(out, renderRunList(runs))
		return err
	})
}

func renderRunList(runs []storage.RunSummary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Repository", "Started", "Duration", "Lite", "Branches", "Records"})
	for _, r := range runs {
		branches := make([]string, 0, len(r.Counts))
		for b, n := range r.Counts {
			branches = append(branches, fmt.Sprintf("%s=%d", b, n))
		}
		sort.Strings(branches)
		t.AppendRow(table.Row{
			r.ID,
			r.Repository,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
			r.Lite,
			strings.Join(branches, " "),
			r.Total(),
		})
	}
	return t.Render()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	return withHistory(func(e *env, store *storage.RunStore) error {
		var (
			run *storage.Run
			err error
		)
		if args[0] == "latest" {
			run, err = store.LatestRun(e.cfg.Repository.Slug())
		} else {
			run, err = store.GetRun(args[0])
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		human := report.NewHuman(out)
		for _, b := range run.Branches {
			if historyBranch != "" && b.Branch != historyBranch {
				continue
			}
			if historyFormat == "human" {
				if err := human.RenderRecords(out, b.Branch, b.Records); err != nil {
					return err
				}
				continue
			}
			data, err := report.Encode(historyFormat, report.NewBranchReport(b.Branch, b.Records, true))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprint(out, string(data)); err != nil {
				return err
			}
		}
		return nil
	})
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	return withHistory(func(e *env, store *storage.RunStore) error {
		if err := store.DeleteRun(args[0]); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
		return err
	})
}

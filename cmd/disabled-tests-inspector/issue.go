package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	inserrors "github.com/quarkus-qe/quarkus-utilities/internal/errors"
	"github.com/quarkus-qe/quarkus-utilities/internal/issues"
)

var (
	issueNoCheck bool
	issueJSON    bool
)

var issueCmd = &cobra.Command{
	Use:   "issue <text|url>",
	Short: "Resolve an issue link and show its state",
	Long: `Resolve the tracker link the inspector would record for a piece of text
(an issue URL, or a ticket ID such as QUARKUS-1234) and ask the tracker
whether it is open or closed.

Examples:
  disabled-tests-inspector issue https://github.com/quarkusio/quarkus/issues/38334
  disabled-tests-inspector issue "flaky, see QUARKUS-3719"
  disabled-tests-inspector issue QUARKUS-3719 --no-check`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIssue,
}

func init() {
	issueCmd.Flags().BoolVar(&issueNoCheck, "no-check", false, "Only resolve the link")
	issueCmd.Flags().BoolVar(&issueJSON, "json", false, "Print JSON")
	rootCmd.AddCommand(issueCmd)
}

type issueResult struct {
	Input string `json:"input"`
	Link  string `json:"link"`
	State string `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

func runIssue(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(nil)
	if err != nil {
		return err
	}
	defer e.Close()
	cfg, logger := e.cfg, e.logger

	text := strings.Join(args, " ")
	link := resolveLink(text, cfg.Tracker.TicketBase)
	if link == "" {
		return fmt.Errorf("no issue URL or ticket ID found in %q", text)
	}
	result := issueResult{Input: text, Link: link}

	if !issueNoCheck {
		tracker, err := newTracker(cfg, newGitHubClient(cfg, logger))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Tracker.Timeout())
		state, err := tracker.State(ctx, link)
		cancel()
		result.State = state.String()
		if err != nil {
			result.Error = err.Error()
			logger.Debug("Issue lookup failed", "link", link, "error", err)
		}
	}

	out := cmd.OutOrStdout()
	if issueJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	fmt.Fprintf(out, "Link:  %s\n", result.Link)
	if result.State != "" {
		fmt.Fprintf(out, "State: %s\n", result.State)
	}
	if result.Error != "" {
		return inserrors.New(inserrors.TrackerUnavailable, "cannot read the state of "+link, errors.New(result.Error), nil)
	}
	return nil
}

// resolveLink applies the extractor's link rules to free text: a tracker
// URL wins, then a ticket ID under base.
func resolveLink(text, base string) string {
	if link := issues.ExtractIssueLink(text); link != "" {
		return link
	}
	return issues.BuildIssueLink(base, text)
}

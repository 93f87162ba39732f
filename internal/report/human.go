package report

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"github.com/quarkus-qe/quarkus-utilities/internal/annotations"
	"github.com/quarkus-qe/quarkus-utilities/internal/modules"
)

// maxReasonWidth bounds the reason column in terminal tables.
const maxReasonWidth = 60

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	openStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	closedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Human renders results as terminal tables. Colour is used only when
// Color is set.
type Human struct {
	Color bool
}

// NewHuman creates a renderer that colours output when w is a terminal.
func NewHuman(w io.Writer) *Human {
	return &Human{Color: IsTTY(w)}
}

func (h *Human) style(s lipgloss.Style, v string) string {
	if !h.Color {
		return v
	}
	return s.Render(v)
}

// RenderRecords writes one table of records for a branch.
func (h *Human) RenderRecords(w io.Writer, branch string, records []annotations.Record) error {
	if _, err := fmt.Fprintln(w, h.style(titleStyle, fmt.Sprintf("Branch %s: %d disabled", branch, len(records)))); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"Class", "Test", "Annotation", "Reason", "Issue", "State"})
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.ClassName,
			rec.TestName,
			rec.AnnotationType,
			orDash(rec.Reason),
			orDash(rec.IssueLink),
			h.issueState(rec),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: maxReasonWidth},
	})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// RenderStats writes the per-module annotation counts. Columns are the
// annotation types seen in the table.
func (h *Human) RenderStats(w io.Writer, tbl *modules.Table) error {
	snapshot := tbl.Snapshot()
	names := tbl.Modules()
	if len(names) == 0 {
		return nil
	}

	typeSet := make(map[string]bool)
	for _, stats := range snapshot {
		for k := range stats {
			if k != modules.TotalTestsKey {
				typeSet[k] = true
			}
		}
	}
	types := make([]string, 0, len(typeSet))
	for k := range typeSet {
		types = append(types, k)
	}
	slices.Sort(types)

	t := newTable()
	header := table.Row{"Module"}
	for _, typ := range types {
		header = append(header, typ)
	}
	header = append(header, "Total", "Tests")
	t.AppendHeader(header)

	configs := []table.ColumnConfig{}
	for i := 2; i <= len(header); i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)

	grand := 0
	for _, name := range names {
		stats := snapshot[name]
		row := table.Row{name}
		for _, typ := range types {
			row = append(row, stats[typ])
		}
		total := tbl.Stats(name).Total()
		grand += total
		tests := "-"
		if n := tbl.TotalTests(name); n > 0 {
			tests = strconv.Itoa(n)
		}
		row = append(row, total, tests)
		t.AppendRow(row)
	}
	footer := table.Row{"Total"}
	for range types {
		footer = append(footer, "")
	}
	footer = append(footer, grand, "")
	t.AppendFooter(footer)

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// newTable keeps header case: annotation types are case-sensitive names.
func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func (h *Human) issueState(rec annotations.Record) string {
	switch {
	case !rec.HasIssue():
		return h.style(dimStyle, "-")
	case rec.IssueClosed:
		return h.style(closedStyle, "closed")
	default:
		return h.style(openStyle, "open")
	}
}

func orDash(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	return s
}

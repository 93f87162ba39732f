package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quarkus-qe/quarkus-utilities/internal/annotations"
	"github.com/quarkus-qe/quarkus-utilities/internal/modules"
)

// Options configures a Writer.
type Options struct {
	// BaseFileName is the name the per-branch files derive from,
	// e.g. disabled-tests.json.
	BaseFileName string
	Formats      []string
	Gzip         bool
	// Extended adds file_path and line to every record.
	Extended bool
	Logger   *slog.Logger
}

// Writer encodes branch results and hands the files to its sinks.
type Writer struct {
	opts   Options
	sinks  []Sink
	logger *slog.Logger
}

// NewWriter creates a writer. At least one sink is required.
func NewWriter(opts Options, sinks ...Sink) (*Writer, error) {
	if len(sinks) == 0 {
		return nil, fmt.Errorf("report writer needs at least one sink")
	}
	if opts.BaseFileName == "" {
		opts.BaseFileName = "disabled-tests.json"
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{FormatJSON}
	}
	for _, f := range opts.Formats {
		if _, err := Encode(f, struct{}{}); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{opts: opts, sinks: sinks, logger: logger}, nil
}

// WriteBranch writes the records file and the stats file of a branch in
// every configured format. It returns the file names written.
func (w *Writer) WriteBranch(ctx context.Context, branch string, records []annotations.Record, table *modules.Table) ([]string, error) {
	branchReport := NewBranchReport(branch, records, w.opts.Extended)
	var stats StatsReport
	if table != nil {
		stats = NewStatsReport(table)
	} else {
		stats = StatsReport{}
	}

	var written []string
	for _, format := range w.opts.Formats {
		for _, item := range []struct {
			stats bool
			value any
		}{
			{false, branchReport},
			{true, stats},
		} {
			name := FileName(w.opts.BaseFileName, branch, format, item.stats)
			if err := w.put(ctx, name, format, item.value); err != nil {
				return written, err
			}
			if w.opts.Gzip {
				name += ".gz"
			}
			written = append(written, name)
		}
	}

	w.logger.Info("Reports written",
		"branch", branch,
		"records", len(records),
		"files", len(written),
	)
	return written, nil
}

func (w *Writer) put(ctx context.Context, name, format string, v any) error {
	data, err := Encode(format, v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	contentType := ContentType(format)
	if w.opts.Gzip {
		if data, err = Gzip(data); err != nil {
			return fmt.Errorf("compress %s: %w", name, err)
		}
		name += ".gz"
	}
	for _, sink := range w.sinks {
		if err := sink.Put(ctx, name, data, contentType); err != nil {
			return fmt.Errorf("write %s to %s: %w", name, sink.Describe(), err)
		}
		w.logger.Debug("Report stored", "file", name, "sink", sink.Describe(), "bytes", len(data))
	}
	return nil
}

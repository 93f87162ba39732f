package annotations

import (
	"context"
	"log/slog"
	"strings"

	"github.com/quarkus-qe/quarkus-utilities/internal/issues"
)

// Options configures an Extractor.
type Options struct {
	// Lite drops annotations according to Policy.
	Lite   bool
	Policy *Policy
	// Checker stamps IssueClosed on records; nil leaves it false.
	Checker IssueChecker
	// TrackerBase is prepended to bare ticket IDs (issues.DefaultTrackerBase when empty).
	TrackerBase string
	Logger      *slog.Logger
}

// Extractor turns source files into disabled-test records. It holds no
// per-file state and is safe for concurrent use.
type Extractor struct {
	lite        bool
	policy      Policy
	checker     IssueChecker
	trackerBase string
	logger      *slog.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(opts Options) *Extractor {
	policy := DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	trackerBase := opts.TrackerBase
	if trackerBase == "" {
		trackerBase = issues.DefaultTrackerBase
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{
		lite:        opts.Lite,
		policy:      policy,
		checker:     opts.Checker,
		trackerBase: trackerBase,
		logger:      logger,
	}
}

// Lite reports whether the extractor applies the lite policy.
func (e *Extractor) Lite() bool {
	return e.lite
}

// classScope is a class whose body we are in (or about to enter).
type classScope struct {
	name   string
	depth  int
	opened bool
}

// scanState is everything the extractor remembers while walking one file.
type scanState struct {
	file        SourceFile
	classes     []classScope
	depth       int
	pending     []pending
	lastComment string
	inBlock     bool
	records     []Record
}

func (s *scanState) currentClass() string {
	if len(s.classes) == 0 {
		return UnknownClass
	}
	return s.classes[len(s.classes)-1].name
}

// trackBraces updates brace depth and pops class scopes whose body closed.
func (s *scanState) trackBraces(code string) {
	for _, ch := range StripLiterals(code) {
		switch ch {
		case '{':
			s.depth++
			if n := len(s.classes); n > 0 && !s.classes[n-1].opened && s.depth > s.classes[n-1].depth {
				s.classes[n-1].opened = true
			}
		case '}':
			if s.depth > 0 {
				s.depth--
			}
			for n := len(s.classes); n > 0 && s.classes[n-1].opened && s.depth <= s.classes[n-1].depth; n = len(s.classes) {
				s.classes = s.classes[:n-1]
			}
		}
	}
}

// Extract scans one file and returns its records in source order.
// Annotations still pending at end of file have no declaration and are dropped.
func (e *Extractor) Extract(ctx context.Context, file SourceFile) []Record {
	lines := strings.Split(file.Content, "\n")
	st := &scanState{file: file}

	for i := 0; i < len(lines); i++ {
		wasInBlock := st.inBlock
		line, inBlock := Classify(lines[i], st.inBlock)
		st.inBlock = inBlock

		if line.Code == "" {
			switch {
			case wasInBlock || inBlock:
				// A multi-line block comment (Javadoc) replaces the last comment.
				st.lastComment = line.Comment
			case line.Comment != "":
				st.lastComment = line.Comment
			}
			continue
		}

		e.handleCode(ctx, st, line, lines, i)
		st.lastComment = ""
		st.trackBraces(line.Code)
	}

	if len(st.pending) > 0 {
		e.logger.Debug("Dropping annotations without a declaration",
			"file", file.Path,
			"count", len(st.pending),
		)
	}
	return st.records
}

// handleCode processes one line that carries code. Annotations written in
// front of a declaration on the same line belong to that declaration. An
// annotation whose arguments stay open borrows the code of the next line;
// that line is still processed on its own afterwards.
func (e *Extractor) handleCode(ctx context.Context, st *scanState, line Line, lines []string, i int) {
	prefix, decl := SplitLeadingAnnotations(line.Code)

	if name, ok := MatchClass(decl); ok {
		e.collect(st, prefix, line, lines, i)
		st.classes = append(st.classes, classScope{name: name, depth: st.depth})
		e.flush(ctx, st, name, AllTestsInClass)
		return
	}

	if name, ok := MatchMethod(decl); ok {
		e.collect(st, prefix, line, lines, i)
		if name != st.currentClass() {
			e.flush(ctx, st, st.currentClass(), name)
		}
		return
	}

	e.collect(st, line.Code, line, lines, i)
}

// collect appends the annotations found in code to the pending list.
func (e *Extractor) collect(st *scanState, code string, line Line, lines []string, i int) {
	anns := MatchAnnotations(code)
	for idx, ann := range anns {
		args := ann.Args
		if ann.Open && idx == len(anns)-1 && i+1 < len(lines) {
			next, _ := Classify(lines[i+1], st.inBlock)
			args = ContinueArgs(args, next.Code)
		}
		st.pending = append(st.pending, e.resolve(ann.Type, args, line.Comment, st.lastComment, i+1))
	}
}

// resolve picks the reason and issue link for one annotation.
func (e *Extractor) resolve(annotationType, args, inline, previous string, lineNo int) pending {
	reason := ReasonFromArgs(args)
	if reason == "" {
		reason = inline
	}
	if reason == "" {
		reason = previous
	}

	link := firstNonEmpty(
		issues.ExtractIssueLink(reason),
		issues.ExtractIssueLink(args),
		issues.ExtractIssueLink(inline),
		issues.ExtractIssueLink(previous),
	)
	if link == "" {
		link = firstNonEmpty(
			issues.BuildIssueLink(e.trackerBase, reason),
			issues.BuildIssueLink(e.trackerBase, inline),
			issues.BuildIssueLink(e.trackerBase, previous),
		)
	}

	return pending{
		annotationType: annotationType,
		reason:         reason,
		issueLink:      link,
		line:           lineNo,
	}
}

// flush turns every pending annotation into a record for the given scope.
func (e *Extractor) flush(ctx context.Context, st *scanState, className, testName string) {
	if len(st.pending) == 0 {
		return
	}
	for _, p := range st.pending {
		if e.lite && e.policy.Skip(p.annotationType, p.issueLink) {
			continue
		}
		closed := false
		if p.issueLink != "" && e.checker != nil {
			closed = e.checker.IsClosed(ctx, p.issueLink)
		}
		st.records = append(st.records, Record{
			TestName:       testName,
			ClassName:      className,
			AnnotationType: p.annotationType,
			Reason:         p.reason,
			IssueLink:      p.issueLink,
			FileURL:        st.file.URL,
			IssueClosed:    closed,
			FilePath:       st.file.Path,
			Line:           p.line,
		})
	}
	st.pending = nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package render writes one repository file as numbered document lines.
//
// A file takes exactly one of three shapes: a symbolic link (one line
// naming the target), a binary file (size and digest), or text. Text is
// decoded with the encoding chosen by the charset package; bytes the
// decoder cannot map become U+FFFD and are counted against a per-file
// budget.
package render

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/transform"

	"github.com/georgy7/code2fodt/internal/charset"
	"github.com/georgy7/code2fodt/internal/linefmt"
)

const (
	// DefaultErrorLimit is the number of undecodable characters one file
	// may contain before the overload policy applies.
	DefaultErrorLimit = 5

	// binaryLines is the number of lines a binary file always takes.
	binaryLines = 3

	maxLineSize = 64 * 1024 * 1024

	replacementChar = "\uFFFD"

	skippedNotice = "Rendering stopped: too many undecodable characters."
)

// ErrDecodeBudgetExceeded means a file had more undecodable characters
// than allowed, which usually points at a wrong encoding choice.
var ErrDecodeBudgetExceeded = errors.New("replacements per file limit exceeded")

// Sink receives finished paragraph texts.
type Sink interface {
	CodeLine(text string) error
	EmptyLine() error
}

// EncodingResolver picks the encoding for a file.
type EncodingResolver interface {
	Resolve(ctx context.Context, path string) (charset.Decision, error)
}

// OverloadPolicy says what happens when a file exceeds the error budget.
type OverloadPolicy int

const (
	// AbortRun fails the render with ErrDecodeBudgetExceeded.
	AbortRun OverloadPolicy = iota
	// SkipRest stops the file with a notice line and carries on.
	SkipRest
)

// ParseOverloadPolicy accepts "abort" and "skip".
func ParseOverloadPolicy(s string) (OverloadPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return AbortRun, nil
	case "skip":
		return SkipRest, nil
	}
	return AbortRun, fmt.Errorf("invalid decode overload policy %q (expected abort or skip)", s)
}

func (p OverloadPolicy) String() string {
	if p == SkipRest {
		return "skip"
	}
	return "abort"
}

// Options configure a Renderer.
type Options struct {
	TabSize    int
	Hash       HashAlgorithm
	ErrorLimit int
	Overload   OverloadPolicy
}

// Renderer renders files one at a time. It keeps no state between files.
type Renderer struct {
	resolver EncodingResolver
	opts     Options
	logger   *slog.Logger
}

// New returns a Renderer. Zero options fall back to MD5 and
// DefaultErrorLimit.
func New(resolver EncodingResolver, opts Options, logger *slog.Logger) *Renderer {
	if opts.Hash == nil {
		opts.Hash = MD5{}
	}
	if opts.ErrorLimit <= 0 {
		opts.ErrorLimit = DefaultErrorLimit
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Renderer{resolver: resolver, opts: opts, logger: logger}
}

// Render writes the file at path to sink and returns how many lines it
// accounts for: meta lines plus the final line counter.
func (r *Renderer) Render(ctx context.Context, path string, sink Sink) (int, error) {
	entry, err := Stat(path)
	if err != nil {
		return 0, err
	}

	if entry.IsSymlink() {
		target, err := entry.LinkTarget()
		if err != nil {
			return 0, err
		}
		if err := sink.CodeLine("Link to " + linefmt.Escape(target)); err != nil {
			return 0, err
		}
		return 1, nil
	}

	decision, err := r.resolver.Resolve(ctx, path)
	if err != nil {
		return 0, err
	}
	if decision.IsBinary() {
		return r.renderBinary(entry, sink)
	}
	return r.renderText(ctx, path, decision, sink)
}

func (r *Renderer) renderBinary(entry *FileEntry, sink Sink) (int, error) {
	sum, err := entry.Hash(r.opts.Hash)
	if err != nil {
		return 0, err
	}
	lines := []string{
		"Binary file.",
		fmt.Sprintf("Size: %d bytes.", entry.Size()),
		fmt.Sprintf("%s:%s%s.", strings.ToUpper(r.opts.Hash.Name()), linefmt.Spaces(2), sum),
	}
	for _, line := range lines {
		if err := sink.CodeLine(line); err != nil {
			return 0, err
		}
	}
	return binaryLines, nil
}

func (r *Renderer) renderText(ctx context.Context, path string, d charset.Decision, sink Sink) (int, error) {
	enc, err := charset.Lookup(d.Interpreted)
	if err != nil {
		return 0, err
	}

	header := fmt.Sprintf("Encoding: %s.", linefmt.Escape(d.Detected))
	if d.Reinterpreted() {
		header = fmt.Sprintf("Encoding detected: %s. Interpreted as: %s.",
			linefmt.Escape(d.Detected), linefmt.Escape(d.Interpreted))
	}
	if err := sink.CodeLine(header); err != nil {
		return 0, err
	}
	if err := sink.EmptyLine(); err != nil {
		return 0, err
	}
	meta := 2

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(transform.NewReader(f, enc.NewDecoder()))
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	scanner.Split(scanUniversalLines)

	lineNumber := 1
	replacements := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		for _, piece := range strings.Split(scanner.Text(), "\f") {
			raw := strings.TrimRightFunc(piece, unicode.IsSpace)

			if n := strings.Count(raw, replacementChar); n > 0 {
				r.logger.Warn(fmt.Sprintf("Could not read %d character(s): %s:%d.", n, path, lineNumber))
				replacements += n
			}
			if replacements > r.opts.ErrorLimit {
				r.logger.Error("Replacements per file limit exceeded.", "file", path, "line", lineNumber)
				if r.opts.Overload == AbortRun {
					return 0, fmt.Errorf("%s: %w", path, ErrDecodeBudgetExceeded)
				}
				if err := sink.CodeLine(skippedNotice); err != nil {
					return 0, err
				}
				r.logger.Warn("Skipping the rest of the file", "file", path)
				return meta + 1 + lineNumber, nil
			}

			if err := sink.CodeLine(linefmt.Transform(raw, lineNumber, r.opts.TabSize)); err != nil {
				return 0, err
			}
			lineNumber++
		}
	}
	if err := scanner.Err(); err != nil {
		r.logger.Error("Unexpected error while reading", "file", path, "line", lineNumber, "error", err)
		return 0, fmt.Errorf("failed to read %s at line %d: %w", path, lineNumber, err)
	}
	return meta + lineNumber, nil
}

// scanUniversalLines splits on "\n", "\r\n" and a lone "\r".
func scanUniversalLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		switch {
		case i+1 < len(data) && data[i+1] == '\n':
			return i + 2, data[:i], nil
		case i+1 < len(data) || atEOF:
			return i + 1, data[:i], nil
		}
		// A trailing '\r' may be the first half of "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/georgy7/code2fodt/internal/document"
	"github.com/georgy7/code2fodt/internal/git"
	"github.com/georgy7/code2fodt/internal/output"
	"github.com/georgy7/code2fodt/internal/render"
	"github.com/georgy7/code2fodt/internal/volume"
)

// publisher writes volumes as .fodt files next to out.
type publisher struct {
	out      string
	template document.Template
	title    string
	subtitle string
	head     git.Head
	renderer *render.Renderer
	printer  *output.Printer
	logger   *slog.Logger
	tokens   *tokenCounter

	written []writtenVolume
}

type writtenVolume struct {
	path string
	size int64
}

func (p *publisher) Open(number int) (volume.Writer, error) {
	p.printer.Volume(number)

	path := document.VolumePath(p.out, number)
	f, err := os.Create(path)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to create "+path, err)
	}

	w := &volumeWriter{p: p, number: number, path: path, file: f, doc: document.NewWriter(f)}
	if err := w.writeStart(); err != nil {
		_ = f.Close()
		return nil, output.NewSystemErrorWithCause("failed to write "+path, err)
	}
	return w, nil
}

type volumeWriter struct {
	p      *publisher
	number int
	path   string
	file   *os.File
	doc    *document.Writer
}

func (w *volumeWriter) writeStart() error {
	p := w.p
	start := p.template.Start(p.title, p.head.Hash, document.VolumeLabel(w.number))
	if err := w.doc.Raw(start); err != nil {
		return err
	}
	if w.number != 1 {
		return nil
	}

	if err := w.doc.Title(p.title); err != nil {
		return err
	}
	if p.subtitle != "" {
		if err := w.doc.Subtitle(p.subtitle); err != nil {
			return err
		}
	}
	for _, line := range document.HeadLines(p.head.Hash, p.head.AuthorName, p.head.AuthorEmail, p.head.Date) {
		if err := w.doc.CodeLine(line); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile renders one file under its heading.
func (w *volumeWriter) WriteFile(ctx context.Context, path string) (int, error) {
	if err := w.doc.Heading(path); err != nil {
		return 0, output.NewSystemErrorWithCause("failed to write "+w.path, err)
	}

	var sink render.Sink = w.doc
	var counted *tokenSink
	if w.p.tokens != nil {
		counted = &tokenSink{Sink: w.doc, count: w.p.tokens.countLine}
		sink = counted
	}

	n, err := w.p.renderer.Render(ctx, path, sink)
	if err != nil {
		if errors.Is(err, render.ErrDecodeBudgetExceeded) {
			return n, output.NewDecodeOverloadError(err)
		}
		var exitErr *output.ExitError
		if errors.As(err, &exitErr) {
			return n, err
		}
		return n, output.NewSystemErrorWithCause(err.Error(), err)
	}
	w.p.logger.Debug("Rendered file.", "path", path, "lines", n, "volume", w.number)

	if counted != nil {
		w.p.tokens.add(w.number, path, counted.tokens)
	}
	return n, nil
}

// Close writes the template end and closes the file. It also runs after a
// failed WriteFile so that partial volumes stay well formed.
func (w *volumeWriter) Close() error {
	err := w.doc.Raw(w.p.template.End())
	if err == nil {
		err = w.doc.Flush()
	}
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return output.NewSystemErrorWithCause("failed to write "+w.path, err)
	}

	var size int64
	if info, statErr := os.Stat(w.path); statErr == nil {
		size = info.Size()
	}
	w.p.written = append(w.p.written, writtenVolume{path: w.path, size: size})
	w.p.printer.Info("Wrote %s (%s).", w.path, humanize.Bytes(uint64(size)))
	return nil
}

// tokenSink passes lines through and sums their token counts, one line at
// a time.
type tokenSink struct {
	render.Sink
	count  func(line string) int
	tokens int
}

func (s *tokenSink) CodeLine(text string) error {
	s.tokens += s.count(text)
	return s.Sink.CodeLine(text)
}

func (s *tokenSink) EmptyLine() error {
	s.tokens += s.count("")
	return s.Sink.EmptyLine()
}

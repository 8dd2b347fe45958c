package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Printer writes progress and summaries for humans, normally to stderr.
// Colours are only used when the writer is a terminal.
type Printer struct {
	w      io.Writer
	title  lipgloss.Style
	dim    lipgloss.Style
	errSty lipgloss.Style
}

// NewPrinter creates a Printer. isTTY enables colours.
func NewPrinter(w io.Writer, isTTY bool) *Printer {
	p := &Printer{
		w:      w,
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		errSty: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
	if !isTTY {
		p.title = lipgloss.NewStyle()
		p.dim = lipgloss.NewStyle()
		p.errSty = lipgloss.NewStyle()
	}
	return p
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Volume announces that volume number has started.
func (p *Printer) Volume(number int) {
	fmt.Fprintln(p.w, p.title.Render(fmt.Sprintf("Volume %d.", number)))
}

// Info prints a secondary line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.w, p.dim.Render(fmt.Sprintf(format, args...)))
}

// Println prints a line as is.
func (p *Printer) Println(s string) {
	fmt.Fprintln(p.w, s)
}

// Error prints err prefixed with "ERROR:".
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.w, p.errSty.Render("ERROR: "+err.Error()))
}

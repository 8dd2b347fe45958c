package document

import (
	"bufio"
	"io"

	"github.com/georgy7/code2fodt/internal/linefmt"
)

// Paragraph markup. Lines end with a newline except the title, which the
// templates expect to be followed directly by the subtitle or first line.
const (
	codeLineOpen = `<text:p text:style-name="Standard">`
	emptyLine    = `<text:p text:style-name="Standard"/>` + "\n"
	headingOpen  = `<text:h text:style-name="Heading_20_1" text:outline-level="1">`
	titleOpen    = `<text:p text:style-name="Title"><text:title>`
	titleClose   = `</text:title></text:p>`
	subtitleOpen = `<text:p text:style-name="Subtitle">`
	paraClose    = "</text:p>\n"
	headingClose = "</text:h>\n"
)

// Writer emits paragraphs into a document body. Write errors are sticky;
// the first one is reported by every later call and by Flush.
type Writer struct {
	w *bufio.Writer
}

// NewWriter buffers output to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 64*1024)}
}

// Raw writes s unchanged.
func (w *Writer) Raw(s string) error {
	_, err := w.w.WriteString(s)
	return err
}

// CodeLine writes a Standard paragraph holding already formatted markup.
func (w *Writer) CodeLine(text string) error {
	return w.Raw(codeLineOpen + text + paraClose)
}

// EmptyLine writes an empty Standard paragraph.
func (w *Writer) EmptyLine() error {
	return w.Raw(emptyLine)
}

// Heading writes a level 1 heading for a file path.
func (w *Writer) Heading(path string) error {
	return w.Raw(headingOpen + linefmt.Escape(path) + headingClose)
}

// Title writes the document title paragraph.
func (w *Writer) Title(title string) error {
	return w.Raw(titleOpen + linefmt.Escape(title) + titleClose)
}

// Subtitle writes the short description paragraph.
func (w *Writer) Subtitle(text string) error {
	return w.Raw(subtitleOpen + linefmt.Escape(text) + paraClose)
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

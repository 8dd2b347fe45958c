// Package linefmt turns one decoded source line into an OpenDocument
// paragraph body: numbered, tab-expanded, escaped, with space runs encoded
// as <text:s/> elements so that word processors keep the indentation.
package linefmt

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	numberWidth   = 4
	numberSpacing = "   "

	// maxSpaceRun is the longest run a single <text:s/> element encodes.
	maxSpaceRun = 64
)

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Spaces returns the OpenDocument element for n consecutive spaces.
func Spaces(n int) string {
	return `<text:s text:c="` + strconv.Itoa(n) + `"/>`
}

// Escape replaces the characters that are reserved in XML element content.
func Escape(s string) string {
	return escaper.Replace(s)
}

// FormatLineNumber returns a fixed-width line number field followed by
// three spaces. Numbers wider than the field keep their last three digits
// behind a '#' marker.
func FormatLineNumber(n int) string {
	s := strconv.Itoa(n)
	if len(s) > numberWidth {
		s = "#" + s[len(s)-(numberWidth-1):]
	}
	if pad := numberWidth - len(s); pad > 0 {
		s = strings.Repeat(" ", pad) + s
	}
	return s + numberSpacing
}

// ExpandTabs advances every tab to the next multiple of tabSize, counting
// columns in runes. A tabSize of zero drops tabs entirely.
func ExpandTabs(s string, tabSize int) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + tabSize*4)
	col := 0
	for _, r := range s {
		if r != '\t' {
			b.WriteRune(r)
			col++
			continue
		}
		if tabSize == 0 {
			continue
		}
		n := tabSize - col%tabSize
		b.WriteString(strings.Repeat(" ", n))
		col += n
	}
	return b.String()
}

// StripNonPrintable removes control, format and other non-printable runes.
// The ASCII space is kept.
func StripNonPrintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
}

// CompactSpaces encodes every run of two or more spaces as <text:s/>
// elements of at most 64 spaces each. A leftover single space after a full
// element stays literal. A single leading space is encoded too, since
// leading whitespace is not preserved by the document format.
func CompactSpaces(s string) string {
	if !strings.Contains(s, " ") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		if s[i] != ' ' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == ' ' {
			j++
		}
		run := j - i
		if run == 1 {
			if i == 0 {
				b.WriteString(Spaces(1))
			} else {
				b.WriteByte(' ')
			}
			i = j
			continue
		}
		for ; run >= maxSpaceRun; run -= maxSpaceRun {
			b.WriteString(Spaces(maxSpaceRun))
		}
		switch {
		case run >= 2:
			b.WriteString(Spaces(run))
		case run == 1:
			b.WriteByte(' ')
		}
		i = j
	}
	return b.String()
}

// Transform renders a raw, right-trimmed source line into paragraph text.
func Transform(raw string, lineNumber, tabSize int) string {
	text := StripNonPrintable(ExpandTabs(raw, tabSize))
	return CompactSpaces(FormatLineNumber(lineNumber) + Escape(text))
}

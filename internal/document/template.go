// Package document produces the OpenDocument flat XML around rendered
// files: the template halves, the title block and paragraph markup.
package document

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/georgy7/code2fodt/internal/linefmt"
)

// Extension is the only output file extension accepted.
const Extension = ".fodt"

const (
	bodyEnd = "</office:text>"

	titlePlaceholder  = "Project header"
	commitPlaceholder = "CommitHashCode"
	volumePlaceholder = "PartX"
)

// ErrMalformedTemplate is returned for templates without exactly one
// closing office:text tag.
var ErrMalformedTemplate = errors.New("template must contain exactly one " + bodyEnd)

//go:embed template_default.fodt
var defaultTemplate string

// Template is a document split where the generated body goes.
type Template struct {
	start string
	end   string
}

// Parse splits a template around its closing office:text tag.
func Parse(s string) (Template, error) {
	parts := strings.Split(s, bodyEnd)
	if len(parts) != 2 {
		return Template{}, fmt.Errorf("%w (found %d)", ErrMalformedTemplate, len(parts)-1)
	}
	return Template{
		start: strings.TrimRightFunc(parts[0], unicode.IsSpace) + "\n\n",
		end:   "\n  " + bodyEnd + parts[1],
	}, nil
}

// Default returns the built-in three-column A4 template.
func Default() Template {
	t, err := Parse(defaultTemplate)
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads the template at path, or returns Default when path is empty.
func Load(path string) (Template, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("failed to read template: %w", err)
	}
	t, err := Parse(string(data))
	if err != nil {
		return Template{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Start returns the opening half with its placeholders filled. title is
// escaped here; commit and label are inserted as given.
func (t Template) Start(title, commit, label string) string {
	s := strings.ReplaceAll(t.start, titlePlaceholder, linefmt.Escape(title))
	s = strings.ReplaceAll(s, commitPlaceholder, commit)
	return strings.ReplaceAll(s, volumePlaceholder, label)
}

// End returns the closing half.
func (t Template) End() string {
	return t.end
}

// VolumeLabel is the text shown in the page header of volume number.
// The first volume has none.
func VolumeLabel(number int) string {
	if number == 1 {
		return ""
	}
	return "Volume " + strconv.Itoa(number)
}

// VolumePath names the file of volume number. The first volume is written
// to out itself; later ones replace the extension with ".volumeN.fodt".
func VolumePath(out string, number int) string {
	if number == 1 {
		return out
	}
	return strings.TrimSuffix(out, Extension) + ".volume" + strconv.Itoa(number) + Extension
}

// HeadLines formats the commit summary printed under the title.
func HeadLines(hash, authorName, authorEmail, date string) []string {
	return []string{
		"commit " + hash,
		"Author: " + linefmt.Escape(authorName+" <"+authorEmail+">"),
		"Date:" + linefmt.Spaces(3) + linefmt.Escape(date),
	}
}

// Package charset decides which byte encoding a source file is written in.
//
// Filename hints come first: some trees name the encoding in the file name
// ("messages.KOI8-R.po"). Otherwise a ContentEncodingProbe sniffs the bytes
// and the answer is reinterpreted when it belongs to the set of detections
// that are known to be unreliable (plain ASCII, Latin-1, unknown 8-bit).
package charset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// Decision is the outcome of resolving one file.
type Decision struct {
	// Detected is what the filename hint or the probe reported.
	Detected string
	// Interpreted is the encoding the file is decoded with. Lookup always
	// accepts it.
	Interpreted string
}

// IsBinary reports whether the probe considered the content binary.
func (d Decision) IsBinary() bool {
	return strings.Contains(d.Detected, "binary")
}

// Reinterpreted reports whether the file is decoded with something other
// than what was detected.
func (d Decision) Reinterpreted() bool {
	return d.Detected != d.Interpreted
}

// Resolver resolves encodings using a shared alias table and a probe.
type Resolver struct {
	aliases *AliasTable
	probe   ContentEncodingProbe
	logger  *slog.Logger
}

// NewResolver returns a Resolver. A nil logger discards diagnostics.
func NewResolver(aliases *AliasTable, probe ContentEncodingProbe, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{aliases: aliases, probe: probe, logger: logger}
}

// Resolve returns the encoding decision for the file at path. It only
// fails when the probe itself fails.
func (r *Resolver) Resolve(ctx context.Context, path string) (Decision, error) {
	parts := nameParts(path)

	detected, ok := r.hint(parts, r.aliases.IsUnambiguous)
	if !ok {
		probed, err := r.probe.Probe(ctx, path)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to probe encoding of %s: %w", path, err)
		}
		detected = strings.ToLower(strings.TrimSpace(probed))
	}

	d := Decision{Detected: detected, Interpreted: detected}
	if d.IsBinary() {
		return d, nil
	}

	d.Interpreted = r.reinterpret(detected, parts)
	if _, err := Lookup(d.Interpreted); err != nil {
		r.logger.Warn("Unsupported encoding, falling back",
			"encoding", d.Interpreted, "fallback", Fallback, "file", path)
		d.Interpreted = Fallback
	}

	if d.Reinterpreted() && !isQuietDefault(d) {
		r.logger.Warn(fmt.Sprintf("Interpreting %s as %s. File: %s", d.Detected, d.Interpreted, path))
	}
	return d, nil
}

func (r *Resolver) reinterpret(detected string, parts []string) string {
	switch detected {
	case "unknown-8bit", "us-ascii", "iso-8859-1":
		if hint, ok := r.hint(parts, r.aliases.IsLoose); ok {
			return hint
		}
		return Fallback
	case "ebcdic":
		return "ibm037"
	}
	return detected
}

func (r *Resolver) hint(parts []string, accept func(string) bool) (string, bool) {
	for _, part := range parts[1:] {
		if accept(part) {
			return part, true
		}
	}
	return "", false
}

func isQuietDefault(d Decision) bool {
	return (d.Detected == "us-ascii" || d.Detected == "iso-8859-1") && d.Interpreted == Fallback
}

// nameParts lower-cases the dot-separated parts of the base name with its
// final extension removed. Leading dots do not start an extension.
func nameParts(path string) []string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(strings.TrimLeft(base, ".")))
	parts := strings.Split(base, ".")
	for i := range parts {
		parts[i] = strings.ToLower(parts[i])
	}
	return parts
}

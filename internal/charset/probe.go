package charset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
)

// ContentEncodingProbe sniffs the byte encoding of a file's content. Names
// follow `file --mime-encoding`: "us-ascii", "utf-8", "iso-8859-1",
// "unknown-8bit", "binary" and so on.
type ContentEncodingProbe interface {
	Probe(ctx context.Context, path string) (string, error)
}

// ProbeFunc adapts a function to ContentEncodingProbe.
type ProbeFunc func(ctx context.Context, path string) (string, error)

// Probe calls f.
func (f ProbeFunc) Probe(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// FileCommandProbe asks file(1) for the mime encoding.
type FileCommandProbe struct {
	// Command defaults to "file".
	Command string
}

// Probe runs `file --brief --mime-encoding` on path.
func (p FileCommandProbe) Probe(ctx context.Context, path string) (string, error) {
	name := p.Command
	if name == "" {
		name = "file"
	}
	cmd := exec.CommandContext(ctx, name, "--brief", "--mime-encoding", "--", path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("%s not found: install it or use the chardet probe: %w", name, err)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s --mime-encoding %s failed: %s: %w", name, path, msg, err)
	}

	// Without --brief older versions print "path: encoding".
	out := stdout.String()
	if i := strings.LastIndex(out, ":"); i >= 0 {
		out = out[i+1:]
	}
	return strings.ToLower(strings.TrimSpace(out)), nil
}

const chardetSampleSize = 64 * 1024

// ChardetProbe sniffs in-process with a statistical detector. It reads at
// most the first 64 KiB of the file.
type ChardetProbe struct{}

// Probe inspects a sample of the file at path.
func (ChardetProbe) Probe(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sample := make([]byte, chardetSampleSize)
	n, err := io.ReadFull(f, sample)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return detectSample(sample[:n], n == chardetSampleSize), nil
}

func detectSample(sample []byte, truncated bool) string {
	switch {
	case len(sample) == 0:
		// file(1) reports empty files as binary.
		return "binary"
	case bytes.HasPrefix(sample, []byte{0xEF, 0xBB, 0xBF}):
		return "utf-8"
	case bytes.HasPrefix(sample, []byte{0xFF, 0xFE}):
		return "utf-16le"
	case bytes.HasPrefix(sample, []byte{0xFE, 0xFF}):
		return "utf-16be"
	case bytes.IndexByte(sample, 0) >= 0:
		return "binary"
	case isASCII(sample):
		return "us-ascii"
	}

	valid := sample
	if truncated {
		// A multi-byte sequence may be cut at the sample boundary.
		for i := len(valid) - 1; i >= 0 && i >= len(valid)-utf8.UTFMax; i-- {
			if utf8.RuneStart(valid[i]) {
				if !utf8.FullRune(valid[i:]) {
					valid = valid[:i]
				}
				break
			}
		}
	}
	if utf8.Valid(valid) {
		return "utf-8"
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || result == nil {
		return "unknown-8bit"
	}
	return chardetName(result.Charset)
}

func chardetName(name string) string {
	name = strings.ToLower(name)
	switch name {
	case "gb-18030":
		return "gb18030"
	case "iso-8859-8-i":
		return "iso-8859-8"
	}
	return name
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

package render

import (
	"bufio"
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgy7/code2fodt/internal/charset"
	"github.com/georgy7/code2fodt/internal/linefmt"
)

// recordingSink keeps every paragraph; empty lines are stored as "".
type recordingSink struct {
	lines []string
}

func (s *recordingSink) CodeLine(text string) error {
	s.lines = append(s.lines, text)
	return nil
}

func (s *recordingSink) EmptyLine() error {
	s.lines = append(s.lines, "")
	return nil
}

type fixedResolver struct {
	decision charset.Decision
	calls    int
}

func (r *fixedResolver) Resolve(context.Context, string) (charset.Decision, error) {
	r.calls++
	return r.decision, nil
}

func writeTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func utf8Resolver() *fixedResolver {
	return &fixedResolver{decision: charset.Decision{Detected: "utf-8", Interpreted: "utf-8"}}
}

func TestRenderText(t *testing.T) {
	path := writeTestFile(t, "a.txt", []byte("one\n\ttwo  \fthree\n"))
	sink := &recordingSink{}

	n, err := New(utf8Resolver(), Options{TabSize: 4}, nil).Render(context.Background(), path, sink)
	require.NoError(t, err)

	want := []string{
		"Encoding: utf-8.",
		"",
		linefmt.Transform("one", 1, 4),
		linefmt.Transform("\ttwo", 2, 4),
		linefmt.Transform("three", 3, 4),
	}
	assert.Equal(t, want, sink.lines)
	// two meta lines plus the counter, which points past line 3
	assert.Equal(t, 2+4, n)
}

func TestRenderTextNewlines(t *testing.T) {
	path := writeTestFile(t, "crlf.txt", []byte("a\r\nb\rc"))
	sink := &recordingSink{}

	n, err := New(utf8Resolver(), Options{TabSize: 8}, nil).Render(context.Background(), path, sink)
	require.NoError(t, err)
	assert.Len(t, sink.lines, 2+3)
	assert.Equal(t, linefmt.Transform("c", 3, 8), sink.lines[4])
	assert.Equal(t, 2+4, n)
}

func TestRenderEmptyText(t *testing.T) {
	path := writeTestFile(t, "empty.txt", nil)
	sink := &recordingSink{}

	n, err := New(utf8Resolver(), Options{}, nil).Render(context.Background(), path, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"Encoding: utf-8.", ""}, sink.lines)
	assert.Equal(t, 3, n)
}

func TestRenderReinterpretedHeader(t *testing.T) {
	path := writeTestFile(t, "latin.txt", []byte("caf\xe9\n"))
	resolver := &fixedResolver{decision: charset.Decision{Detected: "iso-8859-1", Interpreted: "windows-1252"}}
	sink := &recordingSink{}

	_, err := New(resolver, Options{}, nil).Render(context.Background(), path, sink)
	require.NoError(t, err)
	assert.Equal(t, "Encoding detected: iso-8859-1. Interpreted as: windows-1252.", sink.lines[0])
	assert.Equal(t, linefmt.Transform("café", 1, 8), sink.lines[2])
}

func TestRenderWithFilenameHint(t *testing.T) {
	// "Привет" in windows-1251
	path := writeTestFile(t, "greeting.cp1251.txt", []byte("\xcf\xf0\xe8\xe2\xe5\xf2\n"))
	probe := charset.ProbeFunc(func(context.Context, string) (string, error) {
		t.Fatal("probe must not run when the filename names the encoding")
		return "", nil
	})
	resolver := charset.NewResolver(charset.NewAliasTable(), probe, nil)
	sink := &recordingSink{}

	n, err := New(resolver, Options{}, nil).Render(context.Background(), path, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"Encoding: cp1251.", "", linefmt.Transform("Привет", 1, 8)}, sink.lines)
	assert.Equal(t, 4, n)
}

func TestRenderDecodeBudget(t *testing.T) {
	content := []byte("ok\n\xff\xff\xff\n\xff\xff\xff\nnever\n")

	t.Run("abort", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))
		path := writeTestFile(t, "bad.txt", content)
		sink := &recordingSink{}

		_, err := New(utf8Resolver(), Options{}, logger).Render(context.Background(), path, sink)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDecodeBudgetExceeded))
		assert.Len(t, sink.lines, 4)
		assert.Contains(t, logs.String(), "Could not read 3 character(s): "+path+":2.")
		assert.Contains(t, logs.String(), "Replacements per file limit exceeded.")
	})

	t.Run("skip", func(t *testing.T) {
		path := writeTestFile(t, "bad.txt", content)
		sink := &recordingSink{}

		n, err := New(utf8Resolver(), Options{Overload: SkipRest}, nil).Render(context.Background(), path, sink)
		require.NoError(t, err)
		require.Len(t, sink.lines, 5)
		assert.Equal(t, skippedNotice, sink.lines[4])
		assert.Equal(t, 2+1+3, n)
	})

	t.Run("within budget", func(t *testing.T) {
		path := writeTestFile(t, "bad.txt", []byte("\xff\xff\n\xff\xff\xff\n"))
		sink := &recordingSink{}

		n, err := New(utf8Resolver(), Options{}, nil).Render(context.Background(), path, sink)
		require.NoError(t, err)
		assert.Equal(t, 2+3, n)
	})
}

func TestRenderBinary(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0xff}
	path := writeTestFile(t, "blob.bin", data)
	resolver := &fixedResolver{decision: charset.Decision{Detected: "binary", Interpreted: "binary"}}
	sink := &recordingSink{}

	n, err := New(resolver, Options{}, nil).Render(context.Background(), path, sink)
	require.NoError(t, err)

	sum := md5.Sum(data)
	want := []string{
		"Binary file.",
		"Size: 4 bytes.",
		`MD5:<text:s text:c="2"/>` + hex.EncodeToString(sum[:]) + ".",
	}
	assert.Equal(t, want, sink.lines)
	assert.Equal(t, 3, n)
}

func TestRenderSymlink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink("target/<x>.txt", link))
	resolver := utf8Resolver()
	sink := &recordingSink{}

	n, err := New(resolver, Options{}, nil).Render(context.Background(), link, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"Link to target/&lt;x&gt;.txt"}, sink.lines)
	assert.Equal(t, 1, n)
	assert.Zero(t, resolver.calls)
}

func TestRenderMissingFile(t *testing.T) {
	_, err := New(utf8Resolver(), Options{}, nil).Render(context.Background(), filepath.Join(t.TempDir(), "gone"), &recordingSink{})
	assert.Error(t, err)
}

func TestHashByName(t *testing.T) {
	tests := []struct {
		name  string
		empty string
	}{
		{"md5", "d41d8cd98f00b204e9800998ecf8427e"},
		{"sha256", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"blake3", "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			algo, err := HashByName(strings.ToUpper(tt.name))
			require.NoError(t, err)
			assert.Equal(t, tt.name, algo.Name())

			sum, err := algo.Sum(strings.NewReader(""))
			require.NoError(t, err)
			assert.Equal(t, tt.empty, sum)
		})
	}

	_, err := HashByName("crc32")
	assert.Error(t, err)
}

func TestHashLargeInput(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 3*hashChunkSize)
	sum, err := MD5{}.Sum(bytes.NewReader(data))
	require.NoError(t, err)
	want := md5.Sum(data)
	assert.Equal(t, hex.EncodeToString(want[:]), sum)
}

func TestParseOverloadPolicy(t *testing.T) {
	p, err := ParseOverloadPolicy("Skip")
	require.NoError(t, err)
	assert.Equal(t, SkipRest, p)
	assert.Equal(t, "skip", p.String())

	p, err = ParseOverloadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, AbortRun, p)

	_, err = ParseOverloadPolicy("ignore")
	assert.Error(t, err)
}

func TestScanUniversalLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a\nb\n", []string{"a", "b"}},
		{"a\r\nb", []string{"a", "b"}},
		{"a\rb\r", []string{"a", "b"}},
		{"a\r\r\nb", []string{"a", "", "b"}},
		{"\n\n", []string{"", ""}},
		{"", nil},
	}
	for _, tt := range tests {
		scanner := bufio.NewScanner(strings.NewReader(tt.in))
		scanner.Split(scanUniversalLines)
		var got []string
		for scanner.Scan() {
			got = append(got, scanner.Text())
		}
		require.NoError(t, scanner.Err())
		assert.Equal(t, tt.want, got, "%q", tt.in)
	}
}

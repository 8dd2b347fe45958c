package charset

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, probe ContentEncodingProbe) (*Resolver, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	return NewResolver(NewAliasTable(), probe, logger), &logs
}

func TestAliasTable(t *testing.T) {
	table := NewAliasTable()

	for _, name := range []string{
		"koi8-r", "koi8_r", "windows-1251", "windows_1251", "utf-8-sig", "utf_8",
		"shift_jis", "latin1", "latin2", "cp1252", "utf-16le", "gb2312", "euc_jp",
		"euc_kr", "iso8859-2", "iso_8859_5", "greek", "cyrillic", "tis-620",
	} {
		assert.True(t, table.IsUnambiguous(name), name)
		assert.True(t, table.IsLoose(name), name)
	}
	for _, name := range []string{"gbk", "sjis", "big5"} {
		assert.False(t, table.IsUnambiguous(name), name)
		assert.True(t, table.IsLoose(name), name)
	}
	for _, name := range []string{"", "go", "min", "1252", "txt", "no-such-charset", "unicode", "iso-2022-kr"} {
		assert.False(t, table.IsLoose(name), name)
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"UTF-8", "windows-1252", "ibm037", "KOI8_U", "utf_8_sig", "EUC-JP", "utf-32le", "ISO-8859-5"} {
		enc, err := Lookup(name)
		require.NoError(t, err, name)
		assert.NotNil(t, enc, name)
	}

	_, err := Lookup("unknown-8bit")
	assert.True(t, errors.Is(err, ErrUnknownEncoding))
	_, err = Lookup("")
	assert.True(t, errors.Is(err, ErrUnknownEncoding))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		probed      string
		want        Decision
		wantLog     bool
		probeCalled bool
	}{
		{
			name:        "utf-8 passes through",
			path:        "src/main.go",
			probed:      "utf-8",
			want:        Decision{"utf-8", "utf-8"},
			probeCalled: true,
		},
		{
			name:   "unambiguous filename hint wins",
			path:   "locales/ru_RU.KOI8-R.po",
			probed: "binary",
			want:   Decision{"koi8-r", "koi8-r"},
		},
		{
			name:   "registry alias spelling is a hint",
			path:   "locales/zh_CN.GB2312.src",
			probed: "unknown-8bit",
			want:   Decision{"gb2312", "gb2312"},
		},
		{
			name:   "underscore spelling is a hint",
			path:   "po/ru_RU.koi8_r.src",
			probed: "unknown-8bit",
			want:   Decision{"koi8_r", "koi8_r"},
		},
		{
			name:   "compact iso spelling is a hint",
			path:   "pl_PL.ISO8859-2.src",
			probed: "unknown-8bit",
			want:   Decision{"iso8859-2", "iso8859-2"},
		},
		{
			name:   "language name alias is a hint",
			path:   "el_GR.greek.txt",
			probed: "unknown-8bit",
			want:   Decision{"greek", "greek"},
		},
		{
			name:        "ascii defaults to western codepage silently",
			path:        "README",
			probed:      "us-ascii",
			want:        Decision{"us-ascii", "windows-1252"},
			probeCalled: true,
		},
		{
			name:        "latin-1 defaults to western codepage silently",
			path:        "doc.txt",
			probed:      " ISO-8859-1\n",
			want:        Decision{"iso-8859-1", "windows-1252"},
			probeCalled: true,
		},
		{
			name:        "unknown 8-bit uses loose hint",
			path:        "charset/table.gbk.txt",
			probed:      "unknown-8bit",
			want:        Decision{"unknown-8bit", "gbk"},
			wantLog:     true,
			probeCalled: true,
		},
		{
			name:        "unknown 8-bit without hint is logged",
			path:        "data.dat",
			probed:      "unknown-8bit",
			want:        Decision{"unknown-8bit", "windows-1252"},
			wantLog:     true,
			probeCalled: true,
		},
		{
			name:        "ebcdic maps to ibm037",
			path:        "MAINFRAME.CBL",
			probed:      "ebcdic",
			want:        Decision{"ebcdic", "ibm037"},
			wantLog:     true,
			probeCalled: true,
		},
		{
			name:        "binary short-circuits",
			path:        "logo.png",
			probed:      "binary",
			want:        Decision{"binary", "binary"},
			probeCalled: true,
		},
		{
			name:        "undecodable detection falls back",
			path:        "weird.txt",
			probed:      "x-made-up",
			want:        Decision{"x-made-up", "windows-1252"},
			wantLog:     true,
			probeCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			probe := ProbeFunc(func(context.Context, string) (string, error) {
				called = true
				return tt.probed, nil
			})
			resolver, logs := newTestResolver(t, probe)

			got, err := resolver.Resolve(context.Background(), tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.probeCalled, called)
			if tt.wantLog {
				assert.Contains(t, logs.String(), "Interpreting "+tt.want.Detected+" as "+tt.want.Interpreted)
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestResolveProbeError(t *testing.T) {
	probe := ProbeFunc(func(context.Context, string) (string, error) {
		return "", errors.New("exit status 1")
	})
	resolver, _ := newTestResolver(t, probe)

	_, err := resolver.Resolve(context.Background(), "a.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.txt")
}

func TestDecision(t *testing.T) {
	assert.True(t, Decision{"binary", "binary"}.IsBinary())
	assert.False(t, Decision{"utf-8", "utf-8"}.IsBinary())
	assert.True(t, Decision{"us-ascii", "windows-1252"}.Reinterpreted())
}

func TestNameParts(t *testing.T) {
	assert.Equal(t, []string{"ru_ru", "koi8-r"}, nameParts("a/b/ru_RU.KOI8-R.po"))
	assert.Equal(t, []string{"makefile"}, nameParts("Makefile"))
	assert.Equal(t, []string{"", "bashrc"}, nameParts(".bashrc"))
}

func TestDetectSample(t *testing.T) {
	tests := []struct {
		name   string
		sample []byte
		want   string
	}{
		{"empty", nil, "binary"},
		{"ascii", []byte("hello\n"), "us-ascii"},
		{"utf-8", []byte("привет\n"), "utf-8"},
		{"utf-8 bom", []byte("\xEF\xBB\xBFhi"), "utf-8"},
		{"utf-16le bom", []byte("\xFF\xFEh\x00i\x00"), "utf-16le"},
		{"nul byte", []byte("ab\x00cd"), "binary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectSample(tt.sample, false))
		})
	}

	// A sample cut inside a multi-byte rune is still UTF-8.
	cut := []byte("ab\xD0\xBF\xD1")
	assert.Equal(t, "utf-8", detectSample(cut, true))
}

func TestChardetProbe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("just ascii\n"), 0o644))

	got, err := ChardetProbe{}.Probe(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "us-ascii", got)

	_, err = ChardetProbe{}.Probe(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFileCommandProbeMissingCommand(t *testing.T) {
	probe := FileCommandProbe{Command: "code2fodt-no-such-command"}
	_, err := probe.Probe(context.Background(), "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

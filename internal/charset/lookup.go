package charset

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// ErrUnknownEncoding is returned by Lookup for names no decoder handles.
var ErrUnknownEncoding = errors.New("unknown encoding")

// Fallback is the most widely used single-byte character set. It is what
// ambiguous detections are interpreted as.
const Fallback = "windows-1252"

// codecAliases covers codec-style names (cp1251, latin1, utf-8-sig, ...)
// that the WHATWG and IANA indexes either do not know or map differently.
// Keys are lower-case with '-' separators.
var codecAliases = map[string]encoding.Encoding{
	"latin1":       charmap.ISO8859_1,
	"latin-1":      charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso8859-1":    charmap.ISO8859_1,
	"cp037":        charmap.CodePage037,
	"ibm037":       charmap.CodePage037,
	"ebcdic-cp-us": charmap.CodePage037,
	"cp1047":       charmap.CodePage1047,
	"ibm1047":      charmap.CodePage1047,
	"cp1140":       charmap.CodePage1140,
	"ibm1140":      charmap.CodePage1140,
	"cp437":        charmap.CodePage437,
	"ibm437":       charmap.CodePage437,
	"cp850":        charmap.CodePage850,
	"ibm850":       charmap.CodePage850,
	"cp852":        charmap.CodePage852,
	"ibm852":       charmap.CodePage852,
	"cp855":        charmap.CodePage855,
	"ibm855":       charmap.CodePage855,
	"cp858":        charmap.CodePage858,
	"cp860":        charmap.CodePage860,
	"ibm860":       charmap.CodePage860,
	"cp862":        charmap.CodePage862,
	"ibm862":       charmap.CodePage862,
	"cp863":        charmap.CodePage863,
	"ibm863":       charmap.CodePage863,
	"cp865":        charmap.CodePage865,
	"ibm865":       charmap.CodePage865,
	"cp866":        charmap.CodePage866,
	"ibm866":       charmap.CodePage866,
	"cp874":        charmap.Windows874,
	"cp1250":       charmap.Windows1250,
	"cp1251":       charmap.Windows1251,
	"cp1252":       charmap.Windows1252,
	"cp1253":       charmap.Windows1253,
	"cp1254":       charmap.Windows1254,
	"cp1255":       charmap.Windows1255,
	"cp1256":       charmap.Windows1256,
	"cp1257":       charmap.Windows1257,
	"cp1258":       charmap.Windows1258,
	"mac-roman":    charmap.Macintosh,
	"macroman":     charmap.Macintosh,
	"mac-cyrillic": charmap.MacintoshCyrillic,
	"maccyrillic":  charmap.MacintoshCyrillic,
	"cp932":        japanese.ShiftJIS,
	"sjis":         japanese.ShiftJIS,
	"cp949":        korean.EUCKR,
	"cp936":        simplifiedchinese.GBK,
	"cp950":        traditionalchinese.Big5,
	"utf-8-sig":    unicode.UTF8BOM,
	"utf-16":       unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-32":       utf32.UTF32(utf32.LittleEndian, utf32.UseBOM),
	"utf-32le":     utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
	"utf-32be":     utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM),
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "-", " ", "-").Replace(name)
}

// Lookup returns the decoder family for an encoding name. Codec-style
// aliases are tried first, then the WHATWG index, then the IANA registry.
func Lookup(name string) (encoding.Encoding, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownEncoding)
	}
	if enc, ok := codecAliases[key]; ok {
		return enc, nil
	}
	for _, candidate := range []string{strings.ToLower(strings.TrimSpace(name)), key} {
		// WHATWG maps a few legacy labels (iso-2022-kr, hz-gb-2312) to the
		// replacement decoder, which would swallow the whole file.
		if enc, err := htmlindex.Get(candidate); err == nil && enc != nil && enc != encoding.Replacement {
			return enc, nil
		}
		if enc, err := ianaindex.IANA.Encoding(candidate); err == nil && enc != nil {
			return enc, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
}

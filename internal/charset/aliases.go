package charset

const (
	unambiguousMinLength = 5
	looseMinLength       = 3
)

// WHATWG labels that name a character set in prose more often than in
// file names. "unicode" would otherwise decode as UTF-16LE.
var notHints = map[string]struct{}{
	"unicode":        {},
	"x-user-defined": {},
}

// AliasTable decides which file name segments are encoding names, e.g. the
// "koi8_r" in "ru_RU.koi8_r.po". Membership is whatever Lookup decodes, so
// every spelling of the IANA, WHATWG and codec registries counts, with "_"
// read as "-". Build it once with NewAliasTable and share it; it is never
// modified afterwards.
type AliasTable struct {
	decodes func(name string) bool
}

// NewAliasTable returns the table backed by Lookup.
func NewAliasTable() *AliasTable {
	return &AliasTable{decodes: func(name string) bool {
		_, err := Lookup(name)
		return err == nil
	}}
}

// IsUnambiguous reports whether name is long enough to be trusted as a
// filename hint over content probing.
func (t *AliasTable) IsUnambiguous(name string) bool {
	return t.accepts(name, unambiguousMinLength)
}

// IsLoose reports whether name is a plausible hint once content probing
// came back inconclusive.
func (t *AliasTable) IsLoose(name string) bool {
	return t.accepts(name, looseMinLength)
}

func (t *AliasTable) accepts(name string, minLength int) bool {
	if len(name) < minLength || isNumeric(name) {
		return false
	}
	if _, ok := notHints[normalizeName(name)]; ok {
		return false
	}
	return t.decodes(name)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

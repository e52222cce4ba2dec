package naming

import (
	"strings"
	"unicode"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// affixes are organizational words that do not identify a club.
// Multi-word entries come first so "football club" is removed before "club".
var affixes = [][]string{
	{"football", "club"},
	{"soccer", "club"},
	{"sporting", "club"},
	{"f", "c"},
	{"fc"},
	{"afc"},
	{"cf"},
	{"sc"},
	{"ac"},
	{"fk"},
	{"club"},
	{"united"},
	{"utd"},
}

// Canonicalize turns a free-form team name into its comparison key.
func Canonicalize(name string) string {
	tokens := tokenize(name)
	if len(tokens) == 0 {
		return ""
	}

	stripped := stripAffixes(tokens)
	if len(stripped) == 0 {
		return strings.Join(tokens, " ")
	}
	return strings.Join(stripped, " ")
}

// Tokens returns the words of the canonical key.
func Tokens(name string) []string {
	key := Canonicalize(name)
	if key == "" {
		return nil
	}
	return strings.Fields(key)
}

func tokenize(name string) []string {
	folded := foldASCII(name)
	if folded == "" {
		return nil
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '\'':
			// "St. Mary's" and "St Marys" must collide.
		default:
			b.WriteByte(' ')
		}
	}

	return strings.Fields(b.String())
}

func foldASCII(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, name)
	if err != nil {
		out = name
	}
	return unidecode.Unidecode(out)
}

func stripAffixes(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if n := affixAt(tokens, i); n > 0 {
			i += n
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	return out
}

func affixAt(tokens []string, at int) int {
	for _, affix := range affixes {
		if at+len(affix) > len(tokens) {
			continue
		}
		matched := true
		for j, word := range affix {
			if tokens[at+j] != word {
				matched = false
				break
			}
		}
		if matched {
			return len(affix)
		}
	}
	return 0
}

// Package normalize derives the canonical key used to match a series across
// data sources that spell its name differently.
package normalize

import "strings"

// accented lists the non-ASCII letters kept in a key.
const accented = "àâçéèêëîïôûùüÿñæœ"

// Key lowercases name, drops spaces, then strips every rune that is not an
// ASCII letter, a digit or one of the accented letters above.
func Key(name string) string {
	if name == "" {
		return ""
	}
	return strings.Map(keep, strings.ToLower(name))
}

func keep(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return r
	case r < 0x80:
		return -1
	case strings.ContainsRune(accented, r):
		return r
	}
	return -1
}

// Equal reports whether two names share the same key. Two names that reduce
// to the empty key never match.
func Equal(a, b string) bool {
	ka := Key(a)
	return ka != "" && ka == Key(b)
}

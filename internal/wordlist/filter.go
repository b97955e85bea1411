package wordlist

import "strings"

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// Filter returns the words accepted by keep.
func Filter(words []string, keep FilterFunc) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}

// Fingerspellable reports whether word uses only ASCII letters that have a
// static handshape. J and Z require motion and are rejected.
func Fingerspellable(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if ch < 'A' || ch > 'Z' || ch == 'J' || ch == 'Z' {
			return false
		}
	}
	return true
}

// DifficultyFor buckets a word by length: up to four letters is easy, up to
// six is medium, anything longer is hard.
func DifficultyFor(word string) string {
	switch n := len(strings.TrimSpace(word)); {
	case n <= 4:
		return Easy
	case n <= 6:
		return Medium
	default:
		return Hard
	}
}

package wordlist

import "testing"

func TestFingerspellable(t *testing.T) {
	for _, word := range []string{"hello", "CAT", "Alphabet"} {
		if !Fingerspellable(word) {
			t.Fatalf("expected %q to be fingerspellable", word)
		}
	}
	for _, word := range []string{"", "jam", "PIZZA", "résumé", "don’t", "co-op", "two words"} {
		if Fingerspellable(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}

func TestDifficultyFor(t *testing.T) {
	cases := map[string]string{"CAT": Easy, "BOOK": Easy, "HOUSE": Medium, "BRIDGE": Medium, "LANGUAGE": Hard}
	for word, want := range cases {
		if got := DifficultyFor(word); got != want {
			t.Fatalf("%s: expected %s, got %s", word, want, got)
		}
	}
}

func TestFallbackWordsAreSpellable(t *testing.T) {
	for difficulty, words := range Fallback {
		for _, w := range words {
			if !Fingerspellable(w) {
				t.Fatalf("fallback word %q is not spellable", w)
			}
			if got := DifficultyFor(w); got != difficulty {
				t.Fatalf("fallback word %q listed as %s but measures %s", w, difficulty, got)
			}
		}
	}
}

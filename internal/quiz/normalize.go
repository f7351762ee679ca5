package quiz

import "strings"

// Normalize lowercases s and keeps only ASCII letters, digits and Hangul
// syllables, so punctuation, spacing and case never decide an answer.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 0xAC00 && r <= 0xD7A3:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// JoinTokens joins clicked sentence tokens the way they are compared
func JoinTokens(tokens []string) string {
	return strings.Join(tokens, " ")
}

// Matches reports whether a submitted answer equals the expected text.
// Text with nothing Normalize keeps (hanja, symbols) is compared with case
// and runs of whitespace folded instead.
func Matches(answer, expected string) bool {
	if want := Normalize(expected); want != "" {
		return Normalize(answer) == want
	}
	want := foldSpace(expected)
	return want != "" && foldSpace(answer) == want
}

func foldSpace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

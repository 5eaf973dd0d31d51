package sentiment

import (
	"strings"
	"unicode"
)

// token is a lower-cased word plus the surface features the lexicon scorer reads
type token struct {
	word    string
	shouted bool // written in capitals, e.g. "GREAT"
}

// tokenize splits text into words. Apostrophes inside a word are kept so that
// contractions like "isn't" survive for negation handling.
func tokenize(text string) []token {
	var tokens []token
	var current strings.Builder
	upper, letters := 0, 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		w := strings.Trim(current.String(), "'")
		if w != "" {
			tokens = append(tokens, token{
				word:    strings.ToLower(w),
				shouted: letters > 1 && upper == letters,
			})
		}
		current.Reset()
		upper, letters = 0, 0
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
			current.WriteRune(r)
		case unicode.IsNumber(r), r == '\'', r == '’':
			if r == '’' {
				r = '\''
			}
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func words(text string) []string {
	toks := tokenize(text)
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.word
	}
	return out
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "neither": true, "nor": true,
	"none": true, "nobody": true, "nothing": true, "without": true,
	"cannot": true, "hardly": true, "barely": true,
}

func isNegation(w string) bool {
	return negations[w] || strings.HasSuffix(w, "n't")
}

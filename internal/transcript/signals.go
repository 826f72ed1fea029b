package transcript

import (
	"regexp"
	"strings"
)

var fillers = []string{"um", "uh", "erm", "like", "you know", "actually", "basically"}

var unconfidentPhrases = []string{"maybe", "i think", "probably", "not sure", "i guess", "kind of", "sort of"}

var fillerPatterns = compileWordPatterns(fillers)

var reWord = regexp.MustCompile(`[\p{L}\p{N}']+`)

func compileWordPatterns(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return out
}

// FillerCount counts filler words and stutters ("I I", "we we") in text.
func FillerCount(text string) int {
	t := normalize(text)
	count := 0
	for _, re := range fillerPatterns {
		count += len(re.FindAllStringIndex(t, -1))
	}
	// a stutter is a word repeated after whitespace only; each word joins at
	// most one pair
	idx := reWord.FindAllStringIndex(t, -1)
	for i := 1; i < len(idx); i++ {
		prev, cur := idx[i-1], idx[i]
		gap := t[prev[1]:cur[0]]
		if gap != "" && strings.TrimSpace(gap) == "" && t[prev[0]:prev[1]] == t[cur[0]:cur[1]] {
			count++
			i++
		}
	}
	return count
}

// HasUnconfidentPhrase reports whether text contains a hedging phrase.
func HasUnconfidentPhrase(text string) bool {
	t := normalize(text)
	for _, p := range unconfidentPhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

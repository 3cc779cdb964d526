package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minMeaningfulChars is the shortest cleaned text still treated as speech.
const minMeaningfulChars = 3

// noisePatterns are applied in order, before filler removal. (?s) lets
// bracketed spans cross line breaks. Word characters are Unicode letters,
// digits and underscore.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\[.*?\]`),
	regexp.MustCompile(`(?is)\(.*?\)`),
	regexp.MustCompile(`(?is)<.*?>`),
	regexp.MustCompile(`#[\p{L}\p{N}_]+`),
	regexp.MustCompile(`(?i)http\S+`),
}

// wordPattern matches a maximal run of word characters.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// fillers are dropped only when they are a whole word.
var fillers = map[string]bool{"um": true, "uh": true, "er": true, "ah": true}

// degenerateTokens are whole transcriptions that carry no meaning.
var degenerateTokens = []string{".", "..", "...", "hmm", "mmm"}

// NoiseFilter cleans raw transcriptions. It is pure and safe for concurrent use.
type NoiseFilter struct{}

// NewNoiseFilter creates a noise filter
func NewNoiseFilter() *NoiseFilter {
	return &NoiseFilter{}
}

// Clean strips noise from text. An empty result means no meaningful speech.
func (f *NoiseFilter) Clean(text string) string {
	for _, pattern := range noisePatterns {
		text = pattern.ReplaceAllString(text, "")
	}
	text = wordPattern.ReplaceAllStringFunc(text, func(word string) string {
		if fillers[strings.ToLower(word)] {
			return ""
		}
		return word
	})
	text = strings.Join(strings.Fields(text), " ")

	if IsMeaningless(text) {
		return ""
	}
	return text
}

// IsMeaningless reports whether already-trimmed text is too short or a
// degenerate token.
func IsMeaningless(text string) bool {
	if utf8.RuneCountInString(text) < minMeaningfulChars {
		return true
	}
	for _, token := range degenerateTokens {
		if strings.EqualFold(text, token) {
			return true
		}
	}
	return false
}

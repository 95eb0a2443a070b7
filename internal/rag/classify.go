package rag

import (
	"strconv"
	"strings"
	"unicode"
)

// Language is the language the answer must be written in.
type Language string

const (
	LanguagePT Language = "pt"
	LanguageEN Language = "en"
)

// Intent bundles the signals derived from the raw question.
type Intent struct {
	Language       Language
	ListIntent     bool
	RequestedCount int // 0 when the question asks for no specific count
	ProjectIntent  bool
}

// diacriticBonus is added to the Portuguese score when the question carries Portuguese accents.
const diacriticBonus = 2

const portugueseDiacritics = "áàâãéêíóôõúç"

var portugueseMarkers = toSet(
	"quais", "qual", "que", "quem", "onde", "quando", "como", "porque", "por",
	"voce", "você", "seu", "sua", "seus", "suas", "meu", "minha",
	"projeto", "projetos", "construiu", "criou", "fez", "desenvolveu", "trabalhou",
	"experiencia", "experiência", "trabalho", "carreira", "empresa", "empresas",
	"sobre", "fale", "liste", "mostre", "cite", "tem", "ja", "já",
	"de", "do", "da", "dos", "das", "em", "no", "na", "para", "com", "uma", "um", "os", "e",
)

var englishMarkers = toSet(
	"what", "which", "who", "where", "when", "how", "why",
	"you", "your", "yours", "my",
	"project", "projects", "built", "build", "created", "made", "developed", "worked",
	"experience", "work", "career", "company", "companies",
	"about", "tell", "list", "show", "have", "has", "did", "do", "does",
	"the", "of", "in", "on", "for", "with", "and", "is", "are", "a", "an",
)

var listMarkers = []string{
	"liste", "list", "quais sao", "quais são", "cite", "enumere", "mostre", "me diga", "top ",
}

// numberWords is checked in order; the first whole-word hit wins.
var numberWords = []struct {
	word  string
	value int
}{
	{"um", 1}, {"uma", 1}, {"one", 1},
	{"dois", 2}, {"duas", 2}, {"two", 2},
	{"tres", 3}, {"três", 3}, {"three", 3},
	{"quatro", 4}, {"four", 4},
	{"cinco", 5}, {"five", 5},
	{"seis", 6}, {"six", 6},
	{"sete", 7}, {"seven", 7},
	{"oito", 8}, {"eight", 8},
	{"nove", 9}, {"nine", 9},
	{"dez", 10}, {"ten", 10},
}

const maxRequestedCount = 20

var projectKeywords = []string{
	"projeto", "projetos", "project", "projects", "portfolio", "github", "repositorio",
	"app", "aplicacao", "sistema", "o que voce construiu", "o que você construiu", "built", "build",
}

var projectSourceMarkers = []string{"readme", "project", "portfolio", "case", "repo", "github"}

// Classify derives every intent signal from query.
func Classify(query string) Intent {
	return Intent{
		Language:       DetectLanguage(query),
		ListIntent:     DetectListIntent(query),
		RequestedCount: ExtractRequestedCount(query),
		ProjectIntent:  DetectProjectIntent(query),
	}
}

// DetectLanguage returns LanguagePT only when Portuguese markers outscore English ones.
func DetectLanguage(query string) Language {
	pt, en := 0, 0
	for _, token := range tokenize(query) {
		if _, ok := portugueseMarkers[token]; ok {
			pt++
		}
		if _, ok := englishMarkers[token]; ok {
			en++
		}
	}
	if strings.ContainsAny(strings.ToLower(query), portugueseDiacritics) {
		pt += diacriticBonus
	}
	if pt > en {
		return LanguagePT
	}
	return LanguageEN
}

// DetectListIntent reports whether the question asks for an enumeration.
func DetectListIntent(query string) bool {
	return containsAny(strings.ToLower(query), listMarkers)
}

// ExtractRequestedCount returns the number of items the question asks for, or 0.
// Number words take priority over digits; digits count only within [1, 20].
func ExtractRequestedCount(query string) int {
	tokens := tokenize(query)
	present := toSet(tokens...)
	for _, nw := range numberWords {
		if _, ok := present[nw.word]; ok {
			return nw.value
		}
	}
	for _, token := range tokens {
		if len(token) > 2 || !isDigits(token) {
			continue
		}
		n, err := strconv.Atoi(token)
		if err == nil && n >= 1 && n <= maxRequestedCount {
			return n
		}
	}
	return 0
}

// DetectProjectIntent reports whether the question is about projects or portfolio work.
func DetectProjectIntent(query string) bool {
	return containsAny(strings.ToLower(query), projectKeywords)
}

// isProjectSource reports whether a source file looks like project material.
func isProjectSource(sourceName string) bool {
	return containsAny(strings.ToLower(sourceName), projectSourceMarkers)
}

// tokenize lower-cases text and splits it on anything that is not a letter or digit.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
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

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

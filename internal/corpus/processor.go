package corpus

import (
	"strings"
)

// Dependency roles and part-of-speech names shared with the category
// builder. The names follow the usual dependency-parse conventions.
const (
	DepDirectObj = "dobj"
	DepObjOfPrep = "pobj"
	DepRoot      = "ROOT"
	DepAppos     = "appos"
	DepSubject   = "nsubj"
	DepAttr      = "attr"

	POSNoun = "NOUN"
	POSVerb = "VERB"
)

// RuleProcessor is a deterministic, rule-based stand-in for a dependency
// parser. It approximates the roles the category builder cares about:
// tokens after a preposition become prepositional objects, tokens after a
// verb become direct objects, the final content token of a sentence is the
// root, and tokens introduced by a comma are appositives. Real NLP engines
// plug in behind the Processor interface instead.
type RuleProcessor struct {
	// Stopwords are dropped before role assignment.
	Stopwords map[string]struct{}
	// Bigrams controls whether adjacent kept tokens are also indexed as
	// two-word tokens.
	Bigrams bool
}

// NewRuleProcessor returns a processor with the default stopword list and
// bigram extraction enabled.
func NewRuleProcessor() *RuleProcessor {
	return &RuleProcessor{Stopwords: defaultStopwords(), Bigrams: true}
}

var textCorrections = [][2]string{
	{"`", "'"},
	{"“", `"`},
	{"”", `"`},
	{"/", " "},
	{"web page", "site"},
	{"web site", "site"},
	{"webpage", "site"},
	{"website", "site"},
}

// cleanse normalizes raw text before tokenization: hyphens collapse so
// compounds count as one token, and a fixed correction table rewrites
// known variants.
func cleanse(text string) string {
	text = strings.ReplaceAll(text, "-", "")
	for _, c := range textCorrections {
		text = strings.ReplaceAll(text, c[0], c[1])
	}
	return text
}

var prepositions = map[string]struct{}{
	"of": {}, "in": {}, "on": {}, "at": {}, "for": {}, "with": {},
	"about": {}, "into": {}, "over": {}, "under": {}, "from": {}, "to": {},
}

var verbs = map[string]struct{}{
	"make": {}, "made": {}, "take": {}, "took": {}, "see": {}, "saw": {},
	"build": {}, "built": {}, "use": {}, "used": {}, "read": {}, "wrote": {},
	"write": {}, "buy": {}, "bought": {}, "sell": {}, "sold": {}, "find": {},
	"found": {}, "want": {}, "need": {}, "like": {}, "love": {}, "has": {},
	"have": {}, "had": {}, "get": {}, "got": {}, "give": {}, "gave": {},
}

// Process implements Processor. Occurrence order is the order tokens are
// first seen, which keeps downstream counting deterministic.
func (p *RuleProcessor) Process(text string, _ EntryID) []TokenOccurrence {
	var out []TokenOccurrence
	seen := make(map[string]struct{})

	emit := func(token string, info TokenInfo) {
		if _, dup := seen[token]; dup {
			return
		}
		seen[token] = struct{}{}
		out = append(out, TokenOccurrence{Token: token, Info: info})
	}

	for _, sentence := range splitSentences(cleanse(text)) {
		words, commaBefore := tokenizeWords(sentence)

		type kept struct {
			word string
			info TokenInfo
		}
		var content []kept

		for i, w := range words {
			lower := strings.ToLower(w)
			if len([]rune(lower)) < 2 {
				continue
			}
			if _, stop := p.Stopwords[lower]; stop {
				continue
			}
			if _, isPrep := prepositions[lower]; isPrep {
				continue
			}

			info := TokenInfo{Dep: DepAttr, POS: POSNoun, Tag: "NN"}
			if _, isVerb := verbs[lower]; isVerb {
				info.POS = POSVerb
				info.Tag = "VB"
			}
			switch {
			case commaBefore[i]:
				info.Dep = DepAppos
			case i > 0 && isPreposition(words[i-1]):
				info.Dep = DepObjOfPrep
			case i > 0 && isVerb(words[i-1]):
				info.Dep = DepDirectObj
			case i == 0:
				info.Dep = DepSubject
			}
			content = append(content, kept{word: lower, info: info})
		}

		if len(content) == 0 {
			continue
		}

		// The last content token anchors the sentence.
		content[len(content)-1].info.Dep = DepRoot

		for _, k := range content {
			emit(k.word, k.info)
		}
		if p.Bigrams {
			for i := 1; i < len(content); i++ {
				bigram := content[i-1].word + " " + content[i].word
				emit(bigram, content[i].info)
			}
		}
	}
	return out
}

func isPreposition(w string) bool {
	_, ok := prepositions[strings.ToLower(w)]
	return ok
}

func isVerb(w string) bool {
	_, ok := verbs[strings.ToLower(w)]
	return ok
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == ';' || r == '\n'
	})
}

// tokenizeWords splits a sentence into word tokens and records, per token,
// whether a comma immediately preceded it.
func tokenizeWords(sentence string) ([]string, []bool) {
	var words []string
	var commaBefore []bool

	var cur strings.Builder
	pendingComma := false

	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			commaBefore = append(commaBefore, pendingComma)
			pendingComma = false
			cur.Reset()
		}
	}

	for _, r := range sentence {
		switch {
		case r == ',':
			flush()
			pendingComma = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '\'':
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return words, commaBefore
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "than", "so",
		"is", "am", "are", "was", "were", "be", "been", "being",
		"it", "its", "he", "she", "his", "her", "they", "them", "their",
		"i", "we", "you", "me", "my", "our", "your", "us",
		"this", "that", "these", "those", "there", "here",
		"do", "does", "did", "done", "not", "no", "yes",
		"as", "by", "up", "down", "out", "off", "very", "too", "also",
		"can", "could", "will", "would", "should", "may", "might", "must",
		"what", "which", "who", "when", "where", "why", "how",
		"all", "any", "some", "more", "most", "other", "such", "only",
		"own", "same", "just", "now", "while", "because",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

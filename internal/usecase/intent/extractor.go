// Package intent derives structured chunk filters from free-text legal
// queries: act references, domain tags, and explicit section numbers.
package intent

import (
	"regexp"
	"strings"

	"github.com/vakil-cloud/lexsearch/internal/domain/search/filter"
)

// actAliases maps lowercase aliases and common abbreviations to canonical
// act names as they appear in the index. Fixed enumerated list; matching is
// substring on the normalized query.
var actAliases = []struct {
	alias string
	act   string
}{
	{"indian penal code", "Indian Penal Code, 1860"},
	{"penal code", "Indian Penal Code, 1860"},
	{"ipc", "Indian Penal Code, 1860"},
	{"bharatiya nyay sanhita", "Bharatiya Nyay Sanhita, 2023"},
	{"bns", "Bharatiya Nyay Sanhita, 2023"},
	{"bharatiya nagrik suraksha sanhita", "Bharatiya Nagrik Suraksha Sanhita, 2023"},
	{"bnss", "Bharatiya Nagrik Suraksha Sanhita, 2023"},
	{"companies act", "Companies Act, 2013"},
	{"constitution", "The Constitution of India, 1950"},
	{"consumer protection act", "Consumer Protection Act, 2019"},
	{"information technology act", "Information Technology Act, 2000"},
	{"it act", "Information Technology Act, 2000"},
	{"pocso", "Protection of Children from Sexual Offences Act, 2012"},
	{"domestic violence act", "Protection of Women from Domestic Violence Act, 2005"},
}

// domainLexicon maps domain tags to trigger keywords. Keywords are matched
// against stemmed query tokens and as substrings of the normalized query.
var domainLexicon = map[string][]string{
	"criminal":       {"murder", "theft", "assault", "robbery", "fraud", "kidnapping", "punishment", "bail", "arrest"},
	"family":         {"divorce", "marriage", "custody", "alimony", "maintenance", "adoption"},
	"corporate":      {"company", "director", "shareholder", "incorporation", "merger", "insolvency"},
	"cybercrime":     {"cybercrime", "hacking", "phishing", "data breach", "identity theft"},
	"consumer":       {"refund", "warranty", "defective", "consumer complaint"},
	"constitutional": {"fundamental right", "writ", "article", "amendment"},
}

// sectionRef matches explicit statute section references like "section 378"
// or "sec 66a".
var sectionRef = regexp.MustCompile(`\bsec(?:tion)?\s+(\d+[a-z]?)\b`)

// Extractor derives filters from query text. Deterministic and
// side-effect-free; malformed or empty input yields empty filters,
// never an error, so extraction can never block retrieval.
type Extractor struct{}

// New creates a filter extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the filters inferred from the query text. Multiple acts
// and domains may be detected; no match yields an empty facet, meaning
// search unfiltered.
func (e *Extractor) Extract(text string) filter.Filters {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if normalized == "" {
		return filter.Filters{}
	}

	var acts []string
	for _, a := range actAliases {
		if containsToken(normalized, a.alias) {
			acts = append(acts, a.act)
		}
	}

	tokens := stemTokens(strings.Fields(normalized))
	var domains []string
	for tag, keywords := range domainLexicon {
		for _, kw := range keywords {
			if matchKeyword(normalized, tokens, kw) {
				domains = append(domains, tag)
				break
			}
		}
	}

	var section string
	if m := sectionRef.FindStringSubmatch(normalized); m != nil {
		section = m[1]
	}

	return filter.New(acts, domains, section)
}

// containsToken reports whether phrase occurs in text on word boundaries,
// so "constitution" does not fire inside "constitutional".
func containsToken(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		startOK := start == 0 || !isWordChar(text[start-1])
		endOK := end == len(text) || !isWordChar(text[end])
		if startOK && endOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// matchKeyword checks a lexicon keyword against the query: multi-word
// keywords as normalized substrings, single words against stemmed tokens.
func matchKeyword(normalized string, tokens map[string]struct{}, kw string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(normalized, kw)
	}
	_, ok := tokens[stem(kw)]
	return ok
}

func stemTokens(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[stem(w)] = struct{}{}
	}
	return out
}

// stem strips common English suffixes so "punishments", "punished" and
// "punishment" all collide. Deliberately crude; the lexicon is curated to
// tolerate it.
func stem(w string) string {
	if trimmed, ok := strings.CutSuffix(w, "ies"); ok && len(trimmed) >= 3 {
		return trimmed + "y"
	}
	for _, suffix := range []string{"ments", "ment", "ings", "ing", "ers", "er", "es", "ed", "s"} {
		if trimmed, ok := strings.CutSuffix(w, suffix); ok && len(trimmed) >= 4 {
			return trimmed
		}
	}
	return w
}

package sofascore

import (
	"regexp"
	"strings"
)

var (
	apostropheYear = regexp.MustCompile(`'\d+`)
	bareYear       = regexp.MustCompile(`\b\d{4}\b`)
)

// Club-type abbreviations dropped when they lead the name ("FC Barcelona").
var namePrefixes = map[string]bool{
	"r.c.": true, "rc": true, "k.s.k.": true, "ksk": true,
	"f.c.": true, "fc": true, "f.k.": true, "fk": true,
	"c.f.": true, "cf": true, "s.c.": true, "sc": true, "ssc": true,
	"a.c.": true, "ac": true, "a.s.": true, "as": true,
	"u.d.": true, "ud": true, "c.d.": true, "cd": true,
	"n.k.": true, "nk": true, "b.c.": true, "bc": true, "bk": true,
}

// Trailing club words and youth/reserve/gender qualifiers. Longer phrases come
// first so "athletic club" is removed whole.
var nameSuffixes = [][]string{
	{"saudi", "club"},
	{"athletic", "club"},
	{"de", "fútbol"},
	{"y", "esgrima"},
	{"f", "c"},
	{"saudi"}, {"fc"}, {"f.c."}, {"united"}, {"city"}, {"sporting"},
	{"club"}, {"cf"}, {"sc"}, {"ac"}, {"athletic"}, {"esgrima"},
	{"reserves"}, {"reserve"}, {"ii"}, {"u23"}, {"u21"}, {"u20"}, {"u19"}, {"u18"},
	{"women"}, {"w"}, {"b"},
}

// Words ignored by the overlap test.
var matchStopwords = map[string]bool{
	"de": true, "la": true, "el": true, "cf": true, "sc": true,
	"ac": true, "as": true, "the": true, "y": true, "vs": true,
}

// overlapThreshold is the minimum shared-word ratio for a fuzzy match.
const overlapThreshold = 0.70

// NormalizeTeamName reduces a team name to a comparable form.
//
// Prefixes are only removed as the leading word and suffixes only as whole
// words after the first, so the first word always survives and "Rangers
// Reserves" becomes "rangers". The function is idempotent.
func NormalizeTeamName(name string) string {
	s := strings.ToLower(name)
	s = apostropheYear.ReplaceAllString(s, "")
	s = strings.NewReplacer("-", " ", "'", " ", "’", " ").Replace(s)
	s = bareYear.ReplaceAllString(s, "")

	words := strings.Fields(s)
	for len(words) > 1 && namePrefixes[words[0]] {
		words = words[1:]
	}
	words = stripSuffixes(words)

	return strings.Join(words, " ")
}

func stripSuffixes(words []string) []string {
	for changed := true; changed; {
		changed = false
		for _, term := range nameSuffixes {
			if i := indexPhrase(words, term); i > 0 {
				words = append(words[:i:i], words[i+len(term):]...)
				changed = true
			}
		}
	}
	return words
}

// indexPhrase returns the first index > 0 at which phrase occurs as whole
// words, or -1.
func indexPhrase(words, phrase []string) int {
	for i := 1; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// TeamsMatch reports whether two raw team names refer to the same team. It is
// symmetric: exact or substring equality of the normalized forms, or a word
// overlap of at least 70% of the smaller word set after stopword removal.
func TeamsMatch(a, b string) bool {
	na, nb := NormalizeTeamName(a), NormalizeTeamName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb || strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return wordOverlap(na, nb) >= overlapThreshold
}

func wordOverlap(a, b string) float64 {
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	common := 0
	for w := range wa {
		if wb[w] {
			common++
		}
	}
	return float64(common) / float64(min(len(wa), len(wb)))
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		if !matchStopwords[w] {
			set[w] = true
		}
	}
	return set
}

package interpreter

import (
	"regexp"
	"strings"
)

// cookingVerbs in fixed priority order: when two verbs sit equally close to
// the duration phrase, the earlier one wins.
var cookingVerbs = []string{
	"simmer", "boil", "bake", "roast", "grill", "fry", "saute", "steam",
	"braise", "poach", "sear", "toast", "blanch", "marinate", "knead",
	"proof", "rise", "reduce", "rest", "chill", "cool", "cook",
}

// foodNouns are the ingredients worth naming a timer after.
var foodNouns = []string{
	"pasta", "spaghetti", "noodles", "rice", "risotto", "chicken", "beef",
	"pork", "lamb", "fish", "salmon", "steak", "eggs", "egg", "sauce",
	"gravy", "soup", "stew", "potatoes", "potato", "bread", "dough",
	"vegetables", "veggies", "onions", "onion", "garlic", "beans",
	"lentils", "oats", "cake", "cookies",
}

var (
	verbRe = wordAlternation(cookingVerbs)
	nounRe = wordAlternation(foodNouns)
)

func wordAlternation(words []string) *regexp.Regexp {
	return regexp.MustCompile(`\b(` + strings.Join(words, "|") + `)\b`)
}

// DeriveLabel names a timer from the sentence it came from: the cooking verb
// closest to the duration phrase at anchor, tie-broken by the fixed priority
// list, then the food noun closest to that verb. Empty when the sentence
// offers nothing to name the timer after.
func DeriveLabel(text string, anchor int) string {
	text = strings.ToLower(text)

	verb, verbPos, okVerb := closestWord(verbRe, text, anchor, verbPriority)
	if !okVerb {
		if noun, _, okNoun := closestWord(nounRe, text, anchor, nil); okNoun {
			return titleWord(noun)
		}
		return ""
	}

	if noun, _, okNoun := closestWord(nounRe, text, verbPos, nil); okNoun {
		return titleWord(verb) + " " + noun
	}
	return titleWord(verb)
}

var verbPriority = func() map[string]int {
	m := make(map[string]int, len(cookingVerbs))
	for i, v := range cookingVerbs {
		m[v] = i
	}
	return m
}()

// closestWord picks the match nearest to anchor. priority, when non-nil,
// breaks distance ties; otherwise the earlier occurrence wins.
func closestWord(re *regexp.Regexp, text string, anchor int, priority map[string]int) (word string, pos int, ok bool) {
	best := -1
	for _, loc := range re.FindAllStringIndex(text, -1) {
		w := text[loc[0]:loc[1]]
		dist := loc[0] - anchor
		if dist < 0 {
			dist = -dist
		}
		switch {
		case best < 0 || dist < best:
			best, word, pos, ok = dist, w, loc[0], true
		case dist == best && priority != nil && priority[w] < priority[word]:
			word, pos = w, loc[0]
		}
	}
	return word, pos, ok
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

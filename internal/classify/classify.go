// Package classify decides whether a chat question is small talk or a
// real information request. Conversational queries skip retrieval and
// get a lightweight generation pass.
package classify

import (
	"regexp"
	"strings"
)

// Label is the classification outcome.
type Label string

const (
	// Conversational marks greetings, small talk and politeness.
	Conversational Label = "conversational"
	// Informational marks questions that should go through retrieval.
	Informational Label = "informational"
)

// query is the normalized view of a question that rules match against.
type query struct {
	lower string
	words []string
}

// rule pairs a named predicate with the label it assigns. Rules are
// evaluated in order; the first match wins.
type rule struct {
	name    string
	matches func(query) bool
	label   Label
}

// socialPrefixes match questions that open with greeting, politeness
// or small-talk phrasing. Matched against the lower-cased, trimmed
// question.
var socialPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hiya|hello|hey|howdy|greetings|good (morning|afternoon|evening|day))\b`),
	regexp.MustCompile(`^(thanks|thank you|thank u|thx|ty|much appreciated)\b`),
	regexp.MustCompile(`^(bye|goodbye|good night|see you|see ya|farewell|take care|talk to you later)\b`),
	regexp.MustCompile(`^(yes|yeah|yep|yup|no|nope|nah|ok|okay|sure|alright|fine)\b`),
	regexp.MustCompile(`^(what|who|where|when|why|how) (are|is) (you|it)\b`),
	regexp.MustCompile(`^tell me about yourself\b`),
	regexp.MustCompile(`^((can|could|will|would) you )?help( me)?\b$`),
	regexp.MustCompile(`^(sorry|my apologies|i apologize|excuse me)\b`),
	regexp.MustCompile(`^(great|awesome|cool|nice|perfect|excellent|wonderful|amazing|love it)\b`),
	regexp.MustCompile(`^please\b$`),
}

// interrogatives disqualify a short question from the length rule.
var interrogatives = map[string]bool{
	"what": true, "how": true, "why": true, "when": true,
	"where": true, "who": true, "which": true,
}

// socialWords combined with a very short question indicate small talk.
var socialWords = map[string]bool{
	"hi": true, "hiya": true, "hello": true, "hey": true,
	"thanks": true, "thank": true, "thx": true,
	"bye": true, "goodbye": true, "farewell": true,
	"yes": true, "yeah": true, "no": true, "nope": true,
	"ok": true, "okay": true, "sure": true,
	"please": true, "sorry": true,
	"cool": true, "nice": true, "great": true, "awesome": true,
}

// rules is the prioritized decision list. Everything that no
// conversational rule claims is informational.
var rules = []rule{
	{name: "social prefix", matches: matchesSocialPrefix, label: Conversational},
	{name: "short non-interrogative", matches: shortNonInterrogative, label: Conversational},
	{name: "social word in short query", matches: socialWordShort, label: Conversational},
}

// Classify labels a question. The empty question is conversational;
// there is nothing to retrieve for it.
func Classify(question string) Label {
	q := normalize(question)
	for _, r := range rules {
		if r.matches(q) {
			return r.label
		}
	}
	return Informational
}

func normalize(question string) query {
	lower := strings.ToLower(strings.TrimSpace(question))
	return query{lower: lower, words: strings.Fields(lower)}
}

func matchesSocialPrefix(q query) bool {
	for _, re := range socialPrefixes {
		if re.MatchString(q.lower) {
			return true
		}
	}
	return false
}

func shortNonInterrogative(q query) bool {
	if len(q.lower) >= 10 {
		return false
	}
	for _, w := range q.words {
		if interrogatives[strings.Trim(w, "?!.,")] {
			return false
		}
	}
	return true
}

func socialWordShort(q query) bool {
	if len(q.words) > 3 {
		return false
	}
	for _, w := range q.words {
		if socialWords[strings.Trim(w, "?!.,")] {
			return true
		}
	}
	return false
}

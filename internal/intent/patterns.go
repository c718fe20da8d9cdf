package intent

import (
	"regexp"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

type kindPattern struct {
	kind query.Kind
	re   *regexp.Regexp
}

// Checked in order; first match wins. Matching is on whole words so that
// "address" never reads as "add" and "offset" never reads as "set".
var kindPatterns = []kindPattern{
	{query.KindUpdate, regexp.MustCompile(`(?i)\b(change|update|modify|edit|set|alter)\b`)},
	{query.KindCreate, regexp.MustCompile(`(?i)\b(add|create|insert|hire|new employee)\b`)},
	{query.KindDelete, regexp.MustCompile(`(?i)\b(delete|remove|fire|terminate)\b`)},
}

// ClassifyKind picks the operation kind from lexical cues. Callers that may
// not mutate always get READ, whatever the text says.
func ClassifyKind(text string, role query.Role) query.Kind {
	if !query.MayMutate(role) {
		return query.KindRead
	}
	for _, p := range kindPatterns {
		if p.re.MatchString(text) {
			return p.kind
		}
	}
	return query.KindRead
}

var (
	knowledgeCues = regexp.MustCompile(`(?i)\b(polic(y|ies)|leaves?|holidays?|vacation|benefits?|handbook|rules?|guidelines?|eligib(le|ility)|entitle(d|ment)|allowed|reimburse(ment)?|notice period|code of conduct|promotion)\b`)
	dataCues      = regexp.MustCompile(`(?i)\b(my|me|i|am i|mine|salary|income|pay|department|dept|role|position|experience|overtime|age|rating|performance|employees?)\b`)
)

// lexicalRoute is the deterministic router used when the model cannot be asked.
func lexicalRoute(text string) ([]query.Capability, bool) {
	knowledge := knowledgeCues.MatchString(text)
	data := dataCues.MatchString(text)
	switch {
	case knowledge && data:
		return []query.Capability{query.CapData, query.CapKnowledge}, true
	case knowledge:
		return []query.Capability{query.CapKnowledge}, false
	default:
		return []query.Capability{query.CapData}, false
	}
}

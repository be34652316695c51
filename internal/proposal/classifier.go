package proposal

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Classifier decides whether a user message expresses intent to cancel the
// session's pending soft-confirm proposals. It is a pure pattern matcher,
// no model calls and no I/O, because it gates an irreversible transition
// and must stay deterministic and auditable.
//
// The pattern list is a living allow/deny list: every addition needs a
// positive and a negative case in classifier_test.go, since both failure
// directions are expensive (a missed rejection executes a write the user
// tried to stop; a phantom rejection throws away a legitimate action).
type Classifier struct {
	standalone *regexp.Regexp
	phrases    []*regexp.Regexp
	contextual []*regexp.Regexp
}

// NewClassifier compiles the rejection pattern set.
func NewClassifier() *Classifier {
	return &Classifier{
		// A message that is nothing but a single rejection word (plus
		// punctuation) is always a rejection: "no", "stop!", "wait...".
		standalone: regexp.MustCompile(`^(?:no|nope|nah|stop|cancel|wait|hold|don't)[\s.!?,…]*$`),

		// Unconditional idiomatic rejections and repeated emphatic negation.
		phrases: []*regexp.Regexp{
			regexp.MustCompile(`\bnever\s?mind\b`),
			regexp.MustCompile(`\bscratch that\b`),
			regexp.MustCompile(`\bon second thought\b`),
			regexp.MustCompile(`\bforget (?:it|that|about it)\b`),
			regexp.MustCompile(`\bchanged my mind\b`),
			regexp.MustCompile(`\bcall (?:it|that) off\b`),
			regexp.MustCompile(`\bhold off\b`),
			regexp.MustCompile(`\bno[\s,.!]+no\b`),
		},

		// Contextual triggers: the trigger word alone is not enough, it
		// needs a cancellation verb or object within the same clause.
		// Clause boundaries are sentence punctuation, so "Wait, don't do
		// that" matches while "Wait, let me think" does not.
		contextual: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:wait|hold on|hang on)\b[^.!?;]*\b(?:don't|stop|cancel|not)\b`),
			regexp.MustCompile(`\bdon't\b\s+(?:do|send|book|buy|make|create|change|update|delete|remove|charge|cancel|proceed|execute|confirm|schedule|submit|apply|publish|go)\b`),
			regexp.MustCompile(`\bdo not\b\s+(?:do|send|book|buy|make|create|change|update|delete|remove|charge|cancel|proceed|execute|confirm|schedule|submit|apply|publish|go)\b`),
			regexp.MustCompile(`\b(?:cancel|stop|abort|undo|revert)\b[^.!?;]*\b(?:that|this|it|them|the|my|everything)\b`),
		},
	}
}

// Classify reports whether the message is an attempt to cancel pending
// proposals.
func (c *Classifier) Classify(message string) bool {
	msg := normalize(message)
	if msg == "" {
		return false
	}

	if c.standalone.MatchString(msg) {
		return true
	}
	for _, re := range c.phrases {
		if re.MatchString(msg) {
			return true
		}
	}
	for _, re := range c.contextual {
		if re.MatchString(msg) {
			return true
		}
	}
	return false
}

// normalize case-folds and NFKC-normalizes the message so look-alike
// characters (fullwidth letters, ligatures) cannot dodge the patterns, and
// canonicalizes curly apostrophes which NFKC leaves alone.
func normalize(message string) string {
	msg := norm.NFKC.String(message)
	msg = strings.ToLower(msg)
	msg = strings.NewReplacer("’", "'", "‘", "'").Replace(msg)
	return strings.TrimSpace(msg)
}

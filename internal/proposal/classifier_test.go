package proposal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifierRejections(t *testing.T) {
	c := NewClassifier()

	cases := []struct {
		message string
		want    bool
	}{
		// Standalone rejection words, with and without punctuation.
		{"no", true},
		{"No", true},
		{"no!", true},
		{"stop", true},
		{"stop!!", true},
		{"cancel", true},
		{"wait", true},
		{"wait...", true},
		{"hold", true},
		{"nope", true},
		{"don't", true},

		// Contextual: trigger word plus a cancellation verb in the clause.
		{"Wait, don't do that", true},
		{"wait, stop", true},
		{"Hold on, cancel that", true},
		{"Please don't send that email", true},
		{"do not proceed with the booking", true},
		{"cancel that", true},
		{"stop it", true},
		{"undo everything", true},
		{"abort the change", true},

		// Idioms and emphatic negation.
		{"Never mind", true},
		{"nevermind", true},
		{"scratch that", true},
		{"on second thought, let's not", true},
		{"forget it", true},
		{"no no", true},
		{"No, no!", true},
		{"I changed my mind", true},
		{"hold off for now", true},

		// Not rejections: the trigger word lacks a cancellation clause.
		{"Wait, let me think", false},
		{"Actually, that looks great!", false},
		{"No, I don't have other questions", false},
		{"Stop by anytime", false},
		{"sounds good", false},
		{"yes please", false},
		{"go ahead", false},
		{"", false},
		{"   ", false},

		// Word-boundary: substrings inside unrelated words must not match.
		{"I'll await your confirmation", false},
		{"the waiter was great", false},
		{"unstoppable demand this week", false},
		{"I canceled my gym membership years ago, unrelated question", false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, c.Classify(tc.message), "message: %q", tc.message)
	}
}

func TestClassifierNormalization(t *testing.T) {
	c := NewClassifier()

	// Fullwidth characters NFKC-fold to ASCII before matching.
	assert.True(t, c.Classify("ｓｔｏｐ"))
	// Curly apostrophes canonicalize to straight ones.
	assert.True(t, c.Classify("don’t do that"))
	// Case folding.
	assert.True(t, c.Classify("NEVER MIND"))
	assert.True(t, c.Classify("WAIT, DON'T DO THAT"))
}

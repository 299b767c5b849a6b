// ABOUTME: Intent is the four-way classification of an inbound message
// ABOUTME: Used to drop channel chatter the bot was not asked about
package models

import "strings"

// Intent is the classifier outcome for a message
type Intent string

const (
	IntentQuestion         Intent = "QUESTION"
	IntentError            Intent = "ERROR"
	IntentRelatedStatement Intent = "RELATED_STATEMENT"
	IntentIgnore           Intent = "IGNORE"
)

// ParseIntent normalizes raw model output into an Intent.
// Unrecognized output maps to IntentQuestion so addressed messages are never dropped by accident.
func ParseIntent(raw string) Intent {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.Trim(s, " .,:;!\"'`*")
	s = strings.ReplaceAll(s, " ", "_")

	switch Intent(s) {
	case IntentQuestion, IntentError, IntentRelatedStatement, IntentIgnore:
		return Intent(s)
	}
	return IntentQuestion
}

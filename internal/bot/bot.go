package bot

import "strings"

// BoxBot answers a fixed rule table. Anything it does not recognize gets the
// fallback reply; there is no NLP behind it.

const fallbackReply = "Sorry, I don’t understand 🤔"

var rules = map[string]string{
	"hi":          "Hello 👋, I’m BoxBot!",
	"hello":       "Hey there! How can I help you?",
	"help":        "I can assist you with login, events, and app info.",
	"bye":         "Goodbye 👋, see you soon!",
	"who are you": "I’m BoxBot 🤖, your assistant.",
}

// Reply returns the canned answer for a message, case-insensitively.
func Reply(message string) string {
	message = strings.ToLower(strings.TrimSpace(message))
	if reply, ok := rules[message]; ok {
		return reply
	}
	return fallbackReply
}

// Package email sends registration confirmations through a transactional
// email provider.
package email

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Message is the data substituted into the confirmation template.
type Message struct {
	Name       string
	Email      string
	EventTitle string
	EventDate  string
}

// Sender delivers one confirmation email. It is not idempotent: callers
// must avoid sending twice for the same participant.
type Sender interface {
	SendRegistrationConfirmation(ctx context.Context, msg Message) error
}

// TitleCase lowercases s and capitalises the first letter of every
// space-separated word: "DIMANCHE 15 MARS À 14H" becomes
// "Dimanche 15 Mars À 14h". Letters after digits or hyphens stay lowercase.
func TitleCase(s string) string {
	words := strings.Split(cases.Lower(language.French).String(strings.TrimSpace(s)), " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 || r == utf8.RuneError {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

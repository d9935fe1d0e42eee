// Package payment talks to the payment processor. Card data never reaches
// this service: it only creates intents and reads their status back.
package payment

import (
	"context"
	"errors"
)

// StatusSucceeded is the terminal intent status that allows a registration.
const StatusSucceeded = "succeeded"

// ErrIntentNotFound is returned when the processor has no intent with the given id.
var ErrIntentNotFound = errors.New("payment intent not found")

// Intent is the subset of a processor payment intent this service reads.
type Intent struct {
	ID           string
	Status       string
	Amount       int64 // minor currency units
	Currency     string
	ClientSecret string
}

// Succeeded reports whether the processor considers the payment complete.
func (i *Intent) Succeeded() bool {
	return i.Status == StatusSucceeded
}

// MajorAmount converts the minor-unit amount to major units (3500 -> 35.00).
func (i *Intent) MajorAmount() float64 {
	return float64(i.Amount) / 100
}

// Processor creates and retrieves payment intents.
type Processor interface {
	CreateIntent(ctx context.Context, amount int64) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

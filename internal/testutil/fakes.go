package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atmosgear/skate-league/internal/email"
	"github.com/atmosgear/skate-league/internal/payment"
)

// ErrMockProvider is the default failure returned by fakes set to fail.
var ErrMockProvider = errors.New("mock provider error")

// FakeProcessor implements payment.Processor over an in-memory intent table.
type FakeProcessor struct {
	mu       sync.Mutex
	intents  map[string]*payment.Intent
	Created  []int64
	GetCalls int
	GetFunc  func(ctx context.Context, id string) (*payment.Intent, error)
}

// NewFakeProcessor returns an empty FakeProcessor.
func NewFakeProcessor() *FakeProcessor {
	return &FakeProcessor{intents: make(map[string]*payment.Intent)}
}

// AddIntent registers an intent with the given status and amount in eur.
func (f *FakeProcessor) AddIntent(id, status string, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[id] = &payment.Intent{ID: id, Status: status, Amount: amount, Currency: "eur"}
}

func (f *FakeProcessor) CreateIntent(ctx context.Context, amount int64) (*payment.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Created = append(f.Created, amount)
	id := fmt.Sprintf("pi_fake_%d", len(f.Created))
	in := &payment.Intent{
		ID:           id,
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     "eur",
		ClientSecret: id + "_secret",
	}
	f.intents[id] = in
	return in, nil
}

func (f *FakeProcessor) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	f.mu.Lock()
	f.GetCalls++
	fn := f.GetFunc
	in, ok := f.intents[id]
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	if !ok {
		return nil, payment.ErrIntentNotFound
	}
	cp := *in
	return &cp, nil
}

// FakeMailer implements email.Sender and records every attempt.
type FakeMailer struct {
	mu       sync.Mutex
	Sent     []email.Message
	Attempts int
	SendFunc func(ctx context.Context, msg email.Message) error
}

func (f *FakeMailer) SendRegistrationConfirmation(ctx context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Attempts++
	if f.SendFunc != nil {
		if err := f.SendFunc(ctx, msg); err != nil {
			return err
		}
	}
	f.Sent = append(f.Sent, msg)
	return nil
}

// SentTo returns the recipient addresses of successful sends, in order.
func (f *FakeMailer) SentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Sent))
	for i, m := range f.Sent {
		out[i] = m.Email
	}
	return out
}

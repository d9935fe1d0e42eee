package reconcile

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/atmosgear/skate-league/internal/model"
	"github.com/atmosgear/skate-league/internal/repository"
	"github.com/atmosgear/skate-league/internal/service"
)

type mapMarker map[string]bool

func (m mapMarker) Marked(pi string) bool { return m[pi] }
func (m mapMarker) Mark(pi string)        { m[pi] = true }

type mockRegistrar struct {
	RegisterFunc func(ctx context.Context, req model.RegisterRequest) (*model.Participant, error)
	Calls        int
	LastReq      model.RegisterRequest
}

func (r *mockRegistrar) RegisterParticipant(ctx context.Context, req model.RegisterRequest) (*model.Participant, error) {
	r.Calls++
	r.LastReq = req
	if r.RegisterFunc != nil {
		return r.RegisterFunc(ctx, req)
	}
	return &model.Participant{ID: "p1", PaymentIntentID: req.PaymentIntent}, nil
}

func validParams() Params {
	return Params{
		PaymentIntent:  "pi_123",
		RedirectStatus: "succeeded",
		Name:           "Alice",
		Email:          "alice@example.com",
		Phone:          "0600000000",
		EventID:        "king-15-mars",
	}
}

func TestParamsFromQuery(t *testing.T) {
	q, _ := url.ParseQuery("payment_intent=pi_1&redirect_status=succeeded&name=Alice+M&email=a%40b.c&phone=06&event_id=x&jersey=oui&jersey_size=L")
	p := ParamsFromQuery(q)
	want := Params{"pi_1", "succeeded", "Alice M", "a@b.c", "06", "x", "oui", "L"}
	if p != want {
		t.Errorf("got %+v, want %+v", p, want)
	}
}

func TestRunPaymentErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"no intent", func(p *Params) { p.PaymentIntent = "" }},
		{"no name", func(p *Params) { p.Name = "" }},
		{"no email", func(p *Params) { p.Email = "" }},
		{"no phone", func(p *Params) { p.Phone = "" }},
		{"redirect failed", func(p *Params) { p.RedirectStatus = "failed" }},
		{"redirect missing", func(p *Params) { p.RedirectStatus = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &mockRegistrar{}
			p := validParams()
			tt.mutate(&p)

			out := NewFlow(reg).Run(context.Background(), p, mapMarker{})
			if out.State != StatePaymentError {
				t.Errorf("state: got %s", out.State)
			}
			if reg.Calls != 0 {
				t.Errorf("registrar must not be called, got %d calls", reg.Calls)
			}
		})
	}
}

func TestRunSuccessMarks(t *testing.T) {
	reg := &mockRegistrar{}
	marker := mapMarker{}
	flow := NewFlow(reg)

	out := flow.Run(context.Background(), validParams(), marker)
	if out.State != StateSuccess || out.Participant == nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if !marker["pi_123"] {
		t.Error("marker not set")
	}
	if reg.LastReq.EventID != "king-15-mars" || reg.LastReq.PaymentIntent != "pi_123" {
		t.Errorf("request not forwarded: %+v", reg.LastReq)
	}

	// Refresh: the marker short-circuits the registrar.
	out = flow.Run(context.Background(), validParams(), marker)
	if out.State != StateSuccess {
		t.Errorf("replay state: got %s", out.State)
	}
	if reg.Calls != 1 {
		t.Errorf("expected 1 registrar call, got %d", reg.Calls)
	}
}

func TestRunRegistrarErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantState  State
		wantMarked bool
	}{
		{"already registered", repository.ErrAlreadyRegistered, StateSuccess, true},
		{"invalid input", service.ErrInvalidInput, StatePaymentError, false},
		{"payment not confirmed", service.ErrPaymentNotConfirmed, StatePaymentError, false},
		{"database down", errors.New("connection refused"), StateRegistrationError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &mockRegistrar{
				RegisterFunc: func(ctx context.Context, req model.RegisterRequest) (*model.Participant, error) {
					return nil, tt.err
				},
			}
			marker := mapMarker{}

			out := NewFlow(reg).Run(context.Background(), validParams(), marker)
			if out.State != tt.wantState {
				t.Errorf("state: got %s, want %s", out.State, tt.wantState)
			}
			if marker["pi_123"] != tt.wantMarked {
				t.Errorf("marked: got %v, want %v", marker["pi_123"], tt.wantMarked)
			}
		})
	}
}

func TestRunNeverReturnsLoading(t *testing.T) {
	failing := &mockRegistrar{
		RegisterFunc: func(ctx context.Context, req model.RegisterRequest) (*model.Participant, error) {
			return nil, errors.New("boom")
		},
	}
	unpaid := validParams()
	unpaid.RedirectStatus = "failed"

	outcomes := []Outcome{
		NewFlow(failing).Run(context.Background(), validParams(), mapMarker{}),
		NewFlow(failing).Run(context.Background(), unpaid, mapMarker{}),
		NewFlow(failing).Run(context.Background(), validParams(), mapMarker{"pi_123": true}),
	}
	for i, out := range outcomes {
		if out.State == StateLoading || out.State == "" {
			t.Errorf("outcome %d: non-terminal state %q", i, out.State)
		}
	}
}

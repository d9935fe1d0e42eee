package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stripe/stripe-go/v81"
)

func newTestProcessor(t *testing.T, h http.HandlerFunc) *StripeProcessor {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeProcessor("sk_test_123", "eur", "Inscription Atmos Skate League", &stripe.Backends{API: backend})
}

func TestCreateIntent(t *testing.T) {
	var form map[string]string
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_new","object":"payment_intent","status":"requires_payment_method","amount":3500,"currency":"eur","client_secret":"pi_new_secret_abc"}`))
	})

	intent, err := p.CreateIntent(context.Background(), 3500)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.ClientSecret != "pi_new_secret_abc" {
		t.Errorf("client secret: got %q", intent.ClientSecret)
	}
	if intent.Succeeded() {
		t.Error("new intent should not be succeeded")
	}

	want := map[string]string{
		"amount":                             "3500",
		"currency":                           "eur",
		"automatic_payment_methods[enabled]": "true",
		"metadata[product]":                  "Inscription Atmos Skate League",
	}
	for k, v := range want {
		if form[k] != v {
			t.Errorf("form[%s]: want %q, got %q", k, v, form[k])
		}
	}
}

func TestGetIntent(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/payment_intents/pi_123":
			_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","status":"succeeded","amount":3500,"currency":"eur"}`))
		case "/v1/payment_intents/pi_missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"resource_missing","message":"No such payment_intent","type":"invalid_request_error"}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"api_error"}}`))
		}
	})

	t.Run("succeeded", func(t *testing.T) {
		intent, err := p.GetIntent(context.Background(), "pi_123")
		if err != nil {
			t.Fatalf("GetIntent: %v", err)
		}
		if !intent.Succeeded() || intent.Amount != 3500 || intent.Currency != "eur" {
			t.Errorf("unexpected intent: %+v", intent)
		}
		if intent.MajorAmount() != 35 {
			t.Errorf("major amount: got %v", intent.MajorAmount())
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := p.GetIntent(context.Background(), "pi_missing")
		if !errors.Is(err, ErrIntentNotFound) {
			t.Fatalf("expected ErrIntentNotFound, got %v", err)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		_, err := p.GetIntent(context.Background(), "pi_broken")
		if err == nil || errors.Is(err, ErrIntentNotFound) {
			t.Fatalf("expected a generic upstream error, got %v", err)
		}
	})
}

package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBrevoURL is Brevo's transactional send endpoint.
const DefaultBrevoURL = "https://api.brevo.com/v3/smtp/email"

// BrevoClient sends template emails through the Brevo HTTP API.
type BrevoClient struct {
	apiKey     string
	url        string
	templateID int
	httpClient *http.Client
}

// NewBrevoClient constructs a BrevoClient. An empty url uses DefaultBrevoURL.
func NewBrevoClient(apiKey, url string, templateID int) *BrevoClient {
	if url == "" {
		url = DefaultBrevoURL
	}
	return &BrevoClient{
		apiKey:     apiKey,
		url:        url,
		templateID: templateID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type brevoRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type brevoRequest struct {
	To         []brevoRecipient  `json:"to"`
	TemplateID int               `json:"templateId"`
	Params     map[string]string `json:"params"`
}

// ProviderError is returned when Brevo answers with a non-2xx status.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("brevo: status %d: %s", e.StatusCode, e.Body)
}

// SendRegistrationConfirmation sends the confirmation template to msg.Email.
// Only the template params are sent; subject and sender live in the template.
func (c *BrevoClient) SendRegistrationConfirmation(ctx context.Context, msg Message) error {
	params := map[string]string{}
	if msg.EventTitle != "" {
		params["creneau"] = msg.EventTitle
	}
	if msg.EventDate != "" {
		params["date"] = TitleCase(msg.EventDate)
	}

	body, err := json.Marshal(brevoRequest{
		To:         []brevoRecipient{{Email: msg.Email, Name: msg.Name}},
		TemplateID: c.templateID,
		Params:     params,
	})
	if err != nil {
		return fmt.Errorf("encode brevo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build brevo request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("brevo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &ProviderError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

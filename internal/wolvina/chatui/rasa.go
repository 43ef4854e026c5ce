package chatui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

// BotMessage is one reply from the dialogue manager's REST channel.
type BotMessage struct {
	RecipientID string           `json:"recipient_id,omitempty"`
	Text        string           `json:"text"`
	Buttons     []tracker.Button `json:"buttons,omitempty"`
	Image       string           `json:"image,omitempty"`
}

// StatusError reports a non-200 reply from the dialogue manager.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Rasa server returned %d", e.Code)
}

// RasaClient talks to the REST input channel.
type RasaClient struct {
	webhookURL string
	http       *http.Client
}

func NewRasaClient(webhookURL string, timeout time.Duration) *RasaClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RasaClient{webhookURL: webhookURL, http: &http.Client{Timeout: timeout}}
}

// Send posts a user message and returns the bot replies.
func (c *RasaClient) Send(ctx context.Context, sender, message string) ([]BotMessage, error) {
	body, err := json.Marshal(map[string]string{"sender": sender, "message": message})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "post webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	var out []BotMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode webhook reply")
	}
	return out, nil
}

// ServerURL is the webhook URL with the REST channel path removed.
func (c *RasaClient) ServerURL() string {
	return strings.TrimSuffix(c.webhookURL, "/webhooks/rest/webhook")
}

// Status checks that the dialogue manager answers within two seconds.
func (c *RasaClient) Status(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ServerURL(), nil)
	if err != nil {
		return errors.Wrap(err, "build status request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "unable to connect to server")
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

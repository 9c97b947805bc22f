package email

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RelayMailer posts messages as JSON to an HTTP mail relay.
type RelayMailer struct {
	client *resty.Client
	url    string
	from   string
}

type relayPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

func NewRelayMailer(url, token, from string, timeout time.Duration) *RelayMailer {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &RelayMailer{client: client, url: url, from: from}
}

func (m *RelayMailer) Send(ctx context.Context, msg Message) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(relayPayload{From: m.from, To: msg.To, Subject: msg.Subject, HTML: msg.HTML, Text: msg.Text}).
		Post(m.url)
	if err != nil {
		return fmt.Errorf("mail relay: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail relay: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// whatsappAPIBase can be overridden in tests.
var whatsappAPIBase = "https://graph.facebook.com/v19.0"

// WhatsApp sends free-text messages through the WhatsApp Business Cloud API.
// The template-message contract is intentionally not supported; free text is
// the authoritative one for alerting.
type WhatsApp struct {
	Token         string
	PhoneNumberID string

	client *http.Client
}

// NewWhatsApp returns a WhatsApp channel client with the standard timeout.
func NewWhatsApp(token, phoneNumberID string) *WhatsApp {
	return &WhatsApp{
		Token:         token,
		PhoneNumberID: phoneNumberID,
		client:        &http.Client{Timeout: SendTimeout},
	}
}

// Name returns the channel name.
func (w *WhatsApp) Name() string { return "whatsapp" }

// Enabled reports whether the channel carries the credentials it needs.
func (w *WhatsApp) Enabled() bool {
	return w.Token != "" && w.PhoneNumberID != ""
}

type whatsappRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsappText `json:"text"`
}

type whatsappText struct {
	Body string `json:"body"`
}

type whatsappResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send delivers one free-text message. All failures come back inside the
// Result; nothing is raised past this boundary.
func (w *WhatsApp) Send(ctx context.Context, recipient, message string) Result {
	if !w.Enabled() {
		return notEnabled(w.Name(), recipient)
	}
	to := NormalizePhone(recipient)
	res := Result{Channel: w.Name(), Recipient: to}
	start := time.Now()

	payload := whatsappRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             whatsappText{Body: Truncate(message, WhatsAppMaxLen)},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		res.Err = fmt.Errorf("marshal whatsapp payload: %w", err)
		return res
	}

	url := fmt.Sprintf("%s/%s/messages", whatsappAPIBase, w.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		res.Err = fmt.Errorf("build whatsapp request: %w", err)
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.Token)

	resp, err := w.client.Do(req)
	if err != nil {
		res.Err = classify(w.Name(), err)
		res.Duration = time.Since(start)
		return res
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	res.Duration = time.Since(start)

	var decoded whatsappResponse
	_ = json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := decoded.Error.Message
		if msg == "" {
			msg = string(body)
		}
		res.Err = &TransportError{Channel: w.Name(), Status: resp.StatusCode, Message: msg}
		return res
	}
	if len(decoded.Messages) > 0 {
		res.MessageID = decoded.Messages[0].ID
	}
	return res
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// twilioAPIBase can be overridden in tests.
var twilioAPIBase = "https://api.twilio.com"

// SMS sends alerts through the Twilio Messages API. Non-urgent sends are
// suppressed inside the configured quiet-hours window.
type SMS struct {
	AccountSID string
	AuthToken  string
	From       string

	// InQuiet reports whether the given time falls inside quiet hours.
	// Nil means no quiet hours configured.
	InQuiet func(time.Time) bool
	// Now is an injectable clock for testing.
	Now func() time.Time

	client *http.Client
}

// NewSMS returns a Twilio SMS channel client with the standard timeout.
func NewSMS(accountSID, authToken, from string, inQuiet func(time.Time) bool) *SMS {
	return &SMS{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		InQuiet:    inQuiet,
		Now:        time.Now,
		client:     &http.Client{Timeout: SendTimeout},
	}
}

// Name returns the channel name.
func (s *SMS) Name() string { return "sms" }

// Enabled reports whether the channel carries the credentials it needs.
func (s *SMS) Enabled() bool {
	return s.AccountSID != "" && s.AuthToken != "" && s.From != ""
}

// ShouldSendCriticalSMS reports whether a critical SMS may go out at the
// given time. Inside quiet hours the answer is false no matter how long the
// triggering condition has persisted; only a forced send bypasses the window.
func (s *SMS) ShouldSendCriticalSMS(now time.Time) bool {
	if !s.Enabled() {
		return false
	}
	return s.InQuiet == nil || !s.InQuiet(now)
}

// Send delivers one SMS, honoring quiet hours. Suppressed sends return a
// ConfigError result without touching the network.
func (s *SMS) Send(ctx context.Context, recipient, message string) Result {
	if !s.Enabled() {
		return notEnabled(s.Name(), recipient)
	}
	if s.InQuiet != nil && s.InQuiet(s.now()) {
		return Result{
			Channel:   s.Name(),
			Recipient: NormalizePhone(recipient),
			Err:       &ConfigError{Channel: s.Name(), Reason: "suppressed by quiet hours"},
		}
	}
	return s.deliver(ctx, recipient, message)
}

// SendUrgent delivers one SMS regardless of quiet hours.
func (s *SMS) SendUrgent(ctx context.Context, recipient, message string) Result {
	if !s.Enabled() {
		return notEnabled(s.Name(), recipient)
	}
	return s.deliver(ctx, recipient, message)
}

func (s *SMS) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (s *SMS) deliver(ctx context.Context, recipient, message string) Result {
	to := NormalizePhone(recipient)
	res := Result{Channel: s.Name(), Recipient: to}
	start := time.Now()

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.From)
	form.Set("Body", Truncate(message, SMSMaxLen))

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", twilioAPIBase, s.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		res.Err = fmt.Errorf("build twilio request: %w", err)
		return res
	}
	req.SetBasicAuth(s.AccountSID, s.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		res.Err = classify(s.Name(), err)
		res.Duration = time.Since(start)
		return res
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	res.Duration = time.Since(start)

	var decoded twilioResponse
	_ = json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := decoded.Message
		if msg == "" {
			msg = string(body)
		}
		res.Err = &TransportError{Channel: s.Name(), Status: resp.StatusCode, Message: msg}
		return res
	}
	res.MessageID = decoded.SID
	return res
}

// Package notify provides the alert channels (WhatsApp, email, SMS) and the
// dispatcher that fans a single alert out to all of them.
//
// Channel implementations live in whatsapp.go, email.go and sms.go; the
// dispatcher in dispatch.go; alert formatting in alert.go.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// SendTimeout bounds every outbound channel request.
var SendTimeout = 30 * time.Second

// Service is the interface all channels must implement. Send never panics and
// never returns a Go error: every failure is carried inside the Result.
type Service interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, recipient, message string) Result
}

// Batcher is implemented by channels that can deliver to several recipients
// over a single transport connection while keeping per-recipient outcomes.
type Batcher interface {
	SendBatch(ctx context.Context, recipients []string, message string) Batch
}

// Result is the outcome of one delivery attempt to one recipient.
type Result struct {
	Channel   string
	Recipient string
	// MessageID is the provider-assigned identifier on success. Channels
	// whose provider assigns none synchronously generate a local one.
	MessageID string
	Duration  time.Duration
	Err       error
}

// OK reports whether the delivery succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Batch is the per-recipient outcome list of a bulk send.
type Batch []Result

// Partial reports whether the batch contains both successes and failures.
func (b Batch) Partial() bool {
	var ok, failed bool
	for _, r := range b {
		if r.OK() {
			ok = true
		} else {
			failed = true
		}
	}
	return ok && failed
}

// Failed returns the subset of results that carry an error.
func (b Batch) Failed() Batch {
	var out Batch
	for _, r := range b {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// ConfigError marks a send refused before any network I/O because the channel
// is disabled, misconfigured, or suppressed.
type ConfigError struct {
	Channel string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s %s", e.Channel, e.Reason)
}

// TransportError carries the provider's error payload for a non-2xx response.
type TransportError struct {
	Channel string
	Status  int
	Message string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s api error: status=%d message=%s", e.Channel, e.Status, e.Message)
}

// TimeoutError marks a request that did not complete within SendTimeout.
type TimeoutError struct {
	Channel string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s request timed out after %s", e.Channel, e.Timeout)
}

// notEnabled builds the standard refusal result for a disabled channel.
func notEnabled(channel, recipient string) Result {
	return Result{
		Channel:   channel,
		Recipient: recipient,
		Err:       &ConfigError{Channel: channel, Reason: "not enabled"},
	}
}

// classify converts a transport-level error into the package taxonomy.
// Timeouts (context deadline or net-level) become TimeoutError; everything
// else is passed through.
func classify(channel string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Channel: channel, Timeout: SendTimeout}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{Channel: channel, Timeout: SendTimeout}
	}
	return err
}

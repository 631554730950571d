package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/smtp"
	"strings"
	"testing"
)

// fakeSMTP records the SMTP transaction instead of talking to a server.
type fakeSMTP struct {
	mails   []string
	rcpts   []string
	bodies  []string
	resets  int
	quit    bool
	rcptErr map[string]error

	current *bytes.Buffer
}

func (f *fakeSMTP) Auth(smtp.Auth) error { return nil }

func (f *fakeSMTP) Mail(from string) error {
	f.mails = append(f.mails, from)
	return nil
}

func (f *fakeSMTP) Rcpt(to string) error {
	f.rcpts = append(f.rcpts, to)
	if err := f.rcptErr[to]; err != nil {
		return err
	}
	return nil
}

func (f *fakeSMTP) Data() (io.WriteCloser, error) {
	f.current = &bytes.Buffer{}
	return &bodyRecorder{fake: f}, nil
}

func (f *fakeSMTP) Reset() error { f.resets++; return nil }
func (f *fakeSMTP) Quit() error  { f.quit = true; return nil }
func (f *fakeSMTP) Close() error { return nil }

type bodyRecorder struct{ fake *fakeSMTP }

func (b *bodyRecorder) Write(p []byte) (int, error) { return b.fake.current.Write(p) }

func (b *bodyRecorder) Close() error {
	b.fake.bodies = append(b.fake.bodies, b.fake.current.String())
	return nil
}

func withFakeSMTP(t *testing.T, fake *fakeSMTP, dialErr error) {
	t.Helper()
	old := smtpDialHook
	smtpDialHook = func(host string, port int, user, pass string) (smtpSession, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		return fake, nil
	}
	t.Cleanup(func() { smtpDialHook = old })
}

func TestEmailSendBatch(t *testing.T) {
	fake := &fakeSMTP{}
	withFakeSMTP(t, fake, nil)

	e := NewEmail("mail.example.com", 587, "alerts@example.com", "secret")
	batch := e.SendBatch(context.Background(), []string{"a@example.com", "b@example.com"}, "2 zones offline")

	if len(batch) != 2 {
		t.Fatalf("expected 2 results, got %d", len(batch))
	}
	for _, r := range batch {
		if !r.OK() {
			t.Fatalf("unexpected failure for %s: %v", r.Recipient, r.Err)
		}
		if r.MessageID == "" {
			t.Fatalf("expected a generated message id for %s", r.Recipient)
		}
	}
	// one connection, one transaction per recipient
	if len(fake.mails) != 2 || len(fake.rcpts) != 2 || len(fake.bodies) != 2 {
		t.Fatalf("unexpected transaction counts: mails=%d rcpts=%d bodies=%d",
			len(fake.mails), len(fake.rcpts), len(fake.bodies))
	}
	if !fake.quit {
		t.Fatal("expected the session to be closed with QUIT")
	}
	if !strings.Contains(fake.bodies[0], "Subject: Zone alert") {
		t.Fatalf("missing subject header in %q", fake.bodies[0])
	}
	if !strings.Contains(fake.bodies[0], "2 zones offline") {
		t.Fatalf("missing alert text in %q", fake.bodies[0])
	}
}

func TestEmailBatchPartialFailure(t *testing.T) {
	fake := &fakeSMTP{rcptErr: map[string]error{"bad@example.com": errors.New("550 mailbox unavailable")}}
	withFakeSMTP(t, fake, nil)

	e := NewEmail("mail.example.com", 587, "alerts@example.com", "secret")
	batch := e.SendBatch(context.Background(), []string{"ok@example.com", "bad@example.com", "also-ok@example.com"}, "alert")

	if !batch.Partial() {
		t.Fatal("expected a partial batch")
	}
	failed := batch.Failed()
	if len(failed) != 1 || failed[0].Recipient != "bad@example.com" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	// rejected recipient must not poison the following transaction
	if fake.resets != 1 {
		t.Fatalf("expected 1 session reset, got %d", fake.resets)
	}
	if len(fake.bodies) != 2 {
		t.Fatalf("expected 2 delivered bodies, got %d", len(fake.bodies))
	}
}

func TestEmailDialFailureFailsWholeBatch(t *testing.T) {
	withFakeSMTP(t, nil, errors.New("connection refused"))

	e := NewEmail("mail.example.com", 587, "", "")
	batch := e.SendBatch(context.Background(), []string{"a@example.com", "b@example.com"}, "alert")

	if len(batch) != 2 {
		t.Fatalf("expected 2 results, got %d", len(batch))
	}
	for _, r := range batch {
		if r.OK() {
			t.Fatalf("expected failure for %s", r.Recipient)
		}
	}
}

func TestEmailDisabled(t *testing.T) {
	e := NewEmail("", 0, "", "")
	res := e.Send(context.Background(), "a@example.com", "hi")
	var ce *ConfigError
	if !errors.As(res.Err, &ce) {
		t.Fatalf("expected ConfigError, got %T: %v", res.Err, res.Err)
	}
	if got := res.Err.Error(); got != "email not enabled" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

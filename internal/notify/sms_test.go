package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brightears/zonewatch/internal/config"
)

func TestSMSSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "tok" {
			t.Fatalf("missing or wrong basic auth")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("invalid form: %v", err)
		}
		if r.PostForm.Get("To") != "+1234567890" || r.PostForm.Get("From") != "+15550001111" {
			t.Fatalf("unexpected form values: %v", r.PostForm)
		}
		w.WriteHeader(201)
		_, _ = w.Write([]byte(`{"sid":"SM42"}`))
	}))
	defer server.Close()

	old := twilioAPIBase
	twilioAPIBase = server.URL
	defer func() { twilioAPIBase = old }()

	s := NewSMS("AC123", "tok", "+15550001111", nil)
	res := s.Send(context.Background(), "1234567890", "hi")
	if !res.OK() {
		t.Fatalf("send failed: %v", res.Err)
	}
	if res.MessageID != "SM42" {
		t.Fatalf("expected twilio sid, got %q", res.MessageID)
	}
}

func TestSMSTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(400)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	}))
	defer server.Close()

	old := twilioAPIBase
	twilioAPIBase = server.URL
	defer func() { twilioAPIBase = old }()

	s := NewSMS("AC123", "tok", "+15550001111", nil)
	res := s.Send(context.Background(), "+1", "hi")
	var te *TransportError
	if !errors.As(res.Err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", res.Err, res.Err)
	}
	if te.Status != 400 || te.Message != "Invalid 'To' Phone Number" {
		t.Fatalf("unexpected transport error: %+v", te)
	}
}

func TestSMSQuietHours(t *testing.T) {
	cfg := &config.Config{QuietHours: "22:00-07:00"}

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(201)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer server.Close()

	old := twilioAPIBase
	twilioAPIBase = server.URL
	defer func() { twilioAPIBase = old }()

	s := NewSMS("AC123", "tok", "+15550001111", cfg.InQuietHours)
	at23 := time.Date(2026, 8, 29, 23, 0, 0, 0, time.Local)
	s.Now = func() time.Time { return at23 }

	if s.ShouldSendCriticalSMS(at23) {
		t.Fatal("critical SMS must be suppressed at 23:00 inside a 22:00-07:00 window")
	}

	res := s.Send(context.Background(), "+1234567890", "zone offline for 6h")
	if res.OK() {
		t.Fatal("expected suppression result")
	}
	var ce *ConfigError
	if !errors.As(res.Err, &ce) {
		t.Fatalf("expected ConfigError, got %T: %v", res.Err, res.Err)
	}
	if calls != 0 {
		t.Fatalf("suppressed send must not touch the network, got %d calls", calls)
	}

	// forced send bypasses the window
	if res := s.SendUrgent(context.Background(), "+1234567890", "zone offline"); !res.OK() {
		t.Fatalf("urgent send failed: %v", res.Err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one network call, got %d", calls)
	}

	// outside the window the predicate flips
	at12 := time.Date(2026, 8, 29, 12, 0, 0, 0, time.Local)
	if !s.ShouldSendCriticalSMS(at12) {
		t.Fatal("expected critical SMS to be allowed at noon")
	}
}

func TestSMSDisabled(t *testing.T) {
	s := NewSMS("", "", "", nil)
	res := s.Send(context.Background(), "+1234567890", "hi")
	var ce *ConfigError
	if !errors.As(res.Err, &ce) {
		t.Fatalf("expected ConfigError, got %T: %v", res.Err, res.Err)
	}
	if got := res.Err.Error(); got != "sms not enabled" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

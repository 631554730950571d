package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"time"

	"github.com/google/uuid"
)

// smtpSession is the subset of *smtp.Client the email channel uses.
// Kept as an interface so tests can substitute a fake transport.
type smtpSession interface {
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Reset() error
	Quit() error
	Close() error
}

// smtpDialHook allows tests to override SMTP connection setup. The default
// dials the host, upgrades with STARTTLS and authenticates.
var smtpDialHook = dialSTARTTLS

func dialSTARTTLS(host string, port int, user, pass string) (smtpSession, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := net.DialTimeout("tcp", addr, SendTimeout)
	if err != nil {
		return nil, err
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			client.Close()
			return nil, err
		}
	}
	if user != "" {
		auth := smtp.PlainAuth("", user, pass, host)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, err
		}
	}
	return client, nil
}

// Email sends alerts over SMTP. Batch sends share one connection but deliver
// one message per recipient so a rejected mailbox only fails that recipient.
type Email struct {
	Host    string
	Port    int
	User    string
	Pass    string
	Subject string
}

// NewEmail returns an email channel client.
func NewEmail(host string, port int, user, pass string) *Email {
	return &Email{Host: host, Port: port, User: user, Pass: pass, Subject: "Zone alert"}
}

// Name returns the channel name.
func (e *Email) Name() string { return "email" }

// Enabled reports whether the channel carries the configuration it needs.
func (e *Email) Enabled() bool {
	return e.Host != "" && e.Port > 0
}

// Send delivers one message to one recipient over a fresh connection.
func (e *Email) Send(ctx context.Context, recipient, message string) Result {
	if !e.Enabled() {
		return notEnabled(e.Name(), recipient)
	}
	batch := e.SendBatch(ctx, []string{recipient}, message)
	return batch[0]
}

// SendBatch delivers the message to every recipient over a single connection,
// returning one Result per recipient. A connection-level failure fails the
// whole batch; a per-recipient rejection fails only that recipient.
func (e *Email) SendBatch(ctx context.Context, recipients []string, message string) Batch {
	out := make(Batch, 0, len(recipients))
	if !e.Enabled() {
		for _, to := range recipients {
			out = append(out, notEnabled(e.Name(), to))
		}
		return out
	}

	start := time.Now()
	session, err := smtpDialHook(e.Host, e.Port, e.User, e.Pass)
	if err != nil {
		err = classify(e.Name(), err)
		for _, to := range recipients {
			out = append(out, Result{Channel: e.Name(), Recipient: to, Duration: time.Since(start), Err: err})
		}
		return out
	}
	defer session.Quit()

	for _, to := range recipients {
		select {
		case <-ctx.Done():
			out = append(out, Result{Channel: e.Name(), Recipient: to, Err: classify(e.Name(), ctx.Err())})
			continue
		default:
		}
		res := Result{Channel: e.Name(), Recipient: to}
		sendStart := time.Now()
		if err := e.sendOne(session, to, message); err != nil {
			// reset the session so the next recipient starts clean
			_ = session.Reset()
			res.Err = classify(e.Name(), err)
		} else {
			// SMTP assigns no id synchronously; generate one for the log
			res.MessageID = uuid.NewString()
		}
		res.Duration = time.Since(sendStart)
		out = append(out, res)
	}
	return out
}

func (e *Email) sendOne(session smtpSession, to, message string) error {
	from := e.User
	if from == "" {
		from = "zonewatch@" + e.Host
	}
	if err := session.Mail(from); err != nil {
		return err
	}
	if err := session.Rcpt(to); err != nil {
		return err
	}
	w, err := session.Data()
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s",
		from, to, e.Subject, message)
	if _, err := w.Write([]byte(msg)); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

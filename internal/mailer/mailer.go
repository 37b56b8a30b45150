// Package mailer builds MIME messages and delivers them over SMTP.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

// ErrNotConfigured is returned by Send when no SMTP relay is configured.
var ErrNotConfigured = errors.New("mailer: no smtp relay configured")

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is an outgoing mail.
type Message struct {
	From        mail.Address
	To          []mail.Address
	ReplyTo     *mail.Address
	Subject     string
	Body        string
	HTML        bool
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

// SMTPMailer sends messages through an SMTP relay.
type SMTPMailer struct {
	addr string
	auth sasl.Client
	send sendFunc
	now  func() time.Time
}

var _ Sender = (*SMTPMailer)(nil)

// NewSMTPMailer returns a mailer relaying through addr ("host:port").
// PLAIN authentication is used when username is set.
func NewSMTPMailer(addr, username, password string) *SMTPMailer {
	m := &SMTPMailer{addr: addr, send: deliver, now: time.Now}
	if username != "" {
		m.auth = sasl.NewPlainClient("", username, password)
	}
	return m
}

// deliver runs one SMTP transaction. The relay is reached over STARTTLS
// when it advertises the extension and in plaintext otherwise.
func deliver(addr string, a sasl.Client, from string, to []string, r io.Reader) error {
	c, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	if ok, _ := c.Extension("STARTTLS"); ok {
		_ = c.Close()
		if c, err = smtp.DialStartTLS(addr, nil); err != nil {
			return err
		}
	}
	defer c.Close()

	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server doesn't support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.SendMail(from, to, r); err != nil {
		return err
	}
	return c.Quit()
}

// Available reports whether a relay is configured.
func (m *SMTPMailer) Available() bool { return m.addr != "" }

// Send builds msg and hands it to the relay.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.addr == "" {
		return ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return errors.New("mailer: message has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := Build(msg, m.now())
	if err != nil {
		return err
	}
	to := make([]string, len(msg.To))
	for i, a := range msg.To {
		to[i] = a.Address
	}
	if err := m.send(m.addr, m.auth, msg.From.Address, to, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", strings.Join(to, ","), err)
	}
	return nil
}

// Build renders msg as an RFC 5322 message.
func Build(msg Message, date time.Time) ([]byte, error) {
	var buf bytes.Buffer
	h := textproto.MIMEHeader{}
	h.Set("From", msg.From.String())
	to := make([]string, len(msg.To))
	for i, a := range msg.To {
		to[i] = a.String()
	}
	h.Set("To", strings.Join(to, ", "))
	if msg.ReplyTo != nil {
		h.Set("Reply-To", msg.ReplyTo.String())
	}
	h.Set("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	h.Set("Date", date.Format(time.RFC1123Z))
	h.Set("Message-ID", "<"+uuid.NewString()+"@formicula>")
	h.Set("MIME-Version", "1.0")

	bodyType := "text/plain; charset=utf-8"
	if msg.HTML {
		bodyType = "text/html; charset=utf-8"
	}

	if len(msg.Attachments) == 0 {
		h.Set("Content-Type", bodyType)
		h.Set("Content-Transfer-Encoding", "quoted-printable")
		writeHeader(&buf, h)
		if err := writeQuotedPrintable(&buf, msg.Body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	h.Set("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	// The header goes in front of the first part the writer emits.
	var head bytes.Buffer
	writeHeader(&head, h)

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {bodyType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeQuotedPrintable(part, msg.Body); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {ct},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, a.Content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return append(head.Bytes(), buf.Bytes()...), nil
}

func writeHeader(w *bytes.Buffer, h textproto.MIMEHeader) {
	for _, k := range []string{"From", "To", "Reply-To", "Subject", "Date", "Message-ID", "MIME-Version", "Content-Type", "Content-Transfer-Encoding"} {
		if v := h.Get(k); v != "" {
			fmt.Fprintf(w, "%s: %s\r\n", k, v)
		}
	}
	w.WriteString("\r\n")
}

func writeQuotedPrintable(w io.Writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := io.WriteString(w, encoded[:76]+"\r\n"); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err := io.WriteString(w, encoded+"\r\n")
	return err
}

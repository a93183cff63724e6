package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/smtp"
	"strings"
	"time"
)

const smtpHost = "smtp.gmail.com"
const smtpAddr = "smtp.gmail.com:587"

var verifyTmpl = template.Must(template.New("verify").Parse(`<html>
<body>
  <p>Welcome to Contactbook!</p>
  <p>Please confirm your email address by clicking the link below:</p>
  <p><a href="{{.Link}}">Verify my email</a></p>
  <p>If you did not create an account, you can ignore this message.</p>
</body>
</html>`))

var resetTmpl = template.Must(template.New("reset").Parse(`<html>
<body>
  <p>A password reset was requested for your Contactbook account.</p>
  <p><a href="{{.Link}}">Choose a new password</a></p>
  <p>The link expires shortly. If you did not request this, ignore this message.</p>
</body>
</html>`))

// SMTPMailer sends mail directly over Gmail SMTP with STARTTLS. Used when
// MAIL_PROVIDER=smtp, i.e. when no mail worker sits behind the queue.
type SMTPMailer struct {
	user     string
	appPass  string
	from     string
	fromName string
	subject  string
}

func NewSMTPMailer(user, appPass, from, fromName, subject string) *SMTPMailer {
	return &SMTPMailer{
		user:     user,
		appPass:  appPass,
		from:     from,
		fromName: fromName,
		subject:  subject,
	}
}

func (s *SMTPMailer) SendVerification(ctx context.Context, userID uint, to, link string) error {
	return s.send(ctx, to, s.subject, verifyTmpl, link)
}

func (s *SMTPMailer) SendPasswordReset(ctx context.Context, userID uint, to, link string) error {
	return s.send(ctx, to, "Reset your password", resetTmpl, link)
}

func (s *SMTPMailer) send(ctx context.Context, to, subject string, tmpl *template.Template, link string) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, map[string]string{"Link": link}); err != nil {
		return err
	}

	fromHeader := fmt.Sprintf("%s <%s>", s.fromName, s.from)
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		body.String(),
	}, "\r\n")

	log.Printf("[MAIL] smtp sending to=%s via=%s", to, smtpAddr)

	if err := s.sendSMTPWithTimeout(ctx, to, []byte(msg)); err != nil {
		return err
	}

	log.Printf("[MAIL] sent to=%s", to)
	return nil
}

func (s *SMTPMailer) sendSMTPWithTimeout(ctx context.Context, to string, msg []byte) error {
	dialer := net.Dialer{Timeout: 8 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", smtpAddr)
	if err != nil {
		return err
	}
	// deadline covers the whole session so a stalled server cannot hang us
	_ = conn.SetDeadline(sessionDeadline(ctx, time.Now()))

	c, err := smtp.NewClient(conn, smtpHost)
	if err != nil {
		return err
	}
	defer func() { _ = c.Quit() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: smtpHost}); err != nil {
			return err
		}
	}

	auth := smtp.PlainAuth("", s.user, s.appPass, smtpHost)
	if err := c.Auth(auth); err != nil {
		return err
	}

	if err := c.Mail(s.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// sessionDeadline caps the whole SMTP exchange at 15s, tightened further when
// the caller's context expires sooner.
func sessionDeadline(ctx context.Context, now time.Time) time.Time {
	deadline := now.Add(15 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}

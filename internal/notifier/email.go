// Package notifier delivers best-effort admin emails about new comments.
// Delivery failures are the caller's to log; they never affect whether a
// comment was created.
package notifier

import (
	"crypto/tls"
	"fmt"
	"html"
	"math/rand"
	"mime"
	"net"
	"net/smtp"
	"time"

	"github.com/commentable-dev/commentable/internal/config"
	"github.com/commentable-dev/commentable/internal/domain"
	"github.com/commentable-dev/commentable/internal/logger"
	"github.com/commentable-dev/commentable/internal/markdown"
)

type Email struct {
	cfg      config.Mail
	auth     smtp.Auth
	username string
	renderer *markdown.Renderer
}

func New(cfg config.Mail, username, password string, renderer *markdown.Renderer) *Email {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, cfg.SMTPServer)
	}
	return &Email{
		cfg:      cfg,
		auth:     auth,
		username: username,
		renderer: renderer,
	}
}

// Enabled reports whether admin notifications are configured at all.
func (e *Email) Enabled() bool {
	return e.cfg.AdminEmail != "" && e.cfg.SMTPServer != ""
}

// NotifyAdmin mails the admin a rendered preview of the comment and the
// link that deletes it. The link embeds the backend row id and its derived
// token; nothing else ever exposes the row id.
func (e *Email) NotifyAdmin(c domain.Comment, rowID int64, token string) error {
	if !e.Enabled() {
		logger.Log.Debug("admin notifications disabled, skipping", "comment_id", c.CommentID)
		return nil
	}

	subject := fmt.Sprintf("[NEW COMMENT] User: %s", c.Username)
	deleteLink := fmt.Sprintf("%s/comments/delete/%d/%s", e.cfg.AdminDomain, rowID, token)
	body := fmt.Sprintf(
		"<p>Comment from %s on %s</p>\n%s\n<p><a href=\"%s\">Delete this comment</a></p>\n",
		html.EscapeString(c.Username),
		html.EscapeString(c.ItemID),
		e.renderer.Render(c.Message),
		deleteLink,
	)

	msg := e.buildMessage(e.cfg.AdminEmail, subject, body)
	address := fmt.Sprintf("%s:%d", e.cfg.SMTPServer, e.cfg.SMTPPort)

	// Port 465 = implicit TLS, otherwise STARTTLS
	if e.cfg.SMTPPort == 465 {
		return e.sendImplicitTLS(address, e.cfg.AdminEmail, msg)
	}
	return e.sendSTARTTLS(address, e.cfg.AdminEmail, msg)
}

func (e *Email) timeout() time.Duration {
	timeout := time.Duration(e.cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return timeout
}

// sendImplicitTLS sends email over a connection that is TLS from the start (port 465).
func (e *Email) sendImplicitTLS(address, recipient string, msg []byte) error {
	tlsConfig := &tls.Config{ServerName: e.cfg.SMTPServer}

	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: e.timeout()}, "tcp", address, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server %s: %w", address, err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.cfg.SMTPServer)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	return e.sendViaClient(client, recipient, msg)
}

// sendSTARTTLS sends email by upgrading a plain connection to TLS (port 587).
func (e *Email) sendSTARTTLS(address, recipient string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", address, e.timeout())
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server %s: %w", address, err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.cfg.SMTPServer)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: e.cfg.SMTPServer}
	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	return e.sendViaClient(client, recipient, msg)
}

// sendViaClient performs auth, sets sender/recipient, and sends the message body.
func (e *Email) sendViaClient(client *smtp.Client, recipient string, msg []byte) error {
	if e.auth != nil {
		if err := client.Auth(e.auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(e.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

func generateMessageID(domain string) string {
	t := time.Now().UnixNano()
	pid := rand.Int63()
	return fmt.Sprintf("<%d.%d@%s>", t, pid, domain)
}

func (e *Email) buildMessage(recipient, subject, body string) []byte {
	encodedSubject := mime.QEncoding.Encode("utf-8", subject)
	encodedSenderName := mime.QEncoding.Encode("utf-8", e.cfg.SenderName)

	msgID := generateMessageID(e.cfg.SMTPServer)
	date := time.Now().Format(time.RFC1123Z)

	return fmt.Appendf(nil,
		"Message-ID: %s\r\n"+
			"Date: %s\r\n"+
			"To: %s\r\n"+
			"From: %s <%s>\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"utf-8\"\r\n"+
			"\r\n"+
			"%s",
		msgID, date, recipient, encodedSenderName, e.cfg.From, encodedSubject, body,
	)
}

package email

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"fmt"
	"html"
	"math/big"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Kind names a notification checkpoint.
type Kind string

const (
	KindApplicationReceived Kind = "ApplicationReceived"
	KindActivationConfirmed Kind = "ActivationConfirmed"
	KindSubmissionReceived  Kind = "SubmissionReceived"
	KindReferralForwarded   Kind = "ReferralForwarded"
	KindSessionScheduled    Kind = "SessionScheduled"
	KindRequestCompleted    Kind = "RequestCompleted"
	KindRequestRejected     Kind = "RequestRejected"
)

// Payload is the data a notification body is rendered from. Only the fields
// relevant to the kind need to be set.
type Payload struct {
	ToEmail       string
	ToName        string
	StudentID     string
	Course        string
	Department    string
	Username      string
	Password      string
	RequestID     string
	RequestKind   string
	Status        string
	Notes         string
	ScheduledDate *time.Time
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	BaseURL   string
}

// Dispatcher sends notifications over SMTP. Without credentials it only logs
// the message, which keeps local development working.
type Dispatcher struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(config SMTPConfig, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		config: config,
		logger: logger,
	}
}

// Send renders and delivers one notification.
func (d *Dispatcher) Send(ctx context.Context, kind Kind, payload Payload) error {
	if strings.TrimSpace(payload.ToEmail) == "" {
		return fmt.Errorf("notification %s has no recipient", kind)
	}
	subject, body, err := render(kind, payload, d.config.BaseURL)
	if err != nil {
		return err
	}

	if d.config.Username == "" || d.config.Password == "" {
		d.logger.Warn().
			Str("kind", string(kind)).
			Str("toEmail", payload.ToEmail).
			Str("subject", subject).
			Msg("SMTP credentials not configured - notification not sent")
		return nil
	}

	if err := d.sendHTMLEmail(ctx, payload.ToEmail, subject, body); err != nil {
		d.logger.Error().Err(err).Str("kind", string(kind)).Str("toEmail", payload.ToEmail).Msg("Failed to send notification")
		return err
	}
	d.logger.Info().Str("kind", string(kind)).Str("toEmail", payload.ToEmail).Msg("Notification sent")
	return nil
}

func render(kind Kind, p Payload, baseURL string) (string, string, error) {
	name := html.EscapeString(p.ToName)
	var subject, content string

	switch kind {
	case KindApplicationReceived:
		subject = "Your CARE Center Application Has Been Received"
		content = fmt.Sprintf(`<p>Hello %s,</p>
				<p>We received your application for <strong>%s</strong>. Use these credentials to sign in on your test day:</p>
				<p>Username: <strong>%s</strong><br>Password: <strong>%s</strong></p>
				<p>Portal: %s</p>`,
			name, html.EscapeString(p.Course), html.EscapeString(p.Username), html.EscapeString(p.Password), html.EscapeString(baseURL))
	case KindActivationConfirmed:
		subject = "Your Student Account Is Now Active"
		content = fmt.Sprintf(`<p>Hello %s,</p>
				<p>Your student account <strong>%s</strong> for %s (%s) has been activated. You can now sign in with your student credentials.</p>`,
			name, html.EscapeString(p.StudentID), html.EscapeString(p.Course), html.EscapeString(p.Department))
	case KindSubmissionReceived:
		subject = fmt.Sprintf("Your %s Request Was Submitted", title(p.RequestKind))
		content = fmt.Sprintf(`<p>Hello %s,</p>
				<p>Your %s request <strong>%s</strong> has been received by the CARE Center. We will let you know once it is reviewed.</p>`,
			name, html.EscapeString(strings.ToLower(p.RequestKind)), html.EscapeString(p.RequestID))
	case KindReferralForwarded:
		subject = fmt.Sprintf("Your %s Request Was Referred", title(p.RequestKind))
		content = fmt.Sprintf(`<p>Hello %s,</p>
				<p>Your request <strong>%s</strong> was referred to the CARE Center by %s.</p>`,
			name, html.EscapeString(p.RequestID), html.EscapeString(p.Department))
	case KindSessionScheduled:
		when := "to be announced"
		if p.ScheduledDate != nil {
			when = p.ScheduledDate.Format("Monday, January 2, 2006 3:04 PM")
		}
		subject = "Your CARE Center Session Has Been Scheduled"
		content = fmt.Sprintf(`<p>Hello %s,</p>
				<p>Your session for request <strong>%s</strong> is scheduled on <strong>%s</strong>.</p>`,
			name, html.EscapeString(p.RequestID), html.EscapeString(when))
	case KindRequestCompleted:
		subject = fmt.Sprintf("Your %s Request Is Complete", title(p.RequestKind))
		content = fmt.Sprintf(`<p>Hello %s,</p>
				<p>Your request <strong>%s</strong> has been completed.</p>
				<p>Notes: %s</p>
				<p>You can now rate your experience from the student portal.</p>`,
			name, html.EscapeString(p.RequestID), html.EscapeString(p.Notes))
	case KindRequestRejected:
		subject = fmt.Sprintf("Update On Your %s Request", title(p.RequestKind))
		content = fmt.Sprintf(`<p>Hello %s,</p>
				<p>Your request <strong>%s</strong> could not be accommodated.</p>
				<p>Notes: %s</p>`,
			name, html.EscapeString(p.RequestID), html.EscapeString(p.Notes))
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", kind)
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">%s</h2>
				%s
				<p>Best regards,<br>The CARE Center Team</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(subject), content)
	return subject, body, nil
}

func title(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return "Service"
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}

// sendHTMLEmail sends an HTML email
func (d *Dispatcher) sendHTMLEmail(ctx context.Context, toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", d.config.Username, d.config.Password, d.config.Host)

	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", d.config.FromName, d.config.FromEmail)},
		{"To", toEmail},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}
	var message strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&message, "%s: %s\r\n", h[0], h[1])
	}
	message.WriteString("\r\n" + htmlBody)

	serverAddress := net.JoinHostPort(d.config.Host, strconv.Itoa(d.config.Port))

	var conn net.Conn
	var err error
	if d.config.UseTLS {
		dialer := &tls.Dialer{Config: &tls.Config{ServerName: d.config.Host}}
		conn, err = dialer.DialContext(ctx, "tcp", serverAddress)
	} else {
		var dialer net.Dialer
		conn, err = dialer.DialContext(ctx, "tcp", serverAddress)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, d.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if !d.config.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err = client.StartTLS(&tls.Config{ServerName: d.config.Host}); err != nil {
				return fmt.Errorf("STARTTLS failed: %w", err)
			}
		}
	}

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(d.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write([]byte(message.String())); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}

// GeneratePassword returns a random alphanumeric secret of length n for
// generated portal credentials.
func GeneratePassword(n int) (string, error) {
	const chars = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	result := make([]byte, n)
	limit := big.NewInt(int64(len(chars)))
	for i := range result {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		result[i] = chars[idx.Int64()]
	}
	return string(result), nil
}

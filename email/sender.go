package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"FieldOps/Alerts"
	"FieldOps/Config"
	"FieldOps/Models"
)

// ConfigFrom maps the smtp section of the app config.
func ConfigFrom(cfg Config.SMTPConfig) Models.MailServer {
	return Models.MailServer{
		Host:        cfg.Server,
		Port:        cfg.Port,
		Username:    cfg.Username,
		Password:    cfg.Password,
		From:        cfg.FromEmail,
		SenderName:  cfg.FromName,
		ImplicitTLS: cfg.TLSEnabled,
		Insecure:    cfg.SkipTLSCheck,
	}
}

// buildMessage renders headers and a plain text body. Header order is fixed.
func buildMessage(config Models.MailServer, message Models.MailMessage) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", config.SenderName, config.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(message.To, ", "))
	if len(message.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(message.CC, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", message.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(message.Text, "\n", "\r\n"))
	return []byte(b.String())
}

func recipients(message Models.MailMessage) []string {
	var all []string
	all = append(all, message.To...)
	all = append(all, message.CC...)
	return all
}

// SendEmail sends an email using the provided configuration and message details
func SendEmail(config Models.MailServer, message Models.MailMessage) error {
	body := buildMessage(config, message)
	to := recipients(message)
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	// Set up authentication
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	serverAddr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	if !config.ImplicitTLS {
		// Standard SMTP, upgraded with STARTTLS when the server offers it
		return smtp.SendMail(serverAddr, auth, config.From, to, body)
	}

	tlsConfig := &tls.Config{
		ServerName:         config.Host,
		InsecureSkipVerify: config.Insecure,
	}
	conn, err := tls.Dial("tcp", serverAddr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err = client.Mail(config.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data connection: %w", err)
	}
	if _, err = w.Write(body); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data connection: %w", err)
	}
	return client.Quit()
}

// Notifier mails the follow-up digest to a fixed recipient list and copies
// every assignee that has overdue items.
type Notifier struct {
	Config Models.MailServer
	To     []string
	Send   func(Models.MailServer, Models.MailMessage) error
}

func NewNotifier(config Models.MailServer, to []string) *Notifier {
	return &Notifier{Config: config, To: to, Send: SendEmail}
}

func (n *Notifier) Name() string { return "email" }

// copied lists assignee addresses not already in To, in digest order.
func (n *Notifier) copied(digest Alerts.Digest) []string {
	seen := make(map[string]bool, len(n.To))
	for _, to := range n.To {
		seen[strings.ToLower(to)] = true
	}
	var cc []string
	for _, g := range digest.Groups {
		key := strings.ToLower(g.Email)
		if g.Email == "" || seen[key] {
			continue
		}
		seen[key] = true
		cc = append(cc, g.Email)
	}
	return cc
}

func (n *Notifier) Notify(ctx context.Context, digest Alerts.Digest) error {
	if len(n.To) == 0 {
		return errors.New("no digest recipients configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.Send(n.Config, Models.MailMessage{
		To:      n.To,
		CC:      n.copied(digest),
		Subject: fmt.Sprintf("Overdue valve follow-ups (%d) - %s", digest.Total(), digest.Date),
		Text:    digest.Text(),
	})
}

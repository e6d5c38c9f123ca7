package email

import (
	"context"
	"strings"
	"testing"

	"FieldOps/Alerts"
	"FieldOps/Config"
	"FieldOps/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	cfg := Models.MailServer{SenderName: "FieldOps", From: "ops@example.com"}
	raw := string(buildMessage(cfg, Models.MailMessage{
		To:      []string{"a@example.com", "b@example.com"},
		CC:      []string{"c@example.com"},
		Subject: "Digest",
		Text:    "line one\nline two",
	}))

	headers, body, found := strings.Cut(raw, "\r\n\r\n")
	require.True(t, found)
	assert.Equal(t, []string{
		"From: FieldOps <ops@example.com>",
		"To: a@example.com, b@example.com",
		"Cc: c@example.com",
		"Subject: Digest",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}, strings.Split(headers, "\r\n"))
	assert.Equal(t, "line one\r\nline two", body)
}

func TestBuildMessageWithoutCC(t *testing.T) {
	raw := string(buildMessage(Models.MailServer{}, Models.MailMessage{To: []string{"a"}}))
	assert.NotContains(t, raw, "Cc:")
}

func TestRecipientsIncludeCC(t *testing.T) {
	got := recipients(Models.MailMessage{To: []string{"a"}, CC: []string{"b", "c"}})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSendEmailWithoutRecipients(t *testing.T) {
	err := SendEmail(Models.MailServer{Host: "localhost", Port: 25}, Models.MailMessage{Subject: "x"})
	assert.EqualError(t, err, "no recipients")
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(Config.SMTPConfig{Server: "smtp.example.com", Port: 465, FromName: "FieldOps", TLSEnabled: true})
	assert.Equal(t, "smtp.example.com", cfg.Host)
	assert.Equal(t, 465, cfg.Port)
	assert.True(t, cfg.ImplicitTLS)
}

func TestNotifierSendsDigest(t *testing.T) {
	var sent Models.MailMessage
	n := &Notifier{
		To: []string{"manager@example.com"},
		Send: func(cfg Models.MailServer, msg Models.MailMessage) error {
			sent = msg
			return nil
		},
	}
	digest := Alerts.Digest{Date: "2024-03-10", Groups: []Alerts.DigestGroup{{
		Assignee: "Unassigned",
		Items:    []Alerts.OverdueItem{{Client: "Acme", Tag: "V-1", IssueType: "leak", DueDate: "2024-03-01", DaysOverdue: 9}},
	}}}

	require.NoError(t, n.Notify(context.Background(), digest))
	assert.Equal(t, []string{"manager@example.com"}, sent.To)
	assert.Empty(t, sent.CC)
	assert.Equal(t, "Overdue valve follow-ups (1) - 2024-03-10", sent.Subject)
	assert.Contains(t, sent.Text, "Acme: V-1 leak")
}

func TestNotifierNeedsRecipients(t *testing.T) {
	n := NewNotifier(Models.MailServer{}, nil)
	assert.Error(t, n.Notify(context.Background(), Alerts.Digest{}))
}

func TestNotifierHonoursCancelledContext(t *testing.T) {
	called := false
	n := &Notifier{To: []string{"a@example.com"}, Send: func(Models.MailServer, Models.MailMessage) error {
		called = true
		return nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Notify(ctx, Alerts.Digest{}), context.Canceled)
	assert.False(t, called)
}

func TestNotifierCopiesAssignees(t *testing.T) {
	var sent Models.MailMessage
	n := &Notifier{
		To: []string{"Manager@example.com"},
		Send: func(cfg Models.MailServer, msg Models.MailMessage) error {
			sent = msg
			return nil
		},
	}
	item := Alerts.OverdueItem{Client: "Acme", Tag: "V-1", IssueType: "leak", DueDate: "2024-03-01", DaysOverdue: 9}
	digest := Alerts.Digest{Date: "2024-03-10", Groups: []Alerts.DigestGroup{
		{Assignee: "Zoe Tech", Email: "zoe@example.com", Items: []Alerts.OverdueItem{item}},
		{Assignee: "Mia Manager", Email: "manager@example.com", Items: []Alerts.OverdueItem{item}},
		{Assignee: "Unassigned", Items: []Alerts.OverdueItem{item}},
	}}

	require.NoError(t, n.Notify(context.Background(), digest))
	assert.Equal(t, []string{"zoe@example.com"}, sent.CC)
}

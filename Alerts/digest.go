package Alerts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// OverdueItem is one open valve follow-up past its due date.
type OverdueItem struct {
	FollowupID  uint   `json:"followup_id"`
	Client      string `json:"client"`
	Tag         string `json:"tag"`
	IssueType   string `json:"issue_type"`
	DueDate     string `json:"due_date"`
	DaysOverdue int    `json:"days_overdue"`
}

// DigestGroup collects the overdue items of one assignee. AssigneeID is
// nil for follow-ups nobody owns.
type DigestGroup struct {
	AssigneeID *uint         `json:"assignee_id"`
	Assignee   string        `json:"assignee"`
	Email      string        `json:"-"`
	FCMToken   string        `json:"-"`
	Items      []OverdueItem `json:"items"`
}

type Digest struct {
	Date   string        `json:"date"`
	Groups []DigestGroup `json:"groups"`
}

func (d Digest) Total() int {
	total := 0
	for _, g := range d.Groups {
		total += len(g.Items)
	}
	return total
}

func (d Digest) Empty() bool {
	return d.Total() == 0
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Text renders the digest as plain text for chat and e-mail.
func (d Digest) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overdue valve follow-ups as of %s: %d\n", d.Date, d.Total())
	for _, g := range d.Groups {
		fmt.Fprintf(&b, "\n%s (%d)\n", g.Assignee, len(g.Items))
		for _, item := range g.Items {
			fmt.Fprintf(&b, "  - %s: %s %s, due %s (%s overdue)\n",
				item.Client, item.Tag, item.IssueType, item.DueDate, plural(item.DaysOverdue, "day"))
		}
	}
	return b.String()
}

// Notifier delivers a digest to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, digest Digest) error
}

// Dispatch sends the digest through every notifier. A failing notifier is
// logged and does not stop the others; the failures are returned joined.
func Dispatch(ctx context.Context, digest Digest, notifiers ...Notifier) error {
	if digest.Empty() {
		log.Printf("No overdue follow-ups on %s, digest not sent", digest.Date)
		return nil
	}

	var errs []error
	for _, n := range notifiers {
		if err := n.Notify(ctx, digest); err != nil {
			log.Printf("Error sending digest via %s: %v", n.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		log.Printf("Digest of %s sent via %s", plural(digest.Total(), "follow-up"), n.Name())
	}
	return errors.Join(errs...)
}

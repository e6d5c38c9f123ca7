package Slack

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"FieldOps/Alerts"

	"github.com/slack-go/slack"
)

// API is the part of *slack.Client the digest needs.
// Required Bot Token Scopes:
// - chat:write (send messages)
// - pins:write (pin/unpin messages)
// - pins:read (list pinned messages)
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	AddPinContext(ctx context.Context, channel string, item slack.ItemRef) error
	ListPinsContext(ctx context.Context, channel string) ([]slack.Item, *slack.Paging, error)
	RemovePinContext(ctx context.Context, channel string, item slack.ItemRef) error
}

// Notifier posts the follow-up digest to a channel. With Pin set the new
// digest is pinned and earlier digests are unpinned.
type Notifier struct {
	API     API
	Channel string
	Pin     bool
}

func NewNotifier(token, channel string) *Notifier {
	return &Notifier{
		API:     slack.New(token),
		Channel: channel,
		Pin:     true,
	}
}

func (n *Notifier) Name() string { return "slack" }

// digestPrefix marks pinned messages that are earlier digests.
const digestPrefix = "Overdue valve follow-ups"

func (n *Notifier) Notify(ctx context.Context, digest Alerts.Digest) error {
	if n.Channel == "" {
		return errors.New("slack channel not configured")
	}
	text := digest.Text()
	_, ts, err := n.API.PostMessageContext(ctx, n.Channel,
		slack.MsgOptionText(fmt.Sprintf("```%s```", text), false),
	)
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	if !n.Pin {
		return nil
	}

	if err := n.API.AddPinContext(ctx, n.Channel, slack.NewRefToMessage(n.Channel, ts)); err != nil {
		log.Printf("Could not pin digest %s: %v", ts, err)
		return nil
	}
	n.unpinOld(ctx, ts)
	return nil
}

// unpinOld removes pins of earlier digests posted by the bot.
func (n *Notifier) unpinOld(ctx context.Context, keep string) {
	items, _, err := n.API.ListPinsContext(ctx, n.Channel)
	if err != nil {
		log.Printf("Warning: Could not list pinned messages: %v", err)
		return
	}
	removed := 0
	for _, item := range items {
		msg := item.Message
		if msg == nil || msg.BotID == "" || msg.Timestamp == keep {
			continue
		}
		if !strings.Contains(msg.Text, digestPrefix) {
			continue
		}
		if err := n.API.RemovePinContext(ctx, n.Channel, slack.NewRefToMessage(n.Channel, msg.Timestamp)); err != nil {
			log.Printf("Could not unpin message %s: %v", msg.Timestamp, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Printf("Unpinned %d old digests", removed)
	}
}

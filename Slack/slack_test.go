package Slack

import (
	"context"
	"errors"
	"testing"

	"FieldOps/Alerts"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	posted   int
	postErr  error
	pinned   []string
	unpinned []string
	pins     []slack.Item
}

func (f *fakeAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	if f.postErr != nil {
		return "", "", f.postErr
	}
	f.posted++
	return channelID, "1710000000.000200", nil
}

func (f *fakeAPI) AddPinContext(ctx context.Context, channel string, item slack.ItemRef) error {
	f.pinned = append(f.pinned, item.Timestamp)
	return nil
}

func (f *fakeAPI) ListPinsContext(ctx context.Context, channel string) ([]slack.Item, *slack.Paging, error) {
	return f.pins, &slack.Paging{}, nil
}

func (f *fakeAPI) RemovePinContext(ctx context.Context, channel string, item slack.ItemRef) error {
	f.unpinned = append(f.unpinned, item.Timestamp)
	return nil
}

func pin(ts, botID, text string) slack.Item {
	msg := &slack.Message{}
	msg.Timestamp = ts
	msg.BotID = botID
	msg.Text = text
	return slack.Item{Type: "message", Message: msg}
}

func digest() Alerts.Digest {
	id := uint(1)
	return Alerts.Digest{
		Date: "2024-03-10",
		Groups: []Alerts.DigestGroup{{
			AssigneeID: &id,
			Assignee:   "Jane Tech",
			Items:      []Alerts.OverdueItem{{Client: "Acme", Tag: "V-1", IssueType: "leak", DueDate: "2024-03-01", DaysOverdue: 9}},
		}},
	}
}

func TestNotifyPinsAndUnpinsOldDigests(t *testing.T) {
	api := &fakeAPI{pins: []slack.Item{
		pin("1700000000.000100", "B1", "```Overdue valve follow-ups as of 2024-03-09: 2```"),
		pin("1700000000.000101", "", "Overdue valve follow-ups typed by a person"),
		pin("1700000000.000102", "B1", "Team rota"),
		pin("1710000000.000200", "B1", "```Overdue valve follow-ups as of 2024-03-10: 1```"),
	}}
	n := &Notifier{API: api, Channel: "C123", Pin: true}

	require.NoError(t, n.Notify(context.Background(), digest()))
	assert.Equal(t, 1, api.posted)
	assert.Equal(t, []string{"1710000000.000200"}, api.pinned)
	assert.Equal(t, []string{"1700000000.000100"}, api.unpinned)
}

func TestNotifyWithoutPin(t *testing.T) {
	api := &fakeAPI{}
	n := &Notifier{API: api, Channel: "C123"}

	require.NoError(t, n.Notify(context.Background(), digest()))
	assert.Equal(t, 1, api.posted)
	assert.Empty(t, api.pinned)
}

func TestNotifyErrors(t *testing.T) {
	n := &Notifier{API: &fakeAPI{}}
	assert.Error(t, n.Notify(context.Background(), digest()))

	n = &Notifier{API: &fakeAPI{postErr: errors.New("not_in_channel")}, Channel: "C123"}
	err := n.Notify(context.Background(), digest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not_in_channel")
}

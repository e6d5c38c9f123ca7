package Alerts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// MessageSender is the part of *messaging.Client the notifier uses.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FirebaseNotifier pushes each assignee their own overdue count.
type FirebaseNotifier struct {
	Client MessageSender
}

// NewFirebaseNotifier initializes Firebase from a service account key file.
func NewFirebaseNotifier(ctx context.Context, credentialsFile string) (*FirebaseNotifier, error) {
	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	// Get Firebase Cloud Messaging client
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Messaging client: %w", err)
	}
	log.Println("Firebase initialized successfully")
	return &FirebaseNotifier{Client: client}, nil
}

func (f *FirebaseNotifier) Name() string { return "firebase" }

func digestMessage(date string, group DigestGroup) *messaging.Message {
	oldest := ""
	if len(group.Items) > 0 {
		oldest = group.Items[0].DueDate
	}
	return &messaging.Message{
		Token: group.FCMToken,
		Data: map[string]string{
			"type":        "followup_digest",
			"date":        date,
			"count":       strconv.Itoa(len(group.Items)),
			"oldest_due":  oldest,
			"assignee_id": fmt.Sprint(*group.AssigneeID),
		},
		Notification: &messaging.Notification{
			Title: "Overdue valve follow-ups",
			Body:  fmt.Sprintf("You have %s past due", plural(len(group.Items), "follow-up")),
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
			Priority: "high",
		},
	}
}

// Notify sends one push per assignee holding a token. Unassigned items and
// profiles without a token are skipped.
func (f *FirebaseNotifier) Notify(ctx context.Context, digest Digest) error {
	if f.Client == nil {
		return errors.New("firebase client not initialized")
	}
	var errs []error
	for _, group := range digest.Groups {
		if group.AssigneeID == nil || group.FCMToken == "" || len(group.Items) == 0 {
			continue
		}
		response, err := f.Client.Send(ctx, digestMessage(digest.Date, group))
		if err != nil {
			errs = append(errs, fmt.Errorf("error sending Firebase message to %s: %w", group.Assignee, err))
			continue
		}
		log.Printf("Successfully sent Firebase notification: %s", response)
	}
	return errors.Join(errs...)
}

package CronJobs

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"FieldOps/AbstractFunctions"
	"FieldOps/Alerts"
	"FieldOps/Models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DefaultSchedule runs the digest at 06:00:00 every day.
const DefaultSchedule = "0 0 6 * * *"

// FollowupDigest is the scheduled overdue follow-up digest
type FollowupDigest struct {
	cronScheduler *cron.Cron
	db            *gorm.DB
	notifiers     []Alerts.Notifier
	jobID         cron.EntryID
	mu            sync.Mutex
	Now           func() time.Time
}

// NewFollowupDigest creates a digest job sending through the given notifiers
func NewFollowupDigest(db *gorm.DB, notifiers ...Alerts.Notifier) *FollowupDigest {
	return &FollowupDigest{
		cronScheduler: cron.New(cron.WithSeconds()),
		db:            db,
		notifiers:     notifiers,
		Now:           time.Now,
	}
}

// Start schedules the digest and starts the scheduler
func (d *FollowupDigest) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	var err error
	d.jobID, err = d.cronScheduler.AddFunc(schedule, d.runScheduled)
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	d.cronScheduler.Start()
	log.Printf("Follow-up digest scheduler started with schedule %q", schedule)
	return nil
}

// Stop terminates the scheduler and waits for a running digest
func (d *FollowupDigest) Stop() {
	if d.cronScheduler != nil {
		<-d.cronScheduler.Stop().Done()
		log.Println("Follow-up digest scheduler stopped")
	}
}

// UpdateSchedule changes the schedule of the digest
// Format: "0 0 6 * * *" = At 06:00:00 AM every day
func (d *FollowupDigest) UpdateSchedule(schedule string) error {
	// Validate before dropping the current job
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(schedule); err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}
	d.cronScheduler.Remove(d.jobID)

	var err error
	d.jobID, err = d.cronScheduler.AddFunc(schedule, d.runScheduled)
	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}
	log.Printf("Follow-up digest schedule updated to: %s\n", schedule)
	return nil
}

// Next reports when the digest runs next; zero when it is not scheduled.
func (d *FollowupDigest) Next() time.Time {
	return d.cronScheduler.Entry(d.jobID).Next
}

func (d *FollowupDigest) runScheduled() {
	log.Println("Running scheduled follow-up digest")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if _, err := d.RunNow(ctx); err != nil {
		log.Printf("Error in follow-up digest: %v", err)
	}
}

// RunNow builds today's digest and sends it. Runs never overlap.
func (d *FollowupDigest) RunNow(ctx context.Context) (Alerts.Digest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	digest, err := BuildDigest(ctx, d.db, AbstractFunctions.FormatDate(d.Now()))
	if err != nil {
		return digest, fmt.Errorf("build digest: %w", err)
	}
	log.Printf("Follow-up digest for %s: %d overdue", digest.Date, digest.Total())
	return digest, Alerts.Dispatch(ctx, digest, d.notifiers...)
}

// BuildDigest collects open follow-ups due before today grouped by
// assignee. Groups are ordered by assignee name with unassigned last; items
// by due date.
func BuildDigest(ctx context.Context, db *gorm.DB, today string) (Alerts.Digest, error) {
	digest := Alerts.Digest{Date: today, Groups: []Alerts.DigestGroup{}}
	day, err := AbstractFunctions.ParseDate(today)
	if err != nil {
		return digest, err
	}

	var followups []Models.ValveFollowup
	err = db.WithContext(ctx).
		Preload("Client").
		Preload("AssignedTo").
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", Models.FollowupOpen, today).
		Order("due_date ASC, id ASC").
		Find(&followups).Error
	if err != nil {
		return digest, err
	}

	groups := map[uint]*Alerts.DigestGroup{}
	var unassigned *Alerts.DigestGroup
	for _, f := range followups {
		item := Alerts.OverdueItem{
			FollowupID: f.ID,
			Tag:        f.Tag,
			IssueType:  f.IssueType,
			DueDate:    *f.DueDate,
		}
		if f.Client != nil {
			item.Client = f.Client.Name
		}
		if due, err := AbstractFunctions.ParseDate(*f.DueDate); err == nil {
			item.DaysOverdue = int(math.Round(day.Sub(due).Hours() / 24))
		}

		if f.AssignedToID == nil || f.AssignedTo == nil {
			if unassigned == nil {
				unassigned = &Alerts.DigestGroup{Assignee: "Unassigned"}
			}
			unassigned.Items = append(unassigned.Items, item)
			continue
		}
		group, ok := groups[*f.AssignedToID]
		if !ok {
			id := *f.AssignedToID
			group = &Alerts.DigestGroup{
				AssigneeID: &id,
				Assignee:   f.AssignedTo.FullName,
				Email:      f.AssignedTo.Email,
				FCMToken:   f.AssignedTo.FCMToken,
			}
			groups[id] = group
		}
		group.Items = append(group.Items, item)
	}

	for _, g := range groups {
		digest.Groups = append(digest.Groups, *g)
	}
	sort.Slice(digest.Groups, func(i, j int) bool {
		a, b := strings.ToLower(digest.Groups[i].Assignee), strings.ToLower(digest.Groups[j].Assignee)
		if a != b {
			return a < b
		}
		return *digest.Groups[i].AssigneeID < *digest.Groups[j].AssigneeID
	})
	if unassigned != nil {
		digest.Groups = append(digest.Groups, *unassigned)
	}
	return digest, nil
}

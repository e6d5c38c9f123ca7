package Models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	FollowupOpen = "open"
	FollowupDone = "done"
)

var IssueTypes = []string{"leak", "new_valve", "repair", "other"}

type ValveFollowup struct {
	gorm.Model
	ClientID     uint       `json:"client_id" gorm:"not null;index"`
	ProgramID    *uint      `json:"program_id" gorm:"index"`
	AssignedToID *uint      `json:"assigned_to_id" gorm:"index"`
	Tag          string     `json:"tag" gorm:"size:100;not null"`
	IssueType    string     `json:"issue_type" gorm:"size:50;not null"`
	Status       string     `json:"status" gorm:"size:10;not null;index"`
	FoundDate    string     `json:"found_date" gorm:"size:10;not null"`
	DueDate      *string    `json:"due_date" gorm:"size:10;index"`
	ClosedAt     *time.Time `json:"closed_at"`
	Notes        *string    `json:"notes" gorm:"type:text"`

	// Relationships
	Client     *Client              `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Program    *Program             `json:"program,omitempty" gorm:"foreignKey:ProgramID"`
	AssignedTo *Profile             `json:"assigned_to,omitempty" gorm:"foreignKey:AssignedToID"`
	Events     []ValveFollowupEvent `json:"events,omitempty" gorm:"foreignKey:ValveFollowupID;constraint:OnDelete:CASCADE"`
}

// ValveFollowupEvent is the audit trail row written next to every follow-up change.
type ValveFollowupEvent struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	CreatedAt       time.Time      `json:"created_at"`
	ValveFollowupID uint           `json:"valve_followup_id" gorm:"not null;index"`
	ActorID         *uint          `json:"actor_id"`
	Action          string         `json:"action" gorm:"size:20;not null"`
	Details         datatypes.JSON `json:"details"`
}

const (
	FollowupActionCreated  = "created"
	FollowupActionUpdated  = "updated"
	FollowupActionClosed   = "closed"
	FollowupActionReopened = "reopened"
)

type ValveFollowupRequest struct {
	ProgramID    *uint  `json:"program_id"`
	AssignedToID *uint  `json:"assigned_to_id"`
	Tag          string `json:"tag" validate:"required,max=100"`
	IssueType    string `json:"issue_type" validate:"required,oneof=leak new_valve repair other"`
	FoundDate    string `json:"found_date" validate:"required,datetime=2006-01-02"`
	DueIn        string `json:"due_in" validate:"omitempty,oneof=none 1_month 2_months 90_days"`
	DueDate      string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes        string `json:"notes"`
}

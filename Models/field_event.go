package Models

import (
	"gorm.io/gorm"
)

const (
	FieldEventNotStarted = "not_started"
	FieldEventScheduled  = "scheduled"
	FieldEventInProgress = "in_progress"
	FieldEventComplete   = "complete"
)

// FieldEventStatuses is the column order of the field event board.
var FieldEventStatuses = []string{
	FieldEventNotStarted,
	FieldEventScheduled,
	FieldEventInProgress,
	FieldEventComplete,
}

var EventTypes = []string{
	"weekly",
	"monthly",
	"quarterly",
	"semi_annual",
	"annual",
	"special_event",
	"linewalk",
}

var Priorities = []string{"low", "medium", "high"}

type FieldEvent struct {
	gorm.Model
	ClientID  uint    `json:"client_id" gorm:"not null;index"`
	ProgramID *uint   `json:"program_id" gorm:"index"`
	LeadID    *uint   `json:"lead_id" gorm:"index"`
	Name      string  `json:"name" gorm:"size:255;not null"`
	Status    string  `json:"status" gorm:"size:20;not null;index"`
	EventType string  `json:"event_type" gorm:"size:50;not null"`
	Priority  *string `json:"priority" gorm:"size:20"`
	StartDate *string `json:"start_date" gorm:"size:10"`
	EndDate   *string `json:"end_date" gorm:"size:10"`

	// Relationships
	Client  *Client  `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Program *Program `json:"program,omitempty" gorm:"foreignKey:ProgramID"`
	Lead    *Profile `json:"lead,omitempty" gorm:"foreignKey:LeadID"`
}

type FieldEventRequest struct {
	ClientID  uint   `json:"client_id" validate:"required"`
	ProgramID *uint  `json:"program_id"`
	LeadID    *uint  `json:"lead_id"`
	Name      string `json:"name" validate:"required,max=255"`
	Status    string `json:"status" validate:"omitempty,oneof=not_started scheduled in_progress complete"`
	EventType string `json:"event_type" validate:"required,oneof=weekly monthly quarterly semi_annual annual special_event linewalk"`
	Priority  string `json:"priority" validate:"omitempty,oneof=low medium high"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

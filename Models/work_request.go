package Models

import (
	"time"

	"gorm.io/gorm"
)

const (
	WorkRequestNotStarted   = "not_started"
	WorkRequestDrafting     = "drafting"
	WorkRequestChecking     = "checking"
	WorkRequestDatabase     = "database"
	WorkRequestReadyToClose = "ready_to_close"
	WorkRequestComplete     = "complete"
)

// WorkRequestStatuses lists every status a work request can hold.
var WorkRequestStatuses = []string{
	WorkRequestNotStarted,
	WorkRequestDrafting,
	WorkRequestChecking,
	WorkRequestDatabase,
	WorkRequestReadyToClose,
	WorkRequestComplete,
}

// WorkRequestBoardStatuses is the column order of the work request board.
// Completed work requests drop off the board.
var WorkRequestBoardStatuses = WorkRequestStatuses[:len(WorkRequestStatuses)-1]

type WorkRequest struct {
	gorm.Model
	FieldEventID   uint    `json:"field_event_id" gorm:"not null;index"`
	WRNumber       string  `json:"wr_number" gorm:"column:wr_number;size:100;not null"`
	Status         string  `json:"status" gorm:"size:20;not null;index"`
	Priority       *string `json:"priority" gorm:"size:20"`
	DueDate        *string `json:"due_date" gorm:"size:10"`
	Notes          *string `json:"notes" gorm:"type:text"`
	PrimaryOwnerID *uint   `json:"primary_owner_id" gorm:"index"`

	// Relationships
	FieldEvent   *FieldEvent  `json:"field_event,omitempty" gorm:"foreignKey:FieldEventID"`
	PrimaryOwner *Profile     `json:"primary_owner,omitempty" gorm:"foreignKey:PrimaryOwnerID"`
	Assignees    []WrAssignee `json:"assignees" gorm:"foreignKey:WorkRequestID;constraint:OnDelete:CASCADE"`
}

type WrAssignee struct {
	ID            uint     `json:"-" gorm:"primaryKey"`
	WorkRequestID uint     `json:"work_request_id" gorm:"not null;uniqueIndex:idx_wr_assignee"`
	UserID        uint     `json:"user_id" gorm:"not null;uniqueIndex:idx_wr_assignee"`
	User          *Profile `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

type WorkRequestRequest struct {
	FieldEventID   uint   `json:"field_event_id" validate:"required"`
	WRNumber       string `json:"wr_number" validate:"required,max=100"`
	Status         string `json:"status" validate:"omitempty,oneof=not_started drafting checking database ready_to_close complete"`
	Priority       string `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate        string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes          string `json:"notes"`
	PrimaryOwnerID *uint  `json:"primary_owner_id"`
	AssigneeIDs    []uint `json:"assignee_ids"`
}

// WrBudget is the budgeted hours for one work type on one work request.
type WrBudget struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	WorkRequestID uint      `json:"work_request_id" gorm:"not null;uniqueIndex:idx_wr_budget"`
	WorkTypeID    uint      `json:"work_type_id" gorm:"not null;uniqueIndex:idx_wr_budget"`
	HoursBudgeted float64   `json:"hours_budgeted" gorm:"not null;default:0"`
	UpdatedAt     time.Time `json:"updated_at"`
	WorkType      *WorkType `json:"work_type,omitempty" gorm:"foreignKey:WorkTypeID"`
}

type TimeEntry struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	WorkRequestID uint      `json:"work_request_id" gorm:"not null;index"`
	WorkTypeID    uint      `json:"work_type_id" gorm:"not null;index"`
	UserID        *uint     `json:"user_id" gorm:"index"`
	WorkDate      string    `json:"work_date" gorm:"size:10;not null"`
	Hours         float64   `json:"hours" gorm:"not null"`
	Notes         *string   `json:"notes" gorm:"type:text"`

	WorkType *WorkType `json:"work_type,omitempty" gorm:"foreignKey:WorkTypeID"`
	User     *Profile  `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

type TimeEntryRequest struct {
	WorkTypeID uint    `json:"work_type_id" validate:"required"`
	UserID     *uint   `json:"user_id"`
	WorkDate   string  `json:"work_date" validate:"required,datetime=2006-01-02"`
	Hours      float64 `json:"hours" validate:"gt=0"`
	Notes      string  `json:"notes"`
}

type BudgetRow struct {
	WorkTypeID    uint    `json:"work_type_id" validate:"required"`
	HoursBudgeted float64 `json:"hours_budgeted" validate:"gte=0"`
}

type BudgetRequest struct {
	Budgets []BudgetRow `json:"budgets" validate:"dive"`
}

package Models

import (
	"time"
)

// FieldShift is one technician's ledger line for one day.
type FieldShift struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	ClientID         uint      `json:"client_id" gorm:"not null;index"`
	FieldEventID     *uint     `json:"field_event_id" gorm:"index"`
	UserID           uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_shift_user_day"`
	WorkDate         string    `json:"work_date" gorm:"size:10;not null;uniqueIndex:idx_shift_user_day"`
	DriftCheck       bool      `json:"drift_check" gorm:"not null"`
	CalibrationCheck bool      `json:"calibration_check" gorm:"not null"`
	TvaUnitID        *uint     `json:"tva_unit_id"`
	Notes            *string   `json:"notes" gorm:"type:text"`

	// Relationships
	Client     *Client     `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	FieldEvent *FieldEvent `json:"field_event,omitempty" gorm:"foreignKey:FieldEventID"`
	User       *Profile    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	TvaUnit    *TvaUnit    `json:"tva_unit,omitempty" gorm:"foreignKey:TvaUnitID"`
}

type FieldShiftRequest struct {
	ClientID         uint   `json:"client_id" validate:"required"`
	FieldEventID     *uint  `json:"field_event_id"`
	UserID           *uint  `json:"user_id"`
	WorkDate         string `json:"work_date" validate:"required,datetime=2006-01-02"`
	DriftCheck       bool   `json:"drift_check"`
	CalibrationCheck bool   `json:"calibration_check"`
	TvaUnitID        *uint  `json:"tva_unit_id"`
	Notes            string `json:"notes"`
}

package Models

import (
	"gorm.io/gorm"
)

type Client struct {
	gorm.Model
	Name                string  `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Active              *bool   `json:"active" gorm:"default:true"`
	PrimaryContactName  *string `json:"primary_contact_name" gorm:"size:255"`
	PrimaryContactEmail *string `json:"primary_contact_email" gorm:"size:255"`
	PrimaryContactPhone *string `json:"primary_contact_phone" gorm:"size:50"`
	PPE                 *string `json:"ppe" gorm:"column:ppe;type:text"`
	Notes               *string `json:"notes" gorm:"type:text"`

	// Relationships
	Regulations           []Regulation          `json:"regulations" gorm:"many2many:client_regulations"`
	MonitoringFrequencies []MonitoringFrequency `json:"monitoring_frequencies" gorm:"many2many:client_monitoring_frequencies"`
	DatabaseType          *ClientDatabaseType   `json:"database_type,omitempty" gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
}

// ClientDatabaseType holds the single database type a client reports into.
type ClientDatabaseType struct {
	ID             uint          `json:"-" gorm:"primaryKey"`
	ClientID       uint          `json:"client_id" gorm:"not null;uniqueIndex"`
	DatabaseTypeID uint          `json:"database_type_id" gorm:"not null"`
	DatabaseType   *DatabaseType `json:"database_type,omitempty" gorm:"foreignKey:DatabaseTypeID"`
}

type ClientRequest struct {
	Name                   string `json:"name" validate:"required,max=255"`
	Active                 *bool  `json:"active"`
	PrimaryContactName     string `json:"primary_contact_name" validate:"max=255"`
	PrimaryContactEmail    string `json:"primary_contact_email" validate:"omitempty,email"`
	PrimaryContactPhone    string `json:"primary_contact_phone" validate:"max=50"`
	PPE                    string `json:"ppe"`
	Notes                  string `json:"notes"`
	DatabaseTypeID         *uint  `json:"database_type_id"`
	MonitoringFrequencyIDs []uint `json:"monitoring_frequency_ids"`
	RegulationIDs          []uint `json:"regulation_ids"`
}

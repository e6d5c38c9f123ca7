package Models

type Regulation struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Code   string `json:"code" gorm:"size:100;not null;uniqueIndex"`
	Active bool   `json:"active" gorm:"not null"`
}

type MonitoringFrequency struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Code   string `json:"code" gorm:"size:100;not null;uniqueIndex"`
	Active bool   `json:"active" gorm:"not null"`
}

type DatabaseType struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Code   string `json:"code" gorm:"size:100;not null;uniqueIndex"`
	Active bool   `json:"active" gorm:"not null"`
}

type Program struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Name   string `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Active bool   `json:"active" gorm:"not null"`
}

// WorkType is a billable category such as Drafting or Checking.
type WorkType struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:255;not null;uniqueIndex"`
}

// TvaUnit is a piece of monitoring equipment signed out on a shift.
type TvaUnit struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Name   string `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Serial string `json:"serial" gorm:"size:255"`
	Active bool   `json:"active" gorm:"not null"`
}

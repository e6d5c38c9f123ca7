package Models

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
	"gorm.io/gorm"
)

// SeedProfile is a login created by the seed command.
type SeedProfile struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type SeedTvaUnit struct {
	Name   string `json:"name"`
	Serial string `json:"serial"`
}

// SeedData is the shape of seed.json5.
type SeedData struct {
	Regulations           []string      `json:"regulations"`
	MonitoringFrequencies []string      `json:"monitoring_frequencies"`
	DatabaseTypes         []string      `json:"database_types"`
	Programs              []string      `json:"programs"`
	WorkTypes             []string      `json:"work_types"`
	TvaUnits              []SeedTvaUnit `json:"tva_units"`
	Profiles              []SeedProfile `json:"profiles"`
}

// DefaultSeed is used when no seed file is given.
var DefaultSeed = SeedData{
	WorkTypes: []string{"Drafting", "Checking", "Database", "Project Manager", "Field"},
}

func LoadSeedFile(path string) (SeedData, error) {
	var data SeedData
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("read seed file: %w", err)
	}
	if err := json5.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return data, nil
}

// Seed inserts any lookup rows and profiles that do not exist yet.
// Existing rows are left untouched so the command can be re-run.
func Seed(db *gorm.DB, data SeedData) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, code := range data.Regulations {
			if err := tx.Where(Regulation{Code: code}).Attrs(Regulation{Active: true}).FirstOrCreate(&Regulation{}).Error; err != nil {
				return fmt.Errorf("seed regulation %s: %w", code, err)
			}
		}
		for _, code := range data.MonitoringFrequencies {
			if err := tx.Where(MonitoringFrequency{Code: code}).Attrs(MonitoringFrequency{Active: true}).FirstOrCreate(&MonitoringFrequency{}).Error; err != nil {
				return fmt.Errorf("seed monitoring frequency %s: %w", code, err)
			}
		}
		for _, code := range data.DatabaseTypes {
			if err := tx.Where(DatabaseType{Code: code}).Attrs(DatabaseType{Active: true}).FirstOrCreate(&DatabaseType{}).Error; err != nil {
				return fmt.Errorf("seed database type %s: %w", code, err)
			}
		}
		for _, name := range data.Programs {
			if err := tx.Where(Program{Name: name}).Attrs(Program{Active: true}).FirstOrCreate(&Program{}).Error; err != nil {
				return fmt.Errorf("seed program %s: %w", name, err)
			}
		}
		for _, name := range data.WorkTypes {
			if err := tx.Where(WorkType{Name: name}).FirstOrCreate(&WorkType{}).Error; err != nil {
				return fmt.Errorf("seed work type %s: %w", name, err)
			}
		}
		for _, unit := range data.TvaUnits {
			if err := tx.Where(TvaUnit{Name: unit.Name}).Attrs(TvaUnit{Serial: unit.Serial, Active: true}).FirstOrCreate(&TvaUnit{}).Error; err != nil {
				return fmt.Errorf("seed tva unit %s: %w", unit.Name, err)
			}
		}
		for _, p := range data.Profiles {
			email := strings.ToLower(strings.TrimSpace(p.Email))
			var count int64
			if err := tx.Model(&Profile{}).Where("email = ?", email).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			profile := Profile{FullName: p.FullName, Email: email, Role: NormalizeRole(p.Role)}
			if err := profile.SetPassword(p.Password); err != nil {
				return fmt.Errorf("hash password for %s: %w", email, err)
			}
			if err := tx.Create(&profile).Error; err != nil {
				return fmt.Errorf("seed profile %s: %w", email, err)
			}
			log.Printf("Seeded %s profile %s", profile.Role, email)
		}
		return nil
	})
}

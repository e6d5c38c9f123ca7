package Models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleManager = "manager"
	RoleTech    = "tech"
	RoleOther   = "other"
)

type Profile struct {
	gorm.Model
	FullName string `json:"full_name" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password []byte `json:"-"`
	Role     string `json:"role" gorm:"size:20;not null"`
	FCMToken string `json:"-" gorm:"size:512"`
}

func (p Profile) IsManager() bool {
	return p.Role == RoleManager
}

// CanMoveCards reports whether the profile may drag cards on a status board.
func (p Profile) CanMoveCards() bool {
	return p.Role == RoleManager || p.Role == RoleTech
}

func (p *Profile) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Password = hash
	return nil
}

func (p Profile) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword(p.Password, []byte(plain)) == nil
}

// NormalizeRole maps anything that is not manager or tech to other.
func NormalizeRole(role string) string {
	switch role {
	case RoleManager, RoleTech:
		return role
	default:
		return RoleOther
	}
}

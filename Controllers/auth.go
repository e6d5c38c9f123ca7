package Controllers

import (
	"log"
	"strings"
	"time"

	"FieldOps/Models"
	"FieldOps/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthController handles login, logout and profiles
type AuthController struct {
	DB           *gorm.DB
	Auth         *middleware.Authenticator
	SecureCookie bool
}

func NewAuthController(db *gorm.DB, auth *middleware.Authenticator, secureCookie bool) *AuthController {
	return &AuthController{DB: db, Auth: auth, SecureCookie: secureCookie}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=manager tech other"`
}

// Login checks the password and sets the jwt cookie
func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}

	var profile Models.Profile
	err := c.DB.WithContext(ctx.UserContext()).Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&profile).Error
	if err != nil || !profile.CheckPassword(req.Password) {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Unauthorized", "Incorrect email or password")
	}

	token, expires, err := c.Auth.IssueToken(profile, time.Now())
	if err != nil {
		log.Printf("Error signing token for %s: %v", profile.Email, err)
		return errorJSON(ctx, fiber.StatusInternalServerError, "Could not log in", err.Error())
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   c.SecureCookie,
		SameSite: "Lax",
	})
	return ctx.JSON(fiber.Map{
		"message": "success",
		"user":    profile,
	})
}

func (c *AuthController) Logout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   c.SecureCookie,
		SameSite: "Lax",
	})
	return ctx.JSON(fiber.Map{"message": "success"})
}

// Me returns the logged in profile
func (c *AuthController) Me(ctx *fiber.Ctx) error {
	user := currentUser(ctx)
	return ctx.JSON(fiber.Map{
		"user":     user,
		"can_drag": user.CanMoveCards(),
	})
}

type profileOption struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// GetProfiles lists profiles for owner, lead and assignee pickers
func (c *AuthController) GetProfiles(ctx *fiber.Ctx) error {
	var options []profileOption
	query := c.DB.WithContext(ctx.UserContext()).Model(&Models.Profile{}).Select("id, full_name, role")
	if role := ctx.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Order("full_name ASC").Scan(&options).Error; err != nil {
		return dbError(ctx, "Failed to retrieve profiles", err)
	}
	return ctx.JSON(options)
}

// RegisterProfile creates a login. Managers only.
func (c *AuthController) RegisterProfile(ctx *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}

	profile := Models.Profile{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Role:     Models.NormalizeRole(req.Role),
	}
	if err := profile.SetPassword(req.Password); err != nil {
		return errorJSON(ctx, fiber.StatusInternalServerError, "Failed to hash password", err.Error())
	}
	if err := c.DB.WithContext(ctx.UserContext()).Create(&profile).Error; err != nil {
		if Models.IsDuplicateKeyError(err) {
			return errorJSON(ctx, fiber.StatusConflict, "Duplicate profile", "A profile with that email already exists.")
		}
		return dbError(ctx, "Failed to create profile", err)
	}
	log.Printf("Profile %s (%s) registered by %s", profile.Email, profile.Role, currentUser(ctx).Email)
	return ctx.Status(fiber.StatusCreated).JSON(profile)
}

// UpdateFCMToken stores the caller's push token for digest notifications
func (c *AuthController) UpdateFCMToken(ctx *fiber.Ctx) error {
	var req Models.UpdateTokenRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}
	user := currentUser(ctx)
	if err := Models.SaveFCMToken(c.DB.WithContext(ctx.UserContext()), user.ID, req.Value); err != nil {
		return dbError(ctx, "Failed to update token", err)
	}
	return ctx.JSON(fiber.Map{"message": "Token updated successfully"})
}

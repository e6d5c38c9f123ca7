package middleware

import (
	"errors"
	"slices"
	"strconv"
	"time"

	"FieldOps/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

const (
	CookieName    = "jwt"
	TokenLifetime = 24 * time.Hour
)

// Authenticator checks the jwt cookie and loads the caller's profile.
type Authenticator struct {
	DB     *gorm.DB
	Secret []byte
}

func NewAuthenticator(db *gorm.DB, secret string) *Authenticator {
	return &Authenticator{DB: db, Secret: []byte(secret)}
}

// IssueToken signs a token whose issuer is the profile id.
func (a *Authenticator) IssueToken(profile Models.Profile, now time.Time) (string, time.Time, error) {
	expires := now.Add(TokenLifetime)
	claims := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    strconv.Itoa(int(profile.ID)),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	token, err := claims.SignedString(a.Secret)
	return token, expires, err
}

func (a *Authenticator) parse(raw string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Verify requires a logged in profile. With roles given, the profile's
// role must be one of them.
func (a *Authenticator) Verify(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookie := c.Cookies(CookieName)
		if cookie == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Not Logged In.",
			})
		}

		claims, err := a.parse(cookie)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid or expired token",
			})
		}

		var user Models.Profile
		if err := a.DB.WithContext(c.UserContext()).Where("id = ?", claims.Issuer).First(&user).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "User not found",
			})
		}

		c.Locals("user", user)

		if len(roles) > 0 && !slices.Contains(roles, user.Role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Forbidden",
				"message": "Insufficient permissions to access this resource",
			})
		}
		return c.Next()
	}
}

// CurrentProfile returns the profile stored by Verify.
func CurrentProfile(c *fiber.Ctx) (Models.Profile, bool) {
	user, ok := c.Locals("user").(Models.Profile)
	return user, ok
}

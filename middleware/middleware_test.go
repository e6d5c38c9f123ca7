package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"FieldOps/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Models.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, role string) Models.Profile {
	t.Helper()
	p := Models.Profile{FullName: role + " user", Email: role + "@example.com", Role: role}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func authApp(auth *Authenticator, roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/private", auth.Verify(roles...), func(c *fiber.Ctx) error {
		user, _ := CurrentProfile(c)
		return c.SendString(user.Email)
	})
	return app
}

func withCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	return req
}

func TestVerifyWithoutCookie(t *testing.T) {
	auth := NewAuthenticator(testDB(t), "test-secret")
	resp, err := authApp(auth).Test(httptest.NewRequest(http.MethodGet, "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestVerifyAcceptsIssuedToken(t *testing.T) {
	db := testDB(t)
	auth := NewAuthenticator(db, "test-secret")
	tech := seedProfile(t, db, Models.RoleTech)

	token, expires, err := auth.IssueToken(tech, time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expires, time.Minute)

	resp, err := authApp(auth).Test(withCookie(httptest.NewRequest(http.MethodGet, "/private", nil), token))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestVerifyRejectsWrongRole(t *testing.T) {
	db := testDB(t)
	auth := NewAuthenticator(db, "test-secret")
	tech := seedProfile(t, db, Models.RoleTech)
	token, _, err := auth.IssueToken(tech, time.Now())
	require.NoError(t, err)

	resp, err := authApp(auth, Models.RoleManager).Test(withCookie(httptest.NewRequest(http.MethodGet, "/private", nil), token))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	db := testDB(t)
	manager := seedProfile(t, db, Models.RoleManager)
	token, _, err := NewAuthenticator(db, "other-secret").IssueToken(manager, time.Now())
	require.NoError(t, err)

	resp, err := authApp(NewAuthenticator(db, "test-secret")).Test(withCookie(httptest.NewRequest(http.MethodGet, "/private", nil), token))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	db := testDB(t)
	auth := NewAuthenticator(db, "test-secret")
	manager := seedProfile(t, db, Models.RoleManager)
	token, _, err := auth.IssueToken(manager, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)

	resp, err := authApp(auth).Test(withCookie(httptest.NewRequest(http.MethodGet, "/private", nil), token))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestValidateStructTranslatesMessages(t *testing.T) {
	msgs := ValidateStruct(Models.TimeEntryRequest{WorkDate: "yesterday", Hours: 0})
	require.Len(t, msgs, 3)
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, "work_type_id is a required field")
	assert.Contains(t, joined, "hours must be greater than 0")
	assert.Contains(t, joined, "work_date")

	assert.Nil(t, ValidateStruct(Models.TimeEntryRequest{WorkTypeID: 1, WorkDate: "2024-01-02", Hours: 1.5}))
}

func TestLoggingMiddlewareWritesRequestLine(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := fiber.New()
	app.Use(LoggingMiddleware(LogConfig{Logger: zap.New(core), SkipPaths: []string{"/health"}}))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/missing", fields["path"])
	assert.Equal(t, int64(404), fields["status"])
	assert.Equal(t, "req-123", fields["request_id"])
}

func TestLoggingMiddlewareGeneratesRequestID(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	app := fiber.New()
	app.Use(LoggingMiddleware(LogConfig{Logger: zap.New(core)}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(RequestIDHeader), 36)
}

func TestNewRequestLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "requests.log")
	logger, err := NewRequestLogger(LogConfig{File: true, LogFilePath: path})
	require.NoError(t, err)
	logger.Info("request", zap.String("path", "/api/clients"), zap.Duration("latency", 1500*time.Microsecond))
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"timestamp":`)
	assert.Contains(t, string(raw), `"latency":1500000`)
}

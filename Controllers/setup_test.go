package Controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"FieldOps/Models"
	"FieldOps/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html"
	"github.com/stretchr/testify/require"
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

// fixedNow is the clock of every controller built by newEnv.
var fixedNow = time.Date(2024, 3, 31, 9, 30, 0, 0, time.Local)

type testEnv struct {
	db      *gorm.DB
	auth    *middleware.Authenticator
	app     *fiber.App
	manager Models.Profile
	tech    Models.Profile
	other   Models.Profile
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testDB(t)
	env := &testEnv{
		db:   db,
		auth: middleware.NewAuthenticator(db, "test-secret"),
		app:  fiber.New(fiber.Config{Views: html.New("../Templates", ".html")}),
	}
	env.manager = env.profile(t, "Mia Manager", "mia@example.com", Models.RoleManager)
	env.tech = env.profile(t, "Tom Tech", "tom@example.com", Models.RoleTech)
	env.other = env.profile(t, "Olive Office", "olive@example.com", Models.RoleOther)

	authController := NewAuthController(db, env.auth, false)
	clients := NewClientController(db)
	events := NewFieldEventController(db)
	workRequests := NewWorkRequestController(db)
	timeEntries := NewTimeEntryController(db)
	followups := NewValveFollowupController(db)
	followups.Now = func() time.Time { return fixedNow }
	shifts := NewFieldShiftController(db)
	shifts.Now = func() time.Time { return fixedNow }
	lookups := NewLookupController(db)

	app := env.app
	app.Post("/api/login", authController.Login)
	app.Post("/api/logout", authController.Logout)
	app.Get("/ledger/:client_id", env.auth.Verify(), shifts.GetLedgerPage)

	api := app.Group("/api", env.auth.Verify())
	api.Get("/me", authController.Me)
	api.Put("/me/fcm-token", authController.UpdateFCMToken)
	api.Get("/profiles", authController.GetProfiles)
	api.Post("/profiles", authController.RegisterProfile)

	api.Get("/enums", lookups.GetEnums)
	api.Get("/work-types", lookups.GetWorkTypes)
	api.Get("/regulations", lookups.GetRegulations)
	api.Get("/tva-units", lookups.GetTvaUnits)

	api.Get("/clients", clients.GetClients)
	api.Post("/clients", clients.CreateClient)
	api.Get("/clients/:id", clients.GetClient)
	api.Put("/clients/:id", clients.UpdateClient)
	api.Delete("/clients/:id", clients.DeleteClient)
	api.Get("/clients/:client_id/valve-followups", followups.GetClientFollowups)
	api.Post("/clients/:client_id/valve-followups", followups.CreateFollowup)

	api.Get("/valve-followups/:id", followups.GetFollowup)
	api.Get("/valve-followups/:id/events", followups.GetFollowupEvents)
	api.Put("/valve-followups/:id", followups.UpdateFollowup)
	api.Post("/valve-followups/:id/close", followups.CloseFollowup)
	api.Post("/valve-followups/:id/reopen", followups.ReopenFollowup)
	api.Delete("/valve-followups/:id", followups.DeleteFollowup)

	api.Get("/field-events/board", events.Board)
	api.Get("/field-events", events.GetFieldEvents)
	api.Post("/field-events", events.CreateFieldEvent)
	api.Get("/field-events/:id", events.GetFieldEvent)
	api.Put("/field-events/:id", events.UpdateFieldEvent)
	api.Patch("/field-events/:id/status", events.MoveStatus)
	api.Delete("/field-events/:id", events.DeleteFieldEvent)

	api.Get("/work-requests/board", workRequests.Board)
	api.Get("/work-requests", workRequests.GetWorkRequests)
	api.Post("/work-requests", workRequests.CreateWorkRequest)
	api.Get("/work-requests/:id", workRequests.GetWorkRequest)
	api.Put("/work-requests/:id", workRequests.UpdateWorkRequest)
	api.Patch("/work-requests/:id/status", workRequests.MoveStatus)
	api.Delete("/work-requests/:id", workRequests.DeleteWorkRequest)

	api.Get("/work-requests/:id/time-entries/export", timeEntries.ExportTimeEntries)
	api.Get("/work-requests/:id/time-entries", timeEntries.GetTimeEntries)
	api.Post("/work-requests/:id/time-entries", timeEntries.CreateTimeEntry)
	api.Get("/work-requests/:id/budgets", timeEntries.GetBudgets)
	api.Put("/work-requests/:id/budgets", timeEntries.PutBudgets)
	api.Get("/work-requests/:id/hours", timeEntries.GetHours)
	api.Put("/time-entries/:id", timeEntries.UpdateTimeEntry)
	api.Delete("/time-entries/:id", timeEntries.DeleteTimeEntry)

	api.Get("/field-shifts/export", shifts.ExportFieldShifts)
	api.Get("/field-shifts", shifts.GetFieldShifts)
	api.Post("/field-shifts", shifts.CreateFieldShift)
	api.Put("/field-shifts/:id", shifts.UpdateFieldShift)
	api.Delete("/field-shifts/:id", shifts.DeleteFieldShift)
	return env
}

func (e *testEnv) profile(t *testing.T, name, email, role string) Models.Profile {
	t.Helper()
	p := Models.Profile{FullName: name, Email: email, Role: role}
	require.NoError(t, p.SetPassword("password123"))
	require.NoError(t, e.db.Create(&p).Error)
	return p
}

// do sends a request as user (nil for anonymous) and returns the status and body.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, user *Models.Profile) (int, []byte) {
	t.Helper()
	resp := e.send(t, method, path, body, user)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (e *testEnv) send(t *testing.T, method, path string, body interface{}, user *Models.Profile) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, _, err := e.auth.IssueToken(*user, time.Now())
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (e *testEnv) client(t *testing.T, name string) Models.Client {
	t.Helper()
	c := Models.Client{Name: name}
	require.NoError(t, e.db.Create(&c).Error)
	return c
}

func (e *testEnv) fieldEvent(t *testing.T, clientID uint, name, status string) Models.FieldEvent {
	t.Helper()
	ev := Models.FieldEvent{ClientID: clientID, Name: name, Status: status, EventType: "monthly"}
	require.NoError(t, e.db.Create(&ev).Error)
	return ev
}

func (e *testEnv) workRequest(t *testing.T, eventID uint, number, status string) Models.WorkRequest {
	t.Helper()
	wr := Models.WorkRequest{FieldEventID: eventID, WRNumber: number, Status: status}
	require.NoError(t, e.db.Create(&wr).Error)
	return wr
}

func (e *testEnv) workType(t *testing.T, name string) Models.WorkType {
	t.Helper()
	wt := Models.WorkType{Name: name}
	require.NoError(t, e.db.Create(&wt).Error)
	return wt
}

func strPtr(s string) *string { return &s }
func uintPtr(v uint) *uint    { return &v }

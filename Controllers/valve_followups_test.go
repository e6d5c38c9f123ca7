package Controllers

import (
	"encoding/json"
	"fmt"
	"testing"

	"FieldOps/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) followup(t *testing.T, clientID uint, tag, found string, due *string) Models.ValveFollowup {
	t.Helper()
	f := Models.ValveFollowup{
		ClientID:  clientID,
		Tag:       tag,
		IssueType: "leak",
		Status:    Models.FollowupOpen,
		FoundDate: found,
		DueDate:   due,
	}
	require.NoError(t, e.db.Create(&f).Error)
	return f
}

func tags(list []Models.ValveFollowup) []string {
	out := []string{}
	for _, f := range list {
		out = append(out, f.Tag)
	}
	return out
}

func TestCreateFollowupWithDueIn(t *testing.T) {
	env := newEnv(t)
	c := env.client(t, "Acme")

	status, raw := env.do(t, "POST", fmt.Sprintf("/api/clients/%d/valve-followups", c.ID), map[string]interface{}{
		"tag":            "V-100",
		"issue_type":     "leak",
		"found_date":     "2024-01-15",
		"due_in":         "1_month",
		"assigned_to_id": env.tech.ID,
	}, &env.tech)
	require.Equal(t, 201, status, string(raw))
	created := decode[Models.ValveFollowup](t, raw)
	assert.Equal(t, Models.FollowupOpen, created.Status)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, "2024-02-15", *created.DueDate)
	require.NotNil(t, created.AssignedTo)
	assert.Equal(t, "Tom Tech", created.AssignedTo.FullName)
	require.NotNil(t, created.Client)
	assert.Equal(t, "Acme", created.Client.Name)

	var events []Models.ValveFollowupEvent
	require.NoError(t, env.db.Where("valve_followup_id = ?", created.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, Models.FollowupActionCreated, events[0].Action)
	require.NotNil(t, events[0].ActorID)
	assert.Equal(t, env.tech.ID, *events[0].ActorID)
}

func TestCreateFollowupExplicitDueDateWins(t *testing.T) {
	env := newEnv(t)
	c := env.client(t, "Acme")

	status, raw := env.do(t, "POST", fmt.Sprintf("/api/clients/%d/valve-followups", c.ID), map[string]interface{}{
		"tag":        "V-1",
		"issue_type": "repair",
		"found_date": "2024-01-15",
		"due_in":     "90_days",
		"due_date":   "2024-01-20",
	}, &env.manager)
	require.Equal(t, 201, status, string(raw))
	assert.Equal(t, "2024-01-20", *decode[Models.ValveFollowup](t, raw).DueDate)

	status, raw = env.do(t, "POST", fmt.Sprintf("/api/clients/%d/valve-followups", c.ID), map[string]interface{}{
		"tag":        "V-2",
		"issue_type": "repair",
		"found_date": "2024-01-15",
		"due_in":     "none",
	}, &env.manager)
	require.Equal(t, 201, status, string(raw))
	assert.Nil(t, decode[Models.ValveFollowup](t, raw).DueDate)
}

func TestCreateFollowupRejections(t *testing.T) {
	env := newEnv(t)
	c := env.client(t, "Acme")
	path := fmt.Sprintf("/api/clients/%d/valve-followups", c.ID)

	status, _ := env.do(t, "POST", path, map[string]string{
		"tag": "V-1", "issue_type": "flood", "found_date": "2024-01-15",
	}, &env.manager)
	assert.Equal(t, 400, status)

	status, _ = env.do(t, "POST", path, map[string]string{
		"tag": "V-1", "issue_type": "leak", "found_date": "15/01/2024",
	}, &env.manager)
	assert.Equal(t, 400, status)

	status, _ = env.do(t, "POST", "/api/clients/999/valve-followups", map[string]string{
		"tag": "V-1", "issue_type": "leak", "found_date": "2024-01-15",
	}, &env.manager)
	assert.Equal(t, 404, status)

	var count int64
	env.db.Model(&Models.ValveFollowup{}).Count(&count)
	assert.Zero(t, count)
}

func TestClientFollowupsOpenOrdering(t *testing.T) {
	env := newEnv(t)
	c := env.client(t, "Acme")
	other := env.client(t, "Other")
	env.followup(t, c.ID, "undated", "2024-03-01", nil)
	env.followup(t, c.ID, "later", "2024-03-01", strPtr("2024-05-01"))
	env.followup(t, c.ID, "sooner", "2024-03-01", strPtr("2024-04-01"))
	env.followup(t, other.ID, "elsewhere", "2024-03-01", strPtr("2024-01-01"))

	status, raw := env.do(t, "GET", fmt.Sprintf("/api/clients/%d/valve-followups", c.ID), nil, &env.other)
	require.Equal(t, 200, status, string(raw))
	assert.Equal(t, []string{"sooner", "later", "undated"}, tags(decode[[]Models.ValveFollowup](t, raw)))
}

func TestClientFollowupsLookback(t *testing.T) {
	env := newEnv(t)
	c := env.client(t, "Acme")
	env.followup(t, c.ID, "recent", "2024-03-20", nil)
	env.followup(t, c.ID, "edge", "2024-03-01", nil)
	env.followup(t, c.ID, "old", "2024-02-01", nil)

	recentDone := env.followup(t, c.ID, "closed-recent", "2023-01-01", nil)
	oldDone := env.followup(t, c.ID, "closed-old", "2023-01-01", nil)
	require.NoError(t, env.db.Model(&recentDone).Updates(map[string]interface{}{
		"status": Models.FollowupDone, "closed_at": fixedNow.AddDate(0, 0, -10),
	}).Error)
	require.NoError(t, env.db.Model(&oldDone).Updates(map[string]interface{}{
		"status": Models.FollowupDone, "closed_at": fixedNow.AddDate(0, 0, -60),
	}).Error)

	base := fmt.Sprintf("/api/clients/%d/valve-followups", c.ID)

	status, raw := env.do(t, "GET", base+"?lookback=30d", nil, &env.tech)
	require.Equal(t, 200, status, string(raw))
	assert.ElementsMatch(t, []string{"recent", "edge"}, tags(decode[[]Models.ValveFollowup](t, raw)))

	status, raw = env.do(t, "GET", base+"?status=done&lookback=30d", nil, &env.tech)
	require.Equal(t, 200, status, string(raw))
	assert.Equal(t, []string{"closed-recent"}, tags(decode[[]Models.ValveFollowup](t, raw)))

	status, raw = env.do(t, "GET", base+"?status=done", nil, &env.tech)
	require.Equal(t, 200, status, string(raw))
	assert.Equal(t, []string{"closed-recent", "closed-old"}, tags(decode[[]Models.ValveFollowup](t, raw)))

	status, _ = env.do(t, "GET", base+"?lookback=2w", nil, &env.tech)
	assert.Equal(t, 400, status)
	status, _ = env.do(t, "GET", base+"?status=pending", nil, &env.tech)
	assert.Equal(t, 400, status)
}

func TestCloseAndReopenFollowup(t *testing.T) {
	env := newEnv(t)
	c := env.client(t, "Acme")
	f := env.followup(t, c.ID, "V-1", "2024-03-01", nil)
	base := fmt.Sprintf("/api/valve-followups/%d", f.ID)

	status, _ := env.do(t, "POST", base+"/reopen", nil, &env.tech)
	assert.Equal(t, 400, status)

	status, raw := env.do(t, "POST", base+"/close", nil, &env.tech)
	require.Equal(t, 200, status, string(raw))
	closed := decode[Models.ValveFollowup](t, raw)
	assert.Equal(t, Models.FollowupDone, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	assert.True(t, closed.ClosedAt.Equal(fixedNow))

	status, _ = env.do(t, "POST", base+"/close", nil, &env.tech)
	assert.Equal(t, 400, status)

	status, raw = env.do(t, "POST", base+"/reopen", nil, &env.manager)
	require.Equal(t, 200, status, string(raw))
	reopened := decode[Models.ValveFollowup](t, raw)
	assert.Equal(t, Models.FollowupOpen, reopened.Status)
	assert.Nil(t, reopened.ClosedAt)

	status, raw = env.do(t, "GET", base+"/events", nil, &env.other)
	require.Equal(t, 200, status)
	events := decode[[]Models.ValveFollowupEvent](t, raw)
	require.Len(t, events, 2)
	assert.Equal(t, Models.FollowupActionReopened, events[0].Action)
	assert.Equal(t, Models.FollowupActionClosed, events[1].Action)

	var details map[string]string
	require.NoError(t, json.Unmarshal(events[1].Details, &details))
	assert.Equal(t, map[string]string{"from": "open", "to": "done"}, details)
}

func TestUpdateFollowupRecordsChanges(t *testing.T) {
	env := newEnv(t)
	c := env.client(t, "Acme")
	f := env.followup(t, c.ID, "V-1", "2024-03-01", strPtr("2024-04-01"))

	status, raw := env.do(t, "PUT", fmt.Sprintf("/api/valve-followups/%d", f.ID), map[string]interface{}{
		"tag":        "V-1",
		"issue_type": "repair",
		"found_date": "2024-03-01",
		"notes":      "bolted flange",
	}, &env.tech)
	require.Equal(t, 200, status, string(raw))
	updated := decode[Models.ValveFollowup](t, raw)
	assert.Equal(t, "repair", updated.IssueType)
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, "2024-04-01", *updated.DueDate)

	var event Models.ValveFollowupEvent
	require.NoError(t, env.db.Where("valve_followup_id = ? AND action = ?", f.ID, Models.FollowupActionUpdated).First(&event).Error)
	var details map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(event.Details, &details))
	assert.Contains(t, details, "issue_type")
	assert.Contains(t, details, "notes")
	assert.NotContains(t, details, "tag")
	assert.NotContains(t, details, "due_date")
}

func TestDeleteFollowup(t *testing.T) {
	env := newEnv(t)
	c := env.client(t, "Acme")
	f := env.followup(t, c.ID, "V-1", "2024-03-01", nil)

	status, _ := env.do(t, "DELETE", fmt.Sprintf("/api/valve-followups/%d", f.ID), nil, &env.manager)
	require.Equal(t, 200, status)

	status, _ = env.do(t, "GET", fmt.Sprintf("/api/valve-followups/%d", f.ID), nil, &env.manager)
	assert.Equal(t, 404, status)

	status, raw := env.do(t, "GET", fmt.Sprintf("/api/clients/%d/valve-followups", c.ID), nil, &env.manager)
	require.Equal(t, 200, status)
	assert.Empty(t, decode[[]Models.ValveFollowup](t, raw))
}

package Controllers

import (
	"fmt"
	"testing"

	"FieldOps/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) shift(t *testing.T, clientID, userID uint, day string, drift, calibration bool) Models.FieldShift {
	t.Helper()
	s := Models.FieldShift{ClientID: clientID, UserID: userID, WorkDate: day, DriftCheck: drift, CalibrationCheck: calibration}
	require.NoError(t, e.db.Create(&s).Error)
	return s
}

func shiftDates(list []Models.FieldShift) []string {
	out := []string{}
	for _, s := range list {
		out = append(out, s.WorkDate)
	}
	return out
}

func TestCreateFieldShiftForSelf(t *testing.T) {
	env := newEnv(t)
	c := env.client(t, "Acme")

	status, raw := env.do(t, "POST", "/api/field-shifts", map[string]interface{}{
		"client_id":   c.ID,
		"work_date":   "2024-03-04",
		"drift_check": true,
	}, &env.tech)
	require.Equal(t, 201, status, string(raw))
	created := decode[Models.FieldShift](t, raw)
	assert.Equal(t, env.tech.ID, created.UserID)
	assert.True(t, created.DriftCheck)
	assert.False(t, created.CalibrationCheck)
	require.NotNil(t, created.User)
	assert.Equal(t, "Tom Tech", created.User.FullName)
}

func TestCreateFieldShiftDuplicateDay(t *testing.T) {
	env := newEnv(t)
	c := env.client(t, "Acme")
	other := env.client(t, "Other")
	env.shift(t, c.ID, env.tech.ID, "2024-03-04", false, false)

	status, raw := env.do(t, "POST", "/api/field-shifts", map[string]interface{}{
		"client_id": other.ID,
		"work_date": "2024-03-04",
	}, &env.tech)
	require.Equal(t, 409, status, string(raw))
	assert.Equal(t, duplicateShiftMessage, decode[map[string]string](t, raw)["message"])

	// another technician on the same day is fine
	status, raw = env.do(t, "POST", "/api/field-shifts", map[string]interface{}{
		"client_id": c.ID,
		"work_date": "2024-03-04",
		"user_id":   env.manager.ID,
	}, &env.manager)
	require.Equal(t, 201, status, string(raw))
}

func TestFieldShiftOwnership(t *testing.T) {
	env := newEnv(t)
	c := env.client(t, "Acme")

	status, _ := env.do(t, "POST", "/api/field-shifts", map[string]interface{}{
		"client_id": c.ID,
		"work_date": "2024-03-04",
		"user_id":   env.manager.ID,
	}, &env.tech)
	assert.Equal(t, 403, status)

	status, raw := env.do(t, "POST", "/api/field-shifts", map[string]interface{}{
		"client_id": c.ID,
		"work_date": "2024-03-05",
		"user_id":   env.tech.ID,
	}, &env.manager)
	require.Equal(t, 201, status, string(raw))
	assert.Equal(t, env.tech.ID, decode[Models.FieldShift](t, raw).UserID)

	managers := env.shift(t, c.ID, env.manager.ID, "2024-03-06", false, false)
	path := fmt.Sprintf("/api/field-shifts/%d", managers.ID)

	status, _ = env.do(t, "PUT", path, map[string]interface{}{
		"client_id": c.ID, "work_date": "2024-03-06", "drift_check": true,
	}, &env.tech)
	assert.Equal(t, 403, status)
	status, _ = env.do(t, "DELETE", path, nil, &env.tech)
	assert.Equal(t, 403, status)

	status, raw = env.do(t, "PUT", path, map[string]interface{}{
		"client_id": c.ID, "work_date": "2024-03-06", "calibration_check": true,
	}, &env.manager)
	require.Equal(t, 200, status, string(raw))
	updated := decode[Models.FieldShift](t, raw)
	assert.True(t, updated.CalibrationCheck)
	assert.Equal(t, env.manager.ID, updated.UserID)

	status, _ = env.do(t, "DELETE", path, nil, &env.manager)
	assert.Equal(t, 200, status)
	status, _ = env.do(t, "DELETE", path, nil, &env.manager)
	assert.Equal(t, 404, status)
}

func TestGetFieldShiftsFilters(t *testing.T) {
	env := newEnv(t)
	c := env.client(t, "Acme")
	other := env.client(t, "Other")
	env.shift(t, c.ID, env.tech.ID, "2024-03-01", false, false)
	env.shift(t, c.ID, env.tech.ID, "2024-03-20", true, false)
	env.shift(t, c.ID, env.manager.ID, "2024-03-10", false, true)
	env.shift(t, other.ID, env.tech.ID, "2024-03-11", false, false)
	env.shift(t, c.ID, env.tech.ID, "2023-12-01", false, false)

	status, raw := env.do(t, "GET", fmt.Sprintf("/api/field-shifts?client_id=%d", c.ID), nil, &env.other)
	require.Equal(t, 200, status, string(raw))
	assert.Equal(t, []string{"2024-03-20", "2024-03-10", "2024-03-01", "2023-12-01"}, shiftDates(decode[[]Models.FieldShift](t, raw)))

	status, raw = env.do(t, "GET", fmt.Sprintf("/api/field-shifts?client_id=%d&user_id=%d&from=2024-03-01&to=2024-03-19", c.ID, env.tech.ID), nil, &env.other)
	require.Equal(t, 200, status, string(raw))
	assert.Equal(t, []string{"2024-03-01"}, shiftDates(decode[[]Models.FieldShift](t, raw)))

	// 30 days back from 2024-03-31
	status, raw = env.do(t, "GET", "/api/field-shifts?lookback=30d", nil, &env.other)
	require.Equal(t, 200, status, string(raw))
	assert.Equal(t, []string{"2024-03-20", "2024-03-11", "2024-03-10", "2024-03-01"}, shiftDates(decode[[]Models.FieldShift](t, raw)))

	status, _ = env.do(t, "GET", "/api/field-shifts?from=March", nil, &env.other)
	assert.Equal(t, 400, status)
	status, _ = env.do(t, "GET", "/api/field-shifts?client_id=x", nil, &env.other)
	assert.Equal(t, 400, status)
}

package Models

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.Error(t, err)
}

func TestOpenCreatesDatabaseDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	db, err := Open("sqlite", filepath.Join(dir, "fieldops.db"))
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestIsDuplicateKeyError(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.Create(&Client{Name: "Acme"}).Error)
	err := db.Create(&Client{Name: "Acme"}).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateKeyError(err))

	assert.True(t, IsDuplicateKeyError(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyError(errors.New(`pq: duplicate key value violates unique constraint "clients_name_key" (SQLSTATE 23505)`)))
	assert.True(t, IsDuplicateKeyError(errors.New("Error 1062: Duplicate entry 'Acme' for key 'name'")))
	assert.False(t, IsDuplicateKeyError(errors.New("no such table: clients")))
	assert.False(t, IsDuplicateKeyError(nil))
}

func TestFieldShiftOnePerUserPerDay(t *testing.T) {
	db := testDB(t)

	client := Client{Name: "Acme"}
	require.NoError(t, db.Create(&client).Error)
	tech := Profile{FullName: "Tech", Email: "tech@example.com", Role: RoleTech}
	require.NoError(t, db.Create(&tech).Error)

	first := FieldShift{ClientID: client.ID, UserID: tech.ID, WorkDate: "2024-05-01"}
	require.NoError(t, db.Create(&first).Error)

	dup := FieldShift{ClientID: client.ID, UserID: tech.ID, WorkDate: "2024-05-01"}
	err := db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateKeyError(err))

	next := FieldShift{ClientID: client.ID, UserID: tech.ID, WorkDate: "2024-05-02"}
	assert.NoError(t, db.Create(&next).Error)
}

func TestClientActiveDefaultsToTrue(t *testing.T) {
	db := testDB(t)

	client := Client{Name: "Acme"}
	require.NoError(t, db.Create(&client).Error)

	var loaded Client
	require.NoError(t, db.First(&loaded, client.ID).Error)
	require.NotNil(t, loaded.Active)
	assert.True(t, *loaded.Active)

	inactive := false
	other := Client{Name: "Beta", Active: &inactive}
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.First(&loaded, other.ID).Error)
	assert.False(t, *loaded.Active)
}

func TestProfilePasswordAndRoles(t *testing.T) {
	var p Profile
	require.NoError(t, p.SetPassword("s3cret"))
	assert.True(t, p.CheckPassword("s3cret"))
	assert.False(t, p.CheckPassword("wrong"))

	assert.Equal(t, RoleManager, NormalizeRole("manager"))
	assert.Equal(t, RoleOther, NormalizeRole("admin"))

	assert.True(t, Profile{Role: RoleTech}.CanMoveCards())
	assert.False(t, Profile{Role: RoleOther}.CanMoveCards())
	assert.False(t, Profile{Role: RoleTech}.IsManager())
}

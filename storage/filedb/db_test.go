package filedb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/drivingschool/core/student"
	"github.com/trezcool/drivingschool/core/user"
	"github.com/trezcool/drivingschool/tests"
)

func openTestDB(t *testing.T) *DB {
	db, err := Open(t.TempDir())
	require.NoError(t, err, "Open()")
	return db
}

func TestUserRepository(t *testing.T) {
	testutil.UserRepositorySuite(t, func(t *testing.T) user.Repository {
		return NewUserRepository(openTestDB(t))
	})
}

func TestStudentRepository(t *testing.T) {
	testutil.StudentRepositorySuite(t, func(t *testing.T) student.Repository {
		return NewStudentRepository(openTestDB(t))
	})
}

func TestUserRepository_legacyLayout(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)

	usr := user.User{FullName: "Ivanov Ivan", Email: "ivan@test.ru", Phone: "+79990000001", Role: user.RoleStaff}
	require.NoError(t, usr.SetPassword("secret"))
	usr, err := repo.Create(context.Background(), usr)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(db.Dir(), usersFile))
	require.NoError(t, err)
	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, usr.ID, raw[0]["id"])
	assert.Equal(t, "staff", raw[0]["status"])
	assert.Equal(t, string(usr.PasswordHash), raw[0]["password"])
	assert.NotContains(t, raw[0], "role")

	// records written by older versions have no timestamps
	legacy := `[{"id":"1700000000000","email":"old@test.ru","phone":"+7000","password":"","fullName":"Old","status":"student"}]`
	require.NoError(t, os.WriteFile(filepath.Join(db.Dir(), usersFile), []byte(legacy), 0o644))
	got, err := repo.FindOne(context.Background(), user.Query{Email: "OLD@test.ru"})
	require.NoError(t, err)
	assert.Equal(t, "1700000000000", got.ID)
	assert.Equal(t, user.RoleStudent, got.Role)
	assert.Nil(t, got.PasswordHash)
}

func TestStudentRepository_ids(t *testing.T) {
	db := openTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	for _, id := range []string{"", "../users", "a/b", `..\x`, "x.json"} {
		t.Run(id, func(t *testing.T) {
			assert.Error(t, repo.Save(ctx, id, student.NewInfo()))
			_, err := repo.Load(ctx, id)
			assert.Equal(t, student.ErrNotFound, err)
		})
	}

	require.NoError(t, repo.Save(ctx, "1700000000000", student.NewInfo()))
	_, err := os.Stat(filepath.Join(db.Dir(), studentsDir, "1700000000000.json"))
	assert.NoError(t, err)
}

func TestWrite_leavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.json")
	require.NoError(t, write(path, []int{1, 2}))
	require.NoError(t, write(path, []int{3}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	var got []int
	require.NoError(t, read(path, &got))
	assert.Equal(t, []int{3}, got)
	assert.Equal(t, os.ErrNotExist, read(filepath.Join(dir, "missing.json"), &got))
}

// Package testutil holds helpers shared by the package tests, including the conformance
// suites every storage adapter runs.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/drivingschool/core/student"
	"github.com/trezcool/drivingschool/core/user"
)

// CreateUser stores a User with the provided attributes. An empty pwd leaves it without password.
func CreateUser(t *testing.T, repo user.Repository, name, email, phone, pwd, role string, createdAt ...time.Time) user.User {
	t.Helper()

	tstamp := time.Now().UTC().Truncate(time.Microsecond)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FullName:  name,
		Email:     email,
		Phone:     phone,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if role == user.RoleStudent {
		usr.Group = "A1"
	}
	if pwd != "" {
		require.NoError(t, usr.SetPassword(pwd), "SetPassword()")
	}
	usr, err := repo.Create(context.Background(), usr)
	require.NoError(t, err, "Create()")
	return usr
}

func strPtr(s string) *string { return &s }

// UserRepositorySuite checks the user.Repository contract. newRepo must return an empty repository.
func UserRepositorySuite(t *testing.T, newRepo func(t *testing.T) user.Repository) {
	ctx := context.Background()

	t.Run("Create assigns unique ids", func(t *testing.T) {
		repo := newRepo(t)
		u1 := CreateUser(t, repo, "Ivanov Ivan", "ivan@test.ru", "+79990000001", "", user.RoleStudent)
		u2 := CreateUser(t, repo, "Petrov Petr", "petr@test.ru", "+79990000002", "", user.RoleStudent)
		assert.NotEmpty(t, u1.ID)
		assert.NotEmpty(t, u2.ID)
		assert.NotEqual(t, u1.ID, u2.ID)
	})

	t.Run("Create rejects duplicates", func(t *testing.T) {
		repo := newRepo(t)
		CreateUser(t, repo, "Ivanov Ivan", "ivan@test.ru", "+79990000001", "", user.RoleStudent)

		_, err := repo.Create(ctx, user.User{Email: "IVAN@test.ru", Phone: "+79990000009", Role: user.RoleStudent})
		assert.Equal(t, user.ErrEmailExists, err)

		_, err = repo.Create(ctx, user.User{Email: "other@test.ru", Phone: "+79990000001", Role: user.RoleStudent})
		assert.Equal(t, user.ErrPhoneExists, err)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("FindOne round-trip", func(t *testing.T) {
		repo := newRepo(t)
		usr := CreateUser(t, repo, "Ivanov Ivan", "ivan@test.ru", "+79990000001", "secret", user.RoleStudent)
		CreateUser(t, repo, "Staff Member", "staff@test.ru", "+79990000002", "", user.RoleStaff)

		tests := []struct {
			name    string
			q       user.Query
			want    user.User
			wantErr error
		}{
			{name: "empty query", q: user.Query{}, wantErr: user.ErrNotFound},
			{name: "by email", q: user.Query{Email: "ivan@test.ru"}, want: usr},
			{name: "by email (any case)", q: user.Query{Email: "IvAn@TEST.ru"}, want: usr},
			{name: "by phone", q: user.Query{Phone: "+79990000001"}, want: usr},
			{name: "by id", q: user.Query{ID: usr.ID}, want: usr},
			{name: "any field matches", q: user.Query{Email: "nobody@test.ru", Phone: "+79990000001"}, want: usr},
			{name: "phone is exact", q: user.Query{Phone: "79990000001"}, wantErr: user.ErrNotFound},
			{name: "unknown", q: user.Query{Email: "nobody@test.ru"}, wantErr: user.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.FindOne(ctx, tt.q)
				if tt.wantErr != nil {
					assert.Equal(t, tt.wantErr, err)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.want.ID, got.ID)
				assert.Equal(t, tt.want.Email, got.Email)
				assert.Equal(t, tt.want.Phone, got.Phone)
				assert.Equal(t, tt.want.FullName, got.FullName)
				assert.Equal(t, tt.want.Role, got.Role)
				assert.True(t, tt.want.CreatedAt.Equal(got.CreatedAt))
				assert.NoError(t, got.CheckPassword("secret"))
			})
		}
	})

	t.Run("UpdateOne", func(t *testing.T) {
		repo := newRepo(t)
		usr := CreateUser(t, repo, "Ivanov Ivan", "ivan@test.ru", "+79990000001", "secret", user.RoleStudent)
		other := CreateUser(t, repo, "Petrov Petr", "petr@test.ru", "+79990000002", "", user.RoleStudent)

		// empty patch is a no-op
		got, err := repo.UpdateOne(ctx, usr.ID, user.Patch{})
		require.NoError(t, err)
		assert.Equal(t, usr.Email, got.Email)
		assert.Equal(t, usr.FullName, got.FullName)
		assert.True(t, usr.UpdatedAt.Equal(got.UpdatedAt))
		assert.Equal(t, usr.PasswordHash, got.PasswordHash)

		_, err = repo.UpdateOne(ctx, "unknown", user.Patch{FullName: strPtr("X")})
		assert.Equal(t, user.ErrNotFound, err)

		_, err = repo.UpdateOne(ctx, usr.ID, user.Patch{Email: strPtr(other.Email)})
		assert.Equal(t, user.ErrEmailExists, err)
		_, err = repo.UpdateOne(ctx, usr.ID, user.Patch{Phone: strPtr(other.Phone)})
		assert.Equal(t, user.ErrPhoneExists, err)

		later := usr.UpdatedAt.Add(time.Hour)
		got, err = repo.UpdateOne(ctx, usr.ID, user.Patch{
			FullName:  strPtr("Ivanov Ivan Ivanovich"),
			Address:   strPtr("Lenina 1"),
			UpdatedAt: later,
		})
		require.NoError(t, err)
		assert.Equal(t, "Ivanov Ivan Ivanovich", got.FullName)
		assert.Equal(t, "Lenina 1", got.Address)
		assert.Equal(t, usr.Email, got.Email)

		stored, err := repo.FindOne(ctx, user.Query{ID: usr.ID})
		require.NoError(t, err)
		assert.Equal(t, "Ivanov Ivan Ivanovich", stored.FullName)
		assert.True(t, later.Equal(stored.UpdatedAt))
		assert.NoError(t, stored.CheckPassword("secret"))
	})

	t.Run("All keeps insertion order", func(t *testing.T) {
		repo := newRepo(t)
		u1 := CreateUser(t, repo, "B", "b@test.ru", "+79990000001", "", user.RoleStudent)
		u2 := CreateUser(t, repo, "A", "a@test.ru", "+79990000002", "", user.RoleStaff)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, u1.ID, all[0].ID)
		assert.Equal(t, u2.ID, all[1].ID)
	})
}

// StudentRepositorySuite checks the student.Repository contract. newRepo must return an empty repository.
func StudentRepositorySuite(t *testing.T, newRepo func(t *testing.T) student.Repository) {
	ctx := context.Background()
	const id = "0190b3e4-7c2a-7d6e-9a51-3f1f1c9c2b11"

	t.Run("Load absent", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Load(ctx, id)
		assert.Equal(t, student.ErrNotFound, err)
	})

	t.Run("Save then Load", func(t *testing.T) {
		repo := newRepo(t)
		info := student.Info{
			Payment:          3000,
			Payments:         []student.Payment{{Date: "2026-01-05", Amount: 3000}},
			Booking:          []student.Booking{{Date: "2026-01-12", Time: "10:00", Place: "БК"}},
			TheoryProgress:   40,
			PracticeProgress: 10,
			Instructor:       student.Instructor{ID: "i1", FullName: "Sidorov Sidor"},
		}
		require.NoError(t, repo.Save(ctx, id, info))

		got, err := repo.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, info, got)
	})

	t.Run("Update", func(t *testing.T) {
		repo := newRepo(t)

		// absent record starts blank
		got, err := repo.Update(ctx, id, func(info *student.Info) error {
			info.Payment += 100
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(100), got.Payment)

		// failing fn saves nothing
		boom := assert.AnError
		_, err = repo.Update(ctx, id, func(info *student.Info) error {
			info.Payment = 0
			return boom
		})
		assert.Equal(t, boom, err)

		got, err = repo.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(100), got.Payment)
	})

	t.Run("Update is serialized", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, id, student.NewInfo()))

		const n = 20
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				_, err := repo.Update(ctx, id, func(info *student.Info) error {
					info.Payments = append(info.Payments, student.Payment{Date: "2026-01-05", Amount: 1})
					info.Payment++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := repo.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(n), got.Payment)
		assert.Len(t, got.Payments, n)
	})
}

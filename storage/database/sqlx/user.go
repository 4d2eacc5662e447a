package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core/user"
)

const (
	uniqueViolation = "23505"
	userColumns     = "id, email, phone, password_hash, full_name, address, group_name, role, created_at, updated_at"
)

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	PasswordHash []byte    `db:"password_hash"`
	FullName     string    `db:"full_name"`
	Address      string    `db:"address"`
	Group        string    `db:"group_name"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Email:        usr.Email,
		Phone:        usr.Phone,
		PasswordHash: usr.PasswordHash,
		FullName:     usr.FullName,
		Address:      usr.Address,
		Group:        usr.Group,
		Role:         usr.Role,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Email:        r.Email,
		Phone:        r.Phone,
		PasswordHash: r.PasswordHash,
		FullName:     r.FullName,
		Address:      r.Address,
		Group:        r.Group,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

// uniquenessErr maps unique index violations to the user duplicate errors.
func uniquenessErr(err error) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case "users_email_key":
			return user.ErrEmailExists
		case "users_phone_key":
			return user.ErrPhoneExists
		}
	}
	return err
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) FindOne(ctx context.Context, q user.Query) (user.User, error) {
	if q.IsEmpty() {
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT `+userColumns+` FROM users
		WHERE ($1 <> '' AND lower(email) = lower($1))
		   OR ($2 <> '' AND phone = $2)
		   OR ($3 <> '' AND id = $3)
		ORDER BY seq
		LIMIT 1`,
		q.Email, q.Phone, q.ID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) Create(ctx context.Context, usr user.User) (user.User, error) {
	id, err := user.NewID()
	if err != nil {
		return user.User{}, errors.Wrap(err, "generating ID")
	}
	usr.ID = id

	_, err = repo.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :phone, :password_hash, :full_name, :address, :group_name, :role, :created_at, :updated_at)`,
		newUserRow(usr),
	)
	if err != nil {
		return user.User{}, uniquenessErr(errors.Wrap(err, "inserting user"))
	}
	return usr, nil
}

func (repo *userRepository) UpdateOne(ctx context.Context, id string, p user.Patch) (usr user.User, err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return user.User{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var row userRow
	if err = tx.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	if p.IsEmpty() {
		err = tx.Commit()
		return row.toUser(), errors.Wrap(err, "committing transaction")
	}

	usr = p.Apply(row.toUser())
	_, err = tx.NamedExecContext(ctx, `
		UPDATE users SET
			email = :email, phone = :phone, password_hash = :password_hash, full_name = :full_name,
			address = :address, group_name = :group_name, updated_at = :updated_at
		WHERE id = :id`,
		newUserRow(usr),
	)
	if err != nil {
		return user.User{}, uniquenessErr(errors.Wrap(err, "updating user"))
	}
	if err = tx.Commit(); err != nil {
		return user.User{}, errors.Wrap(err, "committing transaction")
	}
	return usr, nil
}

func (repo *userRepository) All(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users ORDER BY seq`); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

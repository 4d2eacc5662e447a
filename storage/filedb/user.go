package filedb

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core/user"
)

// userRecord is the on-disk layout of a user; `password` holds the hash, `status` the role.
type userRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Password  string    `json:"password"`
	FullName  string    `json:"fullName"`
	Address   string    `json:"address"`
	Group     string    `json:"group"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toRecord(usr user.User) userRecord {
	return userRecord{
		ID:        usr.ID,
		Email:     usr.Email,
		Phone:     usr.Phone,
		Password:  string(usr.PasswordHash),
		FullName:  usr.FullName,
		Address:   usr.Address,
		Group:     usr.Group,
		Status:    usr.Role,
		CreatedAt: usr.CreatedAt,
		UpdatedAt: usr.UpdatedAt,
	}
}

func (r userRecord) toUser() user.User {
	usr := user.User{
		ID:        r.ID,
		Email:     r.Email,
		Phone:     r.Phone,
		FullName:  r.FullName,
		Address:   r.Address,
		Group:     r.Group,
		Role:      r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Password != "" {
		usr.PasswordHash = []byte(r.Password)
	}
	return usr
}

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) load() ([]userRecord, error) {
	var records []userRecord
	if err := read(repo.db.usersPath(), &records); err != nil {
		if err == os.ErrNotExist {
			return []userRecord{}, nil
		}
		return nil, err
	}
	return records, nil
}

func (repo *userRepository) FindOne(_ context.Context, q user.Query) (user.User, error) {
	if q.IsEmpty() {
		return user.User{}, user.ErrNotFound
	}
	unlock := repo.db.lock(repo.db.usersPath())
	defer unlock()

	records, err := repo.load()
	if err != nil {
		return user.User{}, err
	}
	for _, rec := range records {
		if usr := rec.toUser(); q.Matches(usr) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) Create(_ context.Context, usr user.User) (user.User, error) {
	unlock := repo.db.lock(repo.db.usersPath())
	defer unlock()

	records, err := repo.load()
	if err != nil {
		return user.User{}, err
	}

	usr.ID, err = user.NewID()
	if err != nil {
		return user.User{}, errors.Wrap(err, "generating ID")
	}
	for _, rec := range records {
		if err = usr.Conflict(rec.toUser()); err != nil {
			return user.User{}, err
		}
	}

	if err = write(repo.db.usersPath(), append(records, toRecord(usr))); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) UpdateOne(_ context.Context, id string, p user.Patch) (user.User, error) {
	unlock := repo.db.lock(repo.db.usersPath())
	defer unlock()

	records, err := repo.load()
	if err != nil {
		return user.User{}, err
	}

	idx := -1
	for i, rec := range records {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return user.User{}, user.ErrNotFound
	}
	if p.IsEmpty() {
		return records[idx].toUser(), nil
	}

	usr := p.Apply(records[idx].toUser())
	for _, rec := range records {
		if err = usr.Conflict(rec.toUser()); err != nil {
			return user.User{}, err
		}
	}

	records[idx] = toRecord(usr)
	if err = write(repo.db.usersPath(), records); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) All(_ context.Context) ([]user.User, error) {
	unlock := repo.db.lock(repo.db.usersPath())
	defer unlock()

	records, err := repo.load()
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(records))
	for _, rec := range records {
		users = append(users, rec.toUser())
	}
	return users, nil
}

package inmemdb

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) index(id string) int {
	for i, usr := range repo.db.rows {
		if usr.ID == id {
			return i
		}
	}
	return -1
}

func (repo *userRepository) checkUniqueness(usr user.User) error {
	for _, u := range repo.db.rows {
		if err := usr.Conflict(u); err != nil {
			return err
		}
	}
	return nil
}

func (repo *userRepository) FindOne(_ context.Context, q user.Query) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if q.IsEmpty() {
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.rows {
		if q.Matches(usr) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) Create(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	id, err := user.NewID()
	if err != nil {
		return user.User{}, errors.Wrap(err, "generating ID")
	}
	usr.ID = id
	if err = repo.checkUniqueness(usr); err != nil {
		return user.User{}, err
	}
	repo.db.rows = append(repo.db.rows, usr)
	return usr, nil
}

func (repo *userRepository) UpdateOne(_ context.Context, id string, p user.Patch) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	idx := repo.index(id)
	if idx < 0 {
		return user.User{}, user.ErrNotFound
	}
	usr := p.Apply(repo.db.rows[idx])
	if err := repo.checkUniqueness(usr); err != nil {
		return user.User{}, err
	}
	repo.db.rows[idx] = usr
	return usr, nil
}

func (repo *userRepository) All(_ context.Context) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, len(repo.db.rows))
	copy(users, repo.db.rows)
	return users, nil
}

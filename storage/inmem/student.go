package inmemdb

import (
	"context"

	"github.com/trezcool/drivingschool/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

// clone copies the lists of info so that callers never share them with the table.
func clone(info student.Info) student.Info {
	info.Payments = append([]student.Payment{}, info.Payments...)
	info.Booking = append([]student.Booking{}, info.Booking...)
	return info
}

func (repo *studentRepository) Load(_ context.Context, id string) (student.Info, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	info, ok := repo.db.rows[id]
	if !ok {
		return student.Info{}, student.ErrNotFound
	}
	return clone(info), nil
}

func (repo *studentRepository) Save(_ context.Context, id string, info student.Info) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.rows[id] = clone(info)
	return nil
}

func (repo *studentRepository) Update(_ context.Context, id string, fn func(*student.Info) error) (student.Info, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	info, ok := repo.db.rows[id]
	if !ok {
		info = student.NewInfo()
	}
	info = clone(info)
	if err := fn(&info); err != nil {
		return student.Info{}, err
	}
	repo.db.rows[id] = clone(info)
	return info, nil
}

package filedb

import (
	"context"
	"os"

	"github.com/trezcool/drivingschool/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) load(path string) (student.Info, error) {
	info := student.NewInfo()
	if err := read(path, &info); err != nil {
		if err == os.ErrNotExist {
			return student.Info{}, student.ErrNotFound
		}
		return student.Info{}, err
	}
	return info, nil
}

func (repo *studentRepository) Load(_ context.Context, id string) (student.Info, error) {
	path, err := repo.db.studentPath(id)
	if err != nil {
		return student.Info{}, student.ErrNotFound
	}
	unlock := repo.db.lock(path)
	defer unlock()
	return repo.load(path)
}

func (repo *studentRepository) Save(_ context.Context, id string, info student.Info) error {
	path, err := repo.db.studentPath(id)
	if err != nil {
		return err
	}
	unlock := repo.db.lock(path)
	defer unlock()
	return write(path, info)
}

func (repo *studentRepository) Update(_ context.Context, id string, fn func(*student.Info) error) (student.Info, error) {
	path, err := repo.db.studentPath(id)
	if err != nil {
		return student.Info{}, student.ErrNotFound
	}
	unlock := repo.db.lock(path)
	defer unlock()

	info, err := repo.load(path)
	if err != nil {
		if err != student.ErrNotFound {
			return student.Info{}, err
		}
		info = student.NewInfo()
	}
	if err = fn(&info); err != nil {
		return student.Info{}, err
	}
	if err = write(path, info); err != nil {
		return student.Info{}, err
	}
	return info, nil
}

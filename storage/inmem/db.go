// Package inmemdb keeps users and student info in process memory.
package inmemdb

import (
	"sync"

	"github.com/trezcool/drivingschool/core/student"
	"github.com/trezcool/drivingschool/core/user"
)

type (
	DB struct {
		user    *userTable
		student *studentTable
	}

	userTable struct {
		rows  []user.User // insertion order
		mutex sync.RWMutex
	}

	studentTable struct {
		rows  map[string]student.Info
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:    &userTable{},
		student: &studentTable{rows: make(map[string]student.Info)},
	}
}

// Reset drops all rows.
func (db *DB) Reset() {
	db.user.mutex.Lock()
	db.user.rows = nil
	db.user.mutex.Unlock()

	db.student.mutex.Lock()
	db.student.rows = make(map[string]student.Info)
	db.student.mutex.Unlock()
}

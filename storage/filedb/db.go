// Package filedb stores users in one JSON file and student info in one JSON file per student.
package filedb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/pkg/errors"
)

const (
	usersFile   = "users.json"
	studentsDir = "info_students"
)

var (
	ErrInvalidID = errors.New("invalid id")

	idRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// DB is a directory of JSON files. Every read-modify-write of a file holds that file's lock
// and every write replaces the file atomically.
type DB struct {
	dir   string
	mutex sync.Mutex
	locks map[string]*sync.Mutex
}

// Open prepares dir for use, creating it and its students directory if needed.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(filepath.Join(dir, studentsDir), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	return &DB{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (db *DB) Dir() string {
	return db.dir
}

func (db *DB) usersPath() string {
	return filepath.Join(db.dir, usersFile)
}

// studentPath returns the info file of the student identified by id.
// Ids are restricted to a safe alphabet so they can never escape the students directory.
func (db *DB) studentPath(id string) (string, error) {
	if !idRegex.MatchString(id) {
		return "", ErrInvalidID
	}
	return filepath.Join(db.dir, studentsDir, id+".json"), nil
}

// lock locks path and returns its unlock func.
func (db *DB) lock(path string) func() {
	db.mutex.Lock()
	mu, ok := db.locks[path]
	if !ok {
		mu = new(sync.Mutex)
		db.locks[path] = mu
	}
	db.mutex.Unlock()

	mu.Lock()
	return mu.Unlock
}

// read decodes the JSON file at path into v. It returns os.ErrNotExist (unwrapped) for absent files.
func read(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return errors.Wrapf(err, "reading %s", path)
	}
	if err = json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	return nil
}

// write encodes v to a temp file next to path, then renames it over path.
func write(path string, v interface{}) (err error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing %s", tmp.Name())
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "syncing %s", tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmp.Name())
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "renaming to %s", path)
	}
	return nil
}

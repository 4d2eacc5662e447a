// Package storage opens the repositories selected by the auth mode.
package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core"
	"github.com/trezcool/drivingschool/core/student"
	"github.com/trezcool/drivingschool/core/user"
	"github.com/trezcool/drivingschool/storage/database"
	sqlxrepos "github.com/trezcool/drivingschool/storage/database/sqlx"
	"github.com/trezcool/drivingschool/storage/filedb"
)

// Repositories are the stores backing the services.
type Repositories struct {
	Users    user.Repository
	Students student.Repository
	// DB is the PostgreSQL handle in db mode, nil otherwise.
	DB    *sqlx.DB
	close func() error
}

func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// Open returns the JSON file stores in file mode, and the PostgreSQL stores in db mode.
// The database schema is brought up to date first when migrate is set.
func Open(ctx context.Context, conf *core.Config, migrate bool) (*Repositories, error) {
	switch conf.AuthMode {
	case core.AuthModeFile:
		db, err := filedb.Open(conf.Storage.DataDir)
		if err != nil {
			return nil, errors.Wrap(err, "opening data dir")
		}
		return &Repositories{
			Users:    filedb.NewUserRepository(db),
			Students: filedb.NewStudentRepository(db),
		}, nil

	case core.AuthModeDB:
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		if migrate {
			if err = database.Migrate(ctx, db.DB); err != nil {
				_ = db.Close()
				return nil, errors.Wrap(err, "migrating database")
			}
		}
		return &Repositories{
			Users:    sqlxrepos.NewUserRepository(db),
			Students: sqlxrepos.NewStudentRepository(db),
			DB:       db,
			close:    db.Close,
		}, nil
	}
	return nil, errors.Errorf("unsupported auth mode %q", conf.AuthMode)
}

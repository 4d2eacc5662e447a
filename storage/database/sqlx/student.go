package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func decodeInfo(data types.JSONText) (student.Info, error) {
	info := student.NewInfo()
	if err := data.Unmarshal(&info); err != nil {
		return student.Info{}, errors.Wrap(err, "decoding student info")
	}
	return info, nil
}

func encodeInfo(info student.Info) (types.JSONText, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return nil, errors.Wrap(err, "encoding student info")
	}
	return types.JSONText(data), nil
}

func (repo *studentRepository) Load(ctx context.Context, id string) (student.Info, error) {
	var data types.JSONText
	if err := repo.db.GetContext(ctx, &data, `SELECT data FROM student_info WHERE user_id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return student.Info{}, student.ErrNotFound
		}
		return student.Info{}, errors.Wrap(err, "selecting student info")
	}
	return decodeInfo(data)
}

func (repo *studentRepository) Save(ctx context.Context, id string, info student.Info) error {
	data, err := encodeInfo(info)
	if err != nil {
		return err
	}
	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO student_info (user_id, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		id, data.String(),
	)
	return errors.Wrap(err, "saving student info")
}

func (repo *studentRepository) Update(ctx context.Context, id string, fn func(*student.Info) error) (info student.Info, err error) {
	blank, err := encodeInfo(student.NewInfo())
	if err != nil {
		return student.Info{}, err
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return student.Info{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// make sure there is a row to lock
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO student_info (user_id, data) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`, id, blank.String(),
	); err != nil {
		return student.Info{}, errors.Wrap(err, "inserting student info")
	}

	var data types.JSONText
	if err = tx.GetContext(ctx, &data, `SELECT data FROM student_info WHERE user_id = $1 FOR UPDATE`, id); err != nil {
		return student.Info{}, errors.Wrap(err, "selecting student info")
	}
	if info, err = decodeInfo(data); err != nil {
		return student.Info{}, err
	}
	if err = fn(&info); err != nil {
		return student.Info{}, err
	}
	if data, err = encodeInfo(info); err != nil {
		return student.Info{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE student_info SET data = $2, updated_at = now() WHERE user_id = $1`, id, data.String(),
	); err != nil {
		return student.Info{}, errors.Wrap(err, "updating student info")
	}
	if err = tx.Commit(); err != nil {
		return student.Info{}, errors.Wrap(err, "committing transaction")
	}
	return info, nil
}

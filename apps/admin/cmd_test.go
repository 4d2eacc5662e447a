package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/drivingschool/core"
	"github.com/trezcool/drivingschool/core/schedule"
	"github.com/trezcool/drivingschool/core/student"
	"github.com/trezcool/drivingschool/core/user"
	"github.com/trezcool/drivingschool/services/export"
	inmemdb "github.com/trezcool/drivingschool/storage/inmem"
	"github.com/trezcool/drivingschool/tests"
)

var (
	ctxBg       = context.Background()
	usrRepo     user.Repository
	studentRepo student.Repository
)

func setup(t *testing.T) *commandLine {
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	studentRepo = inmemdb.NewStudentRepository(db)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	catalog := schedule.Catalog{Groups: []string{"A1", "B2"}, Places: schedule.DefaultPlaces}
	usrSvc := user.NewService(usrRepo)
	return &commandLine{
		usrSvc:     usrSvc,
		studentSvc: student.NewService(studentRepo, usrSvc, catalog.Rules(nil), student.Options{}),
		catalog:    catalog,
		validate:   validate,
		translator: translator,
	}
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func (tt cliTest) run(t *testing.T, cli *commandLine) {
	t.Helper()
	mockPassword(t, tt.pwd)

	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"adduser", "-lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli) })
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	studentArgs := []string{"adduser", "-first", "Ivan", "-last", "Ivanov", "-email", "Ivan@test.ru", "-phone", "+79990000001", "-group", "A1"}

	tests := []cliTest{
		{name: "no login", args: []string{"adduser", "-first", "Ivan"}, pwd: "Kolobok-2026", wantErr: errHelp},
		{name: "no password", args: studentArgs, wantErr: errHelp},
		{
			name: "invalid data", args: []string{"adduser", "-first", "Ivan", "-last", "Ivanov", "-email", "lol", "-phone", "+79990000001", "-group", "A1"},
			pwd: "Kolobok-2026", wantErrStr: "email: email must be a valid email address",
		},
		{
			name: "unknown group", args: []string{"adduser", "-first", "Ivan", "-last", "Ivanov", "-email", "ivan@test.ru", "-phone", "+79990000001", "-group", "C3"},
			pwd: "Kolobok-2026", wantErr: errUnknownGroup,
		},
		{name: "student", args: studentArgs, pwd: "Kolobok-2026"},
		{name: "duplicate", args: studentArgs, pwd: "Kolobok-2026", wantErrStr: user.ErrEmailExists.Error()},
		{
			name: "staff", args: []string{"adduser", "-staff", "-first", "Sidor", "-last", "Sidorov", "-email", "sidor@test.ru", "-phone", "+79990000002"},
			pwd: "Kolobok-2026",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli) })
	}

	stdnt, err := usrRepo.FindOne(ctxBg, user.Query{Email: "ivan@test.ru"})
	require.NoError(t, err)
	assert.True(t, stdnt.IsStudent())
	assert.Equal(t, "Ivanov Ivan", stdnt.FullName)
	assert.NoError(t, stdnt.CheckPassword("Kolobok-2026"))
	_, err = studentRepo.Load(ctxBg, stdnt.ID)
	assert.NoError(t, err, "student info initialized")

	staff, err := usrRepo.FindOne(ctxBg, user.Query{Phone: "+79990000002"})
	require.NoError(t, err)
	assert.True(t, staff.IsStaff())
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Ivanov Ivan", "ivan@test.ru", "+79990000001", "Kolobok-2026", user.RoleStudent)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "login but no password", args: []string{"resetpassword", "-login", "ivan@test.ru"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-login", "lol"}, pwd: "lol-lol-lol", wantErr: user.ErrNotFound},
		{name: "reset with email", args: []string{"resetpassword", "-login", usr.Email}, pwd: "Brand-New-1"},
		{name: "reset with phone", args: []string{"resetpassword", "-login", usr.Phone}, pwd: "Brand-New-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli) })
	}

	got, err := usrRepo.FindOne(ctxBg, user.Query{ID: usr.ID})
	require.NoError(t, err)
	assert.NoError(t, got.CheckPassword("Brand-New-2"))
}

func Test_commandLine_export(t *testing.T) {
	cli := setup(t)
	stdnt := testutil.CreateUser(t, usrRepo, "Ivanov Ivan", "ivan@test.ru", "+79990000001", "", user.RoleStudent)
	testutil.CreateUser(t, usrRepo, "Sidorov Sidor", "sidor@test.ru", "+79990000002", "", user.RoleStaff)

	info := student.NewInfo()
	info.Payment = 3000
	info.Payments = []student.Payment{{Date: "2026-01-01", Amount: 3000}}
	info.Booking = []student.Booking{{Date: "2026-01-12", Time: "10:00", Place: "БК"}}
	require.NoError(t, studentRepo.Save(ctxBg, stdnt.ID, info))

	out := filepath.Join(t.TempDir(), "students.xlsx")
	tests := []cliTest{
		{name: "not an xlsx file", args: []string{"export", "-out", "students.csv"}, wantErr: errHelp},
		{name: "exported", args: []string{"export", "-out", out}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli) })
	}

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetStudents)
	require.NoError(t, err)
	require.Len(t, rows, 2, "header + 1 student")
	assert.Equal(t, stdnt.ID, rows[1][0])

	rows, err = f.GetRows(export.SheetBookings)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{stdnt.ID, "Ivanov Ivan", "2026-01-12", "10:00", "БК"}, rows[1])
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	t.Run("file mode", func(t *testing.T) {
		cliTest{args: []string{"migrate", "up"}, wantErr: errNoDatabase}.run(t, cli)
	})

	cli.db = &sql.DB{}
	gooseRunFunc = func(_ context.Context, _ *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli) })
	}
}

package student_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/drivingschool/core"
	"github.com/trezcool/drivingschool/core/schedule"
	"github.com/trezcool/drivingschool/core/student"
	"github.com/trezcool/drivingschool/core/user"
	inmemdb "github.com/trezcool/drivingschool/storage/inmem"
	"github.com/trezcool/drivingschool/tests"
)

var (
	ctx   = context.Background()
	rules = schedule.Rules{
		WorkingDays: []string{"Monday"},
		Blackouts:   []string{"2026-01-05"},
		Times:       []string{"10:00", "12:00"},
		Places:      schedule.DefaultPlaces,
		Location:    time.UTC,
	}
)

type fixture struct {
	svc        student.ServiceInterface
	repo       student.Repository
	stdnt      user.User
	instructor user.User
}

func setup(t *testing.T, opts student.Options) fixture {
	// Thursday, 1st of January 2026
	schedule.NowFunc = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { schedule.NowFunc = time.Now })

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	repo := inmemdb.NewStudentRepository(db)
	return fixture{
		svc:        student.NewService(repo, user.NewService(usrRepo), rules, opts),
		repo:       repo,
		stdnt:      testutil.CreateUser(t, usrRepo, "Ivanov Ivan", "ivan@test.ru", "+79990000001", "", user.RoleStudent),
		instructor: testutil.CreateUser(t, usrRepo, "Sidorov Sidor", "sidor@test.ru", "+79990000002", "", user.RoleStaff),
	}
}

func TestService_Profile(t *testing.T) {
	fx := setup(t, student.Options{})

	t.Run("no info yet", func(t *testing.T) {
		p, err := fx.svc.Profile(ctx, fx.stdnt.ID)
		require.NoError(t, err)
		assert.Equal(t, fx.stdnt.ID, p.User.ID)
		assert.Equal(t, student.NewInfo(), p.Info)
	})

	t.Run("nil lists are normalized", func(t *testing.T) {
		require.NoError(t, fx.repo.Save(ctx, fx.stdnt.ID, student.Info{Payment: 100}))
		p, err := fx.svc.Profile(ctx, fx.stdnt.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), p.Info.Payment)
		assert.NotNil(t, p.Info.Payments)
		assert.NotNil(t, p.Info.Booking)
	})

	t.Run("own profile of staff", func(t *testing.T) {
		p, err := fx.svc.OwnProfile(ctx, fx.instructor.ID)
		require.NoError(t, err)
		assert.Equal(t, fx.instructor.ID, p.User.ID)
		assert.Equal(t, student.NewInfo(), p.Info)

		p, err = fx.svc.OwnProfile(ctx, fx.stdnt.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), p.Info.Payment)

		_, err = fx.svc.OwnProfile(ctx, "unknown")
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("not a student", func(t *testing.T) {
		_, err := fx.svc.Profile(ctx, fx.instructor.ID)
		assert.Equal(t, student.ErrStudentNotFound, err)
		_, err = fx.svc.Profile(ctx, "unknown")
		assert.Equal(t, student.ErrStudentNotFound, err)
	})
}

func TestService_AddPayment(t *testing.T) {
	fx := setup(t, student.Options{})
	require.NoError(t, fx.svc.Init(ctx, fx.stdnt.ID))

	for _, amount := range []int64{0, -5} {
		_, err := fx.svc.AddPayment(ctx, fx.stdnt.ID, student.NewPayment{Amount: amount})
		verr, ok := errors.Cause(err).(*core.ValidationError)
		require.True(t, ok, "amount %d: %v", amount, err)
		assert.Equal(t, []core.FieldError{{Field: "amount", Error: "amount must be greater than 0"}}, verr.Fields)
	}

	_, err := fx.svc.AddPayment(ctx, fx.stdnt.ID, student.NewPayment{Amount: 3000})
	require.NoError(t, err)
	info, err := fx.svc.AddPayment(ctx, fx.stdnt.ID, student.NewPayment{Amount: 1500})
	require.NoError(t, err)
	assert.Equal(t, int64(4500), info.Payment)
	assert.Equal(t, []student.Payment{{Date: "2026-01-01", Amount: 3000}, {Date: "2026-01-01", Amount: 1500}}, info.Payments)

	_, err = fx.svc.AddPayment(ctx, "unknown", student.NewPayment{Amount: 100})
	assert.Equal(t, student.ErrStudentNotFound, err)
}

func TestService_AddBooking(t *testing.T) {
	fx := setup(t, student.Options{})

	tests := []struct {
		name    string
		booking student.NewBooking
		wantErr error
	}{
		{name: "malformed date", booking: student.NewBooking{Date: "12/01/2026", Time: "10:00", Place: "БК"}, wantErr: schedule.ErrMalformedDate},
		{name: "past", booking: student.NewBooking{Date: "2025-12-29", Time: "10:00", Place: "БК"}, wantErr: schedule.ErrPastDate},
		{name: "blackout monday", booking: student.NewBooking{Date: "2026-01-05", Time: "10:00", Place: "БК"}, wantErr: schedule.ErrBlackoutDate},
		{name: "tuesday", booking: student.NewBooking{Date: "2026-01-06", Time: "10:00", Place: "БК"}, wantErr: schedule.ErrNotWorkingDay},
		{name: "unknown time", booking: student.NewBooking{Date: "2026-01-12", Time: "09:00", Place: "БК"}, wantErr: schedule.ErrUnknownTime},
		{name: "unknown place", booking: student.NewBooking{Date: "2026-01-12", Time: "10:00", Place: "Луна"}, wantErr: schedule.ErrUnknownPlace},
		{name: "following monday", booking: student.NewBooking{Date: "2026-01-12", Time: "10:00", Place: "БК"}},
		{name: "duplicates allowed", booking: student.NewBooking{Date: "2026-01-12", Time: "10:00", Place: "БК"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.AddBooking(ctx, fx.stdnt.ID, tt.booking)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	info, err := fx.repo.Load(ctx, fx.stdnt.ID)
	require.NoError(t, err)
	assert.Len(t, info.Booking, 2)
}

func TestService_AddBooking_rejectDuplicates(t *testing.T) {
	fx := setup(t, student.Options{RejectDuplicates: true})
	nb := student.NewBooking{Date: "2026-01-12", Time: "10:00", Place: "БК"}

	_, err := fx.svc.AddBooking(ctx, fx.stdnt.ID, nb)
	require.NoError(t, err)
	_, err = fx.svc.AddBooking(ctx, fx.stdnt.ID, nb)
	assert.Equal(t, student.ErrDuplicateBooking, err)

	nb.Time = "12:00"
	info, err := fx.svc.AddBooking(ctx, fx.stdnt.ID, nb)
	require.NoError(t, err)
	assert.Len(t, info.Booking, 2)
}

func TestService_CancelBooking(t *testing.T) {
	fx := setup(t, student.Options{})
	info := student.NewInfo()
	info.Booking = []student.Booking{
		{Date: "2026-01-12", Time: "10:00", Place: "БК"},
		{Date: "2026-01-12", Time: "12:00", Place: "БК"},
		{Date: "2026-01-19", Time: "10:00", Place: "Атриум"},
	}
	require.NoError(t, fx.repo.Save(ctx, fx.stdnt.ID, info))

	for _, index := range []int{-1, 3} {
		_, err := fx.svc.CancelBooking(ctx, fx.stdnt.ID, index)
		assert.Equal(t, student.ErrBookingNotFound, err, "index %d", index)
	}

	got, err := fx.svc.CancelBooking(ctx, fx.stdnt.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []student.Booking{info.Booking[0], info.Booking[2]}, got.Booking)

	// failed cancellations leave the record untouched
	stored, err := fx.repo.Load(ctx, fx.stdnt.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestService_UpdateProgress(t *testing.T) {
	fx := setup(t, student.Options{})
	intp := func(i int) *int { return &i }
	strp := func(s string) *string { return &s }

	_, err := fx.svc.UpdateProgress(ctx, fx.stdnt.ID, student.ProgressUpdate{InstructorID: strp("unknown")})
	assert.Equal(t, student.ErrInstructorInvalid, err)
	_, err = fx.svc.UpdateProgress(ctx, fx.stdnt.ID, student.ProgressUpdate{InstructorID: strp(fx.stdnt.ID)})
	assert.Equal(t, student.ErrInstructorInvalid, err)

	info, err := fx.svc.UpdateProgress(ctx, fx.stdnt.ID, student.ProgressUpdate{
		TheoryProgress:  intp(40),
		InstructorID:    strp(fx.instructor.ID),
		InstructorPhoto: strp("/img/sidorov.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, 40, info.TheoryProgress)
	assert.Equal(t, student.Instructor{ID: fx.instructor.ID, FullName: "Sidorov Sidor", Photo: "/img/sidorov.jpg"}, info.Instructor)

	// same instructor keeps the photo
	info, err = fx.svc.UpdateProgress(ctx, fx.stdnt.ID, student.ProgressUpdate{
		PracticeProgress: intp(10),
		InstructorID:     strp(fx.instructor.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, 40, info.TheoryProgress)
	assert.Equal(t, 10, info.PracticeProgress)
	assert.Equal(t, "/img/sidorov.jpg", info.Instructor.Photo)

	// blank id unassigns
	info, err = fx.svc.UpdateProgress(ctx, fx.stdnt.ID, student.ProgressUpdate{InstructorID: strp("")})
	require.NoError(t, err)
	assert.Equal(t, student.Instructor{}, info.Instructor)
}

func TestService_concurrentPayments(t *testing.T) {
	fx := setup(t, student.Options{})

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.AddPayment(ctx, fx.stdnt.ID, student.NewPayment{Amount: 100})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	info, err := fx.repo.Load(ctx, fx.stdnt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), info.Payment)
	assert.Len(t, info.Payments, 25)
}

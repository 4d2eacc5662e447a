// Package student manages the mutable per-student state: payments, bookings and course progress.
package student

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core"
	"github.com/trezcool/drivingschool/core/schedule"
	"github.com/trezcool/drivingschool/core/user"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("student info not found")
	ErrBookingNotFound   = core.NewNotFoundError("booking not found")
	ErrStudentNotFound   = core.NewNotFoundError("student not found")
	ErrDuplicateBooking  = core.NewValidationError(errors.New("this slot is already booked"))
	ErrInstructorInvalid = core.NewValidationError(nil, core.FieldError{Field: "instructorId", Error: "instructor not found"})
)

type (
	// Repository is the student info store.
	Repository interface {
		// Load returns the Info stored under id, or ErrNotFound.
		Load(ctx context.Context, id string) (Info, error)
		// Save replaces the Info stored under id.
		Save(ctx context.Context, id string, info Info) error
		// Update runs fn on the stored Info (NewInfo if absent) and saves the result,
		// holding the record lock for the whole read-modify-write.
		// Nothing is saved when fn fails.
		Update(ctx context.Context, id string, fn func(*Info) error) (Info, error)
	}

	ServiceInterface interface {
		Init(ctx context.Context, id string) error
		Profile(ctx context.Context, id string) (Profile, error)
		OwnProfile(ctx context.Context, id string) (Profile, error)
		AddPayment(ctx context.Context, id string, np NewPayment) (Info, error)
		AddBooking(ctx context.Context, id string, nb NewBooking) (Info, error)
		CancelBooking(ctx context.Context, id string, index int) (Info, error)
		UpdateProgress(ctx context.Context, id string, pu ProgressUpdate) (Info, error)
	}

	// Options tune the booking policy.
	Options struct {
		RejectDuplicates bool
	}

	service struct {
		repo   Repository
		usrSvc user.ServiceInterface
		rules  schedule.Rules
		opts   Options
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, usrSvc user.ServiceInterface, rules schedule.Rules, opts Options) ServiceInterface {
	return &service{
		repo:   repo,
		usrSvc: usrSvc,
		rules:  rules,
		opts:   opts,
	}
}

// student returns the student User identified by id.
func (svc *service) student(ctx context.Context, id string) (user.User, error) {
	usr, err := svc.usrSvc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return user.User{}, ErrStudentNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsStudent() {
		return user.User{}, ErrStudentNotFound
	}
	return usr, nil
}

func (svc *service) Init(ctx context.Context, id string) error {
	return svc.repo.Save(ctx, id, NewInfo())
}

// Profile returns the profile of a student.
func (svc *service) Profile(ctx context.Context, id string) (Profile, error) {
	usr, err := svc.student(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return svc.profile(ctx, usr)
}

// OwnProfile returns the profile of any user, staff included; users without a record get a zero Info.
func (svc *service) OwnProfile(ctx context.Context, id string) (Profile, error) {
	usr, err := svc.usrSvc.GetByID(ctx, id)
	if err != nil {
		return Profile{}, errors.Wrap(err, "finding user by ID")
	}
	return svc.profile(ctx, usr)
}

func (svc *service) profile(ctx context.Context, usr user.User) (Profile, error) {
	info, err := svc.repo.Load(ctx, usr.ID)
	if err != nil {
		if !core.IsNotFound(err) {
			return Profile{}, errors.Wrap(err, "loading student info")
		}
		info = NewInfo()
	}
	return Profile{User: usr, Info: info.normalize()}, nil
}

func (svc *service) update(ctx context.Context, id string, fn func(*Info) error) (Info, error) {
	if _, err := svc.student(ctx, id); err != nil {
		return Info{}, err
	}
	info, err := svc.repo.Update(ctx, id, fn)
	if err != nil {
		return Info{}, err
	}
	return info.normalize(), nil
}

// AddPayment records a payment made today and bumps the cumulative total.
func (svc *service) AddPayment(ctx context.Context, id string, np NewPayment) (Info, error) {
	if np.Amount <= 0 {
		return Info{}, core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "amount must be greater than 0"})
	}
	pmt := Payment{
		Date:   schedule.Today(svc.rules.Location).Format(schedule.DateLayout),
		Amount: np.Amount,
	}
	return svc.update(ctx, id, func(info *Info) error {
		info.Payments = append(info.Payments, pmt)
		info.Payment += pmt.Amount
		return nil
	})
}

// AddBooking appends a booking once the slot passes the school availability rules.
func (svc *service) AddBooking(ctx context.Context, id string, nb NewBooking) (Info, error) {
	date, err := schedule.ParseDate(nb.Date, svc.rules.Location)
	if err != nil {
		return Info{}, err
	}
	if err = svc.rules.Check(date); err != nil {
		return Info{}, err
	}
	if err = svc.rules.CheckSlot(nb.Time, nb.Place); err != nil {
		return Info{}, err
	}

	bkg := Booking{Date: date.Format(schedule.DateLayout), Time: nb.Time, Place: nb.Place}
	return svc.update(ctx, id, func(info *Info) error {
		if svc.opts.RejectDuplicates {
			for _, b := range info.Booking {
				if b.Same(bkg) {
					return ErrDuplicateBooking
				}
			}
		}
		info.Booking = append(info.Booking, bkg)
		return nil
	})
}

// CancelBooking removes the booking at index (0-based).
func (svc *service) CancelBooking(ctx context.Context, id string, index int) (Info, error) {
	return svc.update(ctx, id, func(info *Info) error {
		if index < 0 || index >= len(info.Booking) {
			return ErrBookingNotFound
		}
		info.Booking = append(info.Booking[:index:index], info.Booking[index+1:]...)
		return nil
	})
}

func (svc *service) UpdateProgress(ctx context.Context, id string, pu ProgressUpdate) (Info, error) {
	var instructor *Instructor
	if pu.InstructorID != nil {
		instructor = &Instructor{}
		if *pu.InstructorID != "" {
			usr, err := svc.usrSvc.GetByID(ctx, *pu.InstructorID)
			if err != nil {
				if core.IsNotFound(err) {
					return Info{}, ErrInstructorInvalid
				}
				return Info{}, errors.Wrap(err, "finding instructor by ID")
			}
			if !usr.IsStaff() {
				return Info{}, ErrInstructorInvalid
			}
			instructor.ID = usr.ID
			instructor.FullName = usr.FullName
		}
	}

	return svc.update(ctx, id, func(info *Info) error {
		if pu.TheoryProgress != nil {
			info.TheoryProgress = *pu.TheoryProgress
		}
		if pu.PracticeProgress != nil {
			info.PracticeProgress = *pu.PracticeProgress
		}
		if instructor != nil {
			if instructor.ID == info.Instructor.ID {
				instructor.Photo = info.Instructor.Photo
			}
			info.Instructor = *instructor
		}
		if pu.InstructorPhoto != nil {
			info.Instructor.Photo = *pu.InstructorPhoto
		}
		return nil
	})
}

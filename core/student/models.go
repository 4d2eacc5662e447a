package student

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/drivingschool/core"
	"github.com/trezcool/drivingschool/core/user"
)

// Info is the mutable per-student record, keyed by the student's user ID.
type Info struct {
	Payment          int64      `json:"payment"` // cumulative total
	Payments         []Payment  `json:"payments"`
	Booking          []Booking  `json:"booking"`
	TheoryProgress   int        `json:"theoryProgress"`
	PracticeProgress int        `json:"practiceProgress"`
	Instructor       Instructor `json:"instructor"`
}

func NewInfo() Info {
	return Info{
		Payments: []Payment{},
		Booking:  []Booking{},
	}
}

// normalize replaces nil lists so that they are serialized as `[]`.
func (i Info) normalize() Info {
	if i.Payments == nil {
		i.Payments = []Payment{}
	}
	if i.Booking == nil {
		i.Booking = []Booking{}
	}
	return i
}

type Payment struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Amount int64  `json:"amount"`
}

// Booking is a reserved slot: a (date, time, place) triple.
type Booking struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Time  string `json:"time"`
	Place string `json:"place"`
}

func (b Booking) Same(o Booking) bool {
	return b.Date == o.Date && b.Time == o.Time && b.Place == o.Place
}

type Instructor struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Photo    string `json:"photo"`
}

// Profile is the composed view of a student: identity record and mutable state.
type Profile struct {
	User user.User `json:"user"`
	Info Info      `json:"info"`
}

// NewPayment is a payment in whole rubles.
type NewPayment struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	return validate.Struct(np)
}

type NewBooking struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Time  string `json:"time" validate:"required"`
	Place string `json:"place" validate:"required"`
}

func (nb *NewBooking) Validate(validate *validator.Validate) error {
	nb.Date = core.CleanString(nb.Date)
	nb.Time = core.CleanString(nb.Time)
	nb.Place = core.CleanString(nb.Place)
	return validate.Struct(nb)
}

// ProgressUpdate sets course progress (percentages) and the assigned instructor.
// Nil fields are left untouched; an empty InstructorID unassigns the instructor.
type ProgressUpdate struct {
	TheoryProgress   *int    `json:"theoryProgress" validate:"omitempty,min=0,max=100"`
	PracticeProgress *int    `json:"practiceProgress" validate:"omitempty,min=0,max=100"`
	InstructorID     *string `json:"instructorId"`
	InstructorPhoto  *string `json:"instructorPhoto"`
}

func (pu *ProgressUpdate) Validate(validate *validator.Validate) error {
	if pu.InstructorID != nil {
		id := core.CleanString(*pu.InstructorID)
		pu.InstructorID = &id
	}
	return validate.Struct(pu)
}

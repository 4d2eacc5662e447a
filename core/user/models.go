package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/drivingschool/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleStaff   = "staff"
)

var AllRoles = []string{RoleStudent, RoleStaff}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	FullName     string    `json:"fullName"`
	Address      string    `json:"address"`
	Group        string    `json:"group"`
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

// NewID returns a new unique, time-ordered User ID.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsStaff() bool {
	return u.Role == RoleStaff
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// Conflict reports whether o (another User) already holds the email or phone of u.
func (u User) Conflict(o User) error {
	if o.ID == u.ID {
		return nil
	}
	if u.Email != "" && strings.EqualFold(o.Email, u.Email) {
		return ErrEmailExists
	}
	if u.Phone != "" && o.Phone == u.Phone {
		return ErrPhoneExists
	}
	return nil
}

// Query matches a User by any of its non-blank fields.
type Query struct {
	ID    string
	Email string
	Phone string
}

func (q Query) IsEmpty() bool {
	return q.ID == "" && q.Email == "" && q.Phone == ""
}

// Matches reports whether usr satisfies q: email case-insensitively, phone and id exactly.
func (q Query) Matches(usr User) bool {
	return (q.Email != "" && strings.EqualFold(usr.Email, q.Email)) ||
		(q.Phone != "" && usr.Phone == q.Phone) ||
		(q.ID != "" && usr.ID == q.ID)
}

// Patch holds the fields to merge into a stored User. Nil/empty fields are left untouched.
type Patch struct {
	Email        *string
	Phone        *string
	FullName     *string
	Address      *string
	Group        *string
	PasswordHash []byte
	UpdatedAt    time.Time
}

func (p Patch) IsEmpty() bool {
	return p.Email == nil && p.Phone == nil && p.FullName == nil && p.Address == nil && p.Group == nil &&
		p.PasswordHash == nil
}

// Apply merges the set fields of p into usr.
func (p Patch) Apply(usr User) User {
	if p.IsEmpty() {
		return usr
	}
	if p.Email != nil {
		usr.Email = *p.Email
	}
	if p.Phone != nil {
		usr.Phone = *p.Phone
	}
	if p.FullName != nil {
		usr.FullName = *p.FullName
	}
	if p.Address != nil {
		usr.Address = *p.Address
	}
	if p.Group != nil {
		usr.Group = *p.Group
	}
	if p.PasswordHash != nil {
		usr.PasswordHash = p.PasswordHash
	}
	if !p.UpdatedAt.IsZero() {
		usr.UpdatedAt = p.UpdatedAt
	}
	return usr
}

// NewStudent contains information needed to register a new student.
type NewStudent struct {
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	MiddleName string `json:"middleName"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,phone"`
	Password   string `json:"password" validate:"required"`
	Address    string `json:"address"`
	Group      string `json:"group" validate:"required"`
}

func (ns *NewStudent) clean() {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.MiddleName = core.CleanString(ns.MiddleName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Password = core.CleanString(ns.Password)
	ns.Address = core.CleanString(ns.Address)
	ns.Group = core.CleanString(ns.Group)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.clean()
	return validate.Struct(ns)
}

func (ns NewStudent) FullName() string {
	return FullName(ns.LastName, ns.FirstName, ns.MiddleName)
}

// NewStaff contains information needed to register a staff member (instructor).
type NewStaff struct {
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	MiddleName string `json:"middleName"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,phone"`
	Password   string `json:"password" validate:"required"`
	Address    string `json:"address"`
}

func (ns *NewStaff) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.MiddleName = core.CleanString(ns.MiddleName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Password = core.CleanString(ns.Password)
	ns.Address = core.CleanString(ns.Address)
	return validate.Struct(ns)
}

func (ns NewStaff) FullName() string {
	return FullName(ns.LastName, ns.FirstName, ns.MiddleName)
}

// FullName joins name parts the way the school writes them: "Last First Middle".
func FullName(last, first, middle string) string {
	return strings.TrimSpace(strings.Join([]string{last, first, middle}, " "))
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,phone"`
	FullName    *string `json:"fullName"`
	Address     *string `json:"address"`
	Group       *string `json:"group"`
	NewPassword string  `json:"newPassword"`
}

func cleanPtr(s *string, lower ...bool) *string {
	if s == nil {
		return nil
	}
	c := core.CleanString(*s, lower...)
	return &c
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	uu.Email = cleanPtr(uu.Email, true /* lower */)
	uu.Phone = cleanPtr(uu.Phone)
	uu.FullName = cleanPtr(uu.FullName)
	uu.Address = cleanPtr(uu.Address)
	uu.Group = cleanPtr(uu.Group)
	uu.NewPassword = core.CleanString(uu.NewPassword)

	// blank values mean "leave as is"; only the address may be cleared
	for _, fld := range []**string{&uu.Email, &uu.Phone, &uu.FullName, &uu.Group} {
		if *fld != nil && **fld == "" {
			*fld = nil
		}
	}
	return validate.Struct(uu)
}

// LoginQuery builds the lookup used at login: email wins over phone.
func LoginQuery(email, phone string) Query {
	email = core.CleanString(email, true /* lower */)
	if email != "" {
		return Query{Email: email}
	}
	return Query{Phone: core.CleanString(phone)}
}

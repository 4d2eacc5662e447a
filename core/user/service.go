package user

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
	ErrPhoneExists = errors.New("a user with this phone already exists")
)

type (
	// Repository is the credential store.
	Repository interface {
		// FindOne returns the first User matching any of the non-blank Query fields.
		FindOne(ctx context.Context, q Query) (User, error)
		// Create assigns a new unique ID to usr and stores it.
		// It fails with ErrEmailExists or ErrPhoneExists on duplicates.
		Create(ctx context.Context, usr User) (User, error)
		// UpdateOne merges p into the User identified by id.
		UpdateOne(ctx context.Context, id string, p Patch) (User, error)
		All(ctx context.Context) ([]User, error)
	}

	ServiceInterface interface {
		RegisterStudent(ctx context.Context, ns NewStudent) (User, error)
		RegisterStaff(ctx context.Context, ns NewStaff) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByLogin(ctx context.Context, email, phone string) (User, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		ResetPassword(ctx context.Context, login, pwd string) (User, error)
		All(ctx context.Context) ([]User, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) ServiceInterface {
	return &service{repo: repo}
}

// uniquenessErr maps repository duplicate errors to field validation errors.
func uniquenessErr(err error) error {
	switch errors.Cause(err) {
	case ErrEmailExists:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	case ErrPhoneExists:
		return core.NewValidationError(ErrPhoneExists, core.FieldError{Field: "phone", Error: ErrPhoneExists.Error()})
	}
	return err
}

func (svc *service) create(ctx context.Context, usr User, pwd string) (User, error) {
	now := time.Now().UTC()
	usr.CreatedAt = now
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.Create(ctx, usr)
	if err != nil {
		return User{}, uniquenessErr(err)
	}
	return usr, nil
}

func (svc *service) RegisterStudent(ctx context.Context, ns NewStudent) (User, error) {
	return svc.create(ctx, User{
		Email:    ns.Email,
		Phone:    ns.Phone,
		FullName: ns.FullName(),
		Address:  ns.Address,
		Group:    ns.Group,
		Role:     RoleStudent,
	}, ns.Password)
}

func (svc *service) RegisterStaff(ctx context.Context, ns NewStaff) (User, error) {
	return svc.create(ctx, User{
		Email:    ns.Email,
		Phone:    ns.Phone,
		FullName: ns.FullName(),
		Address:  ns.Address,
		Role:     RoleStaff,
	}, ns.Password)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	if id == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.FindOne(ctx, Query{ID: id})
}

func (svc *service) GetByLogin(ctx context.Context, email, phone string) (User, error) {
	q := LoginQuery(email, phone)
	if q.IsEmpty() {
		return User{}, ErrNotFound
	}
	return svc.repo.FindOne(ctx, q)
}

func (svc *service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	p := Patch{
		Email:    uu.Email,
		Phone:    uu.Phone,
		FullName: uu.FullName,
		Address:  uu.Address,
		Group:    uu.Group,
	}
	if uu.NewPassword != "" {
		var usr User
		if err := usr.SetPassword(uu.NewPassword); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
		p.PasswordHash = usr.PasswordHash
	}
	if !p.IsEmpty() {
		p.UpdatedAt = time.Now().UTC()
	}

	usr, err := svc.repo.UpdateOne(ctx, id, p)
	if err != nil {
		return User{}, uniquenessErr(err)
	}
	return usr, nil
}

// ResetPassword sets a new password on the User found by email or phone.
func (svc *service) ResetPassword(ctx context.Context, login, pwd string) (User, error) {
	login = core.CleanString(login)
	usr, err := svc.repo.FindOne(ctx, Query{Email: login, Phone: login})
	if err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateOne(ctx, usr.ID, Patch{PasswordHash: usr.PasswordHash, UpdatedAt: time.Now().UTC()})
}

func (svc *service) All(ctx context.Context) ([]User, error) {
	return svc.repo.All(ctx)
}

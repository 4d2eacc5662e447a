package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core/user"
)

var errUnknownGroup = errors.New("group: unknown group")

type newUser struct {
	FirstName, LastName, MiddleName string
	Email, Phone, Address, Group    string
	Password                        string
	Staff                           bool
}

// addUser registers a staff member, or a student along with an empty record.
func (cli *commandLine) addUser(ctx context.Context, nu newUser) error {
	if nu.Staff {
		ns := user.NewStaff{
			FirstName:  nu.FirstName,
			LastName:   nu.LastName,
			MiddleName: nu.MiddleName,
			Email:      nu.Email,
			Phone:      nu.Phone,
			Password:   nu.Password,
			Address:    nu.Address,
		}
		if err := ns.Validate(cli.validate); err != nil {
			return cli.describe(err)
		}
		usr, err := cli.usrSvc.RegisterStaff(ctx, ns)
		if err != nil {
			return err
		}
		fmt.Printf("staff member %s registered: %s\n", usr.FullName, usr.ID)
		return nil
	}

	ns := user.NewStudent{
		FirstName:  nu.FirstName,
		LastName:   nu.LastName,
		MiddleName: nu.MiddleName,
		Email:      nu.Email,
		Phone:      nu.Phone,
		Password:   nu.Password,
		Address:    nu.Address,
		Group:      nu.Group,
	}
	if err := ns.Validate(cli.validate); err != nil {
		return cli.describe(err)
	}
	if !cli.catalog.HasGroup(ns.Group) {
		return errUnknownGroup
	}
	usr, err := cli.usrSvc.RegisterStudent(ctx, ns)
	if err != nil {
		return err
	}
	if err = cli.studentSvc.Init(ctx, usr.ID); err != nil {
		return errors.Wrap(err, "initializing student info")
	}
	fmt.Printf("student %s registered: %s\n", usr.FullName, usr.ID)
	return nil
}

// describe flattens validation errors into a single line of translated messages.
func (cli *commandLine) describe(err error) error {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(vErrs))
	for _, fe := range vErrs {
		msgs = append(msgs, fe.Field()+": "+fe.Translate(cli.translator))
	}
	return errors.New(strings.Join(msgs, "; "))
}

package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core/student"
	"github.com/trezcool/drivingschool/services/export"
)

// export writes the profiles of all students to an xlsx workbook at path.
func (cli *commandLine) export(ctx context.Context, path string) error {
	users, err := cli.usrSvc.All(ctx)
	if err != nil {
		return errors.Wrap(err, "listing users")
	}

	profiles := make([]student.Profile, 0, len(users))
	for _, usr := range users {
		if !usr.IsStudent() {
			continue
		}
		p, err := cli.studentSvc.Profile(ctx, usr.ID)
		if err != nil {
			return errors.Wrapf(err, "loading profile of %s", usr.ID)
		}
		profiles = append(profiles, p)
	}

	wb, err := export.NewStudentsWorkbook(profiles)
	if err != nil {
		return err
	}
	defer wb.Close()
	if err = wb.SaveAs(path); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	fmt.Printf("%d students exported to %s\n", len(profiles), path)
	return nil
}

package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(ctx context.Context, login, pwd string) error {
	usr, err := cli.usrSvc.ResetPassword(ctx, login, pwd)
	if err != nil {
		return err
	}
	fmt.Printf("password of %s reset\n", usr.FullName)
	return nil
}

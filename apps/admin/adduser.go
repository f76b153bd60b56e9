package main

import (
	"context"
	"fmt"

	echoapi "github.com/trezcool/revisa/apps/api/echo"
	"github.com/trezcool/revisa/core/user"
)

// addUser registers a student and prints its ID.
func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) error {
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "student %s created (%s)\n", usr.ID, usr.Email)
	return nil
}

// token prints a signed API token for the student.
func (cli *commandLine) token(ctx context.Context, userID string) error {
	usr, err := cli.usrSvc.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	tok, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, cli.conf), cli.conf)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, tok)
	return nil
}

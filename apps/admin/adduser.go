package main

import (
	"context"
	"fmt"

	"github.com/trezcool/academia/core/user"
)

// addUser creates a directory user.User
func (cli *commandLine) addUser(ctx context.Context, name, email, role string) error {
	usr, err := cli.usrSvc.Create(ctx, user.NewUser{Name: name, Email: email, Role: role})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.output(), "created %s %q <%s>: %s\n", usr.Role, usr.Name, usr.Email, usr.ID)
	return nil
}

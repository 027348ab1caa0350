package adminctl

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/dmitrijs2005/ideaboard/internal/server/services"
)

// CreateAdmin creates an active admin account. Missing username or name
// are asked for interactively; the password always is.
func (a *App) CreateAdmin(ctx context.Context, args []string) error {
	fs, dsn := a.flagSet("create-admin")
	username := fs.String("u", "", "username")
	name := fs.String("n", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *username == "" {
		if *username, err = GetSimpleText(a.in, "Enter username", a.out); err != nil {
			return err
		}
	}
	if *username == "" {
		return errors.New("username must not be empty")
	}
	if *name == "" {
		if *name, err = GetSimpleText(a.in, "Enter name", a.out); err != nil {
			return err
		}
	}
	if *name == "" {
		*name = *username
	}

	password, err := ConfirmPassword(a.out)
	if err != nil {
		return err
	}

	rm, svc, err := a.open(ctx, *dsn)
	if err != nil {
		return err
	}
	defer rm.Close()

	user, err := svc.Users.CreateByAdmin(ctx, services.UserCreate{
		Username: *username,
		Name:     *name,
		Password: password,
		IsAdmin:  true,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("user %q already exists: %w", *username, err)
		}
		return err
	}

	fmt.Fprintf(a.out, "Admin %s created (id %s)\n", user.Username, user.ID)
	return nil
}

// Package adminctl implements the ideactl maintenance commands: creating
// admin accounts and seeding a database with sample data.
package adminctl

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/ideaboard/internal/server"
	"github.com/dmitrijs2005/ideaboard/internal/server/auth"
	"github.com/dmitrijs2005/ideaboard/internal/server/config"
	"github.com/dmitrijs2005/ideaboard/internal/server/httpapi"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const usage = `usage: ideactl <command> [flags]

commands:
  create-admin  -d <dsn> -u <username> -n <name>
  seed          -d <dsn> -users N -ideas M [-seed S]
  help
`

var ErrUnknownCommand = errors.New("unknown command")

// openStorage is a test seam for server.OpenStorage.
var openStorage = server.OpenStorage

type App struct {
	in         *bufio.Reader
	out        io.Writer
	params     auth.Argon2Params
	bcryptCost int
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{
		in:         bufio.NewReader(in),
		out:        out,
		params:     auth.DefaultArgon2Params,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Run dispatches args[0] to the matching command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUnknownCommand
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	case "create-admin":
		return a.CreateAdmin(ctx, rest)
	case "seed":
		return a.Seed(ctx, rest)
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

func (a *App) flagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	dsn := fs.String("d", os.Getenv("DATABASE_DSN"), "database DSN")
	return fs, dsn
}

// open connects to dsn with migrations enabled and builds the services.
func (a *App) open(ctx context.Context, dsn string) (repomanager.RepositoryManager, httpapi.Services, error) {
	if dsn == "" {
		return nil, httpapi.Services{}, errors.New("database DSN is required (-d or DATABASE_DSN)")
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = dsn
	cfg.RunMigrations = true

	rm, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, httpapi.Services{}, err
	}

	hasher, err := auth.NewHasher(a.params)
	if err != nil {
		_ = rm.Close()
		return nil, httpapi.Services{}, fmt.Errorf("hasher init error: %w", err)
	}

	return rm, server.NewServices(rm, hasher, cfg), nil
}

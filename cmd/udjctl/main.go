// Command udjctl administers a UDJ server database: schema migrations,
// user accounts, and ticket inspection.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/udj/udjserver/internal/auth"
	"github.com/udj/udjserver/internal/model"
	"github.com/udj/udjserver/internal/repository"
)

const usage = `udjctl administers a UDJ server database.

Usage:
  udjctl <command> [flags]

Commands:
  migrate up                 apply all pending migrations
  migrate down-to <version>  roll back to the given schema version
  migrate version            print the current schema version
  create-user <username>     create a user, prompting for the password
  set-password <username>    replace a user's password
  tickets <username>         list a user's active tickets

Flags:
  --database-url string   PostgreSQL URL (default $DATABASE_URL)
  --password-stdin        read the password from stdin instead of prompting
`

// store is the subset of the repository the user commands need.
type store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	ListTicketsByUserID(ctx context.Context, userID int64) ([]*model.Ticket, error)
}

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

// env carries the process surroundings so commands can be tested.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	isTTY  bool

	// openStore connects to the database. Replaced in tests.
	openStore func(ctx context.Context, databaseURL string) (store, func(), error)
	// migrate runs schema commands. Replaced in tests.
	migrate migrator
}

type migrator struct {
	up      func(ctx context.Context, databaseURL string) error
	downTo  func(ctx context.Context, databaseURL string, version int64) error
	version func(ctx context.Context, databaseURL string) (int64, error)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := &env{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		isTTY:     term.IsTerminal(int(os.Stdin.Fd())),
		openStore: openRepository,
		migrate: migrator{
			up:      repository.Migrate,
			downTo:  repository.MigrateDownTo,
			version: repository.SchemaVersion,
		},
	}

	if err := run(ctx, e, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func openRepository(ctx context.Context, databaseURL string) (store, func(), error) {
	repo, err := repository.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}

func run(ctx context.Context, e *env, args []string) error {
	var databaseURL string
	var passwordStdin bool

	flagSet := pflag.NewFlagSet("udjctl", pflag.ContinueOnError)
	flagSet.SetOutput(e.stderr)
	flagSet.StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL URL")
	flagSet.BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	flagSet.Usage = func() { fmt.Fprint(e.stderr, usage) }

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		fmt.Fprint(e.stderr, usage)
		return errors.New("no command given")
	}
	if databaseURL == "" {
		return errors.New("--database-url or DATABASE_URL is required")
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "migrate":
		return runMigrate(ctx, e, databaseURL, cmdArgs)
	case "create-user", "set-password", "tickets":
		if len(cmdArgs) != 1 {
			return fmt.Errorf("%s takes exactly one username", cmd)
		}
		st, closeStore, err := e.openStore(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer closeStore()

		switch cmd {
		case "create-user":
			return createUser(ctx, e, st, cmdArgs[0], passwordStdin)
		case "set-password":
			return setPassword(ctx, e, st, cmdArgs[0], passwordStdin)
		default:
			return listTickets(ctx, e, st, cmdArgs[0])
		}
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runMigrate(ctx context.Context, e *env, databaseURL string, args []string) error {
	if len(args) == 0 {
		return errors.New("migrate needs a subcommand: up, down-to, version")
	}

	switch args[0] {
	case "up":
		if err := e.migrate.up(ctx, databaseURL); err != nil {
			return err
		}
	case "down-to":
		if len(args) != 2 {
			return errors.New("migrate down-to takes a version")
		}
		version, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || version < 0 {
			return fmt.Errorf("invalid version %q", args[1])
		}
		if err := e.migrate.downTo(ctx, databaseURL, version); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate subcommand %q", args[0])
	}

	version, err := e.migrate.version(ctx, databaseURL)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "schema version %d\n", version)
	return nil
}

func createUser(ctx context.Context, e *env, st store, username string, fromStdin bool) error {
	password, err := promptPassword(e, fromStdin)
	if err != nil {
		return err
	}

	user := &model.User{Username: username}
	if user.PasswordHash, err = auth.HashPassword(password); err != nil {
		return err
	}

	if err := st.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return fmt.Errorf("user %q already exists", username)
		}
		return err
	}

	fmt.Fprintf(e.stdout, "created user %q with id %d\n", user.Username, user.ID)
	return nil
}

func setPassword(ctx context.Context, e *env, st store, username string, fromStdin bool) error {
	user, err := lookupUser(ctx, st, username)
	if err != nil {
		return err
	}

	password, err := promptPassword(e, fromStdin)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if err := st.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "password updated for %q\n", user.Username)
	return nil
}

func listTickets(ctx context.Context, e *env, st store, username string) error {
	user, err := lookupUser(ctx, st, username)
	if err != nil {
		return err
	}

	tickets, err := st.ListTicketsByUserID(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(tickets) == 0 {
		fmt.Fprintf(e.stdout, "no tickets for %q\n", user.Username)
		return nil
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTICKET\tCREATED")
	for _, t := range tickets {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.ShortHash(), t.CreatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func lookupUser(ctx context.Context, st store, username string) (*model.User, error) {
	user, err := st.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("user %q not found", username)
		}
		return nil, err
	}
	return user, nil
}

// promptPassword reads a password twice from the terminal without echo, or
// once as a single line from stdin when it is not a terminal or fromStdin is set.
func promptPassword(e *env, fromStdin bool) (string, error) {
	if fromStdin || !e.isTTY {
		line, err := bufio.NewReader(e.stdin).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return "", errors.New("empty password")
		}
		return password, nil
	}

	fmt.Fprint(e.stderr, "Password: ")
	first, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(e.stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(first) == 0 {
		return "", errors.New("empty password")
	}

	fmt.Fprint(e.stderr, "Repeat password: ")
	second, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(e.stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

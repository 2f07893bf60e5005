package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/todo-api/internal/apperr"
	"github.com/yourusername/todo-api/internal/auth"
	"github.com/yourusername/todo-api/internal/config"
	"github.com/yourusername/todo-api/internal/jobs"
	"github.com/yourusername/todo-api/internal/store"
	"github.com/yourusername/todo-api/internal/store/redisstore"
	"github.com/yourusername/todo-api/internal/store/sqlite"
)

// demoAccounts は seed-demo が作成するアカウントです。
var demoAccounts = []struct {
	Name  string
	Email string
	Admin bool
}{
	{Name: "Rohan Asif", Email: "admin@example.com", Admin: true},
	{Name: "Test User", Email: "r2@y.com", Admin: false},
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "todoctl",
		Usage: "Operate the to-do API storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "driver",
				Value:   config.DriverSQLite,
				Usage:   "Storage driver (sqlite, redis)",
				EnvVars: []string{"STORAGE_DRIVER"},
			},
			&cli.StringFlag{
				Name:    "database",
				Value:   "todo.db",
				Usage:   "SQLite database path",
				EnvVars: []string{"DATABASE_PATH"},
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Value:   "redis://127.0.0.1:6379/0",
				Usage:   "Redis store URL",
				EnvVars: []string{"REDIS_URL"},
			},
			&cli.IntFlag{
				Name:    "bcrypt-cost",
				Value:   bcrypt.DefaultCost,
				Usage:   "bcrypt cost for new passwords",
				EnvVars: []string{"BCRYPT_COST"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "create-admin",
				Usage: "Create an administrator account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Login email", Required: true},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Login password",
						EnvVars:  []string{"TODOCTL_ADMIN_PASSWORD"},
						Required: true,
					},
				},
				Action: createAdmin,
			},
			{
				Name:  "seed-demo",
				Usage: "Create the demo accounts (existing accounts are skipped)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "password",
						Value:   "Demo$ecret1",
						Usage:   "Password for every demo account",
						EnvVars: []string{"TODOCTL_DEMO_PASSWORD"},
					},
				},
				Action: seedDemo,
			},
			{
				Name:  "purge-todos",
				Usage: "Delete every to-do owned by a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "Owner user id", Required: true},
				},
				Action: purgeTodos,
			},
		},
	}
}

func openStore(c *cli.Context) (store.Store, error) {
	switch driver := strings.ToLower(c.String("driver")); driver {
	case config.DriverSQLite:
		st, err := sqlite.Open(c.String("database"))
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverRedis:
		st, err := redisstore.Open(c.Context, c.String("redis-url"))
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}
}

func credentialService(c *cli.Context, st store.UserStore) *auth.CredentialService {
	return auth.NewCredentialService(st, auth.NewBcryptHasher(c.Int("bcrypt-cost")), nil)
}

func createAdmin(c *cli.Context) error {
	st, err := openStore(c)
	if err != nil {
		return err
	}
	defer st.Close()

	user, err := credentialService(c, st).Provision(c.Context, c.String("name"), c.String("email"), c.String("password"), true)
	if err != nil {
		return cliError(err)
	}
	fmt.Fprintf(c.App.Writer, "created admin %s (%s)\n", user.Email, user.ID)
	return nil
}

func seedDemo(c *cli.Context) error {
	st, err := openStore(c)
	if err != nil {
		return err
	}
	defer st.Close()

	credentials := credentialService(c, st)
	for _, account := range demoAccounts {
		user, err := credentials.Provision(c.Context, account.Name, account.Email, c.String("password"), account.Admin)
		if apperr.KindOf(err) == apperr.KindConflict {
			fmt.Fprintf(c.App.Writer, "skipped %s (already exists)\n", account.Email)
			continue
		}
		if err != nil {
			return cliError(err)
		}
		fmt.Fprintf(c.App.Writer, "created %s (%s)\n", user.Email, user.ID)
	}
	return nil
}

func purgeTodos(c *cli.Context) error {
	st, err := openStore(c)
	if err != nil {
		return err
	}
	defer st.Close()

	userID := strings.TrimSpace(c.String("user"))
	logger := logrus.New()
	logger.SetOutput(c.App.ErrWriter)
	if err := jobs.NewInlinePurger(st, logger).PurgeTodos(c.Context, userID); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "purged todos of %s\n", userID)
	return nil
}

// cliError はアプリケーションエラーをメッセージだけの形に変換します。
func cliError(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind != apperr.KindPersistence {
		return errors.New(appErr.Message)
	}
	return err
}

// Command admin performs the operator tasks that have no web route:
// granting or revoking the admin role and taking a backup on demand.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"estate-listings/internal/app"
	"estate-listings/internal/core/config"
	"estate-listings/internal/core/logger"
	"estate-listings/internal/domain"
)

const usage = `usage: admin [flags] <command>

commands:
  promote <username>   grant the admin role
  demote <username>    revoke the admin role
  backup-now           copy the database file into the backup dir

flags:
`

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	cfgPath := fs.StringP("config", "c", os.Getenv("CONFIG_PATH"), "config file")
	level := fs.String("log-level", "warn", "log level")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg := config.Load(*cfgPath)
	log, cleanup := logger.New(*level, false)
	defer cleanup()

	if err := run(cfg, log, fs.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "admin:", err)
		if errors.Is(err, errUsage) {
			fs.Usage()
		}
		cleanup()
		os.Exit(1)
	}
}

var errUsage = errors.New("missing or unknown command")

func run(cfg *config.Config, log *zap.Logger, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	}()

	ctx := context.Background()
	switch {
	case args[0] == "promote" && len(args) == 2:
		if err := a.Accounts.SetRole(ctx, args[1], domain.RoleAdmin); err != nil {
			return err
		}
		fmt.Printf("%s is now an admin\n", args[1])
	case args[0] == "demote" && len(args) == 2:
		if err := a.Accounts.SetRole(ctx, args[1], domain.RoleUser); err != nil {
			return err
		}
		fmt.Printf("%s is now a regular user\n", args[1])
	case args[0] == "backup-now" && len(args) == 1:
		if a.Backup == nil {
			return fmt.Errorf("backups need the sqlite driver, configured driver is %q", cfg.DB.Driver)
		}
		path, err := a.Backup.Run()
		if err != nil {
			return err
		}
		fmt.Println(path)
	default:
		return errUsage
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Version is set at build time
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch cmd {
	case "init":
		err = withStore(ctx, func(app *app) error { return app.initCommand(ctx) })
	case "user", "users":
		err = withStore(ctx, func(app *app) error { return app.userCommand(ctx, args) })
	case "token", "tokens":
		err = withStore(ctx, func(app *app) error { return app.tokenCommand(ctx, args) })
	case "version":
		fmt.Printf("userctl %s\n", Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func withStore(ctx context.Context, fn func(*app) error) error {
	app, cleanup, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(app)
}

func printUsage() {
	fmt.Print(`userctl - account administration tool

Usage:
  userctl <command> [subcommand] [options]

Environment Variables:
  USERCTL_BACKEND     Storage backend: sqlite (default) or mongo
  USERCTL_SQLITE_DSN  SQLite DSN (default: file:users.db)
  USERCTL_MONGO_URI   MongoDB connection string
  USERCTL_MONGO_DB    MongoDB database name (default: users)

Values can also be supplied through a .env file in the working directory.

Commands:
  init      Prepare the storage backend (run migrations / create indexes)

  user      Manage user accounts
    list    List active accounts
    create  --email=EMAIL --password=PWD
    delete  <id>            Soft delete an account (refuses to remove the last one)
    set-password --email=EMAIL --password=PWD

  token     Manage lifecycle tokens
    purge   Remove tokens whose identity no longer exists

  version   Show CLI version
  help      Show this help

Examples:
  # Prepare a fresh database
  userctl init

  # Bootstrap the first account
  userctl user create --email=admin@example.com --password=secret123

  # Clean up orphaned tokens
  userctl token purge
`)
}

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/goliatone/go-users"
	"github.com/google/uuid"
)

func (a *app) userCommand(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: userctl user <subcommand>")
	}

	sub := args[0]
	args = args[1:]

	switch sub {
	case "list":
		return a.listUsers(ctx)
	case "create":
		return a.createUser(ctx, args)
	case "delete":
		if len(args) < 1 {
			return fmt.Errorf("usage: userctl user delete <id>")
		}
		return a.deleteUser(ctx, args[0])
	case "set-password":
		return a.setUserPassword(ctx, args)
	default:
		return fmt.Errorf("unknown user subcommand: %s", sub)
	}
}

func (a *app) listUsers(ctx context.Context) error {
	records, err := a.store.Users().List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tCREATED")
	for _, record := range records {
		created := ""
		if record.CreatedAt != nil {
			created = record.CreatedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", record.ID, record.Email, created)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nTotal: %d\n", len(records))
	return nil
}

func (a *app) createUser(ctx context.Context, args []string) error {
	opts := parseArgs(args)

	email := opts["email"]
	password := opts["password"]
	if email == "" || password == "" {
		return fmt.Errorf("usage: userctl user create --email=EMAIL --password=PWD")
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	record, err := a.store.Users().Create(ctx, &users.User{
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created user %s (%s)\n", record.ID, record.Email)
	return nil
}

func (a *app) deleteUser(ctx context.Context, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", rawID, err)
	}

	record, err := a.store.Users().GetByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := a.store.Users().CountActive(ctx)
	if err != nil {
		return err
	}
	if count <= 1 {
		return fmt.Errorf("refusing to delete the last active account")
	}

	if _, err := a.store.Users().SoftDelete(ctx, record); err != nil {
		return err
	}

	fmt.Printf("Deleted user %s (%s)\n", record.ID, record.Email)
	return nil
}

func (a *app) setUserPassword(ctx context.Context, args []string) error {
	opts := parseArgs(args)

	email := opts["email"]
	password := opts["password"]
	if email == "" || password == "" {
		return fmt.Errorf("usage: userctl user set-password --email=EMAIL --password=PWD")
	}

	record, err := a.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	record.PasswordHash = hash
	if _, err := a.store.Users().Update(ctx, record); err != nil {
		return err
	}

	fmt.Printf("Password updated for %s\n", record.Email)
	return nil
}

func (a *app) tokenCommand(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: userctl token <subcommand>")
	}

	switch args[0] {
	case "purge":
		purged, err := a.store.Tokens().DeleteOrphans(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d orphaned tokens\n", purged)
		return nil
	default:
		return fmt.Errorf("unknown token subcommand: %s", args[0])
	}
}

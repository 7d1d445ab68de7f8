package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-users"
	"github.com/goliatone/go-users/store/bunstore"
	"github.com/goliatone/go-users/store/mongostore"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type app struct {
	store  users.Store
	initFn func(ctx context.Context) error
}

func (a *app) initCommand(ctx context.Context) error {
	if err := a.initFn(ctx); err != nil {
		return err
	}
	fmt.Println("Storage initialized")
	return nil
}

// newApp opens the configured storage backend. The returned cleanup closes
// the underlying connection.
func newApp(ctx context.Context) (*app, func(), error) {
	// missing .env files are fine, the environment wins either way
	_ = godotenv.Load()

	backend := strings.ToLower(getEnv("USERCTL_BACKEND", "sqlite"))
	switch backend {
	case "sqlite":
		return newSQLiteApp()
	case "mongo", "mongodb":
		return newMongoApp(ctx)
	default:
		return nil, nil, fmt.Errorf("unknown backend: %s", backend)
	}
}

func newSQLiteApp() (*app, func(), error) {
	dsn := getEnv("USERCTL_SQLITE_DSN", "file:users.db")

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	store := bunstore.New(db)

	cleanup := func() { _ = db.Close() }

	return &app{
		store:  store,
		initFn: store.Init,
	}, cleanup, nil
}

func newMongoApp(ctx context.Context) (*app, func(), error) {
	uri := os.Getenv("USERCTL_MONGO_URI")
	if uri == "" {
		return nil, nil, fmt.Errorf("USERCTL_MONGO_URI is required for the mongo backend")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	store := mongostore.New(client.Database(getEnv("USERCTL_MONGO_DB", "users")))

	cleanup := func() { _ = client.Disconnect(context.Background()) }

	return &app{
		store:  store,
		initFn: store.EnsureIndexes,
	}, cleanup, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseArgs(args []string) map[string]string {
	opts := make(map[string]string)
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") {
			parts := strings.SplitN(strings.TrimPrefix(arg, "--"), "=", 2)
			if len(parts) == 2 {
				opts[parts[0]] = parts[1]
			} else {
				opts[parts[0]] = "true"
			}
		}
	}
	return opts
}

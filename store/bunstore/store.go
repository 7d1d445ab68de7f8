// Package bunstore is the relational implementation of the users.Store
// abstraction, built on Bun. It works against any dialect Bun supports; the
// test suite and the admin CLI run it on SQLite via sqliteshim.
package bunstore

import (
	"context"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-users"
	"github.com/uptrace/bun"
)

// Store exposes the three repositories over one bun.DB handle.
type Store struct {
	db       *bun.DB
	users    *usersRepo
	tmpUsers *tmpUsersRepo
	tokens   *tokensRepo
}

var _ users.Store = (*Store)(nil)

// New wraps an initialized bun.DB.
func New(db *bun.DB) *Store {
	return &Store{
		db:       db,
		users:    newUsersRepo(db),
		tmpUsers: newTmpUsersRepo(db),
		tokens:   newTokensRepo(db),
	}
}

func (s *Store) Users() users.UserRepository {
	return s.users
}

func (s *Store) TmpUsers() users.TmpUserRepository {
	return s.tmpUsers
}

func (s *Store) Tokens() users.TokenRepository {
	return s.tokens
}

// DB exposes the underlying handle for callers that need raw access.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Init applies the embedded schema migrations. It is idempotent and mainly
// serves tests and the admin CLI; production deployments usually run the
// same files through their own migration tooling.
func (s *Store) Init(ctx context.Context) error {
	const dir = "data/sql/migrations"

	fsys := users.GetMigrationsFS()
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		blob, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return err
		}
		for _, stmt := range strings.Split(string(blob), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
	}

	return nil
}

package usrrepo

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/stock-ledger/core"
	"github.com/sksmith/stock-ledger/core/user"
	"github.com/sksmith/stock-ledger/db"

	lru "github.com/hashicorp/golang-lru"
)

type dbRepo struct {
	conn core.Conn
	c    *lru.Cache
}

// NewPostgresRepo caches users for authentication. A cacheSize of zero disables the cache.
func NewPostgresRepo(conn core.Conn, cacheSize int) user.Repository {
	r := &dbRepo{conn: conn}
	if cacheSize > 0 {
		l, err := lru.New(cacheSize)
		if err != nil {
			log.Warn().Err(err).Int("size", cacheSize).Msg("unable to configure user cache")
		}
		r.c = l
	}
	return r
}

func (r *dbRepo) Create(ctx context.Context, usr *user.User, options ...core.UpdateOptions) error {
	m := db.StartMetric("CreateUser")
	tx := db.GetUpdateOptions(r.conn, options...)

	_, err := tx.Exec(ctx, `
		INSERT INTO users (username, password, is_admin, created_at)
                      VALUES ($1, $2, $3, $4);`,
		usr.Username, usr.HashedPassword, usr.IsAdmin, usr.Created)
	if err != nil {
		m.Complete(err)
		return errors.WithMessagef(err, "failed to create user %s", usr.Username)
	}
	r.cache(*usr)
	m.Complete(nil)
	return nil
}

func (r *dbRepo) Get(ctx context.Context, username string, options ...core.QueryOptions) (user.User, error) {
	m := db.StartMetric("GetUser")
	tx, forUpdate := db.GetQueryOptions(r.conn, options...)

	if forUpdate == "" {
		if u, ok := r.getcache(username); ok {
			m.Complete(nil)
			return u, nil
		}
	}

	query := `SELECT username, password, is_admin, created_at FROM users WHERE username = $1 ` + forUpdate

	log.Debug().Str("query", query).Str("username", username).Msg("getting user")

	u := user.User{}
	err := tx.QueryRow(ctx, query, username).
		Scan(&u.Username, &u.HashedPassword, &u.IsAdmin, &u.Created)
	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return user.User{}, errors.WithStack(core.ErrNotFound)
		}
		return user.User{}, errors.WithStack(err)
	}

	r.cache(u)
	m.Complete(nil)
	return u, nil
}

func (r *dbRepo) Delete(ctx context.Context, username string, options ...core.UpdateOptions) error {
	m := db.StartMetric("DeleteUser")
	tx := db.GetUpdateOptions(r.conn, options...)

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	r.uncache(username)
	if tag.RowsAffected() == 0 {
		m.Complete(core.ErrNotFound)
		return errors.WithStack(core.ErrNotFound)
	}

	m.Complete(nil)
	return nil
}

func (r *dbRepo) cache(u user.User) {
	if r.c == nil {
		return
	}
	r.c.Add(u.Username, u)
}

func (r *dbRepo) uncache(username string) {
	if r.c == nil {
		return
	}
	r.c.Remove(username)
}

func (r *dbRepo) getcache(username string) (user.User, bool) {
	if r.c == nil {
		return user.User{}, false
	}

	v, ok := r.c.Get(username)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

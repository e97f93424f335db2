package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/feedstore/internal/feeds"
)

// Ensure Repo implements the Repository interface
var _ feeds.Repository = Repo{}

// Opener hands out a database handle for the duration of one operation.
// The repo closes the handle before returning.
type Opener func(ctx context.Context) (*sqlx.Conn, error)

// PoolOpener checks connections out of dbx's pool.
func PoolOpener(dbx *sqlx.DB) Opener {
	return dbx.Connx
}

type Repo struct {
	open Opener
	now  func() time.Time
}

type Option func(*Repo)

// WithClock replaces the clock used to stamp new feeds.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) {
		r.now = now
	}
}

func New(open Opener, opts ...Option) Repo {
	r := Repo{
		open: open,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(&r)
	}

	return r
}

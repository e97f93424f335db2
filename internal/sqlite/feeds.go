package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdholdren/feedstore/internal/feeds"
)

const feedsTable = "feeds"

var feedColumns = []string{"id", "title", "link", "status", "checked_at"}

type (
	// feedRow is a feed as it comes off the table.
	feedRow struct {
		ID        int32     `db:"id"`
		Title     string    `db:"title"`
		Link      string    `db:"link"`
		Status    string    `db:"status"`
		CheckedAt timestamp `db:"checked_at"`
	}

	// timestamp reads checked_at whether the driver hands back a time or
	// the raw text.
	timestamp struct {
		time.Time
	}
)

// Layouts checked_at may be stored in, most likely first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

func (t *timestamp) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("unsupported checked_at type %T", src)
	}

	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, text)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("unparseable checked_at %q", text)
}

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func (r feedRow) toFeed() (feeds.Feed, error) {
	status, err := feeds.ParseStatus(r.Status)
	if err != nil {
		return feeds.Feed{}, fmt.Errorf("feed %d: %w: %w", r.ID, feeds.ErrDataIntegrity, err)
	}

	return feeds.Feed{
		ID:        r.ID,
		Title:     r.Title,
		Link:      r.Link,
		Status:    status,
		CheckedAt: r.CheckedAt.Time,
	}, nil
}

// CreateFeed inserts a new feed checked as of now. The status is left to
// the table's default.
func (r Repo) CreateFeed(ctx context.Context, args feeds.FeedToCreate) (int64, error) {
	query, qArgs, err := sq.Insert(feedsTable).
		Columns("title", "link", "checked_at").
		Values(args.Title, args.Link, formatTimestamp(r.now().UTC())).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error constructing sql: %w", err)
	}

	conn, err := r.open(ctx)
	if err != nil {
		return 0, fmt.Errorf("error opening connection: %w", err)
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, query, qArgs...)
	if err != nil {
		return 0, fmt.Errorf("error inserting feed: %w", err)
	}

	return res.RowsAffected()
}

// Feed fetches a single feed. The bool is false if there is no feed with
// the given id.
func (r Repo) Feed(ctx context.Context, id int32) (feeds.Feed, bool, error) {
	query, qArgs, err := sq.Select(feedColumns...).
		From(feedsTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return feeds.Feed{}, false, fmt.Errorf("error constructing sql: %w", err)
	}

	conn, err := r.open(ctx)
	if err != nil {
		return feeds.Feed{}, false, fmt.Errorf("error opening connection: %w", err)
	}
	defer conn.Close()

	var row feedRow
	err = conn.GetContext(ctx, &row, query, qArgs...)
	if errors.Is(err, sql.ErrNoRows) {
		return feeds.Feed{}, false, nil
	}
	if err != nil {
		return feeds.Feed{}, false, fmt.Errorf("error fetching feed: %w", err)
	}

	feed, err := row.toFeed()
	if err != nil {
		return feeds.Feed{}, false, err
	}

	return feed, true, nil
}

// AllFeeds retrieves _all_ feeds in the order the table returns them.
func (r Repo) AllFeeds(ctx context.Context) ([]feeds.Feed, error) {
	query, qArgs, err := sq.Select(feedColumns...).From(feedsTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %w", err)
	}

	conn, err := r.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}
	defer conn.Close()

	var rows []feedRow
	if err := conn.SelectContext(ctx, &rows, query, qArgs...); err != nil {
		return nil, fmt.Errorf("error selecting all feeds: %w", err)
	}

	ret := make([]feeds.Feed, 0, len(rows))
	for _, row := range rows {
		feed, err := row.toFeed()
		if err != nil {
			return nil, err
		}
		ret = append(ret, feed)
	}

	return ret, nil
}

// UpdateFeed sets only the fields present in args. An update with nothing
// to set doesn't reach the database and reports zero rows.
func (r Repo) UpdateFeed(ctx context.Context, args feeds.FeedToUpdate) (int64, error) {
	if args.Empty() {
		return 0, nil
	}
	// Only the known statuses may be written, or later reads of the row fail
	if args.Status != nil {
		if _, err := feeds.ParseStatus(string(*args.Status)); err != nil {
			return 0, err
		}
	}

	q := sq.Update(feedsTable)
	if args.Title != nil {
		q = q.Set("title", *args.Title)
	}
	if args.Link != nil {
		q = q.Set("link", *args.Link)
	}
	if args.Status != nil {
		q = q.Set("status", args.Status.String())
	}
	if args.CheckedAt != nil {
		q = q.Set("checked_at", formatTimestamp(*args.CheckedAt))
	}
	q = q.Where(sq.Eq{"id": args.ID})

	query, qArgs, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error constructing sql: %w", err)
	}

	conn, err := r.open(ctx)
	if err != nil {
		return 0, fmt.Errorf("error opening connection: %w", err)
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, query, qArgs...)
	if err != nil {
		return 0, fmt.Errorf("error executing feed update: %w", err)
	}

	return res.RowsAffected()
}

func (r Repo) DeleteFeed(ctx context.Context, id int32) (int64, error) {
	query, qArgs, err := sq.Delete(feedsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error constructing sql: %w", err)
	}

	conn, err := r.open(ctx)
	if err != nil {
		return 0, fmt.Errorf("error opening connection: %w", err)
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, query, qArgs...)
	if err != nil {
		return 0, fmt.Errorf("error deleting feed: %w", err)
	}

	return res.RowsAffected()
}

// Package feeds holds the feed catalogue's types and the contract its storage fulfills.
package feeds

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidStatus = errors.New("invalid feed status")

	// ErrDataIntegrity is returned when a stored row breaks an invariant,
	// like carrying a status that doesn't parse.
	ErrDataIntegrity = errors.New("feed data integrity violation")
)

type (
	// Feed is a snapshot of a subscribable feed source as it is stored.
	Feed struct {
		ID        int32     `json:"id"`
		Title     string    `json:"title"`
		Link      string    `json:"link"`
		Status    Status    `json:"status"`
		CheckedAt time.Time `json:"checked_at"`
	}

	// FeedToCreate holds what a caller provides for a new feed.
	// The status and check time are set on insert.
	FeedToCreate struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	}

	// Holds the optional fields for updating a feed.
	// A nil field is left as it is.
	FeedToUpdate struct {
		ID        int32      `json:"id"`
		Title     *string    `json:"title,omitempty"`
		Link      *string    `json:"link,omitempty"`
		Status    *Status    `json:"status,omitempty"`
		CheckedAt *time.Time `json:"checked_at,omitempty"`
	}

	Repository interface {
		CreateFeed(ctx context.Context, args FeedToCreate) (int64, error)
		// Feed reports false when no feed has the id.
		Feed(ctx context.Context, id int32) (Feed, bool, error)
		AllFeeds(ctx context.Context) ([]Feed, error)
		UpdateFeed(ctx context.Context, args FeedToUpdate) (int64, error)
		DeleteFeed(ctx context.Context, id int32) (int64, error)
	}
)

// Empty reports whether the update carries no fields to change.
func (u FeedToUpdate) Empty() bool {
	return u.Title == nil && u.Link == nil && u.Status == nil && u.CheckedAt == nil
}

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	seyerrs "github.com/jdholdren/feedstore/internal/errors"
	"github.com/jdholdren/feedstore/internal/feeds"
	"github.com/jdholdren/feedstore/internal/serverutil"
)

type (
	createFeedReq struct {
		feeds.FeedToCreate
	}

	updateFeedReq struct {
		feeds.FeedToUpdate
	}

	// How many rows a write touched.
	affectedResp struct {
		Affected int64 `json:"affected"`
	}
)

func (r createFeedReq) Validate() error {
	var details []seyerrs.Detail
	if strings.TrimSpace(r.Title) == "" {
		details = append(details, seyerrs.Detail{Field: "title", Error: "must not be empty"})
	}
	if strings.TrimSpace(r.Link) == "" {
		details = append(details, seyerrs.Detail{Field: "link", Error: "must not be empty"})
	}
	if len(details) > 0 {
		return seyerrs.E(http.StatusUnprocessableEntity, "invalid feed", details)
	}

	return nil
}

// Absent fields are fine, but present ones can't be blanked out.
func (r updateFeedReq) Validate() error {
	var details []seyerrs.Detail
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		details = append(details, seyerrs.Detail{Field: "title", Error: "must not be empty"})
	}
	if r.Link != nil && strings.TrimSpace(*r.Link) == "" {
		details = append(details, seyerrs.Detail{Field: "link", Error: "must not be empty"})
	}
	if len(details) > 0 {
		return seyerrs.E(http.StatusUnprocessableEntity, "invalid feed update", details)
	}

	return nil
}

func (s Server) getFeeds(w http.ResponseWriter, r *http.Request) error {
	all, err := s.repo.AllFeeds(r.Context())
	if err != nil {
		return storeErr(err)
	}

	return serverutil.WriteJSON(w, http.StatusOK, all)
}

func (s Server) postFeed(w http.ResponseWriter, r *http.Request) error {
	req, err := serverutil.DecodeValid[createFeedReq](r.Body)
	if err != nil {
		return decodeErr(err)
	}

	n, err := s.repo.CreateFeed(r.Context(), req.FeedToCreate)
	if err != nil {
		return storeErr(err)
	}

	return serverutil.WriteJSON(w, http.StatusCreated, affectedResp{Affected: n})
}

func (s Server) getFeed(w http.ResponseWriter, r *http.Request) error {
	id, err := feedID(r)
	if err != nil {
		return err
	}

	feed, ok, err := s.repo.Feed(r.Context(), id)
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return seyerrs.E(http.StatusNotFound, "feed not found")
	}

	return serverutil.WriteJSON(w, http.StatusOK, feed)
}

func (s Server) patchFeed(w http.ResponseWriter, r *http.Request) error {
	id, err := feedID(r)
	if err != nil {
		return err
	}

	req, err := serverutil.DecodeValid[updateFeedReq](r.Body)
	if err != nil {
		return decodeErr(err)
	}
	// The path is authoritative
	req.ID = id

	n, err := s.repo.UpdateFeed(r.Context(), req.FeedToUpdate)
	if err != nil {
		return storeErr(err)
	}

	return serverutil.WriteJSON(w, http.StatusOK, affectedResp{Affected: n})
}

func (s Server) deleteFeed(w http.ResponseWriter, r *http.Request) error {
	id, err := feedID(r)
	if err != nil {
		return err
	}

	n, err := s.repo.DeleteFeed(r.Context(), id)
	if err != nil {
		return storeErr(err)
	}

	return serverutil.WriteJSON(w, http.StatusOK, affectedResp{Affected: n})
}

func feedID(r *http.Request) (int32, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["feedID"], 10, 32)
	if err != nil {
		return 0, seyerrs.E(http.StatusBadRequest, "invalid feed id", seyerrs.Detail{Field: "id", Error: "must be an integer"})
	}

	return int32(id), nil
}

func decodeErr(err error) error {
	if errors.Is(err, feeds.ErrInvalidStatus) {
		return seyerrs.E(http.StatusUnprocessableEntity, err, seyerrs.Detail{Field: "status", Error: "must be subscribed or unsubscribed"})
	}

	// Validation failures are already structured
	var seyerr *seyerrs.Error
	if errors.As(err, &seyerr) {
		return err
	}

	return seyerrs.E(http.StatusBadRequest, err)
}

// Corrupted rows are reported as such; anything else from the store stays opaque.
func storeErr(err error) error {
	if errors.Is(err, feeds.ErrDataIntegrity) {
		return seyerrs.E(http.StatusInternalServerError, err)
	}

	return err
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	seyerrs "github.com/jdholdren/feedstore/internal/errors"
	"github.com/jdholdren/feedstore/internal/feeds"
	"github.com/jdholdren/feedstore/internal/migrations"
	"github.com/jdholdren/feedstore/internal/sqlite"
)

func newTestApiServer(t *testing.T) (*Server, *sqlx.DB) {
	t.Helper()

	dbx, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "feeds.db")+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })
	require.NoError(t, migrations.Run(dbx))

	return newServer(ServerConfig{Port: 0, CorsOrigin: "*"}, sqlite.New(sqlite.PoolOpener(dbx))), dbx
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestFeedsLifecycle(t *testing.T) {
	s, _ := newTestApiServer(t)

	rec := do(t, s, http.MethodGet, "/api/feeds", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/feeds", `{"title": "Hacker News", "link": "https://news.example/rss"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(1), decode[affectedResp](t, rec).Affected)

	rec = do(t, s, http.MethodGet, "/api/feeds", "")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]feeds.Feed](t, rec)
	require.Len(t, all, 1)
	assert.Equal(t, "Hacker News", all[0].Title)
	assert.Equal(t, feeds.StatusSubscribed, all[0].Status)

	path := "/api/feeds/" + jsonNumber(all[0].ID)

	rec = do(t, s, http.MethodPatch, path, `{"status": "unsubscribed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[affectedResp](t, rec).Affected)

	rec = do(t, s, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, "unsubscribed", got["status"])
	assert.Equal(t, "https://news.example/rss", got["link"])

	rec = do(t, s, http.MethodPatch, path, `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decode[affectedResp](t, rec).Affected)

	rec = do(t, s, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[affectedResp](t, rec).Affected)

	rec = do(t, s, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decode[affectedResp](t, rec).Affected)

	rec = do(t, s, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchFeed_PathIDWins(t *testing.T) {
	s, _ := newTestApiServer(t)

	rec := do(t, s, http.MethodPost, "/api/feeds", `{"title": "A", "link": "a"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Body points elsewhere; the path's feed is the one updated
	rec = do(t, s, http.MethodPatch, "/api/feeds/1", `{"id": 999, "link": "b"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[affectedResp](t, rec).Affected)

	rec = do(t, s, http.MethodGet, "/api/feeds/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[feeds.Feed](t, rec)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, "b", got.Link)
}

func TestFeedsErrors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantField  string
	}{
		{
			name:       "create missing title",
			method:     http.MethodPost,
			path:       "/api/feeds",
			body:       `{"link": "a"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "title",
		},
		{
			name:       "create malformed body",
			method:     http.MethodPost,
			path:       "/api/feeds",
			body:       `{"title": `,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "update unknown status",
			method:     http.MethodPatch,
			path:       "/api/feeds/1",
			body:       `{"status": "SUBSCRIBED"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "status",
		},
		{
			name:       "update blank link",
			method:     http.MethodPatch,
			path:       "/api/feeds/1",
			body:       `{"link": " "}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "link",
		},
		{
			name:       "non integer id",
			method:     http.MethodGet,
			path:       "/api/feeds/abc",
			wantStatus: http.StatusBadRequest,
			wantField:  "id",
		},
		{
			name:       "missing feed",
			method:     http.MethodGet,
			path:       "/api/feeds/999",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestApiServer(t)

			rec := do(t, s, tt.method, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var got seyerrs.Error
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.wantField != "" {
				require.NotEmpty(t, got.Details)
				assert.Equal(t, tt.wantField, got.Details[0].Field)
			}
		})
	}
}

func TestFeeds_DataIntegrity(t *testing.T) {
	s, dbx := newTestApiServer(t)

	rec := do(t, s, http.MethodPost, "/api/feeds", `{"title": "A", "link": "a"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	_, err := dbx.Exec(`UPDATE feeds SET status = 'paused';`)
	require.NoError(t, err)

	for _, path := range []string{"/api/feeds", "/api/feeds/1"} {
		rec = do(t, s, http.MethodGet, path, "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "integrity")
	}
}

func TestRequestIDIsReturned(t *testing.T) {
	s, _ := newTestApiServer(t)

	rec := do(t, s, http.MethodGet, "/api/feeds", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func jsonNumber(id int32) string {
	byts, _ := json.Marshal(id)
	return string(byts)
}

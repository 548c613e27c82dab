package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/assembly-news-radar/internal/config"
	"github.com/DeafMist/assembly-news-radar/internal/models"
	"github.com/DeafMist/assembly-news-radar/internal/processing"
)

type stubService struct {
	cached        []models.NewsItem
	refreshedWith []string
	searchQuery   string
	searchLimit   int
	entityName    string
	entityLimit   int
	keywordLimit  int
}

func (s *stubService) Keywords() []string { return []string{"국회", "법안"} }

func (s *stubService) ListCached() []models.NewsItem { return s.cached }

func (s *stubService) Refresh(_ context.Context, keywords []string) []models.NewsItem {
	s.refreshedWith = keywords
	return s.cached
}

func (s *stubService) SearchOnce(_ context.Context, query string, limit int) []models.NewsItem {
	s.searchQuery, s.searchLimit = query, limit
	return nil
}

func (s *stubService) EntityNews(_ context.Context, name string, limit int) []models.NewsItem {
	s.entityName, s.entityLimit = name, limit
	return s.cached
}

func (s *stubService) MentionCounts() map[string]int { return map[string]int{"이재명": 3} }

func (s *stubService) TopKeywords(limit int) []processing.KeywordCount {
	s.keywordLimit = limit
	return nil
}

func newTestServer(svc *stubService) http.Handler {
	srv := &server{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg: &config.API{DefaultLimit: 20, MaxLimit: 100},
		svc: svc,
	}
	return srv.routes()
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestListReturnsCachedItems(t *testing.T) {
	svc := &stubService{cached: []models.NewsItem{{ID: "a", Title: "국회 법안 통과"}}}
	rec := do(t, newTestServer(svc), http.MethodGet, "/news/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body itemsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, "국회 법안 통과", body.Items[0].Title)
}

func TestRefreshUsesConfiguredKeywordsByDefault(t *testing.T) {
	svc := &stubService{}
	h := newTestServer(svc)

	rec := do(t, h, http.MethodPost, "/news/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"국회", "법안"}, svc.refreshedWith)
	require.JSONEq(t, `{"count":0,"items":[]}`, rec.Body.String())

	do(t, h, http.MethodPost, "/news/refresh?keywords=%EB%B3%B8%ED%9A%8C%EC%9D%98,+,x")
	require.Equal(t, []string{"본회의", "x"}, svc.refreshedWith)

	rec = do(t, h, http.MethodGet, "/news/refresh")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSearchClampsLimit(t *testing.T) {
	svc := &stubService{}
	h := newTestServer(svc)

	rec := do(t, h, http.MethodGet, "/news/search")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/news/search?q=abc")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc", svc.searchQuery)
	require.Equal(t, 20, svc.searchLimit)

	do(t, h, http.MethodGet, "/news/search?q=abc&limit=500")
	require.Equal(t, 100, svc.searchLimit)

	do(t, h, http.MethodGet, "/news/search?q=abc&limit=-1")
	require.Equal(t, 20, svc.searchLimit)
}

func TestEntityRequiresName(t *testing.T) {
	svc := &stubService{}
	h := newTestServer(svc)

	rec := do(t, h, http.MethodGet, "/news/entity")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/news/entity?name=abc&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc", svc.entityName)
	require.Equal(t, 5, svc.entityLimit)
}

func TestMentionsAndKeywords(t *testing.T) {
	svc := &stubService{}
	h := newTestServer(svc)

	rec := do(t, h, http.MethodGet, "/news/mentions")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"이재명":3}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/news/keywords?limit=7")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 7, svc.keywordLimit)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&stubService{}), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok","cached":0}`, rec.Body.String())
}

func TestClampInt(t *testing.T) {
	require.Equal(t, 10, clampInt("", 10, 50))
	require.Equal(t, 10, clampInt("abc", 10, 50))
	require.Equal(t, 10, clampInt("0", 10, 50))
	require.Equal(t, 50, clampInt("99", 10, 50))
	require.Equal(t, 25, clampInt("25", 10, 50))
}

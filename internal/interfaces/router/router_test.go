package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"carlist/internal/config"
	"carlist/internal/infrastructure/database"
	"carlist/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

var listingHref = regexp.MustCompile(`href="/listing/(\d+)"`)

type testServer struct {
	url    string
	client *http.Client
}

func startServer(t *testing.T, cfg *config.Config) *testServer {
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(t.TempDir(), "cars.db")
	}
	app, db, rdb, err := CreateApp(cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(Handler(app))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close(db)
		if rdb != nil {
			_ = rdb.Close()
		}
	})
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{url: srv.URL, client: &http.Client{Jar: jar}}
}

func (s *testServer) get(t *testing.T, path string) (int, string) {
	resp, err := s.client.Get(s.url + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func (s *testServer) post(t *testing.T, path string, form url.Values) (int, string, string) {
	resp, err := s.client.PostForm(s.url+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Request.URL.Path, string(b)
}

func blueCivic() url.Values {
	return url.Values{
		"title":         {"Blue Civic"},
		"make":          {"Honda"},
		"model":         {"Civic"},
		"year":          {"2015"},
		"mileage":       {"50000"},
		"price":         {"9000"},
		"description":   {"clean title"},
		"contact_email": {"a@b.com"},
	}
}

func runListingLifecycle(t *testing.T, s *testServer) {
	status, body := s.get(t, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "No listings yet.")

	status, path, body := s.post(t, "/listing/new", blueCivic())
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/", path)
	assert.Contains(t, body, "Your listing has been created!")
	assert.Contains(t, body, "Blue Civic")

	m := listingHref.FindStringSubmatch(body)
	require.Len(t, m, 2)
	id := m[1]

	_, body = s.get(t, "/")
	assert.NotContains(t, body, "Your listing has been created!")

	status, body = s.get(t, "/listing/"+id)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "clean title")
	assert.Contains(t, body, "mailto:a@b.com")

	_, body = s.get(t, "/search?q=Civic")
	assert.Contains(t, body, "Blue Civic")

	status, path, body = s.post(t, "/listing/"+id+"/delete", url.Values{})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/", path)
	assert.Contains(t, body, "Listing deleted successfully")
	assert.NotContains(t, body, "Blue Civic")

	status, body = s.get(t, "/listing/"+id)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Listing not found", body)
}

func TestListingLifecycle_InMemorySessions(t *testing.T) {
	s := startServer(t, &config.Config{Env: "test"})
	runListingLifecycle(t, s)
}

func TestListingLifecycle_RedisSessionsAndEncryptedCookies(t *testing.T) {
	mr := miniredis.RunT(t)
	s := startServer(t, &config.Config{
		Env:           "test",
		RedisURL:      "redis://" + mr.Addr(),
		SessionSecret: testSessionSecret,
	})
	runListingLifecycle(t, s)

	u, err := url.Parse(s.url)
	require.NoError(t, err)
	cookies := s.client.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
	assert.False(t, mr.Exists(middleware.SessionRedisPrefix+cookies[0].Value), "cookie value is encrypted")

	var sessions int
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, middleware.SessionRedisPrefix) {
			sessions++
		}
	}
	assert.Equal(t, 1, sessions)
	assert.True(t, mr.Exists(middleware.KeyReqTotal))
}

func TestCreateApp_ExistingStoreKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.db")
	first := startServer(t, &config.Config{DatabasePath: path})
	status, _, _ := first.post(t, "/listing/new", blueCivic())
	require.Equal(t, http.StatusOK, status)

	second := startServer(t, &config.Config{DatabasePath: path})
	_, body := second.get(t, "/")
	assert.Contains(t, body, "Blue Civic")
}

func TestCreateApp_InvalidSessionSecret(t *testing.T) {
	_, _, _, err := CreateApp(&config.Config{
		DatabasePath:  filepath.Join(t.TempDir(), "cars.db"),
		SessionSecret: "not-a-key",
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidSessionSecret)
}

func TestCreateApp_MissingFieldIsBadRequest(t *testing.T) {
	s := startServer(t, &config.Config{})
	form := blueCivic()
	form.Del("price")
	status, _, body := s.post(t, "/listing/new", form)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required field: price", body)
}

func TestCreateApp_UnknownRoute(t *testing.T) {
	s := startServer(t, &config.Config{})
	status, _ := s.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateApp_HealthWithoutRedis(t *testing.T) {
	s := startServer(t, &config.Config{HealthAdminKey: "k"})
	status, body := s.get(t, "/health/json")
	assert.Equal(t, http.StatusOK, status)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "ok", out["status"])

	status, body = s.get(t, "/health/errors")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", body)

	status, _ = s.get(t, "/health/reset?key=k")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

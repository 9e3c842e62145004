package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mehnda-chinji/internal/api"
	"mehnda-chinji/internal/devapi"
	"mehnda-chinji/internal/directory"
	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/guard"
	"mehnda-chinji/internal/repository/memory"
	"mehnda-chinji/internal/service"
	"mehnda-chinji/internal/session"
)

type shell struct {
	router  *gin.Engine
	session *session.Manager
	store   *memory.KVStore
}

// newShell builds the app shell against a fresh dev backend. The session is
// left uninitialized when initialize is false.
func newShell(t *testing.T, initialize bool) *shell {
	t.Helper()
	ctx := context.Background()
	gin.SetMode(gin.TestMode)
	logger, _ := logtest.NewNullLogger()

	backend, err := devapi.NewServer(ctx, devapi.Options{
		DatabasePath: filepath.Join(t.TempDir(), "backend.db"),
		JWTSecret:    "shell-test",
		TokenTTL:     time.Hour,
		Logger:       logger,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(backend.Router)
	t.Cleanup(func() {
		ts.Close()
		backend.Close()
	})

	store := memory.NewKVStore()
	sess := session.NewManager(session.Config{Store: store, Logger: logger})
	prefs := session.NewPreferences(store, logger)
	client := api.New(api.Config{BaseURL: ts.URL, Tokens: sess, Logger: logger})
	dir := directory.New(client, directory.NewQueryCache(directory.CacheConfig{Store: store, Logger: logger}))
	g := guard.New(nil, domain.RouteSplash, logger)
	t.Cleanup(g.Attach(sess))
	if initialize {
		sess.Initialize(ctx)
	}

	router := gin.New()
	NewHandler(Deps{
		Session:     sess,
		Preferences: prefs,
		Guard:       g,
		Accounts:    service.NewAccountService(client, sess, prefs, dir, logger),
		Donors:      service.NewDonorService(client, sess, logger),
		Businesses:  service.NewBusinessService(client, sess, dir, logger),
		Directory:   dir,
		Logger:      logger,
	}).RegisterRoutes(router)
	return &shell{router: router, session: sess, store: store}
}

func (s *shell) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const signupBody = `{"name":"Ayesha","email":"ayesha@example.com","password":"secret1","city":"Multan"}`

func TestRouteMapping(t *testing.T) {
	cases := map[string]domain.Route{
		"/auth/login":      domain.RouteLogin,
		"/auth/welcome":    domain.RouteWelcome,
		"/app/tabs":        domain.RouteTabs,
		"/app/tabs/blood":  domain.RouteBlood,
		"/app/settings":    domain.RouteSettings,
		"/app/tabs/blood/": domain.RouteBlood,
	}
	for path, route := range cases {
		assert.Equal(t, route, routeOf(path), path)
	}
	for _, route := range []domain.Route{domain.RouteLogin, domain.RouteTabs, domain.RouteBusiness, domain.RouteSettings} {
		assert.Equal(t, route, routeOf(pathOf(route)))
	}
}

func TestGuard_HoldsWhileLoading(t *testing.T) {
	s := newShell(t, false)

	for _, path := range []string{"/", "/auth/login", "/app/tabs"} {
		rec := s.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	}
	rec := s.do(t, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "undetermined", decode(t, rec)["state"])
}

func TestGuard_SignedOut(t *testing.T) {
	s := newShell(t, true)

	rec := s.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/welcome", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/app/tabs/business", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/auth/register", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(domain.RouteRegister), decode(t, rec)["route"])

	rec = s.do(t, http.MethodGet, "/api/donors", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionFlow(t *testing.T) {
	s := newShell(t, true)

	rec := s.do(t, http.MethodPost, "/api/session/signup", signupBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "authenticated", body["state"])
	assert.NotEmpty(t, body["tokenExpiry"])
	assert.Equal(t, string(guard.AppEntry), body["route"])

	rec = s.do(t, http.MethodGet, "/auth/login", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/app/tabs", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/app/settings", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/profile", `{"village":"Chinji"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Chinji", decode(t, rec)["profile"].(map[string]any)["village"])

	rec = s.do(t, http.MethodPost, "/api/session/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "unauthenticated", body["state"])
	assert.Equal(t, string(guard.AuthEntry), body["route"], "guard moves the open screen to login")

	rec = s.do(t, http.MethodPost, "/api/session/login", `{"email":"ayesha@example.com","password":"nope12","remember":true}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/session/login", `{"email":"ayesha@example.com","password":"secret1","remember":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Chinji", decode(t, rec)["profile"].(map[string]any)["village"])

	rec = s.do(t, http.MethodGet, "/api/preferences", "")
	assert.Equal(t, "ayesha@example.com", decode(t, rec)["rememberedEmail"])

	rec = s.do(t, http.MethodPost, "/api/session/login", `{"email":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreferencesTheme(t *testing.T) {
	s := newShell(t, true)

	rec := s.do(t, http.MethodGet, "/api/preferences?system=dark", "")
	body := decode(t, rec)
	assert.Equal(t, "system", body["theme"])
	assert.Equal(t, "dark", body["resolvedTheme"])

	rec = s.do(t, http.MethodPut, "/api/preferences/theme", `{"theme":"purple"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/preferences/theme", `{"theme":"light"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/preferences?system=dark", "")
	assert.Equal(t, "light", decode(t, rec)["resolvedTheme"])
}

func TestDonorsAndBusinesses(t *testing.T) {
	s := newShell(t, true)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/session/signup", signupBody).Code)

	rec := s.do(t, http.MethodGet, "/api/donors?bloodGroup=B%2B", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode(t, rec)["donors"])

	rec = s.do(t, http.MethodGet, "/api/donors?bloodGroup=Q", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/businesses?search=henna", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Empty(t, body["items"])
	assert.Equal(t, float64(1), body["pages"])
	assert.Equal(t, false, body["hasNext"])
}

func TestSettingsRoutes(t *testing.T) {
	s := newShell(t, true)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/sessions", "").Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/session/signup", signupBody).Code)

	rec := s.do(t, http.MethodPut, "/api/password", `{"currentPassword":"wrong1","newPassword":"another1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPut, "/api/password", `{"currentPassword":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPut, "/api/password", `{"currentPassword":"secret1","newPassword":"another1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/push-token", `{"pushToken":"ExponentPushToken[abc]"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sessions := decode(t, rec)["sessions"].([]any)
	require.Len(t, sessions, 1)
	current := sessions[0].(map[string]any)
	assert.Equal(t, true, current["current"])

	rec = s.do(t, http.MethodDelete, "/api/sessions/not-a-session", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/sessions/"+current["_id"].(string), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "unauthenticated", decode(t, rec)["state"])
	assert.False(t, s.session.IsAuthenticated())
}

func TestDeleteAccountRoute(t *testing.T) {
	s := newShell(t, true)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/session/signup", signupBody).Code)

	rec := s.do(t, http.MethodDelete, "/api/account", `{"password":"wrong1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, s.session.IsAuthenticated())

	rec = s.do(t, http.MethodDelete, "/api/account", `{"password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "unauthenticated", body["state"])
	assert.Equal(t, string(guard.AuthEntry), body["route"])

	rec = s.do(t, http.MethodPost, "/api/session/login", `{"email":"ayesha@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestThemeToggle(t *testing.T) {
	s := newShell(t, true)

	rec := s.do(t, http.MethodPost, "/api/preferences/theme/toggle?system=dark", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "light", decode(t, rec)["theme"])

	rec = s.do(t, http.MethodPost, "/api/preferences/theme/toggle", "")
	assert.Equal(t, "dark", decode(t, rec)["theme"])

	rec = s.do(t, http.MethodGet, "/api/preferences?system=light", "")
	assert.Equal(t, "dark", decode(t, rec)["theme"])
}

func TestDonorRoutes(t *testing.T) {
	s := newShell(t, true)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/session/signup", signupBody).Code)

	rec := s.do(t, http.MethodGet, "/api/donors/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["donor"])

	rec = s.do(t, http.MethodPost, "/api/donors/me", `{"bloodGroup":"A+"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	donor := decode(t, rec)["donor"].(map[string]any)
	assert.Equal(t, "A+", donor["bloodGroup"])
	assert.Equal(t, true, donor["available"])

	rec = s.do(t, http.MethodGet, "/api/donors?bloodGroup=A%2B", "")
	assert.Len(t, decode(t, rec)["donors"], 1)

	rec = s.do(t, http.MethodPost, "/api/donors/me/availability", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["donor"].(map[string]any)["available"])

	rec = s.do(t, http.MethodGet, "/api/donors?bloodGroup=A%2B", "")
	assert.Len(t, decode(t, rec)["donors"], 0, "busy donors are not listed")

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/donors/me", "").Code)
	rec = s.do(t, http.MethodGet, "/api/donors/me", "")
	assert.Nil(t, decode(t, rec)["donor"])
}

func TestBusinessRoutes(t *testing.T) {
	s := newShell(t, true)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/session/signup", signupBody).Code)

	rec := s.do(t, http.MethodGet, "/api/categories?type=SHOPS", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode(t, rec)["categories"].([]any)
	require.NotEmpty(t, cats)
	categoryID := cats[0].(map[string]any)["_id"].(string)

	require.Len(t, decode(t, s.do(t, http.MethodGet, "/api/businesses", ""))["items"], 0)

	rec = s.do(t, http.MethodPost, "/api/businesses", `{"name":"Chinji Bakery","categoryId":"`+categoryID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["business"].(map[string]any)["_id"].(string)

	rec = s.do(t, http.MethodGet, "/api/businesses", "")
	assert.Len(t, decode(t, rec)["items"], 1, "registering invalidates the cached list")

	rec = s.do(t, http.MethodPatch, "/api/businesses/"+id, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPatch, "/api/businesses/"+id, `{"searchable":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode(t, s.do(t, http.MethodGet, "/api/businesses", ""))["items"], 0)

	rec = s.do(t, http.MethodGet, "/api/businesses/mine", "")
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode(t, rec)["businesses"].([]any)
	require.Len(t, mine, 1)
	assert.Equal(t, false, mine[0].(map[string]any)["searchable"])

	rec = s.do(t, http.MethodPost, "/api/businesses", `{"name":"Nowhere","categoryId":"no-such-category"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/businesses/"+id, "").Code)
	assert.Len(t, decode(t, s.do(t, http.MethodGet, "/api/businesses/mine", ""))["businesses"], 0)
}

package service

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mehnda-chinji/internal/api"
	"mehnda-chinji/internal/devapi"
	"mehnda-chinji/internal/directory"
	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/repository/memory"
	"mehnda-chinji/internal/session"
)

type harness struct {
	backend  *httptest.Server
	store    *memory.KVStore
	client   *api.Client
	session  *session.Manager
	prefs    *session.Preferences
	dir      *directory.Directory
	accounts AccountService
	business BusinessService
	donors   DonorService
	hook     *logtest.Hook
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	gin.SetMode(gin.TestMode)
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	srv, err := devapi.NewServer(ctx, devapi.Options{
		DatabasePath: filepath.Join(t.TempDir(), "backend.db"),
		JWTSecret:    "service-test",
		TokenTTL:     time.Hour,
		Logger:       logger,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	h := &harness{backend: ts, store: memory.NewKVStore(), hook: hook}
	h.session = session.NewManager(session.Config{Store: h.store, Logger: logger})
	h.session.Initialize(ctx)
	h.prefs = session.NewPreferences(h.store, logger)
	h.client = api.New(api.Config{BaseURL: ts.URL, Tokens: h.session, Logger: logger})
	h.dir = directory.New(h.client, directory.NewQueryCache(directory.CacheConfig{
		Store:      h.store,
		Logger:     logger,
		RetryDelay: time.Millisecond,
	}))
	h.accounts = NewAccountService(h.client, h.session, h.prefs, h.dir, logger)
	h.business = NewBusinessService(h.client, h.session, h.dir, logger)
	h.donors = NewDonorService(h.client, h.session, logger)
	return h
}

func (h *harness) signup(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, h.accounts.Signup(context.Background(), api.SignupRequest{
		Name: "Ayesha", Email: email, Password: "secret1", City: "Multan",
	}))
}

func TestAccount_SignupLogsIn(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "ayesha@example.com")

	assert.True(t, h.session.IsAuthenticated())
	assert.Equal(t, "ayesha@example.com", h.session.Profile().String("email"))
	raw, found, err := h.store.Get(context.Background(), session.SessionKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, raw, h.session.Token())
}

func TestAccount_LoginRemembersEmail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signup(t, "ayesha@example.com")
	require.NoError(t, h.accounts.Logout(ctx))

	require.NoError(t, h.accounts.Login(ctx, "ayesha@example.com", "secret1", true))
	assert.True(t, h.session.IsAuthenticated())
	assert.Equal(t, "ayesha@example.com", h.prefs.RememberedEmail(ctx))

	require.NoError(t, h.accounts.Logout(ctx))
	require.NoError(t, h.accounts.Login(ctx, "ayesha@example.com", "secret1", false))
	assert.Empty(t, h.prefs.RememberedEmail(ctx))
}

func TestAccount_LoginFailureChangesNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signup(t, "ayesha@example.com")
	require.NoError(t, h.accounts.Logout(ctx))
	h.prefs.RememberEmail(ctx, "ayesha@example.com")

	err := h.accounts.Login(ctx, "ayesha@example.com", "wrong-password", false)
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Unauthorized())
	assert.False(t, h.session.IsAuthenticated())
	assert.Equal(t, "ayesha@example.com", h.prefs.RememberedEmail(ctx))

	assert.ErrorIs(t, h.accounts.Login(ctx, " ", "x", true), ErrMissingCredentials)
}

func TestAccount_LogoutRevokesBackendSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signup(t, "ayesha@example.com")
	token := h.session.Token()

	require.NoError(t, h.accounts.Logout(ctx))
	assert.False(t, h.session.IsAuthenticated())

	stale := api.New(api.Config{BaseURL: h.backend.URL, Tokens: staticToken(token)})
	_, err := stale.DonorStatus(ctx)
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Unauthorized())
}

func TestAccount_LogoutWhenBackendDown(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signup(t, "ayesha@example.com")
	h.backend.Close()

	require.NoError(t, h.accounts.Logout(ctx))
	assert.False(t, h.session.IsAuthenticated())
	_, found, err := h.store.Get(ctx, session.SessionKey)
	require.NoError(t, err)
	assert.False(t, found)

	var warned bool
	for _, e := range h.hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "backend logout failed, clearing local session anyway" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestAccount_UpdateProfileMergesStoredProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.accounts.UpdateProfile(ctx, map[string]any{"city": "Lahore"})
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	h.signup(t, "ayesha@example.com")
	token := h.session.Token()

	profile, err := h.accounts.UpdateProfile(ctx, map[string]any{"city": " Lahore "})
	require.NoError(t, err)
	assert.Equal(t, "Lahore", profile.String("city"), "backend trims, its copy wins")
	assert.Equal(t, "Ayesha", profile.String("name"))
	assert.Equal(t, token, h.session.Token())

	_, err = h.accounts.UpdateProfile(ctx, map[string]any{"email": "new@example.com"})
	require.Error(t, err)
	assert.Equal(t, "ayesha@example.com", h.session.Profile().String("email"))
}

func TestAccount_ChangePassword(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signup(t, "ayesha@example.com")

	require.Error(t, h.accounts.ChangePassword(ctx, "bad", "another1"))
	require.NoError(t, h.accounts.ChangePassword(ctx, "secret1", "another1"))
	require.NoError(t, h.accounts.Logout(ctx))
	require.NoError(t, h.accounts.Login(ctx, "ayesha@example.com", "another1", false))
}

func TestAccount_DeleteAccountLogsOut(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signup(t, "ayesha@example.com")

	require.Error(t, h.accounts.DeleteAccount(ctx, "wrong1"))
	assert.True(t, h.session.IsAuthenticated())

	require.NoError(t, h.accounts.DeleteAccount(ctx, "secret1"))
	assert.False(t, h.session.IsAuthenticated())
	require.Error(t, h.accounts.Login(ctx, "ayesha@example.com", "secret1", false))
}

func TestBusiness_MutationsRefreshDirectory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signup(t, "owner@example.com")

	cats, err := h.business.Categories(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, cats)

	list := h.dir.List(domain.BusinessFilter{})
	require.NoError(t, list.Load(ctx))
	assert.Empty(t, list.Items())

	created, err := h.business.Register(ctx, api.BusinessRegistration{Name: "Henna House", CategoryID: cats[0].ID})
	require.NoError(t, err)

	require.NoError(t, list.Load(ctx))
	require.Len(t, list.Items(), 1)
	assert.Equal(t, "Henna House", list.Items()[0].Name)

	require.NoError(t, h.business.SetSearchable(ctx, created.ID, false))
	require.NoError(t, list.Load(ctx))
	assert.Empty(t, list.Items())

	own, err := h.business.Mine(ctx)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.False(t, own[0].Searchable)

	require.NoError(t, h.business.Delete(ctx, created.ID))
	own, err = h.business.Mine(ctx)
	require.NoError(t, err)
	assert.Empty(t, own)
}

// loginAs logs a second device in through the backend and returns its token.
func (h *harness) loginAs(t *testing.T, email string) string {
	t.Helper()
	other := api.New(api.Config{BaseURL: h.backend.URL})
	payload, err := other.Login(context.Background(), api.LoginRequest{Email: email, Password: "secret1"})
	require.NoError(t, err)
	sess, err := session.ResolveLogin(payload)
	require.NoError(t, err)
	return sess.Token
}

func TestAccount_SessionsAndRevoke(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.accounts.Sessions(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	h.signup(t, "ayesha@example.com")
	otherToken := h.loginAs(t, "ayesha@example.com")

	sessions, err := h.accounts.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	var current, other string
	for _, ls := range sessions {
		if ls.Current {
			current = ls.ID
		} else {
			other = ls.ID
		}
	}
	require.NotEmpty(t, current)
	require.NotEmpty(t, other)

	require.NoError(t, h.accounts.RevokeSession(ctx, other))
	assert.True(t, h.session.IsAuthenticated())
	_, err = api.New(api.Config{BaseURL: h.backend.URL, Tokens: staticToken(otherToken)}).DonorStatus(ctx)
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Unauthorized())

	require.NoError(t, h.accounts.RevokeSession(ctx, current))
	assert.False(t, h.session.IsAuthenticated(), "revoking this device logs it out")
	_, found, err := h.store.Get(ctx, session.SessionKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAccount_SavePushToken(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	assert.ErrorIs(t, h.accounts.SavePushToken(ctx, "ExponentPushToken[x]"), ErrNotLoggedIn)

	h.signup(t, "ayesha@example.com")
	require.NoError(t, h.accounts.SavePushToken(ctx, " ExponentPushToken[x] "))
	err := h.accounts.SavePushToken(ctx, "  ")
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
}

// loginPayloadBackend answers every login with a fixed body.
type loginPayloadBackend struct {
	Backend
	payload string
}

func (b loginPayloadBackend) Login(context.Context, api.LoginRequest) ([]byte, error) {
	return []byte(b.payload), nil
}

func TestAccount_RememberedEmailKeptWhenLoginPayloadIsMalformed(t *testing.T) {
	ctx := context.Background()
	logger, _ := logtest.NewNullLogger()
	store := memory.NewKVStore()
	sess := session.NewManager(session.Config{Store: store, Logger: logger})
	sess.Initialize(ctx)
	prefs := session.NewPreferences(store, logger)
	prefs.RememberEmail(ctx, "old@example.com")

	accounts := NewAccountService(loginPayloadBackend{payload: `{"success":true,"data":{"token":"t"}}`}, sess, prefs, nil, logger)

	err := accounts.Login(ctx, "new@example.com", "secret1", true)
	assert.ErrorIs(t, err, session.ErrMalformedLoginPayload)
	assert.Equal(t, "old@example.com", prefs.RememberedEmail(ctx))

	err = accounts.Login(ctx, "new@example.com", "secret1", false)
	assert.ErrorIs(t, err, session.ErrMalformedLoginPayload)
	assert.Equal(t, "old@example.com", prefs.RememberedEmail(ctx))
	assert.False(t, sess.IsAuthenticated())
}

func TestDonor_RegistrationFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.donors.Status(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	h.signup(t, "ayesha@example.com")
	donor, err := h.donors.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, donor)

	donor, err = h.donors.Register(ctx, api.DonorRegistration{BloodGroup: "b-"})
	require.NoError(t, err)
	assert.Equal(t, "B-", donor.BloodGroup)
	assert.Equal(t, "Multan", donor.City)
	assert.True(t, donor.Available)

	found, err := h.donors.List(ctx, domain.DonorFilter{BloodGroup: "B-"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	donor, err = h.donors.ToggleAvailability(ctx)
	require.NoError(t, err)
	assert.False(t, donor.Available)

	require.NoError(t, h.donors.Remove(ctx))
	donor, err = h.donors.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, donor)
	found, err = h.donors.List(ctx, domain.DonorFilter{})
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

// recordingBusinessBackend accepts every listing change.
type recordingBusinessBackend struct {
	BusinessBackend
	deleted []string
}

func (b *recordingBusinessBackend) DeleteBusiness(_ context.Context, id string) error {
	b.deleted = append(b.deleted, id)
	return nil
}

func (b *recordingBusinessBackend) SetBusinessSearchable(context.Context, string, bool) error {
	return nil
}

func (b *recordingBusinessBackend) BusinessStatus(context.Context) ([]domain.Business, error) {
	return []domain.Business{{ID: "b1"}}, nil
}

func TestBusiness_WithoutDirectoryCache(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signup(t, "owner@example.com")
	backend := &recordingBusinessBackend{}
	svc := NewBusinessService(backend, h.session, nil, nil)

	require.NoError(t, svc.Delete(ctx, "b1"))
	require.NoError(t, svc.SetSearchable(ctx, "b1", false))
	assert.Equal(t, []string{"b1"}, backend.deleted)

	mine, err := svc.Mine(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

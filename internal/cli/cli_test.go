package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mehnda-chinji/internal/app"
	"mehnda-chinji/internal/devapi"
	"mehnda-chinji/internal/repository/memory"
)

type device struct {
	store   *memory.KVStore
	baseURL string
}

func newDevice(t *testing.T) *device {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := logtest.NewNullLogger()
	srv, err := devapi.NewServer(context.Background(), devapi.Options{
		DatabasePath: filepath.Join(t.TempDir(), "backend.db"),
		JWTSecret:    "cli-test",
		TokenTTL:     time.Hour,
		Logger:       logger,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &device{store: memory.NewKVStore(), baseURL: ts.URL}
}

// run executes one CLI invocation as a fresh process sharing the device store.
func (d *device) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	root := NewRootCommand(func(ctx context.Context, configFile string) (*app.App, error) {
		return app.Assemble(d.store, d.baseURL, 5*time.Second, logger), nil
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	root := NewRootCommand(nil)
	for _, path := range [][]string{
		{"login"}, {"signup"}, {"logout"}, {"whoami"},
		{"profile", "set"}, {"password"}, {"account", "delete"},
		{"sessions"}, {"sessions", "revoke"},
		{"donors", "list"}, {"donors", "register"}, {"donors", "status"},
		{"donors", "remove"}, {"donors", "toggle"},
		{"businesses", "list"}, {"businesses", "add"}, {"businesses", "mine"},
		{"businesses", "remove"}, {"businesses", "hide"}, {"businesses", "show"},
		{"businesses", "categories"},
		{"theme", "get"}, {"theme", "set"}, {"theme", "toggle"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestAppCommandsNeedLogin(t *testing.T) {
	d := newDevice(t)
	for _, args := range [][]string{
		{"whoami"}, {"donors", "list"}, {"donors", "status"}, {"businesses", "list"},
		{"businesses", "mine"}, {"profile", "set", "city=Multan"}, {"sessions"},
		{"password", "--current", "secret1", "--new", "another1"},
		{"account", "delete", "--password", "secret1"},
	} {
		_, err := d.run(t, args...)
		assert.ErrorIs(t, err, ErrLoginRequired, args)
	}
}

func TestSessionSurvivesRuns(t *testing.T) {
	d := newDevice(t)

	out, err := d.run(t, "signup", "--name", "Ayesha", "--email", "ayesha@example.com", "--password", "secret1", "--city", "Multan")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Ayesha <ayesha@example.com>")

	out, err = d.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ayesha@example.com")
	assert.Contains(t, out, "expires:")

	out, err = d.run(t, "login", "--email", "ayesha@example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "Already logged in as Ayesha")

	out, err = d.run(t, "profile", "set", "village=Chinji")
	require.NoError(t, err)
	assert.Contains(t, out, "Profile updated")
	out, err = d.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Chinji")

	_, err = d.run(t, "profile", "set", "village")
	assert.Error(t, err)

	out, err = d.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	out, err = d.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")

	_, err = d.run(t, "login", "--email", "ayesha@example.com", "--password", "secret1", "--remember")
	require.NoError(t, err)
	_, err = d.run(t, "logout")
	require.NoError(t, err)

	out, err = d.run(t, "login", "--password", "secret1")
	require.NoError(t, err, "remembered email is used")
	assert.Contains(t, out, "Logged in as Ayesha")
}

func TestListCommands(t *testing.T) {
	d := newDevice(t)
	_, err := d.run(t, "signup", "--name", "Ayesha", "--email", "ayesha@example.com", "--password", "secret1")
	require.NoError(t, err)

	out, err := d.run(t, "donors", "list", "--blood-group", "O+")
	require.NoError(t, err)
	assert.Contains(t, out, "No donors found")

	out, err = d.run(t, "businesses", "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "No businesses found")
}

func TestThemeCommands(t *testing.T) {
	d := newDevice(t)

	out, err := d.run(t, "theme")
	require.NoError(t, err)
	assert.Equal(t, "system\n", out)

	_, err = d.run(t, "theme", "set", "sepia")
	assert.Error(t, err)

	out, err = d.run(t, "theme", "set", "dark")
	require.NoError(t, err)
	assert.Contains(t, out, "Theme set to dark")

	out, err = d.run(t, "theme", "get")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)
}

func TestThemeToggle(t *testing.T) {
	d := newDevice(t)

	out, err := d.run(t, "theme", "toggle", "--system", "dark")
	require.NoError(t, err)
	assert.Contains(t, out, "Theme set to light")

	out, err = d.run(t, "theme", "toggle")
	require.NoError(t, err)
	assert.Contains(t, out, "Theme set to dark")
}

func TestAccountSettingsCommands(t *testing.T) {
	d := newDevice(t)
	_, err := d.run(t, "signup", "--name", "Ayesha", "--email", "ayesha@example.com", "--password", "secret1")
	require.NoError(t, err)

	_, err = d.run(t, "password", "--current", "nope12", "--new", "another1")
	assert.Error(t, err)
	out, err := d.run(t, "password", "--current", "secret1", "--new", "another1")
	require.NoError(t, err)
	assert.Contains(t, out, "Password changed")

	out, err = d.run(t, "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "(this device)")

	_, err = d.run(t, "sessions", "revoke", "missing")
	assert.Error(t, err)

	_, err = d.run(t, "account", "delete", "--password", "secret1")
	assert.Error(t, err, "old password no longer works")
	out, err = d.run(t, "account", "delete", "--password", "another1")
	require.NoError(t, err)
	assert.Contains(t, out, "Account deleted")

	_, err = d.run(t, "whoami")
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestDonorCommands(t *testing.T) {
	d := newDevice(t)
	_, err := d.run(t, "signup", "--name", "Ayesha", "--email", "ayesha@example.com", "--password", "secret1", "--city", "Multan")
	require.NoError(t, err)

	out, err := d.run(t, "donors", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not registered as a donor")

	_, err = d.run(t, "donors", "register", "--blood-group", "O+", "--last-donation", "01/03/2024")
	assert.Error(t, err)
	out, err = d.run(t, "donors", "register", "--blood-group", "O+", "--last-donation", "2024-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered as O+ donor in Multan")

	out, err = d.run(t, "donors", "list", "--blood-group", "O+")
	require.NoError(t, err)
	assert.Contains(t, out, "Ayesha")

	out, err = d.run(t, "donors", "toggle")
	require.NoError(t, err)
	assert.Contains(t, out, "busy")
	assert.Contains(t, out, "last donation: 2024-03-01")

	out, err = d.run(t, "donors", "remove")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed from the donor list")
}

func TestBusinessCommands(t *testing.T) {
	d := newDevice(t)
	_, err := d.run(t, "signup", "--name", "Ayesha", "--email", "ayesha@example.com", "--password", "secret1", "--city", "Multan")
	require.NoError(t, err)

	out, err := d.run(t, "businesses", "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "svc-mehndi")

	out, err = d.run(t, "businesses", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No businesses found")

	out, err = d.run(t, "businesses", "add", "--name", "Henna House", "--category", "svc-mehndi")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered Henna House")

	out, err = d.run(t, "businesses", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Henna House", "the cached empty list was invalidated")

	out, err = d.run(t, "businesses", "mine")
	require.NoError(t, err)
	id := strings.Fields(strings.Split(out, "\n")[1])[0]

	out, err = d.run(t, "businesses", "hide", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Business hidden")
	out, err = d.run(t, "businesses", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No businesses found")
	out, err = d.run(t, "businesses", "mine")
	require.NoError(t, err)
	assert.Contains(t, out, "hidden")

	_, err = d.run(t, "businesses", "show", id)
	require.NoError(t, err)
	out, err = d.run(t, "businesses", "remove", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Business removed")
	out, err = d.run(t, "businesses", "mine")
	require.NoError(t, err)
	assert.Contains(t, out, "You have no businesses")
}

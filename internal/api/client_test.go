package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mehnda-chinji/internal/domain"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type captured struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

func newTestClient(t *testing.T, token string, handler func(w http.ResponseWriter, c captured)) (*Client, *[]captured) {
	t.Helper()
	var calls []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
		}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &c.body)
		}
		calls = append(calls, c)
		w.Header().Set("Content-Type", "application/json")
		handler(w, c)
	}))
	t.Cleanup(srv.Close)

	logger, _ := logtest.NewNullLogger()
	return New(Config{BaseURL: srv.URL + "/", Tokens: staticToken(token), Logger: logger}), &calls
}

func TestClient_LoginHasNoBearerAndReturnsRawPayload(t *testing.T) {
	body := `{"success":true,"data":{"userData":{"id":"2"},"token":"xyz"}}`
	client, calls := newTestClient(t, "stale", func(w http.ResponseWriter, _ captured) {
		io.WriteString(w, body)
	})

	payload, err := client.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	assert.JSONEq(t, body, string(payload))

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, http.MethodPost, c.method)
	assert.Equal(t, "/auth/user/login-with-email", c.path)
	assert.Empty(t, c.auth)
	assert.Equal(t, "a@b.c", c.body["email"])
}

func TestClient_AttachesBearerWhenTokenPresent(t *testing.T) {
	client, calls := newTestClient(t, "abc", func(w http.ResponseWriter, _ captured) {
		io.WriteString(w, `{"success":true,"data":[]}`)
	})
	_, err := client.ListDonors(context.Background(), domain.DonorFilter{BloodGroup: "O+", Location: "Multan"})
	require.NoError(t, err)

	c := (*calls)[0]
	assert.Equal(t, "Bearer abc", c.auth)
	assert.Equal(t, "/api/user/v1/get-donors-list", c.path)
	assert.Equal(t, "bloodGroup=O%2B&location=Multan", c.query)
}

func TestClient_NoBearerWithoutToken(t *testing.T) {
	client, calls := newTestClient(t, "", func(w http.ResponseWriter, _ captured) {
		io.WriteString(w, `{"success":true}`)
	})
	require.NoError(t, client.Logout(context.Background()))
	assert.Empty(t, (*calls)[0].auth)
}

func TestClient_ErrorStatusCarriesMessage(t *testing.T) {
	client, _ := newTestClient(t, "abc", func(w http.ResponseWriter, _ captured) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"success":false,"message":"Invalid email or password"}`)
	})

	_, err := client.Login(context.Background(), LoginRequest{Email: "a", Password: "b"})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid email or password", apiErr.Message)
	assert.True(t, apiErr.Unauthorized())
}

func TestClient_SuccessFalseIsAnError(t *testing.T) {
	client, _ := newTestClient(t, "abc", func(w http.ResponseWriter, _ captured) {
		io.WriteString(w, `{"success":false,"message":"Business not found"}`)
	})

	err := client.DeleteBusiness(context.Background(), "b1")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Business not found", apiErr.Message)
}

func TestClient_ListBusinessesPagination(t *testing.T) {
	client, calls := newTestClient(t, "abc", func(w http.ResponseWriter, _ captured) {
		io.WriteString(w, `{"success":true,"data":[{"_id":"b1","name":"Shop"}],"pagination":{"currentPage":2,"totalPages":3,"totalItems":41,"limit":20}}`)
	})

	page, err := client.ListBusinesses(context.Background(), domain.BusinessFilter{Search: "shop"}, 2)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "b1", page.Data[0].ID)
	require.NotNil(t, page.Pagination)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, "currentPage=2&search=shop", (*calls)[0].query)
}

func TestClient_UpdateProfileEchoShapes(t *testing.T) {
	responses := []string{
		`{"success":true,"data":{"userData":{"id":"1","city":"X"}}}`,
		`{"success":true,"data":{"id":"1","city":"X"}}`,
		`{"success":true,"message":"updated"}`,
	}
	for i, resp := range responses {
		resp := resp
		client, _ := newTestClient(t, "abc", func(w http.ResponseWriter, _ captured) {
			io.WriteString(w, resp)
		})
		profile, err := client.UpdateProfile(context.Background(), map[string]any{"city": "X"})
		require.NoError(t, err)
		if i < 2 {
			assert.Equal(t, "X", profile.String("city"))
		} else {
			assert.Nil(t, profile)
		}
	}
}

func TestClient_DonorStatusNotRegistered(t *testing.T) {
	client, _ := newTestClient(t, "abc", func(w http.ResponseWriter, _ captured) {
		io.WriteString(w, `{"success":true,"data":null}`)
	})
	donor, err := client.DonorStatus(context.Background())
	require.NoError(t, err)
	assert.Nil(t, donor)
}

func TestClient_CategoriesDefaultType(t *testing.T) {
	client, calls := newTestClient(t, "abc", func(w http.ResponseWriter, _ captured) {
		io.WriteString(w, `{"success":true,"data":[{"_id":"c1","name":"Tailor","type":"SERVICES"}]}`)
	})
	cats, err := client.Categories(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "type=SERVICES", (*calls)[0].query)
}

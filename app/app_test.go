package app_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/soffa-projects/go-webstack/app"
	"github.com/soffa-projects/go-webstack/config"
	"github.com/soffa-projects/go-webstack/oauth"
	"github.com/soffa-projects/go-webstack/session"
	"github.com/soffa-projects/go-webstack/store"
	"github.com/soffa-projects/go-webstack/tests"
	"github.com/soffa-projects/go-webstack/token"
)

const testSecret = "test-secret-key-with-at-least-32-chars!!"

type fakeProvider struct {
	identity    oauth.Identity
	exchangeErr error
	verifyErr   error
}

func (f *fakeProvider) LoginURL(state string) string {
	return "https://accounts.example.com/consent?state=" + state
}

func (f *fakeProvider) Exchange(_ context.Context, _ string) (string, error) {
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return "raw-id-token", nil
}

func (f *fakeProvider) VerifyIdToken(_ context.Context, _ string) (*oauth.Identity, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	identity := f.identity
	return &identity, nil
}

var appCounter int

func newTestApp(t *testing.T, provider oauth.Provider) (tests.HttpExpect, store.UserRepo) {
	appCounter++
	db, err := store.Open(fmt.Sprintf("file:app_test_%d?mode=memory&cache=shared", appCounter))
	require.NoError(t, err)

	cfg := &config.Config{
		Port:      "0",
		AppUrl:    "http://localhost",
		JwtSecret: testSecret,
		JwtExpiry: time.Hour,
	}
	application, err := app.New(cfg, app.WithDataSource(db), app.WithOAuthProvider(provider))
	require.NoError(t, err)

	expect := tests.HttpTest(t, application.Handler(), application.Close)
	return expect, store.NewUserRepo(db)
}

func TestHealthEndpoint(t *testing.T) {
	expect, _ := newTestApp(t, &fakeProvider{})
	defer expect.Teardown()

	body := expect.GET("/api/health").Expect().IsOK().Object()
	body.Value("status").String().IsEqual("ok")
	body.Value("services").Object().Value("database").String().IsEqual("ok")
}

func TestLoginRedirectsToProvider(t *testing.T) {
	expect, _ := newTestApp(t, &fakeProvider{})
	defer expect.Teardown()

	result := expect.GET("/api/auth/login").Params(map[string]string{"redirectTo": "/reports"}).
		Expect().IsRedirect()
	assert.Equal(t, "https://accounts.example.com/consent?state=%2Freports", result.HeaderValue("Location"))
}

func TestCallbackCreatesUserOnce(t *testing.T) {
	provider := &fakeProvider{identity: oauth.Identity{
		Email:   "jane@example.com",
		Subject: "goog-123",
		Name:    "Jane Doe",
		Picture: "https://img.example.com/jane.png",
	}}
	expect, users := newTestApp(t, provider)
	defer expect.Teardown()

	result := expect.GET("/api/auth/callback/google").
		Params(map[string]string{"code": "one-time-code"}).
		Expect().IsRedirect()
	assert.Equal(t, "/dashboard", result.HeaderValue("Location"))
	assert.NotEmpty(t, result.CookieValue(session.CookieName))

	created, err := users.FindByIdentity("jane@example.com", "goog-123")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, store.RoleCustomer, created.Role)
	assert.Equal(t, "Jane Doe", created.Name)

	// a second login with the same email updates instead of inserting
	provider.identity.Name = "Jane D."
	provider.identity.Picture = "https://img.example.com/jane2.png"
	expect.GET("/api/auth/callback/google").
		Params(map[string]string{"code": "another-code"}).
		Expect().IsRedirect()

	total, err := users.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	updated, err := users.FindById(created.Id)
	require.NoError(t, err)
	assert.Equal(t, "Jane D.", updated.Name)
	assert.Equal(t, "https://img.example.com/jane2.png", updated.Avatar)
}

func TestCallbackHonorsStateRedirect(t *testing.T) {
	provider := &fakeProvider{identity: oauth.Identity{Email: "jane@example.com", Subject: "goog-123"}}
	expect, _ := newTestApp(t, provider)
	defer expect.Teardown()

	result := expect.GET("/api/auth/callback/google").
		Params(map[string]string{"code": "one-time-code", "state": "%2Freports"}).
		Expect().IsRedirect()
	assert.Equal(t, "/reports", result.HeaderValue("Location"))
}

func TestCallbackErrorCodes(t *testing.T) {
	cases := []struct {
		name     string
		provider *fakeProvider
		params   map[string]string
		location string
	}{
		{
			name:     "provider error",
			provider: &fakeProvider{},
			params:   map[string]string{"error": "access_denied"},
			location: "/login?error=oauth",
		},
		{
			name:     "missing code",
			provider: &fakeProvider{},
			params:   map[string]string{},
			location: "/login?error=missing_code",
		},
		{
			name:     "missing id token",
			provider: &fakeProvider{exchangeErr: oauth.ErrMissingIdToken},
			params:   map[string]string{"code": "x"},
			location: "/login?error=missing_id_token",
		},
		{
			name:     "invalid id token",
			provider: &fakeProvider{verifyErr: oauth.ErrInvalidIdToken},
			params:   map[string]string{"code": "x"},
			location: "/login?error=invalid_token",
		},
		{
			name:     "exchange failure",
			provider: &fakeProvider{exchangeErr: fmt.Errorf("code already redeemed")},
			params:   map[string]string{"code": "x"},
			location: "/login?error=server_error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expect, _ := newTestApp(t, tc.provider)
			defer expect.Teardown()

			result := expect.GET("/api/auth/callback/google").Params(tc.params).
				Expect().IsRedirect()
			assert.Equal(t, tc.location, result.HeaderValue("Location"))
		})
	}
}

func TestLogoutThenMe(t *testing.T) {
	provider := &fakeProvider{identity: oauth.Identity{Email: "jane@example.com", Subject: "goog-123"}}
	expect, _ := newTestApp(t, provider)
	defer expect.Teardown()

	cookie := expect.GET("/api/auth/callback/google").
		Params(map[string]string{"code": "one-time-code"}).
		Expect().IsRedirect().
		CookieValue(session.CookieName)

	expect.POST("/api/auth/logout").Expect().IsOK().
		Object().Value("success").Boolean().IsTrue()

	// the client that dropped its cookie is anonymous again
	expect.GET("/api/auth/me").Expect().IsUnauthorized()

	// a still-presented cookie remains valid, logout only clears the browser state
	expect.GET("/api/auth/me").Cookie(session.CookieName, cookie).Expect().IsOK().
		Object().Value("email").String().IsEqual("jane@example.com")
}

func TestMeReturnsIdentity(t *testing.T) {
	provider := &fakeProvider{identity: oauth.Identity{
		Email:   "jane@example.com",
		Subject: "goog-123",
		Name:    "Jane Doe",
	}}
	expect, _ := newTestApp(t, provider)
	defer expect.Teardown()

	cookie := expect.GET("/api/auth/callback/google").
		Params(map[string]string{"code": "one-time-code"}).
		Expect().IsRedirect().
		CookieValue(session.CookieName)

	body := expect.GET("/api/auth/me").Cookie(session.CookieName, cookie).
		Expect().IsOK().Object()
	body.Value("email").String().IsEqual("jane@example.com")
	body.Value("role").String().IsEqual(store.RoleCustomer)
	body.Value("name").String().IsEqual("Jane Doe")
}

func TestMeWithoutSession(t *testing.T) {
	expect, _ := newTestApp(t, &fakeProvider{})
	defer expect.Teardown()

	expect.GET("/api/auth/me").Expect().IsUnauthorized()
}

func TestCreateUserValidation(t *testing.T) {
	expect, users := newTestApp(t, &fakeProvider{})
	defer expect.Teardown()

	admin := &store.User{Email: "root@example.com", Role: store.RoleAdmin}
	require.NoError(t, users.Create(admin))
	codec := token.NewCodec(testSecret, time.Hour)
	cookie, err := codec.Sign(admin.Id, admin.Email, admin.Role, nil)
	require.NoError(t, err)

	body := expect.POST("/api/users", map[string]any{"name": "A", "email": "not-an-email"}).
		Cookie(session.CookieName, cookie).
		Expect().IsBadRequest().Object()
	issues := body.Value("errors").Object()
	issues.Value("name").Array().Length().IsEqual(1)
	issues.Value("email").Array().Length().IsEqual(1)
}

func TestCreateUserRequiresSession(t *testing.T) {
	expect, _ := newTestApp(t, &fakeProvider{})
	defer expect.Teardown()

	// without a session the gate redirects before the pipeline runs
	expect.POST("/api/users", map[string]any{"name": "Jane", "email": "jane@example.com"}).
		Expect().IsRedirect()
}

func TestCreateUserAsAdmin(t *testing.T) {
	expect, users := newTestApp(t, &fakeProvider{})
	defer expect.Teardown()

	admin := &store.User{Email: "root@example.com", Role: store.RoleAdmin}
	require.NoError(t, users.Create(admin))
	codec := token.NewCodec(testSecret, time.Hour)
	cookie, err := codec.Sign(admin.Id, admin.Email, admin.Role, nil)
	require.NoError(t, err)

	body := expect.POST("/api/users", map[string]any{"name": "Jane", "email": "jane@example.com"}).
		Cookie(session.CookieName, cookie).
		Expect().IsCreated().Object()
	body.Value("email").String().IsEqual("jane@example.com")
	body.Value("role").String().IsEqual(store.RoleCustomer)

	expect.POST("/api/users", map[string]any{"name": "Jane", "email": "jane@example.com"}).
		Cookie(session.CookieName, cookie).
		Expect().Status(http.StatusConflict)
}

func TestCreateUserForbiddenForCustomer(t *testing.T) {
	expect, users := newTestApp(t, &fakeProvider{})
	defer expect.Teardown()

	customer := &store.User{Email: "jane@example.com", Role: store.RoleCustomer}
	require.NoError(t, users.Create(customer))
	codec := token.NewCodec(testSecret, time.Hour)
	cookie, err := codec.Sign(customer.Id, customer.Email, customer.Role, nil)
	require.NoError(t, err)

	expect.POST("/api/users", map[string]any{"name": "Jane", "email": "jane@example.com"}).
		Cookie(session.CookieName, cookie).
		Expect().IsForbidden()
}

func TestProfileRoundTrip(t *testing.T) {
	provider := &fakeProvider{identity: oauth.Identity{Email: "jane@example.com", Subject: "goog-123", Name: "Jane"}}
	expect, _ := newTestApp(t, provider)
	defer expect.Teardown()

	cookie := expect.GET("/api/auth/callback/google").
		Params(map[string]string{"code": "one-time-code"}).
		Expect().IsRedirect().
		CookieValue(session.CookieName)

	expect.GET("/api/profile").Cookie(session.CookieName, cookie).
		Expect().IsOK().
		Object().Value("email").String().IsEqual("jane@example.com")

	body := expect.PATCH("/api/profile", map[string]any{"name": "Jane Updated", "bio": "hello"}).
		Cookie(session.CookieName, cookie).
		Expect().IsOK().Object()
	body.Value("name").String().IsEqual("Jane Updated")
	body.Value("bio").String().IsEqual("hello")

	expect.PATCH("/api/profile", map[string]any{"name": "J"}).
		Cookie(session.CookieName, cookie).
		Expect().IsBadRequest()
}

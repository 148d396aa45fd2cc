package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-server/db"
	"github.com/meinhoongagan/clinic-server/middleware"
	"github.com/meinhoongagan/clinic-server/redis"
	"github.com/meinhoongagan/clinic-server/repositories"
	"github.com/meinhoongagan/clinic-server/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(googleUser{Email: "Jane.Doe@gmail.com", Name: "Jane Mary Doe", Picture: "https://pics/jane.png"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newAuthApp(t *testing.T, oauth *oauth2.Config, userInfoURL string) (*fiber.App, repositories.UserRepository) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), db.Options(false))
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	log := zerolog.Nop()
	users := repositories.NewUserRepository(gdb)
	auth := services.NewAuthService(users, repositories.NewPatientRepository(gdb), repositories.NewDoctorRepository(gdb),
		services.NewTokenService("k", time.Hour), redis.NewMemoryDenylist(), "admin", log)

	h := NewAuthController(auth, oauth, userInfoURL, "http://frontend")
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})
	app.Get("/google", h.GoogleLogin)
	app.Get("/callback", h.GoogleCallback)
	return app, users
}

func TestGoogleLogin_NotConfigured(t *testing.T) {
	app, _ := newAuthApp(t, nil, "")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/google", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGoogleFlow(t *testing.T) {
	provider := fakeGoogle(t)
	cfg := &oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://api/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   provider.URL + "/auth",
			TokenURL:  provider.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	app, users := newAuthApp(t, cfg, provider.URL+"/userinfo")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/google", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	assert.True(t, strings.HasPrefix(location.String(), provider.URL+"/auth"))

	var stateCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == oauthStateCookie {
			stateCookie = c
		}
	}
	require.NotNil(t, stateCookie)
	assert.Equal(t, state, stateCookie.Value)

	t.Run("state mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/callback?code=good-code&state=forged", nil)
		req.AddCookie(stateCookie)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("bad code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/callback?code=bad&state="+state, nil)
		req.AddCookie(stateCookie)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("success creates patient", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/callback?code=good-code&state="+state, nil)
		req.AddCookie(stateCookie)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "http://frontend/oauth2/redirect?token="))

		u, err := users.GetByEmail(req.Context(), "jane.doe@gmail.com")
		require.NoError(t, err)
		assert.Equal(t, "Jane", u.FirstName)
		assert.Equal(t, "Mary Doe", u.LastName)
		assert.Equal(t, "PATIENT", string(u.Role))
		assert.Empty(t, u.Password)
	})
}

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mshibata/ecshop/internal/config"
	"github.com/mshibata/ecshop/internal/hash"
	"github.com/mshibata/ecshop/internal/models"
	"github.com/mshibata/ecshop/internal/order"
	"github.com/mshibata/ecshop/internal/service"
)

var (
	testJWTSecret     = []byte("test-jwt-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB

	Auth    *AuthHandler
	Cart    *CartHandler
	Product *ProductHandler
	Orders  *OrderHandler
	Config  *StoreConfigHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.AutoMigrate(db))

	return &testEnv{
		T:       t,
		E:       echo.New(),
		DB:      db,
		Auth:    &AuthHandler{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret},
		Cart:    &CartHandler{DB: db, JWTSecret: testJWTSecret},
		Product: &ProductHandler{DB: db, JWTSecret: testJWTSecret},
		Orders:  &OrderHandler{Orders: &order.Service{DB: db}, JWTSecret: testJWTSecret},
		Config:  &StoreConfigHandler{DB: db},
	}
}

func (env *testEnv) createUser(username, role string) models.User {
	env.T.Helper()
	pwHash, err := hash.HashPassword("password")
	require.NoError(env.T, err)
	u := models.User{Username: username, PasswordHash: pwHash, Role: role}
	require.NoError(env.T, env.DB.Create(&u).Error)
	return u
}

func (env *testEnv) accessCookie(u models.User) *http.Cookie {
	env.T.Helper()
	token, err := service.SignAccessToken(u.ID, u.Role, testJWTSecret)
	require.NoError(env.T, err)
	return &http.Cookie{Name: "accessToken", Value: token, Path: "/"}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

package echoauthorizer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	authorizer "github.com/oidcauthorizer/oidc-authorizer"
)

type fakeVerifier struct{ calls int }

func (f *fakeVerifier) Verify(_ context.Context, authorization string) (*authorizer.Identity, error) {
	f.calls++
	if authorization != "Bearer good" {
		return nil, errors.New("denied")
	}
	return &authorizer.Identity{PrincipalID: "user-123"}, nil
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		authorization string
		options       []Option
		wantStatus    int
		wantBody      string
		wantCalls     int
	}{
		{
			name:          "valid token",
			path:          "/protected",
			authorization: "Bearer good",
			wantStatus:    http.StatusOK,
			wantBody:      `{"principal":"user-123"}`,
			wantCalls:     1,
		},
		{
			name:          "invalid token",
			path:          "/protected",
			authorization: "Bearer bad",
			wantStatus:    http.StatusForbidden,
			wantBody:      `{"message":"Forbidden"}`,
			wantCalls:     1,
		},
		{
			name:       "missing header",
			path:       "/protected",
			wantStatus: http.StatusForbidden,
			wantBody:   `{"message":"Forbidden"}`,
			wantCalls:  1,
		},
		{
			name: "skipped",
			path: "/healthz",
			options: []Option{WithSkipper(func(c echo.Context) bool {
				return c.Request().URL.Path == "/healthz"
			})},
			wantStatus: http.StatusOK,
			wantBody:   `{"principal":""}`,
		},
		{
			name:          "custom error handler",
			path:          "/protected",
			authorization: "Bearer bad",
			options: []Option{WithErrorHandler(func(c echo.Context, err error) error {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
			})},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"denied"}`,
			wantCalls:  1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := &fakeVerifier{}
			e := echo.New()
			e.Use(New(v, tc.options...))
			handler := func(c echo.Context) error {
				identity, _ := GetIdentity(c, "")
				principal := ""
				if identity != nil {
					principal = identity.PrincipalID
					if fromCtx, ok := authorizer.IdentityFromContext(c.Request().Context()); !ok || fromCtx != identity {
						return c.NoContent(http.StatusInternalServerError)
					}
				}
				return c.JSON(http.StatusOK, map[string]string{"principal": principal})
			}
			e.GET("/protected", handler)
			e.GET("/healthz", handler)

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.authorization != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.authorization)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.JSONEq(t, tc.wantBody, rec.Body.String())
			assert.Equal(t, tc.wantCalls, v.calls)
		})
	}
}

func TestGetIdentity(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := GetIdentity(c, "")
	assert.False(t, ok)

	c.Set("custom", "wrong type")
	_, ok = GetIdentity(c, "custom")
	assert.False(t, ok)

	want := &authorizer.Identity{PrincipalID: "x"}
	c.Set("custom", want)
	got, ok := GetIdentity(c, "custom")
	assert.True(t, ok)
	assert.Same(t, want, got)
}

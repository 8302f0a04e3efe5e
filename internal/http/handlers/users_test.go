package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nkoudou/brocante/internal/domain/user"
	"github.com/nkoudou/brocante/internal/http/handlers"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake implementation of the handlers.Credentials interface

type fakeCredentials struct {
	signupFn func(ctx context.Context, req user.SignupRequest) (user.User, error)
	loginFn  func(ctx context.Context, email, password string) (user.User, error)
}

func (f *fakeCredentials) Signup(ctx context.Context, req user.SignupRequest) (user.User, error) {
	if f.signupFn != nil {
		return f.signupFn(ctx, req)
	}

	return user.User{}, nil
}

func (f *fakeCredentials) Login(ctx context.Context, email, password string) (user.User, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, email, password)
	}

	return user.User{}, nil
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func TestSignUpHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setUp          func(*fakeCredentials)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{
				"email": "jean@example.com",
				"username": "jean",
				"password": "s3cret"
			}`,
			setUp: func(f *fakeCredentials) {
				f.signupFn = func(ctx context.Context, req user.SignupRequest) (user.User, error) {
					return user.User{
						ID:      "u-1",
						Email:   req.Email,
						Token:   "tok-1",
						Account: user.Account{Username: req.Username},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "validation_error",
			body:           `{"email": "not-an-email", "username": "jean", "password": "x"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_password",
			body:           `{"email": "jean@example.com", "username": "jean"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "email_taken",
			body: `{"email": "jean@example.com", "username": "jean", "password": "s3cret"}`,
			setUp: func(f *fakeCredentials) {
				f.signupFn = func(ctx context.Context, req user.SignupRequest) (user.User, error) {
					return user.User{}, user.ErrEmailTaken
				}
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "store_error",
			body: `{"email": "jean@example.com", "username": "jean", "password": "s3cret"}`,
			setUp: func(f *fakeCredentials) {
				f.signupFn = func(ctx context.Context, req user.SignupRequest) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCredentials{}

			if tt.setUp != nil {
				tt.setUp(fake)
			}

			h := handlers.NewUsersHandler(fake)

			r := setupRouter(http.MethodPost, "/user/signup", h.SignUp)

			req := httptest.NewRequest(http.MethodPost, "/user/signup", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// signup responses must expose the token but never the hash or salt

func TestSignUpResponseShape(t *testing.T) {
	fake := &fakeCredentials{
		signupFn: func(ctx context.Context, req user.SignupRequest) (user.User, error) {
			return user.User{
				ID:      "u-1",
				Email:   req.Email,
				Token:   "tok-1",
				Hash:    "super-secret-hash",
				Salt:    "super-secret-salt",
				Account: user.Account{Username: req.Username},
			}, nil
		},
	}

	h := handlers.NewUsersHandler(fake)
	r := setupRouter(http.MethodPost, "/user/signup", h.SignUp)

	body := `{"email": "jean@example.com", "username": "jean", "password": "s3cret"}`
	req := httptest.NewRequest(http.MethodPost, "/user/signup", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var got map[string]json.RawMessage

	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}

	if _, ok := got["token"]; !ok {
		t.Errorf("expected token in response, got %s", w.Body.String())
	}

	for _, forbidden := range []string{"hash", "salt"} {
		if _, ok := got[forbidden]; ok {
			t.Errorf("response leaked %q: %s", forbidden, w.Body.String())
		}
	}
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setUp          func(*fakeCredentials)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"email": "jean@example.com", "password": "s3cret"}`,
			setUp: func(f *fakeCredentials) {
				f.loginFn = func(ctx context.Context, email, password string) (user.User, error) {
					return user.User{ID: "u-1", Email: email, Token: "tok-1"}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "unknown_email",
			body: `{"email": "ghost@example.com", "password": "s3cret"}`,
			setUp: func(f *fakeCredentials) {
				f.loginFn = func(ctx context.Context, email, password string) (user.User, error) {
					return user.User{}, user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "wrong_password",
			body: `{"email": "jean@example.com", "password": "nope"}`,
			setUp: func(f *fakeCredentials) {
				f.loginFn = func(ctx context.Context, email, password string) (user.User, error) {
					return user.User{}, user.ErrInvalidCredentials
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "validation_error",
			body:           `{"email": "jean@example.com"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCredentials{}

			if tt.setUp != nil {
				tt.setUp(fake)
			}

			h := handlers.NewUsersHandler(fake)

			r := setupRouter(http.MethodPost, "/user/login", h.Login)

			req := httptest.NewRequest(http.MethodPost, "/user/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/springshield/auth-service/internal/core/domain"
	"github.com/springshield/auth-service/internal/core/ports"
)

type stubAuthService struct {
	registerFn     func(ctx context.Context, in ports.RegisterInput) (string, error)
	authenticateFn func(ctx context.Context, username, password string) (string, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Authenticate(ctx context.Context, username, password string) (string, error) {
	return s.authenticateFn(ctx, username, password)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func post(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const johnDoe = `{"email":"john@example.com","username":"john_doe","password":"password123","role":"USER"}`

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (string, error) {
			want := ports.RegisterInput{Email: "john@example.com", Username: "john_doe", Password: "password123", Role: "USER"}
			if in != want {
				t.Fatalf("unexpected input: %+v", in)
			}
			return domain.MsgUserRegistered, nil
		},
	}

	c, rec := post(e, "/api/users/v1/register", johnDoe)
	if err := NewAuthHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec.Body.String() != "User registered successfully" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMETextPlain) {
		t.Errorf("expected text/plain, got %q", ct)
	}
}

func TestAuthHandler_Register_WorkflowErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body string
	}{
		{"user exists", domain.ErrUserAlreadyExists, "User already exists"},
		{"role not found", domain.ErrRoleNotFound, "Role not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubAuthService{
				registerFn: func(context.Context, ports.RegisterInput) (string, error) {
					return "", tt.err
				},
			}

			c, rec := post(e, "/api/users/v1/register", johnDoe)
			if err := NewAuthHandler(stub).Register(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if rec.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, rec.Body.String())
			}
		})
	}
}

func TestAuthHandler_Register_UnexpectedErrorIsReturned(t *testing.T) {
	e := newTestEcho()
	boom := errors.New("connection refused")
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (string, error) {
			return "", boom
		},
	}

	c, rec := post(e, "/api/users/v1/register", johnDoe)
	err := NewAuthHandler(stub).Register(c)
	if !errors.Is(err, boom) {
		t.Fatalf("expected error to reach the error handler, got %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("handler should not write a body, got %q", rec.Body.String())
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains string
	}{
		{"not json", "not-json", "invalid payload"},
		{"missing email", `{"username":"john_doe","password":"p","role":"USER"}`, "email is required"},
		{"bad email", `{"email":"nope","username":"john_doe","password":"p","role":"USER"}`, "email must be a valid email"},
		{"missing role", `{"email":"john@example.com","username":"john_doe","password":"p"}`, "role is required"},
		{"password over 72 bytes", `{"email":"john@example.com","username":"john_doe","password":"` + strings.Repeat("é", 40) + `","role":"USER"}`, "password must be at most 72 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubAuthService{
				registerFn: func(context.Context, ports.RegisterInput) (string, error) {
					t.Fatal("service should not be called")
					return "", nil
				},
			}

			c, rec := post(e, "/api/users/v1/register", tt.body)
			if err := NewAuthHandler(stub).Register(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("expected body to contain %q, got %q", tt.contains, rec.Body.String())
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		authenticateFn: func(ctx context.Context, username, password string) (string, error) {
			if username != "testuser" || password != "password" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return "header.payload.signature", nil
		},
	}

	c, rec := post(e, "/api/users/v1/login", `{"username":"testuser","password":"password"}`)
	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "header.payload.signature" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		authenticateFn: func(context.Context, string, string) (string, error) {
			return "", domain.ErrInvalidCredentials
		},
	}

	c, rec := post(e, "/api/users/v1/login", `{"username":"testuser","password":"wrongPassword"}`)
	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Body.String() != "Invalid credentials" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		authenticateFn: func(context.Context, string, string) (string, error) {
			t.Fatal("service should not be called")
			return "", nil
		},
	}

	c, rec := post(e, "/api/users/v1/login", `{"username":"testuser"}`)
	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec.Body.String() != "password is required" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestAuthHandler_Login_UnexpectedErrorIsReturned(t *testing.T) {
	e := newTestEcho()
	boom := errors.New("store down")
	stub := &stubAuthService{
		authenticateFn: func(context.Context, string, string) (string, error) {
			return "", boom
		},
	}

	c, _ := post(e, "/api/users/v1/login", `{"username":"testuser","password":"password"}`)
	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

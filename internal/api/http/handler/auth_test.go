package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/service"
	"github.com/yepcord/server-sub002/internal/testutil"
)

func TestAuth_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "success",
			wantStatus: http.StatusOK,
			wantBody:   `{"token":"MQ.MQ.sig"}`,
		},
		{
			name:       "email taken",
			err:        model.InvalidForm("email", model.CodeEmailAlreadyRegistered, "Email address already registered."),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"code":50035,"message":"Invalid Form Body","errors":{"email":{"_errors":[{"code":"EMAIL_ALREADY_REGISTERED","message":"Email address already registered."}]}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newMockAuthService(t)
			req := service.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password1", DateOfBirth: "2000-01-02"}
			token := ""
			if tt.err == nil {
				token = "MQ.MQ.sig"
			}
			svc.On("Register", mock.Anything, req).Return(token, tt.err)

			h := NewAuth(svc, testCM, testutil.MakeNoopLogger())
			body := `{"username":"alice","email":"alice@example.com","password":"password1","date_of_birth":"2000-01-02"}`
			rec := serve(h.Register, newRequest(http.MethodPost, "/auth/register", body, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestAuth_LoginMFA(t *testing.T) {
	t.Parallel()

	svc := newMockAuthService(t)
	sms := false
	svc.On("Login", mock.Anything, service.LoginRequest{Login: "alice@example.com", Password: "password1"}).
		Return(service.LoginResult{MFA: true, Ticket: "ticket", SMS: &sms}, nil)
	svc.On("VerifyMFA", mock.Anything, "ticket", "123456").
		Return(service.LoginResult{Token: "tok", UserID: 7}, nil)

	h := NewAuth(svc, testCM, testutil.MakeNoopLogger())

	rec := serve(h.Login, newRequest(http.MethodPost, "/auth/login", `{"login":"alice@example.com","password":"password1"}`, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mfa":true,"ticket":"ticket","sms":false}`, rec.Body.String())

	rec = serve(h.VerifyMFA, newRequest(http.MethodPost, "/auth/mfa/totp", `{"ticket":"ticket","code":"123456"}`, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"tok","user_id":"7"}`, rec.Body.String())
}

func TestAuth_Logout(t *testing.T) {
	t.Parallel()

	svc := newMockAuthService(t)
	svc.On("Logout", mock.Anything, testSession).Return(nil)

	h := NewAuth(svc, testCM, testutil.MakeNoopLogger())
	rec := serve(h.Logout, authed(newRequest(http.MethodPost, "/auth/logout", "", nil)))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

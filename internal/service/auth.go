package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/snowflake"
	"github.com/yepcord/server-sub002/internal/token"
)

const (
	birthLayout      = "2006-01-02"
	registerAttempts = 2
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DateOfBirth string `json:"date_of_birth"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResult is either a token or an MFA challenge.
type LoginResult struct {
	Token  string `json:"token,omitempty"`
	UserID int64  `json:"user_id,string,omitempty"`
	MFA    bool   `json:"mfa,omitempty"`
	Ticket string `json:"ticket,omitempty"`
	SMS    *bool  `json:"sms,omitempty"`
}

// Auth registers users and exchanges credentials for session tokens.
type Auth struct {
	users     model.UserStore
	tokens    *TokenService
	tickets   *token.Tickets
	masterKey []byte
	ids       *snowflake.Generator
	logger    *logger.Logger
	now       func() time.Time
}

func NewAuth(
	users model.UserStore,
	tokens *TokenService,
	tickets *token.Tickets,
	masterKey []byte,
	ids *snowflake.Generator,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		users:     users,
		tokens:    tokens,
		tickets:   tickets,
		masterKey: masterKey,
		ids:       ids,
		logger:    logger,
		now:       time.Now,
	}
}

func (r RegisterRequest) validate() (time.Time, error) {
	var fe model.FormErrors

	if n := utf8.RuneCountInString(strings.TrimSpace(r.Username)); n < 2 || n > 32 {
		fe.Add("username", model.CodeBaseTypeBadLength, "Must be between 2 and 32 in length.")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		fe.Add("email", "EMAIL_TYPE_INVALID_EMAIL", "Not a well formed email address.")
	}
	if n := utf8.RuneCountInString(r.Password); n < 8 || n > 72 {
		fe.Add("password", model.CodeBaseTypeBadLength, "Must be between 8 and 72 in length.")
	}
	birth, err := time.Parse(birthLayout, r.DateOfBirth)
	if err != nil {
		fe.Add("date_of_birth", model.CodeDateTimeTypeParse, "Could not parse "+r.DateOfBirth+". Should be ISO8601.")
	}
	return birth, fe.Err()
}

// Register creates an account with a random free discriminator and returns
// a token for its first session.
func (a *Auth) Register(ctx context.Context, req RegisterRequest) (string, error) {
	a.logger.Debug("Auth service: registering user",
		"email", req.Email)

	birth, err := req.validate()
	if err != nil {
		return "", err
	}
	req.Username = strings.TrimSpace(req.Username)

	_, err = a.users.GetByEmail(ctx, req.Email)
	if err == nil {
		a.logger.Info("Auth service: email already registered",
			"email", req.Email)
		return "", model.InvalidForm("email", model.CodeEmailAlreadyRegistered, "Email address already registered.")
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", req.Email,
			"error", err.Error())
		return "", fmt.Errorf("failed to get user by email: %w", err)
	}

	hash, key, err := a.credentials(req.Password)
	if err != nil {
		return "", err
	}

	user, disc, err := a.create(ctx, req, birth, hash, key)
	if err != nil {
		return "", err
	}

	tok, err := a.tokens.Issue(ctx, user)
	if err != nil {
		return "", err
	}

	a.logger.Info("Auth service: user registered",
		"user_id", user.ID,
		"username", req.Username,
		"discriminator", disc)
	return tok, nil
}

// create inserts the account under a random free discriminator. A
// discriminator taken by a concurrent registration is picked again, up to
// registerAttempts times.
func (a *Auth) create(ctx context.Context, req RegisterRequest, birth time.Time, hash, key string) (model.User, int, error) {
	userID := a.ids.Next()
	for attempt := 1; ; attempt++ {
		disc, ok, err := a.users.RandomFreeDiscriminator(ctx, req.Username)
		if err != nil {
			return model.User{}, 0, fmt.Errorf("failed to pick discriminator: %w", err)
		}
		if !ok {
			return model.User{}, 0, usernameExhausted()
		}

		user, err := a.users.Create(ctx,
			model.User{ID: userID, Email: req.Email, Password: hash, Key: key},
			model.UserData{UserID: userID, Birth: birth, Username: req.Username, Discriminator: disc},
			model.DefaultUserSettings(userID),
		)
		switch {
		case err == nil:
			return user, disc, nil
		case errors.Is(err, model.ErrEmailTaken):
			a.logger.Info("Auth service: email registered concurrently",
				"email", req.Email)
			return model.User{}, 0, model.InvalidForm("email", model.CodeEmailAlreadyRegistered, "Email address already registered.")
		case errors.Is(err, model.ErrAlreadyExists):
			a.logger.Info("Auth service: discriminator taken concurrently",
				"username", req.Username,
				"discriminator", disc,
				"attempt", attempt)
			if attempt >= registerAttempts {
				return model.User{}, 0, usernameExhausted()
			}
		default:
			a.logger.Error("Auth service: failed to create user",
				"email", req.Email,
				"error", err.Error())
			return model.User{}, 0, fmt.Errorf("failed to create user: %w", err)
		}
	}
}

func usernameExhausted() error {
	return model.InvalidForm("username", model.CodeUsernameTooManyUsers, "Too many users have this username, please try another.")
}

// Login checks credentials. When the account has MFA enabled the session is
// minted but only activated by VerifyMFA with the returned ticket.
func (a *Auth) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	user, err := a.users.GetByEmail(ctx, req.Login)
	if errors.Is(err, model.ErrNotFound) {
		return LoginResult{}, invalidLogin()
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if user.Deleted || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		a.logger.Info("Auth service: login rejected",
			"user_id", user.ID)
		return LoginResult{}, invalidLogin()
	}

	settings, err := a.users.GetSettings(ctx, user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to get settings: %w", err)
	}

	session, err := a.tokens.NewSession(user)
	if err != nil {
		return LoginResult{}, err
	}

	if settings.MFAEnabled() {
		ticket, err := a.tickets.Issue(user.ID, session.ID, session.Signature)
		if err != nil {
			return LoginResult{}, fmt.Errorf("failed to issue mfa ticket: %w", err)
		}
		sms := false
		return LoginResult{MFA: true, Ticket: ticket, SMS: &sms}, nil
	}

	tok, err := a.tokens.Activate(ctx, session)
	if err != nil {
		return LoginResult{}, err
	}
	a.logger.Info("Auth service: user logged in",
		"user_id", user.ID,
		"session_id", session.ID)
	return LoginResult{Token: tok, UserID: user.ID}, nil
}

// VerifyMFA completes a login started with an MFA ticket.
func (a *Auth) VerifyMFA(ctx context.Context, ticket, code string) (LoginResult, error) {
	claims, err := a.tickets.Parse(ticket)
	if err != nil {
		return LoginResult{}, model.InvalidForm("ticket", model.CodeBaseTypeRequired, "Invalid ticket.")
	}

	settings, err := a.users.GetSettings(ctx, claims.UserID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.MFAEnabled() || !token.VerifyTOTP(*settings.MFASecret, code, a.now()) {
		return LoginResult{}, model.ErrInvalidMFACode
	}

	tok, err := a.tokens.Activate(ctx, model.Session{
		ID:        claims.SessionID,
		UserID:    claims.UserID,
		Signature: claims.Signature,
	})
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: tok, UserID: claims.UserID}, nil
}

// Logout revokes the calling session.
func (a *Auth) Logout(ctx context.Context, session model.Session) error {
	if err := a.tokens.Revoke(ctx, session); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	a.logger.Info("Auth service: user logged out",
		"user_id", session.UserID,
		"session_id", session.ID)
	return nil
}

// ChangePassword replaces the password and session key, which invalidates
// every existing session, and returns a token for a fresh one.
func (a *Auth) ChangePassword(ctx context.Context, userID int64, current, next string) (string, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return "", model.InvalidForm("password", model.CodePasswordDoesNotMatch, "Passwords does not match.")
	}
	if n := utf8.RuneCountInString(next); n < 8 || n > 72 {
		return "", model.InvalidForm("new_password", model.CodeBaseTypeBadLength, "Must be between 8 and 72 in length.")
	}

	hash, key, err := a.credentials(next)
	if err != nil {
		return "", err
	}
	if err := a.users.UpdatePassword(ctx, userID, hash, key); err != nil {
		return "", fmt.Errorf("failed to update password: %w", err)
	}
	if err := a.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return "", fmt.Errorf("failed to revoke sessions: %w", err)
	}

	user.Password, user.Key = hash, key
	a.logger.Info("Auth service: password changed",
		"user_id", userID)
	return a.tokens.Issue(ctx, user)
}

// VerifyPassword checks password against the stored hash of userID.
func (a *Auth) VerifyPassword(ctx context.Context, userID int64, password string) error {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return model.ErrPasswordMismatch
	}
	return nil
}

func (a *Auth) credentials(password string) (hash, key string, err error) {
	raw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash password: %w", err)
	}
	key, err = token.NewSessionKey(a.masterKey, string(raw))
	if err != nil {
		return "", "", fmt.Errorf("failed to derive session key: %w", err)
	}
	return string(raw), key, nil
}

func invalidLogin() error {
	var fe model.FormErrors
	fe.Add("login", model.CodeInvalidLogin, "Login or password is invalid.")
	fe.Add("password", model.CodeInvalidLogin, "Login or password is invalid.")
	return fe.Err()
}

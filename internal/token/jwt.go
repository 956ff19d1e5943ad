package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yepcord/server-sub002/internal/model"
)

// TicketClaims is the payload of an MFA login ticket: the user, the purpose
// and the session that will be activated once the second factor passes.
type TicketClaims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"uid,string"`
	Kind      string `json:"kind"`
	SessionID int64  `json:"sid,string"`
	Signature string `json:"sig"`
}

// Tickets issues and parses MFA tickets signed with HMAC.
type Tickets struct {
	secretKey []byte
}

// NewTickets creates a ticket manager keyed with secret.
func NewTickets(secret []byte) *Tickets {
	return &Tickets{secretKey: secret}
}

const (
	ticketTTL   = 5 * time.Minute
	ticketLogin = "login"
)

// Issue creates a login ticket for a session awaiting a second factor.
func (t *Tickets) Issue(userID, sessionID int64, signature string) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, TicketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ticketTTL)),
		},
		UserID:    userID,
		Kind:      ticketLogin,
		SessionID: sessionID,
		Signature: signature,
	})

	s, err := tok.SignedString(t.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign mfa ticket: %w", err)
	}
	return s, nil
}

// Parse validates a login ticket and returns its claims.
func (t *Tickets) Parse(ticket string) (TicketClaims, error) {
	claims := TicketClaims{}
	tok, err := jwt.ParseWithClaims(ticket, &claims, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", tk.Header["alg"])
		}
		return t.secretKey, nil
	})
	if err != nil {
		return TicketClaims{}, fmt.Errorf("%w: %w", model.ErrInvalidTicket, err)
	}
	if !tok.Valid || claims.Kind != ticketLogin {
		return TicketClaims{}, model.ErrInvalidTicket
	}
	return claims, nil
}

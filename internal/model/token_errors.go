package model

import "errors"

var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidTicket    = errors.New("invalid mfa ticket")
)

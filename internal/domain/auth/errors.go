package auth

import "errors"

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrTokenExpired  = errors.New("token has expired")
	ErrAccessDenied  = errors.New("insufficient role for this operation")
	ErrMissingClaims = errors.New("token is missing required claims")
)

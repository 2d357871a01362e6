package sessionsvc

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims decodes the current bearer token as a JWT without verifying it.
// The token is opaque by contract; when it happens to be a JWT its claims are
// useful for display (expiry on the home view, whoami). The backend remains
// the only party that validates tokens. Returns false when there is no token
// or it is not a JWT.
func (s *SessionService) Claims() (jwt.MapClaims, bool) {
	token := s.Current().Token
	if token == "" {
		return nil, false
	}

	claims := jwt.MapClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}

	return claims, true
}

// TokenExpiry returns the exp claim of the current token, if decodable.
func (s *SessionService) TokenExpiry() (time.Time, bool) {
	claims, ok := s.Claims()
	if !ok {
		return time.Time{}, false
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}, false
	}

	return expiry.Time, true
}

package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionToken represents a signed JWT session credential along with its
// expiry. The Token field contains the JWT string. Sessions are carried in
// the Authorization header or the jwt cookie on protected endpoints.
type SessionToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// SessionClaims is what a verified session token proves: which user it was
// issued to and when.
type SessionClaims struct {
	UserID   string    // hex document id of the account
	IssuedAt time.Time // token issue time, compared against password changes
}

// NewSessionToken builds and signs an HS256 JWT for a user. It takes the
// signing secret, the user's document id and a TTL in minutes. The JWT
// carries the standard sub, exp and iat claims.
func NewSessionToken(secret, userID string, ttlMin int) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies signature and expiry and extracts the claims.
// Errors from the jwt library pass through unchanged so the error model can
// distinguish expired from malformed tokens.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return SessionClaims{}, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return SessionClaims{}, jwt.ErrTokenInvalidClaims
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return SessionClaims{}, errors.New("session token missing subject")
	}
	var issued time.Time
	if iat, ok := claims["iat"].(float64); ok {
		issued = time.Unix(int64(iat), 0).UTC()
	}
	return SessionClaims{UserID: sub, IssuedAt: issued}, nil
}

// Package identity turns the identity provider's session tokens into a
// Caller and keeps unauthenticated requests away from protected routes.
package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tiered-events/app/internal/apperrors"
	"github.com/tiered-events/app/internal/tier"
)

// SessionCookie is the cookie the provider's frontend SDK sets.
const SessionCookie = "__session"

// sessionClaims is the provider's token payload.
type sessionClaims struct {
	jwt.RegisteredClaims
	PublicMetadata struct {
		Tier string `json:"tier,omitempty"`
	} `json:"public_metadata"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Verifier checks HS256 session tokens.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewVerifier builds a Verifier. Issuer and audience are only enforced when
// non-empty.
func NewVerifier(secret, issuer, audience string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("identity: signing secret is required")
	}
	return &Verifier{
		secret:   []byte(secret),
		issuer:   strings.TrimSpace(issuer),
		audience: strings.TrimSpace(audience),
		now:      time.Now,
	}, nil
}

// Verify validates token and returns the caller it names. A missing or
// unknown tier claim resolves to free.
func (v *Verifier) Verify(token string) (Caller, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Caller{}, apperrors.ErrAuthenticationRequired
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Caller{}, &apperrors.Error{
			Code:    apperrors.CodeAuthenticationRequired,
			Message: apperrors.ErrAuthenticationRequired.Message,
			Cause:   err,
		}
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Caller{}, &apperrors.Error{
			Code:    apperrors.CodeAuthenticationRequired,
			Message: apperrors.ErrAuthenticationRequired.Message,
			Cause:   errors.New("token has no subject"),
		}
	}

	return Caller{
		UserID:    claims.Subject,
		Level:     tier.Parse(claims.PublicMetadata.Tier),
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Email:     claims.Email,
	}, nil
}

// Issue signs a token for c that expires after ttl. The provider issues
// real sessions; this is used for local development and tests.
func (v *Verifier) Issue(c Caller, ttl time.Duration) (string, error) {
	now := v.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	claims.PublicMetadata.Tier = string(c.Level)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// TokenFromRequest reads a bearer token, falling back to the session
// cookie.
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

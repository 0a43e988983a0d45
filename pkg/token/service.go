package token

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token expiry durations. Session tokens are only issued after a
// successful OTP verification; activation and reset tokens carry no role.
const (
	DefaultSessionTokenExpiry    = 7 * 24 * time.Hour
	DefaultActivationTokenExpiry = 24 * time.Hour
	DefaultResetTokenExpiry      = 15 * time.Minute
)

// ErrInvalidOrExpiredToken is returned when a token fails signature
// verification or its embedded expiry has passed.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

// Claims is the JWT claim set used by all tokens issued by this service.
// The subject holds the account id; the role claim is only present on
// session tokens.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Token is a verified token. It is either a SessionToken carrying the
// account's role, or a BareToken (activation/reset) carrying only the id.
// Consumers that need a role for a BareToken must look it up themselves.
type Token interface {
	AccountID() uuid.UUID
}

// SessionToken is a verified token with an embedded role
type SessionToken struct {
	ID   uuid.UUID
	Role string
}

// AccountID implements Token
func (t SessionToken) AccountID() uuid.UUID { return t.ID }

// BareToken is a verified token without a role claim
type BareToken struct {
	ID uuid.UUID
}

// AccountID implements Token
func (t BareToken) AccountID() uuid.UUID { return t.ID }

// Service issues and verifies the signed tokens used by the credential
// workflows: session, activation and password reset.
type Service struct {
	secret   string
	issuer   string
	audience string

	sessionExpiry    time.Duration
	activationExpiry time.Duration
	resetExpiry      time.Duration

	now func() time.Time
}

// Option is a function that configures a Service
type Option func(*Service)

// WithSessionExpiry sets the session token expiry duration
func WithSessionExpiry(expiry time.Duration) Option {
	return func(s *Service) {
		s.sessionExpiry = expiry
	}
}

// WithActivationExpiry sets the activation token expiry duration
func WithActivationExpiry(expiry time.Duration) Option {
	return func(s *Service) {
		s.activationExpiry = expiry
	}
}

// WithResetExpiry sets the reset token expiry duration
func WithResetExpiry(expiry time.Duration) Option {
	return func(s *Service) {
		s.resetExpiry = expiry
	}
}

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new token Service signing with the given secret
func NewService(secret, issuer, audience string, opts ...Option) *Service {
	s := &Service{
		secret:           secret,
		issuer:           issuer,
		audience:         audience,
		sessionExpiry:    DefaultSessionTokenExpiry,
		activationExpiry: DefaultActivationTokenExpiry,
		resetExpiry:      DefaultResetTokenExpiry,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// IssueSessionToken creates a session token embedding the account id and role
func (s *Service) IssueSessionToken(accountID uuid.UUID, role string) (string, time.Time, error) {
	return s.sign(accountID, role, s.sessionExpiry)
}

// IssueActivationToken creates an activation token embedding only the account id
func (s *Service) IssueActivationToken(accountID uuid.UUID) (string, time.Time, error) {
	return s.sign(accountID, "", s.activationExpiry)
}

// IssueResetToken creates a password reset token embedding only the account id.
// The returned expiry is persisted alongside the token value so the token can
// be invalidated after a single use.
func (s *Service) IssueResetToken(accountID uuid.UUID) (string, time.Time, error) {
	return s.sign(accountID, "", s.resetExpiry)
}

func (s *Service) sign(accountID uuid.UUID, role string, expiry time.Duration) (string, time.Time, error) {
	now := s.now().UTC()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			Issuer:    s.issuer,
			Subject:   accountID.String(),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{s.audience},
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.secret))
	if err != nil {
		slog.Error("Failed to sign JWT claims", "err", err)
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify parses and validates a token string. It returns a SessionToken when
// the role claim is present, a BareToken otherwise, and
// ErrInvalidOrExpiredToken on any signature or expiry failure.
func (s *Service) Verify(tokenStr string) (Token, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		slog.Warn("Failed to parse token", "err", err)
		return nil, ErrInvalidOrExpiredToken
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		slog.Warn("Token subject is not a valid account id", "subject", claims.Subject)
		return nil, ErrInvalidOrExpiredToken
	}

	if claims.Role != "" {
		return SessionToken{ID: accountID, Role: claims.Role}, nil
	}
	return BareToken{ID: accountID}, nil
}

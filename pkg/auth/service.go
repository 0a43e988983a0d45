package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hirewire/identity/pkg/account"
	"github.com/hirewire/identity/pkg/notification"
	"github.com/hirewire/identity/pkg/otp"
	"github.com/hirewire/identity/pkg/password"
	"github.com/hirewire/identity/pkg/token"
)

// Notifier dispatches notices; satisfied by *notification.NotificationManager
type Notifier interface {
	Send(noticeType notification.NoticeType, data notification.NotificationData) error
}

// InterestsChecker reports whether an account has saved interest selections.
// Satisfied by *interests.Service.
type InterestsChecker interface {
	HasSelections(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// Service orchestrates the credential lifecycle: registration, activation,
// password login, one-time code verification, and password reset. All
// store, hash and crypto failures are terminal; nothing is retried.
type Service struct {
	accounts    account.Repository
	codes       *otp.Service
	tokens      *token.Service
	resetTokens ResetTokenRepository
	hasher      password.PasswordHasher
	notifier    Notifier

	interests InterestsChecker
	baseURL   string
	now       func() time.Time
}

// Option is a function that configures a Service
type Option func(*Service)

// WithInterests sets the collaborator consulted when reporting whether an
// authenticated account has saved interest selections
func WithInterests(checker InterestsChecker) Option {
	return func(s *Service) {
		s.interests = checker
	}
}

// WithBaseURL sets the public base URL used to build activation and reset links
func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new auth Service
func NewService(
	accounts account.Repository,
	codes *otp.Service,
	tokens *token.Service,
	resetTokens ResetTokenRepository,
	hasher password.PasswordHasher,
	notifier Notifier,
	opts ...Option,
) *Service {
	s := &Service{
		accounts:    accounts,
		codes:       codes,
		tokens:      tokens,
		resetTokens: resetTokens,
		hasher:      hasher,
		notifier:    notifier,
		baseURL:     "http://localhost:4000",
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RegisterParams represents the input to Register
type RegisterParams struct {
	Fullname string
	Email    string
	Phone    string
	Password string
	Role     account.Role
}

// Register creates an unverified account and emails an activation link. The
// email is best-effort: a dispatch failure is logged but the registration
// still succeeds, since the activation link can be re-requested.
func (s *Service) Register(ctx context.Context, params RegisterParams) (account.Account, error) {
	params.Fullname = strings.TrimSpace(params.Fullname)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Phone = strings.TrimSpace(params.Phone)

	if params.Fullname == "" {
		return account.Account{}, fmt.Errorf("%w: fullname is required", ErrValidation)
	}
	if params.Email == "" {
		return account.Account{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if params.Password == "" {
		return account.Account{}, fmt.Errorf("%w: password is required", ErrValidation)
	}

	role := params.Role
	if role == "" {
		role = account.RoleUser
	}
	// Admin accounts are provisioned out of band, never self-registered
	if role != account.RoleUser && role != account.RoleEmployer {
		return account.Account{}, fmt.Errorf("%w: invalid role %q", ErrValidation, params.Role)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		slog.Error("Failed to hash password", "err", err)
		return account.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	acct, err := s.accounts.Create(ctx, account.CreateParams{
		Fullname:     params.Fullname,
		Email:        params.Email,
		Phone:        params.Phone,
		PhoneValid:   params.Phone != "",
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, account.ErrDuplicateIdentifier) {
			return account.Account{}, account.ErrDuplicateIdentifier
		}
		slog.Error("Failed to create account", "email", params.Email, "err", err)
		return account.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	if err := s.sendActivationEmail(acct); err != nil {
		slog.Error("Failed to send activation email", "account_id", acct.ID, "err", err)
	}

	slog.Info("Registered account", "account_id", acct.ID, "role", acct.Role)
	return acct, nil
}

// Activate marks the account embedded in the activation token as verified.
// Activating an already-verified account is a no-op success.
func (s *Service) Activate(ctx context.Context, tokenStr string) error {
	verified, err := s.tokens.Verify(tokenStr)
	if err != nil {
		return token.ErrInvalidOrExpiredToken
	}

	if err := s.accounts.SetVerified(ctx, verified.AccountID()); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return token.ErrInvalidOrExpiredToken
		}
		slog.Error("Failed to mark account verified", "account_id", verified.AccountID(), "err", err)
		return fmt.Errorf("failed to mark account verified: %w", err)
	}

	slog.Info("Activated account", "account_id", verified.AccountID())
	return nil
}

// Login checks the identifier and password, then issues a fresh one-time
// code and emails it. Any previously issued code is invalidated. The email
// dispatch is synchronous and a failure fails the login, because the flow
// cannot complete without the code. No session token is issued here.
func (s *Service) Login(ctx context.Context, identifier, pass string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || pass == "" {
		return fmt.Errorf("%w: identifier and password are required", ErrValidation)
	}

	acct, err := s.accounts.FindByEmailOrPhone(ctx, identifier)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.ErrNotFound
		}
		slog.Error("Failed to look up account", "err", err)
		return fmt.Errorf("failed to look up account: %w", err)
	}

	match, err := s.hasher.Verify(pass, acct.PasswordHash)
	if err != nil {
		slog.Error("Failed to verify password", "account_id", acct.ID, "err", err)
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		slog.Warn("Password mismatch on login", "account_id", acct.ID)
		return ErrInvalidPassword
	}

	if !acct.IsVerified {
		return ErrNotActivated
	}

	return s.issueAndEmailCode(ctx, acct)
}

// VerifyOtpResult is the outcome of a successful OTP verification
type VerifyOtpResult struct {
	Token        string
	ExpiresAt    time.Time
	Account      account.Summary
	HasInterests bool
}

// VerifyOtp checks the one-time code for the identified account and, on
// success, issues the session token. Verification consumes the code. It
// does not change the account's verified flag: activation is the only path
// there, and unverified accounts are refused outright so a code obtained
// through a resend can never turn into a session.
func (s *Service) VerifyOtp(ctx context.Context, identifier, code string) (VerifyOtpResult, error) {
	acct, err := s.accounts.FindByEmailOrPhone(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return VerifyOtpResult{}, account.ErrNotFound
		}
		slog.Error("Failed to look up account", "err", err)
		return VerifyOtpResult{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if !acct.IsVerified {
		slog.Warn("OTP verification refused for unactivated account", "account_id", acct.ID)
		return VerifyOtpResult{}, ErrNotActivated
	}

	if err := s.codes.Verify(ctx, acct.ID, code); err != nil {
		return VerifyOtpResult{}, err
	}

	signed, expiresAt, err := s.tokens.IssueSessionToken(acct.ID, string(acct.Role))
	if err != nil {
		return VerifyOtpResult{}, fmt.Errorf("failed to issue session token: %w", err)
	}

	hasInterests := false
	if s.interests != nil {
		hasInterests, err = s.interests.HasSelections(ctx, acct.ID)
		if err != nil {
			slog.Error("Failed to check interest selections", "account_id", acct.ID, "err", err)
			return VerifyOtpResult{}, fmt.Errorf("failed to check interest selections: %w", err)
		}
	}

	slog.Info("Authenticated account", "account_id", acct.ID)
	return VerifyOtpResult{
		Token:        signed,
		ExpiresAt:    expiresAt,
		Account:      account.Summarize(acct),
		HasInterests: hasInterests,
	}, nil
}

// ResendOtp issues a fresh one-time code for the identified account and
// emails it, superseding any previous code
func (s *Service) ResendOtp(ctx context.Context, identifier string) error {
	acct, err := s.accounts.FindByEmailOrPhone(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.ErrNotFound
		}
		slog.Error("Failed to look up account", "err", err)
		return fmt.Errorf("failed to look up account: %w", err)
	}

	return s.issueAndEmailCode(ctx, acct)
}

// RequestPasswordReset issues a short-lived reset token, persists it for
// single-use tracking, and emails the reset link. The email is synchronous:
// a dispatch failure fails the request, since the caller would otherwise be
// left waiting for a link that never arrives.
func (s *Service) RequestPasswordReset(ctx context.Context, identifier string) error {
	acct, err := s.accounts.FindByEmailOrPhone(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.ErrNotFound
		}
		slog.Error("Failed to look up account", "err", err)
		return fmt.Errorf("failed to look up account: %w", err)
	}

	signed, expiresAt, err := s.tokens.IssueResetToken(acct.ID)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	if _, err := s.resetTokens.Create(ctx, acct.ID, signed, expiresAt); err != nil {
		slog.Error("Failed to persist reset token", "account_id", acct.ID, "err", err)
		return fmt.Errorf("failed to persist reset token: %w", err)
	}

	if err := s.sendResetEmail(acct, signed); err != nil {
		slog.Error("Failed to send password reset email", "account_id", acct.ID, "err", err)
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	slog.Info("Issued password reset token", "account_id", acct.ID, "expires_at", expiresAt)
	return nil
}

// ResetPassword verifies the reset token signature and expiry, requires the
// matching persisted row to still exist, then replaces the password and
// consumes the row so the token cannot be replayed.
func (s *Service) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}

	verified, err := s.tokens.Verify(tokenStr)
	if err != nil {
		return token.ErrInvalidOrExpiredToken
	}

	stored, err := s.resetTokens.FindActive(ctx, verified.AccountID(), tokenStr, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return token.ErrInvalidOrExpiredToken
		}
		slog.Error("Failed to load reset token", "account_id", verified.AccountID(), "err", err)
		return fmt.Errorf("failed to load reset token: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		slog.Error("Failed to hash password", "err", err)
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accounts.SetPasswordHash(ctx, stored.AccountID, hash); err != nil {
		slog.Error("Failed to replace password hash", "account_id", stored.AccountID, "err", err)
		return fmt.Errorf("failed to replace password hash: %w", err)
	}

	if err := s.resetTokens.Delete(ctx, stored.ID); err != nil {
		slog.Error("Failed to consume reset token", "account_id", stored.AccountID, "err", err)
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	slog.Info("Reset password", "account_id", stored.AccountID)
	return nil
}

func (s *Service) issueAndEmailCode(ctx context.Context, acct account.Account) error {
	code, err := s.codes.Issue(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("failed to issue one-time code: %w", err)
	}

	err = s.notifier.Send(notification.OtpCodeNotice, notification.NotificationData{
		To: acct.Email,
		Data: map[string]string{
			"Code":          code,
			"ExpiryMinutes": fmt.Sprintf("%d", int(otp.DefaultExpiry.Minutes())),
		},
	})
	if err != nil {
		slog.Error("Failed to send one-time code email", "account_id", acct.ID, "err", err)
		return fmt.Errorf("failed to send one-time code email: %w", err)
	}
	return nil
}

func (s *Service) sendActivationEmail(acct account.Account) error {
	signed, _, err := s.tokens.IssueActivationToken(acct.ID)
	if err != nil {
		return fmt.Errorf("failed to issue activation token: %w", err)
	}

	link := fmt.Sprintf("%s/activate?token=%s", s.baseURL, url.QueryEscape(signed))
	return s.notifier.Send(notification.AccountActivationNotice, notification.NotificationData{
		To: acct.Email,
		Data: map[string]string{
			"Name":           acct.Fullname,
			"ExpiryHours":    fmt.Sprintf("%d", int(token.DefaultActivationTokenExpiry.Hours())),
			"ActivationLink": link,
		},
	})
}

func (s *Service) sendResetEmail(acct account.Account, signed string) error {
	link := fmt.Sprintf("%s/password-reset?token=%s", s.baseURL, url.QueryEscape(signed))
	return s.notifier.Send(notification.PasswordResetNotice, notification.NotificationData{
		To: acct.Email,
		Data: map[string]string{
			"Name":          acct.Fullname,
			"ExpiryMinutes": fmt.Sprintf("%d", int(token.DefaultResetTokenExpiry.Minutes())),
			"ResetLink":     link,
		},
	})
}

package auth

import (
	"context"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirewire/identity/pkg/account"
	"github.com/hirewire/identity/pkg/interests"
	"github.com/hirewire/identity/pkg/notification"
	"github.com/hirewire/identity/pkg/otp"
	"github.com/hirewire/identity/pkg/password"
	"github.com/hirewire/identity/pkg/token"
)

type fixture struct {
	svc       *Service
	accounts  *account.InMemRepository
	tokens    *token.Service
	interests *interests.Service
	mock      *notification.MockNotifier
	taxonomy  struct {
		categoryID uuid.UUID
		itemID     uuid.UUID
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		accounts: account.NewInMemRepository(),
		tokens:   token.NewService("test-secret", "identity-test", "hirewire"),
		mock:     notification.NewMockNotifier(),
	}

	f.taxonomy.categoryID = uuid.New()
	f.taxonomy.itemID = uuid.New()
	f.interests = interests.NewService(interests.NewInMemRepository([]interests.Category{
		{
			ID:   f.taxonomy.categoryID,
			Name: "Trades",
			Subcategories: []interests.Subcategory{
				{ID: uuid.New(), Name: "Construction", Items: []interests.Item{
					{ID: f.taxonomy.itemID, Name: "Carpentry"},
				}},
			},
		},
	}))

	manager := notification.NewNotificationManager()
	manager.RegisterNotifier(notification.EmailSystem, f.mock)
	for _, noticeType := range []notification.NoticeType{
		notification.AccountActivationNotice,
		notification.OtpCodeNotice,
		notification.PasswordResetNotice,
	} {
		err := manager.RegisterNotification(noticeType, notification.EmailSystem, notification.NoticeTemplate{
			Subject: string(noticeType),
			Text:    "body",
		})
		require.NoError(t, err)
	}

	f.svc = NewService(
		f.accounts,
		otp.NewService(otp.NewInMemRepository()),
		f.tokens,
		NewInMemResetTokenRepository(),
		password.NewBcryptHasher(4),
		manager,
		WithInterests(f.interests),
		WithBaseURL("https://app.example.com"),
	)
	return f
}

// lastNotice returns the most recent notice of the given type
func (f *fixture) lastNotice(t *testing.T, noticeType notification.NoticeType) notification.SentNotice {
	t.Helper()
	sent := f.mock.Sent()
	for i := len(sent) - 1; i >= 0; i-- {
		if sent[i].NoticeType == noticeType {
			return sent[i]
		}
	}
	t.Fatalf("no %s notice sent", noticeType)
	return notification.SentNotice{}
}

func (f *fixture) tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	tokenStr := parsed.Query().Get("token")
	require.NotEmpty(t, tokenStr)
	return tokenStr
}

func (f *fixture) register(t *testing.T, email string) account.Account {
	t.Helper()
	acct, err := f.svc.Register(context.Background(), RegisterParams{
		Fullname: "Jordan Reyes",
		Email:    email,
		Password: "hunter22",
	})
	require.NoError(t, err)
	return acct
}

func (f *fixture) registerAndActivate(t *testing.T, email string) account.Account {
	t.Helper()
	acct := f.register(t, email)

	notice := f.lastNotice(t, notification.AccountActivationNotice)
	activationToken := f.tokenFromLink(t, notice.Data.Data["ActivationLink"])
	require.NoError(t, f.svc.Activate(context.Background(), activationToken))

	activated, err := f.accounts.FindByID(context.Background(), acct.ID)
	require.NoError(t, err)
	return activated
}

func (f *fixture) loginAndGetCode(t *testing.T, email, pass string) string {
	t.Helper()
	require.NoError(t, f.svc.Login(context.Background(), email, pass))
	return f.lastNotice(t, notification.OtpCodeNotice).Data.Data["Code"]
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("creates unverified account and emails activation link", func(t *testing.T) {
		acct := f.register(t, "jordan@example.com")
		assert.False(t, acct.IsVerified)
		assert.Equal(t, account.RoleUser, acct.Role)
		assert.NotEqual(t, "hunter22", acct.PasswordHash)

		notice := f.lastNotice(t, notification.AccountActivationNotice)
		assert.Equal(t, "jordan@example.com", notice.Data.To)
		assert.Contains(t, notice.Data.Data["ActivationLink"], "https://app.example.com/activate?token=")
	})

	t.Run("rejects missing input", func(t *testing.T) {
		_, err := f.svc.Register(ctx, RegisterParams{Email: "a@example.com", Password: "pw"})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = f.svc.Register(ctx, RegisterParams{Fullname: "A", Password: "pw"})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = f.svc.Register(ctx, RegisterParams{Fullname: "A", Email: "a@example.com"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects self-registered admin", func(t *testing.T) {
		_, err := f.svc.Register(ctx, RegisterParams{
			Fullname: "A", Email: "admin@example.com", Password: "pw", Role: account.RoleAdmin,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := f.svc.Register(ctx, RegisterParams{
			Fullname: "Other", Email: "Jordan@Example.com", Password: "pw",
		})
		assert.ErrorIs(t, err, account.ErrDuplicateIdentifier)
	})

	t.Run("succeeds even when the activation email fails", func(t *testing.T) {
		f := newFixture(t)
		f.mock.FailWith = assert.AnError

		acct, err := f.svc.Register(ctx, RegisterParams{
			Fullname: "B", Email: "b@example.com", Password: "pw",
		})
		require.NoError(t, err)

		_, err = f.accounts.FindByID(ctx, acct.ID)
		assert.NoError(t, err)
	})
}

func TestActivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acct := f.register(t, "jordan@example.com")
	notice := f.lastNotice(t, notification.AccountActivationNotice)
	activationToken := f.tokenFromLink(t, notice.Data.Data["ActivationLink"])

	require.NoError(t, f.svc.Activate(ctx, activationToken))

	activated, err := f.accounts.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsVerified)

	t.Run("is idempotent", func(t *testing.T) {
		assert.NoError(t, f.svc.Activate(ctx, activationToken))
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		err := f.svc.Activate(ctx, "not-a-token")
		assert.ErrorIs(t, err, token.ErrInvalidOrExpiredToken)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses unactivated accounts", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "jordan@example.com")

		err := f.svc.Login(ctx, "jordan@example.com", "hunter22")
		assert.ErrorIs(t, err, ErrNotActivated)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Login(ctx, "nobody@example.com", "pw")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newFixture(t)
		f.registerAndActivate(t, "jordan@example.com")

		err := f.svc.Login(ctx, "jordan@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})

	t.Run("emails a six digit code", func(t *testing.T) {
		f := newFixture(t)
		f.registerAndActivate(t, "jordan@example.com")

		code := f.loginAndGetCode(t, "jordan@example.com", "hunter22")
		assert.Len(t, code, 6)
	})

	t.Run("fails when the code email cannot be sent", func(t *testing.T) {
		f := newFixture(t)
		f.registerAndActivate(t, "jordan@example.com")
		f.mock.FailWith = assert.AnError

		err := f.svc.Login(ctx, "jordan@example.com", "hunter22")
		assert.Error(t, err)
	})
}

func TestVerifyOtp(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a session token with the account role", func(t *testing.T) {
		f := newFixture(t)
		acct := f.registerAndActivate(t, "jordan@example.com")
		code := f.loginAndGetCode(t, "jordan@example.com", "hunter22")

		result, err := f.svc.VerifyOtp(ctx, "jordan@example.com", code)
		require.NoError(t, err)
		assert.False(t, result.HasInterests)
		assert.Equal(t, acct.ID, result.Account.ID)

		verified, err := f.tokens.Verify(result.Token)
		require.NoError(t, err)
		session, ok := verified.(token.SessionToken)
		require.True(t, ok)
		assert.Equal(t, acct.ID, session.ID)
		assert.Equal(t, string(account.RoleUser), session.Role)
	})

	t.Run("codes are single use", func(t *testing.T) {
		f := newFixture(t)
		f.registerAndActivate(t, "jordan@example.com")
		code := f.loginAndGetCode(t, "jordan@example.com", "hunter22")

		_, err := f.svc.VerifyOtp(ctx, "jordan@example.com", code)
		require.NoError(t, err)

		_, err = f.svc.VerifyOtp(ctx, "jordan@example.com", code)
		assert.ErrorIs(t, err, otp.ErrNotFound)
	})

	t.Run("wrong code", func(t *testing.T) {
		f := newFixture(t)
		f.registerAndActivate(t, "jordan@example.com")
		code := f.loginAndGetCode(t, "jordan@example.com", "hunter22")

		wrong := "000000"
		if code == wrong {
			wrong = "000001"
		}
		_, err := f.svc.VerifyOtp(ctx, "jordan@example.com", wrong)
		assert.ErrorIs(t, err, otp.ErrMismatch)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.VerifyOtp(ctx, "nobody@example.com", "123456")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("refuses unactivated accounts", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "jordan@example.com")

		_, err := f.svc.VerifyOtp(ctx, "jordan@example.com", "123456")
		assert.ErrorIs(t, err, ErrNotActivated)
	})

	t.Run("a resent code cannot mint a session before activation", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "jordan@example.com")

		// Resend happily issues codes for any known account; verification
		// is where unactivated accounts must be stopped
		require.NoError(t, f.svc.ResendOtp(ctx, "jordan@example.com"))
		code := f.lastNotice(t, notification.OtpCodeNotice).Data.Data["Code"]

		result, err := f.svc.VerifyOtp(ctx, "jordan@example.com", code)
		assert.ErrorIs(t, err, ErrNotActivated)
		assert.Empty(t, result.Token)
	})

	t.Run("reports saved interest selections", func(t *testing.T) {
		f := newFixture(t)
		acct := f.registerAndActivate(t, "jordan@example.com")

		err := f.interests.SaveSelections(ctx, acct.ID, []interests.Selection{
			{CategoryID: f.taxonomy.categoryID, ItemIDs: []uuid.UUID{f.taxonomy.itemID}},
		})
		require.NoError(t, err)

		code := f.loginAndGetCode(t, "jordan@example.com", "hunter22")
		result, err := f.svc.VerifyOtp(ctx, "jordan@example.com", code)
		require.NoError(t, err)
		assert.True(t, result.HasInterests)
	})
}

func TestResendOtp(t *testing.T) {
	ctx := context.Background()

	t.Run("supersedes the previous code", func(t *testing.T) {
		f := newFixture(t)
		f.registerAndActivate(t, "jordan@example.com")
		f.loginAndGetCode(t, "jordan@example.com", "hunter22")

		require.NoError(t, f.svc.ResendOtp(ctx, "jordan@example.com"))
		resent := f.lastNotice(t, notification.OtpCodeNotice).Data.Data["Code"]

		_, err := f.svc.VerifyOtp(ctx, "jordan@example.com", resent)
		assert.NoError(t, err)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.ResendOtp(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("full reset flow", func(t *testing.T) {
		f := newFixture(t)
		f.registerAndActivate(t, "jordan@example.com")

		require.NoError(t, f.svc.RequestPasswordReset(ctx, "jordan@example.com"))
		notice := f.lastNotice(t, notification.PasswordResetNotice)
		resetToken := f.tokenFromLink(t, notice.Data.Data["ResetLink"])

		require.NoError(t, f.svc.ResetPassword(ctx, resetToken, "new-password"))

		assert.ErrorIs(t, f.svc.Login(ctx, "jordan@example.com", "hunter22"), ErrInvalidPassword)
		assert.NoError(t, f.svc.Login(ctx, "jordan@example.com", "new-password"))
	})

	t.Run("reset tokens are single use", func(t *testing.T) {
		f := newFixture(t)
		f.registerAndActivate(t, "jordan@example.com")

		require.NoError(t, f.svc.RequestPasswordReset(ctx, "jordan@example.com"))
		notice := f.lastNotice(t, notification.PasswordResetNotice)
		resetToken := f.tokenFromLink(t, notice.Data.Data["ResetLink"])

		require.NoError(t, f.svc.ResetPassword(ctx, resetToken, "new-password"))

		err := f.svc.ResetPassword(ctx, resetToken, "another-password")
		assert.ErrorIs(t, err, token.ErrInvalidOrExpiredToken)
	})

	t.Run("a token never requested is rejected even if well signed", func(t *testing.T) {
		f := newFixture(t)
		acct := f.registerAndActivate(t, "jordan@example.com")

		signed, _, err := f.tokens.IssueResetToken(acct.ID)
		require.NoError(t, err)

		err = f.svc.ResetPassword(ctx, signed, "new-password")
		assert.ErrorIs(t, err, token.ErrInvalidOrExpiredToken)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.RequestPasswordReset(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("fails when the reset email cannot be sent", func(t *testing.T) {
		f := newFixture(t)
		f.registerAndActivate(t, "jordan@example.com")
		f.mock.FailWith = assert.AnError

		err := f.svc.RequestPasswordReset(ctx, "jordan@example.com")
		assert.Error(t, err)
	})

	t.Run("rejects empty new password", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.ResetPassword(ctx, "whatever", "")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

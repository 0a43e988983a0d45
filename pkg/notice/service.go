package notice

import (
	"embed"
	"log/slog"

	"github.com/hirewire/identity/pkg/notification"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// NewNotificationManager creates a notification manager with the email
// notifier and the credential-workflow templates registered.
func NewNotificationManager(smtpConfig notification.SMTPConfig) (*notification.NotificationManager, error) {
	notificationManager := notification.NewNotificationManager()

	emailNotifier, err := notification.NewEmailNotifier(smtpConfig)
	if err != nil {
		return nil, err
	}

	notificationManager.RegisterNotifier(notification.EmailSystem, emailNotifier)

	err = notificationManager.RegisterNotification(notification.AccountActivationNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Activate Your Account",
		Html:    loadTemplate("templates/email/account_activation.tmpl"),
	})
	if err != nil {
		slog.Error("failed to register account activation notification", "error", err)
		return nil, err
	}

	err = notificationManager.RegisterNotification(notification.OtpCodeNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Your Login Code",
		Text:    loadTemplate("templates/email/otp_code.tmpl"),
	})
	if err != nil {
		slog.Error("failed to register otp code notification", "error", err)
		return nil, err
	}

	err = notificationManager.RegisterNotification(notification.PasswordResetNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Password Reset Request",
		Html:    loadTemplate("templates/email/password_reset.tmpl"),
	})
	if err != nil {
		slog.Error("failed to register password reset notification", "error", err)
		return nil, err
	}

	return notificationManager, nil
}

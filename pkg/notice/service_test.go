package notice

import (
	"strings"
	"testing"

	"github.com/hirewire/identity/pkg/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesLoad(t *testing.T) {
	for _, filename := range []string{
		"templates/email/account_activation.tmpl",
		"templates/email/otp_code.tmpl",
		"templates/email/password_reset.tmpl",
	} {
		content := loadTemplate(filename)
		require.NotEmpty(t, content, "template %s should load", filename)
	}

	assert.True(t, strings.Contains(loadTemplate("templates/email/otp_code.tmpl"), "{{.Code}}"))
}

func TestNewNotificationManager(t *testing.T) {
	manager, err := NewNotificationManager(notification.SMTPConfig{
		Host:     "localhost",
		Port:     1025,
		Username: "noreply@example.com",
		Password: "pwd",
		From:     "noreply@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, manager)
}

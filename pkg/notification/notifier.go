package notification

// NotificationSystem represents a delivery channel (e.g., email, SMS).
type NotificationSystem string

// NoticeType represents a kind of notification (e.g., "otp_code").
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"
	SMSSystem   NotificationSystem = "sms"
)

// Notice types dispatched by the credential workflows
const (
	AccountActivationNotice NoticeType = "account_activation"
	OtpCodeNotice           NoticeType = "otp_code"
	PasswordResetNotice     NoticeType = "password_reset"
)

// NotificationData carries the recipient and the template data for a single
// notification
type NotificationData struct {
	To   string
	Data map[string]string
}

// NoticeTemplate holds the subject and body templates for a notice
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// Notifier delivers a rendered notice over one delivery channel
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}

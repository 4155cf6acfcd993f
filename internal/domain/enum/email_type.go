package enum

// EmailType identifies the kind of customer notification
type EmailType string

const (
	EmailTypePaymentReminder        EmailType = "payment_reminder"
	EmailTypeCompletionNotification EmailType = "completion_notification"
)

// EmailLogStatus is the audit outcome recorded for a sent notification
type EmailLogStatus string

const (
	EmailLogStatusSent     EmailLogStatus = "sent"
	EmailLogStatusMockSent EmailLogStatus = "mock_sent"
)

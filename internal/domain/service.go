package domain

// Severity constants for notifications
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Notification is a user-facing event
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Notifier receives notification events. Delivery is fire-and-forget.
type Notifier interface {
	Notify(n Notification)
}

// NopNotifier discards every notification
type NopNotifier struct{}

// Notify implements Notifier
func (NopNotifier) Notify(Notification) {}

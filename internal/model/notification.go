package model

import "time"

// NotificationType classifies a notification for filtering in dashboards.
type NotificationType string

const (
	NotifyBooking      NotificationType = "booking"
	NotifyMaintenance  NotificationType = "maintenance"
	NotifyHousekeeping NotificationType = "housekeeping"
	NotifySystem       NotificationType = "system"
	NotifyAlert        NotificationType = "alert"
	NotifyReminder     NotificationType = "reminder"
)

// Priority is shared by notifications, housekeeping tasks and
// maintenance requests.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// NotificationStatus tracks whether the recipient has seen it.
type NotificationStatus string

const (
	NotificationUnread   NotificationStatus = "Unread"
	NotificationRead     NotificationStatus = "Read"
	NotificationArchived NotificationStatus = "Archived"
)

// EntityRef points at the record a notification or event is about.
type EntityRef struct {
	Type string `json:"entity_type"`
	ID   uint64 `json:"entity_id"`
}

// NotificationEvent is what the booking ledger and the task services hand
// to the notification emitter.
type NotificationEvent struct {
	RecipientID    uint64           `json:"recipient_id"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	Type           NotificationType `json:"type"`
	Priority       Priority         `json:"priority"`
	RelatedEntity  EntityRef        `json:"related_entity"`
	ActionRequired bool             `json:"action_required"`
}

// Notification mirrors a row of the `notifications` table.
type Notification struct {
	ID             uint64             `json:"id"`
	RecipientID    uint64             `json:"recipient_id"`
	Title          string             `json:"title"`
	Message        string             `json:"message"`
	Type           NotificationType   `json:"type"`
	Priority       Priority           `json:"priority"`
	Status         NotificationStatus `json:"status"`
	RelatedEntity  EntityRef          `json:"related_entity"`
	ActionRequired bool               `json:"action_required"`
	ReadAt         *time.Time         `json:"read_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Package queue defines the events exchanged over RabbitMQ and the
// publisher and consumer that move them.
package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Routing keys on the events exchange.
const (
	KeyBookingCreated    = "booking.created"
	KeyBookingUpdated    = "booking.updated"
	KeyBookingCheckedIn  = "booking.checked_in"
	KeyBookingCheckedOut = "booking.checked_out"
	KeyBookingCancelled  = "booking.cancelled"
	KeyBookingNoShow     = "booking.no_show"
	KeyBookingDeleted    = "booking.deleted"

	KeyRoomStatusChanged  = "room.status_changed"
	KeyNotification       = "notification.created"
	KeyHousekeepingTask   = "housekeeping.task_created"
	KeyHousekeepingDone   = "housekeeping.task_completed"
	KeyMaintenanceRequest = "maintenance.request_created"
	KeyMaintenanceDone    = "maintenance.request_completed"
)

// Envelope wraps every published payload. ID is unique per message so
// consumers can drop redeliveries.
type Envelope struct {
	ID         string          `json:"id"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload and stamps it with a fresh message id.
func NewEnvelope(key string, payload any, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{ID: uuid.NewString(), Key: key, OccurredAt: at.UTC(), Payload: raw}, nil
}

// BookingEvent is published on every booking lifecycle transition.
type BookingEvent struct {
	BookingID  uint64 `json:"booking_id"`
	GuestID    uint64 `json:"guest_id"`
	RoomID     uint64 `json:"room_id"`
	Status     string `json:"status"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	TotalCents int64  `json:"total_amount_cents"`
	ActorID    uint64 `json:"actor_id,omitempty"`
}

// RoomStatusEvent is published when a room's status is written.
type RoomStatusEvent struct {
	RoomID     uint64 `json:"room_id"`
	RoomNumber string `json:"room_number"`
	From       string `json:"from"`
	To         string `json:"to"`
}

// TaskEvent describes a housekeeping task or maintenance request.
type TaskEvent struct {
	ID       uint64 `json:"id"`
	RoomID   uint64 `json:"room_id"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
}

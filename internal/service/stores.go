// Package service holds the hotel's business rules: the booking ledger,
// the room registry and the task services that react to booking
// transitions. Persistence is reached through the small interfaces below,
// which the repository package implements.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-operations/internal/model"
	"github.com/iliyamo/hotel-operations/internal/repository"
)

// RoomLocker serializes every read-check-write on a room.
type RoomLocker interface {
	WithRoomLock(ctx context.Context, roomID uint64, fn func(tx repository.RoomTx) error) error
}

// RoomStore is the room persistence used by the registry and the ledger.
type RoomStore interface {
	RoomLocker
	Create(ctx context.Context, rm *model.Room) error
	GetByID(ctx context.Context, id uint64) (*model.Room, error)
	List(ctx context.Context, f model.RoomFilter) ([]model.Room, error)
	ListVacant(ctx context.Context, roomType string) ([]model.Room, error)
	ListFree(ctx context.Context, stay model.Interval, roomType string) ([]model.Room, error)
	Update(ctx context.Context, rm *model.Room) error
}

// BookingStore serves booking reads. Writes go through RoomLocker.
type BookingStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	List(ctx context.Context, f model.BookingFilter) ([]model.Booking, int64, error)
	ListByGuest(ctx context.Context, guestID uint64) ([]model.Booking, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]model.Booking, error)
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]model.Booking, error)
}

// RateSource reads numeric configuration. It never fails; missing or
// malformed values degrade to def.
type RateSource interface {
	Float(ctx context.Context, key string, def float64) float64
}

// Notifier delivers a notification to a user.
type Notifier interface {
	Notify(ctx context.Context, ev model.NotificationEvent) error
}

// TaskSpawner creates housekeeping work.
type TaskSpawner interface {
	SpawnCleaningTask(ctx context.Context, req model.CleaningTaskRequest) error
}

// EventPublisher publishes domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

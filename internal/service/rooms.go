package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/hotel-operations/internal/model"
	"github.com/iliyamo/hotel-operations/internal/queue"
	"github.com/iliyamo/hotel-operations/internal/repository"
)

// Rooms is the room registry. It stores rooms and writes their status on
// request; whether a status change makes sense for the bookings involved
// is decided by the Ledger, not here.
type Rooms struct {
	store   RoomStore
	events  EventPublisher
	effects *Dispatcher
}

func NewRooms(store RoomStore, events EventPublisher, effects *Dispatcher) *Rooms {
	return &Rooms{store: store, events: events, effects: effects}
}

// Create registers a new room. Status defaults to Available.
func (s *Rooms) Create(ctx context.Context, rm *model.Room) error {
	rm.RoomNumber = strings.TrimSpace(rm.RoomNumber)
	if rm.RoomNumber == "" || rm.Type == "" {
		return fmt.Errorf("%w: room number and type are required", model.ErrInvalidInput)
	}
	if rm.PriceCents <= 0 {
		return fmt.Errorf("%w: price must be positive", model.ErrInvalidInput)
	}
	if rm.Status == "" {
		rm.Status = model.RoomAvailable
	}
	if !rm.Status.Valid() {
		return fmt.Errorf("%w: unknown room status %q", model.ErrInvalidInput, rm.Status)
	}
	return s.store.Create(ctx, rm)
}

func (s *Rooms) Get(ctx context.Context, id uint64) (*model.Room, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Rooms) List(ctx context.Context, f model.RoomFilter) ([]model.Room, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown room status %q", model.ErrInvalidInput, f.Status)
	}
	return s.store.List(ctx, f)
}

// ListAvailable returns rooms that are physically vacant right now:
// active and in status Available. Use Ledger.QueryAvailableRooms for
// rooms that can be booked for given dates.
func (s *Rooms) ListAvailable(ctx context.Context, roomType string) ([]model.Room, error) {
	return s.store.ListVacant(ctx, roomType)
}

// Update applies p to the room's descriptive attributes.
func (s *Rooms) Update(ctx context.Context, id uint64, p model.RoomPatch) (*model.Room, error) {
	rm, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Apply(rm)
	if strings.TrimSpace(rm.RoomNumber) == "" || rm.PriceCents <= 0 {
		return nil, fmt.Errorf("%w: room number and a positive price are required", model.ErrInvalidInput)
	}
	if err := s.store.Update(ctx, rm); err != nil {
		return nil, err
	}
	return rm, nil
}

// SetStatus writes status unconditionally, serialized with booking
// operations on the same room.
func (s *Rooms) SetStatus(ctx context.Context, id uint64, status model.RoomStatus) (*model.Room, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown room status %q", model.ErrInvalidInput, status)
	}
	var (
		out model.Room
		ev  *queue.RoomStatusEvent
	)
	err := s.store.WithRoomLock(ctx, id, func(tx repository.RoomTx) error {
		var err error
		if ev, err = moveRoom(ctx, tx, status); err != nil {
			return err
		}
		out = *tx.Room()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ev != nil {
		s.effects.Publish(s.events, queue.KeyRoomStatusChanged, ev)
	}
	return &out, nil
}

// Delete removes a room that no Reserved or CheckedIn booking refers to.
func (s *Rooms) Delete(ctx context.Context, id uint64) error {
	return s.store.WithRoomLock(ctx, id, func(tx repository.RoomTx) error {
		active, err := tx.ActiveBookings(ctx)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return fmt.Errorf("%w: room has %d active booking(s)", model.ErrConflict, len(active))
		}
		return tx.DeleteRoom(ctx)
	})
}

package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-operations/internal/model"
	"github.com/iliyamo/hotel-operations/internal/queue"
)

func TestRooms_Create(t *testing.T) {
	h := newHarness(t, 0.10)

	rm := &model.Room{RoomNumber: " 101 ", Type: "Single", PriceCents: 5000, IsActive: true}
	require.NoError(t, h.rooms.Create(context.Background(), rm))
	assert.Equal(t, "101", rm.RoomNumber)
	assert.Equal(t, model.RoomAvailable, rm.Status)

	err := h.rooms.Create(context.Background(), &model.Room{RoomNumber: "101", Type: "Double", PriceCents: 7000})
	assert.ErrorIs(t, err, model.ErrDuplicateRoomNumber)

	invalid := []*model.Room{
		{Type: "Single", PriceCents: 5000},
		{RoomNumber: "102", PriceCents: 5000},
		{RoomNumber: "102", Type: "Single"},
		{RoomNumber: "102", Type: "Single", PriceCents: 5000, Status: "Haunted"},
	}
	for _, rm := range invalid {
		assert.ErrorIs(t, h.rooms.Create(context.Background(), rm), model.ErrInvalidInput)
	}
}

func TestRooms_UpdateKeepsStatus(t *testing.T) {
	h := newHarness(t, 0.10)
	id := h.addRoom(t, "101", 5000, model.RoomCleaning)

	price := int64(6500)
	got, err := h.rooms.Update(context.Background(), id, model.RoomPatch{PriceCents: &price})
	require.NoError(t, err)
	assert.Equal(t, price, got.PriceCents)
	assert.Equal(t, model.RoomCleaning, h.db.room(id).Status)

	zero := int64(0)
	_, err = h.rooms.Update(context.Background(), id, model.RoomPatch{PriceCents: &zero})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = h.rooms.Update(context.Background(), 404, model.RoomPatch{PriceCents: &price})
	assert.ErrorIs(t, err, model.ErrRoomNotFound)
}

func TestRooms_SetStatus(t *testing.T) {
	h := newHarness(t, 0.10)
	id := h.addRoom(t, "101", 5000, model.RoomAvailable)

	_, err := h.rooms.SetStatus(context.Background(), id, "Flooded")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	got, err := h.rooms.SetStatus(context.Background(), id, model.RoomOutOfOrder)
	require.NoError(t, err)
	assert.Equal(t, model.RoomOutOfOrder, got.Status)

	_, err = h.rooms.SetStatus(context.Background(), id, model.RoomOutOfOrder)
	require.NoError(t, err)

	h.effects.Wait()
	assert.Equal(t, 1, h.rec.eventCount(queue.KeyRoomStatusChanged), "unchanged status publishes nothing")
}

func TestRooms_StatusWritesSerializeWithBookings(t *testing.T) {
	h := newHarness(t, 0.10)
	id := h.addRoom(t, "101", 5000, model.RoomAvailable)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = h.rooms.SetStatus(context.Background(), id, model.RoomCleaning)
		}()
		go func(i int) {
			defer wg.Done()
			actor := model.Actor{ID: uint64(500 + i), Role: model.RoleGuest}
			_, _ = h.book(actor, id, "2025-01-01", "2025-01-03")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, h.db.countBookings(id))
}

func TestRooms_Delete(t *testing.T) {
	h := newHarness(t, 0.10)
	id := h.addRoom(t, "101", 5000, model.RoomAvailable)
	b, err := h.book(guest, id, "2024-12-01", "2024-12-02")
	require.NoError(t, err)

	err = h.rooms.Delete(context.Background(), id)
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = h.ledger.UpdateStatus(context.Background(), desk, b.ID, model.BookingCancelled, "")
	require.NoError(t, err)
	require.NoError(t, h.ledger.DeleteBooking(context.Background(), desk, b.ID))

	require.NoError(t, h.rooms.Delete(context.Background(), id))
	_, err = h.rooms.Get(context.Background(), id)
	assert.ErrorIs(t, err, model.ErrRoomNotFound)
	assert.ErrorIs(t, h.rooms.Delete(context.Background(), id), model.ErrRoomNotFound)
}

func TestRooms_ListRejectsUnknownStatus(t *testing.T) {
	h := newHarness(t, 0.10)
	h.addRoom(t, "101", 5000, model.RoomAvailable)
	h.addRoom(t, "102", 5000, model.RoomCleaning)

	_, err := h.rooms.List(context.Background(), model.RoomFilter{Status: "Dusty"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	cleaning, err := h.rooms.List(context.Background(), model.RoomFilter{Status: model.RoomCleaning})
	require.NoError(t, err)
	require.Len(t, cleaning, 1)
	assert.Equal(t, "102", cleaning[0].RoomNumber)
}

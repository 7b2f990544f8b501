package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	all := []BookingStatus{BookingReserved, BookingCheckedIn, BookingCheckedOut, BookingCancelled, BookingNoShow}
	allowed := map[[2]BookingStatus]bool{
		{BookingReserved, BookingCheckedIn}:   true,
		{BookingReserved, BookingCancelled}:   true,
		{BookingReserved, BookingNoShow}:      true,
		{BookingCheckedIn, BookingCheckedOut}: true,
	}
	for _, from := range all {
		for _, to := range all {
			name := string(from) + "->" + string(to)
			t.Run(name, func(t *testing.T) {
				assert.Equal(t, allowed[[2]BookingStatus{from, to}], CanTransition(from, to))
			})
		}
	}
}

func TestBookingStatusPredicates(t *testing.T) {
	assert.True(t, BookingReserved.Active())
	assert.True(t, BookingCheckedIn.Active())
	assert.False(t, BookingCheckedOut.Active())
	assert.False(t, BookingCancelled.Active())

	assert.True(t, BookingCheckedOut.Terminal())
	assert.True(t, BookingCancelled.Terminal())
	assert.True(t, BookingNoShow.Terminal())
	assert.False(t, BookingReserved.Terminal())

	assert.False(t, BookingStatus("Pending").Valid())
}

func TestRoomStatusBookable(t *testing.T) {
	assert.True(t, RoomAvailable.Bookable())
	assert.True(t, RoomOccupied.Bookable())
	assert.True(t, RoomCleaning.Bookable())
	assert.False(t, RoomMaintenance.Bookable())
	assert.False(t, RoomOutOfOrder.Bookable())
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleGuest, CapManageBookings, false},
		{RoleReceptionist, CapFrontDesk, true},
		{RoleReceptionist, CapManageRooms, false},
		{RoleHousekeeping, CapSetRoomStatus, true},
		{RoleHousekeeping, CapViewAllBookings, false},
		{RoleManager, CapManageSettings, true},
		{RoleManager, CapDeleteRooms, false},
		{RoleAdmin, CapDeleteRooms | CapManageUsers, true},
		{RoleHousekeeping, CapResolveMaintenance, true},
		{RoleHousekeeping, CapManageMaintenance, false},
		{RoleReceptionist, CapResolveMaintenance, false},
		{RoleManager, CapEditSettings, false},
		{RoleAdmin, CapEditSettings, true},
		{RoleReceptionist, CapViewUsers, true},
		{RoleReceptionist, CapDeleteUsers, false},
		{RoleManager, CapDeleteUsers, true},
		{RoleManager, CapManageUsers, false},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Can(tt.cap))
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Receptionist ")
	require.NoError(t, err)
	assert.Equal(t, RoleReceptionist, r)
	assert.True(t, r.IsStaff())

	_, err = ParseRole("owner")
	assert.Error(t, err)
}

func TestActorCanAccessBooking(t *testing.T) {
	b := &Booking{GuestID: 7}
	assert.True(t, Actor{ID: 7, Role: RoleGuest}.CanAccessBooking(b))
	assert.False(t, Actor{ID: 8, Role: RoleGuest}.CanAccessBooking(b))
	assert.True(t, Actor{ID: 8, Role: RoleReceptionist}.CanAccessBooking(b))
	assert.False(t, Actor{ID: 8, Role: RoleHousekeeping}.CanAccessBooking(b))
}

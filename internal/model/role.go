package model

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles. It is carried in the access
// token as its lower-case name.
type Role uint8

const (
	RoleGuest Role = iota + 1
	RoleHousekeeping
	RoleReceptionist
	RoleManager
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleGuest:        "guest",
	RoleHousekeeping: "housekeeping",
	RoleReceptionist: "receptionist",
	RoleManager:      "manager",
	RoleAdmin:        "admin",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// ParseRole converts a role name into a Role. Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, n := range roleNames {
		if n == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Capability is a single permission checked by route middleware and by
// ownership rules in the services.
type Capability uint32

const (
	CapViewAllBookings Capability = 1 << iota
	CapManageBookings
	CapFrontDesk // check-in, check-out, status changes
	CapManageRooms
	CapDeleteRooms
	CapSetRoomStatus
	CapManageSettings
	CapEditSettings
	CapHousekeeping
	CapManageHousekeeping
	CapMaintenance
	CapResolveMaintenance // update and complete requests
	CapManageMaintenance  // assign and delete requests
	CapViewUsers
	CapDeleteUsers
	CapManageUsers
)

var roleCaps = map[Role]Capability{
	RoleGuest:        0,
	RoleHousekeeping: CapSetRoomStatus | CapHousekeeping | CapMaintenance | CapResolveMaintenance,
	RoleReceptionist: CapViewAllBookings | CapManageBookings | CapFrontDesk | CapSetRoomStatus | CapMaintenance | CapViewUsers,
	RoleManager: CapViewAllBookings | CapManageBookings | CapFrontDesk | CapManageRooms |
		CapSetRoomStatus | CapManageSettings | CapHousekeeping | CapManageHousekeeping | CapMaintenance |
		CapResolveMaintenance | CapManageMaintenance | CapViewUsers | CapDeleteUsers,
	RoleAdmin: CapViewAllBookings | CapManageBookings | CapFrontDesk | CapManageRooms | CapDeleteRooms |
		CapSetRoomStatus | CapManageSettings | CapEditSettings | CapHousekeeping | CapManageHousekeeping |
		CapMaintenance | CapResolveMaintenance | CapManageMaintenance | CapViewUsers | CapDeleteUsers |
		CapManageUsers,
}

// Can reports whether the role holds every capability in c.
func (r Role) Can(c Capability) bool {
	return roleCaps[r]&c == c
}

// IsStaff reports whether the role belongs to hotel staff.
func (r Role) IsStaff() bool {
	return r != RoleGuest && r.Valid()
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint64
	Role Role
}

// CanAccessBooking reports whether the actor may read or modify b: the
// owning guest or staff holding CapManageBookings.
func (a Actor) CanAccessBooking(b *Booking) bool {
	return a.Role.Can(CapManageBookings) || (a.ID != 0 && a.ID == b.GuestID)
}

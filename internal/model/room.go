package model

import "time"

// RoomStatus is the operational state of a physical room. It is distinct
// from BookingStatus: a room can be Occupied while the booking that holds
// it is still Reserved.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "Available"
	RoomOccupied    RoomStatus = "Occupied"
	RoomCleaning    RoomStatus = "Cleaning"
	RoomMaintenance RoomStatus = "Maintenance"
	RoomOutOfOrder  RoomStatus = "OutOfOrder"
)

// Valid reports whether s is one of the known room states.
func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomCleaning, RoomMaintenance, RoomOutOfOrder:
		return true
	}
	return false
}

// Bookable reports whether a room in this state may accept a new
// reservation. Occupied and Cleaning describe the room as it is right
// now; whether the requested dates are free is decided by the overlap
// check, not by this flag.
func (s RoomStatus) Bookable() bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomCleaning:
		return true
	}
	return false
}

// Room mirrors a row of the `rooms` table.
//
// Fields:
//  ID              – primary key.
//  RoomNumber      – unique, human facing number (e.g. "204").
//  Type            – category such as Single, Double, Suite.
//  BedType         – bed configuration (Single, Double, Queen, King).
//  PriceCents      – nightly price in minor units.
//  Status          – current physical state.
//  Floor           – floor the room is on.
//  MaxAdults       – capacity for adults.
//  MaxChildren     – capacity for children.
//  Description     – free text shown to guests.
//  Amenities       – comma separated list.
//  IsActive        – inactive rooms are never offered.
//  LastCleaned     – set when a housekeeping task completes.
//  LastMaintenance – set when a maintenance request completes.
type Room struct {
	ID              uint64     `json:"id"`
	RoomNumber      string     `json:"room_number"`
	Type            string     `json:"type"`
	BedType         string     `json:"bed_type,omitempty"`
	PriceCents      int64      `json:"price_cents"`
	Status          RoomStatus `json:"status"`
	Floor           int        `json:"floor"`
	MaxAdults       int        `json:"max_adults"`
	MaxChildren     int        `json:"max_children"`
	Description     string     `json:"description,omitempty"`
	Amenities       string     `json:"amenities,omitempty"`
	IsActive        bool       `json:"is_active"`
	LastCleaned     *time.Time `json:"last_cleaned,omitempty"`
	LastMaintenance *time.Time `json:"last_maintenance,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// RoomFilter narrows room listings. Zero values mean "any".
type RoomFilter struct {
	Type   string
	Status RoomStatus
	Floor  *int
}

// RoomPatch carries the editable room attributes. Nil fields are left
// untouched. Status is not part of the patch; it has its own operation.
type RoomPatch struct {
	RoomNumber  *string `json:"room_number"`
	Type        *string `json:"type"`
	BedType     *string `json:"bed_type"`
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,gt=0"`
	Floor       *int    `json:"floor"`
	MaxAdults   *int    `json:"max_adults" validate:"omitempty,gte=1"`
	MaxChildren *int    `json:"max_children" validate:"omitempty,gte=0"`
	Description *string `json:"description"`
	Amenities   *string `json:"amenities"`
	IsActive    *bool   `json:"is_active"`
}

// Apply copies every non-nil patch field onto r.
func (p RoomPatch) Apply(r *Room) {
	if p.RoomNumber != nil {
		r.RoomNumber = *p.RoomNumber
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.BedType != nil {
		r.BedType = *p.BedType
	}
	if p.PriceCents != nil {
		r.PriceCents = *p.PriceCents
	}
	if p.Floor != nil {
		r.Floor = *p.Floor
	}
	if p.MaxAdults != nil {
		r.MaxAdults = *p.MaxAdults
	}
	if p.MaxChildren != nil {
		r.MaxChildren = *p.MaxChildren
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Amenities != nil {
		r.Amenities = *p.Amenities
	}
	if p.IsActive != nil {
		r.IsActive = *p.IsActive
	}
}

// RoomSummary is the subset of a room embedded in booking responses.
type RoomSummary struct {
	ID         uint64 `json:"id"`
	RoomNumber string `json:"room_number"`
	Type       string `json:"type"`
	PriceCents int64  `json:"price_cents"`
	Floor      int    `json:"floor"`
}

// Summary returns the embedded view of r.
func (r *Room) Summary() *RoomSummary {
	return &RoomSummary{ID: r.ID, RoomNumber: r.RoomNumber, Type: r.Type, PriceCents: r.PriceCents, Floor: r.Floor}
}

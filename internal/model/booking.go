package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingReserved   BookingStatus = "Reserved"
	BookingCheckedIn  BookingStatus = "CheckedIn"
	BookingCheckedOut BookingStatus = "CheckedOut"
	BookingCancelled  BookingStatus = "Cancelled"
	BookingNoShow     BookingStatus = "NoShow"
)

// bookingTransitions is the allowed-transition table. A status that does
// not appear as a key is terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingReserved:  {BookingCheckedIn, BookingCancelled, BookingNoShow},
	BookingCheckedIn: {BookingCheckedOut},
}

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingReserved, BookingCheckedIn, BookingCheckedOut, BookingCancelled, BookingNoShow:
		return true
	}
	return false
}

// Active reports whether a booking in this state holds its room for
// overlap purposes.
func (s BookingStatus) Active() bool {
	return s == BookingReserved || s == BookingCheckedIn
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	_, ok := bookingTransitions[s]
	return !ok
}

// CanTransition reports whether a booking may move from one status to
// another.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ActiveBookingStatuses lists the statuses that block a room's dates.
var ActiveBookingStatuses = []BookingStatus{BookingReserved, BookingCheckedIn}

// PaymentStatus tracks settlement of a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPartial  PaymentStatus = "Partial"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentRefunded PaymentStatus = "Refunded"
)

// PaymentMethod is how the guest settled at checkout.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "Cash"
	PaymentCard         PaymentMethod = "Card"
	PaymentBankTransfer PaymentMethod = "Bank Transfer"
	PaymentOnline       PaymentMethod = "Online"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentBankTransfer, PaymentOnline:
		return true
	}
	return false
}

// BookingSource is the channel a booking arrived through.
type BookingSource string

const (
	SourceWalkIn BookingSource = "Walk-in"
	SourcePhone  BookingSource = "Phone"
	SourceOnline BookingSource = "Online"
	SourceAgent  BookingSource = "Agent"
)

// Valid reports whether s is a known booking source.
func (s BookingSource) Valid() bool {
	switch s {
	case SourceWalkIn, SourcePhone, SourceOnline, SourceAgent:
		return true
	}
	return false
}

// Booking mirrors a row of the `bookings` table. Room and Guest are
// populated by read paths that join the related rows.
type Booking struct {
	ID                 uint64        `json:"id"`
	GuestID            uint64        `json:"guest_id"`
	RoomID             uint64        `json:"room_id"`
	CheckInDate        time.Time     `json:"check_in_date"`
	CheckOutDate       time.Time     `json:"check_out_date"`
	ActualCheckIn      *time.Time    `json:"actual_check_in,omitempty"`
	ActualCheckOut     *time.Time    `json:"actual_check_out,omitempty"`
	Status             BookingStatus `json:"status"`
	Nights             int           `json:"nights"`
	BaseCents          int64         `json:"base_amount_cents"`
	TaxCents           int64         `json:"tax_amount_cents"`
	TotalCents         int64         `json:"total_amount_cents"`
	PaidCents          int64         `json:"paid_amount_cents"`
	PaymentStatus      PaymentStatus `json:"payment_status"`
	PaymentMethod      PaymentMethod `json:"payment_method,omitempty"`
	Adults             int           `json:"adults"`
	Children           int           `json:"children"`
	SpecialRequests    string        `json:"special_requests,omitempty"`
	Source             BookingSource `json:"booking_source"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`
	CheckedInBy        *uint64       `json:"checked_in_by,omitempty"`
	CheckedOutBy       *uint64       `json:"checked_out_by,omitempty"`
	KeyNumber          string        `json:"key_number,omitempty"`
	Notes              string        `json:"notes,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`

	Room  *RoomSummary  `json:"room,omitempty"`
	Guest *GuestSummary `json:"guest,omitempty"`
}

// Stay returns the booked interval.
func (b *Booking) Stay() Interval {
	return Interval{Start: b.CheckInDate, End: b.CheckOutDate}
}

// ApplyCharge stores a computed charge on the booking.
func (b *Booking) ApplyCharge(ch Charge) {
	b.Nights = ch.Nights
	b.BaseCents = ch.BaseCents
	b.TaxCents = ch.TaxCents
	b.TotalCents = ch.TotalCents
}

// NewBooking is the input of a create operation.
type NewBooking struct {
	GuestID         uint64
	RoomID          uint64
	CheckInDate     time.Time
	CheckOutDate    time.Time
	Adults          int
	Children        int
	SpecialRequests string
	Source          BookingSource
}

// BookingPatch holds the fields a guest or staff member may edit. Nil
// fields are left untouched.
type BookingPatch struct {
	CheckInDate     *time.Time
	CheckOutDate    *time.Time
	Adults          *int
	Children        *int
	SpecialRequests *string
	Notes           *string
}

// ChangesDates reports whether the patch touches the stay interval.
func (p BookingPatch) ChangesDates() bool {
	return p.CheckInDate != nil || p.CheckOutDate != nil
}

// CheckoutInput carries the optional settlement data of a checkout.
type CheckoutInput struct {
	FinalAmountCents *int64
	PaymentMethod    PaymentMethod
}

// BookingFilter is used by staff listings. Zero values mean "any".
type BookingFilter struct {
	Status      BookingStatus
	GuestID     uint64
	RoomID      uint64
	CheckInDate *time.Time // matches bookings checking in on that calendar day (UTC)
	Page        int
	Limit       int
}

// Normalize clamps pagination to sane bounds.
func (f *BookingFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// Offset returns the row offset for the current page.
func (f BookingFilter) Offset() int { return (f.Page - 1) * f.Limit }

// GuestSummary is the subset of a user embedded in booking responses.
type GuestSummary struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

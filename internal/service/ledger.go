package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-operations/internal/model"
	"github.com/iliyamo/hotel-operations/internal/queue"
	"github.com/iliyamo/hotel-operations/internal/repository"
)

// Ledger owns the booking state machine. Every write that depends on a
// room's bookings or status runs under that room's lock; notifications,
// housekeeping tasks and broker events are dispatched after the lock is
// released and can never fail the operation.
type Ledger struct {
	rooms    RoomStore
	bookings BookingStore
	rates    RateSource
	notify   Notifier
	tasks    TaskSpawner
	events   EventPublisher
	effects  *Dispatcher
	now      func() time.Time
}

// LedgerDeps wires a Ledger. Now defaults to time.Now.
type LedgerDeps struct {
	Rooms    RoomStore
	Bookings BookingStore
	Rates    RateSource
	Notifier Notifier
	Tasks    TaskSpawner
	Events   EventPublisher
	Effects  *Dispatcher
	Now      func() time.Time
}

func NewLedger(d LedgerDeps) *Ledger {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Ledger{
		rooms:    d.Rooms,
		bookings: d.Bookings,
		rates:    d.Rates,
		notify:   d.Notifier,
		tasks:    d.Tasks,
		events:   d.Events,
		effects:  d.Effects,
		now:      d.Now,
	}
}

// systemActor performs scheduled transitions.
var systemActor = model.Actor{Role: model.RoleAdmin}

// sweepBatch bounds how many bookings one no-show sweep touches.
const sweepBatch = 200

// BookingPage is one page of a staff booking listing.
type BookingPage struct {
	Items []model.Booking `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// CreateBooking reserves in.RoomID for [CheckInDate, CheckOutDate). Guests
// always book for themselves; staff may book on behalf of a guest.
func (l *Ledger) CreateBooking(ctx context.Context, actor model.Actor, in model.NewBooking) (*model.Booking, error) {
	if !actor.Role.Can(model.CapManageBookings) || in.GuestID == 0 {
		in.GuestID = actor.ID
	}
	if in.GuestID == 0 {
		return nil, fmt.Errorf("%w: guest is required", model.ErrInvalidInput)
	}
	stay := model.Interval{Start: in.CheckInDate.UTC(), End: in.CheckOutDate.UTC()}
	if !stay.Valid() {
		return nil, model.ErrInvalidDateRange
	}
	if in.Adults < 1 {
		in.Adults = 1
	}
	if in.Children < 0 {
		return nil, fmt.Errorf("%w: children cannot be negative", model.ErrInvalidInput)
	}
	switch {
	case in.Source == "" && actor.Role == model.RoleGuest:
		in.Source = model.SourceOnline
	case in.Source == "":
		in.Source = model.SourceWalkIn
	case !in.Source.Valid():
		return nil, fmt.Errorf("%w: unknown booking source %q", model.ErrInvalidInput, in.Source)
	}
	taxRate := l.rates.Float(ctx, model.SettingTaxRate, model.DefaultTaxRate)

	var (
		b      *model.Booking
		roomEv *queue.RoomStatusEvent
	)
	err := l.rooms.WithRoomLock(ctx, in.RoomID, func(tx repository.RoomTx) error {
		room := tx.Room()
		if !room.IsActive || !room.Status.Bookable() {
			return model.ErrRoomUnavailable
		}
		overlap, err := tx.HasOverlap(ctx, stay, 0)
		if err != nil {
			return err
		}
		if overlap {
			return model.ErrRoomUnavailable
		}

		nb := &model.Booking{
			GuestID:         in.GuestID,
			RoomID:          room.ID,
			CheckInDate:     stay.Start,
			CheckOutDate:    stay.End,
			Status:          model.BookingReserved,
			PaymentStatus:   model.PaymentPending,
			Adults:          in.Adults,
			Children:        in.Children,
			SpecialRequests: in.SpecialRequests,
			Source:          in.Source,
		}
		nb.ApplyCharge(model.ComputeCharge(stay.Nights(), room.PriceCents, taxRate))
		if err := tx.InsertBooking(ctx, nb); err != nil {
			return err
		}
		if roomEv, err = moveRoom(ctx, tx, model.RoomOccupied); err != nil {
			return err
		}
		nb.Room = room.Summary()
		b = nb
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.publishRoom(roomEv)
	l.effects.Publish(l.events, queue.KeyBookingCreated, bookingEvent(b, actor))
	l.effects.Notify(l.notify, model.NotificationEvent{
		RecipientID:   b.GuestID,
		Title:         "Booking Confirmed",
		Message:       fmt.Sprintf("Your booking for room %s from %s to %s is confirmed.", b.Room.RoomNumber, day(b.CheckInDate), day(b.CheckOutDate)),
		Type:          model.NotifyBooking,
		Priority:      model.PriorityMedium,
		RelatedEntity: bookingRef(b.ID),
	})
	return l.reload(ctx, b), nil
}

// GetBooking returns a booking the actor is allowed to see.
func (l *Ledger) GetBooking(ctx context.Context, actor model.Actor, id uint64) (*model.Booking, error) {
	return l.authorize(ctx, actor, id)
}

// UpdateBooking applies p to an active booking. A date change re-runs the
// overlap check against the room's other bookings and recomputes the
// charge at the room's current price.
func (l *Ledger) UpdateBooking(ctx context.Context, actor model.Actor, id uint64, p model.BookingPatch) (*model.Booking, error) {
	cur, err := l.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p.Adults != nil && *p.Adults < 1 {
		return nil, fmt.Errorf("%w: at least one adult is required", model.ErrInvalidInput)
	}
	if p.Children != nil && *p.Children < 0 {
		return nil, fmt.Errorf("%w: children cannot be negative", model.ErrInvalidInput)
	}
	var taxRate float64
	if p.ChangesDates() {
		taxRate = l.rates.Float(ctx, model.SettingTaxRate, model.DefaultTaxRate)
	}

	var b *model.Booking
	err = l.rooms.WithRoomLock(ctx, cur.RoomID, func(tx repository.RoomTx) error {
		locked, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if !locked.Status.Active() {
			return model.ErrInvalidTransition
		}
		if p.ChangesDates() {
			if p.CheckInDate != nil {
				locked.CheckInDate = p.CheckInDate.UTC()
			}
			if p.CheckOutDate != nil {
				locked.CheckOutDate = p.CheckOutDate.UTC()
			}
			stay := locked.Stay()
			if !stay.Valid() {
				return model.ErrInvalidDateRange
			}
			overlap, err := tx.HasOverlap(ctx, stay, locked.ID)
			if err != nil {
				return err
			}
			if overlap {
				return model.ErrRoomUnavailable
			}
			locked.ApplyCharge(model.ComputeCharge(stay.Nights(), tx.Room().PriceCents, taxRate))
		}
		if p.Adults != nil {
			locked.Adults = *p.Adults
		}
		if p.Children != nil {
			locked.Children = *p.Children
		}
		if p.SpecialRequests != nil {
			locked.SpecialRequests = *p.SpecialRequests
		}
		if p.Notes != nil {
			locked.Notes = *p.Notes
		}
		if err := tx.UpdateBooking(ctx, locked); err != nil {
			return err
		}
		b = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.effects.Publish(l.events, queue.KeyBookingUpdated, bookingEvent(b, actor))
	return l.reload(ctx, b), nil
}

// UpdateStatus moves a booking to status to. CheckedIn and CheckedOut are
// delegated to CheckIn and CheckOut so their side effects always apply.
func (l *Ledger) UpdateStatus(ctx context.Context, actor model.Actor, id uint64, to model.BookingStatus, reason string) (*model.Booking, error) {
	if !actor.Role.Can(model.CapFrontDesk) {
		return nil, model.ErrForbidden
	}
	switch to {
	case model.BookingCheckedIn:
		return l.CheckIn(ctx, actor, id, "")
	case model.BookingCheckedOut:
		return l.CheckOut(ctx, actor, id, model.CheckoutInput{})
	case model.BookingReserved, model.BookingCancelled, model.BookingNoShow:
		return l.transition(ctx, actor, id, to, reason)
	}
	return nil, fmt.Errorf("%w: unknown booking status %q", model.ErrInvalidInput, to)
}

// transition handles moves that end a reservation without a stay.
// Cancelled frees the room from any status unless another guest is
// checked in to it; NoShow recomputes it.
func (l *Ledger) transition(ctx context.Context, actor model.Actor, id uint64, to model.BookingStatus, reason string) (*model.Booking, error) {
	cur, err := l.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		b      *model.Booking
		roomEv *queue.RoomStatusEvent
	)
	err = l.rooms.WithRoomLock(ctx, cur.RoomID, func(tx repository.RoomTx) error {
		locked, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(locked.Status, to) {
			return model.ErrInvalidTransition
		}
		locked.Status = to
		if to == model.BookingCancelled {
			locked.CancellationReason = reason
		}
		if err := tx.UpdateBooking(ctx, locked); err != nil {
			return err
		}

		remaining, err := tx.ActiveBookings(ctx)
		if err != nil {
			return err
		}
		next := releasedStatus(tx.Room().Status, len(remaining) > 0)
		if to == model.BookingCancelled {
			next = model.RoomAvailable
			if hasCheckedIn(remaining) {
				next = model.RoomOccupied
			}
		}
		if roomEv, err = moveRoom(ctx, tx, next); err != nil {
			return err
		}
		b = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.publishRoom(roomEv)
	key, title, msg := queue.KeyBookingCancelled, "Booking Cancelled", "Your booking #%d has been cancelled."
	if to == model.BookingNoShow {
		key, title, msg = queue.KeyBookingNoShow, "Booking Marked No-Show", "Your booking #%d was marked as a no-show."
	}
	l.effects.Publish(l.events, key, bookingEvent(b, actor))
	l.effects.Notify(l.notify, model.NotificationEvent{
		RecipientID:   b.GuestID,
		Title:         title,
		Message:       fmt.Sprintf(msg, b.ID),
		Type:          model.NotifyBooking,
		Priority:      model.PriorityMedium,
		RelatedEntity: bookingRef(b.ID),
	})
	return l.reload(ctx, b), nil
}

// CheckIn starts the stay of a Reserved booking.
func (l *Ledger) CheckIn(ctx context.Context, actor model.Actor, id uint64, keyNumber string) (*model.Booking, error) {
	if !actor.Role.Can(model.CapFrontDesk) {
		return nil, model.ErrForbidden
	}
	cur, err := l.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := l.now().UTC()

	var (
		b          *model.Booking
		roomEv     *queue.RoomStatusEvent
		roomNumber string
	)
	err = l.rooms.WithRoomLock(ctx, cur.RoomID, func(tx repository.RoomTx) error {
		locked, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(locked.Status, model.BookingCheckedIn) {
			return model.ErrInvalidTransition
		}
		locked.Status = model.BookingCheckedIn
		locked.ActualCheckIn = &now
		locked.CheckedInBy = actorRef(actor)
		if keyNumber != "" {
			locked.KeyNumber = keyNumber
		}
		if err := tx.UpdateBooking(ctx, locked); err != nil {
			return err
		}
		if roomEv, err = moveRoom(ctx, tx, model.RoomOccupied); err != nil {
			return err
		}
		roomNumber = tx.Room().RoomNumber
		b = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.publishRoom(roomEv)
	l.effects.Publish(l.events, queue.KeyBookingCheckedIn, bookingEvent(b, actor))
	l.effects.Notify(l.notify, model.NotificationEvent{
		RecipientID:   b.GuestID,
		Title:         "Checked In",
		Message:       fmt.Sprintf("Welcome! You are checked in to room %s.", roomNumber),
		Type:          model.NotifyBooking,
		Priority:      model.PriorityMedium,
		RelatedEntity: bookingRef(b.ID),
	})
	return l.reload(ctx, b), nil
}

// CheckOut ends the stay, settles payment and sends the room to cleaning.
// Exactly one checkout-cleaning task is spawned for the room.
func (l *Ledger) CheckOut(ctx context.Context, actor model.Actor, id uint64, in model.CheckoutInput) (*model.Booking, error) {
	if !actor.Role.Can(model.CapFrontDesk) {
		return nil, model.ErrForbidden
	}
	if in.FinalAmountCents != nil && *in.FinalAmountCents < 0 {
		return nil, fmt.Errorf("%w: final amount cannot be negative", model.ErrInvalidInput)
	}
	if in.PaymentMethod != "" && !in.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", model.ErrInvalidInput, in.PaymentMethod)
	}
	cur, err := l.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := l.now().UTC()

	var (
		b      *model.Booking
		roomEv *queue.RoomStatusEvent
	)
	err = l.rooms.WithRoomLock(ctx, cur.RoomID, func(tx repository.RoomTx) error {
		locked, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(locked.Status, model.BookingCheckedOut) {
			return model.ErrInvalidTransition
		}
		locked.Status = model.BookingCheckedOut
		locked.ActualCheckOut = &now
		locked.CheckedOutBy = actorRef(actor)
		locked.PaidCents = locked.TotalCents
		if in.FinalAmountCents != nil {
			locked.PaidCents = *in.FinalAmountCents
		}
		locked.PaymentStatus = model.PaymentPaid
		if in.PaymentMethod != "" {
			locked.PaymentMethod = in.PaymentMethod
		}
		if err := tx.UpdateBooking(ctx, locked); err != nil {
			return err
		}
		if roomEv, err = moveRoom(ctx, tx, model.RoomCleaning); err != nil {
			return err
		}
		b = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	bookingID := b.ID
	task := model.CleaningTaskRequest{
		RoomID:        b.RoomID,
		Type:          model.TaskCheckoutCleaning,
		Priority:      model.PriorityHigh,
		ScheduledDate: now,
		BookingID:     &bookingID,
	}
	l.effects.Go("spawn_cleaning_task", log.Fields{"room_id": b.RoomID, "booking_id": b.ID}, func(ctx context.Context) error {
		return l.tasks.SpawnCleaningTask(ctx, task)
	})
	l.publishRoom(roomEv)
	l.effects.Publish(l.events, queue.KeyBookingCheckedOut, bookingEvent(b, actor))
	l.effects.Notify(l.notify, model.NotificationEvent{
		RecipientID:   b.GuestID,
		Title:         "Checked Out",
		Message:       fmt.Sprintf("Thank you for staying with us. %s was charged for booking #%d.", cents(b.PaidCents), b.ID),
		Type:          model.NotifyBooking,
		Priority:      model.PriorityLow,
		RelatedEntity: bookingRef(b.ID),
	})
	return l.reload(ctx, b), nil
}

// DeleteBooking removes a booking. If it was still active, the room's
// status is recomputed from the bookings that remain.
func (l *Ledger) DeleteBooking(ctx context.Context, actor model.Actor, id uint64) error {
	cur, err := l.authorize(ctx, actor, id)
	if err != nil {
		return err
	}

	var roomEv *queue.RoomStatusEvent
	err = l.rooms.WithRoomLock(ctx, cur.RoomID, func(tx repository.RoomTx) error {
		locked, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteBooking(ctx, id); err != nil {
			return err
		}
		if !locked.Status.Active() {
			return nil
		}
		remaining, err := tx.ActiveBookings(ctx)
		if err != nil {
			return err
		}
		roomEv, err = moveRoom(ctx, tx, releasedStatus(tx.Room().Status, len(remaining) > 0))
		return err
	})
	if err != nil {
		return err
	}

	l.publishRoom(roomEv)
	l.effects.Publish(l.events, queue.KeyBookingDeleted, bookingEvent(cur, actor))
	return nil
}

// QueryAvailableRooms returns the rooms that can legally be booked for
// [checkIn, checkOut): active, in a bookable status and free of any
// overlapping Reserved or CheckedIn booking.
func (l *Ledger) QueryAvailableRooms(ctx context.Context, checkIn, checkOut time.Time, roomType string) ([]model.Room, error) {
	stay := model.Interval{Start: checkIn.UTC(), End: checkOut.UTC()}
	if !stay.Valid() {
		return nil, model.ErrInvalidDateRange
	}
	return l.rooms.ListFree(ctx, stay, roomType)
}

// ListBookings serves the staff listing.
func (l *Ledger) ListBookings(ctx context.Context, f model.BookingFilter) (BookingPage, error) {
	f.Normalize()
	items, total, err := l.bookings.List(ctx, f)
	if err != nil {
		return BookingPage{}, err
	}
	return BookingPage{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// ListMyBookings returns the actor's own bookings.
func (l *Ledger) ListMyBookings(ctx context.Context, actor model.Actor) ([]model.Booking, error) {
	return l.bookings.ListByGuest(ctx, actor.ID)
}

// ListByDateRange returns bookings whose stay intersects [from, to).
func (l *Ledger) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	if !to.After(from) {
		return nil, model.ErrInvalidDateRange
	}
	return l.bookings.ListInRange(ctx, from, to)
}

// SweepNoShows marks Reserved bookings whose check-in date is before
// cutoff as NoShow and returns how many were moved. Bookings that change
// state concurrently are skipped.
func (l *Ledger) SweepNoShows(ctx context.Context, cutoff time.Time) (int, error) {
	overdue, err := l.bookings.ListOverdue(ctx, cutoff, sweepBatch)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, b := range overdue {
		if err := ctx.Err(); err != nil {
			return moved, err
		}
		if _, err := l.transition(ctx, systemActor, b.ID, model.BookingNoShow, ""); err != nil {
			if errors.Is(err, model.ErrInvalidTransition) || model.IsNotFound(err) {
				continue
			}
			log.WithError(err).WithField("booking_id", b.ID).Warn("no-show sweep: transition failed")
			continue
		}
		moved++
	}
	return moved, nil
}

func (l *Ledger) authorize(ctx context.Context, actor model.Actor, id uint64) (*model.Booking, error) {
	b, err := l.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessBooking(b) {
		return nil, model.ErrForbidden
	}
	return b, nil
}

// reload re-reads a booking after a committed write so the caller gets
// room and guest details. The write already succeeded, so a failed read
// falls back to the in-memory copy.
func (l *Ledger) reload(ctx context.Context, b *model.Booking) *model.Booking {
	full, err := l.bookings.GetByID(ctx, b.ID)
	if err != nil {
		log.WithError(err).WithField("booking_id", b.ID).Warn("reload booking after write")
		return b
	}
	return full
}

func (l *Ledger) publishRoom(ev *queue.RoomStatusEvent) {
	if ev != nil {
		l.effects.Publish(l.events, queue.KeyRoomStatusChanged, ev)
	}
}

// releasedStatus is the room status after an active booking stops
// holding the room. Cleaning, Maintenance and OutOfOrder are left alone.
func releasedStatus(current model.RoomStatus, stillBooked bool) model.RoomStatus {
	if current != model.RoomOccupied && current != model.RoomAvailable {
		return current
	}
	if stillBooked {
		return model.RoomOccupied
	}
	return model.RoomAvailable
}

func hasCheckedIn(bs []model.Booking) bool {
	for _, b := range bs {
		if b.Status == model.BookingCheckedIn {
			return true
		}
	}
	return false
}

// moveRoom writes to as the locked room's status and describes the change.
// It returns a nil event when the status is already to.
func moveRoom(ctx context.Context, tx repository.RoomTx, to model.RoomStatus) (*queue.RoomStatusEvent, error) {
	room := tx.Room()
	from := room.Status
	if from == to {
		return nil, nil
	}
	if err := tx.SetRoomStatus(ctx, to); err != nil {
		return nil, err
	}
	return &queue.RoomStatusEvent{RoomID: room.ID, RoomNumber: room.RoomNumber, From: string(from), To: string(to)}, nil
}

func bookingEvent(b *model.Booking, actor model.Actor) queue.BookingEvent {
	return queue.BookingEvent{
		BookingID:  b.ID,
		GuestID:    b.GuestID,
		RoomID:     b.RoomID,
		Status:     string(b.Status),
		CheckIn:    b.CheckInDate.UTC().Format(time.RFC3339),
		CheckOut:   b.CheckOutDate.UTC().Format(time.RFC3339),
		TotalCents: b.TotalCents,
		ActorID:    actor.ID,
	}
}

func bookingRef(id uint64) model.EntityRef { return model.EntityRef{Type: "booking", ID: id} }

func actorRef(a model.Actor) *uint64 {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

func day(t time.Time) string { return t.UTC().Format("2006-01-02") }

func cents(v int64) string { return fmt.Sprintf("%d.%02d", v/100, v%100) }

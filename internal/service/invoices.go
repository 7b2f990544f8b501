package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// InvoiceStore persists generated invoices.
type InvoiceStore interface {
	GetByBooking(ctx context.Context, bookingID uint64) (*model.Invoice, error)
	Create(ctx context.Context, inv *model.Invoice) error
}

// Invoices returns the invoice of a booking, generating and storing it on
// first request.
type Invoices struct {
	store  InvoiceStore
	ledger *Ledger
	rooms  RoomStore
	now    func() time.Time
}

func NewInvoices(store InvoiceStore, ledger *Ledger, rooms RoomStore) *Invoices {
	return &Invoices{store: store, ledger: ledger, rooms: rooms, now: time.Now}
}

// ForBooking returns the invoice of a booking the actor may access.
func (s *Invoices) ForBooking(ctx context.Context, actor model.Actor, bookingID uint64) (*model.Invoice, error) {
	b, err := s.ledger.GetBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	inv, err := s.store.GetByBooking(ctx, bookingID)
	switch {
	case err == nil:
		inv.BookingInfo = b
		return inv, nil
	case !errors.Is(err, model.ErrInvoiceNotFound):
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, b.RoomID)
	if err != nil {
		return nil, err
	}
	built := model.BuildInvoice(b, room, s.now().UTC())
	if err := s.store.Create(ctx, &built); err != nil {
		if !errors.Is(err, model.ErrConflict) {
			return nil, err
		}
		// Generated concurrently; return the stored one.
		stored, err := s.store.GetByBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		built = *stored
	}
	built.BookingInfo = b
	return &built, nil
}

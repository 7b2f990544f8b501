package model

import (
	"fmt"
	"time"
)

// InvoiceItem is a single line of an invoice.
type InvoiceItem struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
}

// Invoice mirrors a row of the `invoices` table. Items are stored as a
// JSON column.
type Invoice struct {
	ID          uint64        `json:"id"`
	BookingID   uint64        `json:"booking_id"`
	Items       []InvoiceItem `json:"items"`
	TotalCents  int64         `json:"total_amount_cents"`
	IssuedAt    time.Time     `json:"issued_at"`
	BookingInfo *Booking      `json:"booking,omitempty"`
}

// BuildInvoice derives invoice lines from the amounts recorded on b.
// The room is only used to label the stay. When checkout settled a
// different amount, an adjustment line makes the items add up to it.
func BuildInvoice(b *Booking, room *Room, now time.Time) Invoice {
	var nightly int64
	if b.Nights > 0 {
		nightly = b.BaseCents / int64(b.Nights)
	}
	items := []InvoiceItem{
		{
			Description: fmt.Sprintf("Room %s (%s), %d night(s) at %s", room.RoomNumber, room.Type, b.Nights, centsString(nightly)),
			AmountCents: b.BaseCents,
		},
		{Description: "Tax", AmountCents: b.TaxCents},
	}
	total := b.TotalCents
	if b.Status == BookingCheckedOut && b.PaidCents != b.TotalCents {
		items = append(items, InvoiceItem{Description: "Adjustment at checkout", AmountCents: b.PaidCents - b.TotalCents})
		total = b.PaidCents
	}
	return Invoice{
		BookingID:  b.ID,
		Items:      items,
		TotalCents: total,
		IssuedAt:   now,
	}
}

func centsString(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

package model

import (
	"math"
	"time"
)

// DefaultTaxRate applies when the tax_rate setting is absent or inactive.
const DefaultTaxRate = 0.10

// MaxTaxRate is the highest tax rate a stay can be charged at.
const MaxTaxRate = 1.0

// ValidTaxRate reports whether r is a finite rate in [0, MaxTaxRate].
func ValidTaxRate(r float64) bool {
	return !math.IsNaN(r) && r >= 0 && r <= MaxTaxRate
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether End is strictly after Start.
func (i Interval) Valid() bool { return i.End.After(i.Start) }

// Overlaps reports whether two half-open intervals intersect:
// [a1,a2) and [b1,b2) overlap iff a1 < b2 and b1 < a2.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Contains reports whether t falls inside the interval.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Nights is the billing unit of a stay: the ceiling of the whole-day
// difference. Invalid intervals yield zero.
func (i Interval) Nights() int {
	if !i.Valid() {
		return 0
	}
	d := i.End.Sub(i.Start)
	return int(math.Ceil(d.Hours() / 24))
}

// Charge is the result of pricing a stay.
type Charge struct {
	Nights     int   `json:"nights"`
	RateCents  int64 `json:"nightly_rate_cents"`
	BaseCents  int64 `json:"base_amount_cents"`
	TaxCents   int64 `json:"tax_amount_cents"`
	TotalCents int64 `json:"total_amount_cents"`
}

// ComputeCharge prices nights at nightlyRateCents and applies taxRate to
// the base amount. Tax is rounded half away from zero to the nearest
// cent. Both booking creation and invoice generation go through here.
func ComputeCharge(nights int, nightlyRateCents int64, taxRate float64) Charge {
	if nights < 0 {
		nights = 0
	}
	switch {
	case math.IsNaN(taxRate) || taxRate < 0:
		taxRate = 0
	case taxRate > MaxTaxRate:
		taxRate = MaxTaxRate
	}
	base := int64(nights) * nightlyRateCents
	tax := int64(math.Round(float64(base) * taxRate))
	return Charge{
		Nights:     nights,
		RateCents:  nightlyRateCents,
		BaseCents:  base,
		TaxCents:   tax,
		TotalCents: base + tax,
	}
}

package calendar

import (
	"fmt"
	"math"
	"time"

	"github.com/username/listing-calendar/pkg/dateutil"
)

// Status is the display status of one calendar day
type Status int

const (
	StatusPast Status = iota + 1
	StatusBlocked
	StatusFullyBooked
	StatusAvailable
	StatusClosed
)

// Statuses lists every status in precedence order
var Statuses = []Status{StatusPast, StatusBlocked, StatusFullyBooked, StatusAvailable, StatusClosed}

func (s Status) String() string {
	switch s {
	case StatusPast:
		return "past"
	case StatusBlocked:
		return "blocked"
	case StatusFullyBooked:
		return "fully_booked"
	case StatusAvailable:
		return "available"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Price label markers shown instead of the amount
const (
	LabelBlocked = "Blocked"
	LabelBooked  = "Booked"
	LabelClosed  = "Closed"
)

// DefaultCurrencySymbol is prefixed to formatted prices
const DefaultCurrencySymbol = "$"

// DayDisplayState is the derived state of one calendar cell.
// Empty PriceLabel or CapacityLabel means the label is absent.
type DayDisplayState struct {
	Date          time.Time
	Status        Status
	PriceLabel    string
	CapacityLabel string
	IsToday       bool
}

// Editable reports whether the cell accepts edits (past days do not)
func (s DayDisplayState) Editable() bool {
	return s.Status != StatusPast
}

// Deriver classifies day records for one listing kind
type Deriver struct {
	Kind           ListingKind
	CurrencySymbol string
}

// Derive classifies a day for display. rec may be nil when the service
// returned nothing for that date. today is the current date; only its
// calendar components are used.
func Derive(date time.Time, rec *DayRecord, today time.Time, kind ListingKind) DayDisplayState {
	return Deriver{Kind: kind, CurrencySymbol: DefaultCurrencySymbol}.Derive(date, rec, today)
}

// Derive classifies a day for display, see the package-level Derive
func (d Deriver) Derive(date time.Time, rec *DayRecord, today time.Time) DayDisplayState {
	state := DayDisplayState{
		Date:    date,
		IsToday: dateutil.IsSameDay(date, today),
	}

	if dateutil.IsBeforeDay(date, today) {
		state.Status = StatusPast
		return state
	}

	// Precedence: blocked > fully booked > available > closed
	switch {
	case rec.Blocked():
		state.Status = StatusBlocked
		state.PriceLabel = LabelBlocked
	case rec.FullyBooked():
		state.Status = StatusFullyBooked
		state.PriceLabel = LabelBooked
	case rec.Available():
		state.Status = StatusAvailable
		if rec.Price != nil {
			state.PriceLabel = FormatPrice(d.currencySymbol(), *rec.Price)
		}
	default:
		state.Status = StatusClosed
		state.PriceLabel = LabelClosed
	}

	state.CapacityLabel = d.capacityLabel(rec)

	return state
}

func (d Deriver) capacityLabel(rec *DayRecord) string {
	if rec == nil {
		return ""
	}

	switch d.Kind {
	case Accommodation:
		if rec.RoomsAvailable != nil {
			return fmt.Sprintf("%d left", *rec.RoomsAvailable)
		}
	case Tour:
		if rec.SpotsAvailable != nil {
			return fmt.Sprintf("%d spots", *rec.SpotsAvailable)
		}
	}
	return ""
}

func (d Deriver) currencySymbol() string {
	if d.CurrencySymbol == "" {
		return DefaultCurrencySymbol
	}
	return d.CurrencySymbol
}

// FormatPrice formats an amount as currency.
// Examples: 100 -> $100, 99.5 -> $99.50
func FormatPrice(symbol string, p Price) string {
	v := p.Float64()
	if v == math.Trunc(v) {
		return fmt.Sprintf("%s%.0f", symbol, v)
	}
	return fmt.Sprintf("%s%.2f", symbol, v)
}

// Summarize counts derived days per status
func Summarize(states []DayDisplayState) map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, state := range states {
		counts[state.Status]++
	}
	return counts
}

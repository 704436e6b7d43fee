package calendar

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Price handles decimal amounts from the calendar API.
// The backend serializes decimals inconsistently:
// - Sometimes as number: 120.5
// - Sometimes as string: "120.50"
// This type accepts both formats.
type Price float64

// UnmarshalJSON implements json.Unmarshaler for Price
func (p *Price) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	// Try as number first
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*p = Price(f)
		return nil
	}

	// Try as decimal string
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("Price: invalid decimal %q: %w", s, err)
		}
		*p = Price(parsed)
		return nil
	}

	return fmt.Errorf("Price: cannot unmarshal %s", string(b))
}

// Float64 returns the amount as float64
func (p Price) Float64() float64 {
	return float64(p)
}

// DayRecord is one day of a listing calendar as returned by the service.
// Optional fields are pointers: a missing field is not the same as false or zero,
// and a field with an unusable value decodes as missing.
type DayRecord struct {
	ID             *int64 `json:"id,omitempty"` // Tour slots only
	Date           string `json:"date"`         // YYYY-MM-DD
	Price          *Price `json:"price,omitempty"`
	OriginalPrice  *Price `json:"original_price,omitempty"`
	IsAvailable    *bool  `json:"is_available,omitempty"`
	IsBlocked      *bool  `json:"is_blocked,omitempty"`
	IsFullyBooked  *bool  `json:"is_fully_booked,omitempty"`
	RoomsAvailable *int   `json:"rooms_available,omitempty"`
	SpotsAvailable *int   `json:"spots_available,omitempty"`
	MinimumStay    *int   `json:"minimum_stay,omitempty"`
	MaximumStay    *int   `json:"maximum_stay,omitempty"`
	TotalRooms     *int   `json:"total_rooms,omitempty"`
	RoomsBooked    *int   `json:"rooms_booked,omitempty"`
	RoomsBlocked   *int   `json:"rooms_blocked,omitempty"`

	OccupancyPercentage *float64 `json:"occupancy_percentage,omitempty"`
	IsSpecialRate       *bool    `json:"is_special_rate,omitempty"`
	RateType            string   `json:"rate_type,omitempty"`
	RateNote            string   `json:"rate_note,omitempty"`

	// Tour slot fields
	MaxParticipants    *int    `json:"max_participants,omitempty"`
	ParticipantsBooked *int    `json:"participants_booked,omitempty"`
	MinParticipants    *int    `json:"min_participants,omitempty"`
	MeetsMinimum       *bool   `json:"meets_minimum,omitempty"`
	StartTime          *string `json:"start_time,omitempty"`
	EndTime            *string `json:"end_time,omitempty"`

	invalid []string
}

// dayRecordFields has the fields of DayRecord without its UnmarshalJSON
type dayRecordFields DayRecord

// UnmarshalJSON decodes a day record. A field whose value does not fit its type
// (e.g. "price": "" or "rooms_available": "2") is dropped and reads as absent,
// so one bad field does not fail the whole calendar response.
func (r *DayRecord) UnmarshalJSON(b []byte) error {
	var fields dayRecordFields
	if err := json.Unmarshal(b, &fields); err == nil {
		*r = DayRecord(fields)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("DayRecord: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields = dayRecordFields{}
	var invalid []string
	for _, key := range keys {
		single, err := json.Marshal(map[string]json.RawMessage{key: raw[key]})
		if err != nil {
			invalid = append(invalid, key)
			continue
		}

		var scratch dayRecordFields
		if err := json.Unmarshal(single, &scratch); err != nil {
			invalid = append(invalid, key)
			continue
		}
		_ = json.Unmarshal(single, &fields)
	}

	*r = DayRecord(fields)
	r.invalid = invalid
	return nil
}

// InvalidFields returns the JSON keys dropped while decoding because their
// values did not fit, in key order
func (r *DayRecord) InvalidFields() []string {
	if r == nil {
		return nil
	}
	return r.invalid
}

// Blocked reports is_blocked; absent reads as false
func (r *DayRecord) Blocked() bool {
	return r != nil && r.IsBlocked != nil && *r.IsBlocked
}

// FullyBooked reports is_fully_booked; absent reads as false
func (r *DayRecord) FullyBooked() bool {
	return r != nil && r.IsFullyBooked != nil && *r.IsFullyBooked
}

// Available reports is_available; absent reads as false
func (r *DayRecord) Available() bool {
	return r != nil && r.IsAvailable != nil && *r.IsAvailable
}

// ListingRef identifies the listing a calendar response belongs to
type ListingRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Stats is the summary block of a calendar response.
// Accommodation calendars fill the *_days fields, tour calendars the *_slots fields.
type Stats struct {
	TotalDays     int `json:"total_days,omitempty"`
	AvailableDays int `json:"available_days,omitempty"`
	BookedDays    int `json:"booked_days,omitempty"`
	BlockedDays   int `json:"blocked_days,omitempty"`

	TotalSlots     int `json:"total_slots,omitempty"`
	AvailableSlots int `json:"available_slots,omitempty"`
	BookedSlots    int `json:"booked_slots,omitempty"`
	FullyBooked    int `json:"fully_booked,omitempty"`

	AvgPrice     float64 `json:"avg_price"`
	AvgOccupancy float64 `json:"avg_occupancy"`
}

// CalendarResponse is returned by GET .../calendar/
type CalendarResponse struct {
	Success       bool        `json:"success"`
	Error         string      `json:"error,omitempty"`
	Accommodation *ListingRef `json:"accommodation,omitempty"`
	Tour          *ListingRef `json:"tour,omitempty"`
	Calendar      []DayRecord `json:"calendar"`
	Stats         Stats       `json:"stats"`
}

// UpdateDayRequest is the body of POST .../calendar/update/
type UpdateDayRequest struct {
	Date         string  `json:"date"`
	IsAvailable  bool    `json:"is_available"`
	IsBlocked    bool    `json:"is_blocked"`
	Price        float64 `json:"price"`
	MinimumStay  int     `json:"minimum_stay"`
	TotalRooms   *int    `json:"total_rooms,omitempty"`   // Accommodation only
	RoomsBlocked *int    `json:"rooms_blocked,omitempty"` // Accommodation only
}

// BulkUpdateRequest is the body of POST .../calendar/bulk-update/.
// Only the fields that are set are applied to every date in the range.
type BulkUpdateRequest struct {
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	IsAvailable   *bool    `json:"is_available,omitempty"`
	IsBlocked     *bool    `json:"is_blocked,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	MinimumStay   *int     `json:"minimum_stay,omitempty"`
	TotalRooms    *int     `json:"total_rooms,omitempty"`
	RoomsBlocked  *int     `json:"rooms_blocked,omitempty"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	MaximumStay   *int     `json:"maximum_stay,omitempty"`
	IsSpecialRate *bool    `json:"is_special_rate,omitempty"`
	RateType      *string  `json:"rate_type,omitempty"`
	RateNote      *string  `json:"rate_note,omitempty"`
	UpdateType    string   `json:"update_type,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// UpdateResponse is returned by both write endpoints
type UpdateResponse struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	Message      string `json:"message,omitempty"`
	Date         string `json:"date,omitempty"`
	DatesUpdated int    `json:"dates_updated,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
}

// Listing is one of the host's accommodations or tours
type Listing struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PropertyType string `json:"property_type,omitempty"`
	Category     string `json:"category,omitempty"`
	City         string `json:"city,omitempty"`
	Country      string `json:"country,omitempty"`
}

// ListingsResponse is returned by GET /api/host/{kind}s/
type ListingsResponse struct {
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	Accommodations []Listing `json:"accommodations,omitempty"`
	Tours          []Listing `json:"tours,omitempty"`
}

// envelope is implemented by every response that carries success/error
type envelope interface {
	succeeded() bool
	errorMessage() string
}

func (r *CalendarResponse) succeeded() bool      { return r.Success }
func (r *CalendarResponse) errorMessage() string { return r.Error }
func (r *UpdateResponse) succeeded() bool        { return r.Success }
func (r *UpdateResponse) errorMessage() string   { return r.Error }
func (r *ListingsResponse) succeeded() bool      { return r.Success }
func (r *ListingsResponse) errorMessage() string { return r.Error }

// Ptr returns a pointer to v, for filling optional request fields
func Ptr[T any](v T) *T {
	return &v
}

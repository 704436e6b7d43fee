package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/username/listing-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

// Generic failure messages used when the service gives no message of its own
const (
	MsgLoadFailed       = "Failed to load calendar"
	MsgUpdateFailed     = "Failed to update date"
	MsgBulkUpdateFailed = "Bulk update failed"
)

// Service is the remote calendar API as seen by the view-model
type Service interface {
	FetchCalendar(ctx context.Context, start, end string) (*CalendarResponse, error)
	UpdateDay(ctx context.Context, req UpdateDayRequest) (*UpdateResponse, error)
	BulkUpdate(ctx context.Context, req BulkUpdateRequest) (*UpdateResponse, error)
}

// Month is the result of one successful fetch. It is never modified;
// the next fetch replaces it as a whole.
type Month struct {
	Window  Window
	Start   string
	End     string
	Stats   Stats
	Listing *ListingRef
	days    map[string]DayRecord
}

func newMonth(w Window, start, end string, resp *CalendarResponse) *Month {
	m := &Month{
		Window:  w,
		Start:   start,
		End:     end,
		Stats:   resp.Stats,
		Listing: resp.Accommodation,
		days:    make(map[string]DayRecord, len(resp.Calendar)),
	}
	if m.Listing == nil {
		m.Listing = resp.Tour
	}

	// Tour calendars may list several slots per date; the last one wins
	for _, rec := range resp.Calendar {
		m.days[rec.Date] = rec
	}
	return m
}

// Lookup returns a copy of the record for date, or nil
func (m *Month) Lookup(date time.Time) *DayRecord {
	if m == nil {
		return nil
	}
	rec, ok := m.days[dateutil.FormatDate(date)]
	if !ok {
		return nil
	}
	return &rec
}

// Len returns the number of distinct dates with a record
func (m *Month) Len() int {
	if m == nil {
		return 0
	}
	return len(m.days)
}

// Records returns all records ordered by date
func (m *Month) Records() []DayRecord {
	if m == nil {
		return nil
	}
	records := make([]DayRecord, 0, len(m.days))
	for _, rec := range m.days {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date < records[j].Date
	})
	return records
}

// FormValues is the content of the single-day edit form
type FormValues struct {
	IsOpen       bool
	IsAvailable  bool
	Price        float64
	MinimumStay  int
	TotalRooms   int // Accommodation only
	RoomsBlocked int // Accommodation only
}

// FormValuesFromRecord pre-fills the edit form from an existing record.
// Missing fields fall back to: open, available, price 0, minimum stay 1,
// 1 room in total, 0 rooms blocked.
func FormValuesFromRecord(rec *DayRecord) FormValues {
	form := FormValues{
		IsOpen:      true,
		IsAvailable: true,
		MinimumStay: 1,
		TotalRooms:  1,
	}
	if rec == nil {
		return form
	}

	form.IsOpen = !rec.Blocked()
	if rec.IsAvailable != nil {
		form.IsAvailable = *rec.IsAvailable
	}
	if rec.Price != nil {
		form.Price = rec.Price.Float64()
	}
	if rec.MinimumStay != nil && *rec.MinimumStay > 0 {
		form.MinimumStay = *rec.MinimumStay
	}
	if rec.TotalRooms != nil && *rec.TotalRooms > 0 {
		form.TotalRooms = *rec.TotalRooms
	}
	if rec.RoomsBlocked != nil {
		form.RoomsBlocked = *rec.RoomsBlocked
	}
	return form
}

// BulkUpdates is a partial set of fields applied to every date of a range.
// Nil fields are left untouched by the service.
type BulkUpdates struct {
	IsOpen        *bool
	IsAvailable   *bool
	Price         *float64
	MinimumStay   *int
	TotalRooms    *int // Accommodation only
	RoomsBlocked  *int // Accommodation only
	OriginalPrice *float64
	MaximumStay   *int
	IsSpecialRate *bool
	RateType      *string
	RateNote      *string
	UpdateType    string
	Notes         string
}

// Outcome is the result of an edit submission
type Outcome struct {
	Success      bool
	DatesUpdated int
	Message      string
	Err          error // Set on failure, *NetworkError or *ServiceError underneath
}

// ViewModel holds the calendar session: the shown month and the last fetched records.
// Responses are applied in arrival order; a slow response for a previous window
// can replace the records of a newer one.
type ViewModel struct {
	service Service
	deriver Deriver
	now     func() time.Time
	logger  *zap.Logger

	mu     sync.RWMutex
	window Window
	month  *Month
}

// NewViewModel creates a view-model showing the current month
func NewViewModel(service Service, kind ListingKind, logger *zap.Logger) *ViewModel {
	vm := &ViewModel{
		service: service,
		deriver: Deriver{Kind: kind, CurrencySymbol: DefaultCurrencySymbol},
		now:     time.Now,
		logger:  logger,
	}
	vm.window = WindowOf(vm.now())
	return vm
}

// SetClock replaces the source of the current time and resets the window to its month
func (vm *ViewModel) SetClock(now func() time.Time) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.now = now
	vm.window = WindowOf(now())
}

// SetCurrencySymbol sets the symbol prefixed to prices
func (vm *ViewModel) SetCurrencySymbol(symbol string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.deriver.CurrencySymbol = symbol
}

// CurrencySymbol returns the symbol prefixed to prices
func (vm *ViewModel) CurrencySymbol() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	return vm.deriver.CurrencySymbol
}

// Kind returns the listing kind
func (vm *ViewModel) Kind() ListingKind {
	return vm.deriver.Kind
}

// Window returns the shown month
func (vm *ViewModel) Window() Window {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	return vm.window
}

// SetWindow shows another month; out-of-range months are normalized
func (vm *ViewModel) SetWindow(w Window) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.window = w.Normalize()
}

// Next moves to the following month
func (vm *ViewModel) Next() Window {
	return vm.move(Window.Next)
}

// Previous moves to the preceding month
func (vm *ViewModel) Previous() Window {
	return vm.move(Window.Previous)
}

// Today moves to the month of the current date
func (vm *ViewModel) Today() Window {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.window = WindowOf(vm.now())
	return vm.window
}

func (vm *ViewModel) move(step func(Window) Window) Window {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.window = step(vm.window)
	return vm.window
}

// Load fetches the shown month and replaces the held records.
// On failure the previous records are kept.
func (vm *ViewModel) Load(ctx context.Context) (*Month, error) {
	w := vm.Window()
	start, end := w.Range()

	vm.logger.Debug("Loading calendar",
		zap.String("window", w.String()),
		zap.String("start_date", start),
		zap.String("end_date", end))

	resp, err := vm.service.FetchCalendar(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FailureMessage(err, MsgLoadFailed), err)
	}

	month := newMonth(w, start, end, resp)

	vm.mu.Lock()
	vm.month = month
	vm.mu.Unlock()

	vm.logger.Info("Calendar loaded",
		zap.String("window", w.String()),
		zap.Int("days_with_records", month.Len()))

	return month, nil
}

// Month returns the last fetched records, nil before the first successful Load
func (vm *ViewModel) Month() *Month {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	return vm.month
}

// DeriveDay derives the display state of one date against the current time
func (vm *ViewModel) DeriveDay(date time.Time, rec *DayRecord) DayDisplayState {
	vm.mu.RLock()
	deriver, now := vm.deriver, vm.now
	vm.mu.RUnlock()

	return deriver.Derive(date, rec, dateutil.StartOfDay(now()))
}

// Days derives every day of the shown month from the held records.
// All days are derived before returning, so a render never mixes generations.
func (vm *ViewModel) Days() []DayDisplayState {
	vm.mu.RLock()
	w, month, deriver, now := vm.window, vm.month, vm.deriver, vm.now
	vm.mu.RUnlock()

	today := dateutil.StartOfDay(now())
	days := w.Days()
	states := make([]DayDisplayState, 0, len(days))
	for _, day := range days {
		states = append(states, deriver.Derive(day, month.Lookup(day), today))
	}
	return states
}

// SubmitSingleEdit sends the edit form of one date. Nothing held locally changes;
// call Load afterwards to see the result.
func (vm *ViewModel) SubmitSingleEdit(ctx context.Context, date time.Time, form FormValues) Outcome {
	req := UpdateDayRequest{
		Date:        dateutil.FormatDate(date),
		IsAvailable: form.IsAvailable,
		IsBlocked:   !form.IsOpen,
		Price:       form.Price,
		MinimumStay: form.MinimumStay,
	}

	switch vm.Kind() {
	case Accommodation:
		req.TotalRooms = Ptr(form.TotalRooms)
		req.RoomsBlocked = Ptr(form.RoomsBlocked)
	case Tour:
		// Room counts do not apply to tours
	}

	resp, err := vm.service.UpdateDay(ctx, req)
	if err != nil {
		return vm.failure(err, MsgUpdateFailed)
	}

	message := resp.Message
	if message == "" {
		message = "Date updated successfully"
	}
	return Outcome{Success: true, DatesUpdated: 1, Message: message}
}

// SubmitBulkEdit applies updates to every date of start..end (inclusive) in one request.
// The range is not validated here.
func (vm *ViewModel) SubmitBulkEdit(ctx context.Context, start, end time.Time, updates BulkUpdates) Outcome {
	req := BulkUpdateRequest{
		StartDate:     dateutil.FormatDate(start),
		EndDate:       dateutil.FormatDate(end),
		IsAvailable:   updates.IsAvailable,
		Price:         updates.Price,
		MinimumStay:   updates.MinimumStay,
		OriginalPrice: updates.OriginalPrice,
		MaximumStay:   updates.MaximumStay,
		IsSpecialRate: updates.IsSpecialRate,
		RateType:      updates.RateType,
		RateNote:      updates.RateNote,
		UpdateType:    updates.UpdateType,
		Notes:         updates.Notes,
	}
	if updates.IsOpen != nil {
		req.IsBlocked = Ptr(!*updates.IsOpen)
	}

	switch vm.Kind() {
	case Accommodation:
		req.TotalRooms = updates.TotalRooms
		req.RoomsBlocked = updates.RoomsBlocked
	case Tour:
		// Room counts do not apply to tours
	}

	resp, err := vm.service.BulkUpdate(ctx, req)
	if err != nil {
		return vm.failure(err, MsgBulkUpdateFailed)
	}

	return Outcome{
		Success:      true,
		DatesUpdated: resp.DatesUpdated,
		Message:      fmt.Sprintf("Updated %d dates", resp.DatesUpdated),
	}
}

func (vm *ViewModel) failure(err error, fallback string) Outcome {
	message := FailureMessage(err, fallback)
	vm.logger.Warn("Calendar edit failed",
		zap.String("message", message),
		zap.Error(err))

	return Outcome{Message: message, Err: err}
}

// FailureMessage returns the server-provided message carried by err, or fallback
func FailureMessage(err error, fallback string) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Message != "" {
		return serviceErr.Message
	}
	return fallback
}

package calendar

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeService struct {
	fetchResp *CalendarResponse
	fetchErr  error
	updateRes *UpdateResponse
	updateErr error

	fetchCalls [][2]string
	updateReqs []UpdateDayRequest
	bulkReqs   []BulkUpdateRequest
}

func (f *fakeService) FetchCalendar(_ context.Context, start, end string) (*CalendarResponse, error) {
	f.fetchCalls = append(f.fetchCalls, [2]string{start, end})
	return f.fetchResp, f.fetchErr
}

func (f *fakeService) UpdateDay(_ context.Context, req UpdateDayRequest) (*UpdateResponse, error) {
	f.updateReqs = append(f.updateReqs, req)
	return f.updateRes, f.updateErr
}

func (f *fakeService) BulkUpdate(_ context.Context, req BulkUpdateRequest) (*UpdateResponse, error) {
	f.bulkReqs = append(f.bulkReqs, req)
	return f.updateRes, f.updateErr
}

func newTestViewModel(svc Service, kind ListingKind, now time.Time) *ViewModel {
	vm := NewViewModel(svc, kind, zap.NewNop())
	vm.SetClock(func() time.Time { return now })
	return vm
}

func TestViewModel_Navigation(t *testing.T) {
	vm := newTestViewModel(&fakeService{}, Accommodation, time.Date(2024, time.December, 15, 10, 0, 0, 0, time.Local))

	assert.Equal(t, Window{Year: 2024, Month: 11}, vm.Window())
	assert.Equal(t, Window{Year: 2025, Month: 0}, vm.Next())
	assert.Equal(t, Window{Year: 2025, Month: 1}, vm.Next())
	assert.Equal(t, Window{Year: 2025, Month: 0}, vm.Previous())

	vm.SetWindow(Window{Year: 2023, Month: -1})
	assert.Equal(t, Window{Year: 2022, Month: 11}, vm.Window())

	assert.Equal(t, Window{Year: 2024, Month: 11}, vm.Today())
}

func TestViewModel_LoadQueriesWindowRange(t *testing.T) {
	svc := &fakeService{fetchResp: &CalendarResponse{Success: true}}
	vm := newTestViewModel(svc, Accommodation, time.Date(2024, time.January, 20, 0, 0, 0, 0, time.Local))
	vm.SetWindow(Window{Year: 2024, Month: 1})

	month, err := vm.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][2]string{{"2024-02-01", "2024-02-29"}}, svc.fetchCalls)
	assert.Equal(t, "2024-02-01", month.Start)
	assert.Equal(t, "2024-02-29", month.End)
	assert.Same(t, month, vm.Month())
}

func TestViewModel_LoadReplacesWholesale(t *testing.T) {
	svc := &fakeService{fetchResp: &CalendarResponse{
		Success: true,
		Calendar: []DayRecord{
			{Date: "2024-03-11", IsAvailable: Ptr(true), Price: Ptr(Price(80))},
			{Date: "2024-03-12", IsBlocked: Ptr(true)},
		},
	}}
	vm := newTestViewModel(svc, Accommodation, time.Date(2024, time.March, 10, 9, 0, 0, 0, time.Local))

	_, err := vm.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, vm.Month().Len())

	svc.fetchResp = &CalendarResponse{
		Success:  true,
		Calendar: []DayRecord{{Date: "2024-03-13", IsFullyBooked: Ptr(true)}},
	}
	_, err = vm.Load(context.Background())
	require.NoError(t, err)

	month := vm.Month()
	assert.Equal(t, 1, month.Len())
	assert.Nil(t, month.Lookup(time.Date(2024, time.March, 11, 0, 0, 0, 0, time.Local)))
	assert.NotNil(t, month.Lookup(time.Date(2024, time.March, 13, 0, 0, 0, 0, time.Local)))
}

func TestViewModel_LoadFailureKeepsPreviousMonth(t *testing.T) {
	svc := &fakeService{fetchResp: &CalendarResponse{
		Success:  true,
		Calendar: []DayRecord{{Date: "2024-03-11", IsAvailable: Ptr(true)}},
	}}
	vm := newTestViewModel(svc, Accommodation, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.Local))

	first, err := vm.Load(context.Background())
	require.NoError(t, err)

	svc.fetchResp = nil
	svc.fetchErr = fmt.Errorf("failed to fetch calendar: %w", &ServiceError{StatusCode: 403, Message: "not your listing"})

	_, err = vm.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not your listing")
	assert.Same(t, first, vm.Month())
}

func TestViewModel_Days(t *testing.T) {
	svc := &fakeService{fetchResp: &CalendarResponse{
		Success: true,
		Calendar: []DayRecord{
			{Date: "2024-03-09", IsAvailable: Ptr(true), Price: Ptr(Price(60))},
			{Date: "2024-03-10", IsBlocked: Ptr(true), Price: Ptr(Price(100))},
			{Date: "2024-03-11", IsAvailable: Ptr(true), Price: Ptr(Price(80)), RoomsAvailable: Ptr(2)},
			{Date: "2024-03-12", IsFullyBooked: Ptr(true), RoomsAvailable: Ptr(0)},
		},
	}}
	vm := newTestViewModel(svc, Accommodation, time.Date(2024, time.March, 10, 18, 30, 0, 0, time.Local))

	_, err := vm.Load(context.Background())
	require.NoError(t, err)

	days := vm.Days()
	require.Len(t, days, 31)

	assert.Equal(t, StatusPast, days[8].Status)
	assert.Empty(t, days[8].PriceLabel)

	assert.Equal(t, StatusBlocked, days[9].Status)
	assert.Equal(t, LabelBlocked, days[9].PriceLabel)
	assert.True(t, days[9].IsToday)

	assert.Equal(t, StatusAvailable, days[10].Status)
	assert.Equal(t, "$80", days[10].PriceLabel)
	assert.Equal(t, "2 left", days[10].CapacityLabel)

	assert.Equal(t, StatusFullyBooked, days[11].Status)
	assert.Equal(t, "0 left", days[11].CapacityLabel)

	// No record for the rest of the month
	assert.Equal(t, StatusClosed, days[30].Status)
	assert.Equal(t, LabelClosed, days[30].PriceLabel)

	counts := Summarize(days)
	assert.Equal(t, 9, counts[StatusPast])
	assert.Equal(t, 19, counts[StatusClosed])
}

func TestViewModel_DaysBeforeLoad(t *testing.T) {
	vm := newTestViewModel(&fakeService{}, Tour, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.Local))

	days := vm.Days()
	require.Len(t, days, 29)
	for _, d := range days {
		assert.Equal(t, StatusClosed, d.Status)
	}
}

func TestViewModel_DeriveDayUsesClock(t *testing.T) {
	vm := newTestViewModel(&fakeService{}, Accommodation, time.Date(2024, time.March, 10, 23, 59, 0, 0, time.Local))
	vm.SetCurrencySymbol("€")

	rec := &DayRecord{IsAvailable: Ptr(true), Price: Ptr(Price(12.5))}

	past := vm.DeriveDay(time.Date(2024, time.March, 9, 12, 0, 0, 0, time.Local), rec)
	assert.Equal(t, StatusPast, past.Status)

	future := vm.DeriveDay(time.Date(2024, time.March, 11, 0, 0, 0, 0, time.Local), rec)
	assert.Equal(t, StatusAvailable, future.Status)
	assert.Equal(t, "€12.50", future.PriceLabel)
}

func TestViewModel_SubmitSingleEdit(t *testing.T) {
	svc := &fakeService{updateRes: &UpdateResponse{Success: true}}
	vm := newTestViewModel(svc, Accommodation, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local))

	outcome := vm.SubmitSingleEdit(context.Background(), time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local), FormValues{
		IsOpen:       false,
		IsAvailable:  true,
		Price:        120,
		MinimumStay:  2,
		TotalRooms:   5,
		RoomsBlocked: 1,
	})

	assert.True(t, outcome.Success)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, "Date updated successfully", outcome.Message)

	require.Len(t, svc.updateReqs, 1)
	req := svc.updateReqs[0]
	assert.Equal(t, "2024-03-05", req.Date)
	assert.True(t, req.IsAvailable)
	assert.True(t, req.IsBlocked)
	assert.Equal(t, 120.0, req.Price)
	assert.Equal(t, 2, req.MinimumStay)
	require.NotNil(t, req.TotalRooms)
	require.NotNil(t, req.RoomsBlocked)
	assert.Equal(t, 5, *req.TotalRooms)
	assert.Equal(t, 1, *req.RoomsBlocked)

	// Nothing is applied locally
	assert.Nil(t, vm.Month())
}

func TestViewModel_SubmitSingleEditTourOmitsRooms(t *testing.T) {
	svc := &fakeService{updateRes: &UpdateResponse{Success: true}}
	vm := newTestViewModel(svc, Tour, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local))

	outcome := vm.SubmitSingleEdit(context.Background(), time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local), FormValues{
		IsOpen: true, IsAvailable: true, Price: 40, MinimumStay: 1, TotalRooms: 3,
	})

	require.True(t, outcome.Success)
	require.Len(t, svc.updateReqs, 1)
	assert.False(t, svc.updateReqs[0].IsBlocked)
	assert.Nil(t, svc.updateReqs[0].TotalRooms)
	assert.Nil(t, svc.updateReqs[0].RoomsBlocked)
}

func TestViewModel_SubmitSingleEditFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			"Service message",
			fmt.Errorf("failed to update 2024-03-05: %w", &ServiceError{StatusCode: 200, Message: "locked"}),
			"locked",
		},
		{
			"Service without message",
			&ServiceError{StatusCode: 500},
			MsgUpdateFailed,
		},
		{
			"Network",
			&NetworkError{Op: "HTTP request failed", Err: errors.New("connection refused")},
			MsgUpdateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{updateErr: tt.err}
			vm := newTestViewModel(svc, Accommodation, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local))

			outcome := vm.SubmitSingleEdit(context.Background(), time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local), FormValues{IsOpen: true, MinimumStay: 1})

			assert.False(t, outcome.Success)
			assert.Equal(t, tt.wantMsg, outcome.Message)
			assert.ErrorIs(t, outcome.Err, tt.err)
			assert.Len(t, svc.updateReqs, 1)
		})
	}
}

func TestViewModel_SubmitBulkEdit(t *testing.T) {
	svc := &fakeService{updateRes: &UpdateResponse{Success: true, DatesUpdated: 7}}
	vm := newTestViewModel(svc, Accommodation, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.Local))

	outcome := vm.SubmitBulkEdit(context.Background(),
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, time.March, 7, 0, 0, 0, 0, time.Local),
		BulkUpdates{Price: Ptr(50.0)})

	assert.True(t, outcome.Success)
	assert.Equal(t, 7, outcome.DatesUpdated)
	assert.Equal(t, "Updated 7 dates", outcome.Message)

	require.Len(t, svc.bulkReqs, 1)
	req := svc.bulkReqs[0]
	assert.Equal(t, "2024-03-01", req.StartDate)
	assert.Equal(t, "2024-03-07", req.EndDate)
	require.NotNil(t, req.Price)
	assert.Equal(t, 50.0, *req.Price)
	assert.Nil(t, req.IsBlocked)
	assert.Nil(t, req.IsAvailable)
	assert.Nil(t, req.MinimumStay)
}

func TestViewModel_SubmitBulkEditMapsOpenAndKind(t *testing.T) {
	svc := &fakeService{updateRes: &UpdateResponse{Success: true, DatesUpdated: 3}}
	vm := newTestViewModel(svc, Tour, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.Local))

	vm.SubmitBulkEdit(context.Background(),
		time.Date(2024, time.March, 3, 0, 0, 0, 0, time.Local),
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local),
		BulkUpdates{IsOpen: Ptr(false), TotalRooms: Ptr(4), Notes: "maintenance"})

	require.Len(t, svc.bulkReqs, 1)
	req := svc.bulkReqs[0]
	// Reversed range is forwarded unchanged
	assert.Equal(t, "2024-03-03", req.StartDate)
	assert.Equal(t, "2024-03-01", req.EndDate)
	require.NotNil(t, req.IsBlocked)
	assert.True(t, *req.IsBlocked)
	assert.Nil(t, req.TotalRooms)
	assert.Equal(t, "maintenance", req.Notes)
}

func TestViewModel_SubmitBulkEditFailure(t *testing.T) {
	svc := &fakeService{updateErr: &NetworkError{Op: "parse response", Err: errors.New("unexpected EOF")}}
	vm := newTestViewModel(svc, Accommodation, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.Local))

	outcome := vm.SubmitBulkEdit(context.Background(),
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, time.March, 7, 0, 0, 0, 0, time.Local),
		BulkUpdates{Price: Ptr(50.0)})

	assert.False(t, outcome.Success)
	assert.Equal(t, MsgBulkUpdateFailed, outcome.Message)
	assert.Zero(t, outcome.DatesUpdated)
}

func TestFormValuesFromRecord(t *testing.T) {
	tests := []struct {
		name string
		rec  *DayRecord
		want FormValues
	}{
		{
			"Missing record",
			nil,
			FormValues{IsOpen: true, IsAvailable: true, MinimumStay: 1, TotalRooms: 1},
		},
		{
			"Absent availability defaults to available",
			&DayRecord{Price: Ptr(Price(70))},
			FormValues{IsOpen: true, IsAvailable: true, Price: 70, MinimumStay: 1, TotalRooms: 1},
		},
		{
			"Full record",
			&DayRecord{
				IsBlocked: Ptr(true), IsAvailable: Ptr(false), Price: Ptr(Price(99.5)),
				MinimumStay: Ptr(3), TotalRooms: Ptr(6), RoomsBlocked: Ptr(2),
			},
			FormValues{IsOpen: false, IsAvailable: false, Price: 99.5, MinimumStay: 3, TotalRooms: 6, RoomsBlocked: 2},
		},
		{
			"Zero minimum stay and rooms fall back",
			&DayRecord{MinimumStay: Ptr(0), TotalRooms: Ptr(0)},
			FormValues{IsOpen: true, IsAvailable: true, MinimumStay: 1, TotalRooms: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormValuesFromRecord(tt.rec))
		})
	}
}

func TestMonth_TourSlotsLastWins(t *testing.T) {
	m := newMonth(Window{Year: 2024, Month: 2}, "2024-03-01", "2024-03-31", &CalendarResponse{
		Success: true,
		Tour:    &ListingRef{ID: 7, Name: "Old City Walk"},
		Calendar: []DayRecord{
			{Date: "2024-03-05", StartTime: Ptr("09:00:00"), SpotsAvailable: Ptr(4)},
			{Date: "2024-03-05", StartTime: Ptr("14:00:00"), SpotsAvailable: Ptr(9)},
			{Date: "2024-03-02", SpotsAvailable: Ptr(1)},
		},
	})

	require.NotNil(t, m.Listing)
	assert.Equal(t, "Old City Walk", m.Listing.Name)
	assert.Equal(t, 2, m.Len())

	rec := m.Lookup(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local))
	require.NotNil(t, rec)
	assert.Equal(t, 9, *rec.SpotsAvailable)

	records := m.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "2024-03-02", records[0].Date)
}

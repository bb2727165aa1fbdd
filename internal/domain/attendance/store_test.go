package attendance

import (
	"errors"
	"sync"
	"testing"
	"time"

	"hrms/internal/platform/filedb"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := filedb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return NewStore(db)
}

func TestCheckInCheckOutFullDay(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	rec, err := store.CheckIn("u1", start)
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if rec.Status != StatusPresent {
		t.Fatalf("expected status Present after check-in, got %q", rec.Status)
	}
	if rec.CheckIn == nil || !rec.CheckIn.Equal(start) {
		t.Fatalf("check-in time not recorded: %+v", rec)
	}

	rec, err = store.CheckOut("u1", start.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("check-out failed: %v", err)
	}
	if rec.HoursWorked == nil || *rec.HoursWorked != 5.0 {
		t.Fatalf("expected 5 hours worked, got %+v", rec.HoursWorked)
	}
	if rec.Status != StatusPresent {
		t.Fatalf("5h span must stay Present, got %q", rec.Status)
	}
}

func TestCheckOutShortSpanIsHalfDay(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, err := store.CheckIn("u1", start); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	rec, err := store.CheckOut("u1", start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("check-out failed: %v", err)
	}
	if rec.Status != StatusHalfDay {
		t.Fatalf("2h span should be Half-day, got %q", rec.Status)
	}
	if rec.HoursWorked == nil || *rec.HoursWorked != 2.0 {
		t.Fatalf("expected 2 hours worked, got %+v", rec.HoursWorked)
	}
}

func TestDoubleCheckInRejected(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, err := store.CheckIn("u1", now); err != nil {
		t.Fatalf("first check-in failed: %v", err)
	}
	_, err := store.CheckIn("u1", now.Add(time.Hour))
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got: %v", err)
	}
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)

	_, err := store.CheckOut("u1", now)
	if !errors.Is(err, ErrNotCheckedIn) {
		t.Fatalf("expected ErrNotCheckedIn, got: %v", err)
	}
}

func TestDoubleCheckOutRejected(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, err := store.CheckIn("u1", start); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if _, err := store.CheckOut("u1", start.Add(8*time.Hour)); err != nil {
		t.Fatalf("check-out failed: %v", err)
	}
	_, err := store.CheckOut("u1", start.Add(9*time.Hour))
	if !errors.Is(err, ErrAlreadyCheckedOut) {
		t.Fatalf("expected ErrAlreadyCheckedOut, got: %v", err)
	}
}

func TestConcurrentCheckInsCreateOneRecord(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = store.CheckIn("u1", now)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, ErrAlreadyCheckedIn) {
			t.Fatalf("unexpected error from concurrent check-in: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one successful check-in, got %d", ok)
	}

	records, err := store.List(Query{UserID: "u1"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record for the day, got %d", len(records))
	}
}

func TestCheckInReusesLeaveMarkedDay(t *testing.T) {
	store := newTestStore(t)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	marked, err := store.MarkLeaveDay("u1", day)
	if err != nil {
		t.Fatalf("mark leave day failed: %v", err)
	}

	rec, err := store.CheckIn("u1", day.Add(9*time.Hour))
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if rec.ID != marked.ID {
		t.Fatal("check-in created a second record for an already-marked day")
	}
	if rec.Status != StatusPresent {
		t.Fatalf("check-in should set status Present, got %q", rec.Status)
	}
}

func TestMarkLeaveDayPreservesTimes(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, err := store.CheckIn("u1", start); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if _, err := store.CheckOut("u1", start.Add(3*time.Hour)); err != nil {
		t.Fatalf("check-out failed: %v", err)
	}

	rec, err := store.MarkLeaveDay("u1", start)
	if err != nil {
		t.Fatalf("mark leave day failed: %v", err)
	}
	if rec.Status != StatusLeave {
		t.Fatalf("expected status Leave, got %q", rec.Status)
	}
	if rec.CheckIn == nil || rec.CheckOut == nil || rec.HoursWorked == nil {
		t.Fatalf("marking leave dropped check-in/out data: %+v", rec)
	}
	if !rec.Date.Equal(DayOf(start)) {
		t.Fatalf("date not normalized to midnight: %v", rec.Date)
	}
}

func TestMarkLeaveDayIsIdempotentPerDay(t *testing.T) {
	store := newTestStore(t)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	first, err := store.MarkLeaveDay("u1", day)
	if err != nil {
		t.Fatalf("first mark failed: %v", err)
	}
	second, err := store.MarkLeaveDay("u1", day.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("second mark failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("same day marked twice produced two records")
	}

	records, err := store.List(Query{UserID: "u1"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
}

func TestListRangeAndOrder(t *testing.T) {
	store := newTestStore(t)
	for _, day := range []int{8, 10, 12} {
		d := time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)
		if _, err := store.MarkLeaveDay("u1", d); err != nil {
			t.Fatalf("mark failed: %v", err)
		}
	}

	records, err := store.List(Query{
		UserID: "u1",
		From:   time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in range, got %d", len(records))
	}
	if !records[0].Date.After(records[1].Date) {
		t.Fatal("records not sorted by date descending")
	}
}

func TestUpdateByIDValidatesStatus(t *testing.T) {
	store := newTestStore(t)
	rec, err := store.MarkLeaveDay("u1", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	bogus := "OnVacation"
	if _, err := store.UpdateByID(rec.ID, Patch{Status: &bogus}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got: %v", err)
	}

	absent := StatusAbsent
	updated, err := store.UpdateByID(rec.ID, Patch{Status: &absent})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != StatusAbsent {
		t.Fatalf("status not updated: %q", updated.Status)
	}
}

func TestOnDayMatchesOffsetTimestamps(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		ts   time.Time
		want bool
	}{
		{time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC), true},
		{time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := OnDay(tc.ts, day); got != tc.want {
			t.Fatalf("OnDay(%v, %v) = %v, want %v", tc.ts, day, got, tc.want)
		}
	}
}

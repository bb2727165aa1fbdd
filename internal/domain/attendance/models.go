package attendance

import "time"

const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
	StatusHalfDay = "Half-day"
	StatusLeave   = "Leave"
)

const Collection = "attendance"

// Spans shorter than this at check-out are marked Half-day.
const HalfDayThresholdHours = 4.0

// Record is one user's attendance for one calendar day; the (userId, day)
// pair is unique across the collection.
type Record struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Date        time.Time  `json:"date"`
	CheckIn     *time.Time `json:"checkIn,omitempty"`
	CheckOut    *time.Time `json:"checkOut,omitempty"`
	HoursWorked *float64   `json:"hoursWorked,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// DayOf truncates t to UTC midnight, the canonical day key.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// OnDay reports whether ts belongs to the calendar day starting at day.
// Primary predicate is the [dayStart, dayStart+24h) range; calendar-date
// equality covers records stored with a sub-day offset.
func OnDay(ts, day time.Time) bool {
	start := DayOf(day)
	ts = ts.UTC()
	if !ts.Before(start) && ts.Before(start.Add(24*time.Hour)) {
		return true
	}
	return ts.Format("2006-01-02") == start.Format("2006-01-02")
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPresent, StatusAbsent, StatusHalfDay, StatusLeave:
		return true
	}
	return false
}

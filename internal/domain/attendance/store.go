package attendance

import (
	"math"
	"sort"
	"time"

	"hrms/internal/platform/filedb"
	"hrms/internal/platform/ident"
)

type Store struct {
	col *filedb.Collection[Record]
}

func NewStore(db *filedb.Store) *Store {
	return &Store{col: filedb.NewCollection[Record](db, Collection)}
}

func (s *Store) FindByID(id string) (Record, error) {
	rec, ok, err := s.col.FindOne(func(r Record) bool { return r.ID == id })
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// FindForDay returns the user's record for the calendar day containing day.
func (s *Store) FindForDay(userID string, day time.Time) (Record, bool, error) {
	day = DayOf(day)
	return s.col.FindOne(func(r Record) bool {
		return r.UserID == userID && OnDay(r.Date, day)
	})
}

type Query struct {
	UserID string
	From   time.Time
	To     time.Time
}

// List returns matching records sorted by date descending. The range filter
// is inclusive on both ends.
func (s *Store) List(q Query) ([]Record, error) {
	records, err := s.col.Find(func(r Record) bool {
		if q.UserID != "" && r.UserID != q.UserID {
			return false
		}
		if !q.From.IsZero() && r.Date.Before(DayOf(q.From)) {
			return false
		}
		if !q.To.IsZero() && r.Date.After(DayOf(q.To).Add(24*time.Hour-time.Nanosecond)) {
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
	return records, nil
}

// CheckIn records the user's check-in for now's calendar day. The whole
// lookup-or-create runs as one mutation, so concurrent check-ins for the same
// day cannot produce two records. A pre-marked day record (for example one
// synthesized by leave approval) is reused rather than duplicated.
func (s *Store) CheckIn(userID string, now time.Time) (Record, error) {
	day := DayOf(now)
	var out Record
	err := s.col.Mutate(func(records []Record) ([]Record, error) {
		for i := range records {
			if records[i].UserID != userID || !OnDay(records[i].Date, day) {
				continue
			}
			if records[i].CheckIn != nil {
				return nil, ErrAlreadyCheckedIn
			}
			checkIn := now
			records[i].CheckIn = &checkIn
			records[i].Status = StatusPresent
			out = records[i]
			return records, nil
		}
		checkIn := now
		rec := Record{
			ID:        ident.New(),
			UserID:    userID,
			Date:      day,
			CheckIn:   &checkIn,
			Status:    StatusPresent,
			CreatedAt: now.UTC(),
		}
		out = rec
		return append(records, rec), nil
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

// CheckOut closes today's record, deriving hoursWorked and downgrading the
// status to Half-day for short spans.
func (s *Store) CheckOut(userID string, now time.Time) (Record, error) {
	day := DayOf(now)
	var out Record
	err := s.col.Mutate(func(records []Record) ([]Record, error) {
		for i := range records {
			if records[i].UserID != userID || !OnDay(records[i].Date, day) {
				continue
			}
			if records[i].CheckIn == nil {
				return nil, ErrNotCheckedIn
			}
			if records[i].CheckOut != nil {
				return nil, ErrAlreadyCheckedOut
			}
			checkOut := now
			hours := math.Round(now.Sub(*records[i].CheckIn).Hours()*100) / 100
			records[i].CheckOut = &checkOut
			records[i].HoursWorked = &hours
			if hours < HalfDayThresholdHours {
				records[i].Status = StatusHalfDay
			}
			out = records[i]
			return records, nil
		}
		return nil, ErrNotCheckedIn
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

type Patch struct {
	Status *string
	Date   *time.Time
}

func (s *Store) UpdateByID(id string, patch Patch) (Record, error) {
	if patch.Status != nil && !ValidStatus(*patch.Status) {
		return Record{}, ErrInvalidStatus
	}
	updated, ok, err := s.col.Update(
		func(r Record) bool { return r.ID == id },
		func(r *Record) {
			if patch.Status != nil {
				r.Status = *patch.Status
			}
			if patch.Date != nil {
				r.Date = DayOf(*patch.Date)
			}
		},
	)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNotFound
	}
	return updated, nil
}

// MarkLeaveDay upserts the (userID, day) record with status Leave. An
// existing record keeps its check-in/out times and hoursWorked; only status
// and the normalized date are forced.
func (s *Store) MarkLeaveDay(userID string, day time.Time) (Record, error) {
	day = DayOf(day)
	var out Record
	err := s.col.Mutate(func(records []Record) ([]Record, error) {
		for i := range records {
			if records[i].UserID == userID && OnDay(records[i].Date, day) {
				records[i].Status = StatusLeave
				records[i].Date = day
				out = records[i]
				return records, nil
			}
		}
		rec := Record{
			ID:        ident.New(),
			UserID:    userID,
			Date:      day,
			Status:    StatusLeave,
			CreatedAt: time.Now().UTC(),
		}
		out = rec
		return append(records, rec), nil
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

package leave

import (
	"context"
	"fmt"
	"time"

	"hrms/internal/domain/attendance"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type Service struct {
	store      *Store
	attendance *attendance.Store
}

func NewService(store *Store, attendanceStore *attendance.Store) *Service {
	return &Service{store: store, attendance: attendanceStore}
}

func (s *Service) Store() *Store { return s.store }

func (s *Service) Apply(ctx context.Context, userID, leaveType string, from, to time.Time, remarks string) (Request, error) {
	from = attendance.DayOf(from)
	to = attendance.DayOf(to)
	if to.Before(from) {
		return Request{}, ErrInvalidRange
	}
	if from.Before(attendance.DayOf(time.Now())) {
		return Request{}, ErrPastDate
	}
	return s.store.Create(Request{
		UserID:  userID,
		Type:    leaveType,
		From:    from,
		To:      to,
		Remarks: remarks,
		Status:  StatusPending,
	})
}

// Decide resolves a pending request and, on approval, reconciles the user's
// attendance: every calendar day in [from, to] gets a record with status
// Leave. The day loop is not transactional; if marking a day fails, earlier
// days stay marked and the error reports where the loop stopped.
func (s *Service) Decide(ctx context.Context, leaveID, approverID, action, comments string) (Request, error) {
	var status string
	switch action {
	case ActionApprove:
		status = StatusApproved
	case ActionReject:
		status = StatusRejected
	default:
		return Request{}, ErrInvalidAction
	}

	req, err := s.store.Decide(leaveID, status, approverID, comments)
	if err != nil {
		return Request{}, err
	}

	if req.Status == StatusApproved {
		from := attendance.DayOf(req.From)
		to := attendance.DayOf(req.To)
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if _, err := s.attendance.MarkLeaveDay(req.UserID, d); err != nil {
				return req, fmt.Errorf("mark leave day %s: %w", d.Format("2006-01-02"), err)
			}
		}
	}
	return req, nil
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	requests, err := s.store.List(Query{UserID: userID})
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Total: len(requests)}
	for _, req := range requests {
		switch req.Status {
		case StatusPending:
			stats.Pending++
		case StatusApproved:
			stats.Approved++
		case StatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

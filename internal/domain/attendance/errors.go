package attendance

import "errors"

var (
	ErrNotFound          = errors.New("attendance record not found")
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
	ErrNotCheckedIn      = errors.New("check in required before check out")
	ErrInvalidStatus     = errors.New("invalid attendance status")
)

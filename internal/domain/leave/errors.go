package leave

import "errors"

var (
	ErrNotFound         = errors.New("leave not found")
	ErrAlreadyProcessed = errors.New("leave already processed")
	ErrInvalidRange     = errors.New("from date must be before to date")
	ErrPastDate         = errors.New("cannot apply leave for past dates")
	ErrInvalidAction    = errors.New("invalid action")
)

package errs

import "errors"

var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrStudentNotFound = errors.New("student not found")
	// ErrIncompleteDraft: черновик без категории не может стать тикетом.
	ErrIncompleteDraft = errors.New("draft has no category")
)

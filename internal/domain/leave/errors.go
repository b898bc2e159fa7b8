package leave

import "errors"

type Kind int

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindInvalidInput
)

// Error is a business rule failure. Callers attach detail with fmt.Errorf("%w: ...").
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrEmployeeNotFound    = &Error{Kind: KindNotFound, Code: "employee_not_found", Message: "employee not found"}
	ErrLeaveNotFound       = &Error{Kind: KindNotFound, Code: "leave_not_found", Message: "leave request not found"}
	ErrDuplicateEmployee   = &Error{Kind: KindConflict, Code: "duplicate_employee", Message: "email already registered"}
	ErrInsufficientBalance = &Error{Kind: KindConflict, Code: "insufficient_balance", Message: "insufficient leave balance"}
	ErrOverlappingRequest  = &Error{Kind: KindConflict, Code: "overlapping_request", Message: "overlapping leave request exists"}
	ErrOverlappingApproved = &Error{Kind: KindConflict, Code: "overlapping_approved", Message: "overlaps with an already approved leave"}
	ErrNotPending          = &Error{Kind: KindConflict, Code: "not_pending", Message: "only pending requests can be decided"}
	ErrInvalidDateRange    = &Error{Kind: KindInvalidInput, Code: "invalid_date_range", Message: "invalid dates: start_date after end_date"}
	ErrPreJoiningLeave     = &Error{Kind: KindInvalidInput, Code: "pre_joining_leave", Message: "cannot apply for leave before joining date"}
	ErrInvalidBalance      = &Error{Kind: KindInvalidInput, Code: "invalid_balance", Message: "leave balance must be between 0 and 2147483647"}
)

// AsError extracts the business error carried by err, if any.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

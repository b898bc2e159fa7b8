package leave

import (
	"math"
	"time"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Active reports whether a request in this status still blocks its date range.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

const DefaultLeaveBalance = 20

// MaxLeaveBalance matches the INTEGER column that stores balances.
const MaxLeaveBalance = math.MaxInt32

type Employee struct {
	ID           string
	Name         string
	Email        string
	Department   *string
	JoiningDate  time.Time
	LeaveBalance int
	CreatedAt    time.Time
}

type LeaveRequest struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	Reason     *string
	Status     Status
	CreatedAt  time.Time
}

// Days returns the inclusive number of leave days the request covers. Stored requests
// always have start <= end (ApplyLeave checks it and chk_leave_range enforces it), so
// 0 only appears for a request that never went through the ledger. Use InclusiveDays
// where an inverted range must surface as an error.
func (r LeaveRequest) Days() int {
	days, err := InclusiveDays(r.StartDate, r.EndDate)
	if err != nil {
		return 0
	}
	return days
}

type RegisterEmployeeInput struct {
	Name        string
	Email       string
	Department  *string
	JoiningDate time.Time
	// LeaveBalance falls back to DefaultLeaveBalance only when nil; an explicit zero is kept.
	LeaveBalance *int
}

type ApplyLeaveInput struct {
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	Reason     *string
}

type StatementLine struct {
	Request LeaveRequest
	Days    int
}

type Statement struct {
	Employee    Employee
	Lines       []StatementLine
	DaysTaken   int
	DaysPending int
	GeneratedAt time.Time
}

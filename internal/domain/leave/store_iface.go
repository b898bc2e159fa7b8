package leave

import "context"

// Store is the record store behind the ledger. Every ledger operation runs inside
// exactly one Transact or View call; an error returned from fn discards all of its writes.
type Store interface {
	Transact(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
}

// Tx is the unit of work handed to Transact and View. Lookups by id inside Transact
// hold the row until the transaction ends.
type Tx interface {
	FindEmployeeByID(ctx context.Context, id string) (Employee, error)
	FindEmployeeByEmail(ctx context.Context, email string) (Employee, error)
	CreateEmployee(ctx context.Context, employee Employee) error
	UpdateEmployeeBalance(ctx context.Context, id string, balance int) error
	ListEmployees(ctx context.Context) ([]Employee, error)
	FindLeaveByID(ctx context.Context, id string) (LeaveRequest, error)
	FindLeavesByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	CreateLeave(ctx context.Context, request LeaveRequest) error
	UpdateLeaveStatus(ctx context.Context, id string, status Status) error
}

// Recorder receives one event per ledger call; outcome is "ok", an error code or "error".
type Recorder interface {
	RecordDecision(operation, outcome string)
}

package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leaveledger/internal/requestctx"
)

// Service is the leave ledger: it validates applications and decisions against the
// employee record and the employee's other requests, then persists them atomically.
type Service struct {
	store    Store
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger.Named("leave.service")
		}
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: zap.L().Named("leave.service"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) RegisterEmployee(ctx context.Context, in RegisterEmployeeInput) (Employee, error) {
	const op = "register_employee"
	email := strings.ToLower(strings.TrimSpace(in.Email))
	s.logger.Debug("register employee requested",
		requestctx.Field(ctx),
		zap.String("email", email),
	)

	balance := DefaultLeaveBalance
	if in.LeaveBalance != nil {
		if *in.LeaveBalance < 0 || *in.LeaveBalance > MaxLeaveBalance {
			return Employee{}, s.fail(ctx, op, fmt.Errorf("%w: got %d", ErrInvalidBalance, *in.LeaveBalance))
		}
		balance = *in.LeaveBalance
	}

	employee := Employee{
		ID:           s.newID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Department:   in.Department,
		JoiningDate:  NormalizeDate(in.JoiningDate),
		LeaveBalance: balance,
		CreatedAt:    s.now().UTC(),
	}

	err := s.store.Transact(ctx, func(ctx context.Context, tx Tx) error {
		_, err := tx.FindEmployeeByEmail(ctx, email)
		if err == nil {
			return ErrDuplicateEmployee
		}
		if !errors.Is(err, ErrEmployeeNotFound) {
			return err
		}
		return tx.CreateEmployee(ctx, employee)
	})
	if err != nil {
		return Employee{}, s.fail(ctx, op, err, zap.String("email", email))
	}

	s.succeed(ctx, op, zap.String("employee_id", employee.ID))
	return employee, nil
}

func (s *Service) ApplyLeave(ctx context.Context, in ApplyLeaveInput) (LeaveRequest, error) {
	const op = "apply_leave"
	start, end := NormalizeDate(in.StartDate), NormalizeDate(in.EndDate)
	s.logger.Debug("apply leave requested",
		requestctx.Field(ctx),
		zap.String("employee_id", in.EmployeeID),
		zap.Time("start_date", start),
		zap.Time("end_date", end),
	)

	var created LeaveRequest
	err := s.store.Transact(ctx, func(ctx context.Context, tx Tx) error {
		employee, err := tx.FindEmployeeByID(ctx, in.EmployeeID)
		if err != nil {
			return err
		}
		if start.After(end) {
			return ErrInvalidDateRange
		}
		if start.Before(employee.JoiningDate) {
			return fmt.Errorf("%w: joined on %s", ErrPreJoiningLeave, employee.JoiningDate.Format(time.DateOnly))
		}

		days, err := InclusiveDays(start, end)
		if err != nil {
			return err
		}
		if days > employee.LeaveBalance {
			return fmt.Errorf("%w: requested %d days, only %d available", ErrInsufficientBalance, days, employee.LeaveBalance)
		}

		existing, err := tx.FindLeavesByEmployee(ctx, employee.ID)
		if err != nil {
			return err
		}
		if other, ok := findOverlap(existing, start, end, func(r LeaveRequest) bool {
			return r.Status.Active()
		}); ok {
			return fmt.Errorf("%w: conflicts with %s request %s", ErrOverlappingRequest, strings.ToLower(string(other.Status)), other.ID)
		}

		created = LeaveRequest{
			ID:         s.newID(),
			EmployeeID: employee.ID,
			StartDate:  start,
			EndDate:    end,
			Reason:     in.Reason,
			Status:     StatusPending,
			CreatedAt:  s.now().UTC(),
		}
		return tx.CreateLeave(ctx, created)
	})
	if err != nil {
		return LeaveRequest{}, s.fail(ctx, op, err, zap.String("employee_id", in.EmployeeID))
	}

	s.succeed(ctx, op, zap.String("employee_id", created.EmployeeID), zap.String("leave_id", created.ID))
	return created, nil
}

func (s *Service) ApproveLeave(ctx context.Context, leaveID string) (LeaveRequest, error) {
	const op = "approve_leave"
	s.logger.Debug("approve leave requested",
		requestctx.Field(ctx),
		zap.String("leave_id", leaveID),
	)

	var approved LeaveRequest
	err := s.store.Transact(ctx, func(ctx context.Context, tx Tx) error {
		request, err := tx.FindLeaveByID(ctx, leaveID)
		if err != nil {
			return err
		}
		if request.Status != StatusPending {
			return fmt.Errorf("%w: request is %s", ErrNotPending, strings.ToLower(string(request.Status)))
		}

		employee, err := tx.FindEmployeeByID(ctx, request.EmployeeID)
		if err != nil {
			return err
		}
		days, err := InclusiveDays(request.StartDate, request.EndDate)
		if err != nil {
			return err
		}
		if days > employee.LeaveBalance {
			return fmt.Errorf("%w: requested %d days, only %d available", ErrInsufficientBalance, days, employee.LeaveBalance)
		}

		others, err := tx.FindLeavesByEmployee(ctx, employee.ID)
		if err != nil {
			return err
		}
		if other, ok := findOverlap(others, request.StartDate, request.EndDate, func(r LeaveRequest) bool {
			return r.ID != request.ID && r.Status == StatusApproved
		}); ok {
			return fmt.Errorf("%w: request %s", ErrOverlappingApproved, other.ID)
		}

		if err := tx.UpdateEmployeeBalance(ctx, employee.ID, employee.LeaveBalance-days); err != nil {
			return err
		}
		if err := tx.UpdateLeaveStatus(ctx, request.ID, StatusApproved); err != nil {
			return err
		}
		request.Status = StatusApproved
		approved = request
		return nil
	})
	if err != nil {
		return LeaveRequest{}, s.fail(ctx, op, err, zap.String("leave_id", leaveID))
	}

	s.succeed(ctx, op, zap.String("leave_id", approved.ID), zap.String("employee_id", approved.EmployeeID))
	return approved, nil
}

func (s *Service) RejectLeave(ctx context.Context, leaveID string) (LeaveRequest, error) {
	const op = "reject_leave"
	s.logger.Debug("reject leave requested",
		requestctx.Field(ctx),
		zap.String("leave_id", leaveID),
	)

	var rejected LeaveRequest
	err := s.store.Transact(ctx, func(ctx context.Context, tx Tx) error {
		request, err := tx.FindLeaveByID(ctx, leaveID)
		if err != nil {
			return err
		}
		if request.Status != StatusPending {
			return fmt.Errorf("%w: request is %s", ErrNotPending, strings.ToLower(string(request.Status)))
		}
		if err := tx.UpdateLeaveStatus(ctx, request.ID, StatusRejected); err != nil {
			return err
		}
		request.Status = StatusRejected
		rejected = request
		return nil
	})
	if err != nil {
		return LeaveRequest{}, s.fail(ctx, op, err, zap.String("leave_id", leaveID))
	}

	s.succeed(ctx, op, zap.String("leave_id", rejected.ID), zap.String("employee_id", rejected.EmployeeID))
	return rejected, nil
}

func (s *Service) GetBalance(ctx context.Context, employeeID string) (int, error) {
	var balance int
	err := s.store.View(ctx, func(ctx context.Context, tx Tx) error {
		employee, err := tx.FindEmployeeByID(ctx, employeeID)
		if err != nil {
			return err
		}
		balance = employee.LeaveBalance
		return nil
	})
	if err != nil {
		return 0, s.fail(ctx, "get_balance", err, zap.String("employee_id", employeeID))
	}
	return balance, nil
}

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	var employees []Employee
	err := s.store.View(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		employees, err = tx.ListEmployees(ctx)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "list_employees", err)
	}
	return employees, nil
}

func (s *Service) ListEmployeeLeaves(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := s.store.View(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.FindEmployeeByID(ctx, employeeID); err != nil {
			return err
		}
		var err error
		requests, err = tx.FindLeavesByEmployee(ctx, employeeID)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "list_employee_leaves", err, zap.String("employee_id", employeeID))
	}
	return requests, nil
}

// Statement collects an employee's balance and full request history in one read.
func (s *Service) Statement(ctx context.Context, employeeID string) (Statement, error) {
	var statement Statement
	err := s.store.View(ctx, func(ctx context.Context, tx Tx) error {
		employee, err := tx.FindEmployeeByID(ctx, employeeID)
		if err != nil {
			return err
		}
		requests, err := tx.FindLeavesByEmployee(ctx, employeeID)
		if err != nil {
			return err
		}

		statement = Statement{Employee: employee, GeneratedAt: s.now().UTC()}
		for _, r := range requests {
			days, err := InclusiveDays(r.StartDate, r.EndDate)
			if err != nil {
				return fmt.Errorf("leave request %s: %w", r.ID, err)
			}
			statement.Lines = append(statement.Lines, StatementLine{Request: r, Days: days})
			switch r.Status {
			case StatusApproved:
				statement.DaysTaken += days
			case StatusPending:
				statement.DaysPending += days
			}
		}
		return nil
	})
	if err != nil {
		return Statement{}, s.fail(ctx, "statement", err, zap.String("employee_id", employeeID))
	}
	return statement, nil
}

func (s *Service) fail(ctx context.Context, op string, err error, fields ...zap.Field) error {
	fields = append(fields,
		requestctx.Field(ctx),
		zap.String("operation", op),
	)
	if ledgerErr, ok := AsError(err); ok {
		s.logger.Warn(op+" refused", append(fields, zap.String("code", ledgerErr.Code), zap.String("reason", err.Error()))...)
		s.record(op, ledgerErr.Code)
		return err
	}
	s.logger.Error(op+" failed", append(fields, zap.Error(err))...)
	s.record(op, "error")
	return err
}

func (s *Service) succeed(ctx context.Context, op string, fields ...zap.Field) {
	s.logger.Info(op+" success", append(fields, requestctx.Field(ctx))...)
	s.record(op, "ok")
}

func (s *Service) record(op, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordDecision(op, outcome)
	}
}

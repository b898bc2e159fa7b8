package leave

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"leaveledger/internal/platform/querier"
)

const uniqueViolation = "23505"

type pgTx struct {
	q    querier.Querier
	lock bool
}

func (t *pgTx) forUpdate(query string) string {
	if t.lock {
		return query + " FOR UPDATE"
	}
	return query
}

const employeeColumns = `id, name, email, department, joining_date, leave_balance, created_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Department, &e.JoiningDate, &e.LeaveBalance, &e.CreatedAt); err != nil {
		return Employee{}, err
	}
	e.JoiningDate = NormalizeDate(e.JoiningDate)
	return e, nil
}

func (t *pgTx) FindEmployeeByID(ctx context.Context, id string) (Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Employee{}, ErrEmployeeNotFound
	}
	e, err := scanEmployee(t.q.QueryRow(ctx, t.forUpdate(`
    SELECT `+employeeColumns+`
    FROM employees
    WHERE id = $1`), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, err
}

func (t *pgTx) FindEmployeeByEmail(ctx context.Context, email string) (Employee, error) {
	e, err := scanEmployee(t.q.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE email = $1
  `, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, err
}

func (t *pgTx) CreateEmployee(ctx context.Context, employee Employee) error {
	_, err := t.q.Exec(ctx, `
    INSERT INTO employees (id, name, email, department, joining_date, leave_balance, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, employee.ID, employee.Name, employee.Email, employee.Department, employee.JoiningDate, employee.LeaveBalance, employee.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmployee
	}
	return err
}

func (t *pgTx) UpdateEmployeeBalance(ctx context.Context, id string, balance int) error {
	tag, err := t.q.Exec(ctx, `
    UPDATE employees SET leave_balance = $2 WHERE id = $1
  `, id, balance)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (t *pgTx) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := t.q.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    ORDER BY created_at, id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

const leaveColumns = `id, employee_id, start_date, end_date, reason, status, created_at`

func scanLeave(row pgx.Row) (LeaveRequest, error) {
	var (
		r      LeaveRequest
		status string
		start  time.Time
		end    time.Time
	)
	if err := row.Scan(&r.ID, &r.EmployeeID, &start, &end, &r.Reason, &status, &r.CreatedAt); err != nil {
		return LeaveRequest{}, err
	}
	r.StartDate = NormalizeDate(start)
	r.EndDate = NormalizeDate(end)
	r.Status = Status(status)
	return r, nil
}

func (t *pgTx) FindLeaveByID(ctx context.Context, id string) (LeaveRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequest{}, ErrLeaveNotFound
	}
	r, err := scanLeave(t.q.QueryRow(ctx, t.forUpdate(`
    SELECT `+leaveColumns+`
    FROM leave_requests
    WHERE id = $1`), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, ErrLeaveNotFound
	}
	return r, err
}

func (t *pgTx) FindLeavesByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	rows, err := t.q.Query(ctx, `
    SELECT `+leaveColumns+`
    FROM leave_requests
    WHERE employee_id = $1
    ORDER BY start_date, created_at
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]LeaveRequest, 0)
	for rows.Next() {
		r, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (t *pgTx) CreateLeave(ctx context.Context, request LeaveRequest) error {
	_, err := t.q.Exec(ctx, `
    INSERT INTO leave_requests (id, employee_id, start_date, end_date, reason, status, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, request.ID, request.EmployeeID, request.StartDate, request.EndDate, request.Reason, string(request.Status), request.CreatedAt)
	return err
}

func (t *pgTx) UpdateLeaveStatus(ctx context.Context, id string, status Status) error {
	tag, err := t.q.Exec(ctx, `
    UPDATE leave_requests SET status = $2 WHERE id = $1
  `, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeaveNotFound
	}
	return nil
}

package leave

import (
	"context"
	"errors"
	"slices"
	"sync"
)

var errReadOnly = errors.New("leave store: write attempted in read-only transaction")

// MemoryStore keeps records in process. Transactions are serialised and their writes
// are applied to a staged copy that replaces the live state only on commit.
type MemoryStore struct {
	mu    sync.RWMutex
	state memState
}

type memState struct {
	employees     map[string]Employee
	employeeOrder []string
	emails        map[string]string
	leaves        map[string]LeaveRequest
	byEmployee    map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: memState{
		employees:  make(map[string]Employee),
		emails:     make(map[string]string),
		leaves:     make(map[string]LeaveRequest),
		byEmployee: make(map[string][]string),
	}}
}

func (s *MemoryStore) Transact(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(ctx, &memTx{state: &staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = staged
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &memTx{state: &s.state, readOnly: true})
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m memState) clone() memState {
	out := memState{
		employees:     make(map[string]Employee, len(m.employees)),
		employeeOrder: slices.Clone(m.employeeOrder),
		emails:        make(map[string]string, len(m.emails)),
		leaves:        make(map[string]LeaveRequest, len(m.leaves)),
		byEmployee:    make(map[string][]string, len(m.byEmployee)),
	}
	for k, v := range m.employees {
		out.employees[k] = v
	}
	for k, v := range m.emails {
		out.emails[k] = v
	}
	for k, v := range m.leaves {
		out.leaves[k] = v
	}
	for k, v := range m.byEmployee {
		out.byEmployee[k] = slices.Clone(v)
	}
	return out
}

type memTx struct {
	state    *memState
	readOnly bool
}

func (t *memTx) FindEmployeeByID(ctx context.Context, id string) (Employee, error) {
	emp, ok := t.state.employees[id]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, nil
}

func (t *memTx) FindEmployeeByEmail(ctx context.Context, email string) (Employee, error) {
	id, ok := t.state.emails[email]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return t.state.employees[id], nil
}

func (t *memTx) CreateEmployee(ctx context.Context, employee Employee) error {
	if t.readOnly {
		return errReadOnly
	}
	if _, exists := t.state.emails[employee.Email]; exists {
		return ErrDuplicateEmployee
	}
	t.state.employees[employee.ID] = employee
	t.state.emails[employee.Email] = employee.ID
	t.state.employeeOrder = append(t.state.employeeOrder, employee.ID)
	return nil
}

func (t *memTx) UpdateEmployeeBalance(ctx context.Context, id string, balance int) error {
	if t.readOnly {
		return errReadOnly
	}
	emp, ok := t.state.employees[id]
	if !ok {
		return ErrEmployeeNotFound
	}
	emp.LeaveBalance = balance
	t.state.employees[id] = emp
	return nil
}

func (t *memTx) ListEmployees(ctx context.Context) ([]Employee, error) {
	out := make([]Employee, 0, len(t.state.employeeOrder))
	for _, id := range t.state.employeeOrder {
		out = append(out, t.state.employees[id])
	}
	return out, nil
}

func (t *memTx) FindLeaveByID(ctx context.Context, id string) (LeaveRequest, error) {
	lv, ok := t.state.leaves[id]
	if !ok {
		return LeaveRequest{}, ErrLeaveNotFound
	}
	return lv, nil
}

func (t *memTx) FindLeavesByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	ids := t.state.byEmployee[employeeID]
	out := make([]LeaveRequest, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.state.leaves[id])
	}
	slices.SortStableFunc(out, func(a, b LeaveRequest) int {
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (t *memTx) CreateLeave(ctx context.Context, request LeaveRequest) error {
	if t.readOnly {
		return errReadOnly
	}
	if _, ok := t.state.employees[request.EmployeeID]; !ok {
		return ErrEmployeeNotFound
	}
	t.state.leaves[request.ID] = request
	t.state.byEmployee[request.EmployeeID] = append(t.state.byEmployee[request.EmployeeID], request.ID)
	return nil
}

func (t *memTx) UpdateLeaveStatus(ctx context.Context, id string, status Status) error {
	if t.readOnly {
		return errReadOnly
	}
	lv, ok := t.state.leaves[id]
	if !ok {
		return ErrLeaveNotFound
	}
	lv.Status = status
	t.state.leaves[id] = lv
	return nil
}

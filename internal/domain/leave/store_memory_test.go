package leave

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	emp := Employee{ID: "e1", Name: "One", Email: "one@example.com", LeaveBalance: 10}
	require.NoError(t, store.Transact(ctx, func(ctx context.Context, tx Tx) error {
		return tx.CreateEmployee(ctx, emp)
	}))

	boom := errors.New("boom")
	err := store.Transact(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.UpdateEmployeeBalance(ctx, emp.ID, 3); err != nil {
			return err
		}
		if err := tx.CreateLeave(ctx, LeaveRequest{ID: "l1", EmployeeID: emp.ID, Status: StatusPending}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, store.View(ctx, func(ctx context.Context, tx Tx) error {
		got, err := tx.FindEmployeeByID(ctx, emp.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.LeaveBalance)

		_, err = tx.FindLeaveByID(ctx, "l1")
		assert.ErrorIs(t, err, ErrLeaveNotFound)

		leaves, err := tx.FindLeavesByEmployee(ctx, emp.ID)
		require.NoError(t, err)
		assert.Empty(t, leaves)
		return nil
	}))
}

func TestMemoryStoreViewIsReadOnly(t *testing.T) {
	store := NewMemoryStore()
	err := store.View(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.CreateEmployee(ctx, Employee{ID: "e1", Email: "ro@example.com"})
	})
	require.ErrorIs(t, err, errReadOnly)
}

func TestMemoryStoreEnforcesUniqueEmail(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Transact(ctx, func(ctx context.Context, tx Tx) error {
		return tx.CreateEmployee(ctx, Employee{ID: "e1", Email: "same@example.com"})
	}))
	err := store.Transact(ctx, func(ctx context.Context, tx Tx) error {
		return tx.CreateEmployee(ctx, Employee{ID: "e2", Email: "same@example.com"})
	})
	require.ErrorIs(t, err, ErrDuplicateEmployee)
}

func TestMemoryStoreCommitIsNotVisibleUntilFnReturns(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	err := store.Transact(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.CreateEmployee(ctx, Employee{ID: "e1", Email: "late@example.com"}); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, store.View(context.Background(), func(ctx context.Context, tx Tx) error {
		employees, err := tx.ListEmployees(ctx)
		require.NoError(t, err)
		assert.Empty(t, employees)
		return nil
	}))
}

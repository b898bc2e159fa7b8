package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leaveledger/internal/app/server"
	"leaveledger/internal/platform/config"
)

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *envelopeError  `json:"error"`
	RequestID string          `json:"requestId"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type employeeBody struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Department   *string `json:"department"`
	JoiningDate  string  `json:"joining_date"`
	LeaveBalance int     `json:"leave_balance"`
}

type leaveBody struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Days       int     `json:"days"`
	Reason     *string `json:"reason"`
	Status     string  `json:"status"`
}

func testConfig(driver, dbURL string) config.Config {
	return config.Config{
		Addr:               ":0",
		Environment:        "test",
		LogLevel:           "error",
		StoreDriver:        driver,
		DatabaseURL:        dbURL,
		DBMaxConns:         5,
		DBMinConns:         0,
		RunMigrations:      true,
		MigrationsDir:      "../../../../migrations",
		MaxBodyBytes:       1048576,
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
		MetricsEnabled:     true,
		ShutdownTimeout:    time.Second,
	}
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	app, err := server.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return ts
}

func memoryServer(t *testing.T) *httptest.Server {
	return newTestServer(t, testConfig(config.StoreDriverMemory, ""))
}

func TestLeaveLedgerJourney(t *testing.T) {
	ts := memoryServer(t)
	runLeaveJourney(t, ts, fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano()))
}

func TestLeaveLedgerJourneyPostgres(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ts := newTestServer(t, testConfig(config.StoreDriverPostgres, dbURL))
	runLeaveJourney(t, ts, fmt.Sprintf("journey-pg-%d@example.com", time.Now().UnixNano()))
}

func runLeaveJourney(t *testing.T, ts *httptest.Server, email string) {
	t.Helper()

	emp := registerEmployee(t, ts, map[string]any{
		"name":          "Journey Person",
		"email":         email,
		"department":    "Engineering",
		"joining_date":  "2023-06-01",
		"leave_balance": 10,
	})
	assert.Equal(t, 10, emp.LeaveBalance)
	assert.Equal(t, "2023-06-01", emp.JoiningDate)
	require.NotNil(t, emp.Department)
	assert.Equal(t, "Engineering", *emp.Department)

	created := applyLeave(t, ts, emp.ID, "2024-03-04", "2024-03-08", http.StatusOK)
	var pending leaveBody
	require.NoError(t, json.Unmarshal(created.Data, &pending))
	assert.Equal(t, "PENDING", pending.Status)
	assert.Equal(t, 5, pending.Days)
	assert.Nil(t, pending.Reason)

	assert.Equal(t, 10, balanceOf(t, ts, emp.ID), "applying must not touch the balance")

	approved := doJSON(t, ts, http.MethodPut, "/leave/"+pending.ID+"/approve", nil, http.StatusOK)
	var approvedBody leaveBody
	require.NoError(t, json.Unmarshal(approved.Data, &approvedBody))
	assert.Equal(t, "APPROVED", approvedBody.Status)
	assert.Equal(t, 5, balanceOf(t, ts, emp.ID))

	again := doJSON(t, ts, http.MethodPut, "/leave/"+pending.ID+"/approve", nil, http.StatusBadRequest)
	assert.Equal(t, "not_pending", again.Error.Code)
	assert.Equal(t, 5, balanceOf(t, ts, emp.ID))

	overlap := applyLeave(t, ts, emp.ID, "2024-03-08", "2024-03-09", http.StatusBadRequest)
	assert.Equal(t, "overlapping_request", overlap.Error.Code)

	second := applyLeave(t, ts, emp.ID, "2024-04-01", "2024-04-02", http.StatusOK)
	var secondBody leaveBody
	require.NoError(t, json.Unmarshal(second.Data, &secondBody))
	rejected := doJSON(t, ts, http.MethodPut, "/leave/"+secondBody.ID+"/reject", nil, http.StatusOK)
	var rejectedBody leaveBody
	require.NoError(t, json.Unmarshal(rejected.Data, &rejectedBody))
	assert.Equal(t, "REJECTED", rejectedBody.Status)
	assert.Equal(t, 5, balanceOf(t, ts, emp.ID))

	listed := doJSON(t, ts, http.MethodGet, "/leave/employee/"+emp.ID, nil, http.StatusOK)
	var leaves []leaveBody
	require.NoError(t, json.Unmarshal(listed.Data, &leaves))
	require.Len(t, leaves, 2)
	assert.Equal(t, "2024-03-04", leaves[0].StartDate)
	assert.Equal(t, "REJECTED", leaves[1].Status)

	resp, err := ts.Client().Get(ts.URL + "/leave/employee/" + emp.ID + "/statement.pdf")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

func registerEmployee(t *testing.T, ts *httptest.Server, payload map[string]any) employeeBody {
	t.Helper()
	env := doJSON(t, ts, http.MethodPost, "/employees", payload, http.StatusOK)
	var emp employeeBody
	require.NoError(t, json.Unmarshal(env.Data, &emp))
	require.NotEmpty(t, emp.ID)
	return emp
}

func applyLeave(t *testing.T, ts *httptest.Server, employeeID, start, end string, want int) envelope {
	t.Helper()
	return doJSON(t, ts, http.MethodPost, "/leave/apply", map[string]any{
		"employee_id": employeeID,
		"start_date":  start,
		"end_date":    end,
	}, want)
}

func balanceOf(t *testing.T, ts *httptest.Server, employeeID string) int {
	t.Helper()
	env := doJSON(t, ts, http.MethodGet, "/leave/balance/"+employeeID, nil, http.StatusOK)
	var body struct {
		EmployeeID   string `json:"employee_id"`
		LeaveBalance int    `json:"leave_balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, employeeID, body.EmployeeID)
	return body.LeaveBalance
}

func doJSON(t *testing.T, ts *httptest.Server, method, path string, body any, want int) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equalf(t, want, resp.StatusCode, "%s %s: %s", method, path, raw)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, want < 300, env.Success)
	assert.NotEmpty(t, env.RequestID)
	return env
}

func TestConcurrentApprovalsOverHTTP(t *testing.T) {
	ts := memoryServer(t)
	emp := registerEmployee(t, ts, map[string]any{
		"name":          "Racer",
		"email":         "racer@example.com",
		"joining_date":  "2023-01-01",
		"leave_balance": 3,
	})

	var ids []string
	for _, r := range [][2]string{{"2024-02-01", "2024-02-02"}, {"2024-02-05", "2024-02-06"}, {"2024-02-08", "2024-02-09"}} {
		env := applyLeave(t, ts, emp.ID, r[0], r[1], http.StatusOK)
		var l leaveBody
		require.NoError(t, json.Unmarshal(env.Data, &l))
		ids = append(ids, l.ID)
	}

	var wg sync.WaitGroup
	statuses := make([]int, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodPut, ts.URL+"/leave/"+id+"/approve", nil)
			if err != nil {
				return
			}
			resp, err := ts.Client().Do(req)
			if err != nil {
				return
			}
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i, id)
	}
	wg.Wait()

	ok := 0
	for _, status := range statuses {
		if status == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusBadRequest, status)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, balanceOf(t, ts, emp.ID))
}

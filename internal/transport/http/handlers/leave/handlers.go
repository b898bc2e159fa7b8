package leavehandler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leaveledger/internal/domain/leave"
	"leaveledger/internal/platform/report"
	"leaveledger/internal/transport/http/api"
	"leaveledger/internal/transport/http/middleware"
	"leaveledger/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Logger  *zap.Logger
}

func NewHandler(service *leave.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.L()
	}
	return &Handler{Service: service, Logger: logger.Named("http.leave")}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Post("/apply", h.handleApply)
		r.Put("/{leaveID}/approve", h.handleApprove)
		r.Put("/{leaveID}/reject", h.handleReject)
		r.Get("/balance/{employeeID}", h.handleBalance)
		r.Get("/employee/{employeeID}", h.handleListForEmployee)
		r.Get("/employee/{employeeID}/statement.pdf", h.handleStatement)
	})
}

type applyPayload struct {
	EmployeeID string  `json:"employee_id" validate:"required"`
	StartDate  string  `json:"start_date" validate:"required,date"`
	EndDate    string  `json:"end_date" validate:"required,date"`
	Reason     *string `json:"reason" validate:"omitempty,max=1000"`
}

type LeaveResponse struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	Days       int       `json:"days"`
	Reason     *string   `json:"reason"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type BalanceResponse struct {
	EmployeeID   string `json:"employee_id"`
	LeaveBalance int    `json:"leave_balance"`
}

func NewLeaveResponse(l leave.LeaveRequest) LeaveResponse {
	return LeaveResponse{
		ID:         l.ID,
		EmployeeID: l.EmployeeID,
		StartDate:  shared.FormatDate(l.StartDate),
		EndDate:    shared.FormatDate(l.EndDate),
		Days:       l.Days(),
		Reason:     l.Reason,
		Status:     string(l.Status),
		CreatedAt:  l.CreatedAt,
	}
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload applyPayload
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	start, startErr := shared.ParseDate(payload.StartDate)
	end, endErr := shared.ParseDate(payload.EndDate)
	if startErr != nil || endErr != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid date", requestID)
		return
	}

	created, err := h.Service.ApplyLeave(r.Context(), leave.ApplyLeaveInput{
		EmployeeID: payload.EmployeeID,
		StartDate:  start,
		EndDate:    end,
		Reason:     payload.Reason,
	})
	if err != nil {
		shared.WriteLedgerError(w, h.Logger, err, requestID)
		return
	}
	api.Success(w, NewLeaveResponse(created), requestID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	approved, err := h.Service.ApproveLeave(r.Context(), chi.URLParam(r, "leaveID"))
	if err != nil {
		shared.WriteLedgerError(w, h.Logger, err, requestID)
		return
	}
	api.Success(w, NewLeaveResponse(approved), requestID)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	rejected, err := h.Service.RejectLeave(r.Context(), chi.URLParam(r, "leaveID"))
	if err != nil {
		shared.WriteLedgerError(w, h.Logger, err, requestID)
		return
	}
	api.Success(w, NewLeaveResponse(rejected), requestID)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	balance, err := h.Service.GetBalance(r.Context(), employeeID)
	if err != nil {
		shared.WriteLedgerError(w, h.Logger, err, requestID)
		return
	}
	api.Success(w, BalanceResponse{EmployeeID: employeeID, LeaveBalance: balance}, requestID)
}

func (h *Handler) handleListForEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	requests, err := h.Service.ListEmployeeLeaves(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteLedgerError(w, h.Logger, err, requestID)
		return
	}
	out := make([]LeaveResponse, 0, len(requests))
	for _, l := range requests {
		out = append(out, NewLeaveResponse(l))
	}
	api.Success(w, out, requestID)
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	statement, err := h.Service.Statement(r.Context(), employeeID)
	if err != nil {
		shared.WriteLedgerError(w, h.Logger, err, requestID)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteStatementPDF(&buf, statement); err != nil {
		h.Logger.Error("render statement failed", zap.Error(err), zap.String("employee_id", employeeID), zap.String("request_id", requestID))
		api.Fail(w, http.StatusInternalServerError, "statement_failed", "failed to render statement", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "leave-statement-"+employeeID+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.Logger.Warn("write statement failed", zap.Error(err), zap.String("request_id", requestID))
	}
}

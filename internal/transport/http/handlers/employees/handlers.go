package employeehandler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leaveledger/internal/domain/leave"
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
	return &Handler{Service: service, Logger: logger.Named("http.employees")}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Post("/", h.handleRegister)
		r.Get("/", h.handleList)
	})
}

type registerPayload struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Email        string  `json:"email" validate:"required,email,max=320"`
	Department   *string `json:"department" validate:"omitempty,max=200"`
	JoiningDate  string  `json:"joining_date" validate:"required,date"`
	LeaveBalance *int    `json:"leave_balance"`
}

type EmployeeResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Department   *string   `json:"department"`
	JoiningDate  string    `json:"joining_date"`
	LeaveBalance int       `json:"leave_balance"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewEmployeeResponse(e leave.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Department:   e.Department,
		JoiningDate:  shared.FormatDate(e.JoiningDate),
		LeaveBalance: e.LeaveBalance,
		CreatedAt:    e.CreatedAt,
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload registerPayload
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "name", Reason: "is required"}})
		return
	}
	joiningDate, err := shared.ParseDate(payload.JoiningDate)
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "joining_date", Reason: "must be a valid date in YYYY-MM-DD format"}})
		return
	}

	employee, err := h.Service.RegisterEmployee(r.Context(), leave.RegisterEmployeeInput{
		Name:         payload.Name,
		Email:        payload.Email,
		Department:   payload.Department,
		JoiningDate:  joiningDate,
		LeaveBalance: payload.LeaveBalance,
	})
	if err != nil {
		shared.WriteLedgerError(w, h.Logger, err, requestID)
		return
	}
	api.Success(w, NewEmployeeResponse(employee), requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employees, err := h.Service.ListEmployees(r.Context())
	if err != nil {
		shared.WriteLedgerError(w, h.Logger, err, requestID)
		return
	}
	out := make([]EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, NewEmployeeResponse(e))
	}
	api.Success(w, out, requestID)
}

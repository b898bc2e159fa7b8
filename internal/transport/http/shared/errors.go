package shared

import (
	"net/http"

	"go.uber.org/zap"

	"leaveledger/internal/domain/leave"
	"leaveledger/internal/transport/http/api"
)

// WriteLedgerError maps ledger failures onto the response envelope.
// Unknown errors become a 500 whose message never leaks the cause.
func WriteLedgerError(w http.ResponseWriter, logger *zap.Logger, err error, requestID string) {
	ledgerErr, ok := leave.AsError(err)
	if !ok {
		if logger == nil {
			logger = zap.L()
		}
		logger.Error("unhandled ledger error", zap.Error(err), zap.String("request_id", requestID))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
		return
	}

	status := http.StatusBadRequest
	if ledgerErr.Kind == leave.KindNotFound {
		status = http.StatusNotFound
	}
	api.Fail(w, status, ledgerErr.Code, err.Error(), requestID)
}

package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"leaveledger/internal/domain/leave"
)

// WriteStatementPDF renders an employee leave statement as an A4 PDF.
func WriteStatementPDF(w io.Writer, statement leave.Statement) error {
	emp := statement.Employee

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Leave statement", true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Leave statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", emp.Name))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", emp.Email))
	pdf.Ln(7)
	if emp.Department != nil && *emp.Department != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Department: %s", *emp.Department))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Joined: %s", emp.JoiningDate.Format(time.DateOnly)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Remaining balance: %d days", emp.LeaveBalance))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Approved: %d days    Pending: %d days", statement.DaysTaken, statement.DaysPending))
	pdf.Ln(12)

	widths := []float64{35, 35, 20, 30, 70}
	pdf.SetFont("Helvetica", "B", 11)
	for i, header := range []string{"Start", "End", "Days", "Status", "Reason"} {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	if len(statement.Lines) == 0 {
		pdf.CellFormat(190, 8, "No leave requests", "1", 1, "C", false, 0, "")
	}
	for _, line := range statement.Lines {
		reason := ""
		if line.Request.Reason != nil {
			reason = truncate(*line.Request.Reason, 40)
		}
		cells := []string{
			line.Request.StartDate.Format(time.DateOnly),
			line.Request.EndDate.Format(time.DateOnly),
			fmt.Sprintf("%d", line.Days),
			string(line.Request.Status),
			reason,
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 8, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", statement.GeneratedAt.Format(time.RFC3339)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-3]) + "..."
}

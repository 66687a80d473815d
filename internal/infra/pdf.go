package infra

// pdf.go generates the printable reconciliation report handed to the
// operator when a session closes: session header, per-method sale
// breakdowns, withdrawal list, and the expected / declared / difference
// block.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"poscore/internal/dto"
)

// GenerateReportPDF writes the reconciliation report for one session as an
// A5 PDF under storagePath (created if needed) and returns the file path.
func GenerateReportPDF(report *dto.ReconciliationReport, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("session_%s.pdf", report.SessionID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, "Cash Session Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Session "+report.SessionID.String(), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, "Opened "+report.OpenedAt.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	if report.ClosedAt != nil {
		pdf.CellFormat(contentW, 4, "Closed "+report.ClosedAt.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	labelW := contentW * 0.62
	amountW := contentW * 0.38

	moneyRow := func(label string, amount decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 8)
		pdf.CellFormat(labelW, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(amountW, 5, "$"+amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	moneyRow("Opening float", report.OpeningFloat, false)
	pdf.Ln(1)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, "Sales", "B", 1, "L", false, 0, "")
	for _, b := range report.NormalSales {
		moneyRow(fmt.Sprintf("%s (%d)", b.Method, b.Count), b.Total, false)
	}
	moneyRow("Sales total", report.NormalSalesTotal, true)
	pdf.Ln(1)

	if len(report.DebtPayments) > 0 {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(contentW, 5, "Debt payments received", "B", 1, "L", false, 0, "")
		for _, b := range report.DebtPayments {
			moneyRow(fmt.Sprintf("%s (%d)", b.Method, b.Count), b.Total, false)
		}
		moneyRow("Debt payments total", report.DebtPaymentsTotal, true)
		pdf.Ln(1)
	}

	if len(report.Withdrawals) > 0 {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(contentW, 5, "Withdrawals", "B", 1, "L", false, 0, "")
		for _, w := range report.Withdrawals {
			reason := w.Reason
			if len(reason) > 34 {
				reason = reason[:33] + "…"
			}
			moneyRow(reason, w.Amount.Neg(), false)
		}
		moneyRow("Withdrawals total", report.WithdrawalsTotal.Neg(), true)
		pdf.Ln(1)
	}

	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(labelW, 6, "Expected in drawer:", "", 0, "L", false, 0, "")
	pdf.CellFormat(amountW, 6, "$"+report.ExpectedAmount.StringFixed(2), "", 1, "R", false, 0, "")

	if report.ClosingAmount != nil && report.Difference != nil {
		moneyRow("Declared at close", *report.ClosingAmount, false)
		moneyRow("Difference", *report.Difference, true)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// Package payslip renders a payroll item as a PDF payslip.
package payslip

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type Data struct {
	CompanyID     string
	BatchID       string
	PayrollMonth  string
	EmployeeID    string
	EmployeeName  string
	EmployeeCode  string
	GradeRank     int
	BasicSalary   int64
	HRA           int64
	Medical       int64
	GrossSalary   int64
	NetAmount     int64
	Status        string
	TransactionID string
	PaidAt        *time.Time
}

func (d Data) FileName() string {
	return fmt.Sprintf("payslip-%s-%s.pdf", d.PayrollMonth, d.EmployeeID)
}

// Render writes the payslip to a byte slice.
func Render(d Data) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s", d.PayrollMonth), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	line(pdf, "Period", d.PayrollMonth)
	line(pdf, "Employee", fmt.Sprintf("%s (%s)", d.EmployeeName, d.EmployeeCode))
	line(pdf, "Grade", fmt.Sprintf("%d", d.GradeRank))
	line(pdf, "Batch", d.BatchID)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(100, 8, "Component", "B", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	row(pdf, "Basic", d.BasicSalary)
	row(pdf, "House rent allowance", d.HRA)
	row(pdf, "Medical allowance", d.Medical)
	pdf.SetFont("Helvetica", "B", 12)
	row(pdf, "Gross", d.GrossSalary)
	row(pdf, "Net", d.NetAmount)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 10)
	line(pdf, "Status", d.Status)
	if d.TransactionID != "" {
		line(pdf, "Transaction", d.TransactionID)
	}
	if d.PaidAt != nil {
		line(pdf, "Paid at", d.PaidAt.Format(time.RFC3339))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render payslip: %w", err)
	}
	return buf.Bytes(), nil
}

func line(pdf *gofpdf.Fpdf, label, value string) {
	pdf.Cell(0, 7, fmt.Sprintf("%s: %s", label, value))
	pdf.Ln(7)
}

func row(pdf *gofpdf.Fpdf, label string, amount int64) {
	pdf.CellFormat(100, 8, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, fmt.Sprintf("%d", amount), "", 1, "R", false, 0, "")
}

package infra

// pdf.go renders the thermal-style sale receipt with go-pdf/fpdf. Receipts
// are derived from the stored Sale on demand and never persisted:
//   - pharmacy name header, receipt number and timestamp
//   - one row per batch draw (name, batch, qty, total)
//   - subtotal, amount paid, change and payment method
//   - cashier name

import (
	"bytes"
	"fmt"

	"github.com/bamskydbest/pharm-back/internal/model"

	"github.com/go-pdf/fpdf"
)

// RenderReceiptPDF returns the receipt of sale as PDF bytes.
func RenderReceiptPDF(sale *model.Sale, pharmacyName string) ([]byte, error) {
	// 80mm roll width; height grows with the number of lines.
	height := 90 + float64(len(sale.Items))*9
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, pharmacyName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sales Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Receipt #%d", sale.ReceiptNo), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.CreatedAt.Format("02 Jan 2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.50
	col2 := contentW * 0.15
	col3 := contentW * 0.35

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Total", "B", 1, "R", false, 0, "")

	for _, item := range sale.Items {
		name := item.Name
		if len(name) > 28 {
			name = name[:27] + "."
		}
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(col1, 5, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, item.Total.StringFixed(2), "", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "I", 6)
		pdf.CellFormat(contentW, 4, fmt.Sprintf("  batch %s @ %s", item.BatchNumber, item.UnitPrice.StringFixed(2)), "", 1, "L", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "SUBTOTAL", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, sale.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(col1+col2, 4, "Paid ("+sale.PaymentMethod+")", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 4, sale.AmountPaid.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(col1+col2, 4, "Change", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 4, sale.Change.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Served by "+sale.SoldByName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Thank you for your purchase", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

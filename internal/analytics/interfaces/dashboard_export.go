package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"admin-dashboard/internal/analytics/application"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
	FormatCSV  = "csv"
)

// BuildDashboardPDF renders a one-page PDF summary of a report.
func BuildDashboardPDF(report application.Report) ([]byte, error) {
	m := report.Metrics
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Sales Dashboard")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", m.ComputedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Timezone: %s", report.Timezone))
	pdf.Ln(5)
	if f := filterLabel(report.Filter); f != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Filter: %s", f))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Total Revenue (%s): %.2f", report.Currency, m.TotalRevenue))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Sales: %d", m.TotalSales))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("This Month: %.2f (%d orders)", m.CurrentMonthRevenue, m.CurrentMonthOrders))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Today: %.2f (%d orders)", m.TodayRevenue, m.TodayOrders))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Month", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Revenue", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, point := range m.SalesByMonthLabel {
		pdf.CellFormat(40, 6, point.Label, "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.2f", point.Sales), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(report.TopProducts) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(70, 6, "Product", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Quantity", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, p := range report.TopProducts {
			pdf.CellFormat(70, 6, p.Product, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, strconv.Itoa(p.Quantity), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildDashboardXLSX renders a workbook with summary, daily, monthly and product sheets.
func BuildDashboardXLSX(report application.Report) ([]byte, error) {
	m := report.Metrics
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	dailySheet := "daily"
	monthlySheet := "monthly"
	productsSheet := "products"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	for _, name := range []string{dailySheet, monthlySheet, productsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", "Sales Dashboard")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", m.ComputedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Timezone")
	_ = f.SetCellValue(summarySheet, "B4", report.Timezone)
	_ = f.SetCellValue(summarySheet, "A5", "Currency")
	_ = f.SetCellValue(summarySheet, "B5", report.Currency)
	_ = f.SetCellValue(summarySheet, "A6", "Total Revenue")
	_ = f.SetCellValue(summarySheet, "B6", m.TotalRevenue)
	_ = f.SetCellValue(summarySheet, "A7", "Total Sales")
	_ = f.SetCellValue(summarySheet, "B7", m.TotalSales)
	_ = f.SetCellValue(summarySheet, "A8", "Current Month Revenue")
	_ = f.SetCellValue(summarySheet, "B8", m.CurrentMonthRevenue)
	_ = f.SetCellValue(summarySheet, "A9", "Current Month Orders")
	_ = f.SetCellValue(summarySheet, "B9", m.CurrentMonthOrders)
	_ = f.SetCellValue(summarySheet, "A10", "Today Revenue")
	_ = f.SetCellValue(summarySheet, "B10", m.TodayRevenue)
	_ = f.SetCellValue(summarySheet, "A11", "Today Orders")
	_ = f.SetCellValue(summarySheet, "B11", m.TodayOrders)
	_ = f.SetCellValue(summarySheet, "A12", "Filter")
	_ = f.SetCellValue(summarySheet, "B12", filterLabel(report.Filter))

	_ = f.SetCellValue(dailySheet, "A1", "Day")
	_ = f.SetCellValue(dailySheet, "B1", "Timestamp")
	_ = f.SetCellValue(dailySheet, "C1", "Revenue")
	for i, point := range m.DailyRevenue {
		row := i + 2
		_ = f.SetCellValue(dailySheet, fmt.Sprintf("A%d", row), point.Day.Format("2006-01-02"))
		_ = f.SetCellValue(dailySheet, fmt.Sprintf("B%d", row), point.Timestamp)
		_ = f.SetCellValue(dailySheet, fmt.Sprintf("C%d", row), point.Amount)
	}

	_ = f.SetCellValue(monthlySheet, "A1", "Month")
	_ = f.SetCellValue(monthlySheet, "B1", "Label")
	_ = f.SetCellValue(monthlySheet, "C1", "Revenue")
	for i, point := range m.MonthlyRevenue {
		row := i + 2
		_ = f.SetCellValue(monthlySheet, fmt.Sprintf("A%d", row), point.Month.String())
		if i < len(m.SalesByMonthLabel) {
			_ = f.SetCellValue(monthlySheet, fmt.Sprintf("B%d", row), m.SalesByMonthLabel[i].Label)
		}
		_ = f.SetCellValue(monthlySheet, fmt.Sprintf("C%d", row), point.Amount)
	}

	_ = f.SetCellValue(productsSheet, "A1", "Product")
	_ = f.SetCellValue(productsSheet, "B1", "Quantity")
	for i, p := range m.ProductsSoldSeries() {
		row := i + 2
		_ = f.SetCellValue(productsSheet, fmt.Sprintf("A%d", row), p.Product)
		_ = f.SetCellValue(productsSheet, fmt.Sprintf("B%d", row), p.Quantity)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildDashboardCSV renders the daily revenue series as CSV.
func BuildDashboardCSV(report application.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{"day", "timestamp", "revenue", "currency"})
	for _, point := range report.Metrics.DailyRevenue {
		_ = writer.Write([]string{
			point.Day.Format("2006-01-02"),
			strconv.FormatInt(point.Timestamp, 10),
			strconv.FormatFloat(point.Amount, 'f', -1, 64),
			report.Currency,
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func filterLabel(f application.FilterView) string {
	var out string
	add := func(k, v string) {
		if v == "" {
			return
		}
		if out != "" {
			out += ", "
		}
		out += k + "=" + v
	}
	add("status", f.Status)
	if f.From != nil {
		add("from", f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		add("to", f.To.Format(time.RFC3339))
	}
	add("q", f.Search)
	return out
}
